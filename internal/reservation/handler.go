package reservation

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/internal/auth"
	"github.com/frahmantamala/intranet-portal/internal/core/common/pagination"
	"github.com/frahmantamala/intranet-portal/internal/transport"
)

const dateLayout = "2006-01-02"

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[*Reservation], error)
	Get(ctx context.Context, id int64) (*Reservation, error)
	Create(ctx context.Context, actor *auth.User, dto CreateReservationDTO) (*Reservation, error)
	Update(ctx context.Context, actor *auth.User, id int64, dto UpdateReservationDTO) (*Reservation, error)
	Cancel(ctx context.Context, actor *auth.User, id int64) error
	CheckAvailability(ctx context.Context, dto CheckAvailabilityDTO) (*AvailabilityResponse, error)
	RoomSchedule(ctx context.Context, roomID int64, from, to time.Time) (*ScheduleResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	filter, err := parseListFilter(r.URL.Query())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	page, err := h.Service.List(r.Context(), filter, params)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	res, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	var dto CreateReservationDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	res, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateReservationDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	res, err := h.Service.Update(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Cancel(r.Context(), actor, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var dto CheckAvailabilityDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.CheckAvailability(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// RoomSchedule serves GET /rooms/{id}/schedule. The window is either a whole
// UTC day given by date=YYYY-MM-DD or an explicit startDate/endDate pair.
// Without parameters it covers today.
func (h *Handler) RoomSchedule(w http.ResponseWriter, r *http.Request) {
	roomID, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	from, to, err := scheduleWindow(r.URL.Query(), time.Now().UTC())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.RoomSchedule(r.Context(), roomID, from, to)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func scheduleWindow(q url.Values, now time.Time) (time.Time, time.Time, error) {
	if raw := q.Get("date"); raw != "" {
		day, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, invalidParam("date")
		}
		return day, day.AddDate(0, 0, 1), nil
	}

	start, err := parseTimeParam(q, "startDate")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseTimeParam(q, "endDate")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case start == nil && end == nil:
		return today, today.AddDate(0, 0, 1), nil
	case start == nil:
		return end.AddDate(0, 0, -1), *end, nil
	case end == nil:
		return *start, start.AddDate(0, 0, 1), nil
	}
	return *start, *end, nil
}

func parseListFilter(q url.Values) (ListFilter, error) {
	var filter ListFilter
	var err error

	if filter.RoomID, err = parseIDParam(q, "roomId"); err != nil {
		return filter, err
	}
	if filter.UserID, err = parseIDParam(q, "userId"); err != nil {
		return filter, err
	}
	if raw := q.Get("status"); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			return filter, invalidParam("status")
		}
		filter.Status = &status
	}
	if filter.StartDate, err = parseTimeParam(q, "startDate"); err != nil {
		return filter, err
	}
	if filter.EndDate, err = parseTimeParam(q, "endDate"); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseIDParam(q url.Values, name string) (*int64, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, invalidParam(name)
	}
	return &id, nil
}

// parseTimeParam accepts RFC 3339 timestamps or plain dates.
func parseTimeParam(q url.Values, name string) (*time.Time, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return &t, nil
	}
	return nil, invalidParam(name)
}

func invalidParam(name string) error {
	return internal.NewValidationError("invalid "+name, internal.ErrCodeInvalidParams)
}
