package reservation_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/internal/auth"
	"github.com/frahmantamala/intranet-portal/internal/reservation"
	reservationPostgres "github.com/frahmantamala/intranet-portal/internal/reservation/postgres"
	"github.com/frahmantamala/intranet-portal/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reservation Handler", func() {
	var (
		router *chi.Mux
		caller *auth.User
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
		db := newTestDB()
		service := reservation.NewService(reservationPostgres.NewReservationRepository(db), auth.NewPolicy(), nil, slogger)
		handler := reservation.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		caller = &auth.User{ID: 2, Username: "jane", Role: auth.RoleUser}
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), caller)))
			})
		})
		router.Get("/reservations", handler.ListReservations)
		router.Post("/reservations", handler.CreateReservation)
		router.Post("/reservations/check-availability", handler.CheckAvailability)
		router.Delete("/reservations/{id}", handler.CancelReservation)
		router.Get("/rooms/{id}/schedule", handler.RoomSchedule)
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	type envelope struct {
		Error struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}

	It("creates a reservation and answers a conflicting one with 409", func() {
		w := do(http.MethodPost, "/reservations", map[string]interface{}{
			"meetingRoomId": 1, "startTime": "2030-03-04T09:00:00Z", "endTime": "2030-03-04T10:00:00Z", "purpose": "Standup",
		})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var created reservation.Reservation
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.MeetingRoomName).To(Equal("Board Room"))

		w = do(http.MethodPost, "/reservations", map[string]interface{}{
			"meetingRoomId": 1, "startTime": "2030-03-04T09:30:00Z", "endTime": "2030-03-04T10:30:00Z",
		})
		Expect(w.Code).To(Equal(http.StatusConflict))

		var env envelope
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		Expect(env.Error.Code).To(Equal(string(internal.ErrCodeReservationConflict)))

		var details reservation.ConflictDetails
		Expect(json.Unmarshal(env.Error.Details, &details)).To(Succeed())
		Expect(details.ConflictingReservationID).To(Equal(created.ID))
		Expect(details.Conflicts).To(HaveLen(1))
	})

	It("rejects unknown body fields", func() {
		w := do(http.MethodPost, "/reservations", map[string]interface{}{
			"meetingRoomId": 1, "startTime": "2030-03-04T09:00:00Z", "endTime": "2030-03-04T10:00:00Z", "roomName": "x",
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("checks availability without booking", func() {
		w := do(http.MethodPost, "/reservations/check-availability", map[string]interface{}{
			"roomId": 1, "startTime": "2030-03-04T09:00:00Z", "endTime": "2030-03-04T10:00:00Z",
		})
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp reservation.AvailabilityResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Available).To(BeTrue())

		w = do(http.MethodGet, "/reservations", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"totalItems":0`))
	})

	It("cancels with 204", func() {
		w := do(http.MethodPost, "/reservations", map[string]interface{}{
			"meetingRoomId": 2, "startTime": "2030-03-04T09:00:00Z", "endTime": "2030-03-04T10:00:00Z",
		})
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = do(http.MethodDelete, "/reservations/1", nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))
	})

	It("serves a room schedule for a single day", func() {
		Expect(do(http.MethodPost, "/reservations", map[string]interface{}{
			"meetingRoomId": 1, "startTime": "2030-03-04T09:00:00Z", "endTime": "2030-03-04T10:00:00Z",
		}).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodPost, "/reservations", map[string]interface{}{
			"meetingRoomId": 1, "startTime": "2030-03-05T09:00:00Z", "endTime": "2030-03-05T10:00:00Z",
		}).Code).To(Equal(http.StatusCreated))

		w := do(http.MethodGet, "/rooms/1/schedule?date=2030-03-04", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var sched reservation.ScheduleResponse
		Expect(json.NewDecoder(w.Body).Decode(&sched)).To(Succeed())
		Expect(sched.RoomName).To(Equal("Board Room"))
		Expect(sched.Reservations).To(HaveLen(1))
	})

	DescribeTable("bad query parameters",
		func(path string) {
			w := do(http.MethodGet, path, nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			var env envelope
			Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
			Expect(env.Error.Code).To(Equal(string(internal.ErrCodeInvalidParams)))
		},
		Entry("schedule date", "/rooms/1/schedule?date=tomorrow"),
		Entry("status filter", "/reservations?status=pending"),
		Entry("room filter", "/reservations?roomId=abc"),
		Entry("start filter", "/reservations?startDate=yesterday"),
	)
})
