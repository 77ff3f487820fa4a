package transport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/pkg/logger"
	"github.com/go-chi/chi"
)

// exposeInternalErrors is switched on in development so 500 responses carry
// the underlying cause.
var exposeInternalErrors bool

func ExposeInternalErrors(enabled bool) {
	exposeInternalErrors = enabled
}

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteAppError writes the {"error":{...}} envelope for err.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, err *internal.AppError) {
	status, body := err.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// HandleServiceError maps any error returned by a service onto the error
// envelope. Errors that are not AppErrors become a 500.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		if appErr.StatusCode >= http.StatusInternalServerError {
			h.Logger.Error("internal error", "error", err)
			if !exposeInternalErrors {
				appErr = appErr.WithDetails(nil)
			} else if appErr.Cause != nil {
				appErr = appErr.WithDetails(map[string]string{"cause": appErr.Cause.Error()})
			}
		}
		h.WriteAppError(w, appErr)
		return
	}

	h.Logger.Error("unhandled error", "error", err)
	internalErr := internal.NewInternalError("An unexpected error occurred", err)
	if exposeInternalErrors {
		internalErr = internalErr.WithDetails(map[string]string{"cause": err.Error()})
	}
	h.WriteAppError(w, internalErr)
}

// WriteError writes an error envelope with a generic code for status.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	code := internal.ErrCodeValidationFailed
	switch status {
	case http.StatusUnauthorized:
		code = internal.ErrCodeUnauthorized
	case http.StatusForbidden:
		code = internal.ErrCodeForbidden
	case http.StatusNotFound:
		code = internal.ErrCodeNotFound
	case http.StatusBadRequest:
		code = internal.ErrCodeInvalidParams
	case http.StatusInternalServerError:
		code = internal.ErrCodeInternal
	}
	h.WriteAppError(w, &internal.AppError{Code: code, Message: message, StatusCode: status})
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return internal.NewValidationError("request body is required", internal.ErrCodeValidationFailed)
		}
		return internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed).WithCause(err)
	}
	return nil
}

// IDParam parses the named chi URL parameter as a positive int64.
func (h *BaseHandler) IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationError("invalid "+name, internal.ErrCodeInvalidParams)
	}
	return id, nil
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}
