package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starpool/starpool-backend/internal/models"
)

type APIError struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details interface{}) {
	WriteJSON(w, status, APIError{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

// ErrorStatus maps domain sentinel errors onto HTTP statuses.
func ErrorStatus(err error) (status int, code string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrInsufficientBalance):
		return http.StatusPaymentRequired, "insufficient_balance"
	case errors.Is(err, models.ErrPoolExpired):
		return http.StatusConflict, "pool_expired"
	case errors.Is(err, models.ErrPoolFull):
		return http.StatusConflict, "pool_full"
	case errors.Is(err, models.ErrAlreadyContributed):
		return http.StatusConflict, "already_contributed"
	case errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// WriteServiceError translates a service error into the standard error body.
// Unrecognized errors are logged and reported as an opaque 500.
func WriteServiceError(w http.ResponseWriter, err error) {
	status, code := ErrorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("internal error", "err", err)
		msg = "internal error"
	}
	WriteError(w, status, code, msg, nil)
}
