package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/orders"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/referral"
)

// appError is what a handler failure turns into on the wire. Err stays in
// the logs.
type appError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *appError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *appError) Unwrap() error { return e.Err }

func newAppError(code int, message string, err error) *appError {
	return &appError{Code: code, Message: message, Err: err}
}

// classify maps domain errors onto responses. fallback is the message for
// anything unexpected.
func classify(err error, fallback string) *appError {
	var ae *appError
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, orders.ErrInvalidStatus):
		return newAppError(http.StatusBadRequest, "Invalid status", err)
	case errors.Is(err, orders.ErrInvalidCancelStatus):
		return newAppError(http.StatusBadRequest, "Invalid cancellation status", err)
	case errors.Is(err, orders.ErrReasonRequired):
		return newAppError(http.StatusBadRequest, "Cancellation reason is required", err)
	case errors.Is(err, orders.ErrNotCancellable):
		return newAppError(http.StatusBadRequest, "This order cannot be cancelled", err)
	case errors.Is(err, orders.ErrOrderNotFound):
		return newAppError(http.StatusNotFound, "Order not found", err)
	case errors.Is(err, orders.ErrCancelLogNotFound):
		return newAppError(http.StatusNotFound, "Cancellation not found", err)
	case errors.Is(err, referral.ErrInvalidAmount):
		return newAppError(http.StatusBadRequest, "Invalid withdrawal amount", err)
	case errors.Is(err, referral.ErrInsufficientBalance):
		return newAppError(http.StatusBadRequest, "Insufficient balance", err)
	case errors.Is(err, referral.ErrUserNotFound):
		return newAppError(http.StatusNotFound, "User not found", err)
	case errors.Is(err, orders.ErrForbidden):
		return newAppError(http.StatusForbidden, "You do not have permission to access this order", err)
	default:
		return newAppError(http.StatusInternalServerError, fallback, err)
	}
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, e *appError) {
	writeJSON(w, e.Code, envelope{Success: false, Message: e.Message})
}
