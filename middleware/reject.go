package middleware

import (
	"errors"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// Rejection is the caller-facing outcome of a failed session operation.
// The message set is deliberately coarse so the internal failure kind is
// never recoverable from the response body.
type Rejection struct {
	Status  int
	Message string
}

// RejectionFor maps a Manager error onto the externally safe response for a
// refresh/logout endpoint. Handlers that only guard reads should prefer the
// uniform rejection [Guard] already applies.
func RejectionFor(err error) Rejection {
	switch {
	case errors.Is(err, goSession.ErrRefreshNotFound),
		errors.Is(err, goSession.ErrRefreshMismatch):
		return Rejection{Status: http.StatusUnauthorized, Message: "please log in again"}
	case errors.Is(err, goSession.ErrRefreshInvalid):
		return Rejection{Status: http.StatusUnauthorized, Message: "session expired, log in again"}
	default:
		return Rejection{Status: http.StatusUnauthorized, Message: "access denied"}
	}
}
