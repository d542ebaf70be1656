package domain

import "errors"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrContentTooShort  = errors.New("content too short")
	ErrNotFound         = errors.New("not found")
)

// AuthError carries the human-readable message the backend attached to a
// failed auth operation. Callers render Message directly; the generic
// fallbacks live with the operation that produced the error.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// NewAuthError builds an AuthError, substituting fallback when the backend
// supplied no message of its own.
func NewAuthError(message, fallback string) *AuthError {
	if message == "" {
		message = fallback
	}
	return &AuthError{Message: message}
}
