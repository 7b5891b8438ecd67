package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	ErrNotLoggedIn       = errors.New("not logged in")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrSessionExpired    = errors.New("session expired")
	ErrUnrecognizedRole  = errors.New("unrecognized role, contact the administrator")
	ErrEntryNotFound     = errors.New("attendee not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateVoucher  = errors.New("voucher already registered")
	ErrForbidden         = errors.New("access forbidden")
	ErrIncompleteReply   = errors.New("incomplete server response")
	ErrInvalidInput      = errors.New("invalid input")
)

// APIError is a non-2xx reply from the remote API. Message is the server's
// own wording and is safe to show to the operator.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrInvalidCredential) match 401/403/404 replies.
func (e *APIError) Is(target error) bool {
	return target == ErrInvalidCredential && isCredentialStatus(e.Status)
}

func isCredentialStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound
}

// IsInvalidCredential reports whether err means the stored credential is no
// longer accepted and the session must be dropped.
func IsInvalidCredential(err error) bool {
	return errors.Is(err, ErrInvalidCredential)
}

// IsTransient reports whether err is worth retrying on the next tick:
// network failures, timeouts, 429 and 5xx replies.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
