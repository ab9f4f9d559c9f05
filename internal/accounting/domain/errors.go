package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotAuthenticated = errors.New("not_authenticated")
	ErrInvalidResource  = errors.New("invalid_resource")
	ErrInvalidQuery     = errors.New("invalid_query")
	ErrNotFound         = errors.New("not_found")
)

// UpstreamError is any non-2xx response from the accounting API. Body is kept
// verbatim so callers can surface the platform's own fault message.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("accounting api returned %d: %s", e.Status, truncate(e.Body, 512))
}

// Reauthenticate reports whether the caller must run the login flow again.
func (e *UpstreamError) Reauthenticate() bool {
	return e.Status == http.StatusUnauthorized
}

// IsReauthenticate reports whether err carries an upstream 401.
func IsReauthenticate(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream) && upstream.Reauthenticate()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
