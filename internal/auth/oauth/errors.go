package oauth

import (
	"errors"
	"fmt"
)

var (
	ErrCSRFMismatch          = errors.New("oauth state mismatch")
	ErrMissingParameters     = errors.New("missing code or realmId")
	ErrSessionWriteTimeout   = errors.New("session write timed out")
	ErrProviderNotConfigured = errors.New("oauth provider not configured")
	ErrInvalidSession        = errors.New("invalid session")
)

// TokenExchangeError is a non-2xx answer from the token endpoint.
type TokenExchangeError struct {
	Status int
	Body   string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: status %d", e.Status)
}
