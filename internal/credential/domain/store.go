package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("credential_not_found")
	ErrInvalidSessionID = errors.New("invalid_session_id")
)

// Store persists credentials keyed by opaque session id.
type Store interface {
	// Get returns ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, sessionID string) (*Credential, error)
	// Save durably writes the full record and refreshes its expiry.
	Save(ctx context.Context, cred *Credential) error
	// Touch extends the expiry of an existing record.
	Touch(ctx context.Context, sessionID string, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
	// Backend names the storage engine for logs and metrics.
	Backend() string
}

// Load returns the stored credential or a fresh empty one for a new session.
func Load(ctx context.Context, store Store, sessionID string) (*Credential, error) {
	cred, err := store.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return New(sessionID), nil
	}
	if err != nil {
		return nil, err
	}
	return cred, nil
}
