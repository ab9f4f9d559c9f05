package repository

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/smallbiznis/invoicedesk/internal/credential/domain"
)

type memoryStore struct {
	items *gocache.Cache
	ttl   time.Duration
}

// NewMemoryStore keeps credentials in process memory. Sessions do not survive a restart.
func NewMemoryStore(ttl time.Duration) domain.Store {
	expiration := ttl
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	return &memoryStore{items: gocache.New(expiration, 10*time.Minute), ttl: expiration}
}

func (s *memoryStore) Backend() string { return "memory" }

func (s *memoryStore) Get(_ context.Context, sessionID string) (*domain.Credential, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.ErrInvalidSessionID
	}
	value, ok := s.items.Get(sessionID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return value.(*domain.Credential).Clone(), nil
}

func (s *memoryStore) Save(ctx context.Context, cred *domain.Credential) error {
	if cred == nil || strings.TrimSpace(cred.SessionID) == "" {
		return domain.ErrInvalidSessionID
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now().UTC()
	record := cred.Clone()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	s.items.Set(record.SessionID, record, s.ttl)
	return nil
}

func (s *memoryStore) Touch(_ context.Context, sessionID string, ttl time.Duration) error {
	value, ok := s.items.Get(sessionID)
	if !ok {
		return domain.ErrNotFound
	}
	s.items.Set(sessionID, value, ttl)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, sessionID string) error {
	s.items.Delete(sessionID)
	return nil
}
