package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invoicedesk/internal/credential/domain"
)

type redisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore stores each credential as a JSON string under prefix+sessionID with a sliding TTL.
func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) domain.Store {
	return &redisStore{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

func (s *redisStore) Backend() string { return "redis" }

func (s *redisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *redisStore) Get(ctx context.Context, sessionID string) (*domain.Credential, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.ErrInvalidSessionID
	}
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var cred domain.Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

func (s *redisStore) Save(ctx context.Context, cred *domain.Credential) error {
	if cred == nil || strings.TrimSpace(cred.SessionID) == "" {
		return domain.ErrInvalidSessionID
	}
	now := s.now().UTC()
	record := cred.Clone()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	record.ExpiresAt = nil

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(cred.SessionID), payload, s.ttl).Err()
}

func (s *redisStore) Touch(ctx context.Context, sessionID string, ttl time.Duration) error {
	ok, err := s.client.Expire(ctx, s.key(sessionID), ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}
