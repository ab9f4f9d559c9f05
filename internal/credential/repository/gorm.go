package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smallbiznis/invoicedesk/internal/credential/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"gorm.io/gorm"
)

type gormStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewGormStore keeps credentials in the session_credentials table.
// Expiry is enforced on read through the expires_at column.
func NewGormStore(conn *gorm.DB, ttl time.Duration) domain.Store {
	return &gormStore{db: conn, ttl: ttl, now: time.Now}
}

func (s *gormStore) Backend() string { return "sql" }

func (s *gormStore) Get(ctx context.Context, sessionID string) (*domain.Credential, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.ErrInvalidSessionID
	}
	var cred domain.Credential
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if cred.ExpiresAt != nil && s.now().After(*cred.ExpiresAt) {
		return nil, domain.ErrNotFound
	}
	return &cred, nil
}

func (s *gormStore) Save(ctx context.Context, cred *domain.Credential) error {
	if cred == nil || strings.TrimSpace(cred.SessionID) == "" {
		return domain.ErrInvalidSessionID
	}
	now := s.now().UTC()
	record := cred.Clone()
	record.UpdatedAt = now
	record.ExpiresAt = s.expiry(now)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}

	err := s.db.WithContext(ctx).Create(record).Error
	if err == nil || !db.IsDuplicateKeyErr(err) {
		return err
	}

	return s.db.WithContext(ctx).
		Model(&domain.Credential{}).
		Where("session_id = ?", record.SessionID).
		Select("csrf_state", "realm_id", "access_token", "refresh_token", "expires_at", "updated_at").
		Updates(record).Error
}

func (s *gormStore) Touch(ctx context.Context, sessionID string, ttl time.Duration) error {
	now := s.now().UTC()
	expires := now.Add(ttl)
	tx := s.db.WithContext(ctx).
		Model(&domain.Credential{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{"expires_at": expires, "updated_at": now})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *gormStore) Delete(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&domain.Credential{}).Error
}

func (s *gormStore) expiry(now time.Time) *time.Time {
	if s.ttl <= 0 {
		return nil
	}
	expires := now.Add(s.ttl)
	return &expires
}
