package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/credential/domain"
	"github.com/smallbiznis/invoicedesk/internal/migration"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("credential.repository",
	fx.Provide(NewStore),
)

// NewStore builds the credential store selected by SESSION_STORE.
func NewStore(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (domain.Store, error) {
	ttl := cfg.SessionTTL
	switch cfg.Session.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
		log.Info("session store ready", zap.String("backend", "redis"), zap.String("addr", cfg.Session.RedisAddr))
		return NewRedisStore(client, cfg.Session.KeyPrefix, ttl), nil

	case "postgres", "mysql", "sqlite":
		conn, err := db.New(lc, db.ConfigFrom(cfg), log)
		if err != nil {
			return nil, err
		}
		if err := migration.Apply(conn, cfg.DBType); err != nil {
			return nil, err
		}
		log.Info("session store ready", zap.String("backend", cfg.DBType))
		return NewGormStore(conn, ttl), nil

	case "memory", "":
		log.Warn("session store is in-memory; sessions are lost on restart")
		return NewMemoryStore(ttl), nil

	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.Session.Store)
	}
}
