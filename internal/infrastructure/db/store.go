// Package db opens the session store selected by configuration.
package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/smartwaste/civic-core/internal/core/ports"
	"github.com/smartwaste/civic-core/internal/infrastructure/db/memory"
	mongostore "github.com/smartwaste/civic-core/internal/infrastructure/db/mongo"
	redisstore "github.com/smartwaste/civic-core/internal/infrastructure/db/redis"
	"github.com/smartwaste/civic-core/internal/infrastructure/db/sqlite"
	"github.com/smartwaste/civic-core/internal/pkg/config"
)

// Store is an open session store plus the function that releases it.
type Store struct {
	ports.SessionStore
	Backend string
	close   func(context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the backend named by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Store, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		store, err := redisstore.Open(ctx, cfg.Redis, cfg.SessionTTL)
		if err != nil {
			return nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Int("db", cfg.Redis.DB).Msg("redis connected")
		return &Store{
			SessionStore: store,
			Backend:      cfg.StoreBackend,
			close:        func(context.Context) error { return store.Close() },
		}, nil

	case config.BackendMongo:
		store, err := mongostore.Open(ctx, cfg.Mongo, cfg.SessionTTL)
		if err != nil {
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo connected")
		return &Store{SessionStore: store, Backend: cfg.StoreBackend, close: store.Close}, nil

	case config.BackendSQLite:
		conn, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("path", cfg.SQLite.Path).Msg("sqlite opened")
		return &Store{
			SessionStore: sqlite.NewSessionStore(conn),
			Backend:      cfg.StoreBackend,
			close:        func(context.Context) error { return conn.Close() },
		}, nil

	case config.BackendMemory:
		return &Store{SessionStore: memory.NewSessionStore(), Backend: cfg.StoreBackend}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
