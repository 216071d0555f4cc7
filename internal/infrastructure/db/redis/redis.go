package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartwaste/civic-core/internal/pkg/config"
)

const (
	defaultTimeout = 5 * time.Second
	clientName     = "smartwaste-sessions"
)

// Open dials the server in cfg, checks it answers, and returns a session store
// whose keys expire ttl after their last write.
func Open(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*SessionStore, error) {
	client, err := dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewSessionStore(client, ttl), nil
}

func dial(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		ClientName:  clientName,
		DialTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s/%d: %w", cfg.Addr, cfg.DB, err)
	}
	return client, nil
}
