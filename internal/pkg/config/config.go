package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	StoreBackend string        `env:"STORE_BACKEND, default=redis"`
	SessionTTL   time.Duration `env:"SESSION_TTL,   default=24h"`
	DemoPassword string        `env:"DEMO_PASSWORD, default=password"`

	Assistant AssistantConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	SQLite    SQLiteConfig
}

type AssistantConfig struct {
	MinDelay time.Duration `env:"ASSISTANT_MIN_DELAY,    default=1s"`
	MaxDelay time.Duration `env:"ASSISTANT_MAX_DELAY,    default=2s"`
	Seed     uint64        `env:"ASSISTANT_SEED"`
	MaxIdle  time.Duration `env:"ASSISTANT_MAX_IDLE,     default=30m"`
	Sweep    time.Duration `env:"ASSISTANT_SWEEP_EVERY,  default=1m"`
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=smartwaste"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT,  default=5s"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH, default=.smartwaste/state.db"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendRedis, BackendMongo, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.Assistant.MinDelay < 0 || c.Assistant.MaxDelay < c.Assistant.MinDelay {
		return errors.New("config: ASSISTANT_MAX_DELAY must be >= ASSISTANT_MIN_DELAY >= 0")
	}
	if c.Assistant.MaxIdle <= 0 {
		return errors.New("config: ASSISTANT_MAX_IDLE must be positive")
	}
	if c.Assistant.Sweep <= 0 {
		return errors.New("config: ASSISTANT_SWEEP_EVERY must be positive")
	}
	if c.Env == "production" && c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required in production")
	}
	return nil
}

// IsDevelopment reports whether pretty logs and demo defaults apply.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
