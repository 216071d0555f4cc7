package cli

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartwaste/civic-core/internal/api"
	"github.com/smartwaste/civic-core/internal/core/service"
	"github.com/smartwaste/civic-core/internal/infrastructure/db"
	"github.com/smartwaste/civic-core/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var port, backend string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Sessions are kept in the store named by STORE_BACKEND (redis, mongo, sqlite or
memory). Swagger UI is served under /swagger/ and Prometheus metrics under
/metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd.Context())
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			if backend != "" {
				cfg.StoreBackend = backend
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			log := logger.Init(logger.Options{
				Level:   cfg.LogLevel,
				Pretty:  cfg.IsDevelopment(),
				Service: "smartwaste",
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := db.Open(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := store.Close(closeCtx); err != nil {
					log.Error().Err(err).Msg("failed to close session store")
				}
			}()

			registry, err := service.NewDemoRegistry(cfg.DemoPassword)
			if err != nil {
				return err
			}

			secret := cfg.JWTSecret
			if secret == "" {
				secret = randomSecret()
				log.Warn().Msg("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
			}

			seeded := func(stream uint64) *rand.Rand {
				if cfg.Assistant.Seed == 0 {
					return nil
				}
				return rand.New(rand.NewPCG(cfg.Assistant.Seed, stream))
			}
			hub := service.NewConversationHub(service.ConversationConfig{
				Responder: service.NewDispatcher(seeded(1)),
				Delay:     service.DelayRange{Min: cfg.Assistant.MinDelay, Max: cfg.Assistant.MaxDelay},
				Rand:      seeded(2),
				Log:       logger.Component("assistant"),
			})
			go hub.Run(ctx, cfg.Assistant.Sweep, cfg.Assistant.MaxIdle)

			e := api.NewRouter(api.Deps{
				Sessions:  service.NewSessionFactory(store, registry, logger.Component("session")),
				Tokens:    service.NewJWTIssuer(secret, cfg.SessionTTL),
				Assistant: service.NewDispatcher(seeded(3)),
				Hub:       hub,
				Store:     store,
				Backend:   store.Backend,
				JWTSecret: secret,
				Log:       log,
			})

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("port", cfg.Port).Str("backend", store.Backend).Msg("starting server")
				if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				return err
			}
			log.Info().Int("conversations", hub.Len()).Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (default $PORT)")
	cmd.Flags().StringVar(&backend, "backend", "", "Session store: redis, mongo, sqlite or memory (default $STORE_BACKEND)")
	return cmd
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = crand.Read(b)
	return hex.EncodeToString(b)
}
