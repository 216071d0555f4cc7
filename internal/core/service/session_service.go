package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/smartwaste/civic-core/internal/core/domain"
	"github.com/smartwaste/civic-core/internal/core/ports"
	"github.com/smartwaste/civic-core/internal/pkg/metrics"
)

// StorageKey is the key the current identity is stored under for a
// single-client store (the CLI state file).
const StorageKey = "currentUser"

// SessionKey returns the storage key for sessionID. An empty id maps to
// StorageKey so a single-client store keeps one fixed key.
func SessionKey(sessionID string) string {
	if sessionID == "" {
		return StorageKey
	}
	return "session:" + sessionID + ":" + StorageKey
}

// Session holds at most one current identity, mirrored into a durable store.
// Reads prefer the in-memory copy. Writes go to the store first and reach the
// in-memory copy only once the store accepted them.
type Session struct {
	store    ports.SessionStore
	registry *Registry
	key      string
	log      zerolog.Logger

	mu      sync.Mutex
	current *domain.Identity
}

// NewSession returns a session persisted under key.
func NewSession(store ports.SessionStore, registry *Registry, key string, log zerolog.Logger) *Session {
	if key == "" {
		key = StorageKey
	}
	return &Session{
		store:    store,
		registry: registry,
		key:      key,
		log:      log.With().Str("session_key", key).Logger(),
	}
}

// Authenticate resolves email/password against the registry. On failure it
// returns domain.ErrInvalidCredentials and leaves the session as it was.
func (s *Session) Authenticate(ctx context.Context, email, password string) (domain.Identity, error) {
	id, ok := s.registry.Lookup(email)
	if !ok || !s.registry.CheckPassword(password) {
		metrics.AuthAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		s.log.Info().Str("email", email).Msg("authentication rejected")
		return domain.Identity{}, domain.ErrInvalidCredentials
	}

	if err := s.replace(ctx, id); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("error").Inc()
		return domain.Identity{}, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", id.ID).Str("role", id.Role.String()).Msg("authenticated")
	return id, nil
}

// Logout clears the session from memory and from the store. Logging out of an
// empty session is a no-op.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, s.key); err != nil {
		s.log.Error().Err(err).Msg("failed to clear stored session")
		return err
	}
	s.current = nil
	return nil
}

// CurrentIdentity returns the cached identity, falling back to the store.
// A missing, unreadable or corrupt record reads as no session.
func (s *Session) CurrentIdentity(ctx context.Context) (domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return *s.current, true
	}

	raw, err := s.store.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.log.Warn().Err(err).Msg("session store read failed, treating as logged out")
		}
		return domain.Identity{}, false
	}

	id, err := domain.DecodeIdentity(raw)
	if err != nil {
		metrics.CorruptSessionsTotal.Inc()
		s.log.Warn().Err(err).Msg("discarding corrupt stored session")
		if delErr := s.store.Delete(ctx, s.key); delErr != nil {
			s.log.Warn().Err(delErr).Msg("failed to remove corrupt session")
		}
		return domain.Identity{}, false
	}

	s.current = &id
	return id, true
}

// IsAuthenticated reports whether there is a current identity.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.CurrentIdentity(ctx)
	return ok
}

// HasRole reports whether the current identity has role.
func (s *Session) HasRole(ctx context.Context, role domain.Role) bool {
	id, ok := s.CurrentIdentity(ctx)
	return ok && id.Role == role
}

// SwitchRole replaces the current identity with the canonical identity for
// role. An unknown role returns domain.ErrUnknownRole and changes nothing.
func (s *Session) SwitchRole(ctx context.Context, role domain.Role) (domain.Identity, error) {
	if !role.Valid() {
		return domain.Identity{}, domain.ErrUnknownRole
	}
	id, ok := s.registry.ForRole(role)
	if !ok {
		return domain.Identity{}, domain.ErrUnknownRole
	}

	if err := s.replace(ctx, id); err != nil {
		return domain.Identity{}, err
	}

	metrics.RoleSwitchesTotal.WithLabelValues(role.String()).Inc()
	s.log.Info().Str("user_id", id.ID).Str("role", role.String()).Msg("role switched")
	return id, nil
}

// AvailableRoles lists the demo roster in registry order.
func (s *Session) AvailableRoles() []domain.RoleEntry {
	return s.registry.Entries()
}

func (s *Session) replace(ctx context.Context, id domain.Identity) error {
	raw, err := domain.EncodeIdentity(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(ctx, s.key, raw); err != nil {
		s.log.Error().Err(err).Msg("failed to persist session")
		return err
	}
	s.current = &id
	return nil
}

// SessionFactory opens sessions that share a store and registry.
type SessionFactory struct {
	store    ports.SessionStore
	registry *Registry
	log      zerolog.Logger
}

// NewSessionFactory returns a factory for sessions backed by store.
func NewSessionFactory(store ports.SessionStore, registry *Registry, log zerolog.Logger) *SessionFactory {
	return &SessionFactory{store: store, registry: registry, log: log}
}

// Open returns the session for sessionID. Each call yields a fresh in-memory
// view over the same durable record.
func (f *SessionFactory) Open(sessionID string) ports.SessionService {
	return NewSession(f.store, f.registry, SessionKey(sessionID), f.log)
}

// Registry exposes the roster the factory authenticates against.
func (f *SessionFactory) Registry() *Registry {
	return f.registry
}
