// Package memory is an in-process session store for tests and ephemeral runs.
package memory

import (
	"context"
	"sync"

	"github.com/smartwaste/civic-core/internal/core/domain"
)

type SessionStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{data: make(map[string]string)}
}

func (s *SessionStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	return v, nil
}

func (s *SessionStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *SessionStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *SessionStore) Ping(context.Context) error { return nil }
