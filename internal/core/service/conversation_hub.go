package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartwaste/civic-core/internal/core/domain"
	"github.com/smartwaste/civic-core/internal/core/ports"
	"github.com/smartwaste/civic-core/internal/pkg/metrics"
)

type hubEntry struct {
	owner string
	conv  *Conversation
}

// ConversationHub holds the open assistant widgets of many clients. A
// conversation is only visible to the owner that started it.
type ConversationHub struct {
	cfg ConversationConfig
	log zerolog.Logger

	mu    sync.Mutex
	seeds *rand.Rand
	byID  map[string]hubEntry
}

// NewConversationHub returns a hub whose conversations share cfg. cfg.Rand
// only seeds the per-conversation random sources.
func NewConversationHub(cfg ConversationConfig) *ConversationHub {
	cfg = cfg.withDefaults()
	return &ConversationHub{
		cfg:   cfg,
		log:   cfg.Log,
		seeds: cfg.Rand,
		byID:  make(map[string]hubEntry),
	}
}

// Start opens a new widget for owner.
func (h *ConversationHub) Start(owner string, role domain.Role) ports.Conversation {
	h.mu.Lock()
	cfg := h.cfg
	cfg.Rand = rand.New(rand.NewPCG(h.seeds.Uint64(), h.seeds.Uint64()))
	h.mu.Unlock()

	conv := NewConversation(role, cfg)
	conv.Open()

	h.mu.Lock()
	h.byID[conv.ID()] = hubEntry{owner: owner, conv: conv}
	h.mu.Unlock()

	metrics.ConversationsActive.Inc()
	h.log.Debug().Str("conversation_id", conv.ID()).Str("role", role.String()).Msg("conversation started")
	return conv
}

// Get returns owner's conversation id, or domain.ErrConversationNotFound.
func (h *ConversationHub) Get(owner, id string) (ports.Conversation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.byID[id]
	if !ok || e.owner != owner {
		return nil, domain.ErrConversationNotFound
	}
	return e.conv, nil
}

// End tears down owner's conversation id.
func (h *ConversationHub) End(owner, id string) error {
	h.mu.Lock()
	e, ok := h.byID[id]
	if !ok || e.owner != owner {
		h.mu.Unlock()
		return domain.ErrConversationNotFound
	}
	delete(h.byID, id)
	h.mu.Unlock()

	e.conv.End()
	metrics.ConversationsActive.Dec()
	return nil
}

// EndOwner tears down every conversation of owner and reports how many.
func (h *ConversationHub) EndOwner(owner string) int {
	h.mu.Lock()
	var ended []*Conversation
	for id, e := range h.byID {
		if e.owner == owner {
			ended = append(ended, e.conv)
			delete(h.byID, id)
		}
	}
	h.mu.Unlock()

	for _, c := range ended {
		c.End()
		metrics.ConversationsActive.Dec()
	}
	return len(ended)
}

// Len reports how many conversations the hub holds.
func (h *ConversationHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byID)
}

// Sweep ends conversations idle since before now-maxIdle and that have no
// reply in flight.
func (h *ConversationHub) Sweep(now time.Time, maxIdle time.Duration) int {
	cutoff := now.Add(-maxIdle)

	h.mu.Lock()
	var stale []*Conversation
	for id, e := range h.byID {
		if e.conv.LastActive().Before(cutoff) && !e.conv.Thinking() {
			stale = append(stale, e.conv)
			delete(h.byID, id)
		}
	}
	h.mu.Unlock()

	for _, c := range stale {
		c.End()
		metrics.ConversationsActive.Dec()
	}
	if len(stale) > 0 {
		h.log.Info().Int("count", len(stale)).Msg("swept idle conversations")
	}
	return len(stale)
}

// Run sweeps idle conversations every interval until ctx is cancelled.
func (h *ConversationHub) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.Sweep(now, maxIdle)
		}
	}
}
