package service

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartwaste/civic-core/internal/core/domain"
)

func newTestHub() (*ConversationHub, *manualScheduler, *fixedClock) {
	sched := &manualScheduler{}
	clock := newFixedClock()
	hub := NewConversationHub(ConversationConfig{
		Responder: seededDispatcher(),
		Rand:      rand.New(rand.NewPCG(9, 9)),
		Delay:     DefaultDelay,
		Scheduler: sched,
		Clock:     clock.Now,
		Log:       zerolog.Nop(),
	})
	return hub, sched, clock
}

func TestConversationHub_StartGetEnd(t *testing.T) {
	hub, _, _ := newTestHub()

	conv := hub.Start("alice", domain.RoleCitizen)
	assert.True(t, conv.IsOpen())
	assert.Equal(t, domain.RoleCitizen, conv.Role())

	got, err := hub.Get("alice", conv.ID())
	require.NoError(t, err)
	assert.Equal(t, conv.ID(), got.ID())

	_, err = hub.Get("bob", conv.ID())
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	assert.ErrorIs(t, hub.End("bob", conv.ID()), domain.ErrConversationNotFound)

	require.NoError(t, hub.End("alice", conv.ID()))
	_, err = hub.Get("alice", conv.ID())
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	assert.Equal(t, 0, hub.Len())
}

func TestConversationHub_EndOwner(t *testing.T) {
	hub, _, _ := newTestHub()

	hub.Start("alice", domain.RoleCitizen)
	hub.Start("alice", domain.RoleCitizen)
	keep := hub.Start("bob", domain.RoleWorker)

	assert.Equal(t, 2, hub.EndOwner("alice"))
	assert.Equal(t, 1, hub.Len())
	_, err := hub.Get("bob", keep.ID())
	assert.NoError(t, err)
}

func TestConversationHub_SweepSkipsThinking(t *testing.T) {
	hub, sched, clock := newTestHub()

	idle := hub.Start("alice", domain.RoleCitizen)
	busy := hub.Start("bob", domain.RoleAdmin)
	_, err := busy.Submit("city overview")
	require.NoError(t, err)

	later := clock.Now().Add(time.Hour)
	assert.Equal(t, 1, hub.Sweep(later, 30*time.Minute))

	_, err = hub.Get("alice", idle.ID())
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	_, err = hub.Get("bob", busy.ID())
	assert.NoError(t, err)

	sched.FireAll()
	assert.Equal(t, 1, hub.Sweep(later.Add(time.Hour), 30*time.Minute))
}
