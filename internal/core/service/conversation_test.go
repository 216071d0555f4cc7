package service

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartwaste/civic-core/internal/core/domain"
)

func newTestConversation(role domain.Role) (*Conversation, *manualScheduler) {
	sched := &manualScheduler{}
	clock := newFixedClock()
	conv := NewConversation(role, ConversationConfig{
		Responder: seededDispatcher(),
		Rand:      rand.New(rand.NewPCG(3, 4)),
		Delay:     DefaultDelay,
		Scheduler: sched,
		Clock:     clock.Now,
		Log:       zerolog.Nop(),
	})
	conv.Open()
	return conv, sched
}

func TestConversation_SeededWithGreeting(t *testing.T) {
	conv, _ := newTestConversation(domain.RoleCitizen)

	tr := conv.Transcript()
	require.Len(t, tr, 1)
	assert.Equal(t, domain.SenderAssistant, tr[0].Sender)
	assert.Equal(t, Greeting, tr[0].Text)
	assert.NotEmpty(t, tr[0].ID)
	assert.False(t, conv.Thinking())
}

func TestConversation_SubmitAppendsUserMessageSynchronously(t *testing.T) {
	conv, sched := newTestConversation(domain.RoleCitizen)

	tr, err := conv.Submit("  When is collection?  ")
	require.NoError(t, err)
	require.Len(t, tr, 2)
	assert.Equal(t, domain.SenderUser, tr[1].Sender)
	assert.Equal(t, "When is collection?", tr[1].Text)
	assert.True(t, conv.Thinking())

	require.Equal(t, 1, sched.FireAll())
	assert.False(t, conv.Thinking())

	tr = conv.Transcript()
	require.Len(t, tr, 3)
	assert.Equal(t, domain.SenderAssistant, tr[2].Sender)
	assert.Equal(t, generalRules[0].reply, tr[2].Text)
}

func TestConversation_TranscriptOrdering(t *testing.T) {
	conv, sched := newTestConversation(domain.RoleWorker)

	inputs := []string{"schedule?", "Today's route", "xyzzy"}
	for _, in := range inputs {
		_, err := conv.Submit(in)
		require.NoError(t, err)
		require.Equal(t, 1, sched.FireAll())
	}

	tr := conv.Transcript()
	require.Len(t, tr, 1+2*len(inputs))
	assert.Equal(t, Greeting, tr[0].Text)

	ids := make(map[string]bool)
	for i, m := range tr {
		assert.False(t, ids[m.ID], "duplicate id %s", m.ID)
		ids[m.ID] = true
		if i == 0 {
			continue
		}
		assert.True(t, m.Timestamp.After(tr[i-1].Timestamp), "message %d out of order", i)
		if i%2 == 1 {
			assert.Equal(t, domain.SenderUser, m.Sender)
			assert.Equal(t, inputs[i/2], m.Text)
		} else {
			assert.Equal(t, domain.SenderAssistant, m.Sender)
		}
	}
}

func TestConversation_EmptyInputIsNoop(t *testing.T) {
	conv, sched := newTestConversation(domain.RoleCitizen)
	before := conv.Transcript()

	for _, in := range []string{"", "   ", "\t\n"} {
		tr, err := conv.Submit(in)
		assert.ErrorIs(t, err, domain.ErrEmptyMessage)
		assert.Equal(t, before, tr)
	}

	assert.Equal(t, before, conv.Transcript())
	assert.Empty(t, sched.delays())
	assert.False(t, conv.Thinking())
}

func TestConversation_ClosedRejectsSubmit(t *testing.T) {
	conv, _ := newTestConversation(domain.RoleCitizen)
	conv.Close()
	assert.False(t, conv.IsOpen())

	tr, err := conv.Submit("hello")
	assert.ErrorIs(t, err, domain.ErrConversationClosed)
	assert.Len(t, tr, 1)

	conv.Open()
	_, err = conv.Submit("hello")
	assert.NoError(t, err)
}

func TestConversation_CloseDoesNotCancelReply(t *testing.T) {
	conv, sched := newTestConversation(domain.RoleCitizen)

	_, err := conv.Submit("green points?")
	require.NoError(t, err)
	conv.Close()

	require.Equal(t, 1, sched.FireAll())
	assert.Len(t, conv.Transcript(), 3)
}

func TestConversation_EndCancelsPendingReplies(t *testing.T) {
	conv, sched := newTestConversation(domain.RoleCitizen)

	_, err := conv.Submit("schedule")
	require.NoError(t, err)
	conv.End()

	assert.Equal(t, 0, sched.FireAll())
	assert.Empty(t, conv.Transcript())
	assert.False(t, conv.Thinking())

	conv.Open()
	assert.False(t, conv.IsOpen(), "ended widget cannot reopen")
}

func TestConversation_DelayIsRandomizedWithinRange(t *testing.T) {
	conv, sched := newTestConversation(domain.RoleAdmin)

	for i := 0; i < 20; i++ {
		_, err := conv.Submit("city overview")
		require.NoError(t, err)
	}

	delays := sched.delays()
	require.Len(t, delays, 20)
	distinct := make(map[time.Duration]bool)
	for _, d := range delays {
		assert.GreaterOrEqual(t, d, DefaultDelay.Min)
		assert.Less(t, d, DefaultDelay.Max)
		distinct[d] = true
	}
	assert.Greater(t, len(distinct), 1, "delay should not be constant")
}

func TestConversation_ConfiguredDelayIsHonoured(t *testing.T) {
	tests := map[string]DelayRange{
		"zero range":     {},
		"constant range": {Min: 250 * time.Millisecond, Max: 250 * time.Millisecond},
	}

	for name, delay := range tests {
		t.Run(name, func(t *testing.T) {
			sched := &manualScheduler{}
			conv := NewConversation(domain.RoleCitizen, ConversationConfig{
				Responder: seededDispatcher(),
				Delay:     delay,
				Scheduler: sched,
				Log:       zerolog.Nop(),
			})
			conv.Open()

			for i := 0; i < 3; i++ {
				_, err := conv.Submit("hello")
				require.NoError(t, err)
			}

			assert.Equal(t, []time.Duration{delay.Min, delay.Min, delay.Min}, sched.delays())
			assert.Equal(t, 3, sched.FireAll())
			assert.Len(t, conv.Transcript(), 7)
		})
	}
}

func TestConversation_UsesRoleAtSubmitTime(t *testing.T) {
	conv, sched := newTestConversation(domain.RoleCitizen)

	_, err := conv.Submit("my rating")
	require.NoError(t, err)
	conv.SetRole(domain.RoleAdmin)
	_, err = conv.Submit("city overview")
	require.NoError(t, err)
	sched.FireAll()

	tr := conv.Transcript()
	require.Len(t, tr, 5)
	assert.Equal(t, citizenRules[0].reply, tr[3].Text)
	assert.Equal(t, adminRules[0].reply, tr[4].Text)
}

func TestConversation_SubscribeNotifiesListeners(t *testing.T) {
	conv, sched := newTestConversation(domain.RoleCitizen)

	var mu sync.Mutex
	var got []domain.Sender
	unsubscribe := conv.Subscribe(func(m domain.Message) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, m.Sender)
	})

	_, err := conv.Submit("segregation")
	require.NoError(t, err)
	sched.FireAll()

	unsubscribe()
	_, err = conv.Submit("segregation")
	require.NoError(t, err)
	sched.FireAll()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.Sender{domain.SenderUser, domain.SenderAssistant}, got)
}

func TestConversation_RealTimerDelivers(t *testing.T) {
	conv := NewConversation(domain.RoleCitizen, ConversationConfig{
		Delay: DelayRange{Min: time.Millisecond, Max: 5 * time.Millisecond},
		Log:   zerolog.Nop(),
	})
	conv.Open()

	done := make(chan domain.Message, 2)
	conv.Subscribe(func(m domain.Message) {
		if m.Sender == domain.SenderAssistant {
			done <- m
		}
	})

	tr, err := conv.Submit("report a problem")
	require.NoError(t, err)
	assert.Len(t, tr, 2, "submit returns before the reply")

	select {
	case m := <-done:
		assert.Equal(t, generalRules[3].reply, m.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("reply never arrived")
	}
}
