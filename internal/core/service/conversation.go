package service

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smartwaste/civic-core/internal/core/domain"
	"github.com/smartwaste/civic-core/internal/core/ports"
	"github.com/smartwaste/civic-core/internal/pkg/metrics"
)

// Timer is a pending deferred call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d without blocking the caller.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// TimerScheduler schedules with time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// DelayRange bounds the simulated thinking delay: [Min, Max).
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

// DefaultDelay matches the widget's 1–2 second typing indicator.
var DefaultDelay = DelayRange{Min: time.Second, Max: 2 * time.Second}

func (r DelayRange) pick(rng *rand.Rand) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rng.Int64N(int64(r.Max-r.Min)))
}

// ConversationConfig carries the collaborators of a conversation. Nil
// collaborators are replaced with defaults. Delay is taken as given: the zero
// range replies immediately, so pass DefaultDelay for the widget's pacing.
type ConversationConfig struct {
	Responder ports.Responder
	Delay     DelayRange
	Rand      *rand.Rand
	Scheduler Scheduler
	Clock     func() time.Time
	Log       zerolog.Logger
}

func (c ConversationConfig) withDefaults() ConversationConfig {
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if c.Responder == nil {
		c.Responder = NewDispatcher(rand.New(rand.NewPCG(c.Rand.Uint64(), c.Rand.Uint64())))
	}
	if c.Scheduler == nil {
		c.Scheduler = TimerScheduler{}
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// Conversation is one assistant widget: an append-only transcript that
// starts with the greeting, plus the replies still being "typed".
type Conversation struct {
	id  string
	cfg ConversationConfig

	mu          sync.Mutex
	role        domain.Role
	open        bool
	ended       bool
	messages    []domain.Message
	pending     map[uint64]Timer
	nextPending uint64
	listeners   map[int]func(domain.Message)
	nextListen  int
	lastActive  time.Time
}

// NewConversation returns a closed widget for role with its transcript seeded.
func NewConversation(role domain.Role, cfg ConversationConfig) *Conversation {
	cfg = cfg.withDefaults()
	c := &Conversation{
		id:        newID(),
		cfg:       cfg,
		role:      role,
		pending:   make(map[uint64]Timer),
		listeners: make(map[int]func(domain.Message)),
	}
	c.cfg.Log = cfg.Log.With().Str("conversation_id", c.id).Logger()
	c.lastActive = cfg.Clock()
	c.messages = append(c.messages, c.newMessage(Greeting, domain.SenderAssistant))
	return c
}

func (c *Conversation) ID() string { return c.id }

func (c *Conversation) Role() domain.Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

// SetRole changes the role used for replies to later submissions.
func (c *Conversation) SetRole(role domain.Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.role = role
}

func (c *Conversation) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return
	}
	c.open = true
	c.lastActive = c.cfg.Clock()
}

// Close hides the widget. Replies already being typed still arrive.
func (c *Conversation) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	c.lastActive = c.cfg.Clock()
}

func (c *Conversation) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Submit appends the trimmed user message right away and schedules the
// assistant reply after a random delay. Whitespace-only text is rejected with
// domain.ErrEmptyMessage and the transcript is returned unchanged.
func (c *Conversation) Submit(text string) (domain.Transcript, error) {
	trimmed := strings.TrimSpace(text)

	c.mu.Lock()
	if trimmed == "" {
		defer c.mu.Unlock()
		return c.snapshot(), domain.ErrEmptyMessage
	}
	if !c.open || c.ended {
		defer c.mu.Unlock()
		return c.snapshot(), domain.ErrConversationClosed
	}

	msg := c.newMessage(trimmed, domain.SenderUser)
	c.messages = append(c.messages, msg)
	c.lastActive = msg.Timestamp

	role := c.role
	delay := c.cfg.Delay.pick(c.cfg.Rand)
	token := c.nextPending
	c.nextPending++
	c.pending[token] = nil

	snap := c.snapshot()
	listeners := c.listenerList()
	c.mu.Unlock()

	notify(listeners, msg)

	timer := c.cfg.Scheduler.AfterFunc(delay, func() {
		c.deliver(token, text, role, delay)
	})

	c.mu.Lock()
	if _, ok := c.pending[token]; ok {
		c.pending[token] = timer
	}
	c.mu.Unlock()

	return snap, nil
}

func (c *Conversation) deliver(token uint64, text string, role domain.Role, delay time.Duration) {
	reply := c.cfg.Responder.Classify(text, role)

	c.mu.Lock()
	if _, ok := c.pending[token]; !ok || c.ended {
		c.mu.Unlock()
		return
	}
	delete(c.pending, token)

	msg := c.newMessage(reply.Text, domain.SenderAssistant)
	c.messages = append(c.messages, msg)
	c.lastActive = msg.Timestamp
	listeners := c.listenerList()
	c.mu.Unlock()

	metrics.AssistantRepliesTotal.WithLabelValues(string(reply.Intent), role.String()).Inc()
	metrics.AssistantReplyDelay.Observe(delay.Seconds())
	c.cfg.Log.Debug().
		Str("intent", string(reply.Intent)).
		Str("role", role.String()).
		Dur("delay", delay).
		Msg("assistant replied")

	notify(listeners, msg)
}

// Transcript returns a snapshot of the messages so far.
func (c *Conversation) Transcript() domain.Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Thinking reports whether a reply is still pending.
func (c *Conversation) Thinking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) > 0
}

// LastActive is the time of the last submission, reply or toggle.
func (c *Conversation) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Subscribe registers fn to be called after every appended message. The
// returned func removes it again.
func (c *Conversation) Subscribe(fn func(domain.Message)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListen
	c.nextListen++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// End tears the widget down: pending replies are cancelled and the
// transcript is discarded.
func (c *Conversation) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return
	}
	for token, t := range c.pending {
		if t != nil {
			t.Stop()
		}
		delete(c.pending, token)
	}
	c.ended = true
	c.open = false
	c.messages = nil
	clear(c.listeners)
}

func (c *Conversation) snapshot() domain.Transcript {
	out := make(domain.Transcript, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) listenerList() []func(domain.Message) {
	out := make([]func(domain.Message), 0, len(c.listeners))
	for _, fn := range c.listeners {
		out = append(out, fn)
	}
	return out
}

func (c *Conversation) newMessage(text string, sender domain.Sender) domain.Message {
	return domain.Message{
		ID:        newID(),
		Text:      text,
		Sender:    sender,
		Timestamp: c.cfg.Clock(),
	}
}

func notify(listeners []func(domain.Message), msg domain.Message) {
	for _, fn := range listeners {
		fn(msg)
	}
}

// newID returns a time-ordered UUIDv7, falling back to a random v4.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
