package domain

import (
	"errors"
	"time"
)

// Sender identifies who authored a transcript message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

var (
	ErrEmptyMessage         = errors.New("message text is empty")
	ErrConversationClosed   = errors.New("conversation is closed")
	ErrConversationNotFound = errors.New("conversation not found")
)

// Message is a single transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript is an ordered, append-only list of messages. Values of this type
// handed out by a conversation are snapshots and safe to modify.
type Transcript []Message

// Intent names the dispatcher rule that produced a reply.
type Intent string

const (
	IntentSchedule          Intent = "schedule"
	IntentSegregation       Intent = "segregation"
	IntentGreenPoints       Intent = "green_points"
	IntentReportIssue       Intent = "report_issue"
	IntentRating            Intent = "rating"
	IntentRedeem            Intent = "redeem"
	IntentRoute             Intent = "route"
	IntentRateHousehold     Intent = "rate_household"
	IntentCityOverview      Intent = "city_overview"
	IntentWorkerPerformance Intent = "worker_performance"
	IntentFallback          Intent = "fallback"
)

// Reply is the dispatcher's answer together with the rule that matched.
type Reply struct {
	Intent Intent `json:"intent"`
	Text   string `json:"text"`
}
