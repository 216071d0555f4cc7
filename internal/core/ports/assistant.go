package ports

import "github.com/smartwaste/civic-core/internal/core/domain"

// Responder classifies free text for a role and returns a canned reply.
type Responder interface {
	Classify(input string, role domain.Role) domain.Reply
}

// Assistant is a Responder that also knows what the widget shows around the
// transcript.
type Assistant interface {
	Responder
	Suggestions(role domain.Role) (preview, all []string)
	SupportLabel(role domain.Role) string
}

// Conversation is a single assistant widget instance.
type Conversation interface {
	ID() string
	Role() domain.Role
	SetRole(role domain.Role)
	Open()
	Close()
	IsOpen() bool
	Submit(text string) (domain.Transcript, error)
	Transcript() domain.Transcript
	Thinking() bool
}

// ConversationHub keeps the conversations of many owners apart.
type ConversationHub interface {
	Start(owner string, role domain.Role) Conversation
	Get(owner, id string) (Conversation, error)
	End(owner, id string) error
}
