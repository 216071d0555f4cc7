package handler

import (
	"time"

	"github.com/smartwaste/civic-core/internal/core/domain"
)

// --- auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type quickLoginRequest struct {
	Role string `json:"role" validate:"required,role"`
}

type switchRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

type authResponse struct {
	Token     string          `json:"token"`
	SessionID string          `json:"session_id"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      domain.Identity `json:"user"`
}

type userResponse struct {
	User domain.Identity `json:"user"`
}

type roleEntryResponse struct {
	Role  domain.Role     `json:"role"`
	Label string          `json:"label"`
	User  domain.Identity `json:"user"`
}

type rolesResponse struct {
	Roles []roleEntryResponse `json:"roles"`
}

// --- dashboard ---

type dashboardResponse struct {
	Dashboard domain.Role     `json:"dashboard"`
	Label     string          `json:"label"`
	User      domain.Identity `json:"user"`
}

// --- assistant ---

type respondRequest struct {
	Message string `json:"message" validate:"max=2000"`
}

type respondResponse struct {
	Intent domain.Intent `json:"intent"`
	Reply  string        `json:"reply"`
}

type quickRepliesResponse struct {
	Role         domain.Role `json:"role"`
	SupportLabel string      `json:"support_label"`
	Preview      []string    `json:"preview"`
	All          []string    `json:"all"`
}

type submitRequest struct {
	Text string `json:"text" validate:"max=2000"`
}

type conversationResponse struct {
	ID           string            `json:"id"`
	Role         domain.Role       `json:"role"`
	SupportLabel string            `json:"support_label"`
	Open         bool              `json:"open"`
	Thinking     bool              `json:"thinking"`
	QuickReplies []string          `json:"quick_replies"`
	Messages     domain.Transcript `json:"messages"`
}

type submitResponse struct {
	Accepted     bool `json:"accepted"`
	conversationResponse
}
