package ports

import (
	"context"
	"time"

	"github.com/smartwaste/civic-core/internal/core/domain"
)

// SessionService tracks the current actor for one client.
type SessionService interface {
	Authenticate(ctx context.Context, email, password string) (domain.Identity, error)
	Logout(ctx context.Context) error
	CurrentIdentity(ctx context.Context) (domain.Identity, bool)
	IsAuthenticated(ctx context.Context) bool
	HasRole(ctx context.Context, role domain.Role) bool
	SwitchRole(ctx context.Context, role domain.Role) (domain.Identity, error)
	AvailableRoles() []domain.RoleEntry
}

// SessionOpener hands out the session bound to a session id.
type SessionOpener interface {
	Open(sessionID string) SessionService
}

// TokenIssuer mints bearer tokens that carry a session id.
type TokenIssuer interface {
	Issue(sessionID string, identity domain.Identity) (token string, expiresAt time.Time, err error)
}
