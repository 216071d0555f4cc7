package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/smartwaste/civic-core/internal/core/domain"
)

// DemoPassword is the single password every demo identity accepts.
const DemoPassword = "password"

// demoHashCost keeps registry construction cheap; the hash only guards a
// published demo literal.
const demoHashCost = bcrypt.MinCost

// Registry is the fixed roster of demo identities, one per role.
type Registry struct {
	identities   []domain.Identity
	byEmail      map[string]int
	byRole       map[domain.Role]int
	passwordHash []byte
}

// NewRegistry builds a registry from identities in the given order. Emails,
// ids and roles must be unique.
func NewRegistry(password string, identities ...domain.Identity) (*Registry, error) {
	r := &Registry{
		identities: make([]domain.Identity, 0, len(identities)),
		byEmail:    make(map[string]int, len(identities)),
		byRole:     make(map[domain.Role]int, len(identities)),
	}
	ids := make(map[string]struct{}, len(identities))

	for _, id := range identities {
		if err := id.Validate(); err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		if _, ok := r.byEmail[id.Email]; ok {
			return nil, fmt.Errorf("registry: %w: email %s", domain.ErrDuplicateIdentity, id.Email)
		}
		if _, ok := r.byRole[id.Role]; ok {
			return nil, fmt.Errorf("registry: %w: role %s", domain.ErrDuplicateIdentity, id.Role)
		}
		if _, ok := ids[id.ID]; ok {
			return nil, fmt.Errorf("registry: %w: id %s", domain.ErrDuplicateIdentity, id.ID)
		}
		ids[id.ID] = struct{}{}
		r.byEmail[id.Email] = len(r.identities)
		r.byRole[id.Role] = len(r.identities)
		r.identities = append(r.identities, id)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), demoHashCost)
	if err != nil {
		return nil, fmt.Errorf("registry: hash password: %w", err)
	}
	r.passwordHash = hash

	return r, nil
}

// DemoIdentities returns the three canonical demo users.
func DemoIdentities() []domain.Identity {
	return []domain.Identity{
		{ID: "1", Name: "John Citizen", Email: "john@example.com", Role: domain.RoleCitizen, Avatar: "/citizen-avatar.jpg"},
		{ID: "2", Name: "Sarah Worker", Email: "sarah@example.com", Role: domain.RoleWorker, Avatar: "/worker-avatar.jpg"},
		{ID: "3", Name: "Mike Admin", Email: "mike@example.com", Role: domain.RoleAdmin, Avatar: "/admin-avatar.png"},
	}
}

// NewDemoRegistry builds the demo roster guarded by password. An empty
// password falls back to DemoPassword.
func NewDemoRegistry(password string) (*Registry, error) {
	if password == "" {
		password = DemoPassword
	}
	return NewRegistry(password, DemoIdentities()...)
}

// Lookup finds an identity by exact, case-sensitive email.
func (r *Registry) Lookup(email string) (domain.Identity, bool) {
	i, ok := r.byEmail[email]
	if !ok {
		return domain.Identity{}, false
	}
	return r.identities[i], true
}

// ForRole returns the canonical identity for role.
func (r *Registry) ForRole(role domain.Role) (domain.Identity, bool) {
	i, ok := r.byRole[role]
	if !ok {
		return domain.Identity{}, false
	}
	return r.identities[i], true
}

// CheckPassword reports whether password is the accepted demo password.
func (r *Registry) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(r.passwordHash, []byte(password)) == nil
}

// Entries lists the roster in definition order.
func (r *Registry) Entries() []domain.RoleEntry {
	out := make([]domain.RoleEntry, len(r.identities))
	for i, id := range r.identities {
		out[i] = domain.RoleEntry{Role: id.Role, Identity: id}
	}
	return out
}
