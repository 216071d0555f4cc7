package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of actors the application knows about.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleWorker  Role = "worker"
	RoleAdmin   Role = "admin"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownRole        = errors.New("unknown role")
	ErrCorruptSession     = errors.New("corrupt session record")
	ErrSessionNotFound    = errors.New("session not found")
	ErrDuplicateIdentity  = errors.New("duplicate identity")
)

// Roles returns every role in registry order.
func Roles() []Role {
	return []Role{RoleCitizen, RoleWorker, RoleAdmin}
}

// ParseRole converts an external role tag into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleWorker, RoleAdmin:
		return true
	}
	return false
}

// Label is the human-facing name used by the role switcher.
func (r Role) Label() string {
	switch r {
	case RoleCitizen:
		return "Citizen"
	case RoleWorker:
		return "Worker"
	case RoleAdmin:
		return "Admin/Monitor"
	}
	return ""
}

func (r Role) String() string { return string(r) }

// MarshalText refuses to emit a role outside the closed set.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, string(r))
	}
	return []byte(r), nil
}

// UnmarshalText refuses to decode a role outside the closed set.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Identity is a role-tagged demo user resolvable by email.
// It is treated as a value: switching roles replaces it wholesale.
type Identity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// Validate checks that every required field is present and the role is known.
func (i Identity) Validate() error {
	var missing []string
	if i.ID == "" {
		missing = append(missing, "id")
	}
	if i.Name == "" {
		missing = append(missing, "name")
	}
	if i.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("identity missing %s", strings.Join(missing, ", "))
	}
	if !i.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, string(i.Role))
	}
	return nil
}

// RoleEntry pairs a role with its canonical demo identity.
type RoleEntry struct {
	Role     Role     `json:"role"`
	Identity Identity `json:"identity"`
}

// EncodeIdentity serialises an identity for the durable session store.
func EncodeIdentity(i Identity) (string, error) {
	if err := i.Validate(); err != nil {
		return "", err
	}
	b, err := json.Marshal(i)
	if err != nil {
		return "", fmt.Errorf("encode identity: %w", err)
	}
	return string(b), nil
}

// DecodeIdentity parses a stored identity. Anything unparseable or not
// matching the Identity schema is reported as ErrCorruptSession.
func DecodeIdentity(raw string) (Identity, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var i Identity
	if err := dec.Decode(&i); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	if dec.More() {
		return Identity{}, fmt.Errorf("%w: trailing data", ErrCorruptSession)
	}
	if err := i.Validate(); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	return i, nil
}
