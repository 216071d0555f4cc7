package ports

import "context"

// SessionStore is the durable string-keyed storage a session is mirrored into.
// Get returns domain.ErrSessionNotFound when the key is absent. Delete of a
// missing key is not an error.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
