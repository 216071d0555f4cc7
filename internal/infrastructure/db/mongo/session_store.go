package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smartwaste/civic-core/internal/core/domain"
)

const sessionsCollection = "sessions"

type sessionDoc struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// SessionStore keeps one document per session key in the sessions collection.
type SessionStore struct {
	col *mongo.Collection
	ttl time.Duration
	now func() time.Time
}

// NewSessionStore returns a store over db's sessions collection. Open also
// creates the TTL index that enforces a positive ttl.
func NewSessionStore(db *mongo.Database, ttl time.Duration) *SessionStore {
	return newSessionStore(db.Collection(sessionsCollection), ttl)
}

func newSessionStore(col *mongo.Collection, ttl time.Duration) *SessionStore {
	return &SessionStore{col: col, ttl: ttl, now: time.Now}
}

func (s *SessionStore) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc sessionDoc
	err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", domain.ErrSessionNotFound
		}
		return "", fmt.Errorf("find session: %w", err)
	}
	return doc.Value, nil
}

func (s *SessionStore) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"value": value, "updated_at": s.now().UTC()}}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.col.Database().Client().Ping(ctx, nil)
}

// Close disconnects the client the store was opened with.
func (s *SessionStore) Close(ctx context.Context) error {
	return s.col.Database().Client().Disconnect(ctx)
}

// ensureIndexes creates the expiry index when a ttl is configured.
func (s *SessionStore) ensureIndexes(ctx context.Context) error {
	if s.ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(s.ttl.Seconds())),
	})
	return err
}
