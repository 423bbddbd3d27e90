// Package session caches per-session state in Redis. Every key is scoped by
// session id so sign-out can drop the whole session in one sweep; nothing
// cached for a session outlives it.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lifesure/internal/common/logger"
	"lifesure/internal/models"
)

const keyPrefix = "session"

// Store is the Redis-backed session cache.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewStore(client *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	return &Store{client: client, ttl: ttl, logger: log}
}

func sessionKey(sessionID, field string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, sessionID, field)
}

// CacheRole stores the resolved role for the session.
func (s *Store) CacheRole(ctx context.Context, sessionID string, role models.Role) error {
	return s.client.Set(ctx, sessionKey(sessionID, "role"), string(role), s.ttl).Err()
}

// Role returns the cached role for the session, reporting whether one was
// cached. A cache miss is not an error; the caller falls through to the
// database.
func (s *Store) Role(ctx context.Context, sessionID string) (models.Role, bool, error) {
	val, err := s.client.Get(ctx, sessionKey(sessionID, "role")).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return models.ParseRole(val), true, nil
}

// Put caches an arbitrary session-scoped value.
func (s *Store) Put(ctx context.Context, sessionID, field, value string) error {
	return s.client.Set(ctx, sessionKey(sessionID, field), value, s.ttl).Err()
}

// Get reads a session-scoped value, reporting whether it was present.
func (s *Store) Get(ctx context.Context, sessionID, field string) (string, bool, error) {
	val, err := s.client.Get(ctx, sessionKey(sessionID, field)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Drop removes every key belonging to the session. Called on sign-out; the
// session's cache never survives it.
func (s *Store) Drop(ctx context.Context, sessionID string) error {
	pattern := fmt.Sprintf("%s:%s:*", keyPrefix, sessionID)

	var dropped int
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("drop session key %s: %w", iter.Val(), err)
		}
		dropped++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan session keys: %w", err)
	}

	s.logger.Debug("session dropped", map[string]interface{}{
		"sessionId": sessionID,
		"keys":      dropped,
	})
	return nil
}

// AcquireOnce takes a short-lived lock for the given key, reporting false when
// another holder already has it. Used to absorb double submits while a request
// is in flight.
func (s *Store) AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, "inflight:"+key, "1", ttl).Result()
}

// Release frees an in-flight lock before its TTL expires.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, "inflight:"+key).Err()
}
