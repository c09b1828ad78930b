package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "facultyhub:session:"

// RedisSessionStore shares sessions between server instances. Expiry is
// left to Redis via the key TTL.
type RedisSessionStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore wraps a connected Redis client.
// PRE: client is non-nil
func NewRedisSessionStore(client redis.Cmdable) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: SessionTTL}
}

// Create stores s as JSON under a fresh token.
// POST: Key expires after SessionTTL
func (rs *RedisSessionStore) Create(ctx context.Context, s Session) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	if err := rs.client.Set(ctx, redisKeyPrefix+token, data, rs.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Get loads a session. Redis errors are logged and treated as logged out.
func (rs *RedisSessionStore) Get(ctx context.Context, token string) (Session, bool) {
	data, err := rs.client.Get(ctx, redisKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false
	}
	if err != nil {
		slog.Error("session_store_error", "op", "get", "error", err)
		return Session{}, false
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Error("session_store_error", "op", "decode", "error", err)
		return Session{}, false
	}
	return s, true
}

// Delete removes a session.
func (rs *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return rs.client.Del(ctx, redisKeyPrefix+token).Err()
}
