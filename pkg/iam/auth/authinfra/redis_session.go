package authinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/iam/auth"
	"github.com/Abraxas-365/academy/pkg/kernel"
	"github.com/redis/go-redis/v9"
)

// RedisSessionStore implements auth.SessionStore on Redis. Expiry rides on
// the key TTL, so lazy expiry on Resolve comes for free and Touch is a
// plain EXPIRE. This is the shared session store: any number of server
// instances can point at the same Redis.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSessionStore creates a session store with the given inactivity
// window.
func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(id kernel.SessionID) string {
	return fmt.Sprintf("auth:session:%s", id)
}

type sessionPayload struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Start creates a fresh session bound to the user.
func (s *RedisSessionStore) Start(ctx context.Context, userID kernel.UserID) (*auth.Session, error) {
	now := time.Now().UTC()
	session := &auth.Session{
		ID:        kernel.NewSessionID(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	payload, err := json.Marshal(sessionPayload{UserID: userID.String(), CreatedAt: now})
	if err != nil {
		return nil, errx.Wrap(err, "failed to encode session", errx.TypeInternal)
	}

	if err := s.rdb.Set(ctx, sessionKey(session.ID), payload, s.ttl).Err(); err != nil {
		return nil, errx.Wrap(err, "failed to store session", errx.TypeInternal)
	}
	return session, nil
}

// Resolve maps a session id to its user. Unknown and expired sessions are
// indistinguishable: Redis has already dropped the key.
func (s *RedisSessionStore) Resolve(ctx context.Context, id kernel.SessionID) (kernel.UserID, bool, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errx.Wrap(err, "failed to resolve session", errx.TypeInternal)
	}

	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", false, errx.Wrap(err, "failed to decode session", errx.TypeInternal)
	}
	return kernel.UserIDFrom(payload.UserID), true, nil
}

// Touch slides the expiry window for an active session.
func (s *RedisSessionStore) Touch(ctx context.Context, id kernel.SessionID) error {
	if err := s.rdb.Expire(ctx, sessionKey(id), s.ttl).Err(); err != nil {
		return errx.Wrap(err, "failed to touch session", errx.TypeInternal)
	}
	return nil
}

// Destroy removes the session record. Destroying a missing session is not
// an error: logout must be idempotent.
func (s *RedisSessionStore) Destroy(ctx context.Context, id kernel.SessionID) error {
	if err := s.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return errx.Wrap(err, "failed to destroy session", errx.TypeInternal)
	}
	return nil
}
