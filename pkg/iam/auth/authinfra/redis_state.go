package authinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/iam/auth"
	"github.com/redis/go-redis/v9"
)

// RedisStateManager implements auth.StateManager on Redis so an OAuth
// callback can be served by any instance.
type RedisStateManager struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStateManager creates a state manager with the given nonce TTL.
func NewRedisStateManager(rdb *redis.Client, ttl time.Duration) *RedisStateManager {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &RedisStateManager{rdb: rdb, ttl: ttl}
}

func stateKey(state string) string {
	return fmt.Sprintf("auth:oauth_state:%s", state)
}

// Generate issues a new one-shot nonce.
func (m *RedisStateManager) Generate(ctx context.Context, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = m.ttl
	}

	state, err := auth.GenerateStateNonce()
	if err != nil {
		return "", err
	}

	if err := m.rdb.Set(ctx, stateKey(state), "1", ttl).Err(); err != nil {
		return "", errx.Wrap(err, "failed to store oauth state", errx.TypeInternal)
	}
	return state, nil
}

// Consume validates and invalidates a nonce in one step. GETDEL makes the
// check-and-burn atomic across instances.
func (m *RedisStateManager) Consume(ctx context.Context, state string) (bool, error) {
	_, err := m.rdb.GetDel(ctx, stateKey(state)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errx.Wrap(err, "failed to consume oauth state", errx.TypeInternal)
	}
	return true, nil
}
