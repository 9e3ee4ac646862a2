package auth

import (
	"context"
	"time"

	"github.com/merchantry/merchantry/pkg/store/redis"
)

// Denylist tracks signed-out tokens until their natural expiry.
// Entries carry a TTL so the set never grows unboundedly.
type Denylist interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

const denylistKeyPrefix = "auth:denylist:"

// RedisDenylist stores revoked tokens in Redis with per-entry TTL.
type RedisDenylist struct {
	store *redis.Adapter
}

// NewRedisDenylist wraps a connected Redis adapter.
func NewRedisDenylist(store *redis.Adapter) *RedisDenylist {
	return &RedisDenylist{store: store}
}

func (d *RedisDenylist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already expired; verification rejects it anyway.
		return nil
	}
	return d.store.SetWithTTL(ctx, denylistKeyPrefix+token, "1", ttl)
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, token string) (bool, error) {
	return d.store.Exists(ctx, denylistKeyPrefix+token)
}
