// Package cache provides the read-through evaluation cache collaborator.
// Cache unavailability must never fail an evaluation; callers degrade to
// direct compute.
package cache

import (
	"context"
	"time"
)

// Cache is the collaborator contract consumed by the evaluation engine.
// Get returns (value, found, error); an error means the cache itself is
// unavailable, not that the key is missing.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	InvalidatePattern(ctx context.Context, prefix string) error
}
