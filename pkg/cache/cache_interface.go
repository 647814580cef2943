package cache

import (
	"context"
	"time"
)

// Cache is the contract for the cache layer. Keeping it an interface lets
// repositories swap Redis for an in-memory fake in tests.
type Cache interface {
	// Get fetches a key and unmarshals it into dest.
	// Returns (found, error): on a miss dest is left untouched.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores a value with a TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes keys.
	Delete(ctx context.Context, keys ...string) error

	// Ping verifies the connection.
	Ping(ctx context.Context) error

	// Increment atomically increments a numeric key.
	// Used for failed-login throttling.
	Increment(ctx context.Context, key string) (int64, error)

	// Expire sets a TTL on an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
