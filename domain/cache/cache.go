// Package cache provides the domain interface for verification-result
// caching. Re-verifying an identical (problem, constraints, plan) triple
// wastes a model round trip; diverse-sampling retry loops hit this often.
package cache

import (
	"context"
	"time"
)

// Cache stores serialized verification results keyed by content hash.
// Implementations may be in-memory, Redis, or any other backend.
type Cache interface {
	// Get retrieves a cached value by key. Returns the value, whether
	// it was found, and any backend error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key with the given options.
	Set(ctx context.Context, key string, value []byte, opts SetOptions) error

	// Delete removes an entry by key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error
}

// SetOptions configures how a value is stored.
type SetOptions struct {
	// TTL is the time-to-live for the entry. Zero means no expiration.
	TTL time.Duration
}

// Stats reports hit/miss counters for caches that track them.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int64
}

// StatsProvider is an optional interface for caches exposing statistics.
type StatsProvider interface {
	Stats() Stats
}
