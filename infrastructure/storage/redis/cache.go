// Package redis provides a Redis-backed verification cache for sharing
// results across processes.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/plansearch-go/domain/cache"
)

// Cache is a Redis-backed implementation of cache.Cache.
type Cache struct {
	client    *redis.Client
	keyPrefix string
}

// Config configures the Redis cache.
type Config struct {
	// Addr is the Redis server address (host:port).
	Addr string

	// Password authenticates against the server, if required.
	Password string

	// DB selects the Redis database number.
	DB int

	// KeyPrefix namespaces all keys written by this cache.
	KeyPrefix string
}

// DefaultConfig returns a local-server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:      "localhost:6379",
		KeyPrefix: "plansearch:",
	}
}

// NewCache creates a Redis cache and verifies connectivity.
func NewCache(ctx context.Context, cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", cache.ErrConnectionFailed, err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "plansearch:"
	}

	return &Cache{client: client, keyPrefix: prefix}, nil
}

// NewCacheFromClient wraps an existing client; useful for tests.
func NewCacheFromClient(client *redis.Client, keyPrefix string) *Cache {
	return &Cache{client: client, keyPrefix: keyPrefix}
}

// Get retrieves a value from the cache.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, cache.ErrInvalidKey
	}

	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

// Set stores a value in the cache.
func (c *Cache) Set(ctx context.Context, key string, value []byte, opts cache.SetOptions) error {
	if key == "" {
		return cache.ErrInvalidKey
	}

	if err := c.client.Set(ctx, c.keyPrefix+key, value, opts.TTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes an entry.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if key == "" {
		return cache.ErrInvalidKey
	}

	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear removes every entry under this cache's key prefix using SCAN,
// never FLUSHDB, so other tenants of the database are untouched.
func (c *Cache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del during clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}

// Close releases the client connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
