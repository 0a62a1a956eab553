// Package cache stores computed layouts and rendered exports keyed by a
// hash of the document and the options that produced them.
//
// Three backends are provided:
//   - [NullCache]: never stores anything
//   - [FileCache]: one JSON file per entry, for the command line
//   - [RedisCache]: shared cache for the HTTP server
//
// Keys are built by a [Keyer] so that a layout computed by the CLI and one
// computed by the server for the same document and settings collide.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was present.
	// A missing or expired key is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Lookup returns the cached value for key, or ErrCacheMiss when the key is
// absent. Backend failures are returned as they are.
func Lookup(ctx context.Context, c Cache, key string) ([]byte, error) {
	data, hit, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !hit {
		return nil, ErrCacheMiss
	}
	return data, nil
}

// Remember returns the cached value for key, or calls fn, stores its result
// and returns it. The boolean reports whether the value came from the cache.
// A failing Set is ignored; the computed value is still returned.
func Remember(ctx context.Context, c Cache, key string, ttl time.Duration, fn func() ([]byte, error)) ([]byte, bool, error) {
	data, hit, err := c.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if hit {
		return data, true, nil
	}
	data, err = fn()
	if err != nil {
		return nil, false, err
	}
	_ = c.Set(ctx, key, data, ttl)
	return data, false, nil
}
