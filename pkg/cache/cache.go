// Package cache provides byte caching with pluggable backends.
//
// The pipeline uses a cache in exactly one place: the font resolver, which
// keys downloaded font files by family name so a batch never fetches the
// same family twice. Three backends are provided:
//   - file: persistent cache under a directory, for CLI and single-node use
//   - redis: shared cache for multi-instance deployments
//   - null: caching disabled, for tests
package cache

import (
	"context"
	"time"
)

// Cache is the interface for cache backends.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLFont is how long downloaded font files stay cached. Font files for a
// given family are effectively immutable, so this is generous.
const TTLFont = 30 * 24 * time.Hour

// FontKey returns the cache key for a font family.
func FontKey(family string) string {
	return "font:" + family
}
