package port

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent
var ErrCacheMiss = errors.New("cache miss")

// Cache defines the interface for caching operations
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores a value in cache
	Set(ctx context.Context, key string, value interface{}) error

	// Close closes the cache connection
	Close() error
}
