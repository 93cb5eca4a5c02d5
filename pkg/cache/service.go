package cache

import "time"

// CacheService defines the behavior for caching mechanisms
type CacheService interface {
	// Get retrieves a value from the cache
	// Returns value, true if found
	// Returns nil, false if not found
	Get(key string) (interface{}, bool)

	// Set adds a value to the cache with a duration
	Set(key string, value interface{}, duration time.Duration)

	// Delete removes a value from the cache
	Delete(key string)

	// Items returns every unexpired value keyed by its key
	Items() map[string]interface{}

	// OnEvicted registers a callback for expired or deleted items.
	// It is not called for overwrites or Flush.
	OnEvicted(fn func(key string, value interface{}))

	// Flush removes all items
	Flush()
}
