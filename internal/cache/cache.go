// Package cache provides a layered byte cache for fetched article
// revisions and source resolution results. Entries are namespaced by
// kind so a page fetch can never collide with a resolution record.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a namespaced cache key from an identifier
func Key(kind, id string) string {
	hash := sha256.Sum256([]byte(id))
	return "wikimend:v1:" + kind + ":" + hex.EncodeToString(hash[:])
}

// PageKey keys a fetched article revision by title
func PageKey(title string) string {
	return Key("page", title)
}

// ResolutionKey keys a source resolution result by URL
func ResolutionKey(url string) string {
	return Key("resolution", url)
}

// GetJSON retrieves and decodes a cached value. A decode failure is
// treated as a miss so stale formats age out instead of erroring.
func GetJSON[T any](c Cache, key string, v *T) bool {
	data, found := c.Get(key)
	if !found {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetJSON encodes and stores a value
func SetJSON[T any](c Cache, key string, v T, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(key, data, ttl)
}
