// Package store defines the key-value medium the document database
// persists into, and its backend implementations.
package store

// Store is the interface that all backing stores must implement.
// It maps string keys to opaque byte values; the document layer keeps
// one serialized collection per key.
type Store interface {
	// Get returns the value stored under key, or nil if the key is absent.
	Get(key string) ([]byte, error)

	// Set inserts or replaces the value under key. A successful Set is
	// all-or-nothing: readers never observe a partial value.
	Set(key string, value []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error

	// Keys returns the sorted keys that start with prefix.
	Keys(prefix string) ([]string, error)

	// Close releases any resources held by the backend.
	Close() error
}
