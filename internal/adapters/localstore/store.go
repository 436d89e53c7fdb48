// Package localstore holds the client-side key/value values the settings panel keeps
// between runs: the appearance preference and the session credential.
package localstore

import "errors"

// ErrEmptyKey is returned when a caller passes an empty key.
var ErrEmptyKey = errors.New("localstore: key cannot be empty")

// Store is a synchronous string key/value store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}
