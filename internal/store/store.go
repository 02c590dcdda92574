// Package store persists HTTP credentials behind a uniform interface with
// pluggable backends: the native OS keychain, an encrypted file, an external
// credential-helper subprocess, or a no-op null store.
package store

import (
	"errors"

	"github.com/scmkit/hgcred/internal/credkey"
)

// Entry is the logical shape of a persisted credential, uniform across
// backends even though each stores it differently.
type Entry struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Store is the secret-store capability. Lookup reports ErrNotFound on a miss;
// ErrUnavailable means the backend itself is down or locked, which callers
// must be able to tell apart from a miss.
type Store interface {
	Lookup(key credkey.Key) (Entry, error)
	Save(key credkey.Key, e Entry) error
	Erase(key credkey.Key) error
}

// Lister is implemented by backends that can enumerate their entries.
// Helper-backed stores cannot: the helper's storage is opaque to us.
type Lister interface {
	List() ([]ListEntry, error)
}

// ListEntry describes a stored credential without exposing its password.
type ListEntry struct {
	ID       string
	Username string
}

// ErrNotFound is returned by Lookup when no entry exists for the key.
var ErrNotFound = errors.New("credential not found")

// ErrUnavailable is returned when the backend is unreachable or locked.
// It is recoverable: callers degrade to prompting, never abort.
var ErrUnavailable = errors.New("credential store unavailable")

// ServiceName is the service identifier for native keychain storage.
const ServiceName = "hgcred"
