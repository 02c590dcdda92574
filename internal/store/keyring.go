package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/99designs/keyring"
	"github.com/adrg/xdg"
	"github.com/cenkalti/backoff/v4"

	"github.com/scmkit/hgcred/internal/credkey"
)

// NativeStore implements Store on the platform keychain (macOS Keychain,
// Windows Credential Manager, Secret Service on Linux).
type NativeStore struct {
	ring keyring.Keyring
}

// saveAttempts bounds the retry of transient keychain failures, e.g. a
// momentarily locked keychain right after login.
const saveAttempts = 3

// NewNativeStore opens the platform keychain. An open failure means the
// backend is unavailable, not that the caller's operation must abort.
func NewNativeStore() (*NativeStore, error) {
	cfg := keyring.Config{
		ServiceName:              ServiceName,
		KeychainTrustApplication: true, // macOS: don't prompt on every access
		FileDir:                  filepath.Join(xdg.DataHome, "hgcred", "keyring"),
		FilePasswordFunc:         keyring.TerminalPrompt,
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &NativeStore{ring: ring}, nil
}

// Lookup finds the entry stored under the key's identity.
func (s *NativeStore) Lookup(key credkey.Key) (Entry, error) {
	item, err := s.ring.Get(key.ID())
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("%w: keychain get: %v", ErrUnavailable, err)
	}

	var e Entry
	if err := json.Unmarshal(item.Data, &e); err != nil {
		// A corrupt item is indistinguishable from an absent one for the
		// caller; saving again overwrites it.
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// Save creates or overwrites the keychain item for the key. Transient
// failures are retried a few times before giving up.
func (s *NativeStore) Save(key credkey.Key, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	item := keyring.Item{
		Key:         key.ID(),
		Data:        data,
		Label:       key.ServiceLabel(e.Username),
		Description: "HTTP password",
	}

	set := func() error { return s.ring.Set(item) }
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(200*time.Millisecond), saveAttempts-1)
	if err := backoff.Retry(set, policy); err != nil {
		return fmt.Errorf("%w: keychain set: %v", ErrUnavailable, err)
	}
	return nil
}

// Erase deletes the keychain item for the key.
func (s *NativeStore) Erase(key credkey.Key) error {
	if err := s.ring.Remove(key.ID()); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: keychain delete: %v", ErrUnavailable, err)
	}
	return nil
}

// List enumerates stored entries for the CLI. Items that fail to decode are
// listed by key alone.
func (s *NativeStore) List() ([]ListEntry, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, fmt.Errorf("%w: keychain keys: %v", ErrUnavailable, err)
	}

	entries := make([]ListEntry, 0, len(keys))
	for _, k := range keys {
		le := ListEntry{ID: k}
		if item, err := s.ring.Get(k); err == nil {
			var e Entry
			if json.Unmarshal(item.Data, &e) == nil {
				le.Username = e.Username
			}
		}
		entries = append(entries, le)
	}
	return entries, nil
}
