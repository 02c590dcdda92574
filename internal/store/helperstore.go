package store

import (
	"context"
	"fmt"
	"time"

	"github.com/scmkit/hgcred/internal/credkey"
	"github.com/scmkit/hgcred/internal/helper"
)

// HelperStore delegates all operations to an external credential helper
// (see internal/helper). The helper owns the storage; duplicate entries in it
// are its business to resolve, not ours.
type HelperStore struct {
	command string
	timeout time.Duration
}

// DefaultHelperTimeout bounds a single helper invocation.
const DefaultHelperTimeout = 30 * time.Second

// NewHelperStore wraps the given helper command. A zero timeout selects
// DefaultHelperTimeout.
func NewHelperStore(command string, timeout time.Duration) *HelperStore {
	if timeout <= 0 {
		timeout = DefaultHelperTimeout
	}
	return &HelperStore{command: command, timeout: timeout}
}

// Lookup asks the helper for a credential. A helper failure degrades to a
// miss for this call only: the caller prompts as if nothing were stored.
func (s *HelperStore) Lookup(key credkey.Key) (Entry, error) {
	resp, err := s.run(helper.OpGet, key, Entry{})
	if err != nil {
		warnf("warning: %v", err)
		return Entry{}, ErrNotFound
	}
	if resp.Password == "" {
		return Entry{}, ErrNotFound
	}
	return Entry{Username: resp.Username, Password: resp.Password}, nil
}

// Save hands the credential to the helper for storage.
func (s *HelperStore) Save(key credkey.Key, e Entry) error {
	if _, err := s.run(helper.OpStore, key, e); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Erase tells the helper to forget the credential.
func (s *HelperStore) Erase(key credkey.Key) error {
	if _, err := s.run(helper.OpErase, key, Entry{}); err != nil {
		return fmt.Errorf("failed to erase credential: %w", err)
	}
	return nil
}

func (s *HelperStore) run(op helper.Op, key credkey.Key, e Entry) (helper.Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	username := e.Username
	if username == "" {
		username = key.Username
	}

	return helper.Run(ctx, s.command, op, helper.Request{
		Protocol: key.Scheme,
		Host:     key.HostPort(),
		Path:     key.Path,
		Username: username,
		Password: e.Password,
	})
}
