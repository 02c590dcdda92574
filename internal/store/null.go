package store

import "github.com/scmkit/hgcred/internal/credkey"

// NullStore never stores anything: every lookup misses and save/erase
// succeed without effect. Selected when no backend is configured; the
// distinct ErrNotFound result keeps it from being mistaken for a hit.
type NullStore struct{}

func (NullStore) Lookup(credkey.Key) (Entry, error) { return Entry{}, ErrNotFound }

func (NullStore) Save(credkey.Key, Entry) error { return nil }

func (NullStore) Erase(credkey.Key) error { return nil }
