package store

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scmkit/hgcred/internal/credkey"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	t.Setenv("HGCRED_STORE_PASSWORD", "test-passphrase")
	t.Setenv("HGCRED_QUIET", "1")

	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func testKey(realm, uri string) credkey.Key {
	return credkey.BuildKey(realm, uri, nil)
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := newTestFileStore(t)
	key := testKey("R", "https://example.com/repo")

	_, err := s.Lookup(key)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(key, Entry{Username: "alice", Password: "s3cret"}))

	got, err := s.Lookup(key)
	require.NoError(t, err)
	assert.Equal(t, Entry{Username: "alice", Password: "s3cret"}, got)
}

func TestFileStoreOverwrite(t *testing.T) {
	s := newTestFileStore(t)
	key := testKey("R", "https://example.com/repo")

	require.NoError(t, s.Save(key, Entry{Username: "alice", Password: "old"}))
	require.NoError(t, s.Save(key, Entry{Username: "alice", Password: "new"}))

	got, err := s.Lookup(key)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Password)
}

func TestFileStoreErase(t *testing.T) {
	s := newTestFileStore(t)
	key := testKey("R", "https://example.com/repo")

	assert.ErrorIs(t, s.Erase(key), ErrNotFound)

	require.NoError(t, s.Save(key, Entry{Username: "alice", Password: "pw"}))
	require.NoError(t, s.Erase(key))

	_, err := s.Lookup(key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreKeysAreIndependent(t *testing.T) {
	s := newTestFileStore(t)
	a := testKey("R", "https://a.example.com/repo")
	b := testKey("R", "https://b.example.com/repo")

	require.NoError(t, s.Save(a, Entry{Username: "alice", Password: "one"}))
	require.NoError(t, s.Save(b, Entry{Username: "bob", Password: "two"}))

	got, err := s.Lookup(a)
	require.NoError(t, err)
	assert.Equal(t, "one", got.Password)

	got, err = s.Lookup(b)
	require.NoError(t, err)
	assert.Equal(t, "two", got.Password)
}

func TestFileStoreList(t *testing.T) {
	s := newTestFileStore(t)

	require.NoError(t, s.Save(testKey("R", "https://b.example.com"), Entry{Username: "bob", Password: "2"}))
	require.NoError(t, s.Save(testKey("R", "https://a.example.com"), Entry{Username: "alice", Password: "1"}))

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "R@https://a.example.com", entries[0].ID)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, "R@https://b.example.com", entries[1].ID)
	assert.Equal(t, "bob", entries[1].Username)
}

func TestFileStoreEncryptsAtRest(t *testing.T) {
	s := newTestFileStore(t)
	key := testKey("R", "https://example.com/repo")

	require.NoError(t, s.Save(key, Entry{Username: "alice", Password: "hunter2-plaintext"}))

	raw, err := os.ReadFile(s.path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter2-plaintext")
	assert.NotContains(t, string(raw), "alice")
}

func TestFileStoreSharedBetweenInstances(t *testing.T) {
	t.Setenv("HGCRED_STORE_PASSWORD", "test-passphrase")
	t.Setenv("HGCRED_QUIET", "1")
	dir := t.TempDir()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	key := testKey("R", "https://example.com/repo")
	require.NoError(t, first.Save(key, Entry{Username: "alice", Password: "pw"}))

	// A second process opening the same file sees the entry.
	second, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := second.Lookup(key)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestFileStoreWrongPassphrase(t *testing.T) {
	t.Setenv("HGCRED_QUIET", "1")
	dir := t.TempDir()

	t.Setenv("HGCRED_STORE_PASSWORD", "right")
	first, err := NewFileStore(dir)
	require.NoError(t, err)
	key := testKey("R", "https://example.com/repo")
	require.NoError(t, first.Save(key, Entry{Username: "alice", Password: "pw"}))

	t.Setenv("HGCRED_STORE_PASSWORD", "wrong")
	second, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = second.Lookup(key)
	assert.ErrorIs(t, err, ErrUnavailable, "an undecryptable store is unavailable, not a miss")
}

func TestNullStore(t *testing.T) {
	s := NullStore{}
	key := testKey("R", "https://example.com/repo")

	_, err := s.Lookup(key)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Save(key, Entry{Username: "alice", Password: "pw"}))

	// Save has no observable effect.
	_, err = s.Lookup(key)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Erase(key))
}
