package store

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHelper(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script helpers require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "fake-helper")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755)
	require.NoError(t, err)
	return path
}

func TestHelperStoreLookup(t *testing.T) {
	script := writeHelper(t, `printf 'username=alice\npassword=s3cret\n'`)
	s := NewHelperStore(script, 0)

	got, err := s.Lookup(testKey("R", "https://example.com/repo"))
	require.NoError(t, err)
	assert.Equal(t, Entry{Username: "alice", Password: "s3cret"}, got)
}

func TestHelperStoreLookupEmptyResponseIsMiss(t *testing.T) {
	script := writeHelper(t, `exit 0`)
	s := NewHelperStore(script, 0)

	_, err := s.Lookup(testKey("R", "https://example.com/repo"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHelperStoreLookupFailureDegradesToMiss(t *testing.T) {
	t.Setenv("HGCRED_QUIET", "1")
	script := writeHelper(t, `exit 1`)
	s := NewHelperStore(script, 0)

	// A broken helper behaves like an empty store for this call only.
	_, err := s.Lookup(testKey("R", "https://example.com/repo"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHelperStoreSaveWritesProtocolRequest(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "sink")
	script := writeHelper(t, `cat > "$HGCRED_TEST_SINK"`)
	t.Setenv("HGCRED_TEST_SINK", sink)

	s := NewHelperStore(script, 0)
	key := testKey("R", "https://example.com:8443/repo")
	require.NoError(t, s.Save(key, Entry{Username: "alice", Password: "s3cret"}))

	got, err := os.ReadFile(sink)
	require.NoError(t, err)
	assert.Equal(t,
		"protocol=https\nhost=example.com:8443\npath=repo\nusername=alice\npassword=s3cret\n\n",
		string(got))
}

func TestHelperStoreSaveFailure(t *testing.T) {
	script := writeHelper(t, `exit 2`)
	s := NewHelperStore(script, 0)

	err := s.Save(testKey("R", "https://example.com"), Entry{Username: "a", Password: "b"})
	assert.Error(t, err)
}

func TestHelperStoreErase(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "sink")
	script := writeHelper(t, `echo "$1" > "$HGCRED_TEST_SINK"`)
	t.Setenv("HGCRED_TEST_SINK", sink)

	s := NewHelperStore(script, 0)
	require.NoError(t, s.Erase(testKey("R", "https://example.com/repo")))

	got, err := os.ReadFile(sink)
	require.NoError(t, err)
	assert.Equal(t, "erase\n", string(got))
}

func TestHelperStoreTimeout(t *testing.T) {
	script := writeHelper(t, `sleep 10`)
	s := NewHelperStore(script, 100*time.Millisecond)

	start := time.Now()
	err := s.Save(testKey("R", "https://example.com"), Entry{Username: "a", Password: "b"})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHelperStoreDefaultTimeout(t *testing.T) {
	s := NewHelperStore("true", 0)
	assert.Equal(t, DefaultHelperTimeout, s.timeout)
}
