package helper

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript drops an executable shell script into a temp dir and returns
// its path, so tests can stand in for real credential helpers.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script helpers require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "fake-helper")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755)
	require.NoError(t, err)
	return path
}

func TestRunGetParsesResponse(t *testing.T) {
	script := writeScript(t, `printf 'username=alice\npassword=s3cret\n'`)

	resp, err := Run(context.Background(), script, OpGet, Request{Host: "example.com"})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "s3cret", resp.Password)
}

func TestRunGetToleratesJunkLines(t *testing.T) {
	// Unrecognized keys and =-less lines must not abort the response.
	script := writeScript(t, `printf 'foo=bar\nusername=alice\nnot a pair\npassword=s3cret\nquit=1\n'`)

	resp, err := Run(context.Background(), script, OpGet, Request{Host: "example.com"})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "s3cret", resp.Password)
}

func TestRunGetStopsAtBlankLine(t *testing.T) {
	script := writeScript(t, `printf 'username=alice\n\npassword=ignored\n'`)

	resp, err := Run(context.Background(), script, OpGet, Request{Host: "example.com"})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
	assert.Empty(t, resp.Password, "lines after the blank terminator are not part of the response")
}

func TestRunPreservesValuesContainingEquals(t *testing.T) {
	script := writeScript(t, `printf 'password=a=b=c\n'`)

	resp, err := Run(context.Background(), script, OpGet, Request{Host: "example.com"})
	require.NoError(t, err)
	assert.Equal(t, "a=b=c", resp.Password)
}

func TestRunWireFormat(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "sink")
	script := writeScript(t, `cat > "$HGCRED_TEST_SINK"`)
	t.Setenv("HGCRED_TEST_SINK", sink)

	_, err := Run(context.Background(), script, OpStore, Request{
		Protocol: "https",
		Host:     "example.com:8443",
		Path:     "repo",
		Username: "alice",
		Password: "s3cret",
	})
	require.NoError(t, err)

	got, err := os.ReadFile(sink)
	require.NoError(t, err)
	assert.Equal(t,
		"protocol=https\nhost=example.com:8443\npath=repo\nusername=alice\npassword=s3cret\n\n",
		string(got))
}

func TestRunGetOmitsPassword(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "sink")
	script := writeScript(t, `cat > "$HGCRED_TEST_SINK"`)
	t.Setenv("HGCRED_TEST_SINK", sink)

	_, err := Run(context.Background(), script, OpGet, Request{
		Protocol: "https",
		Host:     "example.com",
		Username: "alice",
		Password: "must-not-leak",
	})
	require.NoError(t, err)

	got, err := os.ReadFile(sink)
	require.NoError(t, err)
	assert.Equal(t, "protocol=https\nhost=example.com\nusername=alice\n\n", string(got))
}

func TestRunPassesOperationArgument(t *testing.T) {
	script := writeScript(t, `[ "$1" = "erase" ] || exit 1`)

	_, err := Run(context.Background(), script, OpErase, Request{Host: "example.com"})
	assert.NoError(t, err)

	_, err = Run(context.Background(), script, OpGet, Request{Host: "example.com"})
	assert.ErrorIs(t, err, ErrHelperFailed)
}

func TestRunNonZeroExit(t *testing.T) {
	script := writeScript(t, `echo "no such credential" >&2; exit 3`)

	_, err := Run(context.Background(), script, OpGet, Request{Host: "example.com"})
	require.ErrorIs(t, err, ErrHelperFailed)
	assert.Contains(t, err.Error(), "no such credential")
}

func TestRunTimeoutKillsHelper(t *testing.T) {
	script := writeScript(t, `sleep 10`)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Run(ctx, script, OpGet, Request{Host: "example.com"})
	assert.ErrorIs(t, err, ErrHelperFailed)
	assert.Less(t, time.Since(start), 5*time.Second, "helper must be killed on timeout")
}

func TestRunEmptyCommand(t *testing.T) {
	_, err := Run(context.Background(), "   ", OpGet, Request{Host: "example.com"})
	assert.ErrorIs(t, err, ErrHelperFailed)
}

func TestRunMissingHelper(t *testing.T) {
	_, err := Run(context.Background(), "/nonexistent/helper-binary", OpGet, Request{Host: "example.com"})
	assert.ErrorIs(t, err, ErrHelperFailed)
}
