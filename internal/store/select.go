package store

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"

	"github.com/scmkit/hgcred/internal/config"
)

// New selects and initializes the backend named by the configuration.
// Backend names were already validated at config load, so an unknown name
// here is a programming error, not user input.
//
// The native backend degrades to the encrypted file store, with a one-time
// warning, when the platform keychain cannot work: WSL and headless hosts,
// or a keychain that fails to open. Selection never fails the caller's
// primary operation for backend trouble.
func New(cfg *config.Config) (Store, error) {
	backend, helperCmd, err := cfg.BackendSpec()
	if err != nil {
		return nil, err
	}

	switch backend {
	case config.BackendNone:
		return NullStore{}, nil

	case config.BackendHelper:
		return NewHelperStore(helperCmd, cfg.HelperTimeoutDuration()), nil

	case config.BackendFile:
		return NewFileStore("")

	case config.BackendNative:
		if IsWSL() || IsHeadless() {
			warnOnce("detected WSL/headless environment, using encrypted file storage")
			return NewFileStore("")
		}
		s, err := NewNativeStore()
		if err != nil {
			warnOnce(fmt.Sprintf("keychain unavailable (%v), falling back to encrypted file", err))
			return NewFileStore("")
		}
		return s, nil
	}

	return nil, fmt.Errorf("unhandled backend %q", backend)
}

// IsWSL returns true under Windows Subsystem for Linux, where the Linux
// secret service is generally absent.
func IsWSL() bool {
	if runtime.GOOS != "linux" {
		return false
	}

	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}

	version := strings.ToLower(string(data))
	return strings.Contains(version, "microsoft") || strings.Contains(version, "wsl")
}

// IsHeadless returns true on Linux without a display server; the secret
// service needs a session to unlock.
func IsHeadless() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	return os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == ""
}

// warnf prints a store warning to stderr unless HGCRED_QUIET is set.
func warnf(format string, args ...any) {
	if quietMode() {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// warnOnce prints a message to stderr, but only the first time across runs.
// A marker file in the data directory suppresses repeats.
func warnOnce(msg string) {
	if quietMode() || fileExists(warningMarkerPath()) {
		return
	}
	fmt.Fprintln(os.Stderr, msg)
	_ = os.MkdirAll(filepath.Dir(warningMarkerPath()), 0700)
	_ = os.WriteFile(warningMarkerPath(), []byte("1"), 0600)
}

func warningMarkerPath() string {
	return filepath.Join(xdg.DataHome, "hgcred", ".degraded-warning-shown")
}

func quietMode() bool {
	return os.Getenv("HGCRED_QUIET") == "1" || os.Getenv("HGCRED_QUIET") == "true"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
