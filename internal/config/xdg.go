package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// ConfigDir returns the XDG-compliant config directory for hgcred,
// typically ~/.config/hgcred/ on Linux.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "hgcred")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json5")
}

// DataDir returns the XDG-compliant data directory for hgcred, which holds
// the encrypted file store and the keyring fallback directory.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "hgcred")
}
