package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/scmkit/hgcred/internal/credkey"
)

// Backend names a secret-store implementation.
type Backend string

const (
	BackendNative Backend = "native"
	BackendFile   Backend = "file"
	BackendHelper Backend = "helper"
	BackendNone   Backend = "none"
)

// AuthGroup is one alias rule, mirroring Mercurial's [auth] sections: every
// URI under Prefix shares one stored credential. Canonical, when set, names
// the identity to store under, so several groups can share an entry.
type AuthGroup struct {
	Name      string `json:"name"`
	Prefix    string `json:"prefix"`
	Canonical string `json:"canonical,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Config holds the hgcred configuration.
type Config struct {
	// Backend is "native", "file", "none", or "helper:<command>".
	Backend       string      `json:"backend,omitempty"`
	HelperTimeout int         `json:"helper_timeout,omitempty"` // seconds
	DefaultOutput string      `json:"default_output,omitempty"`
	Auth          []AuthGroup `json:"auth,omitempty"`
}

// Load reads config from the XDG path, returning defaults if no file exists.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to the XDG config path.
func (c *Config) Save() error {
	path := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// JSON is valid JSON5, so write plain JSON.
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate fails fast on a malformed configuration, before any store or
// helper activity.
func (c *Config) Validate() error {
	if _, _, err := ParseBackend(c.Backend); err != nil {
		return err
	}
	if c.HelperTimeout < 0 {
		return fmt.Errorf("helper_timeout must not be negative")
	}
	for i, g := range c.Auth {
		if strings.TrimSpace(g.Prefix) == "" {
			name := g.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			return fmt.Errorf("auth group %s: empty prefix", name)
		}
	}
	return nil
}

// ParseBackend resolves a backend string. The empty string defaults to
// native; "helper:<command>" selects the external-helper backend.
func ParseBackend(s string) (Backend, string, error) {
	switch s {
	case "", string(BackendNative):
		return BackendNative, "", nil
	case string(BackendFile):
		return BackendFile, "", nil
	case string(BackendNone):
		return BackendNone, "", nil
	}

	if cmd, ok := strings.CutPrefix(s, string(BackendHelper)+":"); ok {
		if strings.TrimSpace(cmd) == "" {
			return "", "", fmt.Errorf("backend %q: missing helper command", s)
		}
		return BackendHelper, cmd, nil
	}

	return "", "", fmt.Errorf("unknown backend %q (want none, native, file, or helper:<command>)", s)
}

// BackendSpec returns the parsed backend selection.
func (c *Config) BackendSpec() (Backend, string, error) {
	return ParseBackend(c.Backend)
}

// HelperTimeoutDuration returns the configured helper timeout; zero means
// "use the store default".
func (c *Config) HelperTimeoutDuration() time.Duration {
	return time.Duration(c.HelperTimeout) * time.Second
}

// Rules converts the auth groups into alias rules for key derivation.
func (c *Config) Rules() []credkey.AliasRule {
	rules := make([]credkey.AliasRule, 0, len(c.Auth))
	for _, g := range c.Auth {
		rules = append(rules, credkey.AliasRule{
			Name:      g.Name,
			Prefix:    g.Prefix,
			Canonical: g.Canonical,
			Username:  g.Username,
		})
	}
	return rules
}

// Get retrieves a scalar config value by its JSON key name.
func (c *Config) Get(key string) (string, error) {
	v, _, err := c.fieldByKey(key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v", v.Interface()), nil
}

// Set sets a scalar config value by key name, validates, and saves.
func (c *Config) Set(key, value string) error {
	v, name, err := c.fieldByKey(key)
	if err != nil {
		return err
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config key %s wants a number: %w", name, err)
		}
		v.SetInt(int64(n))
	default:
		return fmt.Errorf("config key %s cannot be set from the command line", name)
	}

	if err := c.Validate(); err != nil {
		return err
	}
	return c.Save()
}

// Unset resets a scalar config value to its zero value and saves.
func (c *Config) Unset(key string) error {
	v, name, err := c.fieldByKey(key)
	if err != nil {
		return err
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString("")
	case reflect.Int:
		v.SetInt(0)
	default:
		return fmt.Errorf("config key %s cannot be unset from the command line", name)
	}

	return c.Save()
}

// fieldByKey finds the struct field whose JSON tag matches key. The auth
// groups are excluded: they are structured and edited in the config file.
func (c *Config) fieldByKey(key string) (reflect.Value, string, error) {
	v := reflect.ValueOf(c).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if tag != key {
			continue
		}
		if v.Field(i).Kind() == reflect.Slice {
			break
		}
		return v.Field(i), key, nil
	}

	return reflect.Value{}, key, fmt.Errorf("unknown config key: %s", key)
}
