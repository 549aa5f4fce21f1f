// Package config reads and writes the global ordr settings stored at
// ~/.config/ordr/config.json. Every setting can be overridden by an
// environment variable.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// RemoteConfig holds remote endpoint settings.
type RemoteConfig struct {
	URL       string `json:"url,omitempty"`
	Timeout   string `json:"timeout,omitempty"`    // duration string, default "10s"
	Transport string `json:"transport,omitempty"`  // auto|direct|bridge
	BulkDelay string `json:"bulk_delay,omitempty"` // duration string, default "200ms"
	AutoSync  *bool  `json:"auto_sync,omitempty"`  // nil = default true
}

// Config is the global config file
type Config struct {
	Remote RemoteConfig `json:"remote"`
}

// Defaults
const (
	DefaultTimeout   = 10 * time.Second
	DefaultTransport = "auto"
	DefaultBulkDelay = 200 * time.Millisecond
)

// ErrUnknownKey is returned by Get and Set for keys not in Keys()
var ErrUnknownKey = errors.New("unknown config key")

const configFile = "config.json"

// Dir returns ~/.config/ordr, creating it if necessary.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "ordr")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Load reads the config file. A missing file is an empty config.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configFile, err)
	}
	return &cfg, nil
}

// Save writes the config using atomic write (temp file + rename)
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, configFile))
}

// load returns the config file, or an empty one if it cannot be read
func load() *Config {
	cfg, err := Load()
	if err != nil {
		return &Config{}
	}
	return cfg
}

func parseBoolEnv(envKey string) *bool {
	v := strings.ToLower(os.Getenv(envKey))
	switch v {
	case "1", "true", "yes":
		b := true
		return &b
	case "0", "false", "no":
		b := false
		return &b
	}
	return nil
}

func durationSetting(envKey, fileValue string, def time.Duration) time.Duration {
	if v := os.Getenv(envKey); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
	}
	if fileValue != "" {
		if d, err := time.ParseDuration(fileValue); err == nil && d >= 0 {
			return d
		}
	}
	return def
}

// GetRemoteURL returns the fallback endpoint used when the project has not
// remembered one.
// Priority: ORDR_REMOTE_URL env > config.json remote.url > "".
func GetRemoteURL() string {
	if v := os.Getenv("ORDR_REMOTE_URL"); v != "" {
		return v
	}
	return load().Remote.URL
}

// GetTimeout returns the per-call remote timeout.
// Priority: ORDR_REMOTE_TIMEOUT env > config.json remote.timeout > 10s
func GetTimeout() time.Duration {
	d := durationSetting("ORDR_REMOTE_TIMEOUT", load().Remote.Timeout, DefaultTimeout)
	if d == 0 {
		return DefaultTimeout
	}
	return d
}

// GetTransport returns the remote transport mode.
// Priority: ORDR_TRANSPORT env > config.json remote.transport > auto
func GetTransport() string {
	if v := os.Getenv("ORDR_TRANSPORT"); v != "" {
		return v
	}
	if v := load().Remote.Transport; v != "" {
		return v
	}
	return DefaultTransport
}

// GetBulkDelay returns the pause between calls of a bulk upload.
// Priority: ORDR_BULK_DELAY env > config.json remote.bulk_delay > 200ms
func GetBulkDelay() time.Duration {
	return durationSetting("ORDR_BULK_DELAY", load().Remote.BulkDelay, DefaultBulkDelay)
}

// GetAutoSync returns whether mutating commands push their change.
// Priority: ORDR_AUTO_SYNC env > config.json remote.auto_sync > true
func GetAutoSync() bool {
	if v := parseBoolEnv("ORDR_AUTO_SYNC"); v != nil {
		return *v
	}
	if v := load().Remote.AutoSync; v != nil {
		return *v
	}
	return true
}

// key describes one settable config key
type key struct {
	env      string
	get      func(*Config) string
	set      func(*Config, string) error
	resolved func() string
}

var keys = map[string]key{
	"remote.url": {
		env:      "ORDR_REMOTE_URL",
		get:      func(c *Config) string { return c.Remote.URL },
		set:      func(c *Config, v string) error { c.Remote.URL = v; return nil },
		resolved: GetRemoteURL,
	},
	"remote.timeout": {
		env: "ORDR_REMOTE_TIMEOUT",
		get: func(c *Config) string { return c.Remote.Timeout },
		set: func(c *Config, v string) error {
			if err := validDuration(v); err != nil {
				return err
			}
			c.Remote.Timeout = v
			return nil
		},
		resolved: func() string { return GetTimeout().String() },
	},
	"remote.transport": {
		env: "ORDR_TRANSPORT",
		get: func(c *Config) string { return c.Remote.Transport },
		set: func(c *Config, v string) error {
			switch v {
			case "", "auto", "direct", "bridge":
				c.Remote.Transport = v
				return nil
			}
			return fmt.Errorf("invalid transport %q (valid: auto, direct, bridge)", v)
		},
		resolved: GetTransport,
	},
	"remote.bulk_delay": {
		env: "ORDR_BULK_DELAY",
		get: func(c *Config) string { return c.Remote.BulkDelay },
		set: func(c *Config, v string) error {
			if err := validDuration(v); err != nil {
				return err
			}
			c.Remote.BulkDelay = v
			return nil
		},
		resolved: func() string { return GetBulkDelay().String() },
	},
	"remote.auto_sync": {
		env: "ORDR_AUTO_SYNC",
		get: func(c *Config) string {
			if c.Remote.AutoSync == nil {
				return ""
			}
			return strconv.FormatBool(*c.Remote.AutoSync)
		},
		set: func(c *Config, v string) error {
			if v == "" {
				c.Remote.AutoSync = nil
				return nil
			}
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean %q", v)
			}
			c.Remote.AutoSync = &b
			return nil
		},
		resolved: func() string { return strconv.FormatBool(GetAutoSync()) },
	},
}

func validDuration(v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid duration %q", v)
	}
	if d < 0 {
		return fmt.Errorf("duration must not be negative: %q", v)
	}
	return nil
}

// Keys returns the settable keys in sorted order
func Keys() []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// EnvVar returns the environment variable overriding name
func EnvVar(name string) string {
	return keys[name].env
}

// Get returns the effective value of name after env overrides and defaults.
func Get(name string) (string, error) {
	k, ok := keys[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}
	return k.resolved(), nil
}

// GetFile returns the value stored in the config file, ignoring env.
func GetFile(name string) (string, error) {
	k, ok := keys[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return k.get(cfg), nil
}

// Set validates value and stores it in the config file. An empty value
// clears the key.
func Set(name, value string) error {
	k, ok := keys[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}
	cfg, err := Load()
	if err != nil {
		return err
	}
	if err := k.set(cfg, value); err != nil {
		return err
	}
	return Save(cfg)
}
