// ABOUTME: Pump configuration management with backend selection.
// ABOUTME: Handles settings, env overrides, device identity, and the record store factory.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/harperreed/pump/internal/charm"
	"github.com/harperreed/pump/internal/logger"
	"github.com/harperreed/pump/internal/recordstore"
)

// Backends.
const (
	BackendLocal = "local"
	BackendCharm = "charm"
	BackendHTTP  = "http"
)

// DefaultRevalidateInterval is how long a cached read counts as fresh.
const DefaultRevalidateInterval = 2 * time.Second

// Environment overrides.
const (
	EnvUserID  = "PUMP_USER_ID"
	EnvBackend = "PUMP_BACKEND"
	EnvServer  = "PUMP_SERVER"
)

// Config stores pump tool configuration.
type Config struct {
	// Backend selects the record store: "local" (default), "charm" or "http".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for local data. The local backend
	// keeps its badger database in records/ and the legacy store in
	// legacy.db. Supports ~ expansion. Defaults to ~/.local/share/pump.
	DataDir string `json:"data_dir,omitempty"`

	// Server is the base URL of the HTTP record API.
	Server string `json:"server,omitempty"`

	// CharmHost overrides the Charm Cloud host.
	CharmHost string `json:"charm_host,omitempty"`

	UserID   string `json:"user_id,omitempty"`
	DeviceID string `json:"device_id,omitempty"`

	// LogMode is "quiet" (default), "dev" or "prod".
	LogMode string `json:"log_mode,omitempty"`

	// RevalidateInterval is a Go duration string, "2s" by default.
	RevalidateInterval string `json:"revalidate_interval,omitempty"`
}

// GetBackend returns the configured backend, defaulting to "local".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendLocal
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetLogMode returns the log mode, defaulting to "quiet".
func (c *Config) GetLogMode() string {
	if c.LogMode == "" {
		return "quiet"
	}
	return c.LogMode
}

// GetRevalidateInterval parses the revalidate interval.
func (c *Config) GetRevalidateInterval() (time.Duration, error) {
	if c.RevalidateInterval == "" {
		return DefaultRevalidateInterval, nil
	}
	d, err := time.ParseDuration(c.RevalidateInterval)
	if err != nil {
		return 0, fmt.Errorf("parse revalidate_interval: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("revalidate_interval must not be negative: %s", c.RevalidateInterval)
	}
	return d, nil
}

// EnsureDeviceID mints a device ID if none is set and reports whether it did.
func (c *Config) EnsureDeviceID() bool {
	if c.DeviceID != "" {
		return false
	}
	c.DeviceID = GenerateDeviceID()
	return true
}

// GenerateDeviceID creates a new unique device ID.
func GenerateDeviceID() string {
	return ulid.Make().String()
}

// DataDir returns the default data directory following the XDG base directory layout.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "pump")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks the backend and the fields it needs.
func (c *Config) Validate() error {
	switch c.GetBackend() {
	case BackendLocal, BackendCharm:
	case BackendHTTP:
		if c.Server == "" {
			return fmt.Errorf("backend %q requires server", BackendHTTP)
		}
	default:
		return fmt.Errorf("unknown backend: %q", c.Backend)
	}
	if _, err := c.GetRevalidateInterval(); err != nil {
		return err
	}
	return nil
}

// OpenStore creates the record store for the configured backend. The
// returned func releases it.
func (c *Config) OpenStore(log *logger.Logger) (recordstore.Client, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	backend := c.GetBackend()
	switch backend {
	case BackendLocal:
		dir := filepath.Join(c.GetDataDir(), "records")
		store, err := charm.OpenLocal(dir)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("opened record store", "backend", backend, "dir", dir)
		return store, store.Close, nil
	case BackendCharm:
		store, err := charm.OpenCharm(c.CharmHost)
		if err != nil {
			return nil, nil, err
		}
		if store.IsReadOnly() {
			log.Warn("charm database is read-only, another process holds the lock")
		}
		log.Debug("opened record store", "backend", backend)
		return store, store.Close, nil
	default:
		log.Debug("using record API", "backend", backend, "server", c.Server)
		return recordstore.NewHTTPClient(c.Server, recordstore.WithDeviceID(c.DeviceID)), func() error { return nil }, nil
	}
}

// Keys lists the settable config keys.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(c *Config, v string){
	"backend":             func(c *Config, v string) { c.Backend = v },
	"data_dir":            func(c *Config, v string) { c.DataDir = v },
	"server":              func(c *Config, v string) { c.Server = strings.TrimRight(v, "/") },
	"charm_host":          func(c *Config, v string) { c.CharmHost = v },
	"user_id":             func(c *Config, v string) { c.UserID = v },
	"log_mode":            func(c *Config, v string) { c.LogMode = v },
	"revalidate_interval": func(c *Config, v string) { c.RevalidateInterval = v },
}

// Set assigns one key by its JSON name and validates the result.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	next := *c
	set(&next, value)
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "pump", "config.json")
}

// LoadFile reads config from disk without env overrides.
func LoadFile() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Load reads config from disk and applies env overrides.
func Load() (*Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvUserID); v != "" {
		c.UserID = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvServer); v != "" {
		c.Server = v
	}
}

// Save writes config to disk, minting a device ID on first save.
func (c *Config) Save() error {
	c.EnsureDeviceID()

	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
