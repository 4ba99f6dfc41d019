package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the user configuration loaded from
// ~/.config/tailwater/config.toml. Every field has a working default, so
// a missing file is not an error.
type Config struct {
	// Defaults applied to partition/visualize runs.
	Defaults DefaultsConfig `toml:"defaults"`

	// Cache selects and configures the cache backend.
	Cache CacheConfig `toml:"cache"`
}

// DefaultsConfig holds run defaults overridable per-invocation by flags.
type DefaultsConfig struct {
	Sentinel         int64  `toml:"sentinel"`
	IDColumn         string `toml:"id_column"`
	DownstreamColumn string `toml:"downstream_column"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	// Backend is "file" (default), "redis", or "none".
	Backend string `toml:"backend"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Backend:   "file",
			RedisAddr: "localhost:6379",
		},
	}
}

// LoadConfig reads a config file, filling unset fields with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigOrDefault loads ~/.config/tailwater/config.toml, falling back
// to defaults when the file is absent or unreadable.
func LoadConfigOrDefault() *Config {
	dir, err := configDir()
	if err != nil {
		return DefaultConfig()
	}
	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}
