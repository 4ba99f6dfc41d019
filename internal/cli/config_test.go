package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Cache.Backend != "file" {
		t.Errorf("Backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.Defaults.Sentinel != 0 {
		t.Errorf("Sentinel = %d, want 0", cfg.Defaults.Sentinel)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[defaults]
sentinel = -9999
id_column = "featureID"

[cache]
backend = "redis"
redis_addr = "cache.internal:6379"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Defaults.Sentinel != -9999 {
		t.Errorf("Sentinel = %d, want -9999", cfg.Defaults.Sentinel)
	}
	if cfg.Defaults.IDColumn != "featureID" {
		t.Errorf("IDColumn = %q, want featureID", cfg.Defaults.IDColumn)
	}
	if cfg.Cache.Backend != "redis" {
		t.Errorf("Backend = %q, want redis", cfg.Cache.Backend)
	}
	if cfg.Cache.RedisAddr != "cache.internal:6379" {
		t.Errorf("RedisAddr = %q, want cache.internal:6379", cfg.Cache.RedisAddr)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[defaults]\nsentinel = 5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	// Unset sections keep their defaults
	if cfg.Cache.Backend != "file" {
		t.Errorf("Backend = %q, want file default", cfg.Cache.Backend)
	}
	if cfg.Defaults.Sentinel != 5 {
		t.Errorf("Sentinel = %d, want 5", cfg.Defaults.Sentinel)
	}
}

func TestLoadConfigOrDefaultMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := LoadConfigOrDefault()
	if cfg.Cache.Backend != "file" {
		t.Errorf("Backend = %q, want file default for missing config", cfg.Cache.Backend)
	}
}
