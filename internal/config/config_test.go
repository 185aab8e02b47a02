package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"safetycore/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SAFETYCORE_HTTP_ADDR", "")
	cfg := config.Load()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.HTTPAddr)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SAFETYCORE_HTTP_ADDR", ":9999")
	t.Setenv("SAFETYCORE_STORAGE_DRIVER", "sqlite")
	t.Setenv("SAFETYCORE_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("SAFETYCORE_BLOB_DRIVER", "memory")

	cfg := config.Load()
	if cfg.HTTPAddr != ":9999" || cfg.StorageDriver != "sqlite" || cfg.SQLitePath != "/tmp/x.db" || cfg.BlobDriver != "memory" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SAFETYCORE_HTTP_ADDR=:7070\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("SAFETYCORE_HTTP_ADDR", "")
	os.Unsetenv("SAFETYCORE_HTTP_ADDR")

	cfg := config.Load()
	if cfg.HTTPAddr != ":7070" {
		t.Fatalf("expected .env value, got %q", cfg.HTTPAddr)
	}
}
