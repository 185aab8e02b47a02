package persistence_test

import (
	"os"
	"testing"

	"safetycore/internal/core"
	"safetycore/internal/infra/persistence"
)

func TestOpenDefaultsToMemory(t *testing.T) {
	t.Setenv("SAFETYCORE_STORAGE_DRIVER", "")
	store, err := persistence.Open(core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*core.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenSQLiteDriver(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("SAFETYCORE_STORAGE_DRIVER", "sqlite")
	t.Setenv("SAFETYCORE_SQLITE_PATH", "")
	store, err := persistence.Open(core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, ok := store.(*core.MemoryStore); ok {
		t.Fatalf("expected sqlite-backed store")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Setenv("SAFETYCORE_STORAGE_DRIVER", "cassandra")
	if _, err := persistence.Open(core.NewDefaultRulesEngine()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
