package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"safetycore/internal/core"
	"safetycore/internal/infra/persistence/postgres"
	"safetycore/pkg/domain"
)

// openViaSQLite routes the store's sql.Open through the embedded sqlite
// driver so the snapshot SQL can be exercised without a running server. The
// statements the store emits (typed columns, $1 placeholders, upsert via
// excluded) are accepted by both engines.
func openViaSQLite(t *testing.T, path string) func() {
	t.Helper()
	restore := postgres.OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return sql.Open("sqlite", path)
	})
	t.Cleanup(restore)
	return restore
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	openViaSQLite(t, path)
	ctx := context.Background()

	store, err := postgres.NewStore("", core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	var taskID string
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		created, err := tx.CreateTask(domain.Task{
			Description: "inspect scaffolding",
			DueDate:     time.Now().Add(24 * time.Hour),
			Status:      domain.TaskStatusOpen,
			AssigneeID:  "e1",
		})
		taskID = created.ID
		return err
	}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := postgres.NewStore("", core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	restored, ok := reopened.GetTask(taskID)
	if !ok {
		t.Fatalf("task lost across restart")
	}
	if restored.Description != "inspect scaffolding" {
		t.Fatalf("unexpected task: %+v", restored)
	}
}

func TestPostgresStoreOpenError(t *testing.T) {
	restore := postgres.OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return nil, errors.New("refused")
	})
	defer restore()

	if _, err := postgres.NewStore("postgres://ignored", core.NewDefaultRulesEngine()); err == nil {
		t.Fatalf("expected open error")
	}
}
