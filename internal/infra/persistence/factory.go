// Package persistence selects a durable backend for the core store.
package persistence

import (
	"fmt"
	"os"

	"safetycore/internal/core"
	"safetycore/internal/infra/persistence/postgres"
	"safetycore/internal/infra/persistence/sqlite"
	"safetycore/pkg/domain"
)

// Driver identifies a concrete persistent storage implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// Open selects a backend using environment variables. Defaults to memory
// when unset.
//
//	SAFETYCORE_STORAGE_DRIVER: memory|sqlite|postgres (default memory)
//	SAFETYCORE_SQLITE_PATH: path to sqlite file (default ./safetycore.db)
//	SAFETYCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func Open(engine *domain.RulesEngine) (domain.PersistentStore, error) {
	driver := os.Getenv("SAFETYCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(DriverMemory)
	}
	switch Driver(driver) {
	case DriverMemory:
		return core.NewMemoryStore(engine), nil
	case DriverSQLite:
		return sqlite.NewStore(os.Getenv("SAFETYCORE_SQLITE_PATH"), engine)
	case DriverPostgres:
		return postgres.NewStore(os.Getenv("SAFETYCORE_POSTGRES_DSN"), engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
