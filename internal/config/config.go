// Package config loads daemon configuration from the environment, with
// optional .env file support for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config carries the daemon settings. Storage and blob driver specifics are
// read by their own factories; the values here are surfaced for logging and
// overrides.
type Config struct {
	HTTPAddr      string
	GinMode       string
	StorageDriver string
	SQLitePath    string
	PostgresDSN   string
	BlobDriver    string
	BlobFSRoot    string
}

// Load reads a .env file when present, then the process environment.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:      os.Getenv("SAFETYCORE_HTTP_ADDR"),
		GinMode:       os.Getenv("SAFETYCORE_GIN_MODE"),
		StorageDriver: os.Getenv("SAFETYCORE_STORAGE_DRIVER"),
		SQLitePath:    os.Getenv("SAFETYCORE_SQLITE_PATH"),
		PostgresDSN:   os.Getenv("SAFETYCORE_POSTGRES_DSN"),
		BlobDriver:    os.Getenv("SAFETYCORE_BLOB_DRIVER"),
		BlobFSRoot:    os.Getenv("SAFETYCORE_BLOB_FS_ROOT"),
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	return cfg
}
