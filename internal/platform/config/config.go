// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend selects the member storage strategy.
type Backend string

const (
	// BackendSQL is the row-store: SQLite by default, Postgres when DATABASE_URL is set.
	BackendSQL Backend = "sql"
	// BackendXLSX keeps every member in a single spreadsheet file.
	BackendXLSX Backend = "xlsx"
	// BackendMemory is process-local and lost on exit.
	BackendMemory Backend = "memory"
)

type Config struct {
	Port    string
	Backend Backend

	DatabaseURL string
	SQLitePath  string
	XLSXPath    string

	// SeedSampleMembers inserts the sample members into an empty store.
	SeedSampleMembers  bool
	SlowQueryThreshold time.Duration

	StaticDir       string
	CredentialsFile string

	LogLevel        slog.Level
	ShutdownTimeout time.Duration
}

// LoadDotEnv loads variables from path into the environment when the file
// exists. Variables already set win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Port:               getenv("PORT", "8080"),
		Backend:            Backend(strings.ToLower(getenv("STORAGE_BACKEND", string(BackendSQL)))),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:         getenv("SQLITE_PATH", "registry.db"),
		XLSXPath:           getenv("XLSX_PATH", "members.xlsx"),
		SeedSampleMembers:  true,
		SlowQueryThreshold: 200 * time.Millisecond,
		StaticDir:          getenv("STATIC_DIR", "."),
		CredentialsFile:    strings.TrimSpace(os.Getenv("CREDENTIALS_FILE")),
		LogLevel:           slog.LevelInfo,
		ShutdownTimeout:    10 * time.Second,
	}

	switch cfg.Backend {
	case BackendSQL, BackendXLSX, BackendMemory:
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be one of sql, xlsx, memory (got %q)", cfg.Backend)
	}

	if v := os.Getenv("SEED_SAMPLE_MEMBERS"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			cfg.SeedSampleMembers = true
		case "0", "false", "no":
			cfg.SeedSampleMembers = false
		default:
			return Config{}, fmt.Errorf("SEED_SAMPLE_MEMBERS must be a boolean (got %q)", v)
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error: %w", err)
		}
	}
	if v := os.Getenv("DB_SLOW_QUERY_THRESHOLD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("DB_SLOW_QUERY_THRESHOLD must be a duration (e.g. 200ms): %w", err)
		}
		cfg.SlowQueryThreshold = d
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("SHUTDOWN_TIMEOUT must be a duration (e.g. 10s): %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	return cfg, nil
}

// UsesPostgres reports whether the row-store should connect to Postgres
// rather than the local SQLite file.
func (c Config) UsesPostgres() bool {
	return c.Backend == BackendSQL && c.DatabaseURL != ""
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
