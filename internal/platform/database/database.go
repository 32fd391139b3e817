// Package database opens the gorm handles used by the row-store adapter.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options configures the gorm handle.
type Options struct {
	// LogLevel for SQL statements; Silent disables statement logging.
	LogLevel      logger.LogLevel
	SlowThreshold time.Duration
}

func gormConfig(opts Options) *gorm.Config {
	if opts.SlowThreshold == 0 {
		opts.SlowThreshold = time.Second
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}
	gormLogger := logger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo),
		logger.Config{
			SlowThreshold:             opts.SlowThreshold,
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)
	return &gorm.Config{
		Logger: gormLogger,
	}
}

// OpenSQLite opens (creating it if needed) the SQLite database at path.
func OpenSQLite(path string, opts Options) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory %q: %w", dir, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY under concurrent requests.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// OpenPostgres wraps an existing pgx pool in a gorm handle. The pool stays
// owned by the caller.
func OpenPostgres(pool *pgxpool.Pool, opts Options) (*gorm.DB, error) {
	if pool == nil {
		return nil, fmt.Errorf("nil postgres pool")
	}
	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), gormConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("open gorm over postgres pool: %w", err)
	}
	return db, nil
}

// Close releases the gorm handle's underlying *sql.DB.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks connectivity through the gorm handle.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
