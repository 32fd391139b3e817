package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/zamalek-residents/member-registry/internal/app/auth"
)

var configEnv = []string{
	"PORT", "STORAGE_BACKEND", "DATABASE_URL", "SQLITE_PATH", "XLSX_PATH",
	"SEED_SAMPLE_MEMBERS", "DB_SLOW_QUERY_THRESHOLD", "STATIC_DIR",
	"CREDENTIALS_FILE", "LOG_LEVEL", "SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{
		Port:               "8080",
		Backend:            BackendSQL,
		SQLitePath:         "registry.db",
		XLSXPath:           "members.xlsx",
		SeedSampleMembers:  true,
		SlowQueryThreshold: 200 * time.Millisecond,
		StaticDir:          ".",
		LogLevel:           slog.LevelInfo,
		ShutdownTimeout:    10 * time.Second,
	}, cfg)
	assert.False(t, cfg.UsesPostgres())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "5000")
	t.Setenv("STORAGE_BACKEND", "XLSX")
	t.Setenv("XLSX_PATH", "/data/members.xlsx")
	t.Setenv("SEED_SAMPLE_MEMBERS", "false")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("DB_SLOW_QUERY_THRESHOLD", "1s")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, BackendXLSX, cfg.Backend)
	assert.Equal(t, "/data/members.xlsx", cfg.XLSXPath)
	assert.False(t, cfg.SeedSampleMembers)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, time.Second, cfg.SlowQueryThreshold)
}

func TestLoadFromEnv_PostgresSelection(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/registry")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.UsesPostgres())

	t.Setenv("STORAGE_BACKEND", "memory")
	cfg, err = LoadFromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.UsesPostgres())
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	cases := map[string]string{
		"STORAGE_BACKEND":         "mongo",
		"SEED_SAMPLE_MEMBERS":     "maybe",
		"LOG_LEVEL":               "loud",
		"SHUTDOWN_TIMEOUT":        "ten",
		"DB_SLOW_QUERY_THRESHOLD": "fast",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(k, v)
			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), k)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("XLSX_PATH=from-dotenv.xlsx\n"), 0o600))
	t.Setenv("XLSX_PATH", "")
	require.NoError(t, os.Unsetenv("XLSX_PATH"))

	require.NoError(t, LoadDotEnv(path))
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.xlsx", cfg.XLSXPath)
}

func TestLoadCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)

	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "credentials.yaml")
	content := "users:\n  admin: \"" + string(hash) + "\"\n  \"ثروت_شرقاوى\": \"" + string(hash) + "\"\n"
	require.NoError(t, os.WriteFile(yamlPath, []byte(content), 0o600))

	creds, err := LoadCredentials(yamlPath)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.NoError(t, bcrypt.CompareHashAndPassword(creds["admin"], []byte("admin123")))
	assert.Contains(t, creds, "ثروت_شرقاوى")
}

func TestLoadCredentials_MixedCaseUsernameLogsIn(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "credentials.yaml")
	content := "users:\n  Admin: \"" + string(hash) + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	creds, err := LoadCredentials(path)
	require.NoError(t, err)

	svc := auth.NewService(creds)
	for _, user := range []string{"Admin", "admin"} {
		got, err := svc.Login(context.Background(), user, "admin123")
		require.NoError(t, err, user)
		assert.Equal(t, user, got)
	}
}

func TestLoadCredentials_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCredentials(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"users": {}}`), 0o600))
	_, err = LoadCredentials(empty)
	require.Error(t, err)

	plain := filepath.Join(dir, "plain.json")
	require.NoError(t, os.WriteFile(plain, []byte(`{"users": {"admin": "admin123"}}`), 0o600))
	_, err = LoadCredentials(plain)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a bcrypt hash")
}
