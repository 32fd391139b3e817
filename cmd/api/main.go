package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/zamalek-residents/member-registry/internal/adapters/httpapi"
	memmemberrepo "github.com/zamalek-residents/member-registry/internal/adapters/memory/memberrepo"
	postgres "github.com/zamalek-residents/member-registry/internal/adapters/postgres"
	sqlmemberrepo "github.com/zamalek-residents/member-registry/internal/adapters/sqlstore/memberrepo"
	xlsxmemberrepo "github.com/zamalek-residents/member-registry/internal/adapters/xlsx/memberrepo"
	"github.com/zamalek-residents/member-registry/internal/app/auth"
	"github.com/zamalek-residents/member-registry/internal/app/members"
	platformclock "github.com/zamalek-residents/member-registry/internal/platform/clock"
	"github.com/zamalek-residents/member-registry/internal/platform/config"
	"github.com/zamalek-residents/member-registry/internal/platform/database"
	"github.com/zamalek-residents/member-registry/internal/platform/metrics"
	memberrepoport "github.com/zamalek-residents/member-registry/internal/ports/out/memberrepo"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	creds, err := loadCredentials(cfg, logger)
	if err != nil {
		return err
	}

	memberRepo, cleanup, err := openMemberRepo(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	memberSvc := members.NewService(memberRepo, platformclock.NewSystemClock())
	authSvc := auth.NewService(creds)
	api := httpapi.NewServer(memberSvc, authSvc, metrics.New(), logger)

	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		StaticDir: cfg.StaticDir,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening",
			slog.String("addr", srv.Addr),
			slog.String("storage_backend", string(cfg.Backend)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loadCredentials(cfg config.Config, logger *slog.Logger) (auth.Credentials, error) {
	if cfg.CredentialsFile != "" {
		creds, err := config.LoadCredentials(cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		logger.Info("credentials loaded", slog.String("file", cfg.CredentialsFile), slog.Int("users", len(creds)))
		return creds, nil
	}

	creds, err := auth.HashCredentials(auth.DefaultUsers(), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	logger.Warn("CREDENTIALS_FILE not set; using built-in accounts", slog.Any("users", creds.Usernames()))
	return creds, nil
}

func openMemberRepo(ctx context.Context, cfg config.Config, logger *slog.Logger) (memberrepoport.Repository, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case config.BackendMemory:
		if cfg.SeedSampleMembers {
			return memmemberrepo.NewSeededRepo(), noop, nil
		}
		return memmemberrepo.NewRepo(), noop, nil

	case config.BackendXLSX:
		repo, err := xlsxmemberrepo.Open(cfg.XLSXPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open spreadsheet: %w", err)
		}
		logger.Info("spreadsheet storage ready", slog.String("path", repo.Path()))
		return repo, noop, nil

	default:
		dbOpts := database.Options{SlowThreshold: cfg.SlowQueryThreshold}
		if cfg.UsesPostgres() {
			pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
			if err != nil {
				return nil, nil, fmt.Errorf("invalid postgres config: %w", err)
			}
			db, err := database.OpenPostgres(pool, dbOpts)
			if err != nil {
				pool.Close()
				return nil, nil, err
			}
			repo, err := sqlmemberrepo.Open(ctx, db, cfg.SeedSampleMembers)
			if err != nil {
				_ = database.Close(db)
				pool.Close()
				return nil, nil, err
			}
			logger.Info("postgres storage ready")
			return repo, func() {
				_ = database.Close(db)
				pool.Close()
			}, nil
		}

		db, err := database.OpenSQLite(cfg.SQLitePath, dbOpts)
		if err != nil {
			return nil, nil, err
		}
		repo, err := sqlmemberrepo.Open(ctx, db, cfg.SeedSampleMembers)
		if err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
		logger.Info("sqlite storage ready", slog.String("path", cfg.SQLitePath))
		return repo, func() { _ = database.Close(db) }, nil
	}
}
