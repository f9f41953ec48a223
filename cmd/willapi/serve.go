package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"willvault/api/internal/app"
	"willvault/api/internal/authpw"
	"willvault/api/internal/config"
	"willvault/api/internal/email"
	"willvault/api/internal/export"
	"willvault/api/internal/guidance"
	"willvault/api/internal/persist"
	"willvault/api/internal/session"
	"willvault/api/internal/store"
	"willvault/api/internal/wizard"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

// refreshTokens is implemented by both the Postgres and Redis token stores.
type refreshTokens interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// backends are the storage pieces chosen at startup.
type backends struct {
	postgres *store.PostgresStore
	local    persist.SnapshotStore
	refresh  refreshTokens
	sqlite   *session.SQLiteSnapshots
	checks   map[string]app.Check
	closers  []func() error
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			logger.Warn("close backend", zap.Error(err))
		}
	}
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{checks: map[string]app.Check{}}

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	b.closers = append(b.closers, db.Close)
	applied, err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", zap.Strings("versions", applied))
	}
	b.postgres = store.NewPostgresStore(db)
	b.refresh = b.postgres
	b.checks["database"] = b.postgres.Ping

	if strings.TrimSpace(cfg.RedisURL) != "" {
		client, err := session.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, client.Close)
		tokens := session.NewRedisTokens(client, b.postgres)
		snapshots := session.NewRedisSnapshots(client)
		b.refresh = tokens
		b.local = snapshots
		b.checks["redis"] = snapshots.Ping
		logger.Info("using redis for refresh tokens and anonymous snapshots")
		return b, nil
	}

	if cfg.SQLitePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			b.Close()
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	sqlite, err := session.OpenSQLiteSnapshots(ctx, cfg.SQLitePath)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.closers = append(b.closers, sqlite.Close)
	b.sqlite = sqlite
	b.local = sqlite
	b.checks["sqlite"] = sqlite.Ping
	logger.Info("using postgres for refresh tokens and sqlite for anonymous snapshots", zap.String("path", cfg.SQLitePath))
	return b, nil
}

func newAdvisor(ctx context.Context, cfg config.Guidance) *guidance.Advisor {
	if cfg.AnthropicAPIKey != "" {
		logger.Info("guidance uses anthropic", zap.String("model", cfg.AnthropicModel))
		return guidance.NewAdvisor(guidance.NewAnthropicCompleter(guidance.AnthropicConfig{
			APIKey:     cfg.AnthropicAPIKey,
			BaseURL:    cfg.AnthropicBaseURL,
			Model:      cfg.AnthropicModel,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		}), logger)
	}
	if cfg.GeminiAPIKey != "" {
		completer, err := guidance.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err == nil {
			logger.Info("guidance uses gemini")
			return guidance.NewAdvisor(completer, logger)
		}
		logger.Warn("gemini unavailable, using rule guidance", zap.Error(err))
	}
	return guidance.NewAdvisor(nil, logger)
}

func newExporter(ctx context.Context, cfg export.ArchiveConfig) *export.Service {
	if !cfg.Enabled() {
		return export.NewService(nil, logger)
	}
	archive, err := export.NewArchive(cfg)
	if err == nil {
		err = archive.EnsureBucket(ctx)
	}
	if err != nil {
		logger.Warn("pdf archive disabled", zap.Error(err))
		return export.NewService(nil, logger)
	}
	logger.Info("archiving pdfs", zap.String("bucket", cfg.Bucket))
	return export.NewService(archive, logger)
}

func serve(ctx context.Context, cfg config.Config) error {
	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	registry := wizard.NewRegistry(wizard.Deps{
		Persister:     persist.NewGateway(b.postgres, b.local, b.postgres, logger),
		Logger:        logger,
		SaveTimeout:   cfg.Wizard.SaveTimeout,
		DebounceDelay: cfg.Wizard.DebounceDelay,
	})

	mail := email.NewService(cfg.SMTP)
	if !mail.IsConfigured() {
		logger.Info("smtp not configured, receipts disabled")
	}

	service := app.New(app.Deps{
		Config:   cfg,
		Users:    b.postgres,
		Refresh:  b.refresh,
		Accounts: authpw.NewService(b.postgres),
		Wizards:  registry,
		Advisor:  newAdvisor(ctx, cfg.Guidance),
		Exporter: newExporter(ctx, cfg.Archive),
		Mailer:   mail,
		Checks:   b.checks,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.NewHTTPServer(service, cfg.CORSOrigin, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("WillVault API listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.Wizard.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				sweep(gctx, b, registry, cfg.Wizard.IdleTimeout)
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown error", zap.Error(err))
		}
		registry.CloseAll(shutdownCtx)
		logger.Info("shutdown complete")
		return nil
	})
	return g.Wait()
}

// sweep drops expired tokens and snapshots and evicts idle wizard sessions.
func sweep(ctx context.Context, b *backends, registry *wizard.Registry, idle time.Duration) {
	if n, err := b.postgres.CleanupExpiredSessions(ctx); err != nil {
		logger.Warn("cleanup expired sessions", zap.Error(err))
	} else if n > 0 {
		logger.Info("expired sessions removed", zap.Int64("count", n))
	}
	if b.sqlite != nil {
		if n, err := b.sqlite.CleanupExpired(ctx); err != nil {
			logger.Warn("cleanup expired snapshots", zap.Error(err))
		} else if n > 0 {
			logger.Info("expired snapshots removed", zap.Int64("count", n))
		}
	}
	if n := registry.EvictIdle(ctx, idle); n > 0 {
		logger.Info("idle wizard sessions evicted", zap.Int("count", n), zap.Int("open", registry.Len()))
	}
}
