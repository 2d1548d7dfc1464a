// Package cli consolidates the initialization shared by cmd/finflow and
// cmd/finflow-notifier.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finflow/internal/backend"
	"finflow/internal/cache"
	"finflow/internal/config"
	"finflow/internal/dedup"
	"finflow/internal/log"
	"finflow/internal/services"
)

// SetupLogger builds the process logger from a LOG_LEVEL value and installs
// it as the slog default. Unknown levels fall back to info.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = os.Stderr
	if lvl, err := log.ParseLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and validates it.
func LoadAndValidateConfig(logger *log.Logger) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		return nil, err
	}
	return cfg, nil
}

// App bundles the long-lived collaborators of a finflow process.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Backend *backend.BackendResult
	Service *services.TransactionService
	Caches  *cache.Manager
}

// NewApp opens the configured backend and wires the transaction service.
// The dedup guard is registered with a cache manager that is started only
// when the caller asks for it.
func NewApp(ctx context.Context, logger *log.Logger, cfg *config.Config) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}

	guard := dedup.NewGuard(cfg.DedupWindow, cfg.DedupMaxEntries)
	caches := cache.NewManager()
	caches.Register(guard)

	svc := services.NewTransactionService(services.Deps{
		Store:             res.Store,
		Notifier:          res.Notifier,
		Guard:             guard,
		Logger:            logger,
		DefaultCurrency:   cfg.DefaultCurrency,
		ImportDefaultType: cfg.ImportDefaultType,
	})

	return &App{
		Config:  cfg,
		Logger:  logger,
		Backend: res,
		Service: svc,
		Caches:  caches,
	}, nil
}

// Close stops cache cleanup and releases the backend.
func (a *App) Close() error {
	a.Caches.Stop()
	if err := a.Backend.Cleanup(); err != nil {
		a.Logger.Error("Backend cleanup failed", log.FieldOperation, log.OpShutdown, log.FieldError, err)
		return err
	}
	return nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. The
// returned stop function releases the signal handler.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown, "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
