// Package cli holds the start-up steps shared by the moneyflow binaries.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"moneyflow/internal/amqp"
	"moneyflow/internal/backend"
	"moneyflow/internal/config"
	"moneyflow/internal/log"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at level and installs it as the
// slog default. An unknown level falls back to info.
func SetupLogger(level, component string) *log.Logger {
	cfg := log.DefaultConfig()
	if lvl, err := log.ParseLevel(level); err == nil {
		cfg.Level = lvl
	}
	if component != "" {
		cfg.Component = component
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and exits the process when it
// is invalid.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend creates the configured data source and exits the process on
// failure. Callers own the returned Result and must Close it.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.Result {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize backend",
			log.FieldError, err,
			log.FieldSource, cfg.DataSource)
		os.Exit(1)
	}
	return res
}

// InitAMQP connects to the broker when one is configured, consuming from
// queue. It returns nil when AMQP is disabled or unreachable and required
// is false.
func InitAMQP(ctx context.Context, logger *log.Logger, cfg *config.Config, queue string, required bool) *amqp.Client {
	if !cfg.AMQPEnabled() {
		if required {
			logger.ErrorContext(ctx, "AMQP_URL is required")
			os.Exit(1)
		}
		logger.InfoContext(ctx, "AMQP disabled, change notifications stay local")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, queue)
	if err != nil {
		if required {
			logger.ErrorContext(ctx, "Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without notifications", log.FieldError, err)
		return nil
	}
	logger.InfoContext(ctx, "AMQP client initialized",
		"exchange", cfg.AMQPExchange,
		"queue", queue)
	return client
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
