// Command recurring-worker materializes due recurring expenses on a fixed
// interval for data sources that own their data.
package main

import (
	"context"
	"os"
	"time"

	"moneyflow/internal/cli"
	"moneyflow/internal/core"
	"moneyflow/internal/log"
	"moneyflow/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentRecurring)
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	backend := cli.InitBackend(ctx, logger, cfg)
	defer backend.Close()
	if backend.Committer == nil {
		logger.Error("Data source cannot commit recurring expenses", log.FieldSource, cfg.DataSource)
		os.Exit(1)
	}

	// Commits are announced so the dashboard and the sheets worker pick
	// them up.
	var notify func(context.Context, core.Change) error
	if bus := cli.InitAMQP(ctx, logger, cfg, "", false); bus != nil {
		defer bus.Close()
		notify = bus.Notify
	}

	processor := services.NewRecurringProcessor(backend.Source, backend.Committer, cfg.DefaultCurrency, notify)

	interval := cfg.RecurringProcessorInterval
	logger.Info("Recurring expense processor configured",
		"interval", interval,
		log.FieldSource, cfg.DataSource)

	process := func(now time.Time) {
		count, err := processor.ProcessDueExpenses(ctx, now)
		if err != nil {
			logger.ErrorContext(ctx, "Processing failed", log.FieldError, err)
			return
		}
		logger.InfoContext(ctx, "Processing complete",
			"expenses_created", count,
			"next_check", now.Add(interval).Format("15:04:05"))
	}

	logger.Info("Running initial recurring expense processing")
	process(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Recurring-worker shutdown complete")
			return
		case now := <-ticker.C:
			process(now)
		}
	}
}
