// Command moneyflow-worker mirrors transaction changes announced over AMQP
// into a Google Sheets worksheet.
package main

import (
	"context"
	"errors"
	"os"

	"moneyflow/internal/cli"
	"moneyflow/internal/log"
	gsheet "moneyflow/internal/sheets/google"
	"moneyflow/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting moneyflow-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.SheetsEnabled() {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the sheets mirror")
		os.Exit(1)
	}

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	backend := cli.InitBackend(ctx, logger, cfg)
	defer backend.Close()

	sheets, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	bus := cli.InitAMQP(ctx, logger, cfg, cfg.AMQPQueue, true)
	defer bus.Close()

	mirror := worker.NewMirrorWorker(backend.Source, sheets, logger)

	// Catch up on changes missed while the worker was down.
	if err := sheets.EnsureHeader(ctx); err != nil {
		logger.Error("Failed to prepare sheet", log.FieldError, err)
	} else if _, err := mirror.Reconcile(ctx); err != nil {
		logger.Error("Startup reconcile failed", log.FieldError, err)
	}

	logger.Info("Consuming finance changes", "queue", cfg.AMQPQueue, "sheet", sheets.SheetName())
	if err := bus.ConsumeChanges(ctx, mirror.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Moneyflow-worker shutdown complete")
}
