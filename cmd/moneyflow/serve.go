package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"moneyflow/internal/amqp"
	"moneyflow/internal/cli"
	"moneyflow/internal/core"
	"moneyflow/internal/finance"
	apphttp "moneyflow/internal/http"
	"moneyflow/internal/log"
	"moneyflow/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	// The dashboard binds its own queue so it does not compete with the
	// sheets worker for deliveries.
	dashboardQueueSuffix = ".dashboard"
)

type serveCmd struct {
	Addr      string `help:"Listen address. Defaults to the PORT setting."`
	Recurring bool   `help:"Materialize due recurring expenses in-process. Only local data sources support it."`
}

func (c *serveCmd) Run() error {
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	backend := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("Closing backend failed", log.FieldError, err)
		}
	}()

	store := finance.NewStore(backend.Source, logger)

	var bus *amqp.Client
	if cfg.AMQPEnabled() {
		bus = cli.InitAMQP(ctx, logger, cfg, cfg.AMQPQueue+dashboardQueueSuffix, false)
	}
	if bus != nil {
		defer bus.Close()
		store.AddNotifier(bus)
	}

	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("load finance data: %w", err)
	}

	addr := c.Addr
	if addr == "" {
		addr = ":" + cfg.Port
	}
	srv := apphttp.NewServer(addr, store, apphttp.Options{
		Logger:          logger,
		CategoryLimit:   cfg.CategoryLimit,
		DefaultCurrency: cfg.DefaultCurrency,
		Ready:           backend.Ready,
	})

	// Changes made behind the store's back are applied by reloading it.
	applyRemote := func(ctx context.Context, change core.Change) error {
		if err := store.Reload(ctx); err != nil {
			return fmt.Errorf("reload finance data: %w", err)
		}
		return srv.Notify(ctx, change)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "Starting moneyflow server",
			"addr", addr,
			log.FieldSource, cfg.DataSource,
			"amqp_enabled", bus != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down moneyflow server")
		return srv.Shutdown(shutdownCtx)
	})

	if bus != nil {
		g.Go(func() error {
			err := bus.ConsumeChanges(gctx, func(ctx context.Context, msg *amqp.ChangeMessage) error {
				return applyRemote(ctx, msg.Change)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("consume changes: %w", err)
			}
			return nil
		})
	}

	if c.Recurring {
		if backend.Committer == nil {
			logger.Warn("Data source commits recurring expenses itself, ignoring --recurring", log.FieldSource, cfg.DataSource)
		} else {
			notify := applyRemote
			if bus != nil {
				// Other processes learn about commits through the bus; the
				// echo reloads this store.
				notify = bus.Notify
			}
			processor := services.NewRecurringProcessor(backend.Source, backend.Committer, cfg.DefaultCurrency, notify)
			g.Go(func() error {
				runRecurring(gctx, logger, processor, cfg.RecurringProcessorInterval)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// runRecurring processes due expenses now and then on every tick until ctx
// is done.
func runRecurring(ctx context.Context, logger *log.Logger, processor *services.RecurringProcessor, interval time.Duration) {
	logger = logger.WithComponent(log.ComponentRecurring)
	process := func(now time.Time) {
		count, err := processor.ProcessDueExpenses(ctx, now)
		if err != nil {
			logger.ErrorContext(ctx, "Recurring expense processing failed", log.FieldError, err)
			return
		}
		logger.InfoContext(ctx, "Recurring expense processing complete",
			"expenses_created", count,
			"next_check", now.Add(interval).Format("15:04:05"))
	}

	process(time.Now())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			process(now)
		}
	}
}
