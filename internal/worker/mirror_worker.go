// Package worker keeps the Google Sheets mirror in step with the local
// data source by reacting to change messages.
package worker

import (
	"context"
	"fmt"
	"math"

	"moneyflow/internal/amqp"
	"moneyflow/internal/core"
	"moneyflow/internal/dashboard"
	"moneyflow/internal/log"
	"moneyflow/internal/ports"
	"moneyflow/internal/sheets/google"
)

// Mirror is the sheet the worker writes to.
type Mirror interface {
	UpsertTransaction(ctx context.Context, tx core.Transaction, category string) error
	DeleteTransaction(ctx context.Context, id string) error
}

// RowLister is implemented by mirrors that can read their rows back.
// Reconcile needs it.
type RowLister interface {
	Rows(ctx context.Context) ([]google.Row, error)
}

// MirrorWorker mirrors transactions from source into a sheet.
type MirrorWorker struct {
	source ports.Source
	mirror Mirror
	logger *log.Logger
	errors *log.StructuredLogger
}

func NewMirrorWorker(source ports.Source, mirror Mirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentWorker)
	return &MirrorWorker{
		source: source,
		mirror: mirror,
		logger: logger,
		errors: log.NewStructuredLogger(logger),
	}
}

// HandleChange applies one change message to the mirror. Only transaction
// changes matter; a transaction that no longer exists locally is removed.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	fields := log.NewFields().WithChange(msg.Entity, msg.Op, msg.ID)
	if msg.Entity != core.EntityTransaction {
		w.logger.DebugContext(ctx, "Ignoring change", fields.ToSlice()...)
		return nil
	}
	w.logger.InfoContext(ctx, "Processing change", fields.ToSlice()...)

	if msg.Op == core.ChangeDelete {
		return w.remove(ctx, msg.ID, fields)
	}

	txs, err := w.source.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	tx, ok := findTransaction(txs, msg.ID)
	if !ok {
		w.logger.InfoContext(ctx, "Transaction gone from source, removing from mirror", fields.ToSlice()...)
		return w.remove(ctx, msg.ID, fields)
	}

	categories, err := w.source.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if err := w.mirror.UpsertTransaction(ctx, tx, categoryName(categories, tx.CategoryID)); err != nil {
		w.errors.LogError(ctx, "Failed to mirror transaction", err, log.ComponentWorker, log.OpMirror,
			log.NewFields().WithTransaction(tx.ID, tx.CategoryID, tx.Amount, tx.Currency))
		return fmt.Errorf("mirror transaction %s: %w", tx.ID, err)
	}
	return nil
}

func (w *MirrorWorker) remove(ctx context.Context, id string, fields log.LogFields) error {
	if err := w.mirror.DeleteTransaction(ctx, id); err != nil {
		w.errors.LogError(ctx, "Failed to remove mirrored transaction", err, log.ComponentWorker, log.OpDelete, fields)
		return fmt.Errorf("remove mirrored transaction %s: %w", id, err)
	}
	return nil
}

// ReconcileResult counts the rows Reconcile touched.
type ReconcileResult struct {
	Upserted int
	Removed  int
}

// Reconcile brings the whole mirror in line with the source: missing or
// stale rows are rewritten and rows of deleted transactions removed. It
// recovers from messages lost while the worker was down.
func (w *MirrorWorker) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult
	lister, ok := w.mirror.(RowLister)
	if !ok {
		return res, fmt.Errorf("mirror %T cannot list rows", w.mirror)
	}

	rows, err := lister.Rows(ctx)
	if err != nil {
		return res, fmt.Errorf("read mirror rows: %w", err)
	}
	txs, err := w.source.ListTransactions(ctx)
	if err != nil {
		return res, fmt.Errorf("list transactions: %w", err)
	}
	categories, err := w.source.ListCategories(ctx)
	if err != nil {
		return res, fmt.Errorf("list categories: %w", err)
	}

	mirrored := make(map[string]google.Row, len(rows))
	duplicated := make(map[string]bool)
	for _, r := range rows {
		if _, seen := mirrored[r.ID]; seen {
			duplicated[r.ID] = true
		}
		mirrored[r.ID] = r
	}

	local := make(map[string]bool, len(txs))
	for _, tx := range txs {
		local[tx.ID] = true
		category := categoryName(categories, tx.CategoryID)
		if r, ok := mirrored[tx.ID]; ok && !duplicated[tx.ID] && rowMatches(r, tx, category) {
			continue
		}
		if err := w.mirror.UpsertTransaction(ctx, tx, category); err != nil {
			return res, fmt.Errorf("mirror transaction %s: %w", tx.ID, err)
		}
		res.Upserted++
	}
	for id := range mirrored {
		if local[id] {
			continue
		}
		if err := w.mirror.DeleteTransaction(ctx, id); err != nil {
			return res, fmt.Errorf("remove mirrored transaction %s: %w", id, err)
		}
		res.Removed++
	}

	w.logger.InfoContext(ctx, "Mirror reconciled",
		"transactions", len(txs),
		"rows", len(rows),
		"upserted", res.Upserted,
		"removed", res.Removed)
	return res, nil
}

func findTransaction(txs []core.Transaction, id string) (core.Transaction, bool) {
	for _, tx := range txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}

// categoryName labels dangling category ids the way the dashboard does.
func categoryName(categories []core.Category, id string) string {
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return dashboard.UncategorizedLabel
}

func rowMatches(r google.Row, tx core.Transaction, category string) bool {
	return r.Date == tx.Date &&
		r.Category == category &&
		math.Abs(r.Amount-tx.Amount) < 0.005 &&
		r.Currency == tx.Currency &&
		r.Note == tx.Note
}
