// Package worker drains the expense event queue into the spreadsheet
// mirror and sweeps up rows the queue missed.
package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"outlay/internal/amqp"
	"outlay/internal/core"
	"outlay/internal/log"
)

// Ledger is the slice of storage the worker needs: row lookup plus the
// sync bookkeeping columns.
type Ledger interface {
	Find(ctx context.Context, id int64) (*core.Expense, error)
	PendingSyncIDs(ctx context.Context, limit int) ([]int64, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// RowAppender writes one expense to the external mirror and returns a
// reference to where it landed.
type RowAppender interface {
	Append(ctx context.Context, e core.Expense) (string, error)
}

// Consumer delivers expense events until ctx is cancelled.
type Consumer interface {
	ConsumeExpenseEvents(ctx context.Context, handler func(*amqp.ExpenseEvent) error) error
}

// ExportWorker pushes ledger rows to the spreadsheet mirror. Events
// drive the common path; a periodic sweep over pending rows covers
// lost messages and downtime.
type ExportWorker struct {
	ledger    Ledger
	sheets    RowAppender
	batchSize int
	logger    *log.Logger
}

func NewExportWorker(ledger Ledger, sheets RowAppender, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{
		ledger:    ledger,
		sheets:    sheets,
		batchSize: batchSize,
		logger:    log.Default(log.ComponentWorker),
	}
}

// HandleEvent processes one queue message. Returning an error requeues
// the delivery, so only transient failures propagate; permanently
// unprocessable events are logged and dropped.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	w.logger.InfoContext(ctx, "Processing expense event",
		"id", event.ID, "action", event.Action)

	switch event.Action {
	case amqp.ActionUpsert:
		return w.exportExpense(ctx, event.ID)
	case amqp.ActionDelete:
		// The mirror is append-only; deletions stay local.
		w.logger.InfoContext(ctx, "Ignoring delete event, mirror is append-only", "id", event.ID)
		return nil
	default:
		w.logger.WarnContext(ctx, "Dropping event with unknown action",
			"id", event.ID, "action", event.Action)
		return nil
	}
}

func (w *ExportWorker) exportExpense(ctx context.Context, id int64) error {
	expense, err := w.ledger.Find(ctx, id)
	if err != nil {
		return fmt.Errorf("find expense %d: %w", id, err)
	}
	if expense == nil {
		// Deleted before the event was consumed.
		w.logger.InfoContext(ctx, "Expense gone before export, skipping", "id", id)
		return nil
	}

	ref, err := w.sheets.Append(ctx, *expense)
	if err != nil {
		if markErr := w.ledger.MarkSyncError(ctx, id); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark sync error",
				"id", id, log.FieldError, markErr.Error())
		}
		return fmt.Errorf("append expense %d: %w", id, err)
	}

	if err := w.ledger.MarkSynced(ctx, id); err != nil {
		// The row made it to the mirror; do not requeue.
		w.logger.ErrorContext(ctx, "Failed to mark synced",
			"id", id, log.FieldError, err.Error())
		return nil
	}

	w.logger.InfoContext(ctx, "Expense exported", "id", id, "ref", ref)
	return nil
}

// ProcessPending exports up to batchSize rows still flagged pending.
// Failures are logged per row and never abort the batch.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	ids, err := w.ledger.PendingSyncIDs(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending rows: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Processing pending rows", "count", len(ids))
	for _, id := range ids {
		if err := w.exportExpense(ctx, id); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export pending row",
				"id", id, log.FieldError, err.Error())
		}
	}
	return nil
}

// Run consumes events and sweeps pending rows until ctx is cancelled.
// A startup sweep runs first so downtime backlog drains immediately.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer, sweepInterval time.Duration) error {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}

	if err := w.ProcessPending(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup sweep failed", log.FieldError, err.Error())
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.ConsumeExpenseEvents(ctx, func(event *amqp.ExpenseEvent) error {
			return w.HandleEvent(ctx, event)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.ProcessPending(ctx); err != nil {
					w.logger.ErrorContext(ctx, "Periodic sweep failed", log.FieldError, err.Error())
				}
			}
		}
	})

	return g.Wait()
}
