package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finapp/internal/amqp"
	"finapp/internal/core"
	"finapp/internal/ledger"
	"finapp/internal/storage"
)

// Worker consumes ledger events and appends created or edited transactions
// to the spreadsheet. A periodic pass picks up rows the event path missed
// (publish failures, worker downtime).
type Worker struct {
	store     *storage.SQLiteStore
	exporter  Appender
	batchSize int
}

func NewWorker(store *storage.SQLiteStore, exporter Appender, batchSize int) *Worker {
	return &Worker{
		store:     store,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleEvent exports the transaction named by a created/updated event.
// Events for other entities, and rows deleted since the event was published,
// are acknowledged without action.
func (w *Worker) HandleEvent(ctx context.Context, msg *amqp.EventMessage) error {
	if msg.Entity != ledger.EntityTransaction {
		return nil
	}
	if msg.Action != ledger.ActionCreated && msg.Action != ledger.ActionUpdated {
		return nil
	}

	t, err := w.store.GetTransaction(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Transaction gone before export, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch transaction: %w", err)
	}
	return w.export(ctx, t)
}

// ProcessPending exports one batch of rows with no export mark yet,
// oldest first.
func (w *Worker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.PendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Exporting pending transactions", "count", len(pending))
	for _, t := range pending {
		if err := w.export(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) export(ctx context.Context, t core.Transaction) error {
	row, err := w.rowFor(ctx, t)
	if err != nil {
		return err
	}
	if err := w.exporter.Append(ctx, row); err != nil {
		return fmt.Errorf("append transaction %s: %w", t.ID, err)
	}
	if err := w.store.MarkExported(ctx, t.ID); err != nil {
		return fmt.Errorf("mark exported %s: %w", t.ID, err)
	}

	slog.InfoContext(ctx, "Transaction exported",
		"id", t.ID,
		"date", t.Date.String(),
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents)
	return nil
}

func (w *Worker) rowFor(ctx context.Context, t core.Transaction) (Row, error) {
	category, err := w.store.EntityName(ctx, "categories", t.CategoryID)
	if err != nil {
		return Row{}, err
	}
	account, err := w.store.EntityName(ctx, "accounts", t.AccountID)
	if err != nil {
		return Row{}, err
	}
	card, err := w.store.EntityName(ctx, "cards", t.CardID)
	if err != nil {
		return Row{}, err
	}
	if category == "" {
		category = core.Uncategorized
	}
	return Row{Transaction: t, Category: category, Account: account, Card: card}, nil
}
