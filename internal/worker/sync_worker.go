// Package worker mirrors ledger changes into external sinks.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"debttracker/internal/amqp"
	"debttracker/internal/cache"
	"debttracker/internal/core"
	"debttracker/internal/export"
	applog "debttracker/internal/log"
	"debttracker/internal/sheets"
	"debttracker/internal/storage"
)

// SyncWorker appends every recorded transaction to a spreadsheet. Events
// only carry identifiers, so the worker reads the transaction from the
// stored snapshot. Snapshots are cached per user and reloaded when the
// cached copy predates the transaction.
type SyncWorker struct {
	store     storage.SnapshotStore
	sink      sheets.RowSink
	snapshots *cache.LRUCache[core.Snapshot]
}

func NewSyncWorker(store storage.SnapshotStore, sink sheets.RowSink, snapshots *cache.LRUCache[core.Snapshot]) *SyncWorker {
	if snapshots == nil {
		snapshots = cache.NewLRUCache[core.Snapshot](64, 5*time.Minute)
	}
	return &SyncWorker{
		store:     store,
		sink:      sink,
		snapshots: snapshots,
	}
}

// HandleLedgerEvent processes a single ledger event from AMQP. Events that
// add no transaction only invalidate the cached snapshot. Returning an error
// requeues the message; events for unknown transactions are dropped.
func (w *SyncWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	if msg.Event != amqp.EventTransactionRecorded || msg.TransactionID == "" {
		w.snapshots.Delete(msg.User)
		slog.DebugContext(ctx, "Ledger event carries no transaction",
			applog.FieldEvent, msg.Event,
			applog.FieldUser, msg.User)
		return nil
	}

	slog.InfoContext(ctx, "Processing ledger event",
		applog.FieldUser, msg.User,
		applog.FieldTransactionID, msg.TransactionID,
		applog.FieldKind, msg.Kind)

	tx, snap, err := w.findTransaction(ctx, msg.User, msg.TransactionID)
	if errors.Is(err, core.ErrNotFound) {
		// a transaction missing from the stored ledger will not appear later
		slog.WarnContext(ctx, "Dropping event for unknown transaction",
			applog.FieldUser, msg.User,
			applog.FieldTransactionID, msg.TransactionID)
		return nil
	}
	if err != nil {
		return err
	}

	synced, err := w.sink.Contains(ctx, tx.ID)
	if err != nil {
		return fmt.Errorf("check sheet for transaction %s: %w", tx.ID, err)
	}
	if synced {
		slog.InfoContext(ctx, "Transaction already in sheet, skipping",
			applog.FieldUser, msg.User,
			applog.FieldTransactionID, tx.ID)
		return nil
	}

	row := export.Row(tx, export.FriendNames(snap.Friends))
	ref, err := w.sink.AppendRow(ctx, tx.ID, row)
	if err != nil {
		return fmt.Errorf("append transaction %s: %w", tx.ID, err)
	}

	fields := applog.NewFields().
		WithOperation(applog.OpSync).
		WithUser(msg.User).
		WithTransaction(tx)
	fields[applog.FieldSheetsRef] = ref
	slog.InfoContext(ctx, "Transaction synced to sheet", fields.ToSlice()...)
	return nil
}

func (w *SyncWorker) findTransaction(ctx context.Context, user string, id core.ID) (core.Transaction, core.Snapshot, error) {
	fresh := false
	load := func() (core.Snapshot, error) {
		fresh = true
		return w.store.Load(ctx, user)
	}

	snap, err := w.snapshots.GetOrLoad(user, load)
	if err != nil {
		return core.Transaction{}, core.Snapshot{}, fmt.Errorf("load ledger for %s: %w", user, err)
	}
	if tx, found := lookup(snap, id); found {
		return tx, snap, nil
	}
	if fresh {
		return core.Transaction{}, core.Snapshot{}, &core.NotFoundError{Entity: "transaction", ID: id}
	}

	// cached copy predates the transaction
	snap, err = load()
	if err != nil {
		return core.Transaction{}, core.Snapshot{}, fmt.Errorf("load ledger for %s: %w", user, err)
	}
	w.snapshots.Set(user, snap)

	tx, found := lookup(snap, id)
	if !found {
		return core.Transaction{}, core.Snapshot{}, &core.NotFoundError{Entity: "transaction", ID: id}
	}
	return tx, snap, nil
}

func lookup(snap core.Snapshot, id core.ID) (core.Transaction, bool) {
	for _, tx := range snap.Transactions {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}

// Backfill appends every stored transaction of every user that is not yet in
// the sheet, oldest first. It recovers from events lost while the worker was
// down. The sheet index is read once; rows that fail to append are logged and
// skipped.
func (w *SyncWorker) Backfill(ctx context.Context) (int, error) {
	users, err := w.store.Users(ctx)
	if err != nil {
		return 0, fmt.Errorf("list ledgers: %w", err)
	}
	present, err := w.sink.IDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("read sheet index: %w", err)
	}

	synced, failed := 0, 0
	for _, user := range users {
		snap, err := w.store.Load(ctx, user)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load ledger for backfill",
				applog.NewFields().WithOperation(applog.OpBackfill).WithUser(user).WithError(err).ToSlice()...)
			failed++
			continue
		}
		w.snapshots.Set(user, snap)
		names := export.FriendNames(snap.Friends)

		for i := len(snap.Transactions) - 1; i >= 0; i-- {
			if err := ctx.Err(); err != nil {
				return synced, err
			}
			tx := snap.Transactions[i]
			if _, ok := present[tx.ID]; ok {
				continue
			}
			if _, err := w.sink.AppendRow(ctx, tx.ID, export.Row(tx, names)); err != nil {
				slog.ErrorContext(ctx, "Failed to backfill transaction",
					applog.NewFields().
						WithOperation(applog.OpBackfill).
						WithUser(user).
						WithTransaction(tx).
						WithError(err).
						ToSlice()...)
				failed++
				continue
			}
			present[tx.ID] = struct{}{}
			synced++
		}
	}

	slog.InfoContext(ctx, "Startup backfill completed",
		applog.FieldOperation, applog.OpBackfill,
		"ledgers", len(users),
		"synced", synced,
		"errors", failed)
	return synced, nil
}
