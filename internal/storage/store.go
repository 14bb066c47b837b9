package storage

import (
	"context"
	"errors"
	"log/slog"

	"debttracker/internal/core"
)

// SnapshotStore loads and saves whole ledger snapshots.
//
// Load never fails on missing or corrupt data: it returns the default
// snapshot instead. Errors are reserved for the backend itself.
type SnapshotStore interface {
	Load(ctx context.Context, user string) (core.Snapshot, error)
	Save(ctx context.Context, user string, snap core.Snapshot) error
	// Users lists every user with a stored ledger, sorted.
	Users(ctx context.Context) ([]string, error)
	Close() error
}

// decodeStored decodes a stored payload, logging and absorbing corruption.
func decodeStored(ctx context.Context, user string, data []byte) core.Snapshot {
	snap, err := DecodeSnapshot(data)
	if errors.Is(err, ErrCorruptSnapshot) {
		slog.WarnContext(ctx, "Stored ledger is corrupt, starting from defaults",
			"user", user,
			"key", StorageKey(user),
			"error", err)
	}
	return snap
}

var (
	_ SnapshotStore = (*MemoryStore)(nil)
	_ SnapshotStore = (*SQLiteStore)(nil)
	_ SnapshotStore = (*PostgresStore)(nil)
)
