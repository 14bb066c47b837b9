package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"debttracker/internal/core"
)

// queries holds the dialect-specific statements of a SQL-backed store.
type queries struct {
	load   string
	upsert string
	users  string
}

// sqlStore implements SnapshotStore over database/sql. The SQLite and
// Postgres stores differ only in driver and placeholder syntax.
type sqlStore struct {
	db      *sql.DB
	q       queries
	backend string
}

func (s *sqlStore) Load(ctx context.Context, user string) (core.Snapshot, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, s.q.load, StorageKey(user)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		slog.DebugContext(ctx, "No stored ledger, starting empty", "backend", s.backend, "user", user)
		return core.EmptySnapshot(), nil
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load snapshot for %s: %w", user, err)
	}
	return decodeStored(ctx, user, raw), nil
}

func (s *sqlStore) Save(ctx context.Context, user string, snap core.Snapshot) error {
	raw, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.q.upsert, StorageKey(user), user, string(raw)); err != nil {
		return fmt.Errorf("save snapshot for %s: %w", user, err)
	}
	slog.DebugContext(ctx, "Ledger saved",
		"backend", s.backend,
		"user", user,
		"transactions", len(snap.Transactions),
		"friends", len(snap.Friends))
	return nil
}

func (s *sqlStore) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q.users)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *sqlStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
