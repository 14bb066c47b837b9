package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps snapshots in a single SQLite table.
type SQLiteStore struct {
	sqlStore
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{sqlStore{
		db:      db,
		backend: "sqlite",
		q: queries{
			load: `SELECT data FROM ledger_snapshots WHERE storage_key = ?`,
			upsert: `INSERT INTO ledger_snapshots (storage_key, user_id, data, updated_at)
				VALUES (?, ?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(storage_key) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
			users: `SELECT user_id FROM ledger_snapshots ORDER BY user_id`,
		},
	}}, nil
}
