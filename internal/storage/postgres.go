package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore keeps snapshots as JSONB rows.
type PostgresStore struct {
	sqlStore
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunPostgresMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{sqlStore{
		db:      db,
		backend: "postgres",
		q: queries{
			load: `SELECT data FROM ledger_snapshots WHERE storage_key = $1`,
			upsert: `INSERT INTO ledger_snapshots (storage_key, user_id, data, updated_at)
				VALUES ($1, $2, $3::jsonb, NOW())
				ON CONFLICT (storage_key) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
			users: `SELECT user_id FROM ledger_snapshots ORDER BY user_id`,
		},
	}}, nil
}
