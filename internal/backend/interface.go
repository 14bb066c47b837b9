// Package backend wires storage, messaging and sheet sinks from configuration.
package backend

import (
	"context"

	"debttracker/internal/sheets"
	"debttracker/internal/storage"
)

// CleanupFunc releases a resource created by the factory.
type CleanupFunc func() error

// StoreResult contains the snapshot store and its cleanup function.
type StoreResult struct {
	Store   storage.SnapshotStore
	Cleanup CleanupFunc
}

// Factory creates the collaborators of the worker commands.
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	CreateSink(ctx context.Context, config Config) (sheets.RowSink, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	PostgresDSN  string

	// An empty AMQPURL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// An empty GoogleSpreadsheetID selects the in-memory sheet sink.
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// BackendType selects the snapshot store.
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
