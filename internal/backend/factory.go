package backend

import (
	"context"
	"fmt"
	"log/slog"

	"debttracker/internal/amqp"
	"debttracker/internal/sheets"
	gsheet "debttracker/internal/sheets/google"
	"debttracker/internal/sheets/memory"
	"debttracker/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

var _ Factory = (*DefaultFactory)(nil)

// CreateStore opens the snapshot store selected by config.Type. SQL stores
// are migrated before they are returned.
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store storage.SnapshotStore
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case PostgresBackend:
		store, err = storage.NewPostgresStore(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Postgres backend")
	case MemoryBackend:
		store = storage.NewMemoryStore()
		f.logger.WarnContext(ctx, "Initialized memory backend, ledgers are lost on exit")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	return &StoreResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

// CreateSink returns the Google Sheets client when a spreadsheet is
// configured and an in-memory sink otherwise.
func (f *DefaultFactory) CreateSink(ctx context.Context, config Config) (sheets.RowSink, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.WarnContext(ctx, "No spreadsheet configured, rows are kept in memory")
		return memory.New(), nil
	}

	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	if err := cli.EnsureHeader(ctx); err != nil {
		return nil, err
	}

	f.logger.InfoContext(ctx, "Initialized Google Sheets sink", "sheet", cli.SheetName())
	return cli, nil
}

// CreateAMQPClient connects to the broker. It returns nil without error when
// no AMQP URL is configured.
func (f *DefaultFactory) CreateAMQPClient(ctx context.Context, config Config) (*amqp.Client, error) {
	if config.AMQPURL == "" {
		f.logger.InfoContext(ctx, "AMQP disabled")
		return nil, nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client, nil
}
