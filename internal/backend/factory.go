package backend

import (
	"context"
	"fmt"

	"pocketledger/internal/amqp"
	"pocketledger/internal/log"
	"pocketledger/internal/sheets"
	gsheet "pocketledger/internal/sheets/google"
	sheetsmem "pocketledger/internal/sheets/memory"
	"pocketledger/internal/storage/bolt"
	"pocketledger/internal/storage/file"
	"pocketledger/internal/storage/memory"
	"pocketledger/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		store := memory.New()
		f.logger.InfoContext(ctx, "Initialized memory store")
		return &StoreResult{Store: store, Cleanup: store.Close}, nil

	case FileBackend:
		store, err := file.New(config.SnapshotFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized file store", "path", config.SnapshotFile)
		return &StoreResult{Store: store, Cleanup: store.Close}, nil

	case SQLiteBackend:
		store, err := sqlite.Open(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return &StoreResult{Store: store, Cleanup: store.Close}, nil

	case BoltBackend:
		store, err := bolt.Open(config.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized bolt store", "db_path", config.BoltDBPath)
		return &StoreResult{Store: store, Cleanup: store.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreatePublisher implements Factory.CreatePublisher
func (f *DefaultFactory) CreatePublisher(ctx context.Context, config Config) (*amqp.Client, error) {
	if config.AMQPURL == "" {
		f.logger.InfoContext(ctx, "AMQP not configured, events will not be published")
		return nil, nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client, nil
}

// CreateMirror implements Factory.CreateMirror
func (f *DefaultFactory) CreateMirror(ctx context.Context, config Config) (sheets.Mirror, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.InfoContext(ctx, "No spreadsheet configured, using in-memory mirror")
		return sheetsmem.New(), nil
	}
	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
		OAuthClientJSON: config.GoogleOAuthClientJSON,
		OAuthClientFile: config.GoogleOAuthClientFile,
		OAuthTokenJSON:  config.GoogleOAuthTokenJSON,
		OAuthTokenFile:  config.GoogleOAuthTokenFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	if err := cli.EnsureHeader(ctx); err != nil {
		f.logger.WarnContext(ctx, "Failed to write sheet header", log.FieldError, err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets mirror", "sheet", config.GoogleSheetName)
	return cli, nil
}
