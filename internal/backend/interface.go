package backend

import (
	"context"

	"pocketledger/internal/amqp"
	"pocketledger/internal/sheets"
	"pocketledger/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// StoreResult contains the snapshot store and its cleanup function.
type StoreResult struct {
	Store   storage.SnapshotStore
	Cleanup CleanupFunc
}

// Factory creates collaborators based on configuration
type Factory interface {
	// CreateStore opens the snapshot store selected by config.Type.
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	// CreatePublisher returns nil with no error when AMQP is not configured.
	CreatePublisher(ctx context.Context, config Config) (*amqp.Client, error)
	// CreateMirror returns the Google mirror when a spreadsheet is
	// configured and an in-memory one otherwise.
	CreateMirror(ctx context.Context, config Config) (sheets.Mirror, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	SnapshotFile string
	SQLiteDBPath string
	BoltDBPath   string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientJSON    string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenJSON     string
	GoogleOAuthTokenFile     string
}

// BackendType represents the type of snapshot store
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	BoltBackend   BackendType = "bolt"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, BoltBackend:
		return true
	default:
		return false
	}
}
