// Package backend builds the persistence and integration collaborators the
// expense service runs on, selected by configuration.
package backend

import (
	"context"

	"expensetab/internal/amqp"
	"expensetab/internal/sheets"
	"expensetab/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the opened store and the optional integrations.
// Publisher and Sheet are nil when not configured.
type BackendResult struct {
	Store     *store.Store
	Publisher *amqp.Client
	Sheet     sheets.Sheet
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File backend
	StateFilePath string

	// SQLite backend
	SQLiteDBPath string

	// Optional category seed (YAML); defaults are used when empty
	SeedCategoriesFile string

	// AMQP (optional)
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Google Sheets (optional)
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
