package backend

import (
	"context"
	"errors"
	"fmt"

	"expensetab/internal/amqp"
	"expensetab/internal/log"
	gsheet "expensetab/internal/sheets/google"
	"expensetab/internal/storage"
	"expensetab/internal/store"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	opts   []store.Option
}

// NewFactory creates a new backend factory. Store options are applied to
// every store it opens.
func NewFactory(logger *log.Logger, opts ...store.Option) Factory {
	if logger == nil {
		logger = log.Nop()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		opts:   opts,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	seed, err := store.LoadSeed(config.SeedCategoriesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed categories: %w", err)
	}

	blobs, closeBlobs, err := f.openBlobs(config)
	if err != nil {
		return nil, err
	}

	opts := append([]store.Option{
		store.WithSeedCategories(seed),
		store.WithLogger(f.logger),
	}, f.opts...)
	st, err := store.Open(ctx, store.NewBlobPersister(blobs), opts...)
	if err != nil {
		if closeBlobs != nil {
			closeBlobs()
		}
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	result := &BackendResult{Store: st}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPRoutingKey, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			result.Publisher = client
		}
	}

	if config.GoogleSpreadsheetID != "" {
		sheet, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsFile: config.GoogleServiceAccountFile,
		}, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize Google Sheets client, continuing without sheets", "error", err)
		} else {
			result.Sheet = sheet
		}
	}

	publisher := result.Publisher
	result.Cleanup = func() error {
		var errs []error
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		if closeBlobs != nil {
			if err := closeBlobs(); err != nil {
				errs = append(errs, fmt.Errorf("storage: %w", err))
			}
		}
		return errors.Join(errs...)
	}

	f.logger.Info("Initialized backend",
		log.FieldBackend, config.Type.String(),
		"amqp_enabled", result.Publisher != nil,
		"sheets_enabled", result.Sheet != nil)

	return result, nil
}

func (f *DefaultFactory) openBlobs(config Config) (storage.BlobStore, CleanupFunc, error) {
	switch config.Type {
	case SQLiteBackend:
		db, err := storage.NewSQLiteBlobStore(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Opened SQLite store", "db_path", config.SQLiteDBPath)
		return db, db.Close, nil
	case FileBackend:
		file, err := storage.NewJSONFileBlobStore(config.StateFilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize state file: %w", err)
		}
		f.logger.Info("Opened state file", "path", config.StateFilePath)
		return file, nil, nil
	case MemoryBackend:
		return storage.NewMemoryBlobStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
