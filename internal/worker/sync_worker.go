// Package worker mirrors the expense collection to the configured sheet in
// response to state-changed events.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expensetab/internal/amqp"
	"expensetab/internal/log"
)

// Syncer reloads shared state and pushes it to the sheet.
type Syncer interface {
	Reload(ctx context.Context) error
	PushToSheet(ctx context.Context) (ref string, rows int, err error)
}

// SyncWorker keeps the sheet in step with the store. Each sync is a full
// replacement, so an event published before the last completed sync
// started carries nothing new and is skipped.
type SyncWorker struct {
	syncer Syncer
	logger *log.Logger
	events *log.StructuredLogger
	now    func() time.Time

	mu       sync.Mutex
	lastSync time.Time
}

type Option func(*SyncWorker)

func WithLogger(l *log.Logger) Option {
	return func(w *SyncWorker) {
		if l != nil {
			w.logger = l.WithComponent(log.ComponentWorker)
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(w *SyncWorker) { w.now = now }
}

func NewSyncWorker(syncer Syncer, opts ...Option) *SyncWorker {
	w := &SyncWorker{
		syncer: syncer,
		logger: log.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.events = log.NewStructuredLogger(w.logger)
	return w
}

// HandleStateChanged syncs after a state change unless a newer sync already
// covered it. Errors requeue the message.
func (w *SyncWorker) HandleStateChanged(ctx context.Context, msg *amqp.StateChangedMessage) error {
	if !msg.Timestamp.IsZero() && msg.Timestamp.Before(w.LastSync()) {
		w.logger.DebugContext(ctx, "State change already mirrored",
			log.FieldOperation, msg.Operation,
			"published_at", msg.Timestamp)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing state change",
		log.FieldOperation, msg.Operation,
		"count", msg.Count)
	return w.sync(ctx, "event")
}

// Sync reloads the store and replaces the sheet contents.
func (w *SyncWorker) Sync(ctx context.Context) error {
	return w.sync(ctx, "manual")
}

func (w *SyncWorker) sync(ctx context.Context, trigger string) (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var (
		ref  string
		rows int
	)
	defer func() {
		w.events.LogSheetSync(ctx, trigger, ref, rows, err)
	}()

	started := w.now()
	if err := w.syncer.Reload(ctx); err != nil {
		return fmt.Errorf("reload state: %w", err)
	}
	ref, rows, err = w.syncer.PushToSheet(ctx)
	if err != nil {
		return fmt.Errorf("push to sheet: %w", err)
	}
	w.lastSync = started
	return nil
}

// LastSync returns when the last successful sync started.
func (w *SyncWorker) LastSync() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSync
}

// StartupSync mirrors whatever changed while the worker was down. Failures
// are logged and left to the periodic sync.
func (w *SyncWorker) StartupSync(ctx context.Context) {
	w.logger.InfoContext(ctx, "Performing startup sync", log.FieldOperation, log.OpStartup)
	_ = w.sync(ctx, "startup")
}

// RunPeriodic syncs every interval until ctx is done, catching changes whose
// events were lost.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_ = w.sync(ctx, "periodic")
		}
	}
}
