// Package services orchestrates the expense store with import, export,
// analytics and the optional event and spreadsheet channels.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"expensetab/internal/analytics"
	"expensetab/internal/backend"
	"expensetab/internal/cache"
	"expensetab/internal/core"
	"expensetab/internal/exporter"
	"expensetab/internal/log"
	"expensetab/internal/sheets"
	"expensetab/internal/store"
)

// EventPublisher announces state changes. Failures are logged and never
// fail the mutation that triggered them.
type EventPublisher interface {
	PublishStateChanged(ctx context.Context, op string, count int) error
}

// ExpenseService is the single entry point used by the CLI and the HTTP API.
type ExpenseService struct {
	store      *store.Store
	publisher  EventPublisher
	sheet      sheets.Sheet
	importSlot *semaphore.Weighted
	reports    *cache.LRUCache[analytics.Report]
	now        func() time.Time
	logger     *log.Logger
	events     *log.StructuredLogger
	closers    []func() error
}

const (
	reportCacheSize = 64
	reportCacheTTL  = 5 * time.Minute
)

type Option func(*ExpenseService)

func WithPublisher(p EventPublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

func WithSheet(sh sheets.Sheet) Option {
	return func(s *ExpenseService) { s.sheet = sh }
}

func WithLogger(l *log.Logger) Option {
	return func(s *ExpenseService) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentExpense)
		}
	}
}

// WithClock sets the source of "today" for templates.
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

// WithReportCache replaces the default report cache.
func WithReportCache(c *cache.LRUCache[analytics.Report]) Option {
	return func(s *ExpenseService) {
		if c != nil {
			s.reports = c
		}
	}
}

// WithCloser registers a cleanup run by Close.
func WithCloser(fn func() error) Option {
	return func(s *ExpenseService) {
		if fn != nil {
			s.closers = append(s.closers, fn)
		}
	}
}

func NewExpenseService(st *store.Store, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:      st,
		importSlot: semaphore.NewWeighted(1),
		reports:    cache.NewLRUCache[analytics.Report](reportCacheSize, reportCacheTTL),
		now:        time.Now,
		logger:     log.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = log.NewStructuredLogger(s.logger)
	return s
}

// NewFromBackend wires a service to everything the backend opened. The
// backend cleanup runs on Close.
func NewFromBackend(res *backend.BackendResult, logger *log.Logger, opts ...Option) *ExpenseService {
	base := []Option{WithLogger(logger), WithCloser(res.Cleanup)}
	if res.Publisher != nil {
		base = append(base, WithPublisher(res.Publisher))
	}
	if res.Sheet != nil {
		base = append(base, WithSheet(res.Sheet))
	}
	return NewExpenseService(res.Store, append(base, opts...)...)
}

func (s *ExpenseService) publish(ctx context.Context, op string, count int) {
	if s.publisher == nil || count == 0 {
		return
	}
	if err := s.publisher.PublishStateChanged(ctx, op, count); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish state change",
			log.FieldOperation, op,
			log.FieldError, err.Error())
	}
}

// Store exposes the underlying store for read-only callers.
func (s *ExpenseService) Store() *store.Store { return s.store }

func (s *ExpenseService) EventsEnabled() bool { return s.publisher != nil }

func (s *ExpenseService) SheetsEnabled() bool { return s.sheet != nil }

// Expenses returns the expenses matching c, in stored order.
func (s *ExpenseService) Expenses(c analytics.Criteria) []core.Expense {
	return analytics.Search(s.store.Expenses(), c)
}

func (s *ExpenseService) Expense(id string) (core.Expense, error) {
	return s.store.Expense(id)
}

// AddExpense stores e and returns every expense created, the recurring
// series included.
func (s *ExpenseService) AddExpense(ctx context.Context, e core.Expense) ([]core.Expense, error) {
	added, err := s.store.AddExpense(ctx, e)
	if err != nil {
		return nil, err
	}
	first := added[0]
	s.events.LogExpenseCreated(ctx, first.ID, first.Description, core.FormatAmount(first.Amount), first.Category, len(added))
	s.publish(ctx, log.OpCreate, len(added))
	return added, nil
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return err
	}
	s.publish(ctx, log.OpUpdate, 1)
	return nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, log.OpDelete, 1)
	return nil
}

func (s *ExpenseService) BulkDelete(ctx context.Context, ids []string) (int, error) {
	n, err := s.store.BulkDelete(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "Expenses deleted", log.FieldOperation, log.OpBulkDelete, log.FieldRowCount, n)
	s.publish(ctx, log.OpBulkDelete, n)
	return n, nil
}

func (s *ExpenseService) BulkUpdate(ctx context.Context, updates []core.Expense) (int, error) {
	n, err := s.store.BulkUpdate(ctx, updates)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, log.OpBulkUpdate, n)
	return n, nil
}

func (s *ExpenseService) Categories() []core.Category {
	return s.store.Categories()
}

func (s *ExpenseService) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	added, err := s.store.AddCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.logger.InfoContext(ctx, "Category added", log.FieldCategory, added.Name)
	return added, nil
}

func (s *ExpenseService) DeleteCategory(ctx context.Context, id string) error {
	return s.store.DeleteCategory(ctx, id)
}

// SetBudget sets the budget of a YYYY-MM month.
func (s *ExpenseService) SetBudget(ctx context.Context, month string, amount decimal.Decimal) error {
	m, err := core.ParseMonth(month)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidBudget, err)
	}
	if err := s.store.SetBudget(ctx, core.Budget{Month: m, Amount: amount}); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Budget set",
		log.FieldOperation, log.OpBudget,
		log.FieldMonth, m,
		log.FieldAmount, core.FormatAmount(amount))
	return nil
}

func (s *ExpenseService) DeleteBudget(ctx context.Context, month string) error {
	return s.store.DeleteBudget(ctx, month)
}

// Budget reports spending against the budget of month.
func (s *ExpenseService) Budget(month string) analytics.BudgetOverview {
	return analytics.Overview(s.store.Budgets(), s.store.Expenses(), month)
}

func (s *ExpenseService) Theme() core.Theme { return s.store.Theme() }

func (s *ExpenseService) ToggleTheme(ctx context.Context) (core.Theme, error) {
	theme, err := s.store.ToggleTheme(ctx)
	if err != nil {
		return theme, err
	}
	s.logger.DebugContext(ctx, "Theme toggled", log.FieldOperation, log.OpTheme, "theme", string(theme))
	return theme, nil
}

// Report computes analytics for month, or for everything when month is "".
// Reports are cached per store revision; every caller gets its own copy.
func (s *ExpenseService) Report(month string) analytics.Report {
	if r, ok := s.reports.Get(reportKey(s.store.Revision(), month)); ok {
		return r.Clone()
	}
	snap, rev := s.store.SnapshotAt()
	r := analytics.Compute(snap.Expenses, snap.Categories, snap.Budgets, month)
	s.reports.Set(reportKey(rev, month), r)
	return r.Clone()
}

func reportKey(rev uint64, month string) string {
	return fmt.Sprintf("%d|%s", rev, month)
}

// ReportCache exposes the report cache so a janitor can sweep it.
func (s *ExpenseService) ReportCache() *cache.LRUCache[analytics.Report] {
	return s.reports
}

// Duplicates groups the expenses of month that share a duplicate key.
func (s *ExpenseService) Duplicates(month string) [][]core.Expense {
	return analytics.DuplicateGroups(analytics.FilterMonth(s.store.Expenses(), month))
}

// Export writes every expense with a resolvable category and returns how
// many rows were written.
func (s *ExpenseService) Export(ctx context.Context, w io.Writer, format exporter.Format) (int, error) {
	snap := s.store.Snapshot()
	n, err := exporter.Export(w, format, snap.Expenses, snap.Categories)
	if err != nil {
		return 0, fmt.Errorf("export %s: %w", format, err)
	}
	s.logger.InfoContext(ctx, "Expenses exported",
		log.FieldOperation, log.OpExport,
		log.FieldFormat, string(format),
		log.FieldRowCount, n)
	return n, nil
}

// Template writes an import template dated today.
func (s *ExpenseService) Template(ctx context.Context, w io.Writer, format exporter.Format) error {
	if err := exporter.Template(w, format, s.store.Categories(), core.DateOf(s.now())); err != nil {
		return fmt.Errorf("template %s: %w", format, err)
	}
	s.logger.DebugContext(ctx, "Template generated",
		log.FieldOperation, log.OpTemplate,
		log.FieldFormat, string(format))
	return nil
}

// Close runs every registered cleanup and joins their errors.
func (s *ExpenseService) Close() error {
	var errs []error
	for _, fn := range s.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}
	return nil
}
