package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"expensetab/internal/core"
	"expensetab/internal/log"
	"expensetab/internal/validate"
)

// Persister loads and saves the whole state. Load reports found=false when
// nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) (State, bool, error)
	Save(ctx context.Context, s State) error
}

// Store is the single owner of the application state. Every mutation is
// applied to a copy, saved, and only then made visible; a failed save
// leaves the previous state in place.
type Store struct {
	mu        sync.RWMutex
	state     State
	persister Persister
	newID     func() string
	seed      []core.Category
	logger    *log.Logger
	revision  uint64
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces uuid.NewString, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentStore)
		}
	}
}

// WithSeedCategories sets the categories used when no state was persisted.
func WithSeedCategories(cats []core.Category) Option {
	return func(s *Store) { s.seed = cats }
}

// Open loads the persisted state, falling back to the initial state seeded
// with default categories. A nil persister keeps the state in memory only.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persister: p,
		newID:     uuid.NewString,
		logger:    log.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.state = InitialState(s.seed)
	if p == nil {
		return s, nil
	}

	loaded, found, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if found {
		s.state = loaded
		if s.state.Theme == "" {
			s.state.Theme = core.ThemeLight
		}
	}
	s.logger.Info("State loaded",
		"found", found,
		"expenses", len(s.state.Expenses),
		"categories", len(s.state.Categories))
	return s, nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Store) Expenses() []core.Expense {
	return s.Snapshot().Expenses
}

func (s *Store) Categories() []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Category(nil), s.state.Categories...)
}

func (s *Store) Budgets() []core.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Budget(nil), s.state.Budgets...)
}

func (s *Store) Theme() core.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Theme
}

// Expense returns one expense by id.
func (s *Store) Expense(id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.state.Expense(id)
	if !ok {
		return core.Expense{}, fmt.Errorf("%w: %q", ErrExpenseNotFound, id)
	}
	return e, nil
}

// commit must be called with mu held.
func (s *Store) commit(ctx context.Context, next State) error {
	if s.persister != nil {
		if err := s.persister.Save(ctx, next); err != nil {
			s.logger.ErrorContext(ctx, "Failed to save state", "error", err)
			return fmt.Errorf("save state: %w", err)
		}
	}
	s.state = next
	s.revision++
	return nil
}

// SnapshotAt returns a deep copy of the current state with its revision.
func (s *Store) SnapshotAt() (State, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone(), s.revision
}

// Revision counts the mutations and reloads applied since Open.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Reload replaces the in-memory state with what the persister holds, so a
// process that shares the backend with another one sees its writes.
func (s *Store) Reload(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	loaded, found, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload state: %w", err)
	}
	if !found {
		return nil
	}
	if loaded.Theme == "" {
		loaded.Theme = core.ThemeLight
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = loaded
	s.revision++
	s.logger.DebugContext(ctx, "State reloaded", "expenses", len(loaded.Expenses))
	return nil
}

// AddExpense stores e and, when it recurs, the rest of its series.
func (s *Store) AddExpense(ctx context.Context, e core.Expense) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, added, err := AddExpense(s.state, e, s.newID)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return added, nil
}

// AddRecords stores validated import records in one save.
func (s *Store) AddRecords(ctx context.Context, records []validate.Record) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, added, err := AddRecords(s.state, records, s.newID)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return added, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := UpdateExpense(s.state, e)
	if err != nil {
		return err
	}
	return s.commit(ctx, next)
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := DeleteExpense(s.state, id)
	if err != nil {
		return err
	}
	return s.commit(ctx, next)
}

// BulkDelete returns how many expenses were removed. Nothing is saved when
// no id matched.
func (s *Store) BulkDelete(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, n := BulkDelete(s.state, ids)
	if n == 0 {
		return 0, nil
	}
	if err := s.commit(ctx, next); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) BulkUpdate(ctx context.Context, updates []core.Expense) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, n, err := BulkUpdate(s.state, updates)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := s.commit(ctx, next); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, added, err := AddCategory(s.state, c, s.newID)
	if err != nil {
		return core.Category{}, err
	}
	if err := s.commit(ctx, next); err != nil {
		return core.Category{}, err
	}
	return added, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := DeleteCategory(s.state, id)
	if err != nil {
		return err
	}
	return s.commit(ctx, next)
}

func (s *Store) SetBudget(ctx context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := SetBudget(s.state, b)
	if err != nil {
		return err
	}
	return s.commit(ctx, next)
}

func (s *Store) DeleteBudget(ctx context.Context, month string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := DeleteBudget(s.state, month)
	if err != nil {
		return err
	}
	return s.commit(ctx, next)
}

// ToggleTheme returns the theme now in effect.
func (s *Store) ToggleTheme(ctx context.Context) (core.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := ToggleTheme(s.state)
	if err := s.commit(ctx, next); err != nil {
		return s.state.Theme, err
	}
	return next.Theme, nil
}
