// Package store holds the application state and the transitions that change it.
//
// Transitions are pure functions from one State to the next. Store wraps a
// State with a mutex and persists every successful transition through an
// injected Persister.
package store

import (
	"errors"
	"fmt"
	"strings"

	"expensetab/internal/core"
	"expensetab/internal/recurrence"
	"expensetab/internal/validate"
)

var (
	ErrExpenseNotFound   = errors.New("expense not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryInUse     = errors.New("category is referenced by expenses")
	ErrDuplicateCategory = errors.New("category name already exists")
	ErrInvalidExpense    = errors.New("invalid expense")
	ErrInvalidBudget     = errors.New("invalid budget")
	ErrBudgetNotFound    = errors.New("budget not found")
)

// State is the complete persisted application state.
type State struct {
	Expenses   []core.Expense  `json:"expenses"`
	Categories []core.Category `json:"categories"`
	Budgets    []core.Budget   `json:"budgets"`
	Theme      core.Theme      `json:"theme"`
}

// InitialState is used when nothing has been persisted yet.
func InitialState(categories []core.Category) State {
	if categories == nil {
		categories = core.DefaultCategories()
	}
	return State{
		Expenses:   []core.Expense{},
		Categories: append([]core.Category(nil), categories...),
		Budgets:    []core.Budget{},
		Theme:      core.ThemeLight,
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := State{
		Expenses:   make([]core.Expense, len(s.Expenses)),
		Categories: append([]core.Category{}, s.Categories...),
		Budgets:    append([]core.Budget{}, s.Budgets...),
		Theme:      s.Theme,
	}
	for i, e := range s.Expenses {
		out.Expenses[i] = e.Clone()
	}
	return out
}

// Category looks a category up by id.
func (s State) Category(id string) (core.Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

// Expense looks an expense up by id.
func (s State) Expense(id string) (core.Expense, bool) {
	for _, e := range s.Expenses {
		if e.ID == id {
			return e.Clone(), true
		}
	}
	return core.Expense{}, false
}

// Budget returns the budget for month, if any.
func (s State) Budget(month string) (core.Budget, bool) {
	for _, b := range s.Budgets {
		if b.Month == month {
			return b, true
		}
	}
	return core.Budget{}, false
}

func (s State) checkExpense(e core.Expense) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpense, err)
	}
	if _, ok := s.Category(e.Category); !ok {
		return fmt.Errorf("%w: %q", ErrCategoryNotFound, e.Category)
	}
	return nil
}

// normalizeExpense returns a trimmed copy of e. Only recurring expenses keep
// a frequency.
func normalizeExpense(e core.Expense) core.Expense {
	e = e.Clone()
	e.Description = strings.TrimSpace(e.Description)
	e.Tags = normalizeTags(e.Tags)
	if !e.IsRecurring {
		e.Frequency = ""
	}
	return e
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// AddExpense appends e, assigning an id when it has none. A recurring
// expense also appends the rest of its series. The added expenses are
// returned in date order.
func AddExpense(s State, e core.Expense, newID func() string) (State, []core.Expense, error) {
	e = normalizeExpense(e)
	if err := s.checkExpense(e); err != nil {
		return s, nil, err
	}
	if e.ID == "" {
		e.ID = newID()
	}
	if _, exists := s.Expense(e.ID); exists {
		return s, nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidExpense, e.ID)
	}

	series, err := recurrence.Expand(e, newID)
	if err != nil {
		return s, nil, fmt.Errorf("%w: %v", ErrInvalidExpense, err)
	}

	added := append([]core.Expense{e}, series...)
	next := s.Clone()
	for _, a := range added {
		next.Expenses = append(next.Expenses, a.Clone())
	}
	return next, added, nil
}

// AddRecords appends validated import records as new expenses.
func AddRecords(s State, records []validate.Record, newID func() string) (State, []core.Expense, error) {
	next := s.Clone()
	added := make([]core.Expense, 0, len(records))
	for _, r := range records {
		e := r.Expense()
		e.ID = newID()
		if err := next.checkExpense(e); err != nil {
			return s, nil, err
		}
		next.Expenses = append(next.Expenses, e)
		added = append(added, e.Clone())
	}
	return next, added, nil
}

// UpdateExpense replaces the expense with e's id. The series of a recurring
// expense is not touched.
func UpdateExpense(s State, e core.Expense) (State, error) {
	e = normalizeExpense(e)
	if err := s.checkExpense(e); err != nil {
		return s, err
	}
	next := s.Clone()
	for i := range next.Expenses {
		if next.Expenses[i].ID == e.ID {
			next.Expenses[i] = e
			return next, nil
		}
	}
	return s, fmt.Errorf("%w: %q", ErrExpenseNotFound, e.ID)
}

// DeleteExpense removes one expense.
func DeleteExpense(s State, id string) (State, error) {
	next, n := BulkDelete(s, []string{id})
	if n == 0 {
		return s, fmt.Errorf("%w: %q", ErrExpenseNotFound, id)
	}
	return next, nil
}

// BulkDelete removes every expense whose id is listed and reports how many
// were removed. Unknown ids are ignored.
func BulkDelete(s State, ids []string) (State, int) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	next := s.Clone()
	kept := next.Expenses[:0]
	for _, e := range next.Expenses {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	removed := len(next.Expenses) - len(kept)
	next.Expenses = kept
	return next, removed
}

// BulkUpdate replaces every expense whose id matches one in updates and
// reports how many were replaced. Unknown ids are ignored; an invalid
// replacement rejects the whole batch.
func BulkUpdate(s State, updates []core.Expense) (State, int, error) {
	next := s.Clone()
	index := make(map[string]int, len(next.Expenses))
	for i, e := range next.Expenses {
		index[e.ID] = i
	}
	n := 0
	for _, u := range updates {
		i, ok := index[u.ID]
		if !ok {
			continue
		}
		u = normalizeExpense(u)
		if err := next.checkExpense(u); err != nil {
			return s, 0, fmt.Errorf("expense %q: %w", u.ID, err)
		}
		next.Expenses[i] = u
		n++
	}
	return next, n, nil
}

// AddCategory appends c with a fresh id. Names must stay unique when
// compared case-insensitively.
func AddCategory(s State, c core.Category, newID func() string) (State, core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return s, core.Category{}, err
	}
	key := validate.FoldName(c.Name)
	for _, existing := range s.Categories {
		if validate.FoldName(existing.Name) == key {
			return s, core.Category{}, fmt.Errorf("%w: %q", ErrDuplicateCategory, c.Name)
		}
	}
	c.ID = newID()
	next := s.Clone()
	next.Categories = append(next.Categories, c)
	return next, c, nil
}

// DeleteCategory removes a category that no expense references.
func DeleteCategory(s State, id string) (State, error) {
	if _, ok := s.Category(id); !ok {
		return s, fmt.Errorf("%w: %q", ErrCategoryNotFound, id)
	}
	inUse := 0
	for _, e := range s.Expenses {
		if e.Category == id {
			inUse++
		}
	}
	if inUse > 0 {
		return s, fmt.Errorf("%w: %d expenses use %q", ErrCategoryInUse, inUse, id)
	}
	next := s.Clone()
	kept := next.Categories[:0]
	for _, c := range next.Categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	next.Categories = kept
	return next, nil
}

// SetBudget sets or replaces the budget for b.Month.
func SetBudget(s State, b core.Budget) (State, error) {
	if err := b.Validate(); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidBudget, err)
	}
	next := s.Clone()
	for i := range next.Budgets {
		if next.Budgets[i].Month == b.Month {
			next.Budgets[i] = b
			return next, nil
		}
	}
	next.Budgets = append(next.Budgets, b)
	return next, nil
}

// DeleteBudget removes the budget for month.
func DeleteBudget(s State, month string) (State, error) {
	if _, ok := s.Budget(month); !ok {
		return s, fmt.Errorf("%w: %q", ErrBudgetNotFound, month)
	}
	next := s.Clone()
	kept := next.Budgets[:0]
	for _, b := range next.Budgets {
		if b.Month != month {
			kept = append(kept, b)
		}
	}
	next.Budgets = kept
	return next, nil
}

// ToggleTheme flips between light and dark.
func ToggleTheme(s State) State {
	next := s.Clone()
	next.Theme = s.Theme.Toggle()
	return next
}
