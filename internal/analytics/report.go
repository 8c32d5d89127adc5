package analytics

import (
	"github.com/shopspring/decimal"

	"expensetab/internal/core"
)

// Report bundles every analytic for one month, or for all time when Month is empty.
type Report struct {
	Month         string           `json:"month,omitempty"`
	Count         int              `json:"count"`
	Total         decimal.Decimal  `json:"total"`
	ByCategory    []CategoryTotal  `json:"byCategory"`
	MostFrequent  []FrequentItem   `json:"mostFrequent"`
	MostExpensive []core.Expense   `json:"mostExpensive"`
	Duplicates    [][]core.Expense `json:"duplicates"`
	Budget        *BudgetOverview  `json:"budget,omitempty"`
}

// Compute builds a Report from the current collections.
func Compute(expenses []core.Expense, categories []core.Category, budgets []core.Budget, month string) Report {
	visible := FilterMonth(expenses, month)
	r := Report{
		Month:         month,
		Count:         len(visible),
		Total:         Total(visible),
		ByCategory:    CategoryTotals(visible, categories),
		MostFrequent:  MostFrequent(visible, TopN),
		MostExpensive: MostExpensive(visible, TopN),
		Duplicates:    DuplicateGroups(visible),
	}
	if month != "" {
		ov := Overview(budgets, expenses, month)
		r.Budget = &ov
	}
	return r
}

// Clone returns a copy that shares no slices or pointers with r.
func (r Report) Clone() Report {
	out := r
	if r.ByCategory != nil {
		out.ByCategory = append([]CategoryTotal(nil), r.ByCategory...)
	}
	if r.MostFrequent != nil {
		out.MostFrequent = append([]FrequentItem(nil), r.MostFrequent...)
	}
	out.MostExpensive = cloneExpenses(r.MostExpensive)
	if r.Duplicates != nil {
		out.Duplicates = make([][]core.Expense, len(r.Duplicates))
		for i, g := range r.Duplicates {
			out.Duplicates[i] = cloneExpenses(g)
		}
	}
	if r.Budget != nil {
		ov := *r.Budget
		out.Budget = &ov
	}
	return out
}

func cloneExpenses(in []core.Expense) []core.Expense {
	if in == nil {
		return nil
	}
	out := make([]core.Expense, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
