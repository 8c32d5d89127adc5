package analytics

import (
	"strings"

	"github.com/shopspring/decimal"

	"expensetab/internal/core"
)

// Criteria narrows an expense listing. Zero-valued fields do not filter.
type Criteria struct {
	Month      string           `json:"month,omitempty"`
	Search     string           `json:"search,omitempty"`
	From       *core.Date       `json:"from,omitempty"`
	To         *core.Date       `json:"to,omitempty"`
	MinAmount  *decimal.Decimal `json:"minAmount,omitempty"`
	MaxAmount  *decimal.Decimal `json:"maxAmount,omitempty"`
	Categories []string         `json:"categories,omitempty"`
	Tags       []string         `json:"tags,omitempty"`
}

// Search returns the expenses matching every set criterion, in input order.
func Search(expenses []core.Expense, c Criteria) []core.Expense {
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range FilterMonth(expenses, c.Month) {
		if c.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Matches applies every criterion except Month to a single expense.
// Search matches description or note, tags match by case-insensitive substring
// and any listed tag is enough. Date and amount bounds are inclusive.
func (c Criteria) Matches(e core.Expense) bool {
	if c.Search != "" {
		term := strings.ToLower(c.Search)
		if !strings.Contains(strings.ToLower(e.Description), term) &&
			!strings.Contains(strings.ToLower(e.Note), term) {
			return false
		}
	}
	if c.From != nil && e.Date.Before(c.From.Time) {
		return false
	}
	if c.To != nil && e.Date.After(c.To.Time) {
		return false
	}
	if c.MinAmount != nil && e.Amount.LessThan(*c.MinAmount) {
		return false
	}
	if c.MaxAmount != nil && e.Amount.GreaterThan(*c.MaxAmount) {
		return false
	}
	if len(c.Categories) > 0 && !contains(c.Categories, e.Category) {
		return false
	}
	if len(c.Tags) > 0 && !anyTagMatches(c.Tags, e.Tags) {
		return false
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func anyTagMatches(wanted, have []string) bool {
	for _, w := range wanted {
		w = strings.ToLower(w)
		for _, h := range have {
			if strings.Contains(strings.ToLower(h), w) {
				return true
			}
		}
	}
	return false
}
