// Package analytics derives totals, rankings and duplicate groups from expenses.
//
// Every function is pure and recomputes from the slice it is given; nothing is
// cached between calls.
package analytics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"expensetab/internal/core"
)

// TopN is the size of the frequent and expensive rankings.
const TopN = 5

// FilterMonth keeps expenses whose date falls in month (YYYY-MM).
// An empty month keeps everything.
func FilterMonth(expenses []core.Expense, month string) []core.Expense {
	if month == "" {
		return expenses
	}
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if strings.HasPrefix(e.Date.String(), month) {
			out = append(out, e)
		}
	}
	return out
}

// Total sums the amounts of expenses.
func Total(expenses []core.Expense) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range expenses {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// CategoryTotal is the summed amount for one category display name.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// ByCategory maps category display names to summed amounts. Expenses whose
// category no longer exists are left out, and so are empty categories.
func ByCategory(expenses []core.Expense, categories []core.Category) map[string]decimal.Decimal {
	names := categoryNames(categories)
	out := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		name, ok := names[e.Category]
		if !ok {
			continue
		}
		out[name] = out[name].Add(e.Amount)
	}
	return out
}

// CategoryTotals is ByCategory ordered by total descending, then by name.
func CategoryTotals(expenses []core.Expense, categories []core.Category) []CategoryTotal {
	byCat := ByCategory(expenses, categories)
	out := make([]CategoryTotal, 0, len(byCat))
	for name, total := range byCat {
		out = append(out, CategoryTotal{Category: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// FrequentItem groups expenses sharing a description (ignoring case) and category.
type FrequentItem struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Count       int             `json:"count"`
	Total       decimal.Decimal `json:"total"`
}

// Average is the mean amount per occurrence.
func (f FrequentItem) Average() decimal.Decimal {
	if f.Count == 0 {
		return decimal.Zero
	}
	return f.Total.Div(decimal.NewFromInt(int64(f.Count)))
}

// MostFrequent ranks description/category groups by occurrence count.
// Ties keep the order in which groups were first seen. The first spelling
// of a description is the one reported.
func MostFrequent(expenses []core.Expense, n int) []FrequentItem {
	index := make(map[string]int)
	var items []FrequentItem
	for _, e := range expenses {
		key := strings.ToLower(e.Description) + "\x00" + e.Category
		i, ok := index[key]
		if !ok {
			i = len(items)
			index[key] = i
			items = append(items, FrequentItem{Description: e.Description, Category: e.Category})
		}
		items[i].Count++
		items[i].Total = items[i].Total.Add(e.Amount)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Count > items[j].Count
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}

// MostExpensive returns the n largest individual expenses, largest first.
func MostExpensive(expenses []core.Expense, n int) []core.Expense {
	out := append([]core.Expense(nil), expenses...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func categoryNames(categories []core.Category) map[string]string {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names
}
