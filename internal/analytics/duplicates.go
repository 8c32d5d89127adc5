package analytics

import (
	"strings"

	"expensetab/internal/core"
)

// DuplicateKey identifies expenses that count as duplicates of each other:
// same description ignoring case, same amount, same category and same date.
func DuplicateKey(e core.Expense) string {
	return strings.Join([]string{
		strings.ToLower(e.Description),
		e.Amount.String(),
		e.Category,
		e.Date.String(),
	}, "\x00")
}

// DuplicateIDs returns the ids of every expense that shares its key with at
// least one other expense in the given set.
func DuplicateIDs(expenses []core.Expense) map[string]bool {
	counts := make(map[string]int, len(expenses))
	for _, e := range expenses {
		counts[DuplicateKey(e)]++
	}
	out := make(map[string]bool)
	for _, e := range expenses {
		if counts[DuplicateKey(e)] > 1 {
			out[e.ID] = true
		}
	}
	return out
}

// DuplicateGroups lists every group of two or more duplicates, in the order
// their first member appears.
func DuplicateGroups(expenses []core.Expense) [][]core.Expense {
	index := make(map[string]int)
	var groups [][]core.Expense
	for _, e := range expenses {
		key := DuplicateKey(e)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], e)
	}
	out := groups[:0]
	for _, g := range groups {
		if len(g) > 1 {
			out = append(out, g)
		}
	}
	return out
}
