package analytics

import (
	"github.com/shopspring/decimal"

	"expensetab/internal/core"
)

// BudgetOverview compares a month's spending with its budget.
type BudgetOverview struct {
	Month      string          `json:"month"`
	Budget     decimal.Decimal `json:"budget"`
	HasBudget  bool            `json:"hasBudget"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Progress   decimal.Decimal `json:"progress"` // percent of budget spent
	OverBudget bool            `json:"overBudget"`
}

var hundred = decimal.NewFromInt(100)

// Overview computes the budget overview for month. Progress is zero when no
// budget is set for that month.
func Overview(budgets []core.Budget, expenses []core.Expense, month string) BudgetOverview {
	ov := BudgetOverview{
		Month: month,
		Spent: Total(FilterMonth(expenses, month)),
	}
	for _, b := range budgets {
		if b.Month == month {
			ov.Budget = b.Amount
			ov.HasBudget = true
			break
		}
	}
	ov.Remaining = ov.Budget.Sub(ov.Spent)
	if ov.Budget.IsPositive() {
		ov.Progress = ov.Spent.Div(ov.Budget).Mul(hundred).Round(2)
		ov.OverBudget = ov.Spent.GreaterThan(ov.Budget)
	}
	return ov
}
