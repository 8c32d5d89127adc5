package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"expensetab/internal/analytics"
	"expensetab/internal/core"
	"expensetab/internal/services"
	"expensetab/internal/validate"
)

func newExpensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "List, add and delete expenses",
	}
	cmd.AddCommand(newExpensesListCmd(), newExpensesAddCmd(), newExpensesDeleteCmd())
	return cmd
}

func newExpensesListCmd() *cobra.Command {
	var (
		month      string
		search     string
		categories []string
		tags       []string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses matching the given filters",
		Args:  cobra.NoArgs,
		RunE: withService(func(_ context.Context, cmd *cobra.Command, svc *services.ExpenseService, _ []string) error {
			if month != "" {
				if _, err := core.ParseMonth(month); err != nil {
					return err
				}
			}
			found := svc.Expenses(analytics.Criteria{
				Month:      month,
				Search:     search,
				Categories: categories,
				Tags:       tags,
			})

			out := cmd.OutOrStdout()
			if len(found) == 0 {
				printWarning(out, "No expenses found")
				return nil
			}
			names := categoryNames(svc.Categories())
			tw := newTable(out)
			row(tw, "ID", "DATE", "DESCRIPTION", "AMOUNT", "CATEGORY", "RECURRING", "TAGS")
			for _, e := range found {
				row(tw, e.ID, e.Date.Display(), e.Description, core.FormatAmount(e.Amount),
					names[e.Category], e.RecurringLabel(), strings.Join(e.Tags, ","))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d expenses, total %s\n", len(found), core.FormatAmount(analytics.Total(found)))
			return nil
		}),
	}
	cmd.Flags().StringVar(&month, "month", "", "Only expenses of this month (YYYY-MM)")
	cmd.Flags().StringVarP(&search, "search", "q", "", "Free-text search over description and note")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Category ids to include")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags to include (any match)")
	return cmd
}

func newExpensesAddCmd() *cobra.Command {
	var (
		date      string
		category  string
		tags      []string
		note      string
		frequency string
	)
	cmd := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Add an expense, optionally recurring",
		Args:  cobra.ExactArgs(2),
		RunE: withService(func(ctx context.Context, cmd *cobra.Command, svc *services.ExpenseService, args []string) error {
			amount, err := core.ParseAmount(args[1])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[1])
			}
			d := core.DateOf(time.Now())
			if date != "" {
				if d, err = core.ParseDate(date); err != nil {
					return err
				}
			}
			catID, err := resolveCategory(svc.Categories(), category)
			if err != nil {
				return err
			}

			e := core.Expense{
				Description: args[0],
				Amount:      amount,
				Category:    catID,
				Date:        d,
				Tags:        tags,
				Note:        note,
			}
			if frequency != "" {
				if e.Frequency, err = core.ParseFrequency(frequency); err != nil {
					return err
				}
				e.IsRecurring = true
			}

			added, err := svc.AddExpense(ctx, e)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Added %d expense(s), first id %s", len(added), added[0].ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&date, "date", "", "Expense date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category id or name")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags")
	cmd.Flags().StringVar(&note, "note", "", "Free-form note")
	cmd.Flags().StringVar(&frequency, "recurring", "", "Repeat daily, weekly, monthly or yearly")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newExpensesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete expenses by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: withService(func(ctx context.Context, cmd *cobra.Command, svc *services.ExpenseService, args []string) error {
			n, err := svc.BulkDelete(ctx, args)
			if err != nil {
				return err
			}
			if n < len(args) {
				printWarning(cmd.OutOrStdout(), "%d of %d ids were not found", len(args)-n, len(args))
			}
			printSuccess(cmd.OutOrStdout(), "Deleted %d expense(s)", n)
			return nil
		}),
	}
}

func categoryNames(cats []core.Category) map[string]string {
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names
}

// resolveCategory accepts a category id or a case-insensitive name.
func resolveCategory(cats []core.Category, ref string) (string, error) {
	for _, c := range cats {
		if c.ID == ref {
			return c.ID, nil
		}
	}
	key := validate.FoldName(ref)
	var matches []string
	for _, c := range cats {
		if validate.FoldName(c.Name) == key {
			matches = append(matches, c.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %q", validate.ErrUnknownCategory, ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %q", validate.ErrAmbiguousCategory, ref)
	}
}
