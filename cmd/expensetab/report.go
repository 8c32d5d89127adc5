package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"expensetab/internal/analytics"
	"expensetab/internal/core"
	"expensetab/internal/services"
)

func monthFlag(cmd *cobra.Command, month *string) {
	cmd.Flags().StringVarP(month, "month", "m", "", "Month to report (YYYY-MM, default all time)")
}

func checkMonth(month string) error {
	if month == "" {
		return nil
	}
	_, err := core.ParseMonth(month)
	return err
}

func newReportCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show totals, category breakdown and rankings",
		Args:  cobra.NoArgs,
		RunE: withService(func(_ context.Context, cmd *cobra.Command, svc *services.ExpenseService, _ []string) error {
			if err := checkMonth(month); err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), svc.Report(month))
		}),
	}
	monthFlag(cmd, &month)
	return cmd
}

func printReport(w io.Writer, r analytics.Report) error {
	title := "All expenses"
	if r.Month != "" {
		title = "Expenses for " + r.Month
	}
	printHeader(w, title)
	fmt.Fprintf(w, "Count: %d\nTotal: %s\n\n", r.Count, core.FormatAmount(r.Total))

	if r.Budget != nil && r.Budget.HasBudget {
		printBudget(w, *r.Budget)
		fmt.Fprintln(w)
	}

	if len(r.ByCategory) > 0 {
		printHeader(w, "By category")
		tw := newTable(w)
		for _, c := range r.ByCategory {
			row(tw, c.Category, core.FormatAmount(c.Total))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if len(r.MostFrequent) > 0 {
		printHeader(w, "Most frequent")
		tw := newTable(w)
		for _, f := range r.MostFrequent {
			row(tw, f.Description, f.Category, fmt.Sprintf("%dx", f.Count), core.FormatAmount(f.Total))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if len(r.MostExpensive) > 0 {
		printHeader(w, "Most expensive")
		tw := newTable(w)
		for _, e := range r.MostExpensive {
			row(tw, e.Date.Display(), e.Description, core.FormatAmount(e.Amount))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if n := len(r.Duplicates); n > 0 {
		fmt.Fprintln(w)
		printWarning(w, "%d group(s) of possible duplicates, see 'expensetab duplicates'", n)
	}
	return nil
}

func printBudget(w io.Writer, ov analytics.BudgetOverview) {
	fmt.Fprintf(w, "Budget %s: %s spent of %s (%s%%), %s remaining\n",
		ov.Month,
		core.FormatAmount(ov.Spent),
		core.FormatAmount(ov.Budget),
		ov.Progress.StringFixed(0),
		core.FormatAmount(ov.Remaining))
	if ov.OverBudget {
		printWarning(w, "Over budget by %s", core.FormatAmount(ov.Remaining.Neg()))
	}
}

func newDuplicatesCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "List expenses sharing date, description, amount and category",
		Args:  cobra.NoArgs,
		RunE: withService(func(_ context.Context, cmd *cobra.Command, svc *services.ExpenseService, _ []string) error {
			if err := checkMonth(month); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			groups := svc.Duplicates(month)
			if len(groups) == 0 {
				printSuccess(out, "No duplicates found")
				return nil
			}
			for i, g := range groups {
				printHeader(out, fmt.Sprintf("Group %d", i+1))
				tw := newTable(out)
				for _, e := range g {
					row(tw, e.ID, e.Date.Display(), e.Description, core.FormatAmount(e.Amount))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintln(out)
			}
			return nil
		}),
	}
	monthFlag(cmd, &month)
	return cmd
}
