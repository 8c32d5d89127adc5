package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"expensetab/internal/core"
	"expensetab/internal/services"
)

func newBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Set, show and delete monthly budgets",
	}

	set := &cobra.Command{
		Use:   "set <YYYY-MM> <amount>",
		Short: "Set the budget for a month",
		Args:  cobra.ExactArgs(2),
		RunE: withService(func(ctx context.Context, cmd *cobra.Command, svc *services.ExpenseService, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("%w: %q", core.ErrInvalidAmount, args[1])
			}
			if err := svc.SetBudget(ctx, args[0], amount); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Budget for %s set to %s", args[0], core.FormatAmount(amount))
			return nil
		}),
	}

	show := &cobra.Command{
		Use:   "show [YYYY-MM]",
		Short: "Show spending against the budget (default this month)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withService(func(_ context.Context, cmd *cobra.Command, svc *services.ExpenseService, args []string) error {
			month := time.Now().Format(core.MonthLayout)
			if len(args) == 1 {
				m, err := core.ParseMonth(args[0])
				if err != nil {
					return err
				}
				month = m
			}
			ov := svc.Budget(month)
			out := cmd.OutOrStdout()
			if !ov.HasBudget {
				printWarning(out, "No budget set for %s (spent %s)", month, core.FormatAmount(ov.Spent))
				return nil
			}
			printBudget(out, ov)
			return nil
		}),
	}

	del := &cobra.Command{
		Use:   "delete <YYYY-MM>",
		Short: "Remove the budget of a month",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(ctx context.Context, cmd *cobra.Command, svc *services.ExpenseService, args []string) error {
			if err := svc.DeleteBudget(ctx, args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Budget for %s deleted", args[0])
			return nil
		}),
	}

	cmd.AddCommand(set, show, del)
	return cmd
}

func newCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "List, add and delete categories",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: withService(func(_ context.Context, cmd *cobra.Command, svc *services.ExpenseService, _ []string) error {
			tw := newTable(cmd.OutOrStdout())
			row(tw, "ID", "NAME", "COLOR", "ICON")
			for _, c := range svc.Categories() {
				row(tw, c.ID, c.Name, c.Color, c.Icon)
			}
			return tw.Flush()
		}),
	}

	var color, icon string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(ctx context.Context, cmd *cobra.Command, svc *services.ExpenseService, args []string) error {
			c, err := svc.AddCategory(ctx, core.Category{Name: args[0], Color: color, Icon: icon})
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Added category %s with id %s", c.Name, c.ID)
			return nil
		}),
	}
	add.Flags().StringVar(&color, "color", "#6b7280", "Display color")
	add.Flags().StringVar(&icon, "icon", "", "Icon name")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category no expense uses",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(ctx context.Context, cmd *cobra.Command, svc *services.ExpenseService, args []string) error {
			if err := svc.DeleteCategory(ctx, args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted category %s", args[0])
			return nil
		}),
	}

	cmd.AddCommand(list, add, del)
	return cmd
}

func newSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Push expenses to or pull them from Google Sheets",
	}

	push := &cobra.Command{
		Use:   "push",
		Short: "Replace the sheet contents with every exportable expense",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, cmd *cobra.Command, svc *services.ExpenseService, _ []string) error {
			ref, n, err := svc.PushToSheet(ctx)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Wrote %d expenses to %s", n, ref)
			return nil
		}),
	}

	pull := &cobra.Command{
		Use:   "pull",
		Short: "Import the sheet rows as new expenses",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, cmd *cobra.Command, svc *services.ExpenseService, _ []string) error {
			res, err := svc.PullFromSheet(ctx)
			if err != nil {
				return err
			}
			return reportImport(cmd.OutOrStdout(), res)
		}),
	}

	cmd.AddCommand(push, pull)
	return cmd
}

func newThemeCmd() *cobra.Command {
	var toggle bool
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or toggle the stored theme",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, cmd *cobra.Command, svc *services.ExpenseService, _ []string) error {
			theme := svc.Theme()
			if toggle {
				var err error
				if theme, err = svc.ToggleTheme(ctx); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&toggle, "toggle", false, "Switch between light and dark")
	return cmd
}
