package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"expensetab/internal/exporter"
	"expensetab/internal/importer"
	"expensetab/internal/services"
)

var errImportRejected = errors.New("import rejected, nothing was saved")

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import expenses from a CSV, XLSX or XLS file",
		Long: "Import expenses from a spreadsheet. Every row must be valid; a file with\n" +
			"any invalid row is reported and nothing is saved.",
		Args: cobra.ExactArgs(1),
		RunE: withService(func(ctx context.Context, cmd *cobra.Command, svc *services.ExpenseService, args []string) error {
			path := args[0]
			outcome := <-svc.ImportAsync(ctx, path, func() (io.ReadCloser, error) {
				return os.Open(path)
			})
			if outcome.Err != nil {
				return outcome.Err
			}
			return reportImport(cmd.OutOrStdout(), outcome.Result)
		}),
	}
}

// reportImport prints res and returns an error unless it was committed.
func reportImport(w io.Writer, res importer.Result) error {
	switch res.Outcome {
	case importer.OutcomeSuccess:
		printSuccess(w, "%s", res.Summary())
		if res.Skipped > 0 {
			printWarning(w, "Skipped %d blank or comment rows", res.Skipped)
		}
		return nil
	case importer.OutcomeReadFailure, importer.OutcomeNoValidRows:
		printWarning(w, "%s", res.Summary())
	default:
		printWarning(w, "Validation errors:")
		for _, e := range res.Errors {
			red.Fprintf(w, "  %s\n", e.Message)
		}
	}
	return errImportRejected
}

func newExportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every expense to CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, cmd *cobra.Command, svc *services.ExpenseService, _ []string) error {
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}
			var n int
			path, err := writeOutput(cmd, output, "expenses"+f.Extension(), func(w io.Writer) error {
				var werr error
				n, werr = svc.Export(ctx, w, f)
				return werr
			})
			if err != nil {
				return err
			}
			if path != "" {
				printSuccess(cmd.ErrOrStderr(), "Exported %d expenses to %s", n, path)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(exporter.FormatCSV), "Output format: csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", `Output file (default expenses.<format>, "-" for stdout)`)
	return cmd
}

func newTemplateCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an import template with sample rows",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, cmd *cobra.Command, svc *services.ExpenseService, _ []string) error {
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}
			path, err := writeOutput(cmd, output, "expense-import-template"+f.Extension(), func(w io.Writer) error {
				return svc.Template(ctx, w, f)
			})
			if err != nil {
				return err
			}
			if path != "" {
				printSuccess(cmd.ErrOrStderr(), "Template written to %s", path)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(exporter.FormatCSV), "Output format: csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", `Output file (default expense-import-template.<format>, "-" for stdout)`)
	return cmd
}

// writeOutput runs write against stdout when output is "-", or against a
// new file otherwise. A failed write removes the partial file. It returns
// the path written, empty for stdout.
func writeOutput(cmd *cobra.Command, output, fallback string, write func(io.Writer) error) (string, error) {
	if output == "-" {
		return "", write(cmd.OutOrStdout())
	}
	if output == "" {
		output = fallback
	}

	f, err := os.Create(output)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", output, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(output)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", output, err)
	}
	return output, nil
}
