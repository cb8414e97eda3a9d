package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"pocketledger/internal/backup"
	"pocketledger/internal/category"
	"pocketledger/internal/core"
	"pocketledger/internal/export"
	"pocketledger/internal/stats"

	"github.com/spf13/cobra"
)

func newBudgetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "budget [amount]",
		Short: "Show or set the monthly budget (0 clears it)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				m, err := core.ParseBudget(args[0])
				if err != nil {
					return err
				}
				if err := a.ledger.SetMonthlyBudget(cmd.Context(), m); err != nil {
					return err
				}
			}
			t := a.ledger.Totals()
			fmt.Fprintf(cmd.OutOrStdout(), "Monthly budget: %s (%d%% used)\n",
				core.FormatCurrency(t.Budget), stats.BudgetUsage(t.Expenses, t.Budget))
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool
	c := &cobra.Command{
		Use:   "stats",
		Short: "Show totals and spending statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := a.ledger.Report()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			writeReport(cmd.OutOrStdout(), r)
			return nil
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return c
}

func writeReport(w io.Writer, r stats.Report) {
	fmt.Fprintln(w, "=== Balance ===")
	fmt.Fprintf(w, "Income:      %s\n", core.FormatCurrency(r.Totals.Income))
	fmt.Fprintf(w, "Expenses:    %s\n", core.FormatCurrency(r.Totals.Expenses))
	fmt.Fprintf(w, "Balance:     %s\n", core.FormatCurrency(r.Totals.Balance))
	if !r.Totals.Budget.IsZero() {
		fmt.Fprintf(w, "Budget:      %s (%d%% used)\n", core.FormatCurrency(r.Totals.Budget), r.BudgetUsed)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Spending ===")
	fmt.Fprintf(w, "This week:   %s\n", core.FormatCurrency(r.ThisWeekExpenses))
	fmt.Fprintf(w, "This month:  %s\n", core.FormatCurrency(r.ThisMonthExpenses))
	if r.TopCategory != nil {
		fmt.Fprintf(w, "Top:         %s %s %s (%d%%)\n", r.TopCategory.Icon, r.TopCategory.Name,
			core.FormatCurrency(r.TopCategory.Amount), r.TopCategory.Percentage)
	} else {
		fmt.Fprintln(w, "Top:         none")
	}
	if len(r.Breakdown) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== By category ===")
		for _, s := range r.Breakdown {
			fmt.Fprintf(w, "%-16s %12s %4d%%\n", s.Icon+" "+s.Name, core.FormatCurrency(s.Amount), s.Percentage)
		}
	}
	fmt.Fprintf(w, "\n%d transaction(s): %d expense(s), %d income\n", r.Counts.Total, r.Counts.Expenses, r.Counts.Income)
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	c := &cobra.Command{
		Use:   "clear",
		Short: "Delete every transaction (the budget is kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errAborted
			}
			if err := a.ledger.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All transactions deleted")
			return nil
		},
	}
	c.Flags().BoolVar(&yes, "yes", false, "confirm deleting every transaction")
	return c
}

func newExportCmd(a *app) *cobra.Command {
	var format, output string
	c := &cobra.Command{
		Use:     "export",
		Short:   "Export transactions as CSV or XLSX",
		Example: `  ledgerctl export --format xlsx --output ledger.xlsx`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var write func(io.Writer, []core.Transaction, *category.Registry) error
			switch format {
			case "csv":
				write = export.WriteCSV
			case "xlsx":
				write = export.WriteXLSX
			default:
				return fmt.Errorf("unknown format %q: must be csv or xlsx", format)
			}
			if output == "" {
				output = export.Filename(time.Now(), format)
			}
			txs, err := a.ledger.Transactions(stats.Query{})
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := write(w, txs, a.ledger.Registry()); err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}
			if output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d transaction(s) to %s\n", len(txs), output)
			}
			return nil
		},
	}
	c.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	c.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default transactions_YYYYMMDD.<format>)")
	return c
}

func (a *app) backupStore() (*backup.AzureBlob, error) {
	if a.cfg.BackupBlobURL == "" {
		return nil, errors.New("backup is not configured: set BACKUP_BLOB_URL")
	}
	return backup.New(a.cfg.BackupBlobURL, a.cfg.BackupContainer, a.logger)
}

func newBackupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Upload the current snapshot to Azure Blob storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.backupStore()
			if err != nil {
				return err
			}
			name, err := b.Upload(cmd.Context(), a.ledger.Snapshot())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s\n", name)
			return nil
		},
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	var yes bool
	c := &cobra.Command{
		Use:   "restore [name]",
		Short: "Replace the ledger with a backed-up snapshot (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errAborted
			}
			b, err := a.backupStore()
			if err != nil {
				return err
			}
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			snap, err := b.Download(cmd.Context(), name)
			if err != nil {
				return err
			}
			if err := a.ledger.Restore(cmd.Context(), snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d transaction(s)\n", len(snap.Transactions))
			return nil
		},
	}
	c.Flags().BoolVar(&yes, "yes", false, "confirm replacing the ledger")
	return c
}
