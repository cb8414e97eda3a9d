package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"pocketledger/internal/category"
	"pocketledger/internal/core"
	ledgerhttp "pocketledger/internal/http"

	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	var title, amount, typ, cat, description string
	c := &cobra.Command{
		Use:   "add",
		Short: "Record an expense or income",
		Example: `  ledgerctl add --title Lunch --amount 12,50 --category food
  ledgerctl add --title Salary --amount 2500 --type income --category others`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := core.ParseAmount(amount)
			if err != nil {
				return err
			}
			t, err := core.ParseTransactionType(typ)
			if err != nil {
				return err
			}
			in := core.TransactionInput{
				Title:       strings.TrimSpace(title),
				Amount:      m,
				Type:        t,
				Category:    strings.ToLower(strings.TrimSpace(cat)),
				Description: strings.TrimSpace(description),
			}
			if err := in.Validate(); err != nil {
				return err
			}
			tx, err := a.ledger.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s %q (%s)\n", tx.ID, tx.Type, tx.Title, core.FormatCurrency(tx.Amount))
			return nil
		},
	}
	c.Flags().StringVar(&title, "title", "", "transaction title (required)")
	c.Flags().StringVar(&amount, "amount", "", "positive amount, e.g. 12.50 (required)")
	c.Flags().StringVar(&typ, "type", string(core.Expense), "expense or income")
	c.Flags().StringVar(&cat, "category", category.Others, "category id")
	c.Flags().StringVar(&description, "description", "", "optional description")
	_ = c.MarkFlagRequired("title")
	_ = c.MarkFlagRequired("amount")
	return c
}

func newListCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	params := map[string]*string{}
	c := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Example: `  ledgerctl list --range month --type expense
  ledgerctl list --search coffee --sort amount --order asc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := url.Values{}
			for k, v := range params {
				if *v != "" {
					values.Set(k, *v)
				}
			}
			q, err := ledgerhttp.ParseQuery(values)
			if err != nil {
				return err
			}
			txs, err := a.ledger.Transactions(q)
			if err != nil {
				return err
			}
			if limit > 0 && len(txs) > limit {
				txs = txs[:limit]
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), txs)
			}
			writeTable(cmd.OutOrStdout(), txs, a.ledger.Registry())
			return nil
		},
	}
	for _, f := range []struct{ name, usage string }{
		{"category", "category id or all"},
		{"type", "expense, income or all"},
		{"range", "all, today, week, month or year"},
		{"search", "match title or description"},
		{"sort", "date, amount or category"},
		{"order", "asc or desc"},
	} {
		params[f.name] = c.Flags().String(f.name, "", f.usage)
	}
	c.Flags().IntVar(&limit, "limit", 0, "show at most this many transactions")
	c.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return c
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.ledger.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !res.Found {
				fmt.Fprintf(cmd.OutOrStdout(), "No transaction %s\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s %q\n", res.Transaction.ID, res.Transaction.Title)
			return nil
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	var title, amount, typ, cat, description string
	c := &cobra.Command{
		Use:     "update <id>",
		Short:   "Change fields of a transaction",
		Example: `  ledgerctl update 6f1c... --amount 14 --category transport`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p core.TransactionPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				v := strings.TrimSpace(title)
				p.Title = &v
			}
			if flags.Changed("amount") {
				m, err := core.ParseAmount(amount)
				if err != nil {
					return err
				}
				p.Amount = &m
			}
			if flags.Changed("type") {
				t, err := core.ParseTransactionType(typ)
				if err != nil {
					return err
				}
				p.Type = &t
			}
			if flags.Changed("category") {
				v := strings.ToLower(strings.TrimSpace(cat))
				p.Category = &v
			}
			if flags.Changed("description") {
				v := strings.TrimSpace(description)
				p.Description = &v
			}
			if p.IsEmpty() {
				return fmt.Errorf("nothing to update")
			}
			if err := p.Validate(); err != nil {
				return err
			}
			res, err := a.ledger.Update(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			if !res.Found {
				return fmt.Errorf("transaction %s not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %q (%s)\n", res.Transaction.ID, res.Transaction.Title, core.FormatCurrency(res.Transaction.Amount))
			return nil
		},
	}
	c.Flags().StringVar(&title, "title", "", "new title")
	c.Flags().StringVar(&amount, "amount", "", "new positive amount")
	c.Flags().StringVar(&typ, "type", "", "expense or income")
	c.Flags().StringVar(&cat, "category", "", "new category id")
	c.Flags().StringVar(&description, "description", "", "new description")
	return c
}

func writeTable(w io.Writer, txs []core.Transaction, reg *category.Registry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tTITLE\tAMOUNT")
	for _, tx := range txs {
		c := reg.ByID(tx.Category)
		amount := core.FormatCurrency(tx.Amount)
		if tx.Type == core.Expense {
			amount = "-" + amount
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%s\t%s\n",
			tx.ID, core.FormatDate(tx.CreatedAt), tx.Type, c.Icon, c.Name, tx.Title, amount)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d transaction(s)\n", len(txs))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
