// Package export renders transactions as CSV or XLSX documents.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"pocketledger/internal/category"
	"pocketledger/internal/core"
	"pocketledger/internal/stats"

	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	transactionsSheet = "Transactions"
	summarySheet      = "Summary"
)

var header = []string{"Date", "Type", "Category", "Title", "Description", "Amount"}

// Filename returns the attachment name for an export made at now.
func Filename(now time.Time, ext string) string {
	return fmt.Sprintf("transactions_%s.%s", now.Format("20060102"), ext)
}

func record(tx core.Transaction, reg *category.Registry) []string {
	return []string{
		tx.CreatedAt.Format("2006-01-02 15:04"),
		string(tx.Type),
		reg.ByID(tx.Category).Name,
		tx.Title,
		tx.Description,
		tx.Amount.String(),
	}
}

// WriteCSV writes txs in the given order. The UTF-8 BOM lets spreadsheet
// apps detect the encoding of emoji and accented titles.
func WriteCSV(w io.Writer, txs []core.Transaction, reg *category.Registry) error {
	if reg == nil {
		reg = category.Default()
	}
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range txs {
		if err := cw.Write(record(tx, reg)); err != nil {
			return fmt.Errorf("write transaction %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with a Transactions sheet and a Summary sheet
// holding totals and the per-category expense breakdown.
func WriteXLSX(w io.Writer, txs []core.Transaction, reg *category.Registry) error {
	if reg == nil {
		reg = category.Default()
	}
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; rename it rather than leaving it empty.
	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeTransactions(f, txs, reg); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummary(f, txs, reg); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTransactions(f *excelize.File, txs []core.Transaction, reg *category.Registry) error {
	if err := setRow(f, transactionsSheet, 1, toAny(header)); err != nil {
		return err
	}
	for i, tx := range txs {
		row := []any{
			tx.CreatedAt.Format("2006-01-02 15:04"),
			string(tx.Type),
			reg.ByID(tx.Category).Name,
			tx.Title,
			tx.Description,
			tx.Amount.Float(),
		}
		if err := setRow(f, transactionsSheet, i+2, row); err != nil {
			return err
		}
	}
	widths := map[string]float64{"A": 18, "B": 10, "C": 18, "D": 30, "E": 30, "F": 12}
	for col, width := range widths {
		if err := f.SetColWidth(transactionsSheet, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	return nil
}

func writeSummary(f *excelize.File, txs []core.Transaction, reg *category.Registry) error {
	income, expenses := core.Fold(txs)
	rows := [][]any{
		{"Total income", income.Float()},
		{"Total expenses", expenses.Float()},
		{"Balance", income.Sub(expenses).Float()},
		{},
		{"Category", "Amount", "Share %"},
	}
	for _, share := range stats.Breakdown(stats.CategoryTotals(txs), reg, 0) {
		rows = append(rows, []any{share.Icon + " " + share.Name, share.Amount.Float(), share.Percentage})
	}
	for i, r := range rows {
		if err := setRow(f, summarySheet, i+1, r); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
