package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pocketledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "file")
	t.Setenv("SNAPSHOT_FILE", filepath.Join(dir, "ledger.json"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("BACKUP_BLOB_URL", "")
	t.Setenv("CATEGORIES_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func listJSON(t *testing.T, args ...string) []core.Transaction {
	t.Helper()
	out, err := run(t, append([]string{"list", "--json"}, args...)...)
	require.NoError(t, err)
	var txs []core.Transaction
	require.NoError(t, json.Unmarshal([]byte(out), &txs), out)
	return txs
}

func TestAddListUpdateRemove(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "add", "--title", "Lunch", "--amount", "12,50", "--category", "Food")
	require.NoError(t, err)
	assert.Contains(t, out, `expense "Lunch" ($12.50)`)

	_, err = run(t, "add", "--title", "Salary", "--amount", "2500", "--type", "income")
	require.NoError(t, err)

	txs := listJSON(t)
	require.Len(t, txs, 2)
	txs = listJSON(t, "--type", "expense")
	require.Len(t, txs, 1)
	lunch := txs[0]
	assert.Equal(t, "food", lunch.Category)

	out, err = run(t, "update", lunch.ID, "--amount", "15")
	require.NoError(t, err)
	assert.Contains(t, out, "$15.00")

	_, err = run(t, "update", lunch.ID)
	assert.EqualError(t, err, "nothing to update")

	_, err = run(t, "update", "missing", "--title", "x")
	assert.Error(t, err)

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "-$15.00")
	assert.Contains(t, out, "2 transaction(s)")

	out, err = run(t, "remove", lunch.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed")

	out, err = run(t, "remove", lunch.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "No transaction")
	assert.Len(t, listJSON(t), 1)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "add", "--title", "x", "--amount", "-1")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	_, err = run(t, "add", "--title", "x", "--amount", "1", "--type", "gift")
	assert.ErrorIs(t, err, core.ErrInvalidType)
	_, err = run(t, "add", "--amount", "1")
	assert.Error(t, err)
	assert.Empty(t, listJSON(t))
}

func TestBudgetStatsAndClear(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "add", "--title", "Rent", "--amount", "500", "--category", "bills")
	require.NoError(t, err)

	out, err := run(t, "budget", "1000")
	require.NoError(t, err)
	assert.Equal(t, "Monthly budget: $1,000.00 (50% used)\n", out)

	out, err = run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Expenses:    $500.00")
	assert.Contains(t, out, "Bills")

	_, err = run(t, "clear")
	assert.ErrorIs(t, err, errAborted)
	assert.Len(t, listJSON(t), 1)

	_, err = run(t, "clear", "--yes")
	require.NoError(t, err)
	assert.Empty(t, listJSON(t))

	out, err = run(t, "budget")
	require.NoError(t, err)
	assert.Contains(t, out, "$1,000.00")
}

func TestExport(t *testing.T) {
	dir := setupEnv(t)

	_, err := run(t, "add", "--title", "Coffee", "--amount", "3.20", "--category", "food")
	require.NoError(t, err)

	path := filepath.Join(dir, "out.csv")
	_, err = run(t, "export", "--output", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "Coffee"))

	out, err := run(t, "export", "--output", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Date,Type,Category,Title,Description,Amount")

	_, err = run(t, "export", "--format", "pdf")
	assert.Error(t, err)
}

func TestBackupRequiresConfiguration(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "backup")
	assert.ErrorContains(t, err, "BACKUP_BLOB_URL")
	_, err = run(t, "restore", "--yes")
	assert.ErrorContains(t, err, "BACKUP_BLOB_URL")
}
