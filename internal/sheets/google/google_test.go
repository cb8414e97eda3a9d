package google

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"pocketledger/internal/core"
	"pocketledger/internal/log"
)

// fakeValues is an in-memory grid keyed by "<column><row>" start cells.
type fakeValues struct {
	mu      sync.Mutex
	cells   map[string][]any
	calls   []string
	failGet error
}

func newFakeValues() *fakeValues {
	return &fakeValues{cells: make(map[string][]any)}
}

func parseRange(t *testing.T, rng string) (col string, start, end int) {
	t.Helper()
	if i := strings.Index(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}
	parts := strings.SplitN(rng, ":", 2)
	col = parts[0][:1]
	start, err := strconv.Atoi(parts[0][1:])
	if err != nil {
		t.Fatalf("bad range %q", rng)
	}
	end = -1
	if len(parts) == 2 && len(parts[1]) > 1 {
		end, _ = strconv.Atoi(parts[1][1:])
	}
	return col, start, end
}

func key(col string, row int) string { return col + strconv.Itoa(row) }

func (f *fakeValues) maxRow() int {
	max := 0
	for k := range f.cells {
		if k[0] != 'A' {
			continue
		}
		if n, _ := strconv.Atoi(k[1:]); n > max {
			max = n
		}
	}
	return max
}

func (f *fakeValues) row(n int) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cells[key("A", n)]
}

type fakeGrid struct {
	*fakeValues
	t *testing.T
}

func (g fakeGrid) Get(_ context.Context, rng string) ([][]any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "get "+rng)
	if g.failGet != nil {
		return nil, g.failGet
	}
	col, start, _ := parseRange(g.t, rng)
	var out [][]any
	for r := start; r <= g.maxRow(); r++ {
		cells := g.cells[key(col, r)]
		if len(cells) == 0 {
			out = append(out, []any{})
			continue
		}
		out = append(out, []any{cells[0]})
	}
	return out, nil
}

func (g fakeGrid) Update(_ context.Context, rng string, rows [][]any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "update "+rng)
	col, start, _ := parseRange(g.t, rng)
	for i, r := range rows {
		g.cells[key(col, start+i)] = r
	}
	return nil
}

func (g fakeGrid) Clear(_ context.Context, rng string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "clear "+rng)
	col, start, end := parseRange(g.t, rng)
	last := end
	if last < 0 {
		last = g.maxRow()
	}
	for r := start; r <= last; r++ {
		delete(g.cells, key(col, r))
	}
	return nil
}

func newTestClient(t *testing.T) (*Client, *fakeValues) {
	f := newFakeValues()
	return newClient(fakeGrid{fakeValues: f, t: t}, "Transactions", log.Discard()), f
}

func sampleTx(id string, cents int64) core.Transaction {
	return core.Transaction{
		ID:        id,
		Title:     "Lunch " + id,
		Amount:    core.Cents(cents),
		Type:      core.Expense,
		Category:  "food",
		CreatedAt: time.Date(2026, 10, 14, 12, 30, 0, 0, time.UTC),
	}
}

func TestUpsertAppendsThenUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	c, grid := newTestClient(t)

	if err := c.Upsert(ctx, sampleTx("a", 1000)); err != nil {
		t.Fatalf("Upsert(a) error = %v", err)
	}
	if err := c.Upsert(ctx, sampleTx("b", 2000)); err != nil {
		t.Fatalf("Upsert(b) error = %v", err)
	}
	if got := grid.row(3); len(got) == 0 || got[0] != "b" {
		t.Fatalf("row 3 = %v, want b", got)
	}

	updated := sampleTx("a", 1500)
	updated.Title = "Dinner"
	if err := c.Upsert(ctx, updated); err != nil {
		t.Fatalf("Upsert(a) error = %v", err)
	}
	row := grid.row(2)
	if row[0] != "a" || row[2] != "Dinner" || row[5] != 15.0 {
		t.Errorf("row 2 = %v", row)
	}
	if grid.maxRow() != 3 {
		t.Errorf("expected no extra rows, max row = %d", grid.maxRow())
	}
}

func TestDeleteClearsRowAndReusesIt(t *testing.T) {
	ctx := context.Background()
	c, grid := newTestClient(t)
	_ = c.Upsert(ctx, sampleTx("a", 100))
	_ = c.Upsert(ctx, sampleTx("b", 200))
	_ = c.Upsert(ctx, sampleTx("c", 300))

	if err := c.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := grid.row(3); len(got) != 0 {
		t.Fatalf("row 3 should be cleared, got %v", got)
	}
	if err := c.Delete(ctx, "b"); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}

	_ = c.Upsert(ctx, sampleTx("d", 400))
	if got := grid.row(3); len(got) == 0 || got[0] != "d" {
		t.Errorf("new row should reuse the cleared slot, row 3 = %v", got)
	}
}

func TestReplaceWritesOldestFirst(t *testing.T) {
	ctx := context.Background()
	c, grid := newTestClient(t)
	_ = c.Upsert(ctx, sampleTx("stale", 100))

	snap := core.Snapshot{
		Transactions:  []core.Transaction{sampleTx("new", 200), sampleTx("old", 100)},
		MonthlyBudget: core.Cents(50000),
	}
	if err := c.Replace(ctx, snap); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if grid.row(2)[0] != "old" || grid.row(3)[0] != "new" {
		t.Errorf("rows = %v, %v", grid.row(2), grid.row(3))
	}
	budget := grid.cells["J1"]
	if len(budget) != 2 || budget[1] != 500.0 {
		t.Errorf("budget cells = %v", budget)
	}
}

func TestClearKeepsHeader(t *testing.T) {
	ctx := context.Background()
	c, grid := newTestClient(t)
	if err := c.EnsureHeader(ctx); err != nil {
		t.Fatal(err)
	}
	_ = c.Upsert(ctx, sampleTx("a", 100))

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if grid.row(1)[0] != "ID" {
		t.Errorf("header lost: %v", grid.row(1))
	}
	if len(grid.row(2)) != 0 {
		t.Errorf("data row survived: %v", grid.row(2))
	}
}

func TestUpsertReadError(t *testing.T) {
	c, grid := newTestClient(t)
	grid.failGet = errors.New("quota exceeded")

	err := c.Upsert(context.Background(), sampleTx("a", 100))
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("Upsert() error = %v", err)
	}
}

func TestRangesQuoteSheetName(t *testing.T) {
	c := newClient(nil, "Bob's ledger", log.Discard())
	if got := c.rng("A%d:A", 2); got != "'Bob''s ledger'!A2:A" {
		t.Errorf("rng = %q", got)
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), Options{}, nil); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "x"}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing credentials") {
		t.Fatalf("New() error = %v", err)
	}
}

const testOAuthClient = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret",` +
	`"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",` +
	`"redirect_uris":["http://localhost:8085/callback"]}}`

func TestCredentialsOption(t *testing.T) {
	ctx := context.Background()
	logger := log.Discard()

	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{
			name: "inline service account",
			opts: Options{CredentialsJSON: `{"type":"service_account"}`},
		},
		{
			name: "oauth client and token",
			opts: Options{OAuthClientJSON: testOAuthClient, OAuthTokenJSON: `{"access_token":"a","refresh_token":"r"}`},
		},
		{
			name:    "oauth client without token",
			opts:    Options{OAuthClientJSON: testOAuthClient},
			wantErr: "missing credentials",
		},
		{
			name:    "invalid oauth client",
			opts:    Options{OAuthClientJSON: "invalid-json", OAuthTokenJSON: `{"access_token":"a"}`},
			wantErr: "oauth config",
		},
		{
			name:    "invalid oauth token",
			opts:    Options{OAuthClientJSON: testOAuthClient, OAuthTokenJSON: "nope"},
			wantErr: "parse oauth token",
		},
		{
			name:    "missing service account file",
			opts:    Options{CredentialsFile: "/non/existent/sa.json"},
			wantErr: "read service account",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := credentialsOption(ctx, tt.opts, logger)
			if tt.wantErr == "" {
				if err != nil || opt == nil {
					t.Fatalf("credentialsOption() = %v, %v", opt, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("credentialsOption() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
