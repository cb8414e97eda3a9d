package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"pocketledger/internal/core"
	"pocketledger/internal/log"
	ports "pocketledger/internal/sheets"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	firstDataRow = 2
	lastColumn   = "G"
	budgetRange  = "J1:K1"
)

// Options configures the mirror. Service account credentials win over an
// OAuth client and token pair; one of the two must be present.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string

	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenJSON  string
	OAuthTokenFile  string
}

// values is the slice of the Sheets values API the mirror needs.
type values interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Update(ctx context.Context, rng string, rows [][]any) error
	Clear(ctx context.Context, rng string) error
}

// Client mirrors ledger transactions into one sheet, one row per
// transaction keyed by the ID column.
type Client struct {
	vals   values
	sheet  string
	logger *log.Logger

	// Serializes read-modify-write row lookups.
	mu sync.Mutex
}

var _ ports.Mirror = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if opts.SheetName == "" {
		opts.SheetName = "Transactions"
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(&serviceValues{svc: svc, spreadsheetID: opts.SpreadsheetID}, opts.SheetName, logger), nil
}

func newClient(vals values, sheet string, logger *log.Logger) *Client {
	return &Client{vals: vals, sheet: sheet, logger: logger}
}

func newSheetsService(ctx context.Context, opts Options, logger *log.Logger) (*gsheet.Service, error) {
	clientOpt, err := credentialsOption(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	service, err := gsheet.NewService(ctx, clientOpt, goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func credentialsOption(ctx context.Context, opts Options, logger *log.Logger) (goption.ClientOption, error) {
	sa, err := readSecret(opts.CredentialsJSON, opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account: %w", err)
	}
	if sa != nil {
		logger.DebugContext(ctx, "Using service account credentials")
		return goption.WithCredentialsJSON(sa), nil
	}

	clientJSON, err := readSecret(opts.OAuthClientJSON, opts.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	tokenJSON, err := readSecret(opts.OAuthTokenJSON, opts.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	if clientJSON == nil || tokenJSON == nil {
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS, or an OAuth client and token)")
	}

	cfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}
	logger.DebugContext(ctx, "Using OAuth user credentials")
	return goption.WithTokenSource(cfg.TokenSource(ctx, &tok)), nil
}

// readSecret returns the inline value, else the file contents, else nil.
func readSecret(inline, file string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		return []byte(inline), nil
	}
	if strings.TrimSpace(file) != "" {
		return os.ReadFile(file)
	}
	return nil, nil
}

// EnsureHeader writes the column titles into row 1.
func (c *Client) EnsureHeader(ctx context.Context) error {
	header := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		header[i] = h
	}
	if err := c.vals.Update(ctx, c.rng("A1:%s1", lastColumn), [][]any{header}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

func (c *Client) Upsert(ctx context.Context, tx core.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row := rowFor(ids, tx.ID)
	rng := c.rng("A%d:%s%d", row, lastColumn, row)
	if err := c.vals.Update(ctx, rng, [][]any{ports.Row(tx)}); err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	c.logger.DebugContext(ctx, "Mirrored transaction", log.FieldTxID, tx.ID, "row", row)
	return nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(ids, id)
	if idx < 0 {
		c.logger.DebugContext(ctx, "Transaction not in sheet", log.FieldTxID, id)
		return nil
	}
	row := idx + firstDataRow
	rng := c.rng("A%d:%s%d", row, lastColumn, row)
	if err := c.vals.Clear(ctx, rng); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

func (c *Client) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearLocked(ctx)
}

func (c *Client) clearLocked(ctx context.Context) error {
	rng := c.rng("A%d:%s", firstDataRow, lastColumn)
	if err := c.vals.Clear(ctx, rng); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

func (c *Client) SetBudget(ctx context.Context, budget core.Money) error {
	rng := c.rng("%s", budgetRange)
	if err := c.vals.Update(ctx, rng, [][]any{{"Monthly budget", budget.Float()}}); err != nil {
		return fmt.Errorf("write budget: %w", err)
	}
	return nil
}

// Replace clears the data rows and writes the snapshot oldest first.
func (c *Client) Replace(ctx context.Context, snap core.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.clearLocked(ctx); err != nil {
		return err
	}
	if n := len(snap.Transactions); n > 0 {
		rows := make([][]any, 0, n)
		for i := n - 1; i >= 0; i-- {
			rows = append(rows, ports.Row(snap.Transactions[i]))
		}
		rng := c.rng("A%d:%s%d", firstDataRow, lastColumn, firstDataRow+n-1)
		if err := c.vals.Update(ctx, rng, rows); err != nil {
			return fmt.Errorf("write %s: %w", rng, err)
		}
	}
	c.logger.InfoContext(ctx, "Rebuilt sheet from snapshot", "rows", len(snap.Transactions))
	return c.SetBudget(ctx, snap.MonthlyBudget)
}

// readIDs returns column A from the first data row down. Cleared rows come
// back as empty strings.
func (c *Client) readIDs(ctx context.Context) ([]string, error) {
	rng := c.rng("A%d:A", firstDataRow)
	rows, err := c.vals.Get(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		if len(r) > 0 {
			ids[i] = strings.TrimSpace(fmt.Sprint(r[0]))
		}
	}
	return ids, nil
}

func (c *Client) rng(format string, args ...any) string {
	return quoteSheet(c.sheet) + "!" + fmt.Sprintf(format, args...)
}

// rowFor picks the sheet row for id: its existing row, else the first
// cleared row, else the row after the last one.
func rowFor(ids []string, id string) int {
	if idx := indexOf(ids, id); idx >= 0 {
		return idx + firstDataRow
	}
	for i, v := range ids {
		if v == "" {
			return i + firstDataRow
		}
	}
	return len(ids) + firstDataRow
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

type serviceValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *serviceValues) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceValues) Update(ctx context.Context, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

func (s *serviceValues) Clear(ctx context.Context, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}
