package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"pocketledger/internal/core"
	"pocketledger/internal/stats"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

var errBadBody = errors.New("malformed request body")

// amountField accepts a JSON number or a string such as "12,50".
type amountField struct {
	raw string
}

func (a *amountField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.raw = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return core.ErrInvalidAmount
	}
	a.raw = n.String()
	return nil
}

func (a amountField) Money() (core.Money, error) {
	return core.ParseAmount(a.raw)
}

type createTransactionRequest struct {
	Title       string      `json:"title"`
	Amount      amountField `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
}

func (req createTransactionRequest) toInput() (core.TransactionInput, error) {
	amount, err := req.Amount.Money()
	if err != nil {
		return core.TransactionInput{}, err
	}
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.TransactionInput{}, err
	}
	in := core.TransactionInput{
		Title:       sanitizeInput(req.Title),
		Amount:      amount,
		Type:        typ,
		Category:    strings.ToLower(sanitizeInput(req.Category)),
		Description: sanitizeInput(req.Description),
	}
	return in, in.Validate()
}

type patchTransactionRequest struct {
	Title       *string      `json:"title"`
	Amount      *amountField `json:"amount"`
	Type        *string      `json:"type"`
	Category    *string      `json:"category"`
	Description *string      `json:"description"`
}

func (req patchTransactionRequest) toPatch() (core.TransactionPatch, error) {
	var p core.TransactionPatch
	if req.Title != nil {
		v := sanitizeInput(*req.Title)
		p.Title = &v
	}
	if req.Amount != nil {
		m, err := req.Amount.Money()
		if err != nil {
			return p, err
		}
		p.Amount = &m
	}
	if req.Type != nil {
		t, err := core.ParseTransactionType(*req.Type)
		if err != nil {
			return p, err
		}
		p.Type = &t
	}
	if req.Category != nil {
		v := strings.ToLower(sanitizeInput(*req.Category))
		p.Category = &v
	}
	if req.Description != nil {
		v := sanitizeInput(*req.Description)
		p.Description = &v
	}
	return p, p.Validate()
}

// budgetRequest allows zero, which clears the budget.
type budgetRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

func (req budgetRequest) money() (core.Money, error) {
	if req.Amount == nil {
		return core.Money{}, core.ErrInvalidAmount
	}
	m := core.MoneyFromDecimal(*req.Amount)
	if m.IsNegative() {
		return core.Money{}, core.ErrInvalidAmount
	}
	return m, nil
}

type restoreRequest struct {
	Name string `json:"name"`
}

// decodeJSON reads at most maxBodyBytes and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data", errBadBody)
	}
	return nil
}

// ParseQuery builds a stats.Query from list query parameters:
// category, type, range, search, sort and order.
func ParseQuery(values url.Values) (stats.Query, error) {
	q := stats.Query{
		Category: strings.ToLower(strings.TrimSpace(values.Get("category"))),
		Search:   sanitizeInput(values.Get("search")),
		SortBy:   stats.SortField(strings.ToLower(strings.TrimSpace(values.Get("sort")))),
		Order:    stats.SortOrder(strings.ToLower(strings.TrimSpace(values.Get("order")))),
	}
	if v := strings.TrimSpace(values.Get("type")); v != "" && v != "all" {
		t, err := core.ParseTransactionType(v)
		if err != nil {
			return q, fmt.Errorf("%w: type %q", stats.ErrInvalidQuery, v)
		}
		q.Type = t
	}
	if v := strings.TrimSpace(values.Get("range")); v != "" {
		w, err := stats.ParseWindow(v)
		if err != nil {
			return q, fmt.Errorf("%w: %v", stats.ErrInvalidQuery, err)
		}
		q.Range = w
	}
	return q, q.Validate()
}

// sanitizeInput removes control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
