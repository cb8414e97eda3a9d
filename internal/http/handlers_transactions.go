package http

import (
	"net/http"
	"strconv"

	"pocketledger/internal/core"
	"pocketledger/internal/log"
	"pocketledger/internal/stats"

	"github.com/go-chi/chi/v5"
)

// handleListTransactions serves GET /api/transactions. Besides the query
// parameters read by ParseQuery, group=date|category groups the result.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	txs, err := s.ledger.Transactions(q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	reg, now := s.ledger.Registry(), s.now()

	switch r.URL.Query().Get("group") {
	case "":
		income, expenses := core.Fold(txs)
		writeJSON(w, http.StatusOK, listResponse{
			Transactions: newTransactionViews(txs, reg, now),
			Count:        len(txs),
			Net:          income.Sub(expenses),
		})
	case "date":
		groups := stats.GroupByDate(txs, now.Location())
		out := make([]dayGroupView, len(groups))
		for i, g := range groups {
			out[i] = dayGroupView{Label: g.Label, Transactions: newTransactionViews(g.Transactions, reg, now)}
		}
		writeJSON(w, http.StatusOK, map[string]any{"groups": out})
	case "category":
		groups := stats.GroupByCategory(txs)
		out := make([]categoryGroupView, len(groups))
		for i, g := range groups {
			out[i] = categoryGroupView{Category: reg.ByID(g.Category), Transactions: newTransactionViews(g.Transactions, reg, now)}
		}
		writeJSON(w, http.StatusOK, map[string]any{"groups": out})
	default:
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "group must be date or category")
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	tx, err := s.ledger.Add(r.Context(), in)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to add transaction", log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/api/transactions/"+tx.ID)
	writeJSON(w, http.StatusCreated, newTransactionView(tx, s.ledger.Registry(), s.now()))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	res := s.ledger.Get(chi.URLParam(r, "id"))
	if !res.Found {
		writeJSONError(w, http.StatusNotFound, "not_found", "Transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, newTransactionView(res.Transaction, s.ledger.Registry(), s.now()))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req patchTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := s.ledger.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to update transaction", log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	if !res.Found {
		writeJSONError(w, http.StatusNotFound, "not_found", "Transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, newTransactionView(res.Transaction, s.ledger.Registry(), s.now()))
}

// handleDeleteTransaction is idempotent: it answers 204 whether or not the
// id existed and reports which in X-Ledger-Found.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to remove transaction", log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	w.Header().Set("X-Ledger-Found", strconv.FormatBool(res.Found))
	w.WriteHeader(http.StatusNoContent)
}
