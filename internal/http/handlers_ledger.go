package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"pocketledger/internal/backup"
	"pocketledger/internal/category"
	"pocketledger/internal/core"
	"pocketledger/internal/export"
	"pocketledger/internal/log"
)

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newTotalsView(s.ledger.Totals()))
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	amount, err := req.money()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := s.ledger.SetMonthlyBudget(r.Context(), amount); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to set budget", log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTotalsView(s.ledger.Totals()))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.ClearAll(r.Context()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to clear ledger", log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTotalsView(s.ledger.Totals()))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Report())
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.ledger.Registry().All()})
}

type exportFunc func(w io.Writer, txs []core.Transaction, reg *category.Registry) error

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "csv", export.ContentTypeCSV, export.WriteCSV)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "xlsx", export.ContentTypeXLSX, export.WriteXLSX)
}

// export renders into a buffer first so a failed export still gets a JSON
// error instead of a truncated file.
func (s *Server) export(w http.ResponseWriter, r *http.Request, ext, contentType string, write exportFunc) {
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

	var buf bytes.Buffer
	if err := write(&buf, txs, s.ledger.Registry()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Export failed",
			log.FieldOperation, log.OpExport, log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(s.now(), ext)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	if s.backup == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "backup_unavailable", "Backup is not configured")
		return
	}
	name, err := s.backup.Upload(r.Context(), s.ledger.Snapshot())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Backup failed",
			log.FieldOperation, log.OpBackup, log.FieldError, err)
		writeJSONError(w, http.StatusBadGateway, "backup_failed", "Backup upload failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"name": name, "version": s.ledger.Version()})
}

// handleRestore replaces the ledger with a backed-up snapshot. An empty
// name restores the latest backup.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if s.backup == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "backup_unavailable", "Backup is not configured")
		return
	}
	var req restoreRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	snap, err := s.backup.Download(r.Context(), req.Name)
	if errors.Is(err, backup.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "not_found", "Backup not found")
		return
	}
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Backup download failed",
			log.FieldOperation, log.OpBackup, log.FieldError, err)
		writeJSONError(w, http.StatusBadGateway, "backup_failed", "Backup download failed")
		return
	}
	if err := s.ledger.Restore(r.Context(), snap); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Restore failed", log.FieldError, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totals":       newTotalsView(s.ledger.Totals()),
		"transactions": len(s.ledger.Snapshot().Transactions),
	})
}
