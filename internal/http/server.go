// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"pocketledger/internal/category"
	"pocketledger/internal/core"
	"pocketledger/internal/ledger"
	"pocketledger/internal/log"
	"pocketledger/internal/middleware/ratelimit"
	"pocketledger/internal/middleware/security"
	"pocketledger/internal/stats"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// LedgerAPI is what the handlers need from the ledger service.
type LedgerAPI interface {
	Add(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	Remove(ctx context.Context, id string) (ledger.Result, error)
	Update(ctx context.Context, id string, patch core.TransactionPatch) (ledger.Result, error)
	SetMonthlyBudget(ctx context.Context, budget core.Money) error
	ClearAll(ctx context.Context) error
	Restore(ctx context.Context, snap core.Snapshot) error

	Get(id string) ledger.Result
	Transactions(q stats.Query) ([]core.Transaction, error)
	Totals() core.Totals
	Snapshot() core.Snapshot
	Version() uint64
	Registry() *category.Registry
	WeekStart() core.WeekStart
	Report() stats.Report
}

// Backup stores and fetches snapshot copies off-host.
type Backup interface {
	Upload(ctx context.Context, snap core.Snapshot) (string, error)
	Download(ctx context.Context, name string) (core.Snapshot, error)
}

// Options configures optional server collaborators.
type Options struct {
	Logger    *log.Logger
	Backup    Backup
	RateLimit ratelimit.Config
	Clock     func() time.Time
}

type Server struct {
	http.Server
	ledger  LedgerAPI
	backup  Backup
	limiter *ratelimit.Limiter
	logger  *log.Logger
	now     func() time.Time
}

func NewServer(addr string, api LedgerAPI, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		ledger:  api,
		backup:  opts.Backup,
		limiter: ratelimit.NewLimiter(opts.RateLimit),
		logger:  logger,
		now:     opts.Clock,
	}
	detector := security.NewDetector()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(detector.Middleware(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusBadRequest, "bad_request", "Request rejected")
	}))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			writeJSONError(w, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again later.")
		}))

		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)
		r.Get("/transactions/{id}", s.handleGetTransaction)
		r.Patch("/transactions/{id}", s.handleUpdateTransaction)
		r.Delete("/transactions/{id}", s.handleDeleteTransaction)

		r.Get("/totals", s.handleTotals)
		r.Put("/budget", s.handleSetBudget)
		r.Post("/clear", s.handleClear)
		r.Get("/stats", s.handleStats)
		r.Get("/categories", s.handleCategories)
		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export.xlsx", s.handleExportXLSX)

		r.Post("/backup", s.handleBackup)
		r.Post("/restore", s.handleRestore)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ready",
		"version":      s.ledger.Version(),
		"transactions": len(s.ledger.Snapshot().Transactions),
	})
}
