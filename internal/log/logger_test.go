package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{Level: slog.LevelDebug, Component: component, Output: buf})
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, ComponentLedger)

	l.Info("transaction added", FieldTxID, "abc")
	out := buf.String()
	if !strings.Contains(out, "component=ledger") {
		t.Errorf("missing component in %q", out)
	}
	if !strings.Contains(out, "tx_id=abc") {
		t.Errorf("missing tx_id in %q", out)
	}

	buf.Reset()
	l.WithComponent(ComponentHTTP).With(FieldRequestID, "r1").Warn("slow")
	out = buf.String()
	if !strings.Contains(out, "component=http") || !strings.Contains(out, "request_id=r1") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithOperation(OpAdd).
		WithTransaction("id1", "expense", "food", 1250).
		WithError(errors.New("boom")).
		WithComponent(ComponentLedger)

	if f[FieldOperation] != OpAdd || f[FieldAmountCents] != int64(1250) || f[FieldError] != "boom" {
		t.Errorf("unexpected fields %v", f)
	}
	if got := len(f.ToSlice()); got != 2*(len(f)-1) {
		t.Errorf("ToSlice length = %d, want %d", got, 2*(len(f)-1))
	}
	if _, ok := NewFields().WithError(nil)[FieldError]; ok {
		t.Error("nil error should not add a field")
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Errorf("FromContext() = %+v", l)
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentHTTP)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Middleware(logger))
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()).Component() != ComponentHTTP {
			t.Error("request logger not in context")
		}
		http.Error(w, "nope", http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing?x=1", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "status_code=404", "path=/missing", "query=", "x=1", "request_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}
