package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"pocketledger/internal/log"
)

// ReconcilerConfig holds configuration for the periodic reconciler
type ReconcilerConfig struct {
	// Interval is how often the mirror is rebuilt from the store (default: 15m)
	Interval time.Duration
}

// DefaultReconcilerConfig returns sensible defaults
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{Interval: 15 * time.Minute}
}

// Reconciler periodically runs SyncWorker.Reconcile so the mirror converges
// even when events were lost.
type Reconciler struct {
	worker *SyncWorker
	config ReconcilerConfig
	logger *log.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReconciler(worker *SyncWorker, config ReconcilerConfig) *Reconciler {
	if config.Interval <= 0 {
		config.Interval = DefaultReconcilerConfig().Interval
	}
	return &Reconciler{worker: worker, config: config, logger: worker.logger}
}

// Start begins the reconcile loop. Returns an error if already running.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("reconciler is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	r.logger.InfoContext(ctx, "Reconciler started", "interval", r.config.Interval)
	return nil
}

// Stop gracefully stops the reconciler and waits for the running pass.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	close(r.stopCh)

	select {
	case <-r.doneCh:
		r.logger.InfoContext(ctx, "Reconciler stopped gracefully")
	case <-ctx.Done():
		r.logger.WarnContext(ctx, "Reconciler stop timed out")
		return ctx.Err()
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	return nil
}

func (r *Reconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Reconciler) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	// Reconcile immediately on startup
	r.reconcile(ctx)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context) {
	if err := r.worker.Reconcile(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Reconcile failed", log.FieldError, err)
	}
}
