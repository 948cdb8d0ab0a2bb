package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/tilewm/internal/bus"
	"github.com/1broseidon/tilewm/internal/monitor"
	"github.com/1broseidon/tilewm/internal/platform"
)

// Source lists what currently exists on the X server.
type Source interface {
	ClientWindows() ([]platform.WindowID, error)
	Displays() ([]platform.Display, error)
}

// Submitter queues messages for the dispatcher.
type Submitter interface {
	Submit(msg bus.Message) bool
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically reports live windows to the reaper and display
// changes to the monitor reconciliator.
type Reconciler struct {
	interval time.Duration
	source   Source
	bus      Submitter
	logger   *slog.Logger

	displays []platform.Display
	seeded   bool
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, source Source, b Submitter) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval: interval,
		source:   source,
		bus:      b,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	r.reapWindows()
	r.watchDisplays()
}

func (r *Reconciler) reapWindows() {
	alive, err := r.source.ClientWindows()
	if err != nil {
		r.logger.Error("reconciler: failed to list windows", "error", err)
		return
	}
	r.bus.Submit(bus.ReaperControl{Alive: alive})
}

func (r *Reconciler) watchDisplays() {
	displays, err := r.source.Displays()
	if err != nil {
		r.logger.Error("reconciler: failed to list displays", "error", err)
		return
	}

	if !r.seeded {
		r.displays, r.seeded = displays, true
		return
	}

	note, changed := compareDisplays(r.displays, displays)
	r.displays = displays
	if !changed {
		return
	}
	r.logger.Info("reconciler: display change detected", "notification", note, "displays", len(displays))
	r.bus.Submit(bus.MonitorControl{Notification: note})
}

// compareDisplays classifies the difference between two display lists. A
// different set of outputs is a connection change; the same outputs with
// other geometry is a work area change.
func compareDisplays(prev, next []platform.Display) (monitor.Notification, bool) {
	if len(prev) != len(next) {
		return monitor.DisplayConnectionChange, true
	}
	geometry := false
	for i := range prev {
		if prev[i].ID != next[i].ID || prev[i].Name != next[i].Name {
			return monitor.DisplayConnectionChange, true
		}
		if prev[i] != next[i] {
			geometry = true
		}
	}
	if geometry {
		return monitor.WorkAreaChanged, true
	}
	return 0, false
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}
