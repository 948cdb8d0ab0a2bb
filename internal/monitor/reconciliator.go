// Package monitor keeps the window manager's monitor list in step with the
// connected displays.
package monitor

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/tilewm/internal/border"
	"github.com/1broseidon/tilewm/internal/platform"
)

// Notification is a display change reported by the display watcher.
type Notification int

const (
	DisplayConnectionChange Notification = iota
	WorkAreaChanged
)

func (n Notification) String() string {
	switch n {
	case DisplayConnectionChange:
		return "DisplayConnectionChange"
	case WorkAreaChanged:
		return "WorkAreaChanged"
	}
	return fmt.Sprintf("Notification(%d)", int(n))
}

// DisplaySource lists the connected displays.
type DisplaySource interface {
	Displays() ([]platform.Display, error)
}

// State is the window manager side of a display change.
type State interface {
	SyncDisplays(displays []platform.Display) bool
}

// BorderNotifier receives the border update that follows a change.
type BorderNotifier interface {
	NotifyBorders(msg border.Message)
}

// Reconciliator applies display notifications.
type Reconciliator struct {
	source   DisplaySource
	state    State
	notifier BorderNotifier
	logger   *slog.Logger
}

// NewReconciliator wires a reconciliator.
func NewReconciliator(source DisplaySource, state State, notifier BorderNotifier, logger *slog.Logger) *Reconciliator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciliator{source: source, state: state, notifier: notifier, logger: logger}
}

// Handle re-reads the displays and syncs the window manager. Work area
// changes always repaint borders since geometry moved even when the
// monitor list did not.
func (r *Reconciliator) Handle(n Notification) error {
	displays, err := r.source.Displays()
	if err != nil {
		return fmt.Errorf("%s: read displays: %w", n, err)
	}
	if len(displays) == 0 {
		r.logger.Warn("no displays reported, keeping monitor state", "notification", n)
		return nil
	}

	changed := r.state.SyncDisplays(displays)
	r.logger.Info("displays reconciled", "notification", n, "displays", len(displays), "changed", changed)
	if changed || n == WorkAreaChanged {
		r.notifier.NotifyBorders(border.ForceUpdate{})
	}
	return nil
}
