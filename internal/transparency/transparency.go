// Package transparency dims unfocused managed windows through the
// compositor opacity hint.
package transparency

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/snapshot"
)

// Opaque is the alpha of an untouched window.
const Opaque uint8 = 255

// Platform is the window-system access the manager needs.
type Platform interface {
	ActiveWindow() (platform.WindowID, error)
	IsMaximized(windowID platform.WindowID) bool
	SetOpacity(windowID platform.WindowID, alpha uint8) error
}

// Manager tracks which windows it made transparent and at what alpha.
type Manager struct {
	platform Platform
	logger   *slog.Logger
	enabled  bool
	alpha    uint8
	applied  map[platform.WindowID]uint8
}

// New creates a manager. It does nothing until Update is called.
func New(p Platform, enabled bool, alpha uint8, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		platform: p,
		logger:   logger,
		enabled:  enabled,
		alpha:    alpha,
		applied:  make(map[platform.WindowID]uint8),
	}
}

// Enabled reports whether unfocused windows are dimmed.
func (m *Manager) Enabled() bool { return m.enabled }

// Alpha returns the alpha applied to unfocused windows.
func (m *Manager) Alpha() uint8 { return m.alpha }

// SetEnabled toggles dimming. Disabling restores every window.
func (m *Manager) SetEnabled(enabled bool) error {
	m.enabled = enabled
	if !enabled {
		return m.Restore()
	}
	return nil
}

// SetAlpha changes the alpha used by the next Update.
func (m *Manager) SetAlpha(alpha uint8) {
	m.alpha = alpha
}

// Transparent returns the windows currently dimmed.
func (m *Manager) Transparent() []platform.WindowID {
	return sortedKeys(m.applied)
}

// Update dims every window of a focused workspace except the foreground
// window, a monocle window on the focused monitor, and a maximized
// foreground's monitor. Windows that no longer qualify are restored.
func (m *Manager) Update(s snapshot.Snapshot) error {
	if !m.enabled || s.Paused {
		return m.Restore()
	}

	foreground, _ := m.platform.ActiveWindow()
	want := m.desired(s, foreground)

	var errs []error
	for _, w := range sortedKeys(m.applied) {
		if want[w] {
			continue
		}
		if err := m.platform.SetOpacity(w, Opaque); err != nil {
			m.logger.Debug("failed to restore opacity", "window", w, "error", err)
		}
		delete(m.applied, w)
	}
	for _, w := range sortedKeys(want) {
		if a, ok := m.applied[w]; ok && a == m.alpha {
			continue
		}
		if err := m.platform.SetOpacity(w, m.alpha); err != nil {
			errs = append(errs, fmt.Errorf("window %d: %w", w, err))
			continue
		}
		m.applied[w] = m.alpha
	}
	return errors.Join(errs...)
}

func (m *Manager) desired(s snapshot.Snapshot, foreground platform.WindowID) map[platform.WindowID]bool {
	want := make(map[platform.WindowID]bool)
	maximized := foreground != 0 && m.platform.IsMaximized(foreground)

	for i := range s.Monitors {
		ws := s.Monitors[i].FocusedWorkspace()
		if ws == nil {
			continue
		}
		windows := workspaceWindows(ws)
		if maximized && contains(windows, foreground) {
			continue
		}
		focusedMonitor := i == s.FocusedMonitorIdx
		for _, w := range windows {
			if w == foreground {
				continue
			}
			if focusedMonitor && ws.Monocle != nil && ws.Monocle.FocusedWindow() == w {
				continue
			}
			want[w] = true
		}
	}
	return want
}

// Restore makes every dimmed window opaque again.
func (m *Manager) Restore() error {
	var errs []error
	for _, w := range sortedKeys(m.applied) {
		if err := m.platform.SetOpacity(w, Opaque); err != nil {
			errs = append(errs, fmt.Errorf("window %d: %w", w, err))
		}
		delete(m.applied, w)
	}
	return errors.Join(errs...)
}

func workspaceWindows(ws *snapshot.Workspace) []platform.WindowID {
	var out []platform.WindowID
	if ws.Monocle != nil {
		out = append(out, ws.Monocle.Windows...)
	}
	for _, c := range ws.Containers {
		out = append(out, c.Windows...)
	}
	return append(out, ws.FloatingWindows...)
}

func contains(windows []platform.WindowID, w platform.WindowID) bool {
	for _, x := range windows {
		if x == w {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[platform.WindowID]V) []platform.WindowID {
	out := make([]platform.WindowID, 0, len(m))
	for w := range m {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
