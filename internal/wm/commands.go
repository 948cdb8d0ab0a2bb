package wm

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/snapshot"
)

// TogglePause pauses or resumes event processing and returns the new state.
func (m *Manager) TogglePause() bool {
	m.paused = !m.paused
	m.logger.Info("pause toggled", "paused", m.paused)
	m.notifyAll(0)
	return m.paused
}

// ToggleTiling flips tiling on the focused workspace.
func (m *Manager) ToggleTiling() error {
	ws := m.focusedWorkspace()
	if ws == nil {
		return ErrNoMonitor
	}
	ws.tile = !ws.tile
	m.notifyAll(0)
	return nil
}

// ToggleMonocle moves the focused container into or out of monocle.
func (m *Manager) ToggleMonocle() error {
	ws := m.focusedWorkspace()
	if ws == nil {
		return ErrNoMonitor
	}

	if ws.monocle != nil {
		idx := ws.monocleIdx
		if idx > len(ws.containers) {
			idx = len(ws.containers)
		}
		ws.containers = append(ws.containers, nil)
		copy(ws.containers[idx+1:], ws.containers[idx:])
		ws.containers[idx] = ws.monocle
		ws.monocle = nil
		ws.focused = idx
		m.notifyAll(0)
		return nil
	}

	if ws.focused < 0 || ws.focused >= len(ws.containers) {
		return ErrNoContainer
	}
	ws.monocle = ws.containers[ws.focused]
	ws.monocleIdx = ws.focused
	ws.containers = append(ws.containers[:ws.focused], ws.containers[ws.focused+1:]...)
	if ws.focused >= len(ws.containers) && ws.focused > 0 {
		ws.focused = len(ws.containers) - 1
	}
	ws.layer = snapshot.LayerTiling
	m.notifyAll(0)
	return nil
}

// ToggleFloat floats the focused tiled window, or tiles the focused
// floating window.
func (m *Manager) ToggleFloat() error {
	ws := m.focusedWorkspace()
	if ws == nil {
		return ErrNoMonitor
	}

	if ws.layer == snapshot.LayerFloating && ws.focusedFloating != 0 {
		w := ws.focusedFloating
		if i := indexOf(ws.floating, w); i >= 0 {
			ws.floating = remove(ws.floating, i)
		}
		ws.containers = append(ws.containers, newContainer(w))
		ws.focused = len(ws.containers) - 1
		ws.focusedFloating = 0
		ws.layer = snapshot.LayerTiling
		m.notifyAll(w)
		return nil
	}

	if ws.focused < 0 || ws.focused >= len(ws.containers) {
		return ErrNoContainer
	}
	w := ws.containers[ws.focused].snapshot().FocusedWindow()
	if w == 0 {
		return ErrNoContainer
	}
	m.detach(w)
	ws.floating = append(ws.floating, w)
	ws.focusedFloating = w
	ws.layer = snapshot.LayerFloating
	m.notifyAll(w)
	return nil
}

// ToggleLock flips the lock flag on the focused container.
func (m *Manager) ToggleLock() error {
	ws := m.focusedWorkspace()
	if ws == nil {
		return ErrNoMonitor
	}
	if ws.focused < 0 || ws.focused >= len(ws.containers) {
		return ErrNoContainer
	}
	c := ws.containers[ws.focused]
	c.locked = !c.locked
	m.notifyAll(0)
	return nil
}

// FocusMonitor focuses a monitor and activates its focused window.
func (m *Manager) FocusMonitor(idx int) error {
	if idx < 0 || idx >= len(m.monitors) {
		return fmt.Errorf("monitor %d: %w", idx, ErrNoMonitor)
	}
	m.focusedMonitor = idx
	if w := m.monitors[idx].focusedWorkspace().focusedWindow(); w != 0 {
		if err := m.platform.Focus(w); err != nil {
			m.logger.Warn("failed to focus window", "window", w, "error", err)
		}
	}
	m.notifyAll(0)
	return nil
}

// FocusWorkspace switches the focused monitor to another workspace, hiding
// the windows of the old one and showing the windows of the new one. The
// show and hide requests are carried out by the notifier.
func (m *Manager) FocusWorkspace(idx int) error {
	mon := m.focusedMonitorPtr()
	if mon == nil {
		return ErrNoMonitor
	}
	if idx < 0 || idx >= len(mon.workspaces) {
		return fmt.Errorf("workspace %d out of range", idx)
	}
	if idx == mon.focused {
		return nil
	}

	for _, w := range mon.workspaces[mon.focused].windows() {
		m.hidden[w] = true
		m.notifier.NotifyWindow(WindowHide, w)
	}
	mon.focused = idx
	next := mon.workspaces[idx]
	for _, w := range next.windows() {
		if !m.hidden[w] {
			continue
		}
		delete(m.hidden, w)
		m.notifier.NotifyWindow(WindowShow, w)
	}
	var err error
	if w := next.focusedWindow(); w != 0 {
		err = m.platform.Focus(w)
	}
	m.notifyAll(0)
	return err
}

func (ws *workspace) windows() []platform.WindowID {
	var out []platform.WindowID
	if ws.monocle != nil {
		out = append(out, ws.monocle.windows...)
	}
	for _, c := range ws.containers {
		out = append(out, c.windows...)
	}
	return append(out, ws.floating...)
}

func (ws *workspace) focusedWindow() platform.WindowID {
	if ws == nil {
		return 0
	}
	switch {
	case ws.layer == snapshot.LayerFloating && ws.focusedFloating != 0:
		return ws.focusedFloating
	case ws.monocle != nil:
		return ws.monocle.snapshot().FocusedWindow()
	case ws.focused >= 0 && ws.focused < len(ws.containers):
		return ws.containers[ws.focused].snapshot().FocusedWindow()
	}
	return 0
}
