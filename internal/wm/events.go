package wm

import (
	"github.com/1broseidon/tilewm/internal/border"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/snapshot"
)

// ProcessEvent applies one window-system event. Events are ignored while
// paused.
func (m *Manager) ProcessEvent(ev platform.Event) error {
	if m.paused {
		m.logger.Debug("ignoring event while paused", "event", ev.Kind, "window", ev.Window)
		return nil
	}
	w := ev.Window

	switch ev.Kind {
	case platform.EventManage:
		if !m.known[w] {
			m.manage(w)
		}
	case platform.EventShow:
		if !m.known[w] {
			m.manage(w)
			break
		}
		delete(m.hidden, w)
		m.notifier.NotifyBorders(border.Show{Window: w})
	case platform.EventUnmanage, platform.EventDestroy:
		m.unmanage(w)
	case platform.EventFocusChange:
		if !m.known[w] {
			if !m.ShouldManage(w) {
				return nil
			}
			m.manage(w)
		}
		m.focus(w)
	case platform.EventHide, platform.EventMinimize:
		m.notifier.NotifyBorders(border.Hide{Window: w})
	case platform.EventMoveResizeStart:
		if loc, ok := m.locate(w); ok {
			m.pendingMove = &snapshot.PendingMove{
				MonitorIdx:   loc.monitor,
				WorkspaceIdx: loc.workspace,
				Window:       w,
			}
		}
	case platform.EventMoveResizeEnd:
		m.pendingMove = nil
	case platform.EventRaise:
		m.notifier.NotifyBorders(border.Raise{Window: w})
	case platform.EventTitleUpdate:
		m.logger.Debug("title updated", "window", w)
		return nil
	case platform.EventLocationChange:
		return nil
	}

	m.notifyAll(w)
	return nil
}

func (m *Manager) manage(w platform.WindowID) {
	if len(m.monitors) == 0 {
		return
	}
	info, err := m.platform.Describe(w)
	if err != nil {
		m.logger.Debug("cannot describe window, not managing", "window", w, "error", err)
		return
	}

	mon := m.focusedMonitorPtr()
	if display, err := m.platform.DisplayForWindow(w); err == nil {
		for _, candidate := range m.monitors {
			if candidate.id == display {
				mon = candidate
				break
			}
		}
	}
	ws := mon.focusedWorkspace()
	if ws == nil {
		return
	}

	if matchClass(m.rules.Float, info.AppID) {
		ws.floating = append(ws.floating, w)
	} else {
		idx := len(ws.containers)
		if len(ws.containers) > 0 {
			idx = ws.focused + 1
		}
		ws.containers = append(ws.containers, nil)
		copy(ws.containers[idx+1:], ws.containers[idx:])
		ws.containers[idx] = newContainer(w)
		ws.focused = idx
	}
	m.known[w] = true
	m.logger.Info("managing window", "window", w, "class", info.AppID, "monitor", mon.name, "workspace", ws.name)
}

func (m *Manager) unmanage(w platform.WindowID) {
	if !m.known[w] {
		return
	}
	m.detach(w)
	delete(m.known, w)
	delete(m.hidden, w)
	if m.pendingMove != nil && m.pendingMove.Window == w {
		m.pendingMove = nil
	}
	m.notifier.NotifyBorders(border.Delete{Window: w})
	m.logger.Info("unmanaged window", "window", w)
}

// detach removes the window from wherever it lives, dropping containers
// that become empty.
func (m *Manager) detach(w platform.WindowID) {
	loc, ok := m.locate(w)
	if !ok {
		return
	}
	ws := m.monitors[loc.monitor].workspaces[loc.workspace]
	switch {
	case loc.monocle:
		c := ws.monocle
		c.windows = remove(c.windows, indexOf(c.windows, w))
		if len(c.windows) == 0 {
			ws.monocle = nil
		} else if c.focused >= len(c.windows) {
			c.focused = len(c.windows) - 1
		}
	case loc.floating:
		ws.floating = remove(ws.floating, indexOf(ws.floating, w))
		if ws.focusedFloating == w {
			ws.focusedFloating = 0
			ws.layer = snapshot.LayerTiling
		}
	default:
		c := ws.containers[loc.container]
		c.windows = remove(c.windows, indexOf(c.windows, w))
		if len(c.windows) > 0 {
			if c.focused >= len(c.windows) {
				c.focused = len(c.windows) - 1
			}
			return
		}
		ws.containers = append(ws.containers[:loc.container], ws.containers[loc.container+1:]...)
		if ws.focused >= len(ws.containers) && ws.focused > 0 {
			ws.focused = len(ws.containers) - 1
		}
	}
}

func (m *Manager) focus(w platform.WindowID) {
	loc, ok := m.locate(w)
	if !ok {
		return
	}
	m.focusedMonitor = loc.monitor
	ws := m.monitors[loc.monitor].workspaces[loc.workspace]
	switch {
	case loc.floating:
		ws.focusedFloating = w
		ws.layer = snapshot.LayerFloating
	case loc.monocle:
		ws.monocle.focused = indexOf(ws.monocle.windows, w)
		ws.layer = snapshot.LayerTiling
	default:
		ws.focused = loc.container
		c := ws.containers[loc.container]
		c.focused = indexOf(c.windows, w)
		ws.layer = snapshot.LayerTiling
	}
}
