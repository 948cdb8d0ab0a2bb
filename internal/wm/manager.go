// Package wm owns monitor, workspace, and container state and publishes
// snapshots of it. Layout geometry is left to the host window manager.
package wm

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/1broseidon/tilewm/internal/border"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/snapshot"
	"github.com/google/uuid"
)

var (
	// ErrNoContainer is returned by commands that need a focused container.
	ErrNoContainer = errors.New("no focused container")
	// ErrNoMonitor is returned when there is no monitor to operate on.
	ErrNoMonitor = errors.New("no monitor")
)

// Platform is the window-system access the manager needs.
type Platform interface {
	Manageable(windowID platform.WindowID) bool
	Describe(windowID platform.WindowID) (platform.Window, error)
	DisplayForWindow(windowID platform.WindowID) (int, error)
	Show(windowID platform.WindowID) error
	Focus(windowID platform.WindowID) error
}

// WindowAction is a visibility or stacking change applied to a managed
// window together with its border.
type WindowAction int

const (
	WindowShow WindowAction = iota
	WindowHide
	WindowRaise
	WindowLower
)

func (a WindowAction) String() string {
	switch a {
	case WindowShow:
		return "show"
	case WindowHide:
		return "hide"
	case WindowRaise:
		return "raise"
	case WindowLower:
		return "lower"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Notifier receives requests for downstream consumers of state changes.
type Notifier interface {
	NotifyBorders(msg border.Message)
	NotifyTransparency()
	NotifyWindow(action WindowAction, w platform.WindowID)
}

// Rules match windows by WM_CLASS class, case-insensitively.
type Rules struct {
	Ignore []string
	Float  []string
}

func matchClass(patterns []string, class string) bool {
	for _, p := range patterns {
		if strings.EqualFold(p, class) {
			return true
		}
	}
	return false
}

// Options configures a Manager.
type Options struct {
	Workspaces []string
	Rules      Rules
	Logger     *slog.Logger
}

type container struct {
	id      string
	windows []platform.WindowID
	focused int
	locked  bool
}

func newContainer(w platform.WindowID) *container {
	return &container{id: uuid.NewString(), windows: []platform.WindowID{w}}
}

type workspace struct {
	name            string
	tile            bool
	containers      []*container
	focused         int
	monocle         *container
	monocleIdx      int
	floating        []platform.WindowID
	focusedFloating platform.WindowID
	layer           snapshot.Layer
}

type monitor struct {
	id         int
	name       string
	workspaces []*workspace
	focused    int
}

func (m *monitor) focusedWorkspace() *workspace {
	if m.focused < 0 || m.focused >= len(m.workspaces) {
		return nil
	}
	return m.workspaces[m.focused]
}

// Manager is the authoritative window manager state. It is driven from the
// dispatcher goroutine only.
type Manager struct {
	platform       Platform
	notifier       Notifier
	rules          Rules
	logger         *slog.Logger
	workspaceNames []string

	paused         bool
	monitors       []*monitor
	focusedMonitor int
	pendingMove    *snapshot.PendingMove
	known          map[platform.WindowID]bool
	hidden         map[platform.WindowID]bool
	cache          map[string][]*workspace
}

// New creates a manager with no monitors. Call SyncDisplays before use.
func New(p Platform, n Notifier, opts Options) *Manager {
	names := opts.Workspaces
	if len(names) == 0 {
		names = []string{"1", "2", "3"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		platform:       p,
		notifier:       n,
		rules:          opts.Rules,
		logger:         logger,
		workspaceNames: names,
		known:          make(map[platform.WindowID]bool),
		hidden:         make(map[platform.WindowID]bool),
		cache:          make(map[string][]*workspace),
	}
}

func (m *Manager) newWorkspaces() []*workspace {
	out := make([]*workspace, len(m.workspaceNames))
	for i, name := range m.workspaceNames {
		out[i] = &workspace{name: name, tile: true}
	}
	return out
}

// SyncDisplays reconciles the monitor list with the connected displays.
// Containers of a disconnected monitor move to the first remaining monitor;
// its workspace settings are cached by name and restored on reconnect.
// It reports whether the monitor list changed.
func (m *Manager) SyncDisplays(displays []platform.Display) bool {
	existing := make(map[string]*monitor, len(m.monitors))
	for _, mon := range m.monitors {
		existing[mon.name] = mon
	}

	changed := len(displays) != len(m.monitors)
	next := make([]*monitor, 0, len(displays))
	seen := make(map[string]bool, len(displays))
	for i, d := range displays {
		seen[d.Name] = true
		if mon, ok := existing[d.Name]; ok {
			if i >= len(m.monitors) || m.monitors[i] != mon || mon.id != d.ID {
				changed = true
			}
			mon.id = d.ID
			next = append(next, mon)
			continue
		}
		changed = true
		mon := &monitor{id: d.ID, name: d.Name, workspaces: m.newWorkspaces()}
		if cached, ok := m.cache[d.Name]; ok {
			for i, ws := range cached {
				if i < len(mon.workspaces) {
					mon.workspaces[i].tile = ws.tile
				}
			}
			delete(m.cache, d.Name)
			m.logger.Info("restored cached monitor", "name", d.Name)
		}
		next = append(next, mon)
	}

	var orphaned []*monitor
	for _, mon := range m.monitors {
		if !seen[mon.name] {
			orphaned = append(orphaned, mon)
		}
	}

	m.monitors = next
	if m.focusedMonitor >= len(m.monitors) {
		m.focusedMonitor = 0
	}

	for _, mon := range orphaned {
		m.cache[mon.name] = mon.workspaces
		m.logger.Info("cached disconnected monitor", "name", mon.name)
		if len(m.monitors) == 0 {
			continue
		}
		target := m.monitors[0].focusedWorkspace()
		for _, ws := range mon.workspaces {
			if ws.monocle != nil {
				target.containers = append(target.containers, ws.monocle)
			}
			target.containers = append(target.containers, ws.containers...)
			target.floating = append(target.floating, ws.floating...)
			ws.containers, ws.monocle, ws.floating = nil, nil, nil
		}
	}

	if changed {
		m.notifyAll(0)
	}
	return changed
}

// Known reports whether the window is managed.
func (m *Manager) Known(w platform.WindowID) bool {
	return m.known[w]
}

// ShouldManage reports whether an unknown window should become managed.
func (m *Manager) ShouldManage(w platform.WindowID) bool {
	if m.known[w] {
		return true
	}
	if w == 0 || !m.platform.Manageable(w) {
		return false
	}
	info, err := m.platform.Describe(w)
	if err != nil {
		return false
	}
	return !matchClass(m.rules.Ignore, info.AppID)
}

// Paused reports whether event processing is paused.
func (m *Manager) Paused() bool {
	return m.paused
}

// KnownWindows returns every managed window in ascending order.
func (m *Manager) KnownWindows() []platform.WindowID {
	out := make([]platform.WindowID, 0, len(m.known))
	for w := range m.known {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot returns a deep copy of the current state.
func (m *Manager) Snapshot() snapshot.Snapshot {
	s := snapshot.Snapshot{
		Paused:            m.paused,
		FocusedMonitorIdx: m.focusedMonitor,
		Monitors:          make([]snapshot.Monitor, 0, len(m.monitors)),
	}
	if m.pendingMove != nil {
		pm := *m.pendingMove
		s.PendingMove = &pm
	}
	for _, mon := range m.monitors {
		sm := snapshot.Monitor{
			ID:                  mon.id,
			Name:                mon.name,
			FocusedWorkspaceIdx: mon.focused,
			Workspaces:          make([]snapshot.Workspace, 0, len(mon.workspaces)),
		}
		for _, ws := range mon.workspaces {
			sm.Workspaces = append(sm.Workspaces, ws.snapshot())
		}
		s.Monitors = append(s.Monitors, sm)
	}
	if ws := m.focusedWorkspace(); ws != nil {
		s.FloatingWindows = cloneWindows(ws.floating)
		s.Layer = ws.layer
	}
	return s
}

func (ws *workspace) snapshot() snapshot.Workspace {
	out := snapshot.Workspace{
		Name:                ws.name,
		Tile:                ws.tile,
		FocusedContainerIdx: ws.focused,
		FloatingWindows:     cloneWindows(ws.floating),
		Layer:               ws.layer,
		Containers:          make([]snapshot.Container, 0, len(ws.containers)),
	}
	for _, c := range ws.containers {
		out.Containers = append(out.Containers, c.snapshot())
	}
	if ws.monocle != nil {
		mc := ws.monocle.snapshot()
		out.Monocle = &mc
	}
	return out
}

func (c *container) snapshot() snapshot.Container {
	return snapshot.Container{
		ID:         c.id,
		Windows:    cloneWindows(c.windows),
		FocusedIdx: c.focused,
		Locked:     c.locked,
	}
}

func cloneWindows(in []platform.WindowID) []platform.WindowID {
	if len(in) == 0 {
		return nil
	}
	out := make([]platform.WindowID, len(in))
	copy(out, in)
	return out
}

func (m *Manager) focusedMonitorPtr() *monitor {
	if m.focusedMonitor < 0 || m.focusedMonitor >= len(m.monitors) {
		return nil
	}
	return m.monitors[m.focusedMonitor]
}

func (m *Manager) focusedWorkspace() *workspace {
	mon := m.focusedMonitorPtr()
	if mon == nil {
		return nil
	}
	return mon.focusedWorkspace()
}

// location says where a window lives.
type location struct {
	monitor   int
	workspace int
	container int // -1 for monocle or floating
	monocle   bool
	floating  bool
}

func (m *Manager) locate(w platform.WindowID) (location, bool) {
	for mi, mon := range m.monitors {
		for wi, ws := range mon.workspaces {
			if ws.monocle != nil && indexOf(ws.monocle.windows, w) >= 0 {
				return location{monitor: mi, workspace: wi, container: -1, monocle: true}, true
			}
			for ci, c := range ws.containers {
				if indexOf(c.windows, w) >= 0 {
					return location{monitor: mi, workspace: wi, container: ci}, true
				}
			}
			if indexOf(ws.floating, w) >= 0 {
				return location{monitor: mi, workspace: wi, container: -1, floating: true}, true
			}
		}
	}
	return location{}, false
}

func indexOf(windows []platform.WindowID, w platform.WindowID) int {
	for i, x := range windows {
		if x == w {
			return i
		}
	}
	return -1
}

func remove(windows []platform.WindowID, i int) []platform.WindowID {
	return append(windows[:i], windows[i+1:]...)
}

func (m *Manager) notifyAll(hint platform.WindowID) {
	m.notifier.NotifyBorders(border.Update{Hint: hint})
	m.notifier.NotifyTransparency()
}

// Reap unmanages every known window missing from alive and returns them.
func (m *Manager) Reap(alive []platform.WindowID) []platform.WindowID {
	live := make(map[platform.WindowID]bool, len(alive))
	for _, w := range alive {
		live[w] = true
	}
	var dead []platform.WindowID
	for _, w := range m.KnownWindows() {
		if !live[w] {
			dead = append(dead, w)
		}
	}
	for _, w := range dead {
		m.logger.Info("reaping orphaned window", "window", w)
		m.unmanage(w)
	}
	if len(dead) > 0 {
		m.notifyAll(0)
	}
	return dead
}

// Adopt manages the windows that already exist when the daemon starts and
// focuses active if it ends up managed. It returns how many windows were
// adopted. Adopt bypasses the event lane so a long client list cannot be
// dropped.
func (m *Manager) Adopt(windows []platform.WindowID, active platform.WindowID) int {
	adopted := 0
	for _, w := range windows {
		if m.known[w] || !m.ShouldManage(w) {
			continue
		}
		m.manage(w)
		if m.known[w] {
			adopted++
		}
	}
	if m.known[active] {
		m.focus(active)
	}
	if adopted > 0 {
		m.notifyAll(active)
	}
	return adopted
}

// RestoreAll shows every window hidden by workspace switches.
func (m *Manager) RestoreAll() error {
	var errs []error
	for w := range m.hidden {
		if err := m.platform.Show(w); err != nil {
			errs = append(errs, fmt.Errorf("restore window %d: %w", w, err))
			continue
		}
		delete(m.hidden, w)
	}
	return errors.Join(errs...)
}

// State is the serializable view written to state dumps and STATE replies.
type State struct {
	Snapshot snapshot.Snapshot   `json:"snapshot"`
	Known    []platform.WindowID `json:"known_windows"`
	Hidden   []platform.WindowID `json:"hidden_windows,omitempty"`
}

// State returns the current serializable state.
func (m *Manager) State() State {
	hidden := make([]platform.WindowID, 0, len(m.hidden))
	for w := range m.hidden {
		hidden = append(hidden, w)
	}
	sort.Slice(hidden, func(i, j int) bool { return hidden[i] < hidden[j] })
	return State{
		Snapshot: m.Snapshot(),
		Known:    m.KnownWindows(),
		Hidden:   hidden,
	}
}
