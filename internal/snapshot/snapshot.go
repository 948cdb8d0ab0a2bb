// Package snapshot holds the read-only view of window manager state that
// reconciliation passes consume.
package snapshot

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/mitchellh/hashstructure/v2"
)

// Layer is the focused layer of a workspace.
type Layer int

const (
	LayerTiling Layer = iota
	LayerFloating
)

func (l Layer) String() string {
	if l == LayerFloating {
		return "floating"
	}
	return "tiling"
}

// MarshalText renders the layer name in JSON state dumps.
func (l Layer) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText parses a layer name.
func (l *Layer) UnmarshalText(text []byte) error {
	switch string(text) {
	case "tiling":
		*l = LayerTiling
	case "floating":
		*l = LayerFloating
	default:
		return fmt.Errorf("unknown layer %q", text)
	}
	return nil
}

// Container is an ordered group of windows sharing one tile.
type Container struct {
	ID         string              `json:"id"`
	Windows    []platform.WindowID `json:"windows"`
	FocusedIdx int                 `json:"focused_idx"`
	Locked     bool                `json:"locked,omitempty"`
}

// FocusedWindow returns the focused window, or 0 for an empty container.
func (c Container) FocusedWindow() platform.WindowID {
	if c.FocusedIdx < 0 || c.FocusedIdx >= len(c.Windows) {
		if len(c.Windows) > 0 {
			return c.Windows[0]
		}
		return 0
	}
	return c.Windows[c.FocusedIdx]
}

// Workspace is one virtual workspace of a monitor.
type Workspace struct {
	Name                string              `json:"name"`
	Tile                bool                `json:"tile"`
	Containers          []Container         `json:"containers"`
	FocusedContainerIdx int                 `json:"focused_container_idx"`
	Monocle             *Container          `json:"monocle,omitempty"`
	FloatingWindows     []platform.WindowID `json:"floating_windows,omitempty"`
	Layer               Layer               `json:"layer"`
}

// Monitor is a physical display with its workspaces.
type Monitor struct {
	ID                  int         `json:"id"`
	Name                string      `json:"name"`
	Workspaces          []Workspace `json:"workspaces"`
	FocusedWorkspaceIdx int         `json:"focused_workspace_idx"`
}

// FocusedWorkspace returns the focused workspace or nil.
func (m *Monitor) FocusedWorkspace() *Workspace {
	if m.FocusedWorkspaceIdx < 0 || m.FocusedWorkspaceIdx >= len(m.Workspaces) {
		return nil
	}
	return &m.Workspaces[m.FocusedWorkspaceIdx]
}

// PendingMove describes a window being dragged between tiles.
type PendingMove struct {
	MonitorIdx   int               `json:"monitor_idx"`
	WorkspaceIdx int               `json:"workspace_idx"`
	Window       platform.WindowID `json:"window"`
}

// Snapshot is an immutable per-pass copy of window manager state.
type Snapshot struct {
	Paused            bool                `json:"paused"`
	FocusedMonitorIdx int                 `json:"focused_monitor_idx"`
	Monitors          []Monitor           `json:"monitors"`
	PendingMove       *PendingMove        `json:"pending_move,omitempty"`
	FloatingWindows   []platform.WindowID `json:"floating_windows,omitempty"`
	Layer             Layer               `json:"layer"`
}

// MonitorsEqual reports whether both monitor trees are structurally equal.
// A fingerprinting failure is treated as a difference.
func (s Snapshot) MonitorsEqual(other Snapshot) bool {
	a, err := fingerprint(s.Monitors)
	if err != nil {
		return false
	}
	b, err := fingerprint(other.Monitors)
	if err != nil {
		return false
	}
	return a == b
}

// PendingMoveEqual compares the in-flight move operations.
func (s Snapshot) PendingMoveEqual(other Snapshot) bool {
	switch {
	case s.PendingMove == nil && other.PendingMove == nil:
		return true
	case s.PendingMove == nil || other.PendingMove == nil:
		return false
	default:
		return *s.PendingMove == *other.PendingMove
	}
}

func fingerprint(v any) (uint64, error) {
	return hashstructure.Hash(v, hashstructure.FormatV2, nil)
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.FloatingWindows = cloneWindows(s.FloatingWindows)
	if s.PendingMove != nil {
		pm := *s.PendingMove
		out.PendingMove = &pm
	}
	out.Monitors = make([]Monitor, len(s.Monitors))
	for i, m := range s.Monitors {
		out.Monitors[i] = m.clone()
	}
	return out
}

func (m Monitor) clone() Monitor {
	out := m
	out.Workspaces = make([]Workspace, len(m.Workspaces))
	for i, ws := range m.Workspaces {
		out.Workspaces[i] = ws.clone()
	}
	return out
}

func (ws Workspace) clone() Workspace {
	out := ws
	out.Containers = make([]Container, len(ws.Containers))
	for i, c := range ws.Containers {
		out.Containers[i] = c.clone()
	}
	if ws.Monocle != nil {
		m := ws.Monocle.clone()
		out.Monocle = &m
	}
	out.FloatingWindows = cloneWindows(ws.FloatingWindows)
	return out
}

func (c Container) clone() Container {
	out := c
	out.Windows = cloneWindows(c.Windows)
	return out
}

func cloneWindows(in []platform.WindowID) []platform.WindowID {
	if in == nil {
		return nil
	}
	out := make([]platform.WindowID, len(in))
	copy(out, in)
	return out
}
