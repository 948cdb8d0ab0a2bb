package mcp

import (
	"context"
	"errors"
	"sort"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/snapshot"
)

type fakeDaemon struct {
	state   *ipc.StateData
	err     error
	paused  int
	updates int
	borders []bool
	flavour string
	colours map[string]string
}

func (f *fakeDaemon) State() (*ipc.StateData, error) { return f.state, f.err }
func (f *fakeDaemon) TogglePause() error             { f.paused++; return f.err }
func (f *fakeDaemon) ForceUpdate() error             { f.updates++; return f.err }
func (f *fakeDaemon) SetBorders(enabled bool) error {
	f.borders = append(f.borders, enabled)
	return f.err
}
func (f *fakeDaemon) SetTheme(flavour string, colours map[string]string) error {
	f.flavour, f.colours = flavour, colours
	return f.err
}

func sampleState() *ipc.StateData {
	return &ipc.StateData{
		UptimeSeconds:  3600,
		Borders:        3,
		Overlays:       3,
		Implementation: "overlay",
		BordersEnabled: true,
		Known:          []platform.WindowID{1, 2, 3, 4},
		Hidden:         []platform.WindowID{4},
		Snapshot: snapshot.Snapshot{
			FocusedMonitorIdx: 1,
			Monitors: []snapshot.Monitor{
				{
					ID: 0, Name: "eDP-1",
					Workspaces: []snapshot.Workspace{{
						Name:            "1",
						Containers:      []snapshot.Container{{Windows: []platform.WindowID{1, 2}}},
						FloatingWindows: []platform.WindowID{3},
					}},
				},
				{
					ID: 1, Name: "HDMI-1",
					Workspaces: []snapshot.Workspace{{
						Name:    "web",
						Monocle: &snapshot.Container{Windows: []platform.WindowID{5}},
					}},
				},
			},
		},
	}
}

func TestStateOutput(t *testing.T) {
	out := stateOutput(sampleState())

	if out.KnownWindows != 4 || out.HiddenWindows != 1 || out.Borders != 3 {
		t.Fatalf("stateOutput() counts = %+v", out)
	}
	if out.Uptime != "1 hour" {
		t.Fatalf("Uptime = %q, want %q", out.Uptime, "1 hour")
	}
	if len(out.Monitors) != 2 {
		t.Fatalf("monitors = %d, want 2", len(out.Monitors))
	}
	if m := out.Monitors[0]; m.Windows != 3 || m.Focused || m.Monocle {
		t.Fatalf("monitor 0 = %+v", m)
	}
	if m := out.Monitors[1]; m.Windows != 1 || !m.Focused || !m.Monocle || m.Workspace != "web" {
		t.Fatalf("monitor 1 = %+v", m)
	}
}

func TestHandlers(t *testing.T) {
	d := &fakeDaemon{state: sampleState()}
	s := NewServer(d, nil)
	ctx := context.Background()

	if _, out, err := s.handleGetState(ctx, nil, GetStateInput{}); err != nil || out.Borders != 3 {
		t.Fatalf("handleGetState() = %+v, %v", out, err)
	}
	if _, _, err := s.handleTogglePause(ctx, nil, EmptyInput{}); err != nil || d.paused != 1 {
		t.Fatalf("handleTogglePause() err = %v, calls = %d", err, d.paused)
	}
	if _, _, err := s.handleForceUpdate(ctx, nil, EmptyInput{}); err != nil || d.updates != 1 {
		t.Fatalf("handleForceUpdate() err = %v, calls = %d", err, d.updates)
	}
	if _, _, err := s.handleSetBorders(ctx, nil, SetBordersInput{Enabled: false}); err != nil || len(d.borders) != 1 || d.borders[0] {
		t.Fatalf("handleSetBorders() err = %v, calls = %v", err, d.borders)
	}
	if _, _, err := s.handleSetTheme(ctx, nil, SetThemeInput{Flavour: " Mocha ", Colours: map[string]string{"single": "mauve"}}); err != nil {
		t.Fatalf("handleSetTheme() error = %v", err)
	}
	if d.flavour != "mocha" || d.colours["single"] != "mauve" {
		t.Fatalf("theme = %q %v", d.flavour, d.colours)
	}
	if _, _, err := s.handleSetTheme(ctx, nil, SetThemeInput{}); err == nil {
		t.Fatalf("handleSetTheme() without flavour = nil, want error")
	}
}

func TestHandlers_DaemonError(t *testing.T) {
	d := &fakeDaemon{err: errors.New("daemon busy")}
	s := NewServer(d, nil)
	if _, _, err := s.handleGetState(context.Background(), nil, GetStateInput{}); err == nil {
		t.Fatalf("handleGetState() = nil, want error")
	}
	if _, _, err := s.handleSetBorders(context.Background(), nil, SetBordersInput{Enabled: true}); err == nil {
		t.Fatalf("handleSetBorders() = nil, want error")
	}
}

func TestServer_ListsAndCallsTools(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := &fakeDaemon{state: sampleState()}
	s := NewServer(d, nil)

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	ss, err := s.mcpServer.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer ss.Close()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := []string{"force_update", "get_state", "set_borders", "set_theme", "toggle_pause"}
	if len(names) != len(want) {
		t.Fatalf("tools = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("tools = %v, want %v", names, want)
		}
	}

	res, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      "set_borders",
		Arguments: map[string]any{"enabled": true},
	})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("CallTool() returned a tool error: %+v", res.Content)
	}
	if len(d.borders) != 1 || !d.borders[0] {
		t.Fatalf("SetBorders calls = %v, want [true]", d.borders)
	}
}
