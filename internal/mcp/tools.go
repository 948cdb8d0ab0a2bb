package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tilewm/internal/ipc"
)

func (s *Server) handleGetState(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStateInput) (*mcpsdk.CallToolResult, GetStateOutput, error) {
	st, err := s.daemon.State()
	if err != nil {
		return nil, GetStateOutput{}, err
	}
	return nil, stateOutput(st), nil
}

func stateOutput(st *ipc.StateData) GetStateOutput {
	started := time.Now().Add(-time.Duration(st.UptimeSeconds) * time.Second)
	out := GetStateOutput{
		Uptime:         strings.TrimSpace(humanize.RelTime(started, time.Now(), "", "")),
		Paused:         st.Snapshot.Paused,
		Borders:        st.Borders,
		Overlays:       st.Overlays,
		Implementation: st.Implementation,
		BordersEnabled: st.BordersEnabled,
		Transparency:   st.Transparency,
		Theme:          st.Theme,
		KnownWindows:   len(st.Known),
		HiddenWindows:  len(st.Hidden),
		Monitors:       make([]MonitorInfo, 0, len(st.Snapshot.Monitors)),
	}
	for i := range st.Snapshot.Monitors {
		m := &st.Snapshot.Monitors[i]
		info := MonitorInfo{ID: m.ID, Name: m.Name, Focused: i == st.Snapshot.FocusedMonitorIdx}
		if ws := m.FocusedWorkspace(); ws != nil {
			info.Workspace = ws.Name
			info.Monocle = ws.Monocle != nil
			for _, c := range ws.Containers {
				info.Windows += len(c.Windows)
			}
			if ws.Monocle != nil {
				info.Windows += len(ws.Monocle.Windows)
			}
			info.Windows += len(ws.FloatingWindows)
		}
		out.Monitors = append(out.Monitors, info)
	}
	return out
}

func (s *Server) handleTogglePause(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.daemon.TogglePause(); err != nil {
		return nil, AckOutput{}, err
	}
	s.logger.Info("mcp: toggled pause")
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleForceUpdate(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.daemon.ForceUpdate(); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleSetBorders(_ context.Context, _ *mcpsdk.CallToolRequest, args SetBordersInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.daemon.SetBorders(args.Enabled); err != nil {
		return nil, AckOutput{}, err
	}
	s.logger.Info("mcp: borders changed", "enabled", args.Enabled)
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleSetTheme(_ context.Context, _ *mcpsdk.CallToolRequest, args SetThemeInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	flavour := strings.ToLower(strings.TrimSpace(args.Flavour))
	if flavour == "" {
		return nil, AckOutput{}, fmt.Errorf("flavour is required")
	}
	if err := s.daemon.SetTheme(flavour, args.Colours); err != nil {
		return nil, AckOutput{}, err
	}
	s.logger.Info("mcp: theme changed", "flavour", flavour)
	return nil, AckOutput{OK: true}, nil
}
