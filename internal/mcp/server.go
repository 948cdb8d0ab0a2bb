// Package mcp exposes the daemon's command surface as MCP tools over stdio.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tilewm/internal/ipc"
)

const (
	ServerName    = "tilewm"
	ServerVersion = "0.1.0"
)

// Daemon is the subset of the IPC client the tools call.
type Daemon interface {
	State() (*ipc.StateData, error)
	TogglePause() error
	ForceUpdate() error
	SetBorders(enabled bool) error
	SetTheme(flavour string, colours map[string]string) error
}

var _ Daemon = (*ipc.Client)(nil)

// Server is the MCP server for tilewm.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates an MCP server whose tools talk to daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{daemon: daemon, logger: logger}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_state",
		Description: "Read the tilewm daemon state: pause flag, border and overlay counts, border settings, theme, and a per-monitor summary of the focused workspace.",
	}, s.handleGetState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_pause",
		Description: "Pause or resume window management. While paused the daemon ignores window events and most commands.",
	}, s.handleTogglePause)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "force_update",
		Description: "Repaint every border and reapply transparency.",
	}, s.handleForceUpdate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_borders",
		Description: "Enable or disable window borders.",
	}, s.handleSetBorders)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_theme",
		Description: "Switch border colours to a catppuccin flavour, optionally choosing a palette colour per border kind (single, stack, monocle, floating, unfocused, unfocused_locked).",
	}, s.handleSetTheme)
}
