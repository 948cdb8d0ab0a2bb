package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/snapshot"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandStop                 CommandType = "STOP"
	CommandStopIgnoreRestore    CommandType = "STOP_IGNORE_RESTORE"
	CommandTogglePause          CommandType = "TOGGLE_PAUSE"
	CommandState                CommandType = "STATE"
	CommandForceUpdate          CommandType = "FORCE_UPDATE"
	CommandToggleMonocle        CommandType = "TOGGLE_MONOCLE"
	CommandToggleTiling         CommandType = "TOGGLE_TILING"
	CommandToggleFloat          CommandType = "TOGGLE_FLOAT"
	CommandToggleLock           CommandType = "TOGGLE_LOCK"
	CommandFocusMonitor         CommandType = "FOCUS_MONITOR"
	CommandFocusWorkspace       CommandType = "FOCUS_WORKSPACE"
	CommandBorder               CommandType = "BORDER"
	CommandBorderWidth          CommandType = "BORDER_WIDTH"
	CommandBorderOffset         CommandType = "BORDER_OFFSET"
	CommandBorderStyle          CommandType = "BORDER_STYLE"
	CommandBorderImplementation CommandType = "BORDER_IMPLEMENTATION"
	CommandBorderColour         CommandType = "BORDER_COLOUR"
	CommandTransparency         CommandType = "TRANSPARENCY"
	CommandTransparencyAlpha    CommandType = "TRANSPARENCY_ALPHA"
	CommandTheme                CommandType = "THEME"
)

// Commands lists every command the daemon accepts.
func Commands() []CommandType {
	return []CommandType{
		CommandStop, CommandStopIgnoreRestore, CommandTogglePause, CommandState,
		CommandForceUpdate, CommandToggleMonocle, CommandToggleTiling, CommandToggleFloat,
		CommandToggleLock, CommandFocusMonitor, CommandFocusWorkspace, CommandBorder,
		CommandBorderWidth, CommandBorderOffset, CommandBorderStyle, CommandBorderImplementation,
		CommandBorderColour, CommandTransparency, CommandTransparencyAlpha, CommandTheme,
	}
}

// AllowedWhilePaused reports whether the daemon processes the command while
// paused.
func (c CommandType) AllowedWhilePaused() bool {
	switch c {
	case CommandTogglePause, CommandState, CommandStop, CommandStopIgnoreRestore:
		return true
	}
	return false
}

// IsStop reports whether the command ends the dispatcher.
func (c CommandType) IsStop() bool {
	return c == CommandStop || c == CommandStopIgnoreRestore
}

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StateData represents the data returned by STATE
type StateData struct {
	UptimeSeconds  int64               `json:"uptime_seconds"`
	Borders        int                 `json:"borders"`
	Overlays       int                 `json:"overlays"`
	Implementation string              `json:"implementation"`
	BordersEnabled bool                `json:"borders_enabled"`
	Transparency   bool                `json:"transparency"`
	Theme          string              `json:"theme,omitempty"`
	Snapshot       snapshot.Snapshot   `json:"snapshot"`
	Known          []platform.WindowID `json:"known_windows"`
	Hidden         []platform.WindowID `json:"hidden_windows,omitempty"`
}

// EnabledPayload is the payload for BORDER and TRANSPARENCY.
type EnabledPayload struct {
	Enabled bool `json:"enabled"`
}

// IntPayload is the payload for numeric settings and focus commands.
type IntPayload struct {
	Value int `json:"value"`
}

// StringPayload is the payload for BORDER_STYLE and BORDER_IMPLEMENTATION.
type StringPayload struct {
	Value string `json:"value"`
}

// BorderColourPayload sets one kind's colour from a hex string.
type BorderColourPayload struct {
	Kind   string `json:"kind"`
	Colour string `json:"colour"`
}

// ThemePayload selects a catppuccin flavour. Colours maps border kind names
// to palette colour names and overrides the flavour defaults.
type ThemePayload struct {
	Flavour string            `json:"flavour"`
	Colours map[string]string `json:"colours,omitempty"`
}

// NewRequest builds a request, marshaling payload when non-nil.
func NewRequest(cmd CommandType, payload interface{}) (*Request, error) {
	req := &Request{Command: cmd}
	if payload == nil {
		return req, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
	}
	req.Payload = data
	return req, nil
}

// DecodePayload unmarshals the request payload into v.
func (r *Request) DecodePayload(v interface{}) error {
	if len(r.Payload) == 0 {
		return fmt.Errorf("%s requires a payload", r.Command)
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", r.Command, err)
	}
	return nil
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: missing command")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
