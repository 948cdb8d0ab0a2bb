package mcp

// GetStateInput is the input for the get_state tool.
type GetStateInput struct{}

// MonitorInfo summarises one monitor.
type MonitorInfo struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Workspace string `json:"workspace"`
	Windows   int    `json:"windows"`
	Monocle   bool   `json:"monocle"`
	Focused   bool   `json:"focused"`
}

// GetStateOutput is the output for the get_state tool.
type GetStateOutput struct {
	Uptime         string        `json:"uptime"`
	Paused         bool          `json:"paused"`
	Borders        int           `json:"borders"`
	Overlays       int           `json:"overlays"`
	Implementation string        `json:"implementation"`
	BordersEnabled bool          `json:"borders_enabled"`
	Transparency   bool          `json:"transparency"`
	Theme          string        `json:"theme,omitempty"`
	KnownWindows   int           `json:"known_windows"`
	HiddenWindows  int           `json:"hidden_windows"`
	Monitors       []MonitorInfo `json:"monitors"`
}

// EmptyInput is the input for tools without arguments.
type EmptyInput struct{}

// AckOutput is returned by tools that only change daemon state.
type AckOutput struct {
	OK bool `json:"ok"`
}

// SetBordersInput is the input for the set_borders tool.
type SetBordersInput struct {
	Enabled bool `json:"enabled" jsonschema:"Whether borders are drawn"`
}

// SetThemeInput is the input for the set_theme tool.
type SetThemeInput struct {
	Flavour string            `json:"flavour" jsonschema:"Catppuccin flavour: latte, frappe, macchiato or mocha"`
	Colours map[string]string `json:"colours,omitempty" jsonschema:"Optional palette colour name per border kind, e.g. {\"single\": \"mauve\"}"`
}
