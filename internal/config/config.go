package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1broseidon/tilewm/internal/border"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/theme"
	"gopkg.in/yaml.v3"
)

// ValidationError reports the YAML path of an invalid setting.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BorderColours are hex colours per border kind. Empty entries keep the
// built-in colour.
type BorderColours struct {
	Single          string `yaml:"single,omitempty"`
	Stack           string `yaml:"stack,omitempty"`
	Monocle         string `yaml:"monocle,omitempty"`
	Floating        string `yaml:"floating,omitempty"`
	Unfocused       string `yaml:"unfocused,omitempty"`
	UnfocusedLocked string `yaml:"unfocused_locked,omitempty"`
}

func (c BorderColours) entries() map[border.Kind]string {
	return map[border.Kind]string{
		border.KindSingle:          c.Single,
		border.KindStack:           c.Stack,
		border.KindMonocle:         c.Monocle,
		border.KindFloating:        c.Floating,
		border.KindUnfocused:       c.Unfocused,
		border.KindUnfocusedLocked: c.UnfocusedLocked,
	}
}

type BorderConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Implementation string        `yaml:"implementation"`
	Width          int           `yaml:"width"`
	Offset         int           `yaml:"offset"`
	Style          string        `yaml:"style"`
	Colours        BorderColours `yaml:"colours,omitempty"`
}

type TransparencyConfig struct {
	Enabled bool `yaml:"enabled"`
	Alpha   int  `yaml:"alpha"`
}

// RuntimeConfig tunes the message bus and the background workers.
type RuntimeConfig struct {
	ChannelCapacity          int `yaml:"channel_capacity"`
	PollIntervalMs           int `yaml:"poll_interval_ms"`
	ReconcileIntervalSeconds int `yaml:"reconcile_interval_seconds"`
	CreateTimeoutMs          int `yaml:"create_timeout_ms"`
	ReplyTimeoutMs           int `yaml:"reply_timeout_ms"`
}

func (r RuntimeConfig) PollInterval() time.Duration {
	return time.Duration(r.PollIntervalMs) * time.Millisecond
}

func (r RuntimeConfig) ReconcileInterval() time.Duration {
	return time.Duration(r.ReconcileIntervalSeconds) * time.Second
}

func (r RuntimeConfig) CreateTimeout() time.Duration {
	return time.Duration(r.CreateTimeoutMs) * time.Millisecond
}

func (r RuntimeConfig) ReplyTimeout() time.Duration {
	return time.Duration(r.ReplyTimeoutMs) * time.Millisecond
}

// Binding maps a key sequence such as "Mod4-Shift-m" to a daemon command.
type Binding struct {
	Keys    string         `yaml:"keys"`
	Command string         `yaml:"command"`
	Payload map[string]any `yaml:"payload,omitempty"`
}

// Request builds the IPC request the binding submits.
func (b Binding) Request() (*ipc.Request, error) {
	var payload any
	if len(b.Payload) > 0 {
		payload = b.Payload
	}
	return ipc.NewRequest(ipc.CommandType(strings.ToUpper(b.Command)), payload)
}

type Config struct {
	Border        BorderConfig       `yaml:"border"`
	Transparency  TransparencyConfig `yaml:"transparency"`
	Theme         theme.Theme        `yaml:"theme,omitempty"`
	Runtime       RuntimeConfig      `yaml:"runtime"`
	Workspaces    []string           `yaml:"workspaces"`
	IgnoreClasses []string           `yaml:"ignore_classes,omitempty"`
	FloatClasses  []string           `yaml:"float_classes,omitempty"`
	Hotkeys       []Binding          `yaml:"hotkeys,omitempty"`
	LogLevel      string             `yaml:"log_level"`
}

func DefaultConfig() *Config {
	defaults := border.DefaultSettings()
	return &Config{
		Border: BorderConfig{
			Enabled:        defaults.Enabled,
			Implementation: string(defaults.Implementation),
			Width:          defaults.Width,
			Offset:         defaults.Offset,
			Style:          string(defaults.Style),
		},
		Transparency: TransparencyConfig{
			Enabled: false,
			Alpha:   200,
		},
		Runtime: RuntimeConfig{
			ChannelCapacity:          50,
			PollIntervalMs:           1,
			ReconcileIntervalSeconds: 10,
			CreateTimeoutMs:          2000,
			ReplyTimeoutMs:           2000,
		},
		Workspaces: []string{"1", "2", "3", "4", "5"},
		Hotkeys: []Binding{
			{Keys: "Mod4-Shift-p", Command: string(ipc.CommandTogglePause)},
			{Keys: "Mod4-Shift-r", Command: string(ipc.CommandForceUpdate)},
			{Keys: "Mod4-m", Command: string(ipc.CommandToggleMonocle)},
			{Keys: "Mod4-t", Command: string(ipc.CommandToggleFloat)},
		},
		LogLevel: "info",
	}
}

// BorderSettings converts the border section into engine settings. The
// theme, when set, is applied afterwards by the theme manager.
func (c *Config) BorderSettings() (border.Settings, error) {
	s := border.DefaultSettings()
	s.Enabled = c.Border.Enabled
	s.Width = c.Border.Width
	s.Offset = c.Border.Offset

	impl, err := border.ParseImplementation(c.Border.Implementation)
	if err != nil {
		return s, &ValidationError{Path: "border.implementation", Err: err}
	}
	s.Implementation = impl

	style, err := border.ParseStyle(c.Border.Style)
	if err != nil {
		return s, &ValidationError{Path: "border.style", Err: err}
	}
	s.Style = style

	for kind, hex := range c.Border.Colours.entries() {
		if hex == "" {
			continue
		}
		pixel, err := theme.ParseHex(hex)
		if err != nil {
			return s, &ValidationError{Path: "border.colours." + kind.String(), Err: err}
		}
		s.Colours.Set(kind, pixel)
	}
	return s, nil
}

// SlogLevel maps log_level onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if _, err := c.BorderSettings(); err != nil {
		return err
	}
	if c.Border.Width < 0 {
		return &ValidationError{Path: "border.width", Err: fmt.Errorf("width must be >= 0")}
	}
	if c.Transparency.Alpha < 0 || c.Transparency.Alpha > 255 {
		return &ValidationError{Path: "transparency.alpha", Err: fmt.Errorf("alpha must be between 0 and 255")}
	}
	if !c.Theme.IsZero() {
		if _, err := theme.Colours(c.Theme); err != nil {
			return &ValidationError{Path: "theme", Err: err}
		}
	}

	if c.Runtime.ChannelCapacity <= 0 {
		return &ValidationError{Path: "runtime.channel_capacity", Err: fmt.Errorf("channel_capacity must be > 0")}
	}
	if c.Runtime.PollIntervalMs <= 0 {
		return &ValidationError{Path: "runtime.poll_interval_ms", Err: fmt.Errorf("poll_interval_ms must be > 0")}
	}
	if c.Runtime.ReconcileIntervalSeconds <= 0 {
		return &ValidationError{Path: "runtime.reconcile_interval_seconds", Err: fmt.Errorf("reconcile_interval_seconds must be > 0")}
	}
	if c.Runtime.CreateTimeoutMs <= 0 {
		return &ValidationError{Path: "runtime.create_timeout_ms", Err: fmt.Errorf("create_timeout_ms must be > 0")}
	}
	if c.Runtime.ReplyTimeoutMs <= 0 {
		return &ValidationError{Path: "runtime.reply_timeout_ms", Err: fmt.Errorf("reply_timeout_ms must be > 0")}
	}

	if len(c.Workspaces) == 0 {
		return &ValidationError{Path: "workspaces", Err: fmt.Errorf("workspaces must not be empty")}
	}
	seen := make(map[string]bool, len(c.Workspaces))
	for _, name := range c.Workspaces {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: "workspaces", Err: fmt.Errorf("workspace names must not be empty")}
		}
		if seen[name] {
			return &ValidationError{Path: "workspaces", Err: fmt.Errorf("duplicate workspace %q", name)}
		}
		seen[name] = true
	}

	for i, b := range c.Hotkeys {
		path := fmt.Sprintf("hotkeys[%d]", i)
		if strings.TrimSpace(b.Keys) == "" {
			return &ValidationError{Path: path + ".keys", Err: fmt.Errorf("keys are required")}
		}
		if !knownCommand(ipc.CommandType(strings.ToUpper(b.Command))) {
			return &ValidationError{Path: path + ".command", Err: fmt.Errorf("unknown command %q", b.Command)}
		}
	}

	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	return nil
}

func knownCommand(cmd ipc.CommandType) bool {
	for _, c := range ipc.Commands() {
		if c == cmd {
			return true
		}
	}
	return false
}

// Save writes the configuration to path, or to the standard location when
// path is empty.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
