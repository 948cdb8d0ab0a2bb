package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/tilewm/internal/border"
	"github.com/1broseidon/tilewm/internal/ipc"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestDefaultConfigPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	got, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error = %v", err)
	}
	if want := "/xdg/tilewm/config.yaml"; got != want {
		t.Fatalf("DefaultConfigPath() = %q, want %q", got, want)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.File != "" {
		t.Fatalf("File = %q, want empty", res.File)
	}
	if res.Config.Runtime.ChannelCapacity != 50 {
		t.Fatalf("channel_capacity = %d, want 50", res.Config.Runtime.ChannelCapacity)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(writeConfig(t, "# empty\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !res.Config.Border.Enabled {
		t.Fatalf("expected borders enabled by default")
	}
}

func TestLoadFromPath_Overrides(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"border:",
		"  enabled: true",
		"  implementation: accent",
		"  width: 4",
		"  offset: 2",
		"  style: square",
		"  colours:",
		"    single: \"#ff0000\"",
		"transparency:",
		"  enabled: true",
		"  alpha: 180",
		"workspaces: [web, code]",
		"float_classes: [Pavucontrol]",
		"hotkeys:",
		"  - keys: Mod4-2",
		"    command: focus_workspace",
		"    payload: {value: 1}",
		"log_level: debug",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if res.File != path {
		t.Fatalf("File = %q, want %q", res.File, path)
	}
	if len(cfg.Workspaces) != 2 || cfg.Workspaces[1] != "code" {
		t.Fatalf("workspaces = %v, want [web code]", cfg.Workspaces)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}

	s, err := cfg.BorderSettings()
	if err != nil {
		t.Fatalf("BorderSettings() error = %v", err)
	}
	if s.Implementation != border.ImplAccent || s.Style != border.StyleSquare || s.Width != 4 || s.Offset != 2 {
		t.Fatalf("BorderSettings() = %+v", s)
	}
	if got := s.Colours.For(border.KindSingle); got != 0xff0000 {
		t.Fatalf("single colour = %#x, want 0xff0000", got)
	}
	if got, want := s.Colours.For(border.KindStack), border.DefaultColours().Stack; got != want {
		t.Fatalf("stack colour = %#x, want default %#x", got, want)
	}

	if len(cfg.Hotkeys) != 1 {
		t.Fatalf("hotkeys = %v, want one binding", cfg.Hotkeys)
	}
	req, err := cfg.Hotkeys[0].Request()
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if req.Command != ipc.CommandFocusWorkspace {
		t.Fatalf("command = %q, want %q", req.Command, ipc.CommandFocusWorkspace)
	}
	var p ipc.IntPayload
	if err := req.DecodePayload(&p); err != nil || p.Value != 1 {
		t.Fatalf("payload = %+v (%v), want value 1", p, err)
	}
}

func TestLoadFromPath_UnknownFieldRejected(t *testing.T) {
	if _, err := LoadFromPath(writeConfig(t, "gap_size: 8\n")); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"bad implementation", func(c *Config) { c.Border.Implementation = "shadow" }, "border.implementation"},
		{"bad style", func(c *Config) { c.Border.Style = "wavy" }, "border.style"},
		{"bad colour", func(c *Config) { c.Border.Colours.Monocle = "#zzzzzz" }, "border.colours.monocle"},
		{"negative width", func(c *Config) { c.Border.Width = -1 }, "border.width"},
		{"alpha range", func(c *Config) { c.Transparency.Alpha = 300 }, "transparency.alpha"},
		{"unknown flavour", func(c *Config) { c.Theme.Flavour = "espresso" }, "theme"},
		{"zero capacity", func(c *Config) { c.Runtime.ChannelCapacity = 0 }, "runtime.channel_capacity"},
		{"zero poll", func(c *Config) { c.Runtime.PollIntervalMs = 0 }, "runtime.poll_interval_ms"},
		{"no workspaces", func(c *Config) { c.Workspaces = nil }, "workspaces"},
		{"duplicate workspace", func(c *Config) { c.Workspaces = []string{"a", "a"} }, "workspaces"},
		{"hotkey without keys", func(c *Config) { c.Hotkeys = []Binding{{Command: "STATE"}} }, "hotkeys[0].keys"},
		{"unknown hotkey command", func(c *Config) { c.Hotkeys = []Binding{{Keys: "Mod4-x", Command: "EXPLODE"}} }, "hotkeys[0].command"},
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want ValidationError", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("path = %q, want %q", verr.Path, tt.path)
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Theme.Flavour = "mocha"
	cfg.Transparency.Alpha = 128
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Theme.Flavour != "mocha" || res.Config.Transparency.Alpha != 128 {
		t.Fatalf("loaded %+v", res.Config)
	}
}
