package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/snapshot"
)

func TestParseToggle(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"on", true, false},
		{"OFF", false, false},
		{"1", true, false},
		{"disable", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := parseToggle(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseToggle(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("parseToggle(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParsePairs(t *testing.T) {
	got, err := parsePairs([]string{"single=mauve", "stack=teal"})
	if err != nil {
		t.Fatalf("parsePairs() error = %v", err)
	}
	if got["single"] != "mauve" || got["stack"] != "teal" {
		t.Fatalf("parsePairs() = %v", got)
	}
	if got, err := parsePairs(nil); err != nil || got != nil {
		t.Fatalf("parsePairs(nil) = %v, %v, want nil, nil", got, err)
	}
	if _, err := parsePairs([]string{"single"}); err == nil {
		t.Fatalf("parsePairs without = succeeded, want error")
	}
}

func TestUptime(t *testing.T) {
	if got := uptime(90); got != "1 minute" {
		t.Fatalf("uptime(90) = %q, want %q", got, "1 minute")
	}
}

func TestPrintState(t *testing.T) {
	color.NoColor = true

	st := &ipc.StateData{
		UptimeSeconds:  7200,
		Borders:        2,
		Overlays:       2,
		Implementation: "overlay",
		BordersEnabled: true,
		Theme:          "mocha",
		Known:          []platform.WindowID{0x10, 0x20},
		Snapshot: snapshot.Snapshot{
			Paused: true,
			Monitors: []snapshot.Monitor{{
				ID: 0, Name: "eDP-1",
				Workspaces: []snapshot.Workspace{
					{Name: "1", Tile: true, Containers: []snapshot.Container{{Windows: []platform.WindowID{0x10}, Locked: true}}},
					{Name: "2", Tile: true, Monocle: &snapshot.Container{Windows: []platform.WindowID{0x20}}},
				},
			}},
		},
	}

	var buf bytes.Buffer
	printState(&buf, st)
	out := buf.String()

	for _, want := range []string{
		"uptime:       2 hours",
		"paused:       yes",
		"on (overlay, 2 live, 2 overlays)",
		"theme:        mocha",
		"2 known, 0 hidden",
		"monitor 0 eDP-1 (focused)",
		"* 1",
		"0x10 locked",
		"monocle 0x20",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("printState() output missing %q:\n%s", want, out)
		}
	}
}
