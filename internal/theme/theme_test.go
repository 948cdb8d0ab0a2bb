package theme

import (
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/tilewm/internal/border"
)

type fakeTarget struct {
	settings border.Settings
	sets     int
}

func (f *fakeTarget) Settings() border.Settings { return f.settings }

func (f *fakeTarget) SetSettings(s border.Settings) {
	f.settings = s
	f.sets++
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"#42a5f5", 0x42a5f5, false},
		{"ea4f4f", 0xea4f4f, false},
		{" #000000 ", 0, false},
		{"#zzzzzz", 0, true},
		{"#fff", 0xffffff, false},
		{"#12345", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseHex(%q) = %#06x, want %#06x", tt.in, got, tt.want)
		}
	}
}

func TestFormatHex(t *testing.T) {
	if got := FormatHex(0x00a542); got != "#00a542" {
		t.Fatalf("FormatHex() = %q, want %q", got, "#00a542")
	}
}

func TestResolve(t *testing.T) {
	got, err := Resolve("Mocha", "Blue")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got != 0x89b4fa {
		t.Fatalf("Resolve(mocha, blue) = %#06x, want 0x89b4fa", got)
	}

	if _, err := Resolve("sepia", "blue"); err == nil {
		t.Fatal("Resolve() with unknown flavour returned nil error")
	}
	if _, err := Resolve("mocha", "chartreuse"); err == nil {
		t.Fatal("Resolve() with unknown colour returned nil error")
	}
}

func TestColours_Overrides(t *testing.T) {
	c, err := Colours(Theme{Flavour: "mocha", Colours: map[string]string{"stack": "mauve"}})
	if err != nil {
		t.Fatalf("Colours() error: %v", err)
	}
	if c.Stack != 0xcba6f7 {
		t.Fatalf("stack = %#06x, want 0xcba6f7", c.Stack)
	}
	if c.Unfocused != 0x1e1e2e {
		t.Fatalf("unfocused = %#06x, want 0x1e1e2e", c.Unfocused)
	}

	if _, err := Colours(Theme{Flavour: "mocha", Colours: map[string]string{"sideways": "red"}}); err == nil {
		t.Fatal("Colours() with unknown kind returned nil error")
	}
}

func TestManager_ApplySkipsRepeats(t *testing.T) {
	target := &fakeTarget{settings: border.DefaultSettings()}
	m := NewManager(target, slog.New(slog.NewTextHandler(io.Discard, nil)))

	changed, err := m.Apply(Theme{Flavour: "latte"})
	if err != nil || !changed {
		t.Fatalf("Apply() = %v, %v; want true, nil", changed, err)
	}
	changed, err = m.Apply(Theme{Flavour: "latte"})
	if err != nil || changed {
		t.Fatalf("second Apply() = %v, %v; want false, nil", changed, err)
	}
	if target.sets != 1 {
		t.Fatalf("SetSettings calls = %d, want 1", target.sets)
	}
	if !target.settings.Enabled || target.settings.Width != 8 {
		t.Fatal("Apply() changed non-colour settings")
	}
	if m.Current() != "latte" {
		t.Fatalf("Current() = %q, want %q", m.Current(), "latte")
	}
}

func TestManager_ApplyErrorKeepsSettings(t *testing.T) {
	target := &fakeTarget{settings: border.DefaultSettings()}
	m := NewManager(target, nil)

	if _, err := m.Apply(Theme{Flavour: "nope"}); err == nil {
		t.Fatal("Apply() with unknown flavour returned nil error")
	}
	if target.sets != 0 || m.Current() != "" {
		t.Fatal("failed Apply() modified state")
	}
}
