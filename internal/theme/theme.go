// Package theme resolves catppuccin palettes into border colours.
package theme

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/1broseidon/tilewm/internal/border"
	catppuccin "github.com/catppuccin/go"
	"github.com/lucasb-eyer/go-colorful"
)

// Theme selects a flavour and, optionally, a palette colour per border kind.
type Theme struct {
	Flavour string            `yaml:"flavour" json:"flavour"`
	Colours map[string]string `yaml:"colours,omitempty" json:"colours,omitempty"`
}

// IsZero reports whether no theme is configured.
func (t Theme) IsZero() bool {
	return t.Flavour == ""
}

func (t Theme) String() string {
	if t.IsZero() {
		return ""
	}
	keys := make([]string, 0, len(t.Colours))
	for k := range t.Colours {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(strings.ToLower(t.Flavour))
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, t.Colours[k])
	}
	return b.String()
}

var defaultColours = map[border.Kind]string{
	border.KindSingle:          "blue",
	border.KindStack:           "green",
	border.KindMonocle:         "pink",
	border.KindFloating:        "yellow",
	border.KindUnfocused:       "base",
	border.KindUnfocusedLocked: "red",
}

var palette = map[string]func(catppuccin.Flavor) catppuccin.Color{
	"rosewater": catppuccin.Flavor.Rosewater,
	"flamingo":  catppuccin.Flavor.Flamingo,
	"pink":      catppuccin.Flavor.Pink,
	"mauve":     catppuccin.Flavor.Mauve,
	"red":       catppuccin.Flavor.Red,
	"maroon":    catppuccin.Flavor.Maroon,
	"peach":     catppuccin.Flavor.Peach,
	"yellow":    catppuccin.Flavor.Yellow,
	"green":     catppuccin.Flavor.Green,
	"teal":      catppuccin.Flavor.Teal,
	"sky":       catppuccin.Flavor.Sky,
	"sapphire":  catppuccin.Flavor.Sapphire,
	"blue":      catppuccin.Flavor.Blue,
	"lavender":  catppuccin.Flavor.Lavender,
	"text":      catppuccin.Flavor.Text,
	"subtext1":  catppuccin.Flavor.Subtext1,
	"subtext0":  catppuccin.Flavor.Subtext0,
	"overlay2":  catppuccin.Flavor.Overlay2,
	"overlay1":  catppuccin.Flavor.Overlay1,
	"overlay0":  catppuccin.Flavor.Overlay0,
	"surface2":  catppuccin.Flavor.Surface2,
	"surface1":  catppuccin.Flavor.Surface1,
	"surface0":  catppuccin.Flavor.Surface0,
	"base":      catppuccin.Flavor.Base,
	"mantle":    catppuccin.Flavor.Mantle,
	"crust":     catppuccin.Flavor.Crust,
}

// ParseHex converts "#rrggbb" into a 0xRRGGBB pixel.
func ParseHex(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return 0, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return pixel(c), nil
}

// FormatHex renders a pixel as "#rrggbb".
func FormatHex(p uint32) string {
	return fmt.Sprintf("#%06x", p&0xffffff)
}

func pixel(c colorful.Color) uint32 {
	r, g, b := c.RGB255()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Resolve looks up a palette colour of a flavour.
func Resolve(flavour, name string) (uint32, error) {
	f := catppuccin.Variant(flavour)
	if f == nil {
		return 0, fmt.Errorf("unknown flavour %q", flavour)
	}
	get, ok := palette[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown colour %q", name)
	}
	return ParseHex(get(f).Hex)
}

// Colours resolves every border kind colour of the theme.
func Colours(t Theme) (border.Colours, error) {
	var out border.Colours
	overrides := make(map[border.Kind]string, len(t.Colours))
	for k, v := range t.Colours {
		kind, err := border.ParseKind(k)
		if err != nil {
			return out, err
		}
		overrides[kind] = v
	}
	for kind, name := range defaultColours {
		if v, ok := overrides[kind]; ok {
			name = v
		}
		p, err := Resolve(t.Flavour, name)
		if err != nil {
			return out, fmt.Errorf("%s: %w", kind, err)
		}
		out.Set(kind, p)
	}
	return out, nil
}

// Target is where resolved colours are applied.
type Target interface {
	Settings() border.Settings
	SetSettings(border.Settings)
}

// Manager applies themes to the border engine, skipping repeats.
type Manager struct {
	target  Target
	logger  *slog.Logger
	current string
}

// NewManager returns a manager with no theme applied.
func NewManager(target Target, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{target: target, logger: logger}
}

// Current returns the applied theme description, or "" for none.
func (m *Manager) Current() string {
	return m.current
}

// Apply sets the engine colours from t. It reports whether anything changed;
// callers force a border update when it did.
func (m *Manager) Apply(t Theme) (bool, error) {
	key := t.String()
	if key == m.current {
		return false, nil
	}
	colours, err := Colours(t)
	if err != nil {
		return false, err
	}
	s := m.target.Settings()
	s.Colours = colours
	m.target.SetSettings(s)
	m.current = key
	m.logger.Info("theme applied", "theme", key)
	return true, nil
}
