// Package border reconciles on-screen window borders against snapshots of
// window manager state.
package border

import (
	"fmt"
	"strings"

	"github.com/1broseidon/tilewm/internal/platform"
)

// Kind is the visual classification of a border.
type Kind int

const (
	KindSingle Kind = iota
	KindStack
	KindMonocle
	KindFloating
	KindUnfocused
	KindUnfocusedLocked
)

var kindNames = []string{"single", "stack", "monocle", "floating", "unfocused", "unfocused_locked"}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText renders the kind name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseKind parses a kind name as written in config and commands.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range kindNames {
		if s == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown border kind %q", s)
}

// unfocused reports whether the kind is either unfocused variant.
func (k Kind) unfocused() bool {
	return k == KindUnfocused || k == KindUnfocusedLocked
}

// Colours holds one RGB pixel (0xRRGGBB) per kind.
type Colours struct {
	Single          uint32 `json:"single"`
	Stack           uint32 `json:"stack"`
	Monocle         uint32 `json:"monocle"`
	Floating        uint32 `json:"floating"`
	Unfocused       uint32 `json:"unfocused"`
	UnfocusedLocked uint32 `json:"unfocused_locked"`
}

// DefaultColours returns the built-in palette.
func DefaultColours() Colours {
	return Colours{
		Single:          0x42a5f5,
		Stack:           0x00a542,
		Monocle:         0xff3399,
		Floating:        0xf5f5a5,
		Unfocused:       0x808080,
		UnfocusedLocked: 0xea4f4f,
	}
}

// For returns the colour of a kind.
func (c Colours) For(k Kind) uint32 {
	switch k {
	case KindStack:
		return c.Stack
	case KindMonocle:
		return c.Monocle
	case KindFloating:
		return c.Floating
	case KindUnfocused:
		return c.Unfocused
	case KindUnfocusedLocked:
		return c.UnfocusedLocked
	default:
		return c.Single
	}
}

// Set replaces the colour of one kind.
func (c *Colours) Set(k Kind, colour uint32) {
	switch k {
	case KindStack:
		c.Stack = colour
	case KindMonocle:
		c.Monocle = colour
	case KindFloating:
		c.Floating = colour
	case KindUnfocused:
		c.Unfocused = colour
	case KindUnfocusedLocked:
		c.UnfocusedLocked = colour
	default:
		c.Single = colour
	}
}

// Style is the corner style requested for overlays.
type Style string

const (
	StyleSystem  Style = "system"
	StyleRounded Style = "rounded"
	StyleSquare  Style = "square"
)

// ParseStyle validates a style name.
func ParseStyle(s string) (Style, error) {
	switch st := Style(strings.ToLower(strings.TrimSpace(s))); st {
	case StyleSystem, StyleRounded, StyleSquare:
		return st, nil
	}
	return "", fmt.Errorf("unknown border style %q", s)
}

// Implementation selects how borders are drawn.
type Implementation string

const (
	// ImplOverlay draws separate overlay windows around tracked windows.
	ImplOverlay Implementation = "overlay"
	// ImplAccent recolours the tracked window's own frame.
	ImplAccent Implementation = "accent"
)

// ParseImplementation validates an implementation name.
func ParseImplementation(s string) (Implementation, error) {
	switch impl := Implementation(strings.ToLower(strings.TrimSpace(s))); impl {
	case ImplOverlay, ImplAccent:
		return impl, nil
	}
	return "", fmt.Errorf("unknown border implementation %q", s)
}

// Border is one managed overlay.
type Border struct {
	ID         string            `json:"id"`
	Handle     platform.WindowID `json:"handle"`
	Tracking   platform.WindowID `json:"tracking"`
	Kind       Kind              `json:"kind"`
	MonitorIdx int               `json:"monitor_idx"`
	Rect       platform.Rect     `json:"rect"`
	Style      Style             `json:"style"`
	Width      int               `json:"width"`
	Offset     int               `json:"offset"`
}

// Message is a request for the engine. The set of implementations is closed.
type Message interface {
	borderMessage()
	String() string
}

// Update requests a reconciliation pass. Hint is the window that triggered
// it, or 0.
type Update struct{ Hint platform.WindowID }

// ForceUpdate requests a pass that bypasses the change gate.
type ForceUpdate struct{}

// PassEvent forwards a native event to the border tracking Window.
type PassEvent struct {
	Window platform.WindowID
	Event  uint32
}

// Delete destroys the border tracking Window.
type Delete struct{ Window platform.WindowID }

// Show restores the border tracking Window.
type Show struct{ Window platform.WindowID }

// Hide hides the border tracking Window.
type Hide struct{ Window platform.WindowID }

// Raise raises the border tracking Window.
type Raise struct{ Window platform.WindowID }

// Lower lowers the border tracking Window.
type Lower struct{ Window platform.WindowID }

// DestroyAll destroys every border, including strays from earlier runs.
type DestroyAll struct{}

func (Update) borderMessage()      {}
func (ForceUpdate) borderMessage() {}
func (PassEvent) borderMessage()   {}
func (Delete) borderMessage()      {}
func (Show) borderMessage()        {}
func (Hide) borderMessage()        {}
func (Raise) borderMessage()       {}
func (Lower) borderMessage()       {}
func (DestroyAll) borderMessage()  {}

func (m Update) String() string    { return fmt.Sprintf("Update(%d)", m.Hint) }
func (ForceUpdate) String() string { return "ForceUpdate" }
func (m PassEvent) String() string { return fmt.Sprintf("PassEvent(%d, %d)", m.Window, m.Event) }
func (m Delete) String() string    { return fmt.Sprintf("Delete(%d)", m.Window) }
func (m Show) String() string      { return fmt.Sprintf("Show(%d)", m.Window) }
func (m Hide) String() string      { return fmt.Sprintf("Hide(%d)", m.Window) }
func (m Raise) String() string     { return fmt.Sprintf("Raise(%d)", m.Window) }
func (m Lower) String() string     { return fmt.Sprintf("Lower(%d)", m.Window) }
func (DestroyAll) String() string  { return "DestroyAll" }
