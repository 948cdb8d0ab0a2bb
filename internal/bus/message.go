package bus

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/border"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/monitor"
	"github.com/1broseidon/tilewm/internal/overlay"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/theme"
	"github.com/1broseidon/tilewm/internal/wm"
)

// Message is anything carried by the bus.
type Message interface {
	lane() lane
}

type lane int

const (
	laneControl lane = iota
	laneCommand
	laneEvent
)

func (l lane) String() string {
	switch l {
	case laneControl:
		return "control"
	case laneCommand:
		return "command"
	}
	return "event"
}

// EventMessage carries a window-system event to the window manager.
type EventMessage struct {
	Event platform.Event
}

// CommandMessage carries external commands. Reply, when set, receives one
// response after the whole batch ran; it must be buffered.
type CommandMessage struct {
	Requests []*ipc.Request
	Reply    chan<- *ipc.Response
}

// BorderControl asks the border engine to act.
type BorderControl struct {
	Message border.Message
}

// MonitorControl reports a display change.
type MonitorControl struct {
	Notification monitor.Notification
}

// ReaperControl lists the client windows that still exist.
type ReaperControl struct {
	Alive []platform.WindowID
}

// TransparencyControl asks for a transparency pass.
type TransparencyControl struct{}

// ThemeControl applies a theme.
type ThemeControl struct {
	Theme theme.Theme
}

// WindowWithBorder changes a managed window and then its border.
type WindowWithBorder struct {
	Action wm.WindowAction
	Window platform.WindowID
}

func (EventMessage) lane() lane        { return laneEvent }
func (CommandMessage) lane() lane      { return laneCommand }
func (BorderControl) lane() lane       { return laneControl }
func (MonitorControl) lane() lane      { return laneControl }
func (ReaperControl) lane() lane       { return laneControl }
func (TransparencyControl) lane() lane { return laneControl }
func (ThemeControl) lane() lane        { return laneControl }
func (WindowWithBorder) lane() lane    { return laneControl }

// Describe renders a message for logs.
func Describe(msg Message) string {
	switch m := msg.(type) {
	case EventMessage:
		return fmt.Sprintf("event %s(%d)", m.Event.Kind, m.Event.Window)
	case CommandMessage:
		names := make([]string, 0, len(m.Requests))
		for _, r := range m.Requests {
			names = append(names, string(r.Command))
		}
		return fmt.Sprintf("commands %v", names)
	case BorderControl:
		return "border " + m.Message.String()
	case MonitorControl:
		return "monitor " + m.Notification.String()
	case ReaperControl:
		return fmt.Sprintf("reaper (%d alive)", len(m.Alive))
	case TransparencyControl:
		return "transparency"
	case ThemeControl:
		return "theme " + m.Theme.String()
	case WindowWithBorder:
		return fmt.Sprintf("window %s(%d)", m.Action, m.Window)
	}
	return fmt.Sprintf("%T", msg)
}

// FromEvent converts a platform event into its bus message. Location
// changes go straight to the tracking border.
func FromEvent(ev platform.Event) Message {
	if ev.Kind == platform.EventLocationChange {
		return BorderControl{Message: border.PassEvent{Window: ev.Window, Event: overlay.EventLocationChange}}
	}
	return EventMessage{Event: ev}
}
