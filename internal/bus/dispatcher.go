package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/1broseidon/tilewm/internal/border"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/monitor"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/theme"
	"github.com/1broseidon/tilewm/internal/transparency"
	"github.com/1broseidon/tilewm/internal/wm"
)

// DefaultPollInterval is how often the dispatcher drains the bus.
const DefaultPollInterval = time.Millisecond

// WindowOps changes managed windows on behalf of WindowWithBorder.
type WindowOps interface {
	Show(windowID platform.WindowID) error
	Hide(windowID platform.WindowID) error
	Raise(windowID platform.WindowID) error
	Lower(windowID platform.WindowID) error
}

// OverlayCounter reports live native overlays.
type OverlayCounter interface {
	Len() int
}

// Components are the consumers the dispatcher drives. All of them are used
// from the dispatcher goroutine only.
type Components struct {
	WM            *wm.Manager
	Borders       *border.Engine
	Overlays      OverlayCounter
	Transparency  *transparency.Manager
	Themes        *theme.Manager
	Monitors      *monitor.Reconciliator
	Windows       WindowOps
	StateDumpPath string
}

// Dispatcher drains the bus and routes every message synchronously.
type Dispatcher struct {
	bus     *Bus
	c       Components
	poll    time.Duration
	logger  *slog.Logger
	started time.Time
}

// NewDispatcher creates a dispatcher. A zero poll uses DefaultPollInterval.
func NewDispatcher(b *Bus, c Components, poll time.Duration, logger *slog.Logger) *Dispatcher {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{bus: b, c: c, poll: poll, logger: logger, started: time.Now()}
}

// Run processes messages until ctx is done or a stop command arrives, then
// tears down. It returns ctx.Err() when interrupted and nil after a stop.
func (d *Dispatcher) Run(ctx context.Context) error {
	var stop ipc.CommandType
	defer func() { d.teardown(stop) }()

	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	d.logger.Info("dispatcher started", "poll", d.poll)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		batch := d.bus.drain()
		if len(batch) == 0 {
			continue
		}
		batch = d.filter(batch)
		if err := ctx.Err(); err != nil {
			return err
		}

		for _, msg := range batch {
			if cmd := d.dispatch(msg); cmd.IsStop() {
				stop = cmd
				d.logger.Info("stop requested", "command", cmd)
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
}

// filter drops messages about windows the window manager does not know.
func (d *Dispatcher) filter(batch []Message) []Message {
	out := batch[:0]
	for _, msg := range batch {
		if d.keep(msg) {
			out = append(out, msg)
			continue
		}
		d.logger.Debug("filtered message", "message", Describe(msg))
	}
	return out
}

func (d *Dispatcher) keep(msg Message) bool {
	switch m := msg.(type) {
	case EventMessage:
		switch m.Event.Kind {
		case platform.EventManage, platform.EventShow:
			return d.c.WM.ShouldManage(m.Event.Window)
		}
		return d.c.WM.Known(m.Event.Window)
	case BorderControl:
		switch bm := m.Message.(type) {
		case border.Update:
			return bm.Hint == 0 || d.c.WM.Known(bm.Hint)
		case border.PassEvent:
			return d.c.WM.Known(bm.Window)
		}
	}
	return true
}

// dispatch handles one message. It returns the stop command when the
// message asked the dispatcher to end.
func (d *Dispatcher) dispatch(msg Message) ipc.CommandType {
	d.logger.Debug("processing message", "message", Describe(msg))

	var err error
	switch m := msg.(type) {
	case EventMessage:
		err = d.c.WM.ProcessEvent(m.Event)
	case CommandMessage:
		return d.handleCommands(m)
	case BorderControl:
		err = d.c.Borders.Handle(m.Message, d.c.WM.Snapshot())
	case TransparencyControl:
		err = d.c.Transparency.Update(d.c.WM.Snapshot())
	case MonitorControl:
		err = d.c.Monitors.Handle(m.Notification)
	case ReaperControl:
		if dead := d.c.WM.Reap(m.Alive); len(dead) > 0 {
			d.logger.Info("reaped windows", "windows", dead)
		}
	case ThemeControl:
		err = d.applyTheme(m.Theme)
	case WindowWithBorder:
		err = d.windowWithBorder(m)
	default:
		err = fmt.Errorf("unhandled message %T", msg)
	}
	if err != nil {
		d.logger.Error("message failed", "message", Describe(msg), "error", err)
	}
	return ""
}

func (d *Dispatcher) windowWithBorder(m WindowWithBorder) error {
	var (
		op  func(platform.WindowID) error
		msg border.Message
	)
	switch m.Action {
	case wm.WindowShow:
		op, msg = d.c.Windows.Show, border.Show{Window: m.Window}
	case wm.WindowHide:
		op, msg = d.c.Windows.Hide, border.Hide{Window: m.Window}
	case wm.WindowRaise:
		op, msg = d.c.Windows.Raise, border.Raise{Window: m.Window}
	case wm.WindowLower:
		op, msg = d.c.Windows.Lower, border.Lower{Window: m.Window}
	default:
		return fmt.Errorf("unknown window action %d", int(m.Action))
	}
	if err := op(m.Window); err != nil {
		return fmt.Errorf("%s window %d: %w", m.Action, m.Window, err)
	}
	return d.c.Borders.Handle(msg, d.c.WM.Snapshot())
}

func (d *Dispatcher) applyTheme(t theme.Theme) error {
	changed, err := d.c.Themes.Apply(t)
	if err != nil || !changed {
		return err
	}
	return d.c.Borders.Handle(border.ForceUpdate{}, d.c.WM.Snapshot())
}

func (d *Dispatcher) state() ipc.StateData {
	st := d.c.WM.State()
	settings := d.c.Borders.Settings()
	data := ipc.StateData{
		UptimeSeconds:  int64(time.Since(d.started).Seconds()),
		Borders:        len(d.c.Borders.Borders()),
		Implementation: string(settings.Implementation),
		BordersEnabled: settings.Enabled,
		Transparency:   d.c.Transparency.Enabled(),
		Theme:          d.c.Themes.Current(),
		Snapshot:       st.Snapshot,
		Known:          st.Known,
		Hidden:         st.Hidden,
	}
	if d.c.Overlays != nil {
		data.Overlays = d.c.Overlays.Len()
	}
	return data
}

// teardown runs once when Run returns, whatever the reason.
func (d *Dispatcher) teardown(stop ipc.CommandType) {
	d.bus.Close()

	if err := d.c.Borders.Handle(border.DestroyAll{}, d.c.WM.Snapshot()); err != nil {
		d.logger.Error("failed to destroy borders", "error", err)
	}
	if err := d.c.Transparency.Restore(); err != nil {
		d.logger.Error("failed to restore opacity", "error", err)
	}
	if err := d.dumpState(); err != nil {
		d.logger.Error("failed to write state dump", "error", err)
	}

	if stop == ipc.CommandStopIgnoreRestore {
		d.logger.Info("leaving hidden windows hidden")
		return
	}
	if err := d.c.WM.RestoreAll(); err != nil {
		d.logger.Error("failed to restore windows", "error", err)
	}
}

func (d *Dispatcher) dumpState() error {
	if d.c.StateDumpPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(d.state(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.WriteFile(d.c.StateDumpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", d.c.StateDumpPath, err)
	}
	d.logger.Info("state written", "path", d.c.StateDumpPath)
	return nil
}
