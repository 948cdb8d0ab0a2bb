package bus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/1broseidon/tilewm/internal/border"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/theme"
)

// ErrPaused is returned for commands that are ignored while paused.
var ErrPaused = errors.New("paused")

// handleCommands runs a command batch in order and sends one reply. A stop
// command ends the batch.
func (d *Dispatcher) handleCommands(m CommandMessage) ipc.CommandType {
	var (
		stop ipc.CommandType
		last *ipc.Response
		errs []string
	)
	for _, req := range m.Requests {
		if d.c.WM.Paused() && !req.Command.AllowedWhilePaused() {
			d.logger.Debug("ignoring command while paused", "command", req.Command)
			errs = append(errs, fmt.Sprintf("%s: %v", req.Command, ErrPaused))
			continue
		}

		resp, err := d.handleCommand(req)
		if err != nil {
			d.logger.Error("command failed", "command", req.Command, "error", err)
			errs = append(errs, fmt.Sprintf("%s: %v", req.Command, err))
			continue
		}
		last = resp
		if req.Command.IsStop() {
			stop = req.Command
			break
		}
	}

	if m.Reply != nil {
		if len(errs) > 0 {
			last = ipc.NewErrorResponse(strings.Join(errs, "; "))
		}
		select {
		case m.Reply <- last:
		default:
			d.logger.Warn("command reply dropped")
		}
	}
	return stop
}

func (d *Dispatcher) handleCommand(req *ipc.Request) (*ipc.Response, error) {
	switch req.Command {
	case ipc.CommandStop, ipc.CommandStopIgnoreRestore:
		return ipc.NewOKResponse(nil)
	case ipc.CommandTogglePause:
		paused := d.c.WM.TogglePause()
		return ipc.NewOKResponse(map[string]bool{"paused": paused})
	case ipc.CommandState:
		return ipc.NewOKResponse(d.state())
	case ipc.CommandForceUpdate:
		return ok(d.forceUpdate())
	case ipc.CommandToggleMonocle:
		return ok(d.c.WM.ToggleMonocle())
	case ipc.CommandToggleTiling:
		return ok(d.c.WM.ToggleTiling())
	case ipc.CommandToggleFloat:
		return ok(d.c.WM.ToggleFloat())
	case ipc.CommandToggleLock:
		return ok(d.c.WM.ToggleLock())
	case ipc.CommandFocusMonitor:
		var p ipc.IntPayload
		if err := req.DecodePayload(&p); err != nil {
			return nil, err
		}
		return ok(d.c.WM.FocusMonitor(p.Value))
	case ipc.CommandFocusWorkspace:
		var p ipc.IntPayload
		if err := req.DecodePayload(&p); err != nil {
			return nil, err
		}
		return ok(d.c.WM.FocusWorkspace(p.Value))
	case ipc.CommandBorder,
		ipc.CommandBorderWidth,
		ipc.CommandBorderOffset,
		ipc.CommandBorderStyle,
		ipc.CommandBorderImplementation,
		ipc.CommandBorderColour:
		return ok(d.borderSetting(req))
	case ipc.CommandTransparency:
		var p ipc.EnabledPayload
		if err := req.DecodePayload(&p); err != nil {
			return nil, err
		}
		if err := d.c.Transparency.SetEnabled(p.Enabled); err != nil {
			return nil, err
		}
		return ok(d.c.Transparency.Update(d.c.WM.Snapshot()))
	case ipc.CommandTransparencyAlpha:
		var p ipc.IntPayload
		if err := req.DecodePayload(&p); err != nil {
			return nil, err
		}
		if p.Value < 0 || p.Value > 255 {
			return nil, fmt.Errorf("alpha %d out of range 0-255", p.Value)
		}
		d.c.Transparency.SetAlpha(uint8(p.Value))
		return ok(d.c.Transparency.Update(d.c.WM.Snapshot()))
	case ipc.CommandTheme:
		var p ipc.ThemePayload
		if err := req.DecodePayload(&p); err != nil {
			return nil, err
		}
		return ok(d.applyTheme(theme.Theme{Flavour: p.Flavour, Colours: p.Colours}))
	}
	return nil, fmt.Errorf("unknown command: %s", req.Command)
}

func ok(err error) (*ipc.Response, error) {
	if err != nil {
		return nil, err
	}
	return ipc.NewOKResponse(nil)
}

func (d *Dispatcher) forceUpdate() error {
	snap := d.c.WM.Snapshot()
	return errors.Join(
		d.c.Borders.Handle(border.ForceUpdate{}, snap),
		d.c.Transparency.Update(snap),
	)
}

// borderSetting applies one BORDER_* command and repaints.
func (d *Dispatcher) borderSetting(req *ipc.Request) error {
	s := d.c.Borders.Settings()

	switch req.Command {
	case ipc.CommandBorder:
		var p ipc.EnabledPayload
		if err := req.DecodePayload(&p); err != nil {
			return err
		}
		s.Enabled = p.Enabled
	case ipc.CommandBorderWidth, ipc.CommandBorderOffset:
		var p ipc.IntPayload
		if err := req.DecodePayload(&p); err != nil {
			return err
		}
		if req.Command == ipc.CommandBorderWidth {
			if p.Value < 0 {
				return fmt.Errorf("border width %d must not be negative", p.Value)
			}
			s.Width = p.Value
		} else {
			s.Offset = p.Value
		}
	case ipc.CommandBorderStyle:
		var p ipc.StringPayload
		if err := req.DecodePayload(&p); err != nil {
			return err
		}
		style, err := border.ParseStyle(p.Value)
		if err != nil {
			return err
		}
		s.Style = style
	case ipc.CommandBorderImplementation:
		var p ipc.StringPayload
		if err := req.DecodePayload(&p); err != nil {
			return err
		}
		impl, err := border.ParseImplementation(p.Value)
		if err != nil {
			return err
		}
		if impl != s.Implementation {
			if err := d.c.Borders.Handle(border.DestroyAll{}, d.c.WM.Snapshot()); err != nil {
				d.logger.Warn("failed to clear borders", "error", err)
			}
		}
		s.Implementation = impl
	case ipc.CommandBorderColour:
		var p ipc.BorderColourPayload
		if err := req.DecodePayload(&p); err != nil {
			return err
		}
		kind, err := border.ParseKind(p.Kind)
		if err != nil {
			return err
		}
		pixel, err := theme.ParseHex(p.Colour)
		if err != nil {
			return err
		}
		s.Colours.Set(kind, pixel)
	}

	d.c.Borders.SetSettings(s)
	d.logger.Info("border settings changed", "command", req.Command)
	return d.c.Borders.Handle(border.ForceUpdate{}, d.c.WM.Snapshot())
}
