package border

import (
	"errors"
	"fmt"

	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/snapshot"
)

// applyAccents recolours tracked windows' own frames instead of drawing
// overlays. Failures are collected and the pass always completes.
func (e *Engine) applyAccents(current snapshot.Snapshot) error {
	if !e.settings.Enabled || current.Paused {
		return e.ClearAccents()
	}
	foreground, _ := e.platform.ActiveWindow()

	var errs []error
	set := func(w platform.WindowID, kind Kind) {
		if w == 0 {
			return
		}
		if err := e.platform.SetAccent(w, e.settings.Colours.For(kind)); err != nil {
			errs = append(errs, fmt.Errorf("set accent on %d: %w", w, err))
			return
		}
		e.accented[w] = true
	}

	for monitorIdx := range current.Monitors {
		ws := current.Monitors[monitorIdx].FocusedWorkspace()
		if ws == nil {
			continue
		}
		focusedMonitor := monitorIdx == current.FocusedMonitorIdx

		if ws.Monocle != nil {
			kind := KindMonocle
			if !focusedMonitor {
				kind = KindUnfocused
			}
			set(ws.Monocle.FocusedWindow(), kind)
			continue
		}

		for idx, c := range ws.Containers {
			kind := KindUnfocused
			switch {
			case idx == ws.FocusedContainerIdx && focusedMonitor && len(c.Windows) > 1:
				kind = KindStack
			case idx == ws.FocusedContainerIdx && focusedMonitor:
				kind = KindSingle
			case c.Locked:
				kind = KindUnfocusedLocked
			}
			set(c.FocusedWindow(), kind)
		}

		for _, w := range ws.FloatingWindows {
			kind := KindUnfocused
			if w == foreground {
				kind = KindFloating
			}
			set(w, kind)
		}
	}
	return errors.Join(errs...)
}

// ClearAccents repaints every accented frame with the unfocused colour and
// forgets it.
func (e *Engine) ClearAccents() error {
	var errs []error
	for w := range e.accented {
		if err := e.platform.SetAccent(w, e.settings.Colours.Unfocused); err != nil {
			errs = append(errs, fmt.Errorf("clear accent on %d: %w", w, err))
		}
		delete(e.accented, w)
	}
	return errors.Join(errs...)
}
