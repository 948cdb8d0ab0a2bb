package border

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/1broseidon/tilewm/internal/overlay"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/snapshot"
)

// Platform is the window-system access the engine needs.
type Platform interface {
	ActiveWindow() (platform.WindowID, error)
	WindowRect(windowID platform.WindowID) (platform.Rect, error)
	IsMaximized(windowID platform.WindowID) bool
	DisplayForWindow(windowID platform.WindowID) (int, error)
	SetAccent(windowID platform.WindowID, colour uint32) error
}

// Overlays creates and drives native overlay windows.
type Overlays interface {
	Create(id string, tracking platform.WindowID, monitorIdx int) (platform.WindowID, error)
	Place(handle platform.WindowID, frame overlay.Frame)
	Invalidate(handle platform.WindowID, frame overlay.Frame)
	Show(handle platform.WindowID)
	Hide(handle platform.WindowID)
	Raise(handle platform.WindowID)
	Lower(handle platform.WindowID)
	Notify(handle platform.WindowID, event uint32, tracking platform.WindowID)
	Visible(handle platform.WindowID) bool
	Destroy(handle platform.WindowID)
	DestroyStray() error
}

// Settings are the engine-wide drawing parameters.
type Settings struct {
	Enabled        bool
	Implementation Implementation
	Width          int
	Offset         int
	Style          Style
	Colours        Colours
}

// DefaultSettings returns overlay borders with the built-in palette.
func DefaultSettings() Settings {
	return Settings{
		Enabled:        true,
		Implementation: ImplOverlay,
		Width:          8,
		Offset:         -1,
		Style:          StyleSystem,
		Colours:        DefaultColours(),
	}
}

// Engine owns every border and the reverse index from tracked window to
// border id. It is not safe for concurrent use.
type Engine struct {
	platform Platform
	overlays Overlays
	logger   *slog.Logger
	settings Settings

	borders  map[string]*Border
	windows  map[platform.WindowID]string
	previous snapshot.Snapshot
	tracking platform.WindowID
	accented map[platform.WindowID]bool
}

// New creates an engine with no borders.
func New(settings Settings, p Platform, o Overlays, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		platform: p,
		overlays: o,
		logger:   logger,
		settings: settings,
		borders:  make(map[string]*Border),
		windows:  make(map[platform.WindowID]string),
		accented: make(map[platform.WindowID]bool),
	}
}

// Settings returns the current drawing parameters.
func (e *Engine) Settings() Settings {
	return e.settings
}

// SetSettings replaces the drawing parameters. The next forced update
// applies them to existing borders.
func (e *Engine) SetSettings(s Settings) {
	e.settings = s
}

// Handle executes one message against the given snapshot.
func (e *Engine) Handle(msg Message, current snapshot.Snapshot) error {
	switch m := msg.(type) {
	case Update:
		return e.Reconcile(current, m.Hint, false)
	case ForceUpdate:
		return e.Reconcile(current, 0, true)
	case PassEvent:
		if b := e.borderFor(m.Window); b != nil {
			e.overlays.Notify(b.Handle, m.Event, m.Window)
		}
	case Delete:
		delete(e.accented, m.Window)
		if id, ok := e.windows[m.Window]; ok {
			e.removeBorder(id)
		}
	case Show:
		if b := e.borderFor(m.Window); b != nil {
			e.overlays.Show(b.Handle)
		}
	case Hide:
		if b := e.borderFor(m.Window); b != nil {
			e.overlays.Hide(b.Handle)
		}
	case Raise:
		if b := e.borderFor(m.Window); b != nil {
			e.overlays.Raise(b.Handle)
		}
	case Lower:
		if b := e.borderFor(m.Window); b != nil {
			e.overlays.Lower(b.Handle)
		}
	case DestroyAll:
		e.destroyAll()
		return errors.Join(e.ClearAccents(), e.overlays.DestroyStray())
	default:
		return fmt.Errorf("unhandled border message %T", msg)
	}
	return nil
}

// Reconcile runs a pass against the snapshot retained from the last pass.
func (e *Engine) Reconcile(current snapshot.Snapshot, hint platform.WindowID, forced bool) error {
	return e.reconcile(e.previous, current, hint, forced)
}

func (e *Engine) reconcile(previous, current snapshot.Snapshot, hint platform.WindowID, forced bool) error {
	if e.settings.Implementation == ImplAccent {
		err := e.applyAccents(current)
		e.previous = current.Clone()
		e.tracking = hint
		return err
	}

	foreground, _ := e.platform.ActiveWindow()
	if !e.shouldProcess(previous, current, hint, foreground, forced) {
		return nil
	}

	if !e.settings.Enabled || current.Paused {
		e.destroyAll()
		e.previous = current.Clone()
		return nil
	}

	layerChanged := previous.Layer != current.Layer
	for monitorIdx := range current.Monitors {
		e.reconcileMonitor(current, monitorIdx, foreground, layerChanged || forced)
	}
	e.removeOrphanedMonitors(len(current.Monitors))

	e.previous = current.Clone()
	e.tracking = hint
	return nil
}

// shouldProcess is the change gate. Every condition is independent.
func (e *Engine) shouldProcess(previous, current snapshot.Snapshot, hint, foreground platform.WindowID, forced bool) bool {
	process := !(current.MonitorsEqual(previous) && current.PendingMoveEqual(previous))

	if current.Paused != previous.Paused {
		process = true
	}

	// a retile with no borders yet
	if !process && len(e.borders) == 0 {
		process = true
	}

	if !process {
		if b := e.borderFor(hint); b != nil && b.Kind.unfocused() {
			process = true
		}
	}

	if !process {
		for _, w := range current.FloatingWindows {
			if w == hint {
				process = true
				break
			}
			if b := e.borderFor(w); b != nil && w != foreground && b.Kind == KindFloating {
				process = true
				break
			}
		}
	}

	if !process && e.tracking != 0 && e.tracking != hint {
		process = true
	}

	return process || forced
}

func (e *Engine) reconcileMonitor(current snapshot.Snapshot, monitorIdx int, foreground platform.WindowID, repaint bool) {
	m := &current.Monitors[monitorIdx]
	ws := m.FocusedWorkspace()
	if ws == nil {
		return
	}
	focusedMonitor := monitorIdx == current.FocusedMonitorIdx

	if !ws.Tile {
		e.removeBorders(monitorIdx, func(string, *Border) bool { return true })
		return
	}

	if foreground != 0 && e.platform.IsMaximized(foreground) {
		if display, err := e.platform.DisplayForWindow(foreground); err == nil && display == m.ID {
			e.removeBorders(monitorIdx, func(string, *Border) bool { return true })
			return
		}
	}

	if ws.Monocle != nil {
		e.reconcileMonocle(*ws.Monocle, monitorIdx, focusedMonitor, repaint)
		return
	}

	keep := make(map[string]bool, len(ws.Containers)+len(ws.FloatingWindows))
	for _, c := range ws.Containers {
		keep[c.ID] = true
	}
	for _, w := range ws.FloatingWindows {
		keep[floatingID(w)] = true
	}
	e.removeBorders(monitorIdx, func(id string, _ *Border) bool { return !keep[id] })

	for idx, c := range ws.Containers {
		focused := c.FocusedWindow()
		if focused == 0 {
			continue
		}
		b, isNew, err := e.ensure(c.ID, focused, monitorIdx)
		if err != nil {
			e.logger.Error("failed to create border, skipping monitor",
				"id", c.ID,
				"monitor", monitorIdx,
				"error", err)
			return
		}

		kind := KindUnfocused
		if idx == ws.FocusedContainerIdx && focusedMonitor && focused == foreground {
			kind = KindSingle
			if len(c.Windows) > 1 {
				kind = KindStack
			}
		} else if c.Locked {
			kind = KindUnfocusedLocked
		}

		e.apply(b, isNew, kind, focused, monitorIdx, repaint)
	}

	for _, w := range ws.FloatingWindows {
		b, isNew, err := e.ensure(floatingID(w), w, monitorIdx)
		if err != nil {
			e.logger.Error("failed to create floating border, skipping monitor",
				"window", w,
				"monitor", monitorIdx,
				"error", err)
			return
		}
		kind := KindUnfocused
		if w == foreground {
			kind = KindFloating
		}
		e.apply(b, isNew, kind, w, monitorIdx, repaint)
	}
}

func (e *Engine) reconcileMonocle(c snapshot.Container, monitorIdx int, focusedMonitor, repaint bool) {
	focused := c.FocusedWindow()
	if focused == 0 {
		return
	}
	b, isNew, err := e.ensure(c.ID, focused, monitorIdx)
	if err != nil {
		e.logger.Error("failed to create monocle border, skipping monitor",
			"id", c.ID,
			"monitor", monitorIdx,
			"error", err)
		return
	}

	kind := KindMonocle
	if !focusedMonitor {
		kind = KindUnfocused
	}
	if !e.apply(b, isNew, kind, focused, monitorIdx, repaint) {
		return
	}

	handle := b.Handle
	e.removeBorders(monitorIdx, func(_ string, other *Border) bool { return other.Handle != handle })
}

// apply classifies, retracks, and repositions one border. It returns false
// when the border was dropped because its window has no geometry.
func (e *Engine) apply(b *Border, isNew bool, kind Kind, tracking platform.WindowID, monitorIdx int, repaint bool) bool {
	b.Style = e.settings.Style
	b.Width = e.settings.Width
	b.Offset = e.settings.Offset

	lastKind := b.Kind
	b.Kind = kind
	e.retrack(b, tracking)
	b.MonitorIdx = monitorIdx

	rect, err := e.platform.WindowRect(tracking)
	if err != nil {
		e.logger.Debug("tracked window has no geometry, dropping border",
			"id", b.ID,
			"window", tracking,
			"error", err)
		e.removeBorder(b.ID)
		return false
	}
	b.Rect = rect

	if isNew || lastKind != kind || repaint {
		frame := e.frame(b)
		e.overlays.Place(b.Handle, frame)
		e.overlays.Invalidate(b.Handle, frame)
	}

	e.claim(tracking, b.ID)
	return true
}

// ensure returns the border for id, creating it when missing.
func (e *Engine) ensure(id string, tracking platform.WindowID, monitorIdx int) (*Border, bool, error) {
	if b, ok := e.borders[id]; ok {
		return b, false, nil
	}
	handle, err := e.overlays.Create(id, tracking, monitorIdx)
	if err != nil {
		return nil, false, err
	}
	b := &Border{
		ID:         id,
		Handle:     handle,
		Tracking:   tracking,
		MonitorIdx: monitorIdx,
		Style:      e.settings.Style,
		Width:      e.settings.Width,
		Offset:     e.settings.Offset,
	}
	e.borders[id] = b
	return b, true, nil
}

// retrack points the border at a new window, releasing the old index entry
// only if it still names this border.
func (e *Engine) retrack(b *Border, tracking platform.WindowID) {
	if b.Tracking == tracking {
		return
	}
	if id, ok := e.windows[b.Tracking]; ok && id == b.ID {
		delete(e.windows, b.Tracking)
	}
	b.Tracking = tracking
	if !e.overlays.Visible(b.Handle) {
		e.overlays.Show(b.Handle)
	}
}

// claim records that window is tracked by id. Another live border still
// tracking the same window is destroyed.
func (e *Engine) claim(window platform.WindowID, id string) {
	if other, ok := e.windows[window]; ok && other != id {
		if b, ok := e.borders[other]; ok && b.Tracking == window {
			e.removeBorder(other)
		}
	}
	e.windows[window] = id
}

func (e *Engine) frame(b *Border) overlay.Frame {
	return overlay.Frame{
		Rect:   b.Rect,
		Width:  b.Width,
		Offset: b.Offset,
		Colour: e.settings.Colours.For(b.Kind),
	}
}

// removeBorders destroys visible borders on the monitor matching cond.
// Hidden borders are kept.
func (e *Engine) removeBorders(monitorIdx int, cond func(id string, b *Border) bool) {
	for _, id := range e.sortedIDs() {
		b := e.borders[id]
		if b.MonitorIdx != monitorIdx || !cond(id, b) {
			continue
		}
		if !e.overlays.Visible(b.Handle) {
			continue
		}
		e.removeBorder(id)
	}
}

func (e *Engine) removeOrphanedMonitors(monitors int) {
	for _, id := range e.sortedIDs() {
		b := e.borders[id]
		if b.MonitorIdx >= monitors && e.overlays.Visible(b.Handle) {
			e.removeBorder(id)
		}
	}
}

func (e *Engine) removeBorder(id string) {
	b, ok := e.borders[id]
	if !ok {
		return
	}
	delete(e.borders, id)
	if owner, ok := e.windows[b.Tracking]; ok && owner == id {
		delete(e.windows, b.Tracking)
	}
	e.overlays.Destroy(b.Handle)
}

func (e *Engine) destroyAll() {
	for _, id := range e.sortedIDs() {
		e.overlays.Destroy(e.borders[id].Handle)
	}
	e.borders = make(map[string]*Border)
	e.windows = make(map[platform.WindowID]string)
}

func (e *Engine) borderFor(window platform.WindowID) *Border {
	if window == 0 {
		return nil
	}
	id, ok := e.windows[window]
	if !ok {
		return nil
	}
	return e.borders[id]
}

func (e *Engine) sortedIDs() []string {
	ids := make([]string, 0, len(e.borders))
	for id := range e.borders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WindowBorder returns the border tracking window.
func (e *Engine) WindowBorder(window platform.WindowID) (Border, bool) {
	b := e.borderFor(window)
	if b == nil {
		return Border{}, false
	}
	return *b, true
}

// Borders returns copies of every border ordered by id.
func (e *Engine) Borders() []Border {
	out := make([]Border, 0, len(e.borders))
	for _, id := range e.sortedIDs() {
		out = append(out, *e.borders[id])
	}
	return out
}

func floatingID(w platform.WindowID) string {
	return strconv.FormatUint(uint64(w), 10)
}
