// Package overlay owns the lifecycle of border overlay windows. Every overlay
// lives on its own goroutine, pinned to an OS thread, which creates the native
// surface, serves requests from its inbox, and destroys the surface when told
// to quit. Callers only ever hold the native handle.
package overlay

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/1broseidon/tilewm/internal/platform"
)

// Event codes understood by Notify.
const (
	EventLocationChange uint32 = iota + 1
	EventShow
	EventHide
	EventFocus
)

// ErrCreateTimeout is returned when a hosting goroutine does not hand back
// its surface in time.
var ErrCreateTimeout = errors.New("overlay creation timed out")

// Frame is everything a surface needs to draw one border.
type Frame struct {
	Rect   platform.Rect
	Width  int
	Offset int
	Colour uint32
}

// Outer grows the tracked rectangle by the border width plus offset.
func (f Frame) Outer() platform.Rect {
	grow := f.Width + f.Offset
	return platform.Rect{
		X:      f.Rect.X - grow,
		Y:      f.Rect.Y - grow,
		Width:  f.Rect.Width + 2*grow,
		Height: f.Rect.Height + 2*grow,
	}
}

// Surface is one native overlay. Its methods are only called from the
// goroutine that created it.
type Surface interface {
	Handle() platform.WindowID
	Place(outer platform.Rect, thickness int)
	Paint(colour uint32)
	Show()
	Hide()
	Raise()
	Lower()
	Destroy()
}

// Stray is a native overlay found on the display by name.
type Stray struct {
	Handle platform.WindowID
	Name   string
}

// Factory creates native surfaces and finds leftovers.
type Factory interface {
	NewSurface(name string) (Surface, error)
	Strays() ([]Stray, error)
	DestroyStray(handle platform.WindowID) error
}

// Tracker reads the geometry of tracked windows.
type Tracker interface {
	WindowRect(windowID platform.WindowID) (platform.Rect, error)
}

// Options configures a Manager.
type Options struct {
	CreateTimeout time.Duration
	InboxSize     int
	Logger        *slog.Logger
}

type op int

const (
	opPlace op = iota
	opPaint
	opShow
	opHide
	opRaise
	opLower
	opEvent
)

type request struct {
	op       op
	frame    Frame
	event    uint32
	tracking platform.WindowID
}

type created struct {
	handle platform.WindowID
	err    error
}

type host struct {
	id     string
	inbox  chan request
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
	hidden bool
}

// exited reports whether the hosting goroutine has released its surface.
func (h *host) exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *host) stop() {
	h.once.Do(func() { close(h.quit) })
}

// Manager starts, addresses, and stops overlay goroutines. It is not safe for
// concurrent use and is meant to be driven from the dispatcher goroutine.
type Manager struct {
	factory       Factory
	tracker       Tracker
	logger        *slog.Logger
	createTimeout time.Duration
	inboxSize     int
	hosts         map[platform.WindowID]*host

	// stopping holds hosts told to quit whose goroutine may still own a
	// native surface.
	stopping []*host
}

// NewManager creates a manager around a native surface factory.
func NewManager(factory Factory, tracker Tracker, opts Options) *Manager {
	if opts.CreateTimeout <= 0 {
		opts.CreateTimeout = 2 * time.Second
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = 32
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		factory:       factory,
		tracker:       tracker,
		logger:        opts.Logger,
		createTimeout: opts.CreateTimeout,
		inboxSize:     opts.InboxSize,
		hosts:         make(map[platform.WindowID]*host),
	}
}

// Create starts a hosting goroutine and blocks until it hands back the native
// handle of the new surface.
func (m *Manager) Create(id string, tracking platform.WindowID, monitorIdx int) (platform.WindowID, error) {
	h := &host{
		id:    id,
		inbox: make(chan request, m.inboxSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	ready := make(chan created, 1)
	go m.serve(h, ready)

	timer := time.NewTimer(m.createTimeout)
	defer timer.Stop()

	select {
	case res := <-ready:
		if res.err != nil {
			return 0, fmt.Errorf("create overlay %s: %w", id, res.err)
		}
		m.hosts[res.handle] = h
		m.logger.Debug("overlay created",
			"id", id,
			"handle", res.handle,
			"tracking", tracking,
			"monitor", monitorIdx)
		return res.handle, nil
	case <-timer.C:
		h.stop()
		m.stopping = append(m.stopping, h)
		return 0, fmt.Errorf("create overlay %s: %w", id, ErrCreateTimeout)
	}
}

func (m *Manager) serve(h *host, ready chan<- created) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(h.done)

	surface, err := m.factory.NewSurface(h.id)
	if err != nil {
		ready <- created{err: err}
		return
	}
	ready <- created{handle: surface.Handle()}

	var frame Frame
	hidden := false
	for {
		// quit wins over queued requests.
		select {
		case <-h.quit:
			surface.Destroy()
			return
		default:
		}
		select {
		case <-h.quit:
			surface.Destroy()
			return
		case req := <-h.inbox:
			switch req.op {
			case opPlace:
				frame.Rect, frame.Width, frame.Offset = req.frame.Rect, req.frame.Width, req.frame.Offset
				surface.Place(frame.Outer(), frame.Width)
				if !hidden {
					surface.Show()
				}
			case opPaint:
				frame.Colour = req.frame.Colour
				surface.Paint(frame.Colour)
			case opShow:
				hidden = false
				surface.Show()
			case opHide:
				hidden = true
				surface.Hide()
			case opRaise:
				surface.Raise()
			case opLower:
				surface.Lower()
			case opEvent:
				switch req.event {
				case EventLocationChange:
					rect, err := m.tracker.WindowRect(req.tracking)
					if err != nil {
						continue
					}
					frame.Rect = rect
					surface.Place(frame.Outer(), frame.Width)
				case EventShow:
					hidden = false
					surface.Show()
				case EventHide:
					hidden = true
					surface.Hide()
				case EventFocus:
					surface.Raise()
				}
			}
		}
	}
}

func (m *Manager) post(handle platform.WindowID, req request) {
	h, ok := m.hosts[handle]
	if !ok {
		m.logger.Debug("overlay request for unknown handle", "handle", handle)
		return
	}
	select {
	case h.inbox <- req:
	default:
		m.logger.Warn("overlay inbox full, dropping request", "id", h.id, "handle", handle)
	}
}

// Place positions the surface around the frame's tracked rectangle.
func (m *Manager) Place(handle platform.WindowID, frame Frame) {
	m.post(handle, request{op: opPlace, frame: frame})
}

// Invalidate repaints the surface with the frame's colour.
func (m *Manager) Invalidate(handle platform.WindowID, frame Frame) {
	m.post(handle, request{op: opPaint, frame: frame})
}

// Show maps a hidden surface.
func (m *Manager) Show(handle platform.WindowID) {
	if h, ok := m.hosts[handle]; ok {
		h.hidden = false
	}
	m.post(handle, request{op: opShow})
}

// Hide unmaps the surface without destroying it.
func (m *Manager) Hide(handle platform.WindowID) {
	if h, ok := m.hosts[handle]; ok {
		h.hidden = true
	}
	m.post(handle, request{op: opHide})
}

// Raise moves the surface to the top of the stacking order.
func (m *Manager) Raise(handle platform.WindowID) {
	m.post(handle, request{op: opRaise})
}

// Lower moves the surface to the bottom of the stacking order.
func (m *Manager) Lower(handle platform.WindowID) {
	m.post(handle, request{op: opLower})
}

// Notify forwards a native event about the tracked window to the surface.
func (m *Manager) Notify(handle platform.WindowID, event uint32, tracking platform.WindowID) {
	if h, ok := m.hosts[handle]; ok {
		switch event {
		case EventShow:
			h.hidden = false
		case EventHide:
			h.hidden = true
		}
	}
	m.post(handle, request{op: opEvent, event: event, tracking: tracking})
}

// Visible reports whether the surface exists and has not been hidden.
func (m *Manager) Visible(handle platform.WindowID) bool {
	h, ok := m.hosts[handle]
	return ok && !h.hidden
}

// Destroy tells the hosting goroutine to destroy its surface and exit.
// Destroying an unknown handle is a no-op.
func (m *Manager) Destroy(handle platform.WindowID) {
	h, ok := m.hosts[handle]
	if !ok {
		return
	}
	delete(m.hosts, handle)
	h.stop()
	m.stopping = append(m.stopping, h)
	m.logger.Debug("overlay destroyed", "id", h.id, "handle", handle)
}

// DestroyStray destroys native overlays that no goroutine owns. Surfaces of
// hosts that were told to quit but have not exited yet are left to their host.
func (m *Manager) DestroyStray() error {
	strays, err := m.factory.Strays()
	if err != nil {
		return fmt.Errorf("list stray overlays: %w", err)
	}
	m.pruneStopping()
	live := make(map[string]bool, len(m.hosts)+len(m.stopping))
	for _, h := range m.hosts {
		live[h.id] = true
	}
	for _, h := range m.stopping {
		live[h.id] = true
	}

	var errs []error
	for _, s := range strays {
		if live[s.Name] {
			continue
		}
		if err := m.factory.DestroyStray(s.Handle); err != nil {
			errs = append(errs, fmt.Errorf("destroy stray overlay %d: %w", s.Handle, err))
			continue
		}
		m.logger.Info("destroyed stray overlay", "name", s.Name, "handle", s.Handle)
	}
	return errors.Join(errs...)
}

func (m *Manager) pruneStopping() {
	kept := m.stopping[:0]
	for _, h := range m.stopping {
		if !h.exited() {
			kept = append(kept, h)
		}
	}
	clear(m.stopping[len(kept):])
	m.stopping = kept
}

// Len returns the number of live overlays.
func (m *Manager) Len() int {
	return len(m.hosts)
}
