//go:build linux

package platform

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/1broseidon/tilewm/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// ErrNoDisplay is returned when a window is not on any known display.
var ErrNoDisplay = errors.New("window is not on any display")

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// Quit stops a running EventLoop.
func (b *LinuxBackend) Quit() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// Connection returns the underlying X11 connection.
func (b *LinuxBackend) Connection() *x11.Connection {
	return b.conn
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// Watch translates X11 client notifications into platform events.
func (b *LinuxBackend) Watch(handler func(Event)) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.Watch(func(ev x11.WindowEvent) {
		id := WindowID(ev.Window)
		switch ev.Kind {
		case x11.ClientAdded:
			handler(Event{Kind: EventManage, Window: id})
		case x11.ClientRemoved:
			handler(Event{Kind: EventUnmanage, Window: id})
		case x11.WindowDestroyed:
			handler(Event{Kind: EventDestroy, Window: id})
		case x11.ActiveChanged:
			handler(Event{Kind: EventFocusChange, Window: id})
		case x11.WindowMapped:
			handler(Event{Kind: EventShow, Window: id})
		case x11.WindowUnmapped:
			handler(Event{Kind: EventHide, Window: id})
		case x11.WindowConfigured:
			handler(Event{Kind: EventLocationChange, Window: id})
		case x11.TitleChanged:
			handler(Event{Kind: EventTitleUpdate, Window: id})
		case x11.StateChanged:
			if conn.HasState(ev.Window, "_NET_WM_STATE_HIDDEN") {
				handler(Event{Kind: EventMinimize, Window: id})
			} else {
				handler(Event{Kind: EventShow, Window: id})
			}
		}
	})
}

// Displays returns all active displays.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, Display{
			ID:     m.ID,
			Name:   m.Name,
			Bounds: rectFromMonitor(m),
			Usable: rectFromMonitor(conn.UsableArea(m)),
		})
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})

	return displays, nil
}

// ActiveWindow returns the currently active/focused window ID.
func (b *LinuxBackend) ActiveWindow() (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	wid, err := conn.GetActiveWindow()
	if err != nil {
		return 0, err
	}
	return WindowID(wid), nil
}

// ClientWindows lists the window manager's client windows.
func (b *LinuxBackend) ClientWindows() ([]WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	clients, err := conn.ClientList()
	if err != nil {
		return nil, err
	}
	ids := make([]WindowID, 0, len(clients))
	for _, c := range clients {
		ids = append(ids, WindowID(c))
	}
	return ids, nil
}

// Describe returns metadata and geometry for one window.
func (b *LinuxBackend) Describe(windowID WindowID) (Window, error) {
	conn, err := b.connection()
	if err != nil {
		return Window{}, err
	}
	rect, err := b.WindowRect(windowID)
	if err != nil {
		return Window{}, err
	}

	wid := xproto.Window(windowID)
	pid := 0
	if p, err := ewmh.WmPidGet(conn.XUtil, wid); err == nil {
		pid = int(p)
	}
	return Window{
		ID:     windowID,
		PID:    pid,
		AppID:  b.windowAppID(wid),
		Title:  b.windowTitle(wid),
		Bounds: rect,
	}, nil
}

// Manageable reports whether the window is a live, normal, WM-managed window.
func (b *LinuxBackend) Manageable(windowID WindowID) bool {
	conn, err := b.connection()
	if err != nil {
		return false
	}
	wid := xproto.Window(windowID)
	if !conn.WindowExists(wid) || conn.IsOverrideRedirect(wid) {
		return false
	}
	if !conn.IsNormalWindow(wid) {
		return false
	}
	return !conn.HasState(wid, "_NET_WM_STATE_SKIP_TASKBAR")
}

// WindowRect returns the window's geometry in root coordinates.
func (b *LinuxBackend) WindowRect(windowID WindowID) (Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return Rect{}, err
	}
	g, err := conn.WindowGeometry(xproto.Window(windowID))
	if err != nil {
		return Rect{}, err
	}
	return Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}, nil
}

// IsMaximized reports whether the window is maximized or fullscreen.
func (b *LinuxBackend) IsMaximized(windowID WindowID) bool {
	conn, err := b.connection()
	if err != nil {
		return false
	}
	return conn.IsMaximized(xproto.Window(windowID))
}

// DisplayForWindow returns the ID of the display containing the window centre.
func (b *LinuxBackend) DisplayForWindow(windowID WindowID) (int, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	monitors, err := conn.GetMonitors()
	if err != nil {
		return 0, err
	}
	m := conn.MonitorForWindow(monitors, xproto.Window(windowID))
	if m == nil {
		return 0, ErrNoDisplay
	}
	return m.ID, nil
}

// Show maps the window.
func (b *LinuxBackend) Show(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.MapWindow(xproto.Window(windowID))
}

// Hide minimizes the window via WM_CHANGE_STATE.
func (b *LinuxBackend) Hide(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.Iconify(xproto.Window(windowID))
}

// Raise moves the window to the top of the stacking order.
func (b *LinuxBackend) Raise(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.RaiseWindow(xproto.Window(windowID))
}

// Lower moves the window to the bottom of the stacking order.
func (b *LinuxBackend) Lower(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.LowerWindow(xproto.Window(windowID))
}

// Focus activates the window through the window manager.
func (b *LinuxBackend) Focus(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.FocusWindow(xproto.Window(windowID))
}

// SetAccent paints the window's own X11 border with an RGB pixel.
func (b *LinuxBackend) SetAccent(windowID WindowID, colour uint32) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.SetBorderPixel(xproto.Window(windowID), colour)
}

// SetOpacity sets the compositor opacity hint; 255 is fully opaque.
func (b *LinuxBackend) SetOpacity(windowID WindowID, alpha uint8) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.SetOpacity(xproto.Window(windowID), alpha)
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func rectFromMonitor(m x11.Monitor) Rect {
	return Rect{
		X:      m.X,
		Y:      m.Y,
		Width:  m.Width,
		Height: m.Height,
	}
}

func (b *LinuxBackend) windowAppID(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(b.conn.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

func (b *LinuxBackend) windowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(b.conn.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(b.conn.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	return ""
}
