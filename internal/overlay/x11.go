package overlay

import (
	"strings"

	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// X11Factory draws each border as four override-redirect bar windows.
type X11Factory struct {
	conn *x11.Connection
}

var _ Factory = (*X11Factory)(nil)

// NewX11Factory creates a factory on an existing X connection.
func NewX11Factory(conn *x11.Connection) *X11Factory {
	return &X11Factory{conn: conn}
}

// NewSurface creates the bar windows for one border. They stay unmapped
// until the first Place.
func (f *X11Factory) NewSurface(name string) (Surface, error) {
	bars, err := f.conn.CreateBars(name)
	if err != nil {
		return nil, err
	}
	return &barSurface{conn: f.conn, bars: bars}, nil
}

// Strays lists every bar window carrying the overlay name prefix.
func (f *X11Factory) Strays() ([]Stray, error) {
	windows, err := f.conn.StrayOverlays()
	if err != nil {
		return nil, err
	}
	strays := make([]Stray, 0, len(windows))
	for _, w := range windows {
		name, err := ewmh.WmNameGet(f.conn.XUtil, w)
		if err != nil {
			continue
		}
		strays = append(strays, Stray{
			Handle: platform.WindowID(w),
			Name:   strings.TrimPrefix(name, x11.OverlayPrefix),
		})
	}
	return strays, nil
}

// DestroyStray destroys one leftover bar window.
func (f *X11Factory) DestroyStray(handle platform.WindowID) error {
	return f.conn.DestroyWindow(xproto.Window(handle))
}

type barSurface struct {
	conn *x11.Connection
	bars x11.Bars
}

func (s *barSurface) Handle() platform.WindowID {
	return platform.WindowID(s.bars.Top)
}

func (s *barSurface) Place(outer platform.Rect, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	s.conn.PlaceBars(s.bars, outer.X, outer.Y, outer.Width, outer.Height, thickness)
}

func (s *barSurface) Paint(colour uint32) { s.conn.PaintBars(s.bars, colour) }
func (s *barSurface) Show()               { s.conn.MapBars(s.bars) }
func (s *barSurface) Hide()               { s.conn.UnmapBars(s.bars) }
func (s *barSurface) Raise()              { s.conn.RestackBars(s.bars, true) }
func (s *barSurface) Lower()              { s.conn.RestackBars(s.bars, false) }
func (s *barSurface) Destroy()            { s.conn.DestroyBars(s.bars) }
