package x11

import (
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// OverlayPrefix starts the _NET_WM_NAME of every overlay window we create.
const OverlayPrefix = "tilewm-border-"

// Bars is a rectangular border made of 4 thin override-redirect windows.
type Bars struct {
	Top    xproto.Window
	Bottom xproto.Window
	Left   xproto.Window
	Right  xproto.Window
}

func (b Bars) all() []xproto.Window {
	return []xproto.Window{b.Top, b.Bottom, b.Left, b.Right}
}

// CreateBars creates the 4 unmapped bar windows and names them.
func (c *Connection) CreateBars(name string) (Bars, error) {
	var bars Bars
	created := make([]xproto.Window, 0, 4)
	for _, slot := range []*xproto.Window{&bars.Top, &bars.Bottom, &bars.Left, &bars.Right} {
		wid, err := c.createOverrideRedirectWindow()
		if err != nil {
			for _, w := range created {
				xproto.DestroyWindow(c.XUtil.Conn(), w)
			}
			return Bars{}, err
		}
		ewmh.WmNameSet(c.XUtil, wid, OverlayPrefix+name)
		*slot = wid
		created = append(created, wid)
	}
	return bars, nil
}

// PlaceBars lays the bars out around the outer rectangle with the given
// thickness and keeps them on top.
func (c *Connection) PlaceBars(b Bars, x, y, w, h, thickness int) {
	t := thickness
	c.configureBar(b.Top, x, y, w, t)
	c.configureBar(b.Bottom, x, y+h-t, w, t)
	c.configureBar(b.Left, x, y+t, t, h-2*t)
	c.configureBar(b.Right, x+w-t, y+t, t, h-2*t)
}

// PaintBars sets the bar background colour and forces a redraw.
func (c *Connection) PaintBars(b Bars, colour uint32) {
	conn := c.XUtil.Conn()
	for _, wid := range b.all() {
		xproto.ChangeWindowAttributes(conn, wid, xproto.CwBackPixel, []uint32{colour})
		xproto.ClearArea(conn, false, wid, 0, 0, 0, 0)
	}
}

// MapBars shows the bars.
func (c *Connection) MapBars(b Bars) {
	for _, wid := range b.all() {
		xproto.MapWindow(c.XUtil.Conn(), wid)
	}
}

// UnmapBars hides the bars without destroying them.
func (c *Connection) UnmapBars(b Bars) {
	for _, wid := range b.all() {
		xproto.UnmapWindow(c.XUtil.Conn(), wid)
	}
}

// RestackBars moves the bars to the top or bottom of the stacking order.
func (c *Connection) RestackBars(b Bars, above bool) {
	mode := uint32(xproto.StackModeBelow)
	if above {
		mode = xproto.StackModeAbove
	}
	for _, wid := range b.all() {
		xproto.ConfigureWindow(c.XUtil.Conn(), wid, xproto.ConfigWindowStackMode, []uint32{mode})
	}
}

// DestroyBars destroys the bar windows.
func (c *Connection) DestroyBars(b Bars) {
	for _, wid := range b.all() {
		if wid != 0 {
			xproto.DestroyWindow(c.XUtil.Conn(), wid)
		}
	}
}

// StrayOverlays lists root children whose name carries OverlayPrefix.
func (c *Connection) StrayOverlays() ([]xproto.Window, error) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, err
	}
	var stray []xproto.Window
	for _, child := range tree.Children {
		name, err := ewmh.WmNameGet(c.XUtil, child)
		if err != nil {
			continue
		}
		if strings.HasPrefix(name, OverlayPrefix) {
			stray = append(stray, child)
		}
	}
	return stray, nil
}

// DestroyWindow destroys a single window.
func (c *Connection) DestroyWindow(wid xproto.Window) error {
	return xproto.DestroyWindowChecked(c.XUtil.Conn(), wid).Check()
}

func (c *Connection) createOverrideRedirectWindow() (xproto.Window, error) {
	conn := c.XUtil.Conn()
	screen := c.XUtil.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}

	// Value list order follows the bit positions of the mask (low to high).
	// CwBackPixel comes before CwOverrideRedirect, so it must be first.
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		c.Root,
		0, 0,
		1, 1,
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect,
		[]uint32{0, 1},
	).Check()
	if err != nil {
		return 0, err
	}
	return wid, nil
}

func (c *Connection) configureBar(wid xproto.Window, x, y, width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	xproto.ConfigureWindow(
		c.XUtil.Conn(),
		wid,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
		[]uint32{uint32(x), uint32(y), uint32(width), uint32(height), xproto.StackModeAbove},
	)
}
