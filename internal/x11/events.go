package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WindowEventKind classifies raw X11 notifications about client windows.
type WindowEventKind int

const (
	ClientAdded WindowEventKind = iota
	ClientRemoved
	ActiveChanged
	WindowMapped
	WindowUnmapped
	WindowConfigured
	WindowDestroyed
	TitleChanged
	StateChanged
)

// WindowEvent is delivered to Watch handlers on the X event loop goroutine.
type WindowEvent struct {
	Kind   WindowEventKind
	Window xproto.Window
}

type watcher struct {
	conn    *Connection
	handler func(WindowEvent)
	clients map[xproto.Window]bool
}

// Watch subscribes to root and client window notifications. Clients that
// already exist are tracked but not reported; callers enumerate them with
// ClientList after Watch returns. Handlers run on the EventLoop goroutine and
// must not block.
func (c *Connection) Watch(handler func(WindowEvent)) error {
	w := &watcher{
		conn:    c,
		handler: handler,
		clients: make(map[xproto.Window]bool),
	}

	if err := xwindow.New(c.XUtil, c.Root).Listen(xproto.EventMaskPropertyChange); err != nil {
		return err
	}
	xevent.PropertyNotifyFun(w.onRootProperty).Connect(c.XUtil, c.Root)

	clients, err := c.ClientList()
	if err != nil {
		return err
	}
	for _, client := range clients {
		w.track(client)
	}
	return nil
}

func (w *watcher) onRootProperty(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	name, err := xprop.AtomName(xu, ev.Atom)
	if err != nil {
		return
	}
	switch name {
	case "_NET_CLIENT_LIST":
		w.syncClients()
	case "_NET_ACTIVE_WINDOW":
		active, err := w.conn.GetActiveWindow()
		if err != nil || active == 0 {
			return
		}
		w.handler(WindowEvent{Kind: ActiveChanged, Window: active})
	}
}

func (w *watcher) syncClients() {
	clients, err := w.conn.ClientList()
	if err != nil {
		return
	}
	current := make(map[xproto.Window]bool, len(clients))
	for _, client := range clients {
		current[client] = true
		if !w.clients[client] {
			w.track(client)
			w.handler(WindowEvent{Kind: ClientAdded, Window: client})
		}
	}
	for client := range w.clients {
		if !current[client] {
			w.untrack(client)
			w.handler(WindowEvent{Kind: ClientRemoved, Window: client})
		}
	}
}

func (w *watcher) track(client xproto.Window) {
	w.clients[client] = true
	xu := w.conn.XUtil
	if err := xwindow.New(xu, client).Listen(xproto.EventMaskStructureNotify, xproto.EventMaskPropertyChange); err != nil {
		return
	}
	xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		w.handler(WindowEvent{Kind: WindowConfigured, Window: ev.Window})
	}).Connect(xu, client)
	xevent.MapNotifyFun(func(_ *xgbutil.XUtil, ev xevent.MapNotifyEvent) {
		w.handler(WindowEvent{Kind: WindowMapped, Window: ev.Window})
	}).Connect(xu, client)
	xevent.UnmapNotifyFun(func(_ *xgbutil.XUtil, ev xevent.UnmapNotifyEvent) {
		w.handler(WindowEvent{Kind: WindowUnmapped, Window: ev.Window})
	}).Connect(xu, client)
	xevent.DestroyNotifyFun(func(_ *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		w.untrack(ev.Window)
		w.handler(WindowEvent{Kind: WindowDestroyed, Window: ev.Window})
	}).Connect(xu, client)
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil {
			return
		}
		switch name {
		case "_NET_WM_NAME", "WM_NAME":
			w.handler(WindowEvent{Kind: TitleChanged, Window: ev.Window})
		case "_NET_WM_STATE":
			w.handler(WindowEvent{Kind: StateChanged, Window: ev.Window})
		}
	}).Connect(xu, client)
}

func (w *watcher) untrack(client xproto.Window) {
	if !w.clients[client] {
		return
	}
	delete(w.clients, client)
	xevent.Detach(w.conn.XUtil, client)
}
