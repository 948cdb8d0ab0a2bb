package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/tilewm/internal/bus"
	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Submitter queues messages for the dispatcher.
type Submitter interface {
	Submit(msg bus.Message) bool
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Binding is a parsed hotkey ready to register.
type Binding struct {
	Keys    string
	Request *ipc.Request
}

// Parse turns configured bindings into requests, rejecting the first one
// that does not encode.
func Parse(bindings []config.Binding) ([]Binding, error) {
	out := make([]Binding, 0, len(bindings))
	for _, b := range bindings {
		req, err := b.Request()
		if err != nil {
			return nil, fmt.Errorf("hotkey %s: %w", b.Keys, err)
		}
		out = append(out, Binding{Keys: b.Keys, Request: req})
	}
	return out, nil
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	bus    Submitter
	logger *slog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler.
func NewHandler(backend any, b Submitter, logger *slog.Logger) *Handler {
	var xu *xgbutil.XUtil
	var root xproto.Window
	if accessor, ok := backend.(x11Accessor); ok {
		xu = accessor.XUtil()
		root = accessor.RootWindow()
	}
	if logger == nil {
		logger = slog.Default()
	}

	if xu != nil {
		ignoreModsOnce.Do(func() {
			configureIgnoreMods(xu)
		})
	}

	return &Handler{
		xu:     xu,
		root:   root,
		bus:    b,
		logger: logger,
	}
}

// Register grabs every binding. Bindings that fail to grab are reported
// together; the rest stay registered.
func (h *Handler) Register(bindings []Binding) error {
	if h.xu == nil {
		return fmt.Errorf("hotkeys need an X11 backend")
	}
	var errs []error
	for _, b := range bindings {
		if err := h.RegisterFunc(b.Keys, h.submitter(b)); err != nil {
			errs = append(errs, fmt.Errorf("failed to register %s: %w", b.Keys, err))
			continue
		}
		h.logger.Debug("hotkey registered", "keys", b.Keys, "command", b.Request.Command)
	}
	return errors.Join(errs...)
}

// submitter returns the callback for a binding. Hotkeys have no reply
// channel, so results only show up in the daemon log.
func (h *Handler) submitter(b Binding) func() {
	return func() {
		h.logger.Debug("hotkey triggered", "keys", b.Keys, "command", b.Request.Command)
		msg := bus.CommandMessage{Requests: []*ipc.Request{b.Request}}
		if !h.bus.Submit(msg) {
			h.logger.Warn("hotkey command dropped", "keys", b.Keys, "command", b.Request.Command)
		}
	}
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
