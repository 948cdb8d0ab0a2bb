package platform

// WindowID is a platform-neutral window identifier. Zero means no window.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Display describes a physical display and its usable work area.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
	Usable Rect
}

// Window contains metadata and geometry for a top-level window.
type Window struct {
	ID     WindowID
	PID    int
	AppID  string
	Title  string
	Bounds Rect
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	Displays() ([]Display, error)
	ActiveWindow() (WindowID, error)
	ClientWindows() ([]WindowID, error)
	Describe(windowID WindowID) (Window, error)
	Manageable(windowID WindowID) bool

	WindowRect(windowID WindowID) (Rect, error)
	IsMaximized(windowID WindowID) bool
	DisplayForWindow(windowID WindowID) (int, error)

	Show(windowID WindowID) error
	Hide(windowID WindowID) error
	Raise(windowID WindowID) error
	Lower(windowID WindowID) error
	Focus(windowID WindowID) error
	SetAccent(windowID WindowID, colour uint32) error
	SetOpacity(windowID WindowID, alpha uint8) error
}

// EventKind classifies window-system notifications.
type EventKind int

const (
	EventManage EventKind = iota
	EventUnmanage
	EventDestroy
	EventFocusChange
	EventShow
	EventHide
	EventMinimize
	EventMoveResizeStart
	EventMoveResizeEnd
	EventRaise
	EventTitleUpdate
	EventLocationChange
)

var eventNames = map[EventKind]string{
	EventManage:          "Manage",
	EventUnmanage:        "Unmanage",
	EventDestroy:         "Destroy",
	EventFocusChange:     "FocusChange",
	EventShow:            "Show",
	EventHide:            "Hide",
	EventMinimize:        "Minimize",
	EventMoveResizeStart: "MoveResizeStart",
	EventMoveResizeEnd:   "MoveResizeEnd",
	EventRaise:           "Raise",
	EventTitleUpdate:     "TitleUpdate",
	EventLocationChange:  "LocationChange",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Event is a single window-system notification about one window.
type Event struct {
	Kind   EventKind
	Window WindowID
}
