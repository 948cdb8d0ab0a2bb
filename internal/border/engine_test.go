package border

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/tilewm/internal/overlay"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/snapshot"
)

type fakePlatform struct {
	foreground platform.WindowID
	badRects   map[platform.WindowID]bool
	maximized  map[platform.WindowID]bool
	displays   map[platform.WindowID]int
	accents    map[platform.WindowID]uint32
	badAccents map[platform.WindowID]bool
}

func newFakePlatform(fg platform.WindowID) *fakePlatform {
	return &fakePlatform{
		foreground: fg,
		badRects:   map[platform.WindowID]bool{},
		maximized:  map[platform.WindowID]bool{},
		displays:   map[platform.WindowID]int{},
		accents:    map[platform.WindowID]uint32{},
		badAccents: map[platform.WindowID]bool{},
	}
}

func (p *fakePlatform) ActiveWindow() (platform.WindowID, error) { return p.foreground, nil }

func (p *fakePlatform) WindowRect(w platform.WindowID) (platform.Rect, error) {
	if p.badRects[w] {
		return platform.Rect{}, errors.New("window gone")
	}
	return platform.Rect{X: int(w), Y: int(w), Width: 100, Height: 100}, nil
}

func (p *fakePlatform) IsMaximized(w platform.WindowID) bool { return p.maximized[w] }

func (p *fakePlatform) DisplayForWindow(w platform.WindowID) (int, error) {
	return p.displays[w], nil
}

func (p *fakePlatform) SetAccent(w platform.WindowID, colour uint32) error {
	if p.badAccents[w] {
		return errors.New("no frame")
	}
	p.accents[w] = colour
	return nil
}

type fakeOverlay struct {
	id       string
	tracking platform.WindowID
	hidden   bool
	colour   uint32
}

type fakeOverlays struct {
	next      platform.WindowID
	live      map[platform.WindowID]*fakeOverlay
	failIDs   map[string]bool
	calls     int
	creates   int
	invalids  int
	destroys  int
	strayRuns int
}

func newFakeOverlays() *fakeOverlays {
	return &fakeOverlays{next: 1000, live: map[platform.WindowID]*fakeOverlay{}, failIDs: map[string]bool{}}
}

func (o *fakeOverlays) Create(id string, tracking platform.WindowID, _ int) (platform.WindowID, error) {
	o.calls++
	if o.failIDs[id] {
		return 0, errors.New("create failed")
	}
	o.creates++
	o.next++
	o.live[o.next] = &fakeOverlay{id: id, tracking: tracking}
	return o.next, nil
}

func (o *fakeOverlays) Place(h platform.WindowID, f overlay.Frame) { o.calls++ }

func (o *fakeOverlays) Invalidate(h platform.WindowID, f overlay.Frame) {
	o.calls++
	o.invalids++
	if ov, ok := o.live[h]; ok {
		ov.colour = f.Colour
	}
}

func (o *fakeOverlays) Show(h platform.WindowID) {
	o.calls++
	if ov, ok := o.live[h]; ok {
		ov.hidden = false
	}
}

func (o *fakeOverlays) Hide(h platform.WindowID) {
	o.calls++
	if ov, ok := o.live[h]; ok {
		ov.hidden = true
	}
}

func (o *fakeOverlays) Raise(platform.WindowID)                             { o.calls++ }
func (o *fakeOverlays) Lower(platform.WindowID)                             { o.calls++ }
func (o *fakeOverlays) Notify(platform.WindowID, uint32, platform.WindowID) { o.calls++ }

func (o *fakeOverlays) Visible(h platform.WindowID) bool {
	ov, ok := o.live[h]
	return ok && !ov.hidden
}

func (o *fakeOverlays) Destroy(h platform.WindowID) {
	o.calls++
	o.destroys++
	delete(o.live, h)
}

func (o *fakeOverlays) DestroyStray() error {
	o.strayRuns++
	return nil
}

func newTestEngine(p *fakePlatform, o *fakeOverlays) *Engine {
	return New(DefaultSettings(), p, o, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func container(id string, windows ...platform.WindowID) snapshot.Container {
	return snapshot.Container{ID: id, Windows: windows}
}

func oneMonitor(focused int, containers ...snapshot.Container) snapshot.Snapshot {
	return snapshot.Snapshot{
		Monitors: []snapshot.Monitor{{
			ID: 0,
			Workspaces: []snapshot.Workspace{{
				Tile:                true,
				Containers:          containers,
				FocusedContainerIdx: focused,
			}},
		}},
	}
}

func checkIndex(t *testing.T, e *Engine) {
	t.Helper()
	for w, id := range e.windows {
		b, ok := e.borders[id]
		if !ok {
			t.Fatalf("index entry %d -> %q names a missing border", w, id)
		}
		if b.Tracking != w {
			t.Fatalf("index entry %d -> %q, border tracks %d", w, id, b.Tracking)
		}
	}
	trackers := map[platform.WindowID]int{}
	for _, b := range e.borders {
		trackers[b.Tracking]++
		if trackers[b.Tracking] > 1 {
			t.Fatalf("window %d tracked by more than one border", b.Tracking)
		}
	}
}

func mustReconcile(t *testing.T, e *Engine, s snapshot.Snapshot, hint platform.WindowID) {
	t.Helper()
	if err := e.Reconcile(s, hint, false); err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	checkIndex(t, e)
}

func kinds(e *Engine) map[string]Kind {
	out := map[string]Kind{}
	for id, b := range e.borders {
		out[id] = b.Kind
	}
	return out
}

func TestReconcile_ClassifiesContainers(t *testing.T) {
	p := newFakePlatform(10)
	o := newFakeOverlays()
	e := newTestEngine(p, o)

	s := oneMonitor(0, container("a", 10), container("b", 20, 21))
	s.Monitors[0].Workspaces[0].FloatingWindows = []platform.WindowID{30}
	s.FloatingWindows = []platform.WindowID{30}
	mustReconcile(t, e, s, 10)

	want := map[string]Kind{"a": KindSingle, "b": KindUnfocused, "30": KindUnfocused}
	got := kinds(e)
	if len(got) != len(want) {
		t.Fatalf("borders = %v, want %v", got, want)
	}
	for id, k := range want {
		if got[id] != k {
			t.Fatalf("kind[%q] = %v, want %v", id, got[id], k)
		}
	}
	if o.invalids != 3 {
		t.Fatalf("invalidations = %d, want 3", o.invalids)
	}
}

func TestReconcile_StackAndFloatingFocus(t *testing.T) {
	p := newFakePlatform(20)
	e := newTestEngine(p, newFakeOverlays())

	s := oneMonitor(1, container("a", 10), container("b", 21, 20))
	s.Monitors[0].Workspaces[0].Containers[1].FocusedIdx = 1
	mustReconcile(t, e, s, 20)
	if got := e.borders["b"].Kind; got != KindStack {
		t.Fatalf("kind = %v, want stack", got)
	}

	p.foreground = 30
	s = s.Clone()
	s.Monitors[0].Workspaces[0].FloatingWindows = []platform.WindowID{30}
	s.FloatingWindows = []platform.WindowID{30}
	mustReconcile(t, e, s, 30)
	if got := e.borders["30"].Kind; got != KindFloating {
		t.Fatalf("floating kind = %v, want floating", got)
	}
	if got := e.borders["b"].Kind; got != KindUnfocused {
		t.Fatalf("container kind = %v, want unfocused once focus left it", got)
	}
}

func TestReconcile_LockedUnfocused(t *testing.T) {
	p := newFakePlatform(10)
	e := newTestEngine(p, newFakeOverlays())

	locked := container("b", 20)
	locked.Locked = true
	mustReconcile(t, e, oneMonitor(0, container("a", 10), locked), 10)

	if got := e.borders["b"].Kind; got != KindUnfocusedLocked {
		t.Fatalf("kind = %v, want unfocused_locked", got)
	}
}

func TestReconcile_IdempotentWithoutChanges(t *testing.T) {
	p := newFakePlatform(10)
	o := newFakeOverlays()
	e := newTestEngine(p, o)

	s := oneMonitor(0, container("a", 10), container("b", 20))
	mustReconcile(t, e, s, 10)

	before := o.calls
	mustReconcile(t, e, s, 10)
	if o.calls != before {
		t.Fatalf("second pass made %d overlay calls, want 0", o.calls-before)
	}
}

func TestReconcile_PreviousIsNotAliased(t *testing.T) {
	p := newFakePlatform(10)
	e := newTestEngine(p, newFakeOverlays())

	s := oneMonitor(0, container("a", 10))
	mustReconcile(t, e, s, 10)

	p.foreground = 11
	s.Monitors[0].Workspaces[0].Containers[0].Windows[0] = 11
	mustReconcile(t, e, s, 10)
	if got := e.borders["a"].Tracking; got != 11 {
		t.Fatalf("tracking = %d, want 11 after the caller reused its snapshot", got)
	}
}

func TestReconcile_ForcedBypassesGate(t *testing.T) {
	p := newFakePlatform(10)
	o := newFakeOverlays()
	e := newTestEngine(p, o)

	s := oneMonitor(0, container("a", 10), container("b", 20))
	mustReconcile(t, e, s, 10)

	before := o.invalids
	if err := e.Handle(ForceUpdate{}, s); err != nil {
		t.Fatalf("Handle(ForceUpdate) error: %v", err)
	}
	if o.invalids-before != 2 {
		t.Fatalf("forced pass invalidated %d borders, want 2", o.invalids-before)
	}
}

func TestReconcile_InvalidatesOnlyChangedBorders(t *testing.T) {
	p := newFakePlatform(10)
	o := newFakeOverlays()
	e := newTestEngine(p, o)

	mustReconcile(t, e, oneMonitor(0, container("a", 10), container("b", 20), container("c", 30)), 10)

	p.foreground = 20
	before := o.invalids
	mustReconcile(t, e, oneMonitor(1, container("a", 10), container("b", 20), container("c", 30)), 20)
	if got := o.invalids - before; got != 2 {
		t.Fatalf("invalidations = %d, want 2", got)
	}
	if o.creates != 3 {
		t.Fatalf("creates = %d, want 3", o.creates)
	}
}

func TestReconcile_MonocleIsExclusive(t *testing.T) {
	p := newFakePlatform(10)
	o := newFakeOverlays()
	e := newTestEngine(p, o)

	mustReconcile(t, e, oneMonitor(0, container("a", 10), container("b", 20)), 10)

	s := oneMonitor(0, container("b", 20))
	mono := container("a", 10)
	s.Monitors[0].Workspaces[0].Monocle = &mono
	mustReconcile(t, e, s, 10)

	if len(e.borders) != 1 {
		t.Fatalf("borders = %v, want only the monocle", kinds(e))
	}
	if got := e.borders["a"].Kind; got != KindMonocle {
		t.Fatalf("kind = %v, want monocle", got)
	}
}

func TestReconcile_MonocleOnUnfocusedMonitor(t *testing.T) {
	p := newFakePlatform(10)
	e := newTestEngine(p, newFakeOverlays())

	s := oneMonitor(0, container("a", 10))
	mono := container("m", 40)
	s.Monitors = append(s.Monitors, snapshot.Monitor{
		ID:         1,
		Workspaces: []snapshot.Workspace{{Tile: true, Monocle: &mono}},
	})
	mustReconcile(t, e, s, 10)

	if got := e.borders["m"].Kind; got != KindUnfocused {
		t.Fatalf("kind = %v, want unfocused", got)
	}
}

func TestReconcile_MonitorFocusSwap(t *testing.T) {
	p := newFakePlatform(10)
	o := newFakeOverlays()
	e := newTestEngine(p, o)

	s := snapshot.Snapshot{
		Monitors: []snapshot.Monitor{
			{ID: 0, Workspaces: []snapshot.Workspace{{Tile: true, Containers: []snapshot.Container{container("c1", 10)}}}},
			{ID: 1, Workspaces: []snapshot.Workspace{{Tile: true, Containers: []snapshot.Container{container("c2", 20)}}}},
		},
	}
	mustReconcile(t, e, s, 10)
	if k := kinds(e); k["c1"] != KindSingle || k["c2"] != KindUnfocused {
		t.Fatalf("kinds = %v, want c1 single and c2 unfocused", k)
	}

	p.foreground = 20
	swapped := s.Clone()
	swapped.FocusedMonitorIdx = 1
	before := o.invalids
	mustReconcile(t, e, swapped, 20)
	if k := kinds(e); k["c1"] != KindUnfocused || k["c2"] != KindSingle {
		t.Fatalf("kinds = %v, want c1 unfocused and c2 single", k)
	}
	if got := o.invalids - before; got != 2 {
		t.Fatalf("invalidations = %d, want 2", got)
	}

	before = o.invalids
	mustReconcile(t, e, swapped, 20)
	if got := o.invalids - before; got != 0 {
		t.Fatalf("rerun invalidations = %d, want 0", got)
	}
}

func TestReconcile_DisabledDestroysEverything(t *testing.T) {
	p := newFakePlatform(10)
	o := newFakeOverlays()
	e := newTestEngine(p, o)

	s := oneMonitor(0, container("a", 10), container("b", 20))
	mustReconcile(t, e, s, 10)

	settings := e.Settings()
	settings.Enabled = false
	e.SetSettings(settings)
	if err := e.Handle(ForceUpdate{}, s); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if len(e.borders) != 0 || len(e.windows) != 0 {
		t.Fatalf("borders = %d, index = %d, want both empty", len(e.borders), len(e.windows))
	}
	if len(o.live) != 0 {
		t.Fatalf("live overlays = %d, want 0", len(o.live))
	}
}

func TestReconcile_PauseToggle(t *testing.T) {
	p := newFakePlatform(10)
	o := newFakeOverlays()
	e := newTestEngine(p, o)

	s := oneMonitor(0, container("a", 10))
	mustReconcile(t, e, s, 10)

	paused := s.Clone()
	paused.Paused = true
	mustReconcile(t, e, paused, 10)
	if len(e.borders) != 0 {
		t.Fatalf("borders while paused = %d, want 0", len(e.borders))
	}

	mustReconcile(t, e, s, 10)
	if len(e.borders) != 1 {
		t.Fatalf("borders after resume = %d, want 1", len(e.borders))
	}
}

func TestReconcile_TilingDisabled(t *testing.T) {
	p := newFakePlatform(10)
	e := newTestEngine(p, newFakeOverlays())

	s := oneMonitor(0, container("a", 10))
	mustReconcile(t, e, s, 10)

	off := s.Clone()
	off.Monitors[0].Workspaces[0].Tile = false
	mustReconcile(t, e, off, 10)
	if len(e.borders) != 0 {
		t.Fatalf("borders = %d, want 0 on a non-tiling workspace", len(e.borders))
	}
}

func TestReconcile_MaximizedForegroundClearsMonitor(t *testing.T) {
	p := newFakePlatform(10)
	e := newTestEngine(p, newFakeOverlays())

	s := oneMonitor(0, container("a", 10), container("b", 20))
	mustReconcile(t, e, s, 10)

	p.maximized[10] = true
	if err := e.Reconcile(s, 10, true); err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	if len(e.borders) != 0 {
		t.Fatalf("borders = %d, want 0 under a maximized window", len(e.borders))
	}
}

func TestReconcile_GarbageCollectsRemovedContainers(t *testing.T) {
	p := newFakePlatform(10)
	e := newTestEngine(p, newFakeOverlays())

	mustReconcile(t, e, oneMonitor(0, container("a", 10), container("b", 20)), 10)
	mustReconcile(t, e, oneMonitor(0, container("a", 10)), 10)

	if _, ok := e.borders["b"]; ok {
		t.Fatal("border for removed container survived")
	}
	if _, ok := e.windows[20]; ok {
		t.Fatal("index entry for removed container survived")
	}
}

func TestReconcile_HiddenBordersAreNotCollected(t *testing.T) {
	p := newFakePlatform(10)
	e := newTestEngine(p, newFakeOverlays())

	s := oneMonitor(0, container("a", 10), container("b", 20))
	mustReconcile(t, e, s, 10)
	if err := e.Handle(Hide{Window: 20}, s); err != nil {
		t.Fatalf("Handle(Hide) error: %v", err)
	}

	mustReconcile(t, e, oneMonitor(0, container("a", 10)), 10)
	if _, ok := e.borders["b"]; !ok {
		t.Fatal("hidden border was collected")
	}
}

func TestReconcile_GeometryFailureDropsOnlyThatBorder(t *testing.T) {
	p := newFakePlatform(10)
	p.badRects[20] = true
	o := newFakeOverlays()
	e := newTestEngine(p, o)

	mustReconcile(t, e, oneMonitor(0, container("a", 10), container("b", 20), container("c", 30)), 10)

	got := kinds(e)
	if _, ok := got["b"]; ok {
		t.Fatal("border with failing geometry was kept")
	}
	if _, ok := got["c"]; !ok {
		t.Fatal("pass stopped after a geometry failure")
	}
	if len(o.live) != 2 {
		t.Fatalf("live overlays = %d, want 2", len(o.live))
	}
}

func TestReconcile_CreationFailureAbandonsMonitor(t *testing.T) {
	p := newFakePlatform(10)
	o := newFakeOverlays()
	o.failIDs["b"] = true
	e := newTestEngine(p, o)

	s := oneMonitor(0, container("a", 10), container("b", 20), container("c", 30))
	s.Monitors = append(s.Monitors, snapshot.Monitor{
		ID:         1,
		Workspaces: []snapshot.Workspace{{Tile: true, Containers: []snapshot.Container{container("d", 40)}}},
	})
	mustReconcile(t, e, s, 10)

	got := kinds(e)
	if _, ok := got["c"]; ok {
		t.Fatal("containers after the failure were processed")
	}
	for _, id := range []string{"a", "d"} {
		if _, ok := got[id]; !ok {
			t.Fatalf("border %q missing", id)
		}
	}
}

func TestReconcile_RetrackMovesIndexEntry(t *testing.T) {
	p := newFakePlatform(10)
	e := newTestEngine(p, newFakeOverlays())

	s := oneMonitor(0, container("a", 10, 11))
	mustReconcile(t, e, s, 10)

	p.foreground = 11
	next := s.Clone()
	next.Monitors[0].Workspaces[0].Containers[0].FocusedIdx = 1
	mustReconcile(t, e, next, 11)

	if _, ok := e.windows[10]; ok {
		t.Fatal("stale index entry for previous window")
	}
	if got := e.windows[11]; got != "a" {
		t.Fatalf("index[11] = %q, want %q", got, "a")
	}
	if got := e.borders["a"].Tracking; got != 11 {
		t.Fatalf("tracking = %d, want 11", got)
	}
}

func TestReconcile_ClaimReplacesStaleTracker(t *testing.T) {
	p := newFakePlatform(10)
	e := newTestEngine(p, newFakeOverlays())

	s := oneMonitor(0, container("a", 10))
	mustReconcile(t, e, s, 10)
	if err := e.Handle(Hide{Window: 10}, s); err != nil {
		t.Fatalf("Handle(Hide) error: %v", err)
	}

	mustReconcile(t, e, oneMonitor(0, container("x", 10)), 10)
	if _, ok := e.borders["a"]; ok {
		t.Fatal("stale hidden border still tracks the window")
	}
	if got := e.windows[10]; got != "x" {
		t.Fatalf("index[10] = %q, want %q", got, "x")
	}
}

func TestReconcile_RemovesBordersOfVanishedMonitors(t *testing.T) {
	p := newFakePlatform(10)
	e := newTestEngine(p, newFakeOverlays())

	s := oneMonitor(0, container("a", 10))
	s.Monitors = append(s.Monitors, snapshot.Monitor{
		ID:         1,
		Workspaces: []snapshot.Workspace{{Tile: true, Containers: []snapshot.Container{container("d", 40)}}},
	})
	mustReconcile(t, e, s, 10)
	mustReconcile(t, e, oneMonitor(0, container("a", 10)), 10)

	if _, ok := e.borders["d"]; ok {
		t.Fatal("border on a disconnected monitor survived")
	}
}

func TestHandle_ControlMessages(t *testing.T) {
	p := newFakePlatform(10)
	o := newFakeOverlays()
	e := newTestEngine(p, o)

	s := oneMonitor(0, container("a", 10), container("b", 20))
	mustReconcile(t, e, s, 10)

	if err := e.Handle(PassEvent{Window: 99, Event: overlay.EventLocationChange}, s); err != nil {
		t.Fatalf("Handle(PassEvent) error: %v", err)
	}
	if err := e.Handle(Delete{Window: 20}, s); err != nil {
		t.Fatalf("Handle(Delete) error: %v", err)
	}
	if _, ok := e.borders["b"]; ok {
		t.Fatal("Delete did not remove the border")
	}
	checkIndex(t, e)

	if err := e.Handle(DestroyAll{}, s); err != nil {
		t.Fatalf("Handle(DestroyAll) error: %v", err)
	}
	if len(e.borders) != 0 || len(o.live) != 0 {
		t.Fatalf("borders = %d, live = %d after DestroyAll", len(e.borders), len(o.live))
	}
	if o.strayRuns != 1 {
		t.Fatalf("stray sweeps = %d, want 1", o.strayRuns)
	}
}

func TestAccentMode(t *testing.T) {
	p := newFakePlatform(10)
	p.badAccents[20] = true
	o := newFakeOverlays()
	settings := DefaultSettings()
	settings.Implementation = ImplAccent
	e := New(settings, p, o, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s := oneMonitor(0, container("a", 10), container("b", 20), container("c", 30))
	err := e.Reconcile(s, 10, false)
	if err == nil {
		t.Fatal("Reconcile() error = nil, want the accent failure")
	}

	colours := DefaultColours()
	tests := []struct {
		window platform.WindowID
		want   uint32
	}{
		{10, colours.Single},
		{30, colours.Unfocused},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.window), func(t *testing.T) {
			if got := p.accents[tt.window]; got != tt.want {
				t.Fatalf("accent = %#x, want %#x", got, tt.want)
			}
		})
	}
	if o.creates != 0 {
		t.Fatalf("accent mode created %d overlays", o.creates)
	}
}

func TestAccentMode_ClearedWhenDisabled(t *testing.T) {
	p := newFakePlatform(10)
	settings := DefaultSettings()
	settings.Implementation = ImplAccent
	e := New(settings, p, newFakeOverlays(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	s := oneMonitor(0, container("a", 10), container("b", 20))
	mustReconcile(t, e, s, 10)

	settings.Enabled = false
	e.SetSettings(settings)
	mustReconcile(t, e, s, 10)

	unfocused := DefaultColours().Unfocused
	for _, w := range []platform.WindowID{10, 20} {
		if got := p.accents[w]; got != unfocused {
			t.Fatalf("accent[%d] = %#x, want %#x", w, got, unfocused)
		}
	}
	if len(e.accented) != 0 {
		t.Fatalf("accented = %v, want empty", e.accented)
	}
}

func TestParseKind(t *testing.T) {
	for i, name := range kindNames {
		got, err := ParseKind(name)
		if err != nil {
			t.Fatalf("ParseKind(%q) error: %v", name, err)
		}
		if got != Kind(i) {
			t.Fatalf("ParseKind(%q) = %v, want %v", name, got, Kind(i))
		}
	}
	if _, err := ParseKind("rainbow"); err == nil {
		t.Fatal("ParseKind(rainbow) error = nil")
	}
}
