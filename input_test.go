package arbor

import (
	"slices"
	"testing"
)

// --- Helpers ---

type eventLog struct {
	events []string
}

func describe(ev PointerEvent) string {
	s := ev.Type.String() + ":" + ev.Node.Name
	if ev.Other != nil {
		s += ">" + ev.Other.Name
	}
	return s
}

func recordEvents(s *Scene) *eventLog {
	l := &eventLog{}
	for typ := EventType(0); typ < eventTypeCount; typ++ {
		s.OnPointer(typ, func(ev PointerEvent) { l.events = append(l.events, describe(ev)) })
	}
	return l
}

func (l *eventLog) take() []string {
	out := l.events
	l.events = nil
	return out
}

// toScreen converts world coordinates to screen coordinates for the default
// main camera, which centers world (0, 0) on a 1280x720 screen.
func toScreen(wx, wy float64) (float64, float64) { return wx + 640, wy + 360 }

func move(s *Scene, wx, wy float64) {
	x, y := toScreen(wx, wy)
	s.PostMessage(InputMessage{Kind: InputMove, X: x, Y: y})
}

func press(s *Scene, b MouseButton, wx, wy float64) {
	x, y := toScreen(wx, wy)
	s.PostMessage(InputMessage{Kind: InputButtonDown, Button: b, X: x, Y: y})
}

func release(s *Scene, b MouseButton, wx, wy float64) {
	x, y := toScreen(wx, wy)
	s.PostMessage(InputMessage{Kind: InputButtonUp, Button: b, X: x, Y: y})
}

// twoBoxes builds a at (0,0) and b at (100,0), both 50x50.
func twoBoxes(t *testing.T) (*Scene, *Node, *Node, *eventLog) {
	t.Helper()
	s := NewScene()
	a := quadChild(s.Root(), "a", 0, 0, 50, 50)
	b := quadChild(s.Root(), "b", 100, 0, 50, 50)
	s.Update(0)
	return s, a, b, recordEvents(s)
}

func assertEvents(t *testing.T, got, want []string) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("events =\n  %v\nwant\n  %v", got, want)
	}
}

// --- Drag and drop ---

func TestDragDropSequence(t *testing.T) {
	s, a, b, log := twoBoxes(t)

	move(s, 25, 25)
	press(s, MouseButtonLeft, 25, 25)
	if s.DragSubject(MouseButtonLeft) != a {
		t.Fatal("drag subject not recorded")
	}
	move(s, 125, 25)
	move(s, 300, 300)
	move(s, 120, 10)
	release(s, MouseButtonLeft, 120, 10)

	assertEvents(t, log.take(), []string{
		"CursorEnterFrom:a",
		"DragBegin:a",
		"Dropping:a>b",
		"Dragging:a",
		"Dropping:a>b",
		"DropTo:a>b",
		"CursorEnterFrom:b>a",
	})
	if s.DragSubject(MouseButtonLeft) != nil {
		t.Error("drag subject not cleared")
	}
	if s.HoverTarget() != b {
		t.Error("hover should move to the drop target")
	}
}

func TestClickSequence(t *testing.T) {
	s, _, _, log := twoBoxes(t)
	move(s, 10, 10)
	press(s, MouseButtonLeft, 10, 10)
	release(s, MouseButtonLeft, 12, 12)
	assertEvents(t, log.take(), []string{
		"CursorEnterFrom:a",
		"DragBegin:a",
		"DragEnd:a",
		"Click:a",
		"CursorEnterFrom:a",
	})
}

func TestReleaseOverNothing(t *testing.T) {
	s, _, _, log := twoBoxes(t)
	press(s, MouseButtonLeft, 10, 10)
	move(s, 400, 400)
	release(s, MouseButtonLeft, 400, 400)
	assertEvents(t, log.take(), []string{
		"CursorEnterFrom:a",
		"DragBegin:a",
		"Dragging:a",
		"DragEnd:a",
	})
	if s.HoverTarget() != nil {
		t.Error("hover should be empty after release over nothing")
	}
}

func TestPressOverNothing(t *testing.T) {
	s, _, _, log := twoBoxes(t)
	press(s, MouseButtonLeft, 400, 400)
	move(s, 10, 10)
	release(s, MouseButtonLeft, 10, 10)
	if got := log.take(); len(got) != 1 || got[0] != "CursorEnterFrom:a" {
		t.Errorf("events = %v, want only the hover entering a on release", got)
	}
}

func TestButtonsAreIndependent(t *testing.T) {
	s, a, b, log := twoBoxes(t)
	var buttons []MouseButton
	s.OnPointer(EventDragBegin, func(ev PointerEvent) { buttons = append(buttons, ev.Button) })

	press(s, MouseButtonRight, 10, 10)
	press(s, MouseButtonLeft, 110, 10)
	if s.DragSubject(MouseButtonRight) != a || s.DragSubject(MouseButtonLeft) != b {
		t.Fatal("subjects not tracked per button")
	}
	if !slices.Equal(buttons, []MouseButton{MouseButtonRight, MouseButtonLeft}) {
		t.Errorf("buttons = %v", buttons)
	}
	log.take()

	move(s, 300, 300)
	// Buttons are walked in index order: left before right.
	assertEvents(t, log.take(), []string{"Dragging:b", "Dragging:a"})
}

// --- Hover ---

func TestHoverTransitions(t *testing.T) {
	s, _, _, log := twoBoxes(t)

	move(s, 10, 10)
	move(s, 11, 11)
	move(s, 12, 12) // same tick: no second Hovering
	s.Update(0)
	move(s, 13, 13)
	move(s, 110, 10)
	move(s, 400, 400)

	assertEvents(t, log.take(), []string{
		"CursorEnterFrom:a",
		"Hovering:a",
		"Hovering:a",
		"CursorLeaveTo:a>b",
		"CursorEnterFrom:b>a",
		"CursorLeaveTo:b",
	})
}

// --- Hit resolution ---

func TestHitTopmostFirst(t *testing.T) {
	s := NewScene()
	bottom := quadChild(s.Root(), "bottom", 0, 0, 50, 50)
	top := quadChild(s.Root(), "top", 0, 0, 50, 50)
	s.Update(0)

	press(s, MouseButtonLeft, 10, 10)
	if s.DragSubject(MouseButtonLeft) != top {
		t.Errorf("hit %v, want top", s.DragSubject(MouseButtonLeft))
	}
	release(s, MouseButtonLeft, 10, 10)

	bottom.GlobalOrder = 1
	s.Update(0)
	press(s, MouseButtonLeft, 10, 10)
	if s.DragSubject(MouseButtonLeft) != bottom {
		t.Error("GlobalOrder should lift bottom above top")
	}
	release(s, MouseButtonLeft, 10, 10)

	bottom.Interactable = false
	press(s, MouseButtonLeft, 10, 10)
	if s.DragSubject(MouseButtonLeft) != top {
		t.Error("non-interactable node should not be hit")
	}
}

func TestHitShape(t *testing.T) {
	s := NewScene()
	n := quadChild(s.Root(), "n", 0, 0, 100, 100)
	n.HitShape = HitCircle{CenterX: 50, CenterY: 50, Radius: 10}
	s.Update(0)

	press(s, MouseButtonLeft, 5, 5)
	if s.DragSubject(MouseButtonLeft) != nil {
		t.Error("corner outside hit circle was hit")
	}
	release(s, MouseButtonLeft, 5, 5)
	press(s, MouseButtonLeft, 52, 48)
	if s.DragSubject(MouseButtonLeft) != n {
		t.Error("center of hit circle missed")
	}
}

func TestHitShapes(t *testing.T) {
	tests := []struct {
		name  string
		shape HitShape
		x, y  float64
		want  bool
	}{
		{"rect inside", HitRect{X: 0, Y: 0, Width: 10, Height: 10}, 5, 5, true},
		{"rect edge", HitRect{X: 0, Y: 0, Width: 10, Height: 10}, 10, 10, true},
		{"rect outside", HitRect{X: 0, Y: 0, Width: 10, Height: 10}, 11, 5, false},
		{"circle inside", HitCircle{Radius: 5}, 3, 4, true},
		{"circle outside", HitCircle{Radius: 5}, 4, 4, false},
		{"triangle inside", HitPolygon{Points: []Vec2{{0, 0}, {10, 0}, {0, 10}}}, 2, 2, true},
		{"triangle outside", HitPolygon{Points: []Vec2{{0, 0}, {10, 0}, {0, 10}}}, 8, 8, false},
		{"reverse winding", HitPolygon{Points: []Vec2{{0, 10}, {10, 0}, {0, 0}}}, 2, 2, true},
		{"degenerate", HitPolygon{Points: []Vec2{{0, 0}, {1, 1}}}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shape.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestHitTopmostCameraFirst(t *testing.T) {
	s := NewScene()
	overlay := s.NewCamera("overlay", Rect{Width: 1280, Height: 720})
	overlay.SetOrder(1)
	s.Collect()
	overlay.Node().SetPosition(5000, 5000)

	world := quadChild(s.Root(), "world", -10, -10, 20, 20)
	ui := quadChild(s.Root(), "ui", 4990, 4990, 20, 20)
	s.Update(0)

	press(s, MouseButtonLeft, 0, 0)
	if s.DragSubject(MouseButtonLeft) != ui {
		t.Errorf("hit %v, want ui from the overlay camera", s.DragSubject(MouseButtonLeft))
	}
	release(s, MouseButtonLeft, 0, 0)

	ui.Interactable = false
	press(s, MouseButtonLeft, 0, 0)
	if s.DragSubject(MouseButtonLeft) != world {
		t.Error("miss on the overlay should fall through to the main camera")
	}
	release(s, MouseButtonLeft, 0, 0)

	ui.Interactable = true
	overlay.SetActive(false)
	s.Update(0)
	press(s, MouseButtonLeft, 0, 0)
	if s.DragSubject(MouseButtonLeft) != world {
		t.Error("inactive camera should not receive input")
	}
}

func TestPointerEventCoordinates(t *testing.T) {
	s := NewScene()
	n := quadChild(s.Root(), "n", 100, 50, 50, 50)
	n.SetScale(2, 2)
	s.Update(0)

	var got PointerEvent
	s.OnPointer(EventDragBegin, func(ev PointerEvent) { got = ev })
	sx, sy := toScreen(120, 70)
	s.PostMessage(InputMessage{Kind: InputButtonDown, X: sx, Y: sy, Modifiers: ModShift | ModCtrl})

	if got.Node != n {
		t.Fatal("DragBegin not delivered")
	}
	assertNear(t, "ScreenX", got.ScreenX, sx)
	assertNear(t, "GlobalX", got.GlobalX, 120)
	assertNear(t, "GlobalY", got.GlobalY, 70)
	assertNear(t, "LocalX", got.LocalX, 10)
	assertNear(t, "LocalY", got.LocalY, 10)
	if got.Modifiers != ModShift|ModCtrl {
		t.Errorf("Modifiers = %v", got.Modifiers)
	}
}

// --- Focus and teardown ---

func TestLostFocus(t *testing.T) {
	s, _, _, log := twoBoxes(t)
	press(s, MouseButtonLeft, 10, 10)
	s.PostMessage(InputMessage{Kind: InputLostFocus})
	assertEvents(t, log.take(), []string{
		"CursorEnterFrom:a",
		"DragBegin:a",
		"DragEnd:a",
		"CursorLeaveTo:a",
	})
	if s.DragSubject(MouseButtonLeft) != nil || s.HoverTarget() != nil {
		t.Error("state not cleared on lost focus")
	}
	release(s, MouseButtonLeft, 10, 10)
	if got := log.take(); len(got) != 0 {
		t.Errorf("release after lost focus fired %v", got)
	}
}

func TestTeardownClearsInputState(t *testing.T) {
	s := NewScene()
	p := s.Root().CreateChild("p")
	c := quadChild(p, "c", 0, 0, 50, 50)
	s.Update(0)
	log := recordEvents(s)

	press(s, MouseButtonLeft, 10, 10)
	if s.HoverTarget() != c || s.DragSubject(MouseButtonLeft) != c {
		t.Fatal("setup: c should be hovered and held")
	}
	log.take()

	p.Destroy()
	s.Update(0)
	if s.HoverTarget() != nil || s.DragSubject(MouseButtonLeft) != nil {
		t.Error("destroying an ancestor should clear hover and drag subject")
	}
	move(s, 10, 10)
	release(s, MouseButtonLeft, 10, 10)
	if got := log.take(); len(got) != 0 {
		t.Errorf("events after teardown: %v", got)
	}
}

func TestDestroyedInDragEndIsNotHovered(t *testing.T) {
	s, a, _, log := twoBoxes(t)
	s.OnPointer(EventDragEnd, func(ev PointerEvent) {
		ev.Node.Destroy()
		s.Collect()
	})
	press(s, MouseButtonLeft, 10, 10)
	log.take()

	release(s, MouseButtonLeft, 10, 10)
	assertEvents(t, log.take(), []string{"DragEnd:a"})
	if !a.destroyed {
		t.Fatal("a should be destroyed by the DragEnd handler")
	}
	if s.HoverTarget() != nil {
		t.Error("destroyed node kept as hover target")
	}
	move(s, 20, 20)
	if got := log.take(); len(got) != 0 {
		t.Errorf("events after destroy: %v", got)
	}
}

func TestDestroyedInEnterIsNotDragged(t *testing.T) {
	s, a, _, log := twoBoxes(t)
	s.OnPointer(EventCursorEnterFrom, func(ev PointerEvent) {
		ev.Node.Destroy()
		s.Collect()
	})

	press(s, MouseButtonLeft, 10, 10)
	assertEvents(t, log.take(), []string{"CursorEnterFrom:a"})
	if !a.destroyed {
		t.Fatal("a should be destroyed by the CursorEnterFrom handler")
	}
	if s.DragSubject(MouseButtonLeft) != nil || s.HoverTarget() != nil {
		t.Error("destroyed node kept as drag subject or hover target")
	}
	release(s, MouseButtonLeft, 10, 10)
	if got := log.take(); len(got) != 0 {
		t.Errorf("events after destroy: %v", got)
	}
}

func TestDetachClearsInputState(t *testing.T) {
	s, a, _, _ := twoBoxes(t)
	move(s, 10, 10)
	s.Root().RemoveChild(a)
	s.Update(0)
	if s.HoverTarget() != nil {
		t.Error("detached node still hovered")
	}
}

// --- Handlers ---

func TestCallbackHandleRemove(t *testing.T) {
	s, _, _, _ := twoBoxes(t)
	calls := 0
	h := s.OnPointer(EventCursorEnterFrom, func(PointerEvent) { calls++ })
	move(s, 10, 10)
	h.Remove()
	move(s, 110, 10)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	h.Remove() // idempotent
}

func TestOnPointerUnknownTypePanics(t *testing.T) {
	s := NewScene()
	expectPanic(t, "unknown pointer event", func() { s.OnPointer(eventTypeCount, func(PointerEvent) {}) })
}

type listener struct {
	ComponentBase
	log *[]string
}

func (l *listener) OnPointer(ev PointerEvent) { *l.log = append(*l.log, "component:"+ev.Type.String()) }

func TestPointerListenerAfterSceneHandlers(t *testing.T) {
	s := NewScene()
	n := quadChild(s.Root(), "n", 0, 0, 50, 50)
	var order []string
	n.AddComponent(&listener{log: &order}, true)
	s.Update(0)
	s.OnPointer(EventDoubleClick, func(ev PointerEvent) { order = append(order, "scene:"+ev.Type.String()) })

	x, y := toScreen(10, 10)
	s.PostMessage(InputMessage{Kind: InputDoubleClick, X: x, Y: y})
	want := []string{"scene:DoubleClick", "component:DoubleClick"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestKeyEvents(t *testing.T) {
	s := NewScene()
	var got []KeyEvent
	h := s.OnKey(func(ev KeyEvent) { got = append(got, ev) })
	s.PostMessage(InputMessage{Kind: InputKeyDown, Key: 65, Modifiers: ModAlt})
	s.PostMessage(InputMessage{Kind: InputKeyUp, Key: 65})
	h.Remove()
	s.PostMessage(InputMessage{Kind: InputKeyDown, Key: 66})

	want := []KeyEvent{{Key: 65, Down: true, Modifiers: ModAlt}, {Key: 65}}
	if !slices.Equal(got, want) {
		t.Errorf("key events = %+v, want %+v", got, want)
	}
}

// --- ECS bridge ---

type fakeStore struct {
	events []InteractionEvent
}

func (f *fakeStore) EmitEvent(ev InteractionEvent) { f.events = append(f.events, ev) }

func TestEntityStoreReceivesEvents(t *testing.T) {
	s, a, b, _ := twoBoxes(t)
	a.EntityID = 10
	b.EntityID = 20
	store := &fakeStore{}
	s.SetEntityStore(store)

	press(s, MouseButtonLeft, 10, 10)
	release(s, MouseButtonLeft, 110, 10)

	var types []EventType
	for _, ev := range store.events {
		types = append(types, ev.Type)
	}
	want := []EventType{EventCursorEnterFrom, EventDragBegin, EventDropTo, EventCursorEnterFrom}
	if !slices.Equal(types, want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	drop := store.events[2]
	if drop.EntityID != 10 || drop.OtherID != 20 {
		t.Errorf("drop = %+v, want entity 10 other 20", drop)
	}
}

func TestEntityStoreSkipsUnboundNodes(t *testing.T) {
	s, _, _, _ := twoBoxes(t)
	store := &fakeStore{}
	s.SetEntityStore(store)
	move(s, 10, 10)
	if len(store.events) != 0 {
		t.Errorf("events for nodes without EntityID: %+v", store.events)
	}
}
