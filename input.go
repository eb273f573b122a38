package arbor

// InputKind identifies the kind of a normalized input message.
type InputKind uint8

const (
	InputMove        InputKind = iota // cursor moved to (X, Y)
	InputButtonDown                   // Button pressed at (X, Y)
	InputButtonUp                     // Button released at (X, Y)
	InputDoubleClick                  // Button double-clicked at (X, Y)
	InputKeyDown                      // Key pressed
	InputKeyUp                        // Key released
	InputLostFocus                    // the host window lost focus
)

// InputMessage is a normalized input event in screen coordinates, as
// produced by a platform adapter or by the Inject helpers.
type InputMessage struct {
	Kind      InputKind
	Button    MouseButton
	Key       int
	X, Y      float64
	Modifiers KeyModifiers
}

// PointerEvent is delivered to pointer handlers and PointerListener
// components. Other is the related node for enter/leave and drop events
// (the node the cursor came from or went to, or the drop target).
type PointerEvent struct {
	Type      EventType
	Node      *Node
	Other     *Node
	Button    MouseButton
	ScreenX   float64
	ScreenY   float64
	GlobalX   float64
	GlobalY   float64
	LocalX    float64
	LocalY    float64
	Modifiers KeyModifiers
}

// KeyEvent is delivered to scene-level key handlers.
type KeyEvent struct {
	Key       int
	Down      bool
	Modifiers KeyModifiers
}

// --- Built-in HitShape types ---

// HitRect is an axis-aligned rectangular hit area in local coordinates.
type HitRect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r HitRect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// HitCircle is a circular hit area in local coordinates.
type HitCircle struct {
	CenterX, CenterY, Radius float64
}

// Contains reports whether (x, y) lies inside or on the circle.
func (c HitCircle) Contains(x, y float64) bool {
	dx := x - c.CenterX
	dy := y - c.CenterY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// HitPolygon is a convex polygon hit area in local coordinates.
// Points must define a convex polygon in either winding order.
type HitPolygon struct {
	Points []Vec2
}

// Contains reports whether (x, y) lies inside a convex polygon using cross-product sign test.
func (p HitPolygon) Contains(x, y float64) bool {
	n := len(p.Points)
	if n < 3 {
		return false
	}
	var positive, negative bool
	for i := 0; i < n; i++ {
		a := p.Points[i]
		b := p.Points[(i+1)%n]
		cross := (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
		if cross > 0 {
			positive = true
		} else if cross < 0 {
			negative = true
		}
		if positive && negative {
			return false
		}
	}
	return true
}

// --- State ---

// buttonState tracks one mouse button. subject is the node the button was
// pressed over; it stays the drag subject until release.
type buttonState struct {
	down    bool
	subject *Node
}

type inputState struct {
	buttons [mouseButtonCount]buttonState
	hover   *Node
	// hovered is set once EventHovering fired this tick; Update clears it.
	hovered bool
	x, y    float64
	mods    KeyModifiers
}

func (st *inputState) anyDown() bool {
	for i := range st.buttons {
		if st.buttons[i].down {
			return true
		}
	}
	return false
}

// forgetNode drops every reference the dispatcher holds to n.
func (s *Scene) forgetNode(n *Node) {
	st := &s.input
	if st.hover == n {
		st.hover = nil
	}
	for i := range st.buttons {
		if st.buttons[i].subject == n {
			st.buttons[i].subject = nil
		}
	}
}

// HoverTarget returns the node currently under the cursor, or nil.
func (s *Scene) HoverTarget() *Node {
	return s.input.hover
}

// DragSubject returns the node held by the given button, or nil.
func (s *Scene) DragSubject(button MouseButton) *Node {
	if button >= mouseButtonCount {
		return nil
	}
	return s.input.buttons[button].subject
}

// --- Handler registry ---

type pointerHandler struct {
	id uint32
	fn func(PointerEvent)
}

type keyHandler struct {
	id uint32
	fn func(KeyEvent)
}

type handlerRegistry struct {
	pointer [eventTypeCount][]pointerHandler
	key     []keyHandler
	nextID  uint32
}

// CallbackHandle allows removing a registered scene-level callback.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event EventType
	key   bool
}

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	if h.key {
		h.reg.key = removeHandler(h.reg.key, func(k keyHandler) bool { return k.id == h.id })
		return
	}
	h.reg.pointer[h.event] = removeHandler(h.reg.pointer[h.event], func(p pointerHandler) bool { return p.id == h.id })
}

func removeHandler[T any](s []T, match func(T) bool) []T {
	for i := range s {
		if match(s[i]) {
			var zero T
			copy(s[i:], s[i+1:])
			s[len(s)-1] = zero
			return s[:len(s)-1]
		}
	}
	return s
}

// OnPointer registers a scene-level callback for one pointer event type.
// Scene-level callbacks run before the target node's PointerListener
// components.
func (s *Scene) OnPointer(event EventType, fn func(PointerEvent)) CallbackHandle {
	if event >= eventTypeCount {
		panic("arbor: unknown pointer event type")
	}
	s.handlers.nextID++
	id := s.handlers.nextID
	s.handlers.pointer[event] = append(s.handlers.pointer[event], pointerHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &s.handlers, event: event}
}

// OnKey registers a scene-level callback for key down and key up messages.
func (s *Scene) OnKey(fn func(KeyEvent)) CallbackHandle {
	s.handlers.nextID++
	id := s.handlers.nextID
	s.handlers.key = append(s.handlers.key, keyHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &s.handlers, key: true}
}

// --- Hit testing ---

// nodeContainsLocal tests whether (lx, ly) falls inside a node's hit region:
// its HitShape if set, otherwise its local bounds.
func nodeContainsLocal(n *Node, lx, ly float64) bool {
	if n.HitShape != nil {
		return n.HitShape.Contains(lx, ly)
	}
	b := n.LocalBounds()
	if b.IsPoint() {
		return false
	}
	return b.Contains(lx, ly)
}

// hitResult is a resolved hit: the node (nil for a miss) and the world point
// under the cursor as seen by the camera that produced it.
type hitResult struct {
	node   *Node
	wx, wy float64
}

// hitTest resolves the single nearest node under a screen point. Cameras are
// tried topmost first; within a camera the visible list is walked in reverse
// paint order. On a miss the world point comes from the topmost camera
// containing the cursor.
func (s *Scene) hitTest(sx, sy float64) hitResult {
	res := hitResult{wx: sx, wy: sy}
	found := false
	cams := s.Cameras()
	for i := len(cams) - 1; i >= 0; i-- {
		cam := cams[i]
		if !cam.active || !cam.ContainsScreen(sx, sy) {
			continue
		}
		wx, wy := cam.ScreenToWorld(sx, sy)
		if !found {
			res.wx, res.wy = wx, wy
			found = true
		}
		vis := cam.visible
		for j := len(vis) - 1; j >= 0; j-- {
			n := vis[j]
			if !n.Interactable || n.destroying || !n.inTree {
				continue
			}
			lx, ly := n.WorldToLocal(wx, wy)
			if nodeContainsLocal(n, lx, ly) {
				return hitResult{node: n, wx: wx, wy: wy}
			}
		}
	}
	return res
}

// --- Dispatch ---

// PostMessage feeds one input message through the dispatcher. Hits are
// resolved against the visible lists computed by the last Update.
func (s *Scene) PostMessage(msg InputMessage) {
	st := &s.input
	st.mods = msg.Modifiers
	switch msg.Kind {
	case InputMove:
		st.x, st.y = msg.X, msg.Y
		s.pointerMoved()
	case InputButtonDown:
		st.x, st.y = msg.X, msg.Y
		s.buttonDown(msg.Button)
	case InputButtonUp:
		st.x, st.y = msg.X, msg.Y
		s.buttonUp(msg.Button)
	case InputDoubleClick:
		st.x, st.y = msg.X, msg.Y
		hit := s.hitTest(st.x, st.y)
		if hit.node != nil {
			s.firePointer(EventDoubleClick, hit.node, nil, msg.Button, hit)
		}
	case InputKeyDown, InputKeyUp:
		s.fireKey(KeyEvent{Key: msg.Key, Down: msg.Kind == InputKeyDown, Modifiers: msg.Modifiers})
	case InputLostFocus:
		s.lostFocus()
	}
}

func (s *Scene) pointerMoved() {
	st := &s.input
	hit := s.hitTest(st.x, st.y)
	if !st.anyDown() {
		s.updateHover(hit)
		return
	}
	for b := range st.buttons {
		bs := &st.buttons[b]
		if !bs.down || bs.subject == nil {
			continue
		}
		if hit.node != nil && hit.node != bs.subject {
			s.firePointer(EventDropping, bs.subject, hit.node, MouseButton(b), hit)
		} else {
			s.firePointer(EventDragging, bs.subject, nil, MouseButton(b), hit)
		}
	}
}

// updateHover runs the idle hover transitions for a resolved hit.
func (s *Scene) updateHover(hit hitResult) {
	st := &s.input
	old := st.hover
	if hit.node != old {
		st.hover = hit.node
		if old != nil {
			s.firePointer(EventCursorLeaveTo, old, hit.node, MouseButtonLeft, hit)
		}
		if attached(hit.node) {
			s.firePointer(EventCursorEnterFrom, hit.node, old, MouseButtonLeft, hit)
		}
		return
	}
	if old != nil && !st.hovered {
		st.hovered = true
		s.firePointer(EventHovering, old, nil, MouseButtonLeft, hit)
	}
}

func (s *Scene) buttonDown(button MouseButton) {
	if button >= mouseButtonCount {
		return
	}
	st := &s.input
	bs := &st.buttons[button]
	if bs.down {
		return
	}
	hit := s.hitTest(st.x, st.y)
	if !st.anyDown() && hit.node != st.hover {
		s.updateHover(hit)
	}
	bs.down = true
	if !attached(hit.node) {
		return
	}
	bs.subject = hit.node
	s.firePointer(EventDragBegin, hit.node, nil, button, hit)
}

func (s *Scene) buttonUp(button MouseButton) {
	if button >= mouseButtonCount {
		return
	}
	st := &s.input
	bs := &st.buttons[button]
	if !bs.down {
		return
	}
	subject := bs.subject
	bs.down = false
	bs.subject = nil
	hit := s.hitTest(st.x, st.y)

	if subject == nil {
		if !st.anyDown() {
			s.updateHover(hit)
		}
		return
	}
	if hit.node != nil && hit.node != subject {
		s.firePointer(EventDropTo, subject, hit.node, button, hit)
		if attached(hit.node) {
			st.hover = hit.node
			s.firePointer(EventCursorEnterFrom, hit.node, subject, button, hit)
		}
		return
	}
	s.firePointer(EventDragEnd, subject, nil, button, hit)
	if hit.node == subject && attached(subject) {
		s.firePointer(EventClick, subject, nil, button, hit)
	}
	if !attached(hit.node) {
		st.hover = nil
		return
	}
	st.hover = hit.node
	s.firePointer(EventCursorEnterFrom, hit.node, nil, button, hit)
}

// attached reports whether n can still receive input: it is in the tree and
// no callback has destroyed it since its hit was resolved.
func attached(n *Node) bool {
	return n != nil && n.inTree && !n.destroying && !n.destroyed
}

// lostFocus ends every drag and leaves the hover target.
func (s *Scene) lostFocus() {
	st := &s.input
	res := hitResult{wx: st.x, wy: st.y}
	for b := range st.buttons {
		bs := &st.buttons[b]
		subject := bs.subject
		bs.down = false
		bs.subject = nil
		if subject != nil {
			s.firePointer(EventDragEnd, subject, nil, MouseButton(b), res)
		}
	}
	if old := st.hover; old != nil {
		st.hover = nil
		s.firePointer(EventCursorLeaveTo, old, nil, MouseButtonLeft, res)
	}
}

// firePointer delivers one event: scene-level handlers first, then the
// node's PointerListener components in execute order, then the ECS bridge.
func (s *Scene) firePointer(typ EventType, node, other *Node, button MouseButton, hit hitResult) {
	lx, ly := node.WorldToLocal(hit.wx, hit.wy)
	ev := PointerEvent{
		Type:      typ,
		Node:      node,
		Other:     other,
		Button:    button,
		ScreenX:   s.input.x,
		ScreenY:   s.input.y,
		GlobalX:   hit.wx,
		GlobalY:   hit.wy,
		LocalX:    lx,
		LocalY:    ly,
		Modifiers: s.input.mods,
	}
	for _, h := range s.handlers.pointer[typ] {
		h.fn(ev)
	}
	for _, c := range node.components.live {
		if l, ok := c.(PointerListener); ok {
			l.OnPointer(ev)
		}
	}
	s.emitInteractionEvent(ev)
}

func (s *Scene) fireKey(ev KeyEvent) {
	for _, h := range s.handlers.key {
		h.fn(ev)
	}
}

// --- ECS bridge ---

func (s *Scene) emitInteractionEvent(ev PointerEvent) {
	if s.store == nil || ev.Node == nil || ev.Node.EntityID == 0 {
		return
	}
	var otherID uint32
	if ev.Other != nil {
		otherID = ev.Other.EntityID
	}
	s.store.EmitEvent(InteractionEvent{
		Type:      ev.Type,
		EntityID:  ev.Node.EntityID,
		OtherID:   otherID,
		GlobalX:   ev.GlobalX,
		GlobalY:   ev.GlobalY,
		LocalX:    ev.LocalX,
		LocalY:    ev.LocalY,
		Button:    ev.Button,
		Modifiers: ev.Modifiers,
	})
}
