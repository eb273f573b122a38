package arbor

// Component is behavior or data attached to a Node. Implementations embed
// ComponentBase and opt into callbacks by implementing any of the capability
// interfaces below (Initializer, Updater, Renderer, ...). Callbacks a
// component does not implement cost nothing.
type Component interface {
	base() *ComponentBase
}

// ComponentBase carries the bookkeeping every component needs. Embed it by
// value in component structs.
type ComponentBase struct {
	node         *Node
	executeOrder int
	autoRelease  bool
	initialized  bool
}

func (b *ComponentBase) base() *ComponentBase { return b }

// Node returns the node this component is attached to, or nil.
func (b *ComponentBase) Node() *Node { return b.node }

// ExecuteOrder returns the sort key used to position the component among its
// node's components. Lower values run first.
func (b *ComponentBase) ExecuteOrder() int { return b.executeOrder }

// SetExecuteOrder sets the sort key. It must be called before the component
// is attached; reordering a live component panics.
func (b *ComponentBase) SetExecuteOrder(order int) {
	if b.node != nil {
		panic("arbor: cannot change execute order of an attached component")
	}
	b.executeOrder = order
}

// AutoRelease reports the ownership flag given when the component was attached.
func (b *ComponentBase) AutoRelease() bool { return b.autoRelease }

// Initializer is implemented by components that need setup once they become
// live on a node.
type Initializer interface {
	OnInitial()
}

// Updater is implemented by components that run every Update tick.
type Updater interface {
	OnUpdate(dt float64)
}

// Renderer is implemented by components that emit render requests when their
// node is visible to a camera.
type Renderer interface {
	OnRender(rc *RenderContext)
}

// Mover is notified after its node's position changes.
type Mover interface {
	OnMove()
}

// Scaler is notified after its node's scale changes.
type Scaler interface {
	OnScale()
}

// Rotator is notified after its node's rotation changes.
type Rotator interface {
	OnRotate()
}

// MessageHandler receives messages sent with Node.SendMessage.
type MessageHandler interface {
	OnMessage(msg any)
}

// PointerListener receives interaction events targeting its node.
type PointerListener interface {
	OnPointer(ev PointerEvent)
}

// Releaser is called when an auto-released component is detached or its node
// is destroyed.
type Releaser interface {
	OnRelease()
}

// Bounded components contribute a local-space rectangle to their node's
// bounds. Nodes without bounded components are point-sized and never visible.
type Bounded interface {
	LocalBounds() Rect
}

// ReleasePolicy decides whether RemoveComponent releases the component.
type ReleasePolicy uint8

const (
	ReleaseAuto  ReleasePolicy = iota // use the flag given at attach time
	ReleaseForce                      // release regardless of the attach flag
	ReleaseKeep                       // never release; the caller keeps ownership
)

func (p ReleasePolicy) resolve(autoRelease bool) bool {
	switch p {
	case ReleaseForce:
		return true
	case ReleaseKeep:
		return false
	default:
		return autoRelease
	}
}

func releaseComponent(c Component) {
	if r, ok := c.(Releaser); ok {
		r.OnRelease()
	}
}
