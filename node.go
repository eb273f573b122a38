package arbor

// HitShape is used for custom hit testing regions in local coordinates.
type HitShape interface {
	Contains(x, y float64) bool
}

// nodeIDCounter is a plain counter; arbor is single-threaded.
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// noCell marks a node that no quadtree cell currently holds.
const noCell int32 = -1

// Node is the fundamental scene graph element. It owns a local transform,
// an ordered list of components and an ordered list of children.
//
// Structural changes (children and components) are staged and become live at
// the end of the node's update tick, so callbacks may freely add or remove
// things while the tree is being walked.
type Node struct {
	// Identity
	ID   uint32
	Name string

	// Hierarchy
	parent   *Node
	scene    *Scene
	index    int
	children deferredList[*Node]

	components deferredList[Component]
	camera     *Camera

	transform  Transform
	world      Matrix
	worldDirty bool

	// Visibility & interaction
	Visible      bool
	Interactable bool
	// VisibleMask is matched against a camera's mask; the node is visible to
	// the camera only if the two share at least one bit.
	VisibleMask uint32
	// GlobalOrder overrides tree order when painting: lower values paint
	// first, ties fall back to the tree walk.
	GlobalOrder int
	HitShape    HitShape

	// Metadata
	UserData any
	EntityID uint32

	// Spatial index
	static      bool
	cell        int32
	dynamicSlot bool
	localBounds Rect
	boundsDirty bool
	reindex     bool

	renderingOrder int

	inTree     bool
	destroying bool
	destroyed  bool
}

func newNode(name string, scene *Scene) *Node {
	n := &Node{
		ID:           nextNodeID(),
		Name:         name,
		scene:        scene,
		transform:    NewTransform(),
		world:        IdentityMatrix,
		worldDirty:   true,
		Visible:      true,
		Interactable: true,
		VisibleMask:  ^uint32(0),
		cell:         noCell,
		boundsDirty:  true,
	}
	n.components.order = componentOrder
	return n
}

func componentOrder(c Component) int {
	return c.base().executeOrder
}

// Parent returns the node's parent, or nil for the root and detached nodes.
func (n *Node) Parent() *Node { return n.parent }

// Scene returns the scene the node belongs to.
func (n *Node) Scene() *Scene { return n.scene }

// Index returns the node's position among its parent's live children.
func (n *Node) Index() int { return n.index }

// RenderingOrder returns the node's position in the scene's pre-order walk.
func (n *Node) RenderingOrder() int {
	if n.scene != nil {
		n.scene.refreshRenderingOrder()
	}
	return n.renderingOrder
}

// IsDestroyed returns true once the node has been torn down.
func (n *Node) IsDestroyed() bool { return n.destroyed }

// InTree reports whether the node is live in its scene's tree.
func (n *Node) InTree() bool { return n.inTree }

// --- Tree manipulation ---

// CreateChild creates a node and stages it as this node's last child. The
// child becomes live at the end of the current update tick (or on the next
// Scene.Collect).
func (n *Node) CreateChild(name string) *Node {
	if n.scene != nil && n.scene.debug {
		debugCheckDestroyed(n, "CreateChild")
	}
	child := newNode(name, n.scene)
	child.parent = n
	n.children.add(child)
	return child
}

// AddChild stages child under this node. If child currently has another
// parent it is staged for removal there first. Returns false if child is
// already a live or staged child. Panics if child is nil, destroyed, or an
// ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) bool {
	if n.scene != nil && n.scene.debug {
		debugCheckDestroyed(n, "AddChild")
	}
	if child == nil {
		panic("arbor: cannot add nil child")
	}
	if child.destroyed || child.destroying {
		panic("arbor: cannot add destroyed child")
	}
	if isAncestor(child, n) {
		panic("arbor: adding child would create a cycle")
	}
	if child.parent == n {
		return n.children.add(child)
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = n
	child.scene = n.scene
	child.invalidateWorld()
	return n.children.add(child)
}

// RemoveChild stages child for detachment without destroying it. Returns false
// if child is not a live or staged child of this node.
func (n *Node) RemoveChild(child *Node) bool {
	if child == nil || child.parent != n {
		return false
	}
	ok, staged := n.children.remove(child, false)
	if ok && !staged {
		child.parent = nil
		child.invalidateWorld()
	}
	return ok
}

// Children returns the live child list. The returned slice MUST NOT be mutated.
func (n *Node) Children() []*Node {
	return n.children.live
}

// NumChildren returns the number of live children.
func (n *Node) NumChildren() int {
	return len(n.children.live)
}

// ChildAt returns the live child at the given index.
func (n *Node) ChildAt(index int) *Node {
	if index < 0 || index >= len(n.children.live) {
		panic("arbor: child index out of range")
	}
	return n.children.live[index]
}

// Destroy stages the node for destruction. At the next collect the node is
// removed from the spatial index, its auto-released components are released
// and its children are destroyed recursively. Panics on the scene root.
func (n *Node) Destroy() {
	if n.destroyed || n.destroying {
		return
	}
	if n.scene != nil && n == n.scene.root {
		panic("arbor: cannot destroy the scene root")
	}
	n.destroying = true
	p := n.parent
	if p == nil {
		n.teardown()
		return
	}
	if i := p.children.indexRemove(n); i >= 0 {
		p.children.removes[i].release = true
		return
	}
	ok, staged := p.children.remove(n, true)
	if ok && !staged {
		n.teardown()
	}
}

// teardown destroys the node and its subtree immediately.
func (n *Node) teardown() {
	if n.destroyed {
		return
	}
	n.destroying = true
	for _, child := range n.children.live {
		if child.parent != n {
			continue
		}
		if i := n.children.indexRemove(child); i >= 0 && !n.children.removes[i].release {
			// Staged by RemoveChild: the caller keeps it.
			n.childRemoved(child, false)
			continue
		}
		child.teardown()
	}
	for _, child := range n.children.adds {
		if child.parent == n {
			child.teardown()
		}
	}
	for _, c := range n.components.live {
		b := c.base()
		release := b.autoRelease
		if i := n.components.indexRemove(c); i >= 0 {
			release = n.components.removes[i].release
		}
		n.detachComponent(c, release)
	}
	for _, c := range n.components.adds {
		n.detachComponent(c, c.base().autoRelease)
	}
	if n.scene != nil {
		n.scene.nodeDestroyed(n)
	}
	n.children = deferredList[*Node]{}
	n.components = deferredList[Component]{order: componentOrder}
	n.parent = nil
	n.inTree = false
	n.HitShape = nil
	n.UserData = nil
	n.destroyed = true
}

// --- Sibling ordering (immediate, not deferred) ---

func (n *Node) liveIndex() int {
	p := n.parent
	if p == nil {
		return -1
	}
	i := p.children.indexLive(n)
	if i < 0 {
		panic("arbor: node is not a live child")
	}
	return i
}

// MoveToFront moves the node to the end of its parent's children so it
// paints above its siblings.
func (n *Node) MoveToFront() {
	if i := n.liveIndex(); i >= 0 {
		n.parent.SetChildIndex(n, len(n.parent.children.live)-1)
	}
}

// MoveToBack moves the node to the start of its parent's children so it
// paints below its siblings.
func (n *Node) MoveToBack() {
	if i := n.liveIndex(); i >= 0 {
		n.parent.SetChildIndex(n, 0)
	}
}

// MovePrev swaps the node with its previous sibling. No-op at index 0.
func (n *Node) MovePrev() {
	if i := n.liveIndex(); i > 0 {
		n.parent.SwapChildren(i, i-1)
	}
}

// MoveNext swaps the node with its next sibling. No-op when already last.
func (n *Node) MoveNext() {
	i := n.liveIndex()
	if i >= 0 && i < len(n.parent.children.live)-1 {
		n.parent.SwapChildren(i, i+1)
	}
}

// SwapChildren exchanges the live children at indices i and j.
func (n *Node) SwapChildren(i, j int) {
	nc := len(n.children.live)
	if i < 0 || i >= nc || j < 0 || j >= nc {
		panic("arbor: child index out of range")
	}
	if i == j {
		return
	}
	c := n.children.live
	c[i], c[j] = c[j], c[i]
	n.childrenReordered()
}

// SetChildIndex moves a live child to a new index among its siblings.
func (n *Node) SetChildIndex(child *Node, index int) {
	if child.parent != n {
		panic("arbor: child's parent is not this node")
	}
	nc := len(n.children.live)
	if index < 0 || index >= nc {
		panic("arbor: child index out of range")
	}
	oldIndex := n.children.indexLive(child)
	if oldIndex < 0 {
		panic("arbor: node is not a live child")
	}
	if oldIndex == index {
		return
	}
	c := n.children.live
	// Shift elements to fill the gap and open the target slot.
	if oldIndex < index {
		copy(c[oldIndex:], c[oldIndex+1:index+1])
	} else {
		copy(c[index+1:], c[index:oldIndex])
	}
	c[index] = child
	n.childrenReordered()
}

func (n *Node) childrenReordered() {
	n.renumberChildren()
	if n.scene != nil {
		n.scene.markOrderDirty()
	}
}

func (n *Node) renumberChildren() {
	for i, c := range n.children.live {
		c.index = i
	}
}

// --- Components ---

// AddComponent stages c on this node. autoRelease transfers ownership: when
// true the engine calls OnRelease when the component is detached or the node
// is destroyed. Returns false if c is already live or staged here. Adding a
// component that is staged for removal cancels the removal. Panics if c is
// attached to another node.
func (n *Node) AddComponent(c Component, autoRelease bool) bool {
	if c == nil {
		panic("arbor: cannot add nil component")
	}
	if n.destroyed {
		panic("arbor: AddComponent on destroyed node")
	}
	b := c.base()
	if b.node != nil && b.node != n {
		panic("arbor: component is attached to another node")
	}
	if b.node == n {
		return n.components.add(c)
	}
	b.node = n
	b.autoRelease = autoRelease
	if cam, ok := c.(*Camera); ok {
		n.camera = cam
	}
	return n.components.add(c)
}

// RemoveComponent stages c for removal. The policy decides whether the
// component is released, overriding the attach-time flag if needed. Returns
// false if c is not attached here or already staged for removal.
func (n *Node) RemoveComponent(c Component, policy ReleasePolicy) bool {
	if c == nil {
		return false
	}
	b := c.base()
	if b.node != n {
		return false
	}
	release := policy.resolve(b.autoRelease)
	ok, staged := n.components.remove(c, release)
	if ok && !staged {
		n.detachComponent(c, release)
	}
	return ok
}

// Components returns the live components in execute order. The returned
// slice MUST NOT be mutated.
func (n *Node) Components() []Component {
	return n.components.live
}

// HasComponent reports whether c is live on this node.
func (n *Node) HasComponent(c Component) bool {
	return n.components.isLive(c)
}

// FindComponent returns the first live component of type T on n.
func FindComponent[T Component](n *Node) (T, bool) {
	for _, c := range n.components.live {
		if t, ok := c.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

func (n *Node) attachComponent(c Component) {
	b := c.base()
	if cam, ok := c.(*Camera); ok {
		n.camera = cam
		if n.inTree && n.scene != nil {
			n.scene.registerCamera(cam)
		}
	}
	if _, ok := c.(Bounded); ok {
		n.InvalidateBounds()
	}
	if !b.initialized {
		b.initialized = true
		if i, ok := c.(Initializer); ok {
			i.OnInitial()
		}
	}
}

func (n *Node) detachComponent(c Component, release bool) {
	b := c.base()
	if cam, ok := c.(*Camera); ok && n.camera == cam {
		n.camera = nil
		if n.scene != nil {
			n.scene.unregisterCamera(cam)
		}
	}
	b.node = nil
	b.initialized = false
	if _, ok := c.(Bounded); ok {
		n.InvalidateBounds()
	}
	if release {
		releaseComponent(c)
	}
}

// SendMessage delivers msg to every live component implementing
// MessageHandler, in execute order.
func (n *Node) SendMessage(msg any) {
	if n.scene != nil && n.scene.debug {
		debugCheckDestroyed(n, "SendMessage")
	}
	for _, c := range n.components.live {
		if h, ok := c.(MessageHandler); ok {
			h.OnMessage(msg)
		}
	}
}

// BroadcastMessage delivers msg to this node and all live descendants,
// depth-first.
func (n *Node) BroadcastMessage(msg any) {
	n.SendMessage(msg)
	for _, child := range n.children.live {
		child.BroadcastMessage(msg)
	}
}

// --- Tick ---

// update dispatches OnUpdate to live components, recurses into live children
// and finally applies this node's staged changes.
func (n *Node) update(dt float64) {
	if n.destroying {
		return
	}
	for _, c := range n.components.live {
		if u, ok := c.(Updater); ok && c.base().node == n {
			u.OnUpdate(dt)
		}
	}
	for _, child := range n.children.live {
		child.update(dt)
	}
	n.collect()
}

// collect applies staged child and component changes for this node only.
func (n *Node) collect() {
	changed := n.children.collect(n.childAdded, n.childRemoved)
	if changed {
		n.renumberChildren()
		if n.scene != nil {
			n.scene.markOrderDirty()
		}
	}
	n.components.collect(n.attachComponent, n.detachComponent)
}

// Collect applies staged changes for the node and its subtree now instead of
// waiting for the next update tick. Panics when called while the scene is
// walking its tree.
func (n *Node) Collect() {
	if n.scene != nil && n.scene.updating {
		panic("arbor: Collect called during scene update")
	}
	n.collectSubtree()
	if n.scene != nil {
		n.scene.flushReindex()
	}
}

// collectSubtree collects every node below and including n, children first.
func (n *Node) collectSubtree() {
	for _, child := range n.children.live {
		child.collectSubtree()
	}
	n.collect()
}

func (n *Node) childAdded(child *Node) {
	if child.parent != n || child.destroyed {
		return
	}
	// A subtree built while detached goes live with its staged content.
	child.collectSubtree()
	if n.inTree && n.scene != nil {
		n.scene.attachSubtree(child)
	}
	if n.scene != nil && n.scene.debug {
		debugCheckTreeDepth(n.scene, child)
		debugCheckChildCount(n.scene, n)
	}
}

func (n *Node) childRemoved(child *Node, release bool) {
	if child.parent != n {
		// Reparented elsewhere before this collect; the new parent owns it.
		return
	}
	if release {
		child.teardown()
		return
	}
	if child.inTree && n.scene != nil {
		n.scene.detachSubtree(child)
	}
	child.parent = nil
	child.invalidateWorld()
}

// --- Helpers ---

// visibleInTree reports whether n and all of its ancestors are visible.
func (n *Node) visibleInTree() bool {
	for p := n; p != nil; p = p.parent {
		if !p.Visible {
			return false
		}
	}
	return true
}

// isAncestor reports whether candidate is an ancestor of node (or node itself).
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}
