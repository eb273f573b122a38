package arbor

// quadCell is one cell of the quadtree arena. Children are arena indices,
// created once on the first insertion that reaches the cell and never freed.
type quadCell struct {
	bounds   Rect
	children [4]int32
	nchild   int8
	split    bool
	entities []*Node
}

// quadtree is a region-bounded spatial index over node world bounds. Static
// nodes are pushed down into the deepest cell that fully contains them;
// dynamic and point-sized nodes live in a root-level list that is tested on
// every query. Cells hold plain back-references and own nothing.
type quadtree struct {
	cells   []quadCell
	minSize float64
	dynamic []*Node
}

func newQuadtree(region Rect, minSize float64) *quadtree {
	q := &quadtree{minSize: minSize}
	q.newCell(region)
	return q
}

func (q *quadtree) newCell(bounds Rect) int32 {
	q.cells = append(q.cells, quadCell{
		bounds:   bounds,
		children: [4]int32{noCell, noCell, noCell, noCell},
	})
	return int32(len(q.cells) - 1)
}

// insert places n by its current world bounds. n must not already be held.
func (q *quadtree) insert(n *Node) {
	bounds := n.WorldBounds()
	if !n.static || bounds.IsPoint() {
		q.dynamic = append(q.dynamic, n)
		n.dynamicSlot = true
		n.cell = noCell
		return
	}
	q.tryAddRecursive(0, bounds, n)
}

// tryAddRecursive stores n in the deepest cell under ci whose box fully
// contains bounds.
func (q *quadtree) tryAddRecursive(ci int32, bounds Rect, n *Node) {
	q.splitCell(ci)
	cell := &q.cells[ci]
	for i := int8(0); i < cell.nchild; i++ {
		child := cell.children[i]
		if q.cells[child].bounds.ContainsRect(bounds) {
			q.tryAddRecursive(child, bounds, n)
			return
		}
	}
	cell.entities = append(cell.entities, n)
	n.cell = ci
	n.dynamicSlot = false
}

// splitCell lazily creates the children of ci: four quadrants when both axes
// exceed the minimum size, two halves when only one does, none otherwise.
func (q *quadtree) splitCell(ci int32) {
	if q.cells[ci].split {
		return
	}
	q.cells[ci].split = true
	b := q.cells[ci].bounds
	wide := b.Width > q.minSize
	tall := b.Height > q.minSize
	hw, hh := b.Width/2, b.Height/2

	var parts []Rect
	switch {
	case wide && tall:
		parts = []Rect{
			{X: b.X, Y: b.Y, Width: hw, Height: hh},
			{X: b.X + hw, Y: b.Y, Width: hw, Height: hh},
			{X: b.X, Y: b.Y + hh, Width: hw, Height: hh},
			{X: b.X + hw, Y: b.Y + hh, Width: hw, Height: hh},
		}
	case wide:
		parts = []Rect{
			{X: b.X, Y: b.Y, Width: hw, Height: b.Height},
			{X: b.X + hw, Y: b.Y, Width: hw, Height: b.Height},
		}
	case tall:
		parts = []Rect{
			{X: b.X, Y: b.Y, Width: b.Width, Height: hh},
			{X: b.X, Y: b.Y + hh, Width: b.Width, Height: hh},
		}
	default:
		return
	}
	for i, r := range parts {
		child := q.newCell(r)
		q.cells[ci].children[i] = child
	}
	q.cells[ci].nchild = int8(len(parts))
}

// remove erases n from the cell (or dynamic list) recorded on it.
// Returns false if the tree does not hold n.
func (q *quadtree) remove(n *Node) bool {
	if n.dynamicSlot {
		n.dynamicSlot = false
		var ok bool
		q.dynamic, ok = eraseNode(q.dynamic, n)
		return ok
	}
	if n.cell == noCell {
		return false
	}
	cell := &q.cells[n.cell]
	n.cell = noCell
	var ok bool
	cell.entities, ok = eraseNode(cell.entities, n)
	return ok
}

// reinsert removes n and inserts it again from the root.
func (q *quadtree) reinsert(n *Node) {
	q.remove(n)
	q.insert(n)
}

// findVisible appends every held node the camera can see to dst. The root
// cell is never pruned because it also holds nodes outside the region.
// Children are always visited when their box meets the camera bounds, even if
// the parent held no match.
func (q *quadtree) findVisible(cam *Camera, dst []*Node) []*Node {
	camBounds := cam.VisibleBounds()
	for _, n := range q.dynamic {
		if cam.canSee(n, n.WorldBounds()) {
			dst = append(dst, n)
		}
	}
	return q.visit(0, cam, camBounds, dst)
}

func (q *quadtree) visit(ci int32, cam *Camera, camBounds Rect, dst []*Node) []*Node {
	cell := &q.cells[ci]
	if ci != 0 && !cell.bounds.Intersects(camBounds) {
		return dst
	}
	for _, n := range cell.entities {
		if cam.canSee(n, n.WorldBounds()) {
			dst = append(dst, n)
		}
	}
	for i := int8(0); i < cell.nchild; i++ {
		dst = q.visit(cell.children[i], cam, camBounds, dst)
	}
	return dst
}

// cellOf returns the arena index of the cell holding n, or noCell for
// dynamic or unindexed nodes.
func (q *quadtree) cellOf(n *Node) int32 {
	return n.cell
}

// cellCount returns the number of allocated cells.
func (q *quadtree) cellCount() int {
	return len(q.cells)
}

// depth returns the number of cell levels allocated so far.
func (q *quadtree) depth() int {
	var walk func(ci int32) int
	walk = func(ci int32) int {
		d := 0
		cell := &q.cells[ci]
		for i := int8(0); i < cell.nchild; i++ {
			d = max(d, walk(cell.children[i]))
		}
		return d + 1
	}
	return walk(0)
}

// eraseNode removes the first occurrence of n from s, preserving order.
func eraseNode(s []*Node, n *Node) ([]*Node, bool) {
	for i, v := range s {
		if v == n {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = nil
			return s[:len(s)-1], true
		}
	}
	return s, false
}
