package arbor

import "math"

// Matrix is a 2D affine matrix laid out as [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Matrix [6]float64

// IdentityMatrix is the identity affine matrix.
var IdentityMatrix = Matrix{1, 0, 0, 1, 0, 0}

// Multiply returns m * c (c is applied first).
func (m Matrix) Multiply(c Matrix) Matrix {
	return Matrix{
		m[0]*c[0] + m[2]*c[1],
		m[1]*c[0] + m[3]*c[1],
		m[0]*c[2] + m[2]*c[3],
		m[1]*c[2] + m[3]*c[3],
		m[0]*c[4] + m[2]*c[5] + m[4],
		m[1]*c[4] + m[3]*c[5] + m[5],
	}
}

// Invert computes the inverse of the matrix.
// Returns the identity matrix if the matrix is singular (determinant ≈ 0).
func (m Matrix) Invert() Matrix {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return IdentityMatrix
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Matrix{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// Apply transforms the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// TransformRect returns the axis-aligned bounding box of r after
// transformation by m.
func (m Matrix) TransformRect(r Rect) Rect {
	x0, y0 := m.Apply(r.X, r.Y)
	x1, y1 := m.Apply(r.X+r.Width, r.Y)
	x2, y2 := m.Apply(r.X+r.Width, r.Y+r.Height)
	x3, y3 := m.Apply(r.X, r.Y+r.Height)

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Transform holds a local position, pivot, scale and rotation and caches the
// matrix they compose to. The matrix is rebuilt on the first Matrix call
// after any setter.
type Transform struct {
	x, y           float64
	pivotX, pivotY float64
	scaleX, scaleY float64
	rotation       float64

	matrix Matrix
	dirty  bool
}

// NewTransform returns an identity transform.
func NewTransform() Transform {
	return Transform{scaleX: 1, scaleY: 1, matrix: IdentityMatrix}
}

// SetPosition stores the local translation and marks the transform dirty.
func (t *Transform) SetPosition(x, y float64) {
	t.x, t.y = x, y
	t.dirty = true
}

// SetScale stores the scale factors and marks the transform dirty.
func (t *Transform) SetScale(sx, sy float64) {
	t.scaleX, t.scaleY = sx, sy
	t.dirty = true
}

// SetRotation stores the rotation in radians and marks the transform dirty.
func (t *Transform) SetRotation(r float64) {
	t.rotation = r
	t.dirty = true
}

// SetPivot stores the pivot point (in local units) and marks the transform dirty.
func (t *Transform) SetPivot(px, py float64) {
	t.pivotX, t.pivotY = px, py
	t.dirty = true
}

// Position returns the local translation.
func (t *Transform) Position() (x, y float64) { return t.x, t.y }

// Scale returns the scale factors.
func (t *Transform) Scale() (sx, sy float64) { return t.scaleX, t.scaleY }

// Rotation returns the rotation in radians.
func (t *Transform) Rotation() float64 { return t.rotation }

// Pivot returns the pivot point.
func (t *Transform) Pivot() (px, py float64) { return t.pivotX, t.pivotY }

// Dirty reports whether the cached matrix is stale.
func (t *Transform) Dirty() bool { return t.dirty }

// Matrix returns the local affine matrix, recomputing it if dirty.
//
// Composition order:
//
//	Translate(-PivotX, -PivotY) -> Scale -> Rotate -> Translate(X, Y)
func (t *Transform) Matrix() Matrix {
	if !t.dirty {
		return t.matrix
	}
	t.dirty = false

	sx := t.scaleX
	sy := t.scaleY
	sin, cos := math.Sincos(t.rotation)

	// After Scale * Translate(-pivot):
	//   a=sx, b=0, c=0, d=sy, tx=-px*sx, ty=-py*sy
	preTx := -t.pivotX * sx
	preTy := -t.pivotY * sy

	t.matrix = Matrix{
		cos * sx,
		sin * sx,
		-sin * sy,
		cos * sy,
		cos*preTx - sin*preTy + t.x,
		sin*preTx + cos*preTy + t.y,
	}
	return t.matrix
}

// --- Node transform ---

// SetPosition sets the node's local position, invalidates the world matrices
// of the subtree and notifies Mover components.
func (n *Node) SetPosition(x, y float64) {
	n.transform.SetPosition(x, y)
	n.invalidateWorld()
	for _, c := range n.components.live {
		if m, ok := c.(Mover); ok {
			m.OnMove()
		}
	}
}

// SetScale sets the node's local scale and notifies Scaler components.
func (n *Node) SetScale(sx, sy float64) {
	n.transform.SetScale(sx, sy)
	n.invalidateWorld()
	for _, c := range n.components.live {
		if s, ok := c.(Scaler); ok {
			s.OnScale()
		}
	}
}

// SetRotation sets the node's local rotation (radians) and notifies Rotator
// components.
func (n *Node) SetRotation(r float64) {
	n.transform.SetRotation(r)
	n.invalidateWorld()
	for _, c := range n.components.live {
		if rt, ok := c.(Rotator); ok {
			rt.OnRotate()
		}
	}
}

// SetPivot sets the node's local pivot.
func (n *Node) SetPivot(px, py float64) {
	n.transform.SetPivot(px, py)
	n.invalidateWorld()
}

// Position returns the node's local position.
func (n *Node) Position() (x, y float64) { return n.transform.Position() }

// Scale returns the node's local scale.
func (n *Node) Scale() (sx, sy float64) { return n.transform.Scale() }

// Rotation returns the node's local rotation in radians.
func (n *Node) Rotation() float64 { return n.transform.Rotation() }

// Pivot returns the node's local pivot.
func (n *Node) Pivot() (px, py float64) { return n.transform.Pivot() }

// LocalMatrix returns the node's local affine matrix.
func (n *Node) LocalMatrix() Matrix {
	return n.transform.Matrix()
}

// WorldMatrix returns parent.WorldMatrix() * LocalMatrix(), cached until the
// node or one of its ancestors changes.
func (n *Node) WorldMatrix() Matrix {
	if !n.worldDirty {
		return n.world
	}
	parent := IdentityMatrix
	if n.parent != nil {
		parent = n.parent.WorldMatrix()
	}
	n.world = parent.Multiply(n.transform.Matrix())
	n.worldDirty = false
	return n.world
}

// invalidateWorld marks the cached world matrix of n and its whole subtree
// stale. A dirty node always has a dirty subtree, so the walk stops early at
// nodes that are already dirty.
func (n *Node) invalidateWorld() {
	if n.worldDirty {
		return
	}
	n.worldDirty = true
	if n.camera != nil {
		n.camera.MarkDirty()
	}
	if n.static {
		n.queueReindex()
	}
	for _, child := range n.children.live {
		child.invalidateWorld()
	}
	for _, child := range n.children.adds {
		child.invalidateWorld()
	}
}

// --- Coordinate conversion ---

// WorldToLocal converts a world-space point to this node's local coordinate space.
func (n *Node) WorldToLocal(wx, wy float64) (lx, ly float64) {
	return n.WorldMatrix().Invert().Apply(wx, wy)
}

// LocalToWorld converts a local-space point to world-space.
func (n *Node) LocalToWorld(lx, ly float64) (wx, wy float64) {
	return n.WorldMatrix().Apply(lx, ly)
}

// --- Bounds ---

// LocalBounds returns the union of the local bounds of the node's live
// Bounded components. A node without any is point-sized at its origin.
func (n *Node) LocalBounds() Rect {
	if !n.boundsDirty {
		return n.localBounds
	}
	n.boundsDirty = false
	var r Rect
	found := false
	for _, c := range n.components.live {
		b, ok := c.(Bounded)
		if !ok {
			continue
		}
		lb := b.LocalBounds()
		if !found {
			r = lb
			found = true
		} else {
			r = r.Union(lb)
		}
	}
	n.localBounds = r
	return r
}

// WorldBounds returns the axis-aligned bounding box of the local bounds in
// world space.
func (n *Node) WorldBounds() Rect {
	return n.WorldMatrix().TransformRect(n.LocalBounds())
}

// InvalidateBounds tells the node that a component's local bounds changed.
// Static nodes are re-inserted into the spatial index on the next Update.
func (n *Node) InvalidateBounds() {
	n.boundsDirty = true
	if n.static {
		n.queueReindex()
	}
}

// IsStatic reports whether the node's bounds are placed into quadtree cells.
func (n *Node) IsStatic() bool { return n.static }

// SetStatic marks the node as static (indexed into quadtree cells by its
// world bounds) or dynamic (kept in the root-level list and tested every
// frame). Toggling re-inserts the node on the next Update.
func (n *Node) SetStatic(static bool) {
	if n.static == static {
		return
	}
	n.static = static
	n.queueReindex()
}

func (n *Node) queueReindex() {
	if n.reindex || !n.inTree || n.scene == nil {
		return
	}
	n.reindex = true
	n.scene.reindexQueue = append(n.scene.reindexQueue, n)
}
