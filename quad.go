package arbor

// Quad is a component drawing a textured, tinted rectangle with its
// top-left corner at the node origin.
type Quad struct {
	ComponentBase

	// Material draws the quad. A nil material draws nothing.
	Material *Material
	// Tint multiplies the vertex colors.
	Tint Color
	// Layer is the render layer; lower layers draw first.
	Layer int

	width, height float64
	uv            Rect
	mesh          Mesh
	meshDirty     bool
}

// NewQuad creates a w x h quad covering the full texture.
func NewQuad(w, h float64, mat *Material) *Quad {
	return &Quad{
		Material:  mat,
		Tint:      ColorWhite,
		width:     w,
		height:    h,
		uv:        Rect{Width: 1, Height: 1},
		meshDirty: true,
	}
}

// Size returns the quad's width and height.
func (q *Quad) Size() (w, h float64) { return q.width, q.height }

// SetSize resizes the quad and updates its node's bounds.
func (q *Quad) SetSize(w, h float64) {
	if q.width == w && q.height == h {
		return
	}
	q.width, q.height = w, h
	q.meshDirty = true
	if n := q.Node(); n != nil {
		n.InvalidateBounds()
	}
}

// UV returns the texture coordinates of the quad.
func (q *Quad) UV() Rect { return q.uv }

// SetUV sets the texture coordinates mapped onto the quad's corners.
func (q *Quad) SetUV(uv Rect) {
	q.uv = uv
	q.meshDirty = true
}

// LocalBounds implements Bounded.
func (q *Quad) LocalBounds() Rect {
	return Rect{Width: q.width, Height: q.height}
}

// Mesh returns the quad's local mesh, rebuilding it if needed.
func (q *Quad) Mesh() *Mesh {
	if q.meshDirty {
		q.mesh.SetQuad(q.width, q.height, q.uv, ColorWhite)
		q.meshDirty = false
	}
	return &q.mesh
}

// OnRender implements Renderer.
func (q *Quad) OnRender(rc *RenderContext) {
	if q.Material == nil {
		return
	}
	rc.Submit(q.Layer, q.Mesh(), q.Material, q.Tint)
}
