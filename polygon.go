package arbor

// NewPolygonMesh fan-triangulates a convex polygon. UVs map the points'
// bounding box onto the unit square. Fewer than three points, or more than a
// 16-bit index can address, give an empty mesh.
func NewPolygonMesh(points []Vec2, c Color) Mesh {
	var m Mesh
	m.SetPolygon(points, c)
	return m
}

// SetPolygon rewrites m in place as a fan-triangulated polygon.
func (m *Mesh) SetPolygon(points []Vec2, c Color) {
	m.Vertices = m.Vertices[:0]
	m.Indices = m.Indices[:0]
	n := len(points)
	if n < 3 || n > MaxBatchVertices {
		return
	}

	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	bw, bh := maxX-minX, maxY-minY

	r, g, b, a := float32(c.R), float32(c.G), float32(c.B), float32(c.A)
	for _, p := range points {
		var u, v float64
		if bw > 0 {
			u = (p.X - minX) / bw
		}
		if bh > 0 {
			v = (p.Y - minY) / bh
		}
		m.Vertices = append(m.Vertices, Vertex{
			X: float32(p.X), Y: float32(p.Y),
			U: float32(u), V: float32(v),
			R: r, G: g, B: b, A: a,
		})
	}
	// Vertex 0 is the hub.
	for i := 0; i < n-2; i++ {
		m.Indices = append(m.Indices, 0, uint16(i+1), uint16(i+2))
	}
}

// Polygon is a component drawing a filled convex polygon in local
// coordinates. Its outline doubles as the node's hit shape.
type Polygon struct {
	ComponentBase

	Material *Material
	Tint     Color
	Layer    int

	points []Vec2
	mesh   Mesh
}

// NewPolygon creates a polygon component from the given points (copied).
func NewPolygon(points []Vec2, mat *Material) *Polygon {
	p := &Polygon{Material: mat, Tint: ColorWhite}
	p.setPoints(points)
	return p
}

// Points returns the polygon's outline. The returned slice MUST NOT be mutated.
func (p *Polygon) Points() []Vec2 { return p.points }

// SetPoints replaces the outline and updates the node's bounds.
func (p *Polygon) SetPoints(points []Vec2) {
	p.setPoints(points)
	if n := p.Node(); n != nil {
		n.InvalidateBounds()
		if _, ok := n.HitShape.(HitPolygon); ok {
			n.HitShape = HitPolygon{Points: p.points}
		}
	}
}

func (p *Polygon) setPoints(points []Vec2) {
	p.points = append(p.points[:0], points...)
	p.mesh.SetPolygon(p.points, ColorWhite)
}

// Mesh returns the triangulated polygon.
func (p *Polygon) Mesh() *Mesh { return &p.mesh }

// OnInitial installs the outline as the node's hit shape unless one is set.
func (p *Polygon) OnInitial() {
	if n := p.Node(); n != nil && n.HitShape == nil {
		n.HitShape = HitPolygon{Points: p.points}
	}
}

// LocalBounds implements Bounded.
func (p *Polygon) LocalBounds() Rect { return p.mesh.Bounds() }

// OnRender implements Renderer.
func (p *Polygon) OnRender(rc *RenderContext) {
	if p.Material == nil || len(p.mesh.Indices) == 0 {
		return
	}
	rc.Submit(p.Layer, &p.mesh, p.Material, p.Tint)
}
