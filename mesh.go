package arbor

import (
	"encoding/binary"
	"math"
)

// Vertex is a 2D vertex with texture coordinates and a straight-alpha color.
type Vertex struct {
	X, Y       float32
	U, V       float32
	R, G, B, A float32
}

const (
	// VertexStride is the encoded size of a Vertex in bytes.
	VertexStride = 32
	// IndexStride is the encoded size of an index in bytes.
	IndexStride = 2
	// MaxBatchVertices is the most vertices a 16-bit index can address.
	MaxBatchVertices = math.MaxUint16 + 1
)

// Mesh is an indexed triangle list in local coordinates.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint16
}

// NewQuadMesh builds a w x h quad with its top-left corner at the origin.
// uv gives the texture coordinates of the quad's corners.
func NewQuadMesh(w, h float64, uv Rect, c Color) Mesh {
	var m Mesh
	m.SetQuad(w, h, uv, c)
	return m
}

// SetQuad rewrites m in place as a quad, reusing its storage.
func (m *Mesh) SetQuad(w, h float64, uv Rect, c Color) {
	u0, v0 := float32(uv.X), float32(uv.Y)
	u1, v1 := float32(uv.X+uv.Width), float32(uv.Y+uv.Height)
	fw, fh := float32(w), float32(h)
	r, g, b, a := float32(c.R), float32(c.G), float32(c.B), float32(c.A)
	m.Vertices = append(m.Vertices[:0],
		Vertex{X: 0, Y: 0, U: u0, V: v0, R: r, G: g, B: b, A: a},
		Vertex{X: fw, Y: 0, U: u1, V: v0, R: r, G: g, B: b, A: a},
		Vertex{X: 0, Y: fh, U: u0, V: v1, R: r, G: g, B: b, A: a},
		Vertex{X: fw, Y: fh, U: u1, V: v1, R: r, G: g, B: b, A: a},
	)
	// Two triangles: TL-TR-BL, TR-BR-BL
	m.Indices = append(m.Indices[:0], 0, 1, 2, 1, 3, 2)
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (m *Mesh) Bounds() Rect {
	if len(m.Vertices) == 0 {
		return Rect{}
	}
	minX, minY := float64(m.Vertices[0].X), float64(m.Vertices[0].Y)
	maxX, maxY := minX, minY
	for _, v := range m.Vertices[1:] {
		x, y := float64(v.X), float64(v.Y)
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// appendTransformed appends src's vertices to dst after applying an affine
// transform and multiplying colors by tint.
//
// newX = a*x + c*y + tx, newY = b*x + d*y + ty
func appendTransformed(dst, src []Vertex, m Matrix, tint Color) []Vertex {
	a, b, c, d, tx, ty := m[0], m[1], m[2], m[3], m[4], m[5]
	cr, cg, cb, ca := float32(tint.R), float32(tint.G), float32(tint.B), float32(tint.A)
	for _, s := range src {
		ox, oy := float64(s.X), float64(s.Y)
		dst = append(dst, Vertex{
			X: float32(a*ox + c*oy + tx),
			Y: float32(b*ox + d*oy + ty),
			U: s.U,
			V: s.V,
			R: s.R * cr,
			G: s.G * cg,
			B: s.B * cb,
			A: s.A * ca,
		})
	}
	return dst
}

// EncodeVertices writes vertices into dst in little-endian float32 order
// (X, Y, U, V, R, G, B, A). Returns the number of vertices written, bounded
// by len(dst)/VertexStride.
func EncodeVertices(dst []byte, verts []Vertex) int {
	n := min(len(verts), len(dst)/VertexStride)
	for i := 0; i < n; i++ {
		v := &verts[i]
		o := dst[i*VertexStride:]
		binary.LittleEndian.PutUint32(o[0:], math.Float32bits(v.X))
		binary.LittleEndian.PutUint32(o[4:], math.Float32bits(v.Y))
		binary.LittleEndian.PutUint32(o[8:], math.Float32bits(v.U))
		binary.LittleEndian.PutUint32(o[12:], math.Float32bits(v.V))
		binary.LittleEndian.PutUint32(o[16:], math.Float32bits(v.R))
		binary.LittleEndian.PutUint32(o[20:], math.Float32bits(v.G))
		binary.LittleEndian.PutUint32(o[24:], math.Float32bits(v.B))
		binary.LittleEndian.PutUint32(o[28:], math.Float32bits(v.A))
	}
	return n
}

// DecodeVertices reads count vertices encoded by EncodeVertices, appending
// them to dst.
func DecodeVertices(dst []Vertex, src []byte, count int) []Vertex {
	count = min(count, len(src)/VertexStride)
	f := func(o []byte, off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(o[off:]))
	}
	for i := 0; i < count; i++ {
		o := src[i*VertexStride:]
		dst = append(dst, Vertex{
			X: f(o, 0), Y: f(o, 4),
			U: f(o, 8), V: f(o, 12),
			R: f(o, 16), G: f(o, 20), B: f(o, 24), A: f(o, 28),
		})
	}
	return dst
}

// EncodeIndices writes indices into dst little-endian. Returns the number
// written.
func EncodeIndices(dst []byte, inds []uint16) int {
	n := min(len(inds), len(dst)/IndexStride)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(dst[i*IndexStride:], inds[i])
	}
	return n
}

// DecodeIndices reads count indices encoded by EncodeIndices, appending them
// to dst.
func DecodeIndices(dst []uint16, src []byte, count int) []uint16 {
	count = min(count, len(src)/IndexStride)
	for i := 0; i < count; i++ {
		dst = append(dst, binary.LittleEndian.Uint16(src[i*IndexStride:]))
	}
	return dst
}

// encodeFloats writes up to len(dst)/4 floats and returns how many were
// written.
func encodeFloats(dst []byte, src []float32) int {
	n := min(len(src), len(dst)/4)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(src[i]))
	}
	return n
}

// DecodeFloats reads little-endian float32 values from src, appending them
// to dst.
func DecodeFloats(dst []float32, src []byte) []float32 {
	for i := 0; i+4 <= len(src); i += 4 {
		dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(src[i:])))
	}
	return dst
}
