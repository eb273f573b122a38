package arbor

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want Matrix) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

func translate(x, y float64) Matrix { return Matrix{1, 0, 0, 1, x, y} }
func scale(sx, sy float64) Matrix   { return Matrix{sx, 0, 0, sy, 0, 0} }
func rotate(r float64) Matrix {
	sin, cos := math.Sincos(r)
	return Matrix{cos, sin, -sin, cos, 0, 0}
}

// --- Transform ---

func TestTransformIdentity(t *testing.T) {
	tr := NewTransform()
	assertMatrix(t, "identity", tr.Matrix(), IdentityMatrix)
}

func TestTransformComponents(t *testing.T) {
	tests := []struct {
		name string
		set  func(*Transform)
		want Matrix
	}{
		{"translation", func(tr *Transform) { tr.SetPosition(10, 20) }, Matrix{1, 0, 0, 1, 10, 20}},
		{"scale", func(tr *Transform) { tr.SetScale(2, 3) }, Matrix{2, 0, 0, 3, 0, 0}},
		// cos(90)=0, sin(90)=1 → a=0, b=1, c=-1, d=0
		{"rot90", func(tr *Transform) { tr.SetRotation(math.Pi / 2) }, Matrix{0, 1, -1, 0, 0, 0}},
		{"pivot", func(tr *Transform) {
			tr.SetPosition(100, 50)
			tr.SetPivot(16, 8)
		}, Matrix{1, 0, 0, 1, 84, 42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransform()
			tt.set(&tr)
			assertMatrix(t, tt.name, tr.Matrix(), tt.want)
		})
	}
}

func TestTransformComposition(t *testing.T) {
	tr := NewTransform()
	tr.SetPosition(30, -5)
	tr.SetRotation(0.7)
	tr.SetScale(1.5, 0.5)
	tr.SetPivot(4, 9)

	want := translate(30, -5).Multiply(rotate(0.7)).Multiply(scale(1.5, 0.5)).Multiply(translate(-4, -9))
	assertMatrix(t, "composed", tr.Matrix(), want)
}

func TestTransformLazyRecompute(t *testing.T) {
	tr := NewTransform()
	tr.SetPosition(1, 2)
	if !tr.Dirty() {
		t.Fatal("setter should mark dirty")
	}
	first := tr.Matrix()
	if tr.Dirty() {
		t.Fatal("Matrix should clear dirty")
	}
	if second := tr.Matrix(); second != first {
		t.Errorf("cached matrix changed: %v vs %v", second, first)
	}
	tr.SetPosition(3, 4)
	assertMatrix(t, "after move", tr.Matrix(), translate(3, 4))
}

// --- Matrix ---

func TestMatrixInvert(t *testing.T) {
	m := translate(5, 7).Multiply(rotate(1.1)).Multiply(scale(2, 4))
	assertMatrix(t, "m * inv", m.Multiply(m.Invert()), IdentityMatrix)
}

func TestMatrixInvertSingular(t *testing.T) {
	assertMatrix(t, "singular", scale(0, 1).Invert(), IdentityMatrix)
}

func TestTransformRect(t *testing.T) {
	r := rotate(math.Pi / 2).TransformRect(Rect{Width: 10, Height: 20})
	assertNear(t, "X", r.X, -20)
	assertNear(t, "Y", r.Y, 0)
	assertNear(t, "Width", r.Width, 20)
	assertNear(t, "Height", r.Height, 10)
}

// --- World matrix ---

func TestWorldMatrixIsParentTimesLocal(t *testing.T) {
	s := NewScene()
	a := s.Root().CreateChild("a")
	b := a.CreateChild("b")
	c := b.CreateChild("c")
	s.Collect()

	a.SetPosition(100, 0)
	a.SetRotation(0.3)
	b.SetScale(2, 2)
	b.SetPosition(5, 5)
	c.SetPosition(1, 2)
	c.SetPivot(3, 3)

	for _, n := range []*Node{a, b, c} {
		want := n.Parent().WorldMatrix().Multiply(n.LocalMatrix())
		assertMatrix(t, n.Name, n.WorldMatrix(), want)
	}
}

func TestWorldMatrixPropagatesOnWrite(t *testing.T) {
	s := NewScene()
	parent := s.Root().CreateChild("parent")
	child := parent.CreateChild("child")
	s.Collect()

	child.SetPosition(10, 0)
	assertMatrix(t, "before", child.WorldMatrix(), translate(10, 0))

	parent.SetPosition(0, 50)
	assertMatrix(t, "after parent move", child.WorldMatrix(), translate(10, 50))

	parent.SetScale(2, 2)
	assertMatrix(t, "after parent scale", child.WorldMatrix(), Matrix{2, 0, 0, 2, 20, 50})
}

func TestWorldToLocalRoundTrip(t *testing.T) {
	s := NewScene()
	n := s.Root().CreateChild("n")
	s.Collect()
	n.SetPosition(40, 30)
	n.SetRotation(0.5)
	n.SetScale(3, 1)

	lx, ly := n.WorldToLocal(n.LocalToWorld(7, -2))
	assertNear(t, "lx", lx, 7)
	assertNear(t, "ly", ly, -2)
}

type moveCounter struct {
	ComponentBase
	moves, scales, rotates int
}

func (m *moveCounter) OnMove()   { m.moves++ }
func (m *moveCounter) OnScale()  { m.scales++ }
func (m *moveCounter) OnRotate() { m.rotates++ }

func TestTransformNotifiesComponents(t *testing.T) {
	s := NewScene()
	n := s.Root().CreateChild("n")
	mc := &moveCounter{}
	n.AddComponent(mc, false)
	s.Collect()

	n.SetPosition(1, 1)
	n.SetPosition(2, 2)
	n.SetScale(2, 2)
	n.SetRotation(1)
	if mc.moves != 2 || mc.scales != 1 || mc.rotates != 1 {
		t.Errorf("moves=%d scales=%d rotates=%d, want 2/1/1", mc.moves, mc.scales, mc.rotates)
	}
}

func TestWorldBoundsFromComponents(t *testing.T) {
	s := NewScene()
	n := s.Root().CreateChild("n")
	n.AddComponent(NewQuad(10, 20, nil), true)
	s.Collect()
	n.SetPosition(100, 100)
	n.SetScale(2, 2)

	b := n.WorldBounds()
	if b != (Rect{X: 100, Y: 100, Width: 20, Height: 40}) {
		t.Errorf("WorldBounds = %+v", b)
	}
}

func TestPointBoundsWithoutBoundedComponent(t *testing.T) {
	s := NewScene()
	n := s.Root().CreateChild("n")
	s.Collect()
	n.SetPosition(5, 5)
	if !n.WorldBounds().IsPoint() {
		t.Errorf("expected point bounds, got %+v", n.WorldBounds())
	}
}
