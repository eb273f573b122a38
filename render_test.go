package arbor

import (
	"errors"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRenderSystem(t *testing.T) (*RenderSystem, *fakeDevice) {
	t.Helper()
	dev := newFakeDevice()
	rs, err := NewRenderSystem(dev, testRenderConfig())
	if err != nil {
		t.Fatalf("NewRenderSystem: %v", err)
	}
	for _, ps := range []string{"psA", "psB"} {
		if _, err := rs.LoadShader("vs", ps, nil, nil); err != nil {
			t.Fatalf("LoadShader: %v", err)
		}
	}
	return rs, dev
}

func drawnQuad(parent *Node, name string, x, y float64, mat *Material) *Node {
	n := parent.CreateChild(name)
	n.AddComponent(NewQuad(10, 10, mat), true)
	n.SetPosition(x, y)
	return n
}

func renderFrame(t *testing.T, s *Scene, rs *RenderSystem) {
	t.Helper()
	rs.BeginRender()
	if err := s.Render(rs); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := rs.EndRender(); err != nil {
		t.Fatalf("EndRender: %v", err)
	}
}

func TestNewRenderSystemFallbackTexture(t *testing.T) {
	rs, _ := newTestRenderSystem(t)
	fb, ok := rs.FallbackTexture().(*fakeTexture)
	if !ok || fb.w != 4 || fb.h != 4 {
		t.Fatalf("fallback = %+v", rs.FallbackTexture())
	}
	for i, p := range fb.pixels {
		if p != 0xff {
			t.Fatalf("fallback pixel byte %d = %#x, want white", i, p)
		}
	}
	rs.Release()
	if !fb.released {
		t.Error("Release did not free the fallback texture")
	}
}

func TestNewRenderSystemTextureFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.failTexture = true
	if _, err := NewRenderSystem(dev, testRenderConfig()); !errors.Is(err, errFakeDevice) {
		t.Errorf("err = %v", err)
	}
}

func TestLoadShaderReplacesPrevious(t *testing.T) {
	rs, dev := newTestRenderSystem(t)
	old, _ := rs.Batcher().LookupShader("vs", "psA")
	sh, err := rs.LoadShader("vs", "psA", []byte("v2"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !old.(*fakeShader).released {
		t.Error("replaced shader not released")
	}
	if got, _ := rs.Batcher().LookupShader("vs", "psA"); got != sh {
		t.Error("lookup does not return the new shader")
	}

	dev.failShader = true
	if _, err := rs.LoadShader("vs", "psC", nil, nil); !errors.Is(err, errFakeDevice) {
		t.Errorf("err = %v", err)
	}
	if _, ok := rs.Batcher().LookupShader("vs", "psC"); ok {
		t.Error("failed shader was registered")
	}
}

func TestRegisterTexture(t *testing.T) {
	rs, _ := newTestRenderSystem(t)
	tex := &fakeTexture{w: 2, h: 2}
	rs.RegisterTexture("hero.png", tex)
	if got, ok := rs.Texture("hero.png"); !ok || got != Texture(tex) {
		t.Error("registered texture not found")
	}
	if _, ok := rs.Texture("nope.png"); ok {
		t.Error("unknown path resolved")
	}
}

func TestCreateTextureGeneratesMips(t *testing.T) {
	rs, dev := newTestRenderSystem(t)
	plain, err := rs.CreateTexture("plain.png", TextureDesc{Width: 4, Height: 4})
	if err != nil {
		t.Fatal(err)
	}
	if dev.ctx.mips != 0 {
		t.Errorf("mips generated for a texture without mipmaps")
	}
	mipped, err := rs.CreateTexture("mipped.png", TextureDesc{Width: 8, Height: 8, Mipmaps: true})
	if err != nil {
		t.Fatal(err)
	}
	if dev.ctx.mips != 1 {
		t.Errorf("mips generated %d times, want 1", dev.ctx.mips)
	}
	for path, want := range map[string]Texture{"plain.png": plain, "mipped.png": mipped} {
		if got, ok := rs.Texture(path); !ok || got != want {
			t.Errorf("%s not registered", path)
		}
	}

	dev.failTexture = true
	if _, err := rs.CreateTexture("broken.png", TextureDesc{Width: 1, Height: 1}); err == nil {
		t.Error("expected error from failing device")
	}
	if _, ok := rs.Texture("broken.png"); ok {
		t.Error("failed texture registered")
	}
}

func TestRenderVisibleQuads(t *testing.T) {
	rs, dev := newTestRenderSystem(t)
	s := NewScene()
	mat := material("a", "psA")
	drawnQuad(s.Root(), "a", 0, 0, mat)
	drawnQuad(s.Root(), "b", 20, 0, mat)
	drawnQuad(s.Root(), "far", 5000, 0, mat)
	s.Update(0)

	renderFrame(t, s, rs)
	draws := dev.ctx.draws
	if len(draws) != 1 {
		t.Fatalf("draws = %d, want 1 merged draw", len(draws))
	}
	d := draws[0]
	if len(d.verts) != 8 {
		t.Errorf("verts = %d, want 8 (culled quad excluded)", len(d.verts))
	}
	// World (0,0) is the screen center of the default camera.
	if d.verts[0].X != 640 || d.verts[0].Y != 360 || d.verts[4].X != 660 {
		t.Errorf("screen positions = (%v,%v) (%v)", d.verts[0].X, d.verts[0].Y, d.verts[4].X)
	}
	if d.viewport != s.MainCamera().Viewport {
		t.Errorf("viewport = %+v", d.viewport)
	}
}

func TestRenderPaintOrder(t *testing.T) {
	rs, dev := newTestRenderSystem(t)
	s := NewScene()
	ma, mb := material("a", "psA"), material("b", "psB")
	drawnQuad(s.Root(), "a", 0, 0, ma)
	b := drawnQuad(s.Root(), "b", 0, 0, mb)
	drawnQuad(s.Root(), "c", 0, 0, ma)
	s.Update(0)

	renderFrame(t, s, rs)
	if got := drawShaders(dev.ctx.draws); !slices.Equal(got, []string{"vs+psA", "vs+psB", "vs+psA"}) {
		t.Errorf("draws = %v", got)
	}

	dev.ctx.draws = nil
	b.MoveToBack()
	s.Update(0)
	renderFrame(t, s, rs)
	if got := drawShaders(dev.ctx.draws); !slices.Equal(got, []string{"vs+psB", "vs+psA"}) {
		t.Errorf("after MoveToBack draws = %v", got)
	}
}

func TestRenderEachCamera(t *testing.T) {
	rs, dev := newTestRenderSystem(t)
	s := NewScene()
	right := s.NewCamera("right", Rect{X: 640, Width: 640, Height: 720})
	drawnQuad(s.Root(), "a", 0, 0, material("a", "psA"))
	s.Update(0)

	renderFrame(t, s, rs)
	draws := dev.ctx.draws
	if len(draws) != 2 {
		t.Fatalf("draws = %d, want one per camera", len(draws))
	}
	if draws[1].viewport != right.Viewport {
		t.Errorf("second viewport = %+v", draws[1].viewport)
	}
	if draws[1].verts[0].X != 960 {
		t.Errorf("x through right camera = %v, want 960", draws[1].verts[0].X)
	}

	dev.ctx.draws = nil
	right.SetActive(false)
	s.Update(0)
	renderFrame(t, s, rs)
	if len(dev.ctx.draws) != 1 {
		t.Errorf("inactive camera drew: %d draws", len(dev.ctx.draws))
	}
}

func TestRenderSkipsNilMaterial(t *testing.T) {
	rs, dev := newTestRenderSystem(t)
	s := NewScene()
	quadChild(s.Root(), "plain", 0, 0, 10, 10)
	s.Update(0)
	renderFrame(t, s, rs)
	if len(dev.ctx.draws) != 0 {
		t.Errorf("draws = %d", len(dev.ctx.draws))
	}
}

func TestRenderPolygon(t *testing.T) {
	rs, dev := newTestRenderSystem(t)
	s := NewScene()
	n := s.Root().CreateChild("tri")
	n.AddComponent(NewPolygon([]Vec2{{0, 0}, {30, 0}, {0, 30}}, material("a", "psA")), true)
	s.Update(0)

	renderFrame(t, s, rs)
	if len(dev.ctx.draws) != 1 || len(dev.ctx.draws[0].inds) != 3 {
		t.Fatalf("draws = %+v", dev.ctx.draws)
	}
}

func TestRenderOutsideFramePanics(t *testing.T) {
	rs, _ := newTestRenderSystem(t)
	s := NewScene()
	expectPanic(t, "outside BeginRender", func() { _ = s.Render(rs) })
	expectPanic(t, "without BeginRender", func() { _ = rs.EndRender() })
	rs.BeginRender()
	expectPanic(t, "twice", rs.BeginRender)
}

func TestRenderDebugStats(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rs, _ := newTestRenderSystem(t)
	rs.SetLogger(zap.New(core))
	rs.SetDebugMode(true)
	s := NewScene()
	drawnQuad(s.Root(), "a", 0, 0, material("a", "psA"))
	s.Update(0)

	renderFrame(t, s, rs)
	entries := logs.FilterMessage("render frame").All()
	if len(entries) != 1 {
		t.Fatalf("render frame logged %d times", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["cameras"] != int64(1) || ctx["draw_calls"] != int64(1) || ctx["nodes"] != int64(1) {
		t.Errorf("fields = %v", ctx)
	}
}

func TestRenderDebugStatsCountFinalFlush(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rs, _ := newTestRenderSystem(t)
	rs.SetLogger(zap.New(core))
	rs.SetDebugMode(true)

	rs.BeginRender()
	rs.Batcher().Submit(0, quadRequest(0, 0, material("a", "psA")))
	if err := rs.EndRender(); err != nil {
		t.Fatal(err)
	}
	entries := logs.FilterMessage("render frame").All()
	if len(entries) != 1 {
		t.Fatalf("render frame logged %d times", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["batches"] != int64(1) || ctx["draw_calls"] != int64(1) {
		t.Errorf("fields = %v", ctx)
	}
}
