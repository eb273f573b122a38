// Package ebitengpu implements the arbor GPU interfaces on Ebitengine.
//
// Buffers are CPU byte slices decoded into ebiten vertices at draw time,
// textures wrap *ebiten.Image, and pixel shaders are Kage programs compiled
// with ebiten.NewShader. A shader pair with an empty pixel source draws with
// ebiten's built-in textured pipeline.
//
// Constant buffers reach Kage as uniforms: pixel-stage slot i is the uniform
// "Constants<i>" and vertex-stage slot i is "VertexConstants<i>", both as
// []float32.
//
//	dev := ebitengpu.NewDevice()
//	rs, err := arbor.NewRenderSystem(dev, cfg.Render)
//	...
//	func (g *Game) Draw(screen *ebiten.Image) {
//		dev.SetTarget(screen)
//		rs.BeginRender()
//		g.scene.Render(rs)
//		rs.EndRender()
//	}
package ebitengpu
