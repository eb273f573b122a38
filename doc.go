// Package arbor is a retained-mode 2D scene graph with deferred tree
// mutation, camera culling over a quadtree, pointer interaction and a
// material-aware render batcher.
//
// # Quick start
//
// A scene owns a root node and a main camera centered on world (0, 0).
// Nodes are created as children of existing nodes and carry components:
//
//	scene := arbor.NewScene()
//	hero := scene.Root().CreateChild("hero")
//	hero.AddComponent(arbor.NewQuad(32, 32, mat), true)
//	hero.SetPosition(100, 50)
//
// Call [Scene.Update] once per tick and draw between
// [RenderSystem.BeginRender] and [RenderSystem.EndRender]:
//
//	func (g *Game) Update() error {
//		g.scene.Update(1.0 / 60)
//		return nil
//	}
//
//	func (g *Game) Draw(screen *ebiten.Image) {
//		g.device.SetTarget(screen)
//		g.rs.BeginRender()
//		if err := g.scene.Render(g.rs); err != nil {
//			log.Print(err)
//		}
//		if err := g.rs.EndRender(); err != nil {
//			log.Print(err)
//		}
//	}
//
// # Deferred mutation
//
// Adding or removing children and components is staged. Staged changes
// become live when the owning node finishes its update tick, or on
// [Scene.Collect] outside of Update. Callbacks may therefore restructure
// the tree while it is being walked. Sibling reordering ([Node.MoveToFront]
// and friends) is immediate.
//
// # Components
//
// A component embeds [ComponentBase] and implements any of the optional
// callback interfaces: [Initializer], [Updater], [Renderer], [Mover],
// [Scaler], [Rotator], [MessageHandler], [PointerListener], [Releaser] and
// [Bounded]. Built-ins are [Quad], [Polygon], [Camera] and [Tween]; the
// script sub-package adds Lua-driven components.
//
// # Visibility and input
//
// Static nodes are indexed in a quadtree by world bounds; dynamic nodes are
// tested every frame. Each camera keeps a visible list sorted by
// (GlobalOrder, rendering order). Input messages posted with
// [Scene.PostMessage] are hit-tested against those lists, topmost camera
// first, and drive a per-button drag and drop state machine.
//
// # Rendering
//
// [Renderer] components submit meshes to the [RenderBatcher], which merges
// consecutive requests whose materials are [Material.IsSame] into one
// upload and one draw per pass. The GPU is reached only through the
// [Device] and [Context] interfaces; the ebitengpu sub-package implements
// them on Ebitengine.
//
// Logging uses [zap]; configuration is read from TOML with [LoadConfig] and
// materials from YAML with [LoadMaterialLibrary]. Interaction events can be
// forwarded to a [Donburi] world through the ecs sub-package.
//
// [zap]: https://pkg.go.dev/go.uber.org/zap
// [Donburi]: https://github.com/yohamta/donburi
package arbor
