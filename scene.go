package arbor

import (
	"cmp"
	"slices"
	"time"

	"go.uber.org/zap"
)

// EntityStore is the interface for optional ECS integration.
// When set on a Scene, interaction events are forwarded to the ECS.
type EntityStore interface {
	EmitEvent(event InteractionEvent)
}

// InteractionEvent carries interaction data for the ECS bridge.
type InteractionEvent struct {
	Type      EventType
	EntityID  uint32
	OtherID   uint32 // EntityID of PointerEvent.Other, 0 if none
	GlobalX   float64
	GlobalY   float64
	LocalX    float64
	LocalY    float64
	Button    MouseButton
	Modifiers KeyModifiers
}

// Scene is the top-level object that owns the node tree, cameras, spatial
// index and input state.
type Scene struct {
	root   *Node
	config Config
	logger *zap.Logger
	debug  bool
	store  EntityStore

	// Cameras
	cameras      []*Camera
	camerasDirty bool
	nextCameraID int
	mainCamera   *Camera

	// Spatial index
	spatial      *quadtree
	reindexQueue []*Node

	orderDirty bool
	updating   bool

	// Input
	input       inputState
	handlers    handlerRegistry
	injectQueue []InputMessage
	testRunner  *TestRunner
}

// NewScene creates a scene with DefaultConfig.
func NewScene() *Scene {
	return NewSceneWithConfig(DefaultConfig())
}

// NewSceneWithConfig creates a scene with a root node and the main camera
// (id 0) covering the configured screen. Panics if cfg fails the checks
// LoadConfig applies.
func NewSceneWithConfig(cfg Config) *Scene {
	if err := cfg.validate(); err != nil {
		panic("arbor: invalid config: " + err.Error())
	}
	s := &Scene{
		config:      cfg,
		logger:      zap.NewNop(),
		debug:       cfg.Scene.Debug,
		spatial:     newQuadtree(cfg.Spatial.Region(), cfg.Spatial.MinCellSize),
		injectQueue: make([]InputMessage, 0, cfg.Input.QueueSize),
	}
	s.root = newNode("root", s)
	s.attachSubtree(s.root)
	s.mainCamera = s.NewCamera("main", Rect{Width: cfg.Scene.Width, Height: cfg.Scene.Height})
	s.Collect()
	return s
}

// Root returns the scene's root node.
func (s *Scene) Root() *Node {
	return s.root
}

// Config returns the configuration the scene was created with.
func (s *Scene) Config() Config {
	return s.config
}

// Logger returns the scene's logger. Never nil.
func (s *Scene) Logger() *zap.Logger {
	return s.logger
}

// SetLogger replaces the scene's logger. nil installs a no-op logger.
func (s *Scene) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	s.logger = l
}

// SetDebugMode enables or disables debug mode. When enabled, use of destroyed
// nodes panics, tree depth and child count warnings are logged, and per-frame
// stats are logged at debug level.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
}

// SetEntityStore sets the optional ECS bridge.
func (s *Scene) SetEntityStore(store EntityStore) {
	s.store = store
}

// Update runs one frame tick: one injected input message is dispatched, the
// tree is walked (OnUpdate then collect, per node), moved static nodes are
// re-indexed, and every camera's visible list is rebuilt.
func (s *Scene) Update(dt float64) {
	if s.updating {
		panic("arbor: Update called re-entrantly")
	}
	var stats debugStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	if s.testRunner != nil {
		s.testRunner.step(s)
	}
	s.processInjected()
	s.input.hovered = false

	s.updating = true
	s.root.update(dt)
	s.updating = false

	if s.debug {
		stats.updateTime = time.Since(t0)
		stats.reindexed = len(s.reindexQueue)
		t0 = time.Now()
	}

	s.flushReindex()
	s.refreshRenderingOrder()

	if s.debug {
		stats.reindexTime = time.Since(t0)
		t0 = time.Now()
	}

	s.cull()

	if s.debug {
		stats.cullTime = time.Since(t0)
		for _, cam := range s.cameras {
			stats.visibleCount += len(cam.visible)
		}
		stats.cellCount = s.spatial.cellCount()
		stats.depth = s.spatial.depth()
		s.debugLog(stats)
	}
}

// Collect applies every staged structural change in the tree immediately.
// Panics when called from inside Update.
func (s *Scene) Collect() {
	s.root.Collect()
	s.refreshRenderingOrder()
}

// --- Cameras ---

// NewCamera creates a camera on a new child of the root. The camera is
// registered immediately; its node becomes live at the next collect.
func (s *Scene) NewCamera(name string, viewport Rect) *Camera {
	cam := newCamera(s.nextCameraID, viewport)
	s.nextCameraID++
	n := s.root.CreateChild(name)
	n.AddComponent(cam, true)
	s.registerCamera(cam)
	return cam
}

// MainCamera returns the camera created with the scene, or nil once its node
// has been destroyed.
func (s *Scene) MainCamera() *Camera {
	if s.mainCamera == nil || s.mainCamera.Node() == nil {
		return nil
	}
	return s.mainCamera
}

// Camera returns the registered camera with the given id.
func (s *Scene) Camera(id int) (*Camera, bool) {
	for _, cam := range s.cameras {
		if cam.id == id {
			return cam, true
		}
	}
	return nil, false
}

// Cameras returns the registered cameras sorted by (order, id). The returned
// slice MUST NOT be mutated.
func (s *Scene) Cameras() []*Camera {
	if s.camerasDirty {
		slices.SortStableFunc(s.cameras, func(a, b *Camera) int {
			if cameraLess(a, b) {
				return -1
			}
			if cameraLess(b, a) {
				return 1
			}
			return 0
		})
		s.camerasDirty = false
	}
	return s.cameras
}

func (s *Scene) registerCamera(cam *Camera) {
	if slices.Contains(s.cameras, cam) {
		return
	}
	s.cameras = append(s.cameras, cam)
	s.camerasDirty = true
}

func (s *Scene) unregisterCamera(cam *Camera) {
	if i := slices.Index(s.cameras, cam); i >= 0 {
		s.cameras = slices.Delete(s.cameras, i, i+1)
		cam.visible = cam.visible[:0]
	}
}

// --- Tree bookkeeping ---

// attachSubtree makes n and its live descendants part of the tree: each is
// indexed spatially and its camera, if live, is registered.
func (s *Scene) attachSubtree(n *Node) {
	n.scene = s
	n.inTree = true
	s.spatial.remove(n)
	s.spatial.insert(n)
	if n.camera != nil && n.components.isLive(n.camera) {
		s.registerCamera(n.camera)
	}
	for _, child := range n.children.live {
		s.attachSubtree(child)
	}
	s.markOrderDirty()
}

// detachSubtree removes n and its live descendants from the index, camera
// list and input state without destroying them.
func (s *Scene) detachSubtree(n *Node) {
	n.inTree = false
	s.spatial.remove(n)
	if n.camera != nil {
		s.unregisterCamera(n.camera)
	}
	s.forgetNode(n)
	for _, child := range n.children.live {
		s.detachSubtree(child)
	}
	s.markOrderDirty()
}

// nodeDestroyed is called once per node from teardown.
func (s *Scene) nodeDestroyed(n *Node) {
	s.spatial.remove(n)
	s.forgetNode(n)
	n.inTree = false
	s.markOrderDirty()
}

// flushReindex re-inserts every node queued since the last flush.
func (s *Scene) flushReindex() {
	for i, n := range s.reindexQueue {
		n.reindex = false
		if n.inTree && !n.destroyed {
			s.spatial.reinsert(n)
		}
		s.reindexQueue[i] = nil
	}
	s.reindexQueue = s.reindexQueue[:0]
}

// --- Rendering order ---

func (s *Scene) markOrderDirty() {
	s.orderDirty = true
}

// refreshRenderingOrder renumbers every live node in pre-order when the tree
// shape changed since the last walk.
func (s *Scene) refreshRenderingOrder() {
	if !s.orderDirty {
		return
	}
	s.orderDirty = false
	order := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		n.renderingOrder = order
		order++
		for _, child := range n.children.live {
			walk(child)
		}
	}
	walk(s.root)
}

// paintCompare orders nodes by GlobalOrder, then by tree order.
func paintCompare(a, b *Node) int {
	if c := cmp.Compare(a.GlobalOrder, b.GlobalOrder); c != 0 {
		return c
	}
	return cmp.Compare(a.renderingOrder, b.renderingOrder)
}

// cull rebuilds the visible list of every active camera from the spatial
// index, sorted into paint order.
func (s *Scene) cull() {
	for _, cam := range s.Cameras() {
		cam.visible = cam.visible[:0]
		if !cam.active {
			continue
		}
		cam.visible = s.spatial.findVisible(cam, cam.visible)
		slices.SortFunc(cam.visible, paintCompare)
	}
}
