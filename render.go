package arbor

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RenderContext is handed to Renderer components while a camera is drawn.
type RenderContext struct {
	system *RenderSystem
	camera *Camera
	node   *Node
	view   Matrix
	world  Matrix
}

// Camera returns the camera being drawn.
func (rc *RenderContext) Camera() *Camera { return rc.camera }

// Node returns the node whose components are rendering.
func (rc *RenderContext) Node() *Node { return rc.node }

// View returns the camera's world-to-screen matrix.
func (rc *RenderContext) View() Matrix { return rc.view }

// Transform returns the node's local-to-screen matrix (view * world).
func (rc *RenderContext) Transform() Matrix { return rc.view.Multiply(rc.world) }

// Submit queues mesh, expressed in the node's local space, on a layer.
func (rc *RenderContext) Submit(layer int, mesh *Mesh, mat *Material, tint Color) {
	rc.system.batcher.Submit(layer, RenderRequest{
		Mesh:      mesh,
		Transform: rc.Transform(),
		Tint:      tint,
		Material:  mat,
	})
}

// SubmitRequest queues a request whose Transform is already in screen space.
func (rc *RenderContext) SubmitRequest(layer int, req RenderRequest) {
	rc.system.batcher.Submit(layer, req)
}

// Texture resolves a texture path through the render system.
func (rc *RenderContext) Texture(path string) (Texture, bool) {
	return rc.system.Texture(path)
}

// renderStats holds per-frame render metrics. Only populated in debug mode.
type renderStats struct {
	frameTime time.Duration
	cameras   int
	nodes     int
	batch     BatchStats
}

// RenderSystem owns the device, the batcher, the texture table and the
// fallback texture. A frame is drawn between BeginRender and EndRender.
type RenderSystem struct {
	device   Device
	ctx      Context
	batcher  *RenderBatcher
	textures map[string]Texture
	fallback Texture
	logger   *zap.Logger
	debug    bool

	rendering  bool
	frameStart time.Time
	stats      renderStats
}

// NewRenderSystem creates a render system on device. It creates the white
// fallback texture bound to empty texture slots.
func NewRenderSystem(device Device, cfg RenderConfig) (*RenderSystem, error) {
	size := max(cfg.FallbackTexture, 1)
	pixels := make([]byte, size*size*4)
	for i := range pixels {
		pixels[i] = 0xff
	}
	fallback, err := device.CreateTexture(TextureDesc{Width: size, Height: size, Pixels: pixels})
	if err != nil {
		return nil, fmt.Errorf("create fallback texture: %w", err)
	}
	b := NewRenderBatcher(device, cfg)
	b.SetFallbackTexture(fallback)
	return &RenderSystem{
		device:   device,
		ctx:      device.Context(),
		batcher:  b,
		textures: make(map[string]Texture),
		fallback: fallback,
		logger:   zap.NewNop(),
	}, nil
}

// SetLogger replaces the logger of the render system and its batcher.
func (r *RenderSystem) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	r.logger = l
	r.batcher.SetLogger(l)
}

// SetDebugMode enables per-frame stats logging at debug level.
func (r *RenderSystem) SetDebugMode(enabled bool) {
	r.debug = enabled
}

// Device returns the GPU device.
func (r *RenderSystem) Device() Device { return r.device }

// Batcher returns the request batcher.
func (r *RenderSystem) Batcher() *RenderBatcher { return r.batcher }

// FallbackTexture returns the texture used for missing texture references.
func (r *RenderSystem) FallbackTexture() Texture { return r.fallback }

// LoadShader compiles a shader pair and registers it under its two names.
func (r *RenderSystem) LoadShader(vertex, pixel string, vertexSrc, pixelSrc []byte) (Shader, error) {
	sh, err := r.device.CreateShader(ShaderDesc{
		Name:         vertex + "+" + pixel,
		VertexSource: vertexSrc,
		PixelSource:  pixelSrc,
	})
	if err != nil {
		return nil, fmt.Errorf("load shader %s/%s: %w", vertex, pixel, err)
	}
	if old, ok := r.batcher.LookupShader(vertex, pixel); ok {
		old.Release()
	}
	r.batcher.RegisterShader(vertex, pixel, sh)
	return sh, nil
}

// RegisterTexture makes tex resolvable by path. Any texture previously
// registered under path is replaced, not released.
func (r *RenderSystem) RegisterTexture(path string, tex Texture) {
	r.textures[path] = tex
}

// CreateTexture creates a texture on the device and registers it under path.
// When desc asks for mipmaps they are generated once the pixels are uploaded.
func (r *RenderSystem) CreateTexture(path string, desc TextureDesc) (Texture, error) {
	tex, err := r.device.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", path, err)
	}
	if desc.Mipmaps {
		r.ctx.GenerateMips(tex)
	}
	r.textures[path] = tex
	return tex, nil
}

// Texture returns the texture registered under path.
func (r *RenderSystem) Texture(path string) (Texture, bool) {
	tex, ok := r.textures[path]
	return tex, ok
}

// BeginRender starts a frame. Panics if a frame is already open.
func (r *RenderSystem) BeginRender() {
	if r.rendering {
		panic("arbor: BeginRender called twice")
	}
	r.rendering = true
	if r.debug {
		r.frameStart = time.Now()
		r.stats = renderStats{}
	}
}

// EndRender draws anything still queued and closes the frame.
func (r *RenderSystem) EndRender() error {
	if !r.rendering {
		panic("arbor: EndRender without BeginRender")
	}
	r.rendering = false
	err := r.batcher.FlushRequests(r.ctx)
	if r.debug {
		r.addBatchStats(r.batcher.Stats())
		r.stats.frameTime = time.Since(r.frameStart)
		r.logger.Debug("render frame",
			zap.Duration("frame", r.stats.frameTime),
			zap.Int("cameras", r.stats.cameras),
			zap.Int("nodes", r.stats.nodes),
			zap.Int("batches", r.stats.batch.Batches),
			zap.Int("draw_calls", r.stats.batch.DrawCalls),
			zap.Int("skipped_passes", r.stats.batch.SkippedPasses),
		)
	}
	return err
}

// Release frees the batcher buffers and the fallback texture.
func (r *RenderSystem) Release() {
	r.batcher.Release()
	if r.fallback != nil {
		r.fallback.Release()
		r.fallback = nil
	}
}

func (r *RenderSystem) addBatchStats(s BatchStats) {
	r.stats.batch.Requests += s.Requests
	r.stats.batch.Batches += s.Batches
	r.stats.batch.DrawCalls += s.DrawCalls
	r.stats.batch.SkippedPasses += s.SkippedPasses
}

// Render draws every active camera in ascending order. For each camera the
// viewport is set, the Renderer components of its visible nodes queue
// requests in paint order, and the batcher flushes. Must be called between
// rs.BeginRender and rs.EndRender.
func (s *Scene) Render(rs *RenderSystem) error {
	if !rs.rendering {
		panic("arbor: Render called outside BeginRender/EndRender")
	}
	for _, cam := range s.Cameras() {
		if !cam.active {
			continue
		}
		rs.ctx.SetViewport(cam.Viewport)
		rc := RenderContext{system: rs, camera: cam, view: cam.ViewMatrix()}
		for _, n := range cam.visible {
			if n.destroying || !n.inTree {
				continue
			}
			rc.node = n
			rc.world = n.WorldMatrix()
			for _, c := range n.components.live {
				if r, ok := c.(Renderer); ok {
					r.OnRender(&rc)
				}
			}
		}
		if err := rs.batcher.FlushRequests(rs.ctx); err != nil {
			return fmt.Errorf("render camera %d: %w", cam.id, err)
		}
		if rs.debug {
			rs.stats.cameras++
			rs.stats.nodes += len(cam.visible)
			rs.addBatchStats(rs.batcher.Stats())
		}
	}
	return nil
}
