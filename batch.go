package arbor

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// RenderRequest is one mesh to draw. Transform maps mesh coordinates to
// screen space; Tint multiplies vertex colors.
type RenderRequest struct {
	Mesh      *Mesh
	Transform Matrix
	Tint      Color
	Material  *Material
}

// BatchStats counts the work done by the last FlushRequests.
type BatchStats struct {
	Requests      int
	Batches       int
	DrawCalls     int
	SkippedPasses int
}

type shaderKey struct {
	vertex string
	pixel  string
}

type constantKey struct {
	stage ShaderStage
	slot  int
}

// RenderBatcher queues render requests per layer and merges consecutive
// requests with equal materials into one vertex/index upload and one draw per
// pass.
type RenderBatcher struct {
	device   Device
	logger   *zap.Logger
	shaders  map[shaderKey]Shader
	fallback Texture

	layers    map[int][]RenderRequest
	layerKeys []int

	current *Material
	verts   []Vertex
	inds    []uint16

	vbuf, ibuf   Buffer
	vcap, icap   int
	constants    map[constantKey]Buffer
	constantSize int

	// State left bound on the context by the previous pass.
	boundTextures  int
	boundConstants map[constantKey]bool

	stats BatchStats
}

// NewRenderBatcher creates a batcher drawing through device. The dynamic
// buffers start at the configured capacities and grow on demand.
func NewRenderBatcher(device Device, cfg RenderConfig) *RenderBatcher {
	return &RenderBatcher{
		device:         device,
		logger:         zap.NewNop(),
		shaders:        make(map[shaderKey]Shader),
		layers:         make(map[int][]RenderRequest),
		constants:      make(map[constantKey]Buffer),
		boundConstants: make(map[constantKey]bool),
		vcap:           cfg.InitialVertices,
		icap:           cfg.InitialIndices,
		constantSize:   max(cfg.ConstantBufferLen, 1) * 4,
	}
}

// SetLogger replaces the batcher's logger. nil installs a no-op logger.
func (b *RenderBatcher) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	b.logger = l
}

// RegisterShader makes sh the program for passes naming this shader pair.
func (b *RenderBatcher) RegisterShader(vertex, pixel string, sh Shader) {
	b.shaders[shaderKey{vertex, pixel}] = sh
}

// LookupShader returns the program registered for a shader pair.
func (b *RenderBatcher) LookupShader(vertex, pixel string) (Shader, bool) {
	sh, ok := b.shaders[shaderKey{vertex, pixel}]
	return sh, ok
}

// SetFallbackTexture sets the texture bound for empty texture slots.
func (b *RenderBatcher) SetFallbackTexture(tex Texture) {
	b.fallback = tex
}

// Submit queues req on a layer. Requests keep submission order within a
// layer.
func (b *RenderBatcher) Submit(layer int, req RenderRequest) {
	reqs, ok := b.layers[layer]
	if !ok {
		b.layerKeys = append(b.layerKeys, layer)
	}
	b.layers[layer] = append(reqs, req)
}

// Pending returns the number of queued requests.
func (b *RenderBatcher) Pending() int {
	n := 0
	for _, reqs := range b.layers {
		n += len(reqs)
	}
	return n
}

// Stats returns counters for the last FlushRequests.
func (b *RenderBatcher) Stats() BatchStats {
	return b.stats
}

// FlushRequests draws every queued request through ctx. Layers are drawn in
// ascending order and requests in submission order; consecutive requests
// merge while their materials are the same and the batch stays within 16-bit
// index range. The queue is empty afterwards, also on error.
func (b *RenderBatcher) FlushRequests(ctx Context) error {
	b.stats = BatchStats{}
	defer b.clearRequests()

	slices.Sort(b.layerKeys)
	for _, layer := range b.layerKeys {
		for i := range b.layers[layer] {
			req := &b.layers[layer][i]
			if req.Mesh == nil || req.Material == nil || len(req.Mesh.Indices) == 0 {
				continue
			}
			nv := len(req.Mesh.Vertices)
			if nv > MaxBatchVertices {
				b.logger.Warn("mesh exceeds batch index range",
					zap.Int("vertices", nv), zap.String("material", req.Material.Name))
				continue
			}
			b.stats.Requests++
			if b.current != nil && (!b.current.IsSame(req.Material) || len(b.verts)+nv > MaxBatchVertices) {
				if err := b.flushBatch(ctx); err != nil {
					return err
				}
			}
			b.appendRequest(req)
		}
	}
	return b.flushBatch(ctx)
}

func (b *RenderBatcher) clearRequests() {
	for _, layer := range b.layerKeys {
		reqs := b.layers[layer]
		clear(reqs)
		b.layers[layer] = reqs[:0]
	}
	b.current = nil
	b.verts = b.verts[:0]
	b.inds = b.inds[:0]
}

func (b *RenderBatcher) appendRequest(req *RenderRequest) {
	if b.current == nil {
		b.current = req.Material
	}
	base := uint16(len(b.verts))
	b.verts = appendTransformed(b.verts, req.Mesh.Vertices, req.Transform, req.Tint)
	for _, idx := range req.Mesh.Indices {
		b.inds = append(b.inds, base+idx)
	}
}

// flushBatch uploads the accumulated geometry and draws it once per pass of
// the batch material.
func (b *RenderBatcher) flushBatch(ctx Context) error {
	mat := b.current
	b.current = nil
	defer func() {
		b.verts = b.verts[:0]
		b.inds = b.inds[:0]
	}()
	if mat == nil || len(b.inds) == 0 {
		return nil
	}
	if err := b.ensureBuffers(len(b.verts), len(b.inds)); err != nil {
		return err
	}
	if err := b.upload(ctx, b.vbuf, len(b.verts)*VertexStride, func(dst []byte) { EncodeVertices(dst, b.verts) }); err != nil {
		return fmt.Errorf("upload vertices: %w", err)
	}
	if err := b.upload(ctx, b.ibuf, len(b.inds)*IndexStride, func(dst []byte) { EncodeIndices(dst, b.inds) }); err != nil {
		return fmt.Errorf("upload indices: %w", err)
	}
	ctx.BindVertexBuffer(b.vbuf, VertexStride)
	ctx.BindIndexBuffer(b.ibuf)
	b.stats.Batches++

	for pi, p := range mat.passes {
		sh, ok := b.shaders[shaderKey{p.VertexShader, p.PixelShader}]
		if !ok {
			b.stats.SkippedPasses++
			b.logger.Debug("shader not found, skipping pass",
				zap.String("material", mat.Name),
				zap.Int("pass", pi),
				zap.String("vertex", p.VertexShader),
				zap.String("pixel", p.PixelShader))
			continue
		}
		ctx.BindShader(sh)
		for slot, t := range p.textures {
			tex := t.tex
			if tex == nil {
				tex = b.fallback
			}
			ctx.BindTexture(slot, tex)
		}
		if err := b.bindConstants(ctx, StageVertex, p.vertexConstants); err != nil {
			return err
		}
		if err := b.bindConstants(ctx, StagePixel, p.pixelConstants); err != nil {
			return err
		}
		b.unbindStale(ctx, p)
		ctx.SetBlend(p.Blend)
		ctx.DrawIndexed(len(b.inds), 0, 0)
		b.stats.DrawCalls++
	}
	return nil
}

// upload maps buf, lets fill write up to n bytes and unmaps it.
func (b *RenderBatcher) upload(ctx Context, buf Buffer, n int, fill func([]byte)) error {
	dst, err := ctx.Map(buf)
	if err != nil {
		return err
	}
	defer ctx.Unmap(buf)
	if n > len(dst) {
		n = len(dst)
	}
	fill(dst[:n])
	return nil
}

// bindConstants uploads each non-nil block into the constant buffer of its
// slot, truncated to whichever of the buffer and the block is shorter.
func (b *RenderBatcher) bindConstants(ctx Context, stage ShaderStage, blocks [][]float32) error {
	for slot, data := range blocks {
		if data == nil {
			continue
		}
		buf, err := b.constantBuffer(stage, slot)
		if err != nil {
			return err
		}
		dst, err := ctx.Map(buf)
		if err != nil {
			return fmt.Errorf("map constant buffer %d: %w", slot, err)
		}
		encodeFloats(dst, data)
		ctx.Unmap(buf)
		ctx.BindConstantBuffer(stage, slot, buf)
		b.boundConstants[constantKey{stage, slot}] = true
	}
	return nil
}

// unbindStale clears texture slots and constant buffers that an earlier pass
// bound and p does not use, so p never sees another material's state.
func (b *RenderBatcher) unbindStale(ctx Context, p *Pass) {
	for slot := len(p.textures); slot < b.boundTextures; slot++ {
		ctx.BindTexture(slot, nil)
	}
	b.boundTextures = len(p.textures)
	for key := range b.boundConstants {
		if p.Constants(key.stage, key.slot) == nil {
			ctx.BindConstantBuffer(key.stage, key.slot, nil)
			delete(b.boundConstants, key)
		}
	}
}

func (b *RenderBatcher) constantBuffer(stage ShaderStage, slot int) (Buffer, error) {
	key := constantKey{stage, slot}
	if buf, ok := b.constants[key]; ok {
		return buf, nil
	}
	buf, err := b.device.CreateBuffer(BufferDesc{Kind: BufferConstant, Usage: UsageDynamic, Size: b.constantSize})
	if err != nil {
		return nil, fmt.Errorf("create constant buffer %d: %w", slot, err)
	}
	b.constants[key] = buf
	return buf, nil
}

// ensureBuffers makes sure the dynamic vertex and index buffers can hold nv
// vertices and ni indices. On failure nothing acquired by this call is kept
// and the previous buffers stay in place.
func (b *RenderBatcher) ensureBuffers(nv, ni int) error {
	if b.vbuf != nil && b.ibuf != nil && nv <= b.vcap && ni <= b.icap {
		return nil
	}
	vcap := growCapacity(b.vcap, nv)
	icap := growCapacity(b.icap, ni)

	vbuf, err := b.device.CreateBuffer(BufferDesc{Kind: BufferVertex, Usage: UsageDynamic, Size: vcap * VertexStride})
	if err != nil {
		return fmt.Errorf("create vertex buffer: %w", err)
	}
	ibuf, err := b.device.CreateBuffer(BufferDesc{Kind: BufferIndex, Usage: UsageDynamic, Size: icap * IndexStride})
	if err != nil {
		vbuf.Release()
		return fmt.Errorf("create index buffer: %w", err)
	}
	if b.vbuf != nil {
		b.vbuf.Release()
	}
	if b.ibuf != nil {
		b.ibuf.Release()
	}
	b.vbuf, b.ibuf = vbuf, ibuf
	b.vcap, b.icap = vcap, icap
	return nil
}

// growCapacity doubles have until it covers need.
func growCapacity(have, need int) int {
	c := max(have, 1)
	for c < need {
		c *= 2
	}
	return c
}

// Release frees every GPU buffer owned by the batcher.
func (b *RenderBatcher) Release() {
	if b.vbuf != nil {
		b.vbuf.Release()
		b.vbuf = nil
	}
	if b.ibuf != nil {
		b.ibuf.Release()
		b.ibuf = nil
	}
	for k, buf := range b.constants {
		buf.Release()
		delete(b.constants, k)
	}
	clear(b.boundConstants)
	b.boundTextures = 0
}
