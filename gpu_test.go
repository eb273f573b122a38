package arbor

import (
	"errors"
	"fmt"
)

// Recording GPU used by the batcher and render tests.

type fakeBuffer struct {
	kind     BufferKind
	data     []byte
	mapped   bool
	released bool
}

func (b *fakeBuffer) Kind() BufferKind { return b.kind }
func (b *fakeBuffer) Size() int        { return len(b.data) }
func (b *fakeBuffer) Release()         { b.released = true }

type fakeTexture struct {
	w, h     int
	pixels   []byte
	released bool
}

func (t *fakeTexture) Width() int  { return t.w }
func (t *fakeTexture) Height() int { return t.h }
func (t *fakeTexture) Release()    { t.released = true }

type fakeShader struct {
	name     string
	released bool
}

func (s *fakeShader) Name() string { return s.name }
func (s *fakeShader) Release()     { s.released = true }

var errFakeDevice = errors.New("fake device failure")

type fakeDevice struct {
	ctx      *fakeContext
	buffers  []*fakeBuffer
	textures []*fakeTexture
	shaders  []*fakeShader

	failBuffer  map[BufferKind]bool
	failTexture bool
	failShader  bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{ctx: &fakeContext{}, failBuffer: make(map[BufferKind]bool)}
}

func (d *fakeDevice) CreateBuffer(desc BufferDesc) (Buffer, error) {
	if d.failBuffer[desc.Kind] {
		return nil, errFakeDevice
	}
	if len(desc.Data) > desc.Size {
		return nil, fmt.Errorf("data exceeds size")
	}
	b := &fakeBuffer{kind: desc.Kind, data: make([]byte, desc.Size)}
	copy(b.data, desc.Data)
	d.buffers = append(d.buffers, b)
	return b, nil
}

func (d *fakeDevice) CreateTexture(desc TextureDesc) (Texture, error) {
	if d.failTexture {
		return nil, errFakeDevice
	}
	t := &fakeTexture{w: desc.Width, h: desc.Height, pixels: desc.Pixels}
	d.textures = append(d.textures, t)
	return t, nil
}

func (d *fakeDevice) CreateShader(desc ShaderDesc) (Shader, error) {
	if d.failShader {
		return nil, errFakeDevice
	}
	s := &fakeShader{name: desc.Name}
	d.shaders = append(d.shaders, s)
	return s, nil
}

func (d *fakeDevice) Context() Context { return d.ctx }

// live returns the unreleased buffers of a kind.
func (d *fakeDevice) live(kind BufferKind) []*fakeBuffer {
	var out []*fakeBuffer
	for _, b := range d.buffers {
		if b.kind == kind && !b.released {
			out = append(out, b)
		}
	}
	return out
}

// fakeDraw is the state captured by one DrawIndexed.
type fakeDraw struct {
	shader    string
	blend     BlendMode
	textures  map[int]Texture
	constants map[constantKey][]float32
	verts     []Vertex
	inds      []uint16
	viewport  Rect
}

type fakeContext struct {
	viewport  Rect
	vb, ib    *fakeBuffer
	stride    int
	shader    Shader
	textures  map[int]Texture
	constants map[constantKey]*fakeBuffer
	blend     BlendMode
	mapErr    error
	mips      int

	draws []fakeDraw
}

func (c *fakeContext) SetViewport(v Rect) { c.viewport = v }

func (c *fakeContext) BindVertexBuffer(buf Buffer, stride int) {
	c.vb, c.stride = buf.(*fakeBuffer), stride
}

func (c *fakeContext) BindIndexBuffer(buf Buffer) { c.ib = buf.(*fakeBuffer) }
func (c *fakeContext) BindShader(sh Shader)       { c.shader = sh }

func (c *fakeContext) BindTexture(slot int, tex Texture) {
	if c.textures == nil {
		c.textures = make(map[int]Texture)
	}
	if tex == nil {
		delete(c.textures, slot)
		return
	}
	c.textures[slot] = tex
}

func (c *fakeContext) BindConstantBuffer(stage ShaderStage, slot int, buf Buffer) {
	if c.constants == nil {
		c.constants = make(map[constantKey]*fakeBuffer)
	}
	b, ok := buf.(*fakeBuffer)
	if !ok {
		delete(c.constants, constantKey{stage, slot})
		return
	}
	c.constants[constantKey{stage, slot}] = b
}

func (c *fakeContext) SetBlend(mode BlendMode) { c.blend = mode }

func (c *fakeContext) Map(buf Buffer) ([]byte, error) {
	if c.mapErr != nil {
		return nil, c.mapErr
	}
	b := buf.(*fakeBuffer)
	if b.mapped {
		panic("buffer already mapped")
	}
	b.mapped = true
	return b.data, nil
}

func (c *fakeContext) Unmap(buf Buffer) { buf.(*fakeBuffer).mapped = false }

func (c *fakeContext) DrawIndexed(indexCount, startIndex, baseVertex int) {
	d := fakeDraw{
		blend:     c.blend,
		textures:  make(map[int]Texture, len(c.textures)),
		constants: make(map[constantKey][]float32, len(c.constants)),
		viewport:  c.viewport,
	}
	if c.shader != nil {
		d.shader = c.shader.Name()
	}
	for k, v := range c.textures {
		d.textures[k] = v
	}
	for k, b := range c.constants {
		d.constants[k] = DecodeFloats(nil, b.data)
	}
	d.inds = DecodeIndices(nil, c.ib.data[startIndex*IndexStride:], indexCount)
	top := 0
	for _, i := range d.inds {
		top = max(top, int(i)+1)
	}
	d.verts = DecodeVertices(nil, c.vb.data[baseVertex*c.stride:], top)
	c.draws = append(c.draws, d)
}

func (c *fakeContext) GenerateMips(Texture) { c.mips++ }
