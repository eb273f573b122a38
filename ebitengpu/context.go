package ebitengpu

import (
	"fmt"
	"image"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/arbor"
)

// maxImages is the number of source images a Kage shader can sample.
const maxImages = len(ebiten.DrawTrianglesShaderOptions{}.Images)

// Context records bound state and turns DrawIndexed into DrawTriangles32
// or DrawTrianglesShader32 calls on the target image.
type Context struct {
	target   *ebiten.Image
	viewport arbor.Rect

	vbuf     *Buffer
	stride   int
	ibuf     *Buffer
	shader   *Shader
	textures [maxImages]*Texture
	blend    arbor.BlendMode

	vertexConstants map[int]*Buffer
	pixelConstants  map[int]*Buffer
	uniforms        map[string]any

	mapped *Buffer

	decoded []arbor.Vertex
	indices []uint16
	verts   []ebiten.Vertex
	inds    []uint32
	draws   int
}

func newContext() *Context {
	return &Context{
		vertexConstants: make(map[int]*Buffer),
		pixelConstants:  make(map[int]*Buffer),
		uniforms:        make(map[string]any),
	}
}

// Draws returns the number of draw calls issued since creation.
func (c *Context) Draws() int { return c.draws }

// SetViewport implements arbor.Context. Draws are clipped to the viewport.
func (c *Context) SetViewport(viewport arbor.Rect) {
	c.viewport = viewport
}

// BindVertexBuffer implements arbor.Context.
func (c *Context) BindVertexBuffer(buf arbor.Buffer, stride int) {
	c.vbuf = asBuffer(buf)
	c.stride = stride
}

// BindIndexBuffer implements arbor.Context.
func (c *Context) BindIndexBuffer(buf arbor.Buffer) {
	c.ibuf = asBuffer(buf)
}

// BindShader implements arbor.Context.
func (c *Context) BindShader(sh arbor.Shader) {
	s, _ := sh.(*Shader)
	c.shader = s
}

// BindTexture implements arbor.Context. Slots beyond the shader image count
// are ignored.
func (c *Context) BindTexture(slot int, tex arbor.Texture) {
	if slot < 0 || slot >= maxImages {
		return
	}
	t, _ := tex.(*Texture)
	c.textures[slot] = t
}

// BindConstantBuffer implements arbor.Context. A nil buffer unbinds the slot.
func (c *Context) BindConstantBuffer(stage arbor.ShaderStage, slot int, buf arbor.Buffer) {
	m := c.vertexConstants
	if stage == arbor.StagePixel {
		m = c.pixelConstants
	}
	if b := asBuffer(buf); b != nil {
		m[slot] = b
	} else {
		delete(m, slot)
	}
}

// SetBlend implements arbor.Context.
func (c *Context) SetBlend(mode arbor.BlendMode) {
	c.blend = mode
}

// Map implements arbor.Context. Only one buffer may be mapped at a time.
func (c *Context) Map(buf arbor.Buffer) ([]byte, error) {
	b := asBuffer(buf)
	if b == nil {
		return nil, fmt.Errorf("ebitengpu: map of foreign buffer %T", buf)
	}
	if b.released {
		return nil, ErrReleased
	}
	if c.mapped != nil {
		panic("ebitengpu: Map while another buffer is mapped")
	}
	b.mapped = true
	c.mapped = b
	return b.data, nil
}

// Unmap implements arbor.Context.
func (c *Context) Unmap(buf arbor.Buffer) {
	b := asBuffer(buf)
	if b == nil || c.mapped != b {
		panic("ebitengpu: Unmap of a buffer that is not mapped")
	}
	b.mapped = false
	c.mapped = nil
}

// GenerateMips implements arbor.Context. Ebitengine builds mipmaps on
// demand, so there is nothing to do.
func (c *Context) GenerateMips(arbor.Texture) {}

// DrawIndexed implements arbor.Context.
func (c *Context) DrawIndexed(indexCount, startIndex, baseVertex int) {
	if c.target == nil || c.vbuf == nil || c.ibuf == nil || indexCount <= 0 {
		return
	}
	if c.mapped != nil {
		panic("ebitengpu: DrawIndexed while a buffer is mapped")
	}
	if startIndex < 0 || baseVertex < 0 ||
		startIndex*arbor.IndexStride >= len(c.ibuf.data) ||
		baseVertex*arbor.VertexStride >= len(c.vbuf.data) {
		return
	}
	c.indices = arbor.DecodeIndices(c.indices[:0], c.ibuf.data[startIndex*arbor.IndexStride:], indexCount)
	maxIndex := 0
	for _, i := range c.indices {
		maxIndex = max(maxIndex, int(i))
	}
	c.decoded = arbor.DecodeVertices(c.decoded[:0], c.vbuf.data[baseVertex*arbor.VertexStride:], maxIndex+1)

	src := c.textures[0]
	var sw, sh float32 = 1, 1
	if src != nil && src.img != nil {
		b := src.img.Bounds()
		sw, sh = float32(b.Dx()), float32(b.Dy())
	}
	c.verts = toEbitenVertices(c.verts[:0], c.decoded, sw, sh)
	c.inds = c.inds[:0]
	for _, i := range c.indices {
		c.inds = append(c.inds, uint32(i))
	}

	dst := c.clippedTarget()
	if c.shader != nil && c.shader.sh != nil {
		var op ebiten.DrawTrianglesShaderOptions
		op.Blend = EbitenBlend(c.blend)
		for i, t := range c.textures {
			if t != nil {
				op.Images[i] = t.img
			}
		}
		op.Uniforms = c.buildUniforms()
		dst.DrawTrianglesShader32(c.verts, c.inds, c.shader.sh, &op)
	} else {
		if src == nil || src.img == nil {
			return
		}
		var op ebiten.DrawTrianglesOptions
		op.Blend = EbitenBlend(c.blend)
		op.ColorScaleMode = ebiten.ColorScaleModeStraightAlpha
		dst.DrawTriangles32(c.verts, c.inds, src.img, &op)
	}
	c.draws++
}

// clippedTarget returns the target restricted to the viewport. SubImage keeps
// the parent's coordinate space, so vertices need no offset.
func (c *Context) clippedTarget() *ebiten.Image {
	vp := c.viewport
	if vp.Width <= 0 || vp.Height <= 0 {
		return c.target
	}
	r := image.Rect(int(vp.X), int(vp.Y), int(vp.X+vp.Width), int(vp.Y+vp.Height))
	return c.target.SubImage(r).(*ebiten.Image)
}

func (c *Context) buildUniforms() map[string]any {
	clear(c.uniforms)
	for slot, b := range c.pixelConstants {
		if b != nil && !b.released {
			c.uniforms["Constants"+strconv.Itoa(slot)] = arbor.DecodeFloats(nil, b.data)
		}
	}
	for slot, b := range c.vertexConstants {
		if b != nil && !b.released {
			c.uniforms["VertexConstants"+strconv.Itoa(slot)] = arbor.DecodeFloats(nil, b.data)
		}
	}
	return c.uniforms
}

// toEbitenVertices converts vertices with normalized UVs to ebiten vertices
// with source pixel coordinates on a sw x sh image.
func toEbitenVertices(dst []ebiten.Vertex, src []arbor.Vertex, sw, sh float32) []ebiten.Vertex {
	for _, v := range src {
		dst = append(dst, ebiten.Vertex{
			DstX:   v.X,
			DstY:   v.Y,
			SrcX:   v.U * sw,
			SrcY:   v.V * sh,
			ColorR: v.R,
			ColorG: v.G,
			ColorB: v.B,
			ColorA: v.A,
		})
	}
	return dst
}

func asBuffer(buf arbor.Buffer) *Buffer {
	b, _ := buf.(*Buffer)
	return b
}
