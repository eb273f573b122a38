package ebitengpu

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/arbor"
)

// ErrReleased is returned when a released resource is used.
var ErrReleased = errors.New("ebitengpu: resource released")

// Device creates buffers, textures and Kage shaders, and draws into a
// target image set once per frame.
type Device struct {
	ctx *Context
}

// NewDevice creates a device with no target. Draws are dropped until
// SetTarget is called.
func NewDevice() *Device {
	d := &Device{}
	d.ctx = newContext()
	return d
}

// SetTarget sets the image draws go to, usually the screen passed to
// ebiten.Game.Draw.
func (d *Device) SetTarget(img *ebiten.Image) {
	d.ctx.target = img
}

// Context implements arbor.Device.
func (d *Device) Context() arbor.Context {
	return d.ctx
}

// CreateBuffer implements arbor.Device.
func (d *Device) CreateBuffer(desc arbor.BufferDesc) (arbor.Buffer, error) {
	if desc.Size <= 0 {
		return nil, fmt.Errorf("ebitengpu: invalid buffer size %d", desc.Size)
	}
	if len(desc.Data) > desc.Size {
		return nil, fmt.Errorf("ebitengpu: initial data %d exceeds buffer size %d", len(desc.Data), desc.Size)
	}
	b := &Buffer{kind: desc.Kind, usage: desc.Usage, data: make([]byte, desc.Size)}
	copy(b.data, desc.Data)
	return b, nil
}

// CreateTexture implements arbor.Device.
func (d *Device) CreateTexture(desc arbor.TextureDesc) (arbor.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("ebitengpu: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	if desc.Pixels != nil && len(desc.Pixels) != desc.Width*desc.Height*4 {
		return nil, fmt.Errorf("ebitengpu: texture pixels %d, want %d", len(desc.Pixels), desc.Width*desc.Height*4)
	}
	img := ebiten.NewImage(desc.Width, desc.Height)
	if desc.Pixels != nil {
		img.WritePixels(desc.Pixels)
	}
	return &Texture{img: img, owned: true}, nil
}

// CreateShader implements arbor.Device. The pixel source is compiled as a
// Kage program; an empty pixel source selects the built-in pipeline.
func (d *Device) CreateShader(desc arbor.ShaderDesc) (arbor.Shader, error) {
	s := &Shader{name: desc.Name}
	if len(desc.PixelSource) == 0 {
		return s, nil
	}
	sh, err := ebiten.NewShader(desc.PixelSource)
	if err != nil {
		return nil, fmt.Errorf("ebitengpu: compile %s: %w", desc.Name, err)
	}
	s.sh = sh
	return s, nil
}

// Buffer is a CPU-side byte buffer.
type Buffer struct {
	kind     arbor.BufferKind
	usage    arbor.BufferUsage
	data     []byte
	mapped   bool
	released bool
}

// Kind implements arbor.Buffer.
func (b *Buffer) Kind() arbor.BufferKind { return b.kind }

// Size implements arbor.Buffer.
func (b *Buffer) Size() int { return len(b.data) }

// Release implements arbor.Buffer.
func (b *Buffer) Release() {
	b.released = true
	b.data = nil
}

// Texture wraps an ebiten image.
type Texture struct {
	img   *ebiten.Image
	owned bool
}

// WrapImage exposes an existing image as a texture. Release does not
// deallocate a wrapped image.
func WrapImage(img *ebiten.Image) *Texture {
	return &Texture{img: img}
}

// Image returns the underlying image, nil after Release.
func (t *Texture) Image() *ebiten.Image { return t.img }

// Width implements arbor.Texture.
func (t *Texture) Width() int {
	if t.img == nil {
		return 0
	}
	return t.img.Bounds().Dx()
}

// Height implements arbor.Texture.
func (t *Texture) Height() int {
	if t.img == nil {
		return 0
	}
	return t.img.Bounds().Dy()
}

// Release implements arbor.Texture.
func (t *Texture) Release() {
	if t.owned && t.img != nil {
		t.img.Deallocate()
	}
	t.img = nil
}

// Shader is a compiled Kage program, or the built-in pipeline when sh is nil.
type Shader struct {
	name string
	sh   *ebiten.Shader
}

// Name implements arbor.Shader.
func (s *Shader) Name() string { return s.name }

// Release implements arbor.Shader.
func (s *Shader) Release() {
	if s.sh != nil {
		s.sh.Deallocate()
		s.sh = nil
	}
}
