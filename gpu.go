package arbor

// BufferKind identifies what a GPU buffer holds.
type BufferKind uint8

const (
	BufferVertex BufferKind = iota
	BufferIndex
	BufferConstant
)

// BufferUsage is a hint for how often the CPU rewrites a buffer.
type BufferUsage uint8

const (
	UsageDefault BufferUsage = iota // written once at creation
	UsageDynamic                    // rewritten through Map/Unmap
)

// ShaderStage selects which stage a constant buffer is bound to.
type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StagePixel
)

// BufferDesc describes a buffer to create. Data, if set, is copied in and
// must not exceed Size bytes.
type BufferDesc struct {
	Kind  BufferKind
	Usage BufferUsage
	Size  int
	Data  []byte
}

// TextureDesc describes an RGBA8 texture. Pixels may be nil for a blank
// texture.
type TextureDesc struct {
	Width   int
	Height  int
	Pixels  []byte
	Mipmaps bool
}

// ShaderDesc pairs a vertex and a pixel shader source into one program.
type ShaderDesc struct {
	Name         string
	VertexSource []byte
	PixelSource  []byte
}

// Buffer is a GPU buffer handle.
type Buffer interface {
	Kind() BufferKind
	Size() int
	Release()
}

// Texture is a GPU texture handle.
type Texture interface {
	Width() int
	Height() int
	Release()
}

// Shader is a compiled shader program handle.
type Shader interface {
	Name() string
	Release()
}

// Device creates GPU resources. Creation failures are returned as errors;
// callers release anything they acquired before the failure.
type Device interface {
	CreateBuffer(desc BufferDesc) (Buffer, error)
	CreateTexture(desc TextureDesc) (Texture, error)
	CreateShader(desc ShaderDesc) (Shader, error)
	Context() Context
}

// Context records state changes and draws. Map and Unmap must be paired and
// are not reentrant: mapping a buffer that is already mapped panics.
type Context interface {
	SetViewport(viewport Rect)
	BindVertexBuffer(buf Buffer, stride int)
	BindIndexBuffer(buf Buffer)
	BindShader(shader Shader)
	BindTexture(slot int, tex Texture)
	BindConstantBuffer(stage ShaderStage, slot int, buf Buffer)
	SetBlend(mode BlendMode)
	Map(buf Buffer) ([]byte, error)
	Unmap(buf Buffer)
	DrawIndexed(indexCount, startIndex, baseVertex int)
	GenerateMips(tex Texture)
}
