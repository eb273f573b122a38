package arbor

import "math"

// textureSlot binds a texture handle to the path it was resolved from.
// A slot with an empty path and nil texture is unused.
type textureSlot struct {
	path string
	tex  Texture
}

// Pass is one draw of a material: a shader pair, a blend mode, sparse
// texture slots and index-addressed constant blocks per stage.
type Pass struct {
	VertexShader string
	PixelShader  string
	Blend        BlendMode

	textures        []textureSlot
	vertexConstants [][]float32
	pixelConstants  [][]float32
}

// NewPass creates a pass using the given shader pair and normal blending.
func NewPass(vertexShader, pixelShader string) *Pass {
	return &Pass{VertexShader: vertexShader, PixelShader: pixelShader}
}

// SetTexture binds tex at slot, growing the slot list as needed. path is the
// identity used when comparing passes; tex may be nil when the path could not
// be resolved, in which case the renderer substitutes its fallback texture.
func (p *Pass) SetTexture(slot int, path string, tex Texture) {
	if slot < 0 {
		panic("arbor: negative texture slot")
	}
	for len(p.textures) <= slot {
		p.textures = append(p.textures, textureSlot{})
	}
	p.textures[slot] = textureSlot{path: path, tex: tex}
}

// Texture returns the path and handle bound at slot.
func (p *Pass) Texture(slot int) (string, Texture) {
	if slot < 0 || slot >= len(p.textures) {
		return "", nil
	}
	t := p.textures[slot]
	return t.path, t.tex
}

// NumTextures returns one past the highest bound slot.
func (p *Pass) NumTextures() int {
	return len(p.textures)
}

// SetVertexConstants copies data into the vertex-stage constant block at slot.
func (p *Pass) SetVertexConstants(slot int, data []float32) {
	p.vertexConstants = setConstants(p.vertexConstants, slot, data)
}

// SetPixelConstants copies data into the pixel-stage constant block at slot.
func (p *Pass) SetPixelConstants(slot int, data []float32) {
	p.pixelConstants = setConstants(p.pixelConstants, slot, data)
}

// Constants returns the constant block at slot for a stage, or nil.
func (p *Pass) Constants(stage ShaderStage, slot int) []float32 {
	blocks := p.vertexConstants
	if stage == StagePixel {
		blocks = p.pixelConstants
	}
	if slot < 0 || slot >= len(blocks) {
		return nil
	}
	return blocks[slot]
}

func setConstants(blocks [][]float32, slot int, data []float32) [][]float32 {
	if slot < 0 {
		panic("arbor: negative constant slot")
	}
	for len(blocks) <= slot {
		blocks = append(blocks, nil)
	}
	blocks[slot] = append([]float32(nil), data...)
	return blocks
}

// Clone returns a deep copy of the pass. Texture handles are shared.
func (p *Pass) Clone() *Pass {
	c := *p
	c.textures = append([]textureSlot(nil), p.textures...)
	c.vertexConstants = cloneBlocks(p.vertexConstants)
	c.pixelConstants = cloneBlocks(p.pixelConstants)
	return &c
}

func cloneBlocks(blocks [][]float32) [][]float32 {
	if blocks == nil {
		return nil
	}
	out := make([][]float32, len(blocks))
	for i, b := range blocks {
		if b != nil {
			out[i] = append([]float32(nil), b...)
		}
	}
	return out
}

// IsSame reports whether two passes would issue identical GPU state: same
// shader names and blend mode, same texture per slot (by path, or by handle
// for unnamed textures) and byte-identical constants.
func (p *Pass) IsSame(o *Pass) bool {
	if p == o {
		return true
	}
	if p == nil || o == nil {
		return false
	}
	if p.VertexShader != o.VertexShader || p.PixelShader != o.PixelShader || p.Blend != o.Blend {
		return false
	}
	if len(p.textures) != len(o.textures) {
		return false
	}
	for i, t := range p.textures {
		u := o.textures[i]
		if t.path != u.path {
			return false
		}
		if t.path == "" && t.tex != u.tex {
			return false
		}
	}
	return sameBlocks(p.vertexConstants, o.vertexConstants) &&
		sameBlocks(p.pixelConstants, o.pixelConstants)
}

func sameBlocks(a, b [][]float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if math.Float32bits(a[i][j]) != math.Float32bits(b[i][j]) {
				return false
			}
		}
	}
	return true
}

// Material is an ordered list of passes drawn one after another for every
// batch that uses it. The material owns its passes.
type Material struct {
	Name   string
	passes []*Pass
}

// NewMaterial creates a material from passes.
func NewMaterial(name string, passes ...*Pass) *Material {
	return &Material{Name: name, passes: passes}
}

// AddPass appends a pass.
func (m *Material) AddPass(p *Pass) {
	if p == nil {
		panic("arbor: nil pass")
	}
	m.passes = append(m.passes, p)
}

// Passes returns the passes in draw order. The returned slice MUST NOT be
// mutated.
func (m *Material) Passes() []*Pass {
	return m.passes
}

// Pass returns the pass at index i.
func (m *Material) Pass(i int) *Pass {
	if i < 0 || i >= len(m.passes) {
		panic("arbor: pass index out of range")
	}
	return m.passes[i]
}

// NumPasses returns the number of passes.
func (m *Material) NumPasses() int {
	return len(m.passes)
}

// Clone returns a deep copy of the material.
func (m *Material) Clone() *Material {
	c := &Material{Name: m.Name, passes: make([]*Pass, len(m.passes))}
	for i, p := range m.passes {
		c.passes[i] = p.Clone()
	}
	return c
}

// IsSame reports whether draws using m and o can share a batch: equal pass
// counts and pairwise IsSame passes. The material name is ignored.
func (m *Material) IsSame(o *Material) bool {
	if m == o {
		return true
	}
	if m == nil || o == nil || len(m.passes) != len(o.passes) {
		return false
	}
	for i, p := range m.passes {
		if !p.IsSame(o.passes[i]) {
			return false
		}
	}
	return true
}
