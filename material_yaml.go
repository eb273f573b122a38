package arbor

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// TextureSource resolves texture paths to loaded textures.
// *RenderSystem implements it.
type TextureSource interface {
	Texture(path string) (Texture, bool)
}

type passEntry struct {
	VertexShader    string            `yaml:"vertex_shader"`
	PixelShader     string            `yaml:"pixel_shader"`
	Blend           string            `yaml:"blend"`
	Textures        map[int]string    `yaml:"textures"`
	VertexConstants map[int][]float32 `yaml:"vertex_constants"`
	PixelConstants  map[int][]float32 `yaml:"pixel_constants"`
}

type materialEntry struct {
	Name   string      `yaml:"name"`
	Passes []passEntry `yaml:"passes"`
}

type materialFile struct {
	Materials []materialEntry `yaml:"materials"`
}

// MaterialLibrary holds materials indexed by name.
type MaterialLibrary struct {
	materials map[string]*Material
	missing   []string
}

// ParseMaterialLibrary decodes a YAML material list. Texture paths are
// resolved through textures (which may be nil); unresolved paths keep their
// slot with a nil handle so the fallback texture is drawn, and are reported
// by Missing.
func ParseMaterialLibrary(data []byte, textures TextureSource) (*MaterialLibrary, error) {
	var f materialFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse materials: %w", err)
	}
	lib := &MaterialLibrary{materials: make(map[string]*Material, len(f.Materials))}
	for i := range f.Materials {
		e := &f.Materials[i]
		if e.Name == "" {
			return nil, fmt.Errorf("parse materials: entry %d has no name", i)
		}
		if _, dup := lib.materials[e.Name]; dup {
			return nil, fmt.Errorf("parse materials: duplicate material %q", e.Name)
		}
		m := NewMaterial(e.Name)
		for pi := range e.Passes {
			p, err := lib.buildPass(&e.Passes[pi], textures)
			if err != nil {
				return nil, fmt.Errorf("parse materials: %s pass %d: %w", e.Name, pi, err)
			}
			m.AddPass(p)
		}
		lib.materials[e.Name] = m
	}
	return lib, nil
}

// LoadMaterialLibrary reads and parses a YAML material file.
func LoadMaterialLibrary(path string, textures TextureSource) (*MaterialLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read materials %s: %w", path, err)
	}
	return ParseMaterialLibrary(data, textures)
}

func (lib *MaterialLibrary) buildPass(e *passEntry, textures TextureSource) (*Pass, error) {
	blend, ok := ParseBlendMode(e.Blend)
	if !ok {
		return nil, fmt.Errorf("unknown blend mode %q", e.Blend)
	}
	p := NewPass(e.VertexShader, e.PixelShader)
	p.Blend = blend
	for _, slot := range sortedSlots(e.Textures) {
		if slot < 0 {
			return nil, fmt.Errorf("negative texture slot %d", slot)
		}
		path := e.Textures[slot]
		var tex Texture
		if textures != nil {
			tex, _ = textures.Texture(path)
		}
		if tex == nil {
			lib.missing = append(lib.missing, path)
		}
		p.SetTexture(slot, path, tex)
	}
	for _, slot := range sortedSlots(e.VertexConstants) {
		if slot < 0 {
			return nil, fmt.Errorf("negative vertex constant slot %d", slot)
		}
		p.SetVertexConstants(slot, e.VertexConstants[slot])
	}
	for _, slot := range sortedSlots(e.PixelConstants) {
		if slot < 0 {
			return nil, fmt.Errorf("negative pixel constant slot %d", slot)
		}
		p.SetPixelConstants(slot, e.PixelConstants[slot])
	}
	return p, nil
}

func sortedSlots[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Material returns the material with the given name.
func (lib *MaterialLibrary) Material(name string) (*Material, bool) {
	m, ok := lib.materials[name]
	return m, ok
}

// Names returns the material names in sorted order.
func (lib *MaterialLibrary) Names() []string {
	names := make([]string, 0, len(lib.materials))
	for name := range lib.materials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Missing returns texture paths that could not be resolved while parsing.
func (lib *MaterialLibrary) Missing() []string {
	return lib.missing
}
