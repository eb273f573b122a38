package arbor

import (
	"encoding/json"
	"fmt"
	"os"
)

// AtlasRegion describes a named sub-rectangle of an atlas page, in pixels.
type AtlasRegion struct {
	Page      int // index into Atlas.Pages
	X, Y      int // top-left of the packed rect on the page
	Width     int
	Height    int
	OriginalW int // untrimmed sprite size as authored
	OriginalH int
	OffsetX   int // trim offset of the packed rect inside the original sprite
	OffsetY   int
}

// AtlasPage is one texture page of an atlas. Image is the path used to look
// the texture up (see RenderSystem.Texture).
type AtlasPage struct {
	Image         string
	Width, Height int
}

// Atlas maps region names to rectangles on one or more texture pages.
type Atlas struct {
	Pages   []AtlasPage
	regions map[string]AtlasRegion
}

// Region returns the region with the given name.
func (a *Atlas) Region(name string) (AtlasRegion, bool) {
	r, ok := a.regions[name]
	return r, ok
}

// Len returns the number of regions.
func (a *Atlas) Len() int { return len(a.regions) }

// UV returns the region's rectangle normalized to its page size.
func (a *Atlas) UV(r AtlasRegion) Rect {
	if r.Page < 0 || r.Page >= len(a.Pages) {
		return Rect{Width: 1, Height: 1}
	}
	p := a.Pages[r.Page]
	if p.Width == 0 || p.Height == 0 {
		return Rect{Width: 1, Height: 1}
	}
	pw, ph := float64(p.Width), float64(p.Height)
	return Rect{
		X:      float64(r.X) / pw,
		Y:      float64(r.Y) / ph,
		Width:  float64(r.Width) / pw,
		Height: float64(r.Height) / ph,
	}
}

// ApplyRegion sizes q to the named region and maps its UVs onto it.
// Returns false if the atlas has no such region.
func (a *Atlas) ApplyRegion(q *Quad, name string) bool {
	r, ok := a.regions[name]
	if !ok {
		return false
	}
	q.SetSize(float64(r.Width), float64(r.Height))
	q.SetUV(a.UV(r))
	return true
}

// LoadAtlas reads a TexturePacker JSON file. See ParseAtlas.
func LoadAtlas(path string) (*Atlas, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read atlas: %w", err)
	}
	return ParseAtlas(data)
}

// ParseAtlas parses TexturePacker JSON. Both the hash format (a single
// "frames" object plus "meta") and the multi-page array format ("textures")
// are accepted. Rotated frames are rejected.
func ParseAtlas(data []byte) (*Atlas, error) {
	var probe struct {
		Frames   json.RawMessage `json:"frames"`
		Textures json.RawMessage `json:"textures"`
		Meta     struct {
			Image string   `json:"image"`
			Size  jsonSize `json:"size"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse atlas: %w", err)
	}

	atlas := &Atlas{regions: make(map[string]AtlasRegion)}
	switch {
	case probe.Textures != nil:
		var pages []jsonTexturePage
		if err := json.Unmarshal(probe.Textures, &pages); err != nil {
			return nil, fmt.Errorf("parse atlas textures: %w", err)
		}
		for i, p := range pages {
			atlas.Pages = append(atlas.Pages, AtlasPage{Image: p.Image, Width: p.Size.W, Height: p.Size.H})
			if err := atlas.addFrames(p.Frames, i); err != nil {
				return nil, err
			}
		}
	case probe.Frames != nil:
		var frames map[string]jsonFrame
		if err := json.Unmarshal(probe.Frames, &frames); err != nil {
			return nil, fmt.Errorf("parse atlas frames: %w", err)
		}
		atlas.Pages = []AtlasPage{{Image: probe.Meta.Image, Width: probe.Meta.Size.W, Height: probe.Meta.Size.H}}
		if err := atlas.addFrames(frames, 0); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("parse atlas: neither \"frames\" nor \"textures\" key")
	}
	return atlas, nil
}

func (a *Atlas) addFrames(frames map[string]jsonFrame, page int) error {
	for name, f := range frames {
		if f.Rotated {
			return fmt.Errorf("parse atlas: frame %q: rotated frames are not supported", name)
		}
		if _, dup := a.regions[name]; dup {
			return fmt.Errorf("parse atlas: duplicate frame %q", name)
		}
		a.regions[name] = AtlasRegion{
			Page:      page,
			X:         f.Frame.X,
			Y:         f.Frame.Y,
			Width:     f.Frame.W,
			Height:    f.Frame.H,
			OriginalW: f.SourceSize.W,
			OriginalH: f.SourceSize.H,
			OffsetX:   f.SpriteSourceSize.X,
			OffsetY:   f.SpriteSourceSize.Y,
		}
	}
	return nil
}

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Frame            jsonRect `json:"frame"`
	Rotated          bool     `json:"rotated"`
	Trimmed          bool     `json:"trimmed"`
	SpriteSourceSize jsonRect `json:"spriteSourceSize"`
	SourceSize       jsonSize `json:"sourceSize"`
}

type jsonTexturePage struct {
	Image  string               `json:"image"`
	Size   jsonSize             `json:"size"`
	Frames map[string]jsonFrame `json:"frames"`
}
