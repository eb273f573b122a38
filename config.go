package arbor

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the tunables of a scene and its render system. Zero-valued
// fields in a parsed file keep their defaults.
type Config struct {
	Scene   SceneConfig   `toml:"scene"`
	Spatial SpatialConfig `toml:"spatial"`
	Input   InputConfig   `toml:"input"`
	Render  RenderConfig  `toml:"render"`
	Logging LoggingConfig `toml:"logging"`
}

// SceneConfig sizes the main camera and toggles debug mode.
type SceneConfig struct {
	Width  float64 `toml:"width"`  // main camera viewport width in pixels
	Height float64 `toml:"height"` // main camera viewport height in pixels
	Debug  bool    `toml:"debug"`
}

// SpatialConfig describes the quadtree region. Nodes outside the region are
// still indexed, at the root cell.
type SpatialConfig struct {
	X           float64 `toml:"x"`
	Y           float64 `toml:"y"`
	Width       float64 `toml:"width"`
	Height      float64 `toml:"height"`
	MinCellSize float64 `toml:"min_cell_size"`
}

// Region returns the quadtree bounds as a Rect.
func (c SpatialConfig) Region() Rect {
	return Rect{X: c.X, Y: c.Y, Width: c.Width, Height: c.Height}
}

// InputConfig tunes the injected input queue.
type InputConfig struct {
	// QueueSize is the initial capacity of the injected-message queue.
	QueueSize int `toml:"queue_size"`
}

// RenderConfig holds the render system and batcher capacities.
type RenderConfig struct {
	InitialVertices   int `toml:"initial_vertices"`    // starting capacity of the batch vertex buffer
	InitialIndices    int `toml:"initial_indices"`     // starting capacity of the batch index buffer
	ConstantBufferLen int `toml:"constant_buffer_len"` // float32 slots per constant buffer
	FallbackTexture   int `toml:"fallback_texture"`    // edge length of the white fallback texture
}

// LoggingConfig selects the level and encoding of the logger built by
// NewLogger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// DefaultConfig returns the configuration used by NewScene.
func DefaultConfig() Config {
	return Config{
		Scene: SceneConfig{
			Width:  1280,
			Height: 720,
		},
		Spatial: SpatialConfig{
			X:           -4096,
			Y:           -4096,
			Width:       8192,
			Height:      8192,
			MinCellSize: 64,
		},
		Input: InputConfig{
			QueueSize: 16,
		},
		Render: RenderConfig{
			InitialVertices:   4096,
			InitialIndices:    6144,
			ConstantBufferLen: 64,
			FallbackTexture:   4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ParseConfig decodes TOML data over the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a TOML file and decodes it over the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Scene.Width <= 0 || c.Scene.Height <= 0 {
		return fmt.Errorf("invalid screen size %vx%v", c.Scene.Width, c.Scene.Height)
	}
	if c.Spatial.Width <= 0 || c.Spatial.Height <= 0 {
		return fmt.Errorf("invalid spatial region %vx%v", c.Spatial.Width, c.Spatial.Height)
	}
	if c.Spatial.MinCellSize <= 0 {
		return fmt.Errorf("invalid min_cell_size %v", c.Spatial.MinCellSize)
	}
	if c.Render.InitialVertices <= 0 || c.Render.InitialIndices <= 0 {
		return fmt.Errorf("invalid batch capacity %d/%d", c.Render.InitialVertices, c.Render.InitialIndices)
	}
	return nil
}
