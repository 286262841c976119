package imdraw

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/imdraw/backend"
)

// ErrInvalidConfig is wrapped by every Config validation failure.
var ErrInvalidConfig = errors.New("imdraw: invalid config")

// Config is the initial renderer setup. It can be loaded from YAML:
//
//	backend: opengl
//	projection: orthographic
//	viewport: {width: 800, height: 600}
//	fov: 60
//	near: 0.1
//	far: 100
type Config struct {
	// Backend names the API Init should use, as accepted by backend.ParseAPI.
	// The Renderer itself does not read it; callers pass it to Init.
	Backend string `yaml:"backend"`

	// Projection is "none", "orthographic" or "perspective".
	Projection string `yaml:"projection"`

	Viewport ViewportConfig `yaml:"viewport"`

	// FOV is the vertical field of view in degrees.
	FOV  float32 `yaml:"fov"`
	Near float32 `yaml:"near"`
	Far  float32 `yaml:"far"`
}

// ViewportConfig mirrors backend.Viewport with YAML names.
type ViewportConfig struct {
	X        float32 `yaml:"x"`
	Y        float32 `yaml:"y"`
	Width    float32 `yaml:"width"`
	Height   float32 `yaml:"height"`
	MinDepth float32 `yaml:"min_depth"`
	MaxDepth float32 `yaml:"max_depth"`
}

// Viewport converts c to a backend.Viewport.
func (c ViewportConfig) Viewport() backend.Viewport {
	return backend.Viewport{
		X:        c.X,
		Y:        c.Y,
		Width:    c.Width,
		Height:   c.Height,
		MinDepth: c.MinDepth,
		MaxDepth: c.MaxDepth,
	}
}

// DefaultConfig returns a 640x480 viewport, no projection, 60 degree FOV
// and clip planes at 0.1 and 100.
func DefaultConfig() Config {
	vp := backend.DefaultViewport()
	return Config{
		Projection: "none",
		Viewport: ViewportConfig{
			X:        vp.X,
			Y:        vp.Y,
			Width:    vp.Width,
			Height:   vp.Height,
			MinDepth: vp.MinDepth,
			MaxDepth: vp.MaxDepth,
		},
		FOV:  60,
		Near: 0.1,
		Far:  100,
	}
}

// LoadConfig decodes YAML from r on top of DefaultConfig. Unknown keys are
// rejected. An empty document yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("imdraw: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every field is usable.
func (c Config) Validate() error {
	if _, err := backend.ParseAPI(c.Backend); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := ParseProjectionMode(c.Projection); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	vp := c.Viewport
	if vp.Width <= 0 || vp.Height <= 0 {
		return fmt.Errorf("%w: viewport size %gx%g", ErrInvalidConfig, vp.Width, vp.Height)
	}
	if vp.MinDepth < 0 || vp.MaxDepth > 1 || vp.MinDepth > vp.MaxDepth {
		return fmt.Errorf("%w: depth range [%g, %g]", ErrInvalidConfig, vp.MinDepth, vp.MaxDepth)
	}
	if c.FOV <= 0 || c.FOV >= 180 {
		return fmt.Errorf("%w: fov %g out of (0, 180)", ErrInvalidConfig, c.FOV)
	}
	if c.Near <= 0 || c.Far <= c.Near {
		return fmt.Errorf("%w: clip planes near=%g far=%g", ErrInvalidConfig, c.Near, c.Far)
	}
	return nil
}

// API returns the parsed Backend name. An empty name selects APINull.
func (c Config) API() (backend.API, error) {
	return backend.ParseAPI(c.Backend)
}

// ParseProjectionMode maps a config name to a projection mode.
// The empty string selects ProjectionNone.
func ParseProjectionMode(name string) (backend.ProjectionMode, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return backend.ProjectionNone, nil
	case "orthographic", "ortho":
		return backend.ProjectionOrthographic, nil
	case "perspective":
		return backend.ProjectionPerspective, nil
	default:
		return 0, fmt.Errorf("imdraw: unknown projection mode %q", name)
	}
}
