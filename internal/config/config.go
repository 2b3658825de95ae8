// Package config loads rayengine settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/gputypes"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/rayengine"
	"github.com/gogpu/rayengine/internal/gpu"
)

// Renderer backend names accepted in the renderer.backend field.
const (
	BackendCPU    = "cpu"
	BackendNoop   = "noop"
	BackendVulkan = "vulkan"
	BackendMetal  = "metal"
	BackendDX12   = "dx12"
	BackendGL     = "gl"
	BackendAuto   = "auto"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the on-disk engine configuration.
type Config struct {
	Workers  int          `yaml:"workers"`
	Window   WindowConf   `yaml:"window"`
	Renderer RendererConf `yaml:"renderer"`
	Frames   uint64       `yaml:"frames"`
	FPS      int          `yaml:"fps"`
	Log      LogConf      `yaml:"log"`
	Snapshot SnapshotConf `yaml:"snapshot"`
}

// WindowConf describes the drawing surface.
type WindowConf struct {
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	VSync  bool `yaml:"vsync"`
}

// RendererConf selects how frames are drawn.
type RendererConf struct {
	Backend         string `yaml:"backend"`
	ValidateShaders bool   `yaml:"validate_shaders"`
}

// LogConf configures the CLI log handler.
type LogConf struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SnapshotConf configures the snapshot command.
type SnapshotConf struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Window: WindowConf{
			Width:  800,
			Height: 600,
			VSync:  true,
		},
		Renderer: RendererConf{
			Backend: BackendCPU,
		},
		Log: LogConf{
			Level:  "info",
			Format: "auto",
		},
		Snapshot: SnapshotConf{
			Path: "frame.png",
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first out-of-range or unknown value.
func (c *Config) Validate() error {
	switch {
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d is negative", ErrInvalidConfig, c.Workers)
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	case c.FPS < 0:
		return fmt.Errorf("%w: fps %d is negative", ErrInvalidConfig, c.FPS)
	}
	if _, ok := backendNames[strings.ToLower(c.Renderer.Backend)]; !ok {
		return fmt.Errorf("%w: renderer backend %q", ErrInvalidConfig, c.Renderer.Backend)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "auto", "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

var backendNames = map[string]gputypes.Backend{
	BackendCPU:    gputypes.BackendEmpty,
	BackendAuto:   gputypes.BackendEmpty,
	BackendNoop:   gputypes.BackendEmpty,
	BackendVulkan: gputypes.BackendVulkan,
	BackendMetal:  gputypes.BackendMetal,
	BackendDX12:   gputypes.BackendDX12,
	BackendGL:     gputypes.BackendGL,
}

// autoOrder is the preference used by the auto backend.
var autoOrder = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
}

// Backend resolves renderer.backend to a HAL variant. The boolean is false
// when frames should be drawn by the CPU ray marcher: for "cpu", and for
// "auto" when no hardware backend is registered.
func (c *Config) Backend() (gputypes.Backend, bool) {
	name := strings.ToLower(c.Renderer.Backend)
	switch name {
	case BackendCPU, "":
		return gputypes.BackendEmpty, false
	case BackendAuto:
		registered := gpu.AvailableBackends()
		for _, want := range autoOrder {
			for _, have := range registered {
				if have == want {
					return want, true
				}
			}
		}
		return gputypes.BackendEmpty, false
	}
	variant, ok := backendNames[name]
	return variant, ok
}

// LogLevel parses log.level. An empty level means info.
func (c *Config) LogLevel() (slog.Level, error) {
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}
	return level, nil
}

// Options maps the configuration to engine options.
func (c *Config) Options() []rayengine.Option {
	opts := []rayengine.Option{
		rayengine.WithWorkers(c.Workers),
		rayengine.WithSize(c.Window.Width, c.Window.Height),
		rayengine.WithVSync(c.Window.VSync),
		rayengine.WithFrameRate(c.FPS),
		rayengine.WithFrameLimit(c.Frames),
	}
	if variant, ok := c.Backend(); ok {
		opts = append(opts, rayengine.WithGPU(variant, c.Renderer.ValidateShaders))
	}
	return opts
}
