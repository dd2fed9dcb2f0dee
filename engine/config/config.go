// Package config loads engine, device, scene and logging settings from TOML or YAML files
// and converts them into the builder options of the respective packages.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-scene/engine"
	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Device backends.
const (
	BackendHeadless = "headless"
	BackendWGPU     = "wgpu"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the root of a configuration file.
type Config struct {
	Engine  EngineConfig `toml:"engine" yaml:"engine"`
	Devices DeviceConfig `toml:"devices" yaml:"devices"`
	Scene   SceneConfig  `toml:"scene" yaml:"scene"`
	Log     LogConfig    `toml:"log" yaml:"log"`
}

// EngineConfig configures the frame driver.
type EngineConfig struct {
	// TickRate is the application tick rate in Hz.
	TickRate float64 `toml:"tick_rate" yaml:"tick_rate"`
	// FrameLimit caps the render rate in Hz; 0 is uncapped.
	FrameLimit    float64 `toml:"frame_limit" yaml:"frame_limit"`
	RenderWorkers int     `toml:"render_workers" yaml:"render_workers"`
	Profiling     bool    `toml:"profiling" yaml:"profiling"`
}

// DeviceConfig selects and configures the device loader.
type DeviceConfig struct {
	// Backend is "headless" or "wgpu".
	Backend string `toml:"backend" yaml:"backend"`
	// Count is the number of headless devices.
	Count int `toml:"count" yaml:"count"`
	// ForceFallback requests the software adapter as the primary wgpu device.
	ForceFallback bool `toml:"force_fallback" yaml:"force_fallback"`
	// IncludeFallback loads the software adapter as an additional wgpu device.
	IncludeFallback bool   `toml:"include_fallback" yaml:"include_fallback"`
	MaxBindGroups   uint32 `toml:"max_bind_groups" yaml:"max_bind_groups"`
}

// SceneConfig configures scenes created from the file.
type SceneConfig struct {
	Name   string `toml:"name" yaml:"name"`
	Pinned bool   `toml:"pinned" yaml:"pinned"`
	// MaxFrameClock is the frame clock wrap value in milliseconds; 0 keeps the default.
	MaxFrameClock uint64 `toml:"max_frame_clock" yaml:"max_frame_clock"`
}

// LogConfig configures the engine logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error, or off.
	Level string `toml:"level" yaml:"level"`
	// Format is "text" or "json".
	Format string `toml:"format" yaml:"format"`
}

// Default returns the configuration used for fields a file leaves out.
//
// Returns:
//   - *Config: a valid configuration with one headless device
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			TickRate:      60,
			RenderWorkers: 4,
		},
		Devices: DeviceConfig{
			Backend:       BackendHeadless,
			Count:         1,
			MaxBindGroups: 8,
		},
		Scene: SceneConfig{
			Name: "main",
		},
		Log: LogConfig{
			Level:  "info",
			Format: FormatText,
		},
	}
}

// Load reads a configuration file over the defaults. The format follows the extension:
// .toml, or .yaml/.yml.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - *Config: the validated configuration
//   - error: on read, decode or validation failure
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes configuration data over the defaults.
//
// Parameters:
//   - data: the file contents
//   - ext: the format, as a file extension (".toml", ".yaml", ".yml")
//
// Returns:
//   - *Config: the validated configuration
//   - error: on decode or validation failure
func Parse(data []byte, ext string) (*Config, error) {
	c := Default()
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("config: decode toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("config: unsupported format %q", ext)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports every invalid field.
//
// Returns:
//   - error: nil, or the joined field errors each wrapping ErrInvalid
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Engine.TickRate <= 0 {
		invalid("engine.tick_rate must be positive, got %v", c.Engine.TickRate)
	}
	if c.Engine.FrameLimit < 0 {
		invalid("engine.frame_limit must not be negative, got %v", c.Engine.FrameLimit)
	}
	if c.Engine.RenderWorkers <= 0 {
		invalid("engine.render_workers must be positive, got %d", c.Engine.RenderWorkers)
	}
	switch c.Devices.Backend {
	case BackendHeadless:
		if c.Devices.Count <= 0 {
			invalid("devices.count must be positive, got %d", c.Devices.Count)
		}
	case BackendWGPU:
		if c.Devices.MaxBindGroups == 0 {
			invalid("devices.max_bind_groups must be positive")
		}
	default:
		invalid("devices.backend %q is not %q or %q", c.Devices.Backend, BackendHeadless, BackendWGPU)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != FormatText && c.Log.Format != FormatJSON {
		invalid("log.format %q is not %q or %q", c.Log.Format, FormatText, FormatJSON)
	}
	return errors.Join(errs...)
}

// levelOff is above every level the engine logs at.
const levelOff = slog.Level(100)

func parseLevel(s string) (slog.Level, error) {
	if strings.EqualFold(s, "off") {
		return levelOff, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalid, s)
	}
	return l, nil
}

// LogLevel returns the configured level. "off" maps above slog.LevelError.
func (c *Config) LogLevel() slog.Level {
	l, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewLogger builds a logger writing to w in the configured format and level. Install it
// with logging.SetLogger.
//
// Parameters:
//   - w: the output
//
// Returns:
//   - *slog.Logger: the logger
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel()}
	if c.Log.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// EngineOptions converts the engine section into engine builder options.
func (c *Config) EngineOptions() []engine.EngineBuilderOption {
	return []engine.EngineBuilderOption{
		engine.WithTickRate(c.Engine.TickRate),
		engine.WithRenderFrameLimit(c.Engine.FrameLimit),
		engine.WithRenderWorkers(c.Engine.RenderWorkers),
		engine.WithProfiling(c.Engine.Profiling),
	}
}

// SceneOptions converts the scene section into scene builder options.
func (c *Config) SceneOptions() []scene.SceneBuilderOption {
	opts := []scene.SceneBuilderOption{scene.WithPinned(c.Scene.Pinned)}
	if c.Scene.MaxFrameClock > 0 {
		opts = append(opts, scene.WithMaxFrameClock(c.Scene.MaxFrameClock))
	}
	return opts
}

// RegistryOptions converts the devices section into registry builder options.
//
// Parameters:
//   - wgpuOptions: extra loader options for the wgpu backend, such as a compatible surface
//
// Returns:
//   - []device.RegistryBuilderOption: the options
func (c *Config) RegistryOptions(wgpuOptions ...device.WGPULoaderOption) []device.RegistryBuilderOption {
	if c.Devices.Backend == BackendWGPU {
		opts := append([]device.WGPULoaderOption{
			device.WithForceFallbackAdapter(c.Devices.ForceFallback),
			device.WithFallbackDevice(c.Devices.IncludeFallback),
			device.WithMaxBindGroups(c.Devices.MaxBindGroups),
		}, wgpuOptions...)
		return []device.RegistryBuilderOption{device.WithLoader(device.NewWGPULoader(opts...))}
	}
	return []device.RegistryBuilderOption{device.WithHeadlessDevices(c.Devices.Count)}
}
