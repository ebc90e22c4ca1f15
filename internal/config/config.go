package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dshills/taptrack/internal/config/loader"
	"github.com/dshills/taptrack/internal/gesture"
	"github.com/dshills/taptrack/internal/logging"
)

// Config is the typed, validated taptrack configuration.
type Config struct {
	Gesture GestureConfig
	Input   InputConfig
	Logging LoggingConfig
	Trace   TraceConfig

	// Targets maps a target to its parent for capture and bubble
	// delivery.
	Targets map[string]string

	// Source is the config file that was read, empty if none.
	Source string
}

// GestureConfig holds the recognizer thresholds.
type GestureConfig = gesture.Thresholds

// InputConfig controls how raw events reach the recognizer.
type InputConfig struct {
	// Touch declares the touch event dependencies.
	Touch bool
	// PerSource keeps one gesture state per input source.
	PerSource bool
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level logging.Level
}

// TraceConfig controls trace file reading.
type TraceConfig struct {
	// Follow keeps reading a trace file as it grows.
	Follow bool
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gesture: gesture.DefaultThresholds(),
		Input: InputConfig{
			Touch:     true,
			PerSource: true,
		},
		Logging: LoggingConfig{Level: logging.LevelInfo},
	}
}

// Thresholds returns the recognizer thresholds.
func (c *Config) Thresholds() gesture.Thresholds {
	return c.Gesture
}

// Options selects the layers Load reads.
type Options struct {
	// Path is the config file. Empty means DefaultPath, which may be absent.
	Path string

	// FS reads the config file. Defaults to the OS file system.
	FS loader.FileSystem

	// EnvPrefix is the environment variable prefix. Empty means
	// loader.DefaultEnvPrefix; "-" disables the environment layer.
	EnvPrefix string

	// Overrides is the highest layer, usually built from flags with Set.
	Overrides map[string]any
}

// DefaultPath returns ~/.config/taptrack/config.toml or the platform
// equivalent. It returns "" when no config directory is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "taptrack", "config.toml")
}

// Set writes value at a dot-separated path in an overrides map.
func Set(overrides map[string]any, path string, value any) {
	loader.SetPath(overrides, path, value)
}

// Load merges defaults, the config file, the environment and the
// overrides, then decodes and validates the result.
func Load(opts Options) (*Config, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = loader.DefaultFS()
	}

	path := opts.Path
	if path != "" {
		if _, err := fsys.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	} else {
		path = DefaultPath()
	}

	merged := defaultMap()

	fileLayer, err := loader.NewTOMLLoaderWithFS(fsys, path).Load()
	if err != nil {
		return nil, err
	}
	merged = loader.DeepMerge(merged, fileLayer)

	if opts.EnvPrefix != "-" {
		prefix := opts.EnvPrefix
		if prefix == "" {
			prefix = loader.DefaultEnvPrefix
		}
		envLayer, err := loader.NewEnvLoader(prefix).Load()
		if err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
		merged = loader.DeepMerge(merged, envLayer)
	}

	merged = loader.DeepMerge(merged, opts.Overrides)

	cfg, err := Decode(merged)
	if err != nil {
		return nil, err
	}
	if fileLayer != nil {
		cfg.Source = path
	}
	return cfg, nil
}

// defaultMap returns the defaults in map form so that every layer
// merges over the same shape.
func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"gesture": map[string]any{
			"moveThreshold": d.Gesture.MoveThreshold,
			"ignoreMouse":   d.Gesture.IgnoreMouse,
			"tapDelay":      d.Gesture.TapDelay,
			"tapMaxTime":    d.Gesture.TapMaxTime,
		},
		"input": map[string]any{
			"touch":     d.Input.Touch,
			"perSource": d.Input.PerSource,
		},
		"logging": map[string]any{
			"level": d.Logging.Level.String(),
		},
		"trace": map[string]any{
			"follow": d.Trace.Follow,
		},
	}
}

// Decode converts a merged configuration map into a validated Config.
// Missing settings keep their defaults; unknown keys are ignored.
func Decode(m map[string]any) (*Config, error) {
	cfg := Default()
	d := decoder{m: m}

	d.duration("gesture.ignoreMouse", &cfg.Gesture.IgnoreMouse)
	d.duration("gesture.tapDelay", &cfg.Gesture.TapDelay)
	d.duration("gesture.tapMaxTime", &cfg.Gesture.TapMaxTime)
	d.float("gesture.moveThreshold", &cfg.Gesture.MoveThreshold)
	d.boolean("input.touch", &cfg.Input.Touch)
	d.boolean("input.perSource", &cfg.Input.PerSource)
	d.boolean("trace.follow", &cfg.Trace.Follow)
	cfg.Targets = d.parents("targets")

	var level string
	if d.str("logging.level", &level) {
		lvl, err := logging.ParseLevel(level)
		if err != nil {
			d.fail(invalid("logging.level", level, "must be debug, info, warn or error"))
		}
		cfg.Logging.Level = lvl
	}

	if err := cfg.Gesture.Validate(); err != nil {
		d.fail(invalid("gesture", cfg.Gesture, "%v", err))
	}

	if err := errors.Join(d.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}
