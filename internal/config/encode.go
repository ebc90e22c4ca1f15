package config

import (
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type fileConfig struct {
	Gesture struct {
		MoveThreshold float64 `toml:"moveThreshold"`
		IgnoreMouse   string  `toml:"ignoreMouse"`
		TapDelay      string  `toml:"tapDelay"`
		TapMaxTime    string  `toml:"tapMaxTime"`
	} `toml:"gesture"`
	Input struct {
		Touch     bool `toml:"touch"`
		PerSource bool `toml:"perSource"`
	} `toml:"input"`
	Logging struct {
		Level string `toml:"level"`
	} `toml:"logging"`
	Trace struct {
		Follow bool `toml:"follow"`
	} `toml:"trace"`
	Targets map[string]string `toml:"targets,omitempty"`
}

// WriteTOML writes the configuration in config file form.
func (c *Config) WriteTOML(w io.Writer) error {
	var f fileConfig
	f.Gesture.MoveThreshold = c.Gesture.MoveThreshold
	f.Gesture.IgnoreMouse = c.Gesture.IgnoreMouse.String()
	f.Gesture.TapDelay = c.Gesture.TapDelay.String()
	f.Gesture.TapMaxTime = c.Gesture.TapMaxTime.String()
	f.Input.Touch = c.Input.Touch
	f.Input.PerSource = c.Input.PerSource
	f.Logging.Level = strings.ToLower(c.Logging.Level.String())
	f.Trace.Follow = c.Trace.Follow
	f.Targets = c.Targets

	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(f)
}
