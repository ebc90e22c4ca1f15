package loader

import (
	"os"
	"strconv"
	"strings"
)

// DefaultEnvPrefix is the prefix of taptrack environment variables.
const DefaultEnvPrefix = "TAPTRACK_"

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string            // e.g. "TAPTRACK_"
	mapping map[string]string // env var -> config path
	environ func() []string
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
		environ: os.Environ,
	}
}

// defaultEnvMapping maps the documented variables to their settings.
// Unmapped prefixed variables are converted by envToPath.
func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "LOG_LEVEL":      "logging.level",
		prefix + "MOVE_THRESHOLD": "gesture.moveThreshold",
		prefix + "IGNORE_MOUSE":   "gesture.ignoreMouse",
		prefix + "TAP_DELAY":      "gesture.tapDelay",
		prefix + "TAP_MAX_TIME":   "gesture.tapMaxTime",
		prefix + "TOUCH":          "input.touch",
		prefix + "PER_SOURCE":     "input.perSource",
		prefix + "FOLLOW":         "trace.follow",
	}
}

// Load reads environment variables and returns a configuration map.
// Empty values count as set.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}

		path, mapped := l.mapping[name]
		if !mapped {
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		SetPath(config, path, parseValue(value))
	}

	return config, nil
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = configPath
}

// envToPath converts TAPTRACK_TRACE_FOLLOW_MODE to trace.followMode.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.TrimPrefix(env, l.prefix)
	section, rest, ok := strings.Cut(name, "_")
	if !ok || section == "" || rest == "" {
		return ""
	}

	parts := strings.Split(strings.ToLower(rest), "_")
	setting := parts[0]
	for _, part := range parts[1:] {
		if part != "" {
			setting += strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.ToLower(section) + "." + setting
}

// parseValue converts an environment string to a bool, integer or float
// when it reads as one. Durations stay strings and are parsed on decode.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}
