package loader

import "testing"

func newTestEnvLoader(env ...string) *EnvLoader {
	l := NewEnvLoader(DefaultEnvPrefix)
	l.environ = func() []string { return env }
	return l
}

func TestEnvLoader_Load(t *testing.T) {
	l := newTestEnvLoader(
		"TAPTRACK_LOG_LEVEL=debug",
		"TAPTRACK_MOVE_THRESHOLD=15",
		"TAPTRACK_TAP_MAX_TIME=450ms",
		"TAPTRACK_TOUCH=off",
		"TAPTRACK_PER_SOURCE=yes",
		"PATH=/usr/bin",
	)

	config, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		path string
		want any
	}{
		{"logging.level", "debug"},
		{"gesture.moveThreshold", int64(15)},
		{"gesture.tapMaxTime", "450ms"},
		{"input.touch", false},
		{"input.perSource", true},
	}
	for _, tt := range tests {
		if val, ok := Lookup(config, tt.path); !ok || val != tt.want {
			t.Errorf("%s = %v (%T), want %v", tt.path, val, val, tt.want)
		}
	}
	if _, ok := config["path"]; ok {
		t.Error("unprefixed variable was loaded")
	}
}

func TestEnvLoader_LoadUnmapped(t *testing.T) {
	config, err := newTestEnvLoader("TAPTRACK_TRACE_FOLLOW_MODE=tail", "TAPTRACK_ORPHAN=1").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if val, ok := Lookup(config, "trace.followMode"); !ok || val != "tail" {
		t.Errorf("trace.followMode = %v, want tail", val)
	}
	if len(config) != 1 {
		t.Errorf("config = %v, want only the trace section", config)
	}
}

func TestEnvLoader_AddMapping(t *testing.T) {
	l := newTestEnvLoader("TAPTRACK_DEBOUNCE=150ms")
	l.AddMapping("TAPTRACK_DEBOUNCE", "gesture.tapDelay")

	config, _ := l.Load()
	if val, ok := Lookup(config, "gesture.tapDelay"); !ok || val != "150ms" {
		t.Errorf("gesture.tapDelay = %v, want 150ms", val)
	}
}

func TestEnvLoader_envToPath(t *testing.T) {
	l := NewEnvLoader(DefaultEnvPrefix)

	tests := []struct {
		env  string
		want string
	}{
		{"TAPTRACK_TRACE_FOLLOW", "trace.follow"},
		{"TAPTRACK_GESTURE_MOVE_THRESHOLD", "gesture.moveThreshold"},
		{"TAPTRACK_INPUT_PER_SOURCE", "input.perSource"},
		{"TAPTRACK_LONE", ""},
		{"TAPTRACK__X", ""},
	}
	for _, tt := range tests {
		if got := l.envToPath(tt.env); got != tt.want {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"ON", true},
		{"no", false},
		{"42", int64(42)},
		{"1", int64(1)},
		{"2.5", 2.5},
		{"750ms", "750ms"},
		{"", ""},
		{"v1.2.x", "v1.2.x"},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %v (%T), want %v", tt.in, got, got, tt.want)
		}
	}
}
