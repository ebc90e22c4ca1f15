package script

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/taptrack/internal/emit"
	"github.com/dshills/taptrack/internal/event"
	"github.com/dshills/taptrack/internal/logging"
	"github.com/dshills/taptrack/internal/trace"
)

func testTapEvent() *emit.TapEvent {
	return &emit.TapEvent{
		ID:        "tap-1",
		Kind:      "touchTap",
		Target:    "btn",
		Source:    "root",
		Timestamp: trace.FromMillis(120),
	}
}

func TestOnTapReceivesTable(t *testing.T) {
	h := New()
	defer h.Close()

	ctx := context.Background()
	err := h.LoadString(ctx, `
seen = {}
function on_tap(tap)
	seen = {id = tap.id, kind = tap.kind, target = tap.target, source = tap.source, ts = tap.timestamp}
end
`)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if !h.HasOnTap() {
		t.Fatal("HasOnTap() = false")
	}

	if err := h.OnTap(ctx, testTapEvent()); err != nil {
		t.Fatalf("OnTap: %v", err)
	}

	seen, ok := h.L.GetGlobal("seen").(*lua.LTable)
	if !ok {
		t.Fatal("seen is not a table")
	}
	tests := []struct {
		field string
		want  lua.LValue
	}{
		{"id", lua.LString("tap-1")},
		{"kind", lua.LString("touchTap")},
		{"target", lua.LString("btn")},
		{"source", lua.LString("root")},
		{"ts", lua.LNumber(120)},
	}
	for _, tt := range tests {
		if got := seen.RawGetString(tt.field); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.field, got, tt.want)
		}
	}
	if h.Calls() != 1 {
		t.Errorf("Calls() = %d, want 1", h.Calls())
	}
}

func TestOnTapMissingIsNoop(t *testing.T) {
	h := New()
	defer h.Close()

	if err := h.LoadString(context.Background(), `x = 1`); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if h.HasOnTap() {
		t.Error("HasOnTap() = true without on_tap")
	}
	if err := h.OnTap(context.Background(), testTapEvent()); err != nil {
		t.Errorf("OnTap without hook = %v", err)
	}
	if h.Calls() != 0 {
		t.Errorf("Calls() = %d, want 0", h.Calls())
	}
}

func TestOnTapScriptError(t *testing.T) {
	h := New()
	defer h.Close()

	h.LoadString(context.Background(), `function on_tap(tap) error("boom") end`)

	err := h.OnTap(context.Background(), testTapEvent())
	var serr *ScriptError
	if !errors.As(err, &serr) || serr.Op != HookName {
		t.Fatalf("OnTap error = %v, want *ScriptError for on_tap", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q does not carry the Lua message", err)
	}

	// The state is still usable after a failing call.
	h.LoadString(context.Background(), `function on_tap(tap) end`)
	if err := h.OnTap(context.Background(), testTapEvent()); err != nil {
		t.Errorf("OnTap after recovery = %v", err)
	}
}

func TestSandbox(t *testing.T) {
	h := New()
	defer h.Close()

	for _, code := range []string{
		`os.exit(1)`,
		`io.open("/etc/passwd")`,
		`require("os")`,
		`dofile("/tmp/x.lua")`,
		`load("return 1")()`,
		`debug.getinfo(1)`,
	} {
		if err := h.LoadString(context.Background(), code); err == nil {
			t.Errorf("%s succeeded inside the sandbox", code)
		}
	}

	if err := h.LoadString(context.Background(), `assert(string.upper("a") == "A" and math.max(1, 2) == 2 and #table.concat({"a"}) == 1)`); err != nil {
		t.Errorf("safe libraries unavailable: %v", err)
	}
}

func TestTimeout(t *testing.T) {
	h := New(WithTimeout(50 * time.Millisecond))
	defer h.Close()

	h.LoadString(context.Background(), `function on_tap(tap) while true do end end`)
	err := h.OnTap(context.Background(), testTapEvent())
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("OnTap error = %v, want ErrTimeout", err)
	}
}

func TestPrintGoesToLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelInfo, Output: &buf})
	h := New(WithLogger(logger))
	defer h.Close()

	if err := h.LoadString(context.Background(), `print("hello", 1) taptrack.log("from module")`); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "hello\t1") || !strings.Contains(out, "from module") {
		t.Errorf("log output = %q", out)
	}
}

func TestLoadFileAndHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hook.lua")
	if err := os.WriteFile(path, []byte(`count = 0
function on_tap(tap) count = count + 1 end`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	h := New()
	defer h.Close()
	if err := h.LoadFile(context.Background(), path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	bus := event.NewBus()
	if _, err := bus.Subscribe("gesture.tap.**", h.Handler()); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	ev := testTapEvent()
	if err := bus.Publish(context.Background(), event.NewEvent[*emit.TapEvent](emit.TopicFor(ev.Source), ev, "test")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if got := h.L.GetGlobal("count"); got != lua.LNumber(1) {
		t.Errorf("count = %v, want 1", got)
	}
}

func TestClosedHook(t *testing.T) {
	h := New()
	h.Close()
	if err := h.OnTap(context.Background(), testTapEvent()); !errors.Is(err, ErrHookClosed) {
		t.Errorf("OnTap on closed hook = %v", err)
	}
	if h.HasOnTap() {
		t.Error("closed hook reports on_tap")
	}
}

func TestListenerPhases(t *testing.T) {
	h := New()
	defer h.Close()

	code := `
seen = {}
function on_capture(tap, target)
  table.insert(seen, "capture:" .. target)
end
function on_bubble(tap, target)
  table.insert(seen, "bubble:" .. target)
  return target == "toolbar"
end
`
	if err := h.LoadString(context.Background(), code); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if !h.Defines(CaptureName) || !h.Defines(BubbleName) || h.Defines(HookName) {
		t.Fatal("Defines misreported the script's functions")
	}

	tree := emit.NewTree()
	tree.SetParent("btn", "toolbar")
	tree.SetParent("toolbar", "page")
	em := emit.NewEmitter(tree)
	em.Listen(emit.AnyTarget, emit.PhaseCapture, h.Listener(emit.PhaseCapture))
	em.Listen(emit.AnyTarget, emit.PhaseBubble, h.Listener(emit.PhaseBubble))

	if err := em.Deliver(context.Background(), testTapEvent()); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	want := []string{"capture:page", "capture:toolbar", "capture:btn", "bubble:btn", "bubble:toolbar"}
	seen, ok := h.L.GetGlobal("seen").(*lua.LTable)
	if !ok {
		t.Fatal("seen is not a table")
	}
	if seen.Len() != len(want) {
		t.Fatalf("seen has %d entries, want %v", seen.Len(), want)
	}
	for i, w := range want {
		if got := seen.RawGetInt(i + 1).String(); got != w {
			t.Errorf("seen[%d] = %s, want %s", i+1, got, w)
		}
	}
}

func TestListenerError(t *testing.T) {
	h := New()
	defer h.Close()

	h.LoadString(context.Background(), `function on_bubble(tap, target) error("bad " .. target) end`)
	em := emit.NewEmitter(nil)
	em.Listen(emit.AnyTarget, emit.PhaseBubble, h.Listener(emit.PhaseBubble))

	err := em.Deliver(context.Background(), testTapEvent())
	var serr *ScriptError
	if !errors.As(err, &serr) || serr.Op != BubbleName {
		t.Fatalf("Deliver error = %v, want on_bubble ScriptError", err)
	}
	if !strings.Contains(err.Error(), "bad btn") {
		t.Errorf("error %q does not carry the Lua message", err)
	}
}
