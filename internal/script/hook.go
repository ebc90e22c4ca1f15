package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/taptrack/internal/emit"
	"github.com/dshills/taptrack/internal/event"
	"github.com/dshills/taptrack/internal/logging"
	"github.com/dshills/taptrack/internal/trace"
)

// HookName is the global function called for every tap.
const HookName = "on_tap"

// Listener functions called while a tap is delivered through the target
// tree. They receive the tap table and the current target; returning
// true stops propagation.
const (
	CaptureName = "on_capture"
	BubbleName  = "on_bubble"
)

// DefaultTimeout bounds a single script call.
const DefaultTimeout = time.Second

// Hook is a sandboxed Lua state holding a user script.
// gopher-lua states are not goroutine-safe; the mutex serializes calls.
type Hook struct {
	mu      sync.Mutex
	L       *lua.LState
	logger  *logging.Logger
	timeout time.Duration
	calls   uint64
	closed  bool
}

// Option configures a Hook.
type Option func(*Hook)

// WithLogger sets the logger that print and taptrack.log write to.
func WithLogger(l *logging.Logger) Option {
	return func(h *Hook) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithTimeout sets the limit for a single script call.
func WithTimeout(d time.Duration) Option {
	return func(h *Hook) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// New creates a hook with an empty sandboxed state.
func New(opts ...Option) *Hook {
	h := &Hook{
		logger:  logging.Null(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(h.L)
	h.install()
	return h
}

// openSafeLibraries opens only the base, table, string and math
// libraries. io, os, debug and package stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// install registers print and the taptrack module.
func (h *Hook) install() {
	logf := func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		h.logger.Info("%s", strings.Join(parts, "\t"))
		return 0
	}

	h.L.SetGlobal("print", h.L.NewFunction(logf))
	mod := h.L.SetFuncs(h.L.NewTable(), map[string]lua.LGFunction{
		"log": logf,
	})
	mod.RawSetString("kind", lua.LString("touchTap"))
	h.L.SetGlobal("taptrack", mod)
}

// LoadFile runs the script at path.
func (h *Hook) LoadFile(ctx context.Context, path string) error {
	return h.run(ctx, "load", func(L *lua.LState) error {
		return L.DoFile(path)
	})
}

// LoadString runs a script from source.
func (h *Hook) LoadString(ctx context.Context, code string) error {
	return h.run(ctx, "load", func(L *lua.LState) error {
		return L.DoString(code)
	})
}

// HasOnTap reports whether the script defines on_tap.
func (h *Hook) HasOnTap() bool {
	return h.Defines(HookName)
}

// Defines reports whether the script defines the global function name.
func (h *Hook) Defines(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	return h.L.GetGlobal(name).Type() == lua.LTFunction
}

// Calls returns how many times on_tap has been called.
func (h *Hook) Calls() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

// OnTap calls on_tap with ev. A script without on_tap is a no-op.
func (h *Hook) OnTap(ctx context.Context, ev *emit.TapEvent) error {
	return h.run(ctx, HookName, func(L *lua.LState) error {
		fn := L.GetGlobal(HookName)
		if fn.Type() != lua.LTFunction {
			return nil
		}
		h.calls++
		return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, tapTable(L, ev))
	})
}

// Handler returns a bus handler that calls OnTap for tap events.
func (h *Hook) Handler() event.Handler {
	return event.AsHandler(func(ctx context.Context, e event.Event[*emit.TapEvent]) error {
		return h.OnTap(ctx, e.Payload)
	})
}

// Listener returns an emitter listener that calls on_capture or
// on_bubble, depending on phase.
func (h *Hook) Listener(phase emit.Phase) emit.Listener {
	name := CaptureName
	if phase == emit.PhaseBubble {
		name = BubbleName
	}
	return emit.ListenerFunc(func(ctx context.Context, d *emit.Dispatch) error {
		return h.run(ctx, name, func(L *lua.LState) error {
			fn := L.GetGlobal(name)
			if fn.Type() != lua.LTFunction {
				return nil
			}
			err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
				tapTable(L, d.Event), lua.LString(d.CurrentTarget))
			if err != nil {
				return err
			}
			stop := L.Get(-1)
			L.Pop(1)
			if lua.LVAsBool(stop) {
				d.StopPropagation()
			}
			return nil
		})
	})
}

// Close releases the Lua state.
func (h *Hook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.L.Close()
		h.closed = true
	}
	return nil
}

// run executes fn under the hook's lock, timeout and panic recovery.
func (h *Hook) run(ctx context.Context, op string, fn func(L *lua.LState) error) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHookClosed
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	h.L.SetContext(ctx)
	defer h.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = &ScriptError{Op: op, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := fn(h.L); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &ScriptError{Op: op, Err: fmt.Errorf("%w after %v", ErrTimeout, h.timeout)}
		}
		return &ScriptError{Op: op, Err: err}
	}
	return nil
}

func tapTable(L *lua.LState, ev *emit.TapEvent) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(ev.ID))
	t.RawSetString("kind", lua.LString(ev.Kind))
	t.RawSetString("target", lua.LString(ev.Target))
	t.RawSetString("source", lua.LString(ev.Source))
	t.RawSetString("timestamp", lua.LNumber(trace.Millis(ev.Timestamp)))
	return t
}
