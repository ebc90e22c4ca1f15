// Package app wires the taptrack pipeline together: configuration,
// logging, the recognizer pool, the emitter and its bus sinks. It also
// runs the input loops that feed raw events into the pipeline.
package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dshills/taptrack/internal/config"
	"github.com/dshills/taptrack/internal/emit"
	"github.com/dshills/taptrack/internal/event"
	"github.com/dshills/taptrack/internal/event/topic"
	"github.com/dshills/taptrack/internal/gesture"
	"github.com/dshills/taptrack/internal/logging"
	"github.com/dshills/taptrack/internal/script"
	"github.com/dshills/taptrack/internal/trace"
	"github.com/dshills/taptrack/internal/viewport"
)

// TapPattern matches every tap topic on the bus.
const TapPattern topic.Topic = "gesture.tap.**"

// Application coordinates the recognizer pipeline.
type Application struct {
	mu sync.Mutex

	config *config.Config
	logger *logging.Logger

	bus      event.Bus
	viewport *viewport.Metrics
	pool     *gesture.Pool
	clock    gesture.Clock
	emitter  *emit.Emitter
	hook     *script.Hook

	taps   *trace.Writer
	record *trace.Writer

	accept  map[gesture.TopLevelType]bool
	subs    []event.Subscription
	metrics *Metrics

	closed atomic.Bool
}

// Options configures the application.
type Options struct {
	// Config is the loaded configuration. Nil uses config.Default.
	Config *config.Config

	// Logger receives all log output. Nil builds a stderr logger at the
	// configured level.
	Logger *logging.Logger

	// Output receives one JSON record per emitted tap. Nil disables it.
	Output io.Writer

	// Record receives every accepted raw event as a trace line.
	Record io.Writer

	// ScriptPath is a Lua file defining on_tap.
	ScriptPath string

	// Clock replaces the recognizer clock.
	Clock gesture.Clock
}

// New creates an Application with the given options.
func New(ctx context.Context, opts Options) (*Application, error) {
	app := &Application{
		config:  opts.Config,
		logger:  opts.Logger,
		metrics: NewMetrics(),
	}
	if app.config == nil {
		app.config = config.Default()
	}
	if app.logger == nil {
		lc := logging.DefaultConfig()
		lc.Level = app.config.Logging.Level
		app.logger = logging.New(lc)
	}

	if err := app.bootstrap(ctx, opts); err != nil {
		if app.hook != nil {
			app.hook.Close()
		}
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap(ctx context.Context, opts Options) error {
	thresholds := app.config.Thresholds()
	if err := thresholds.Validate(); err != nil {
		return &InitError{Component: "recognizer", Err: err}
	}

	// 1. Event bus
	app.bus = event.NewBus()

	// 2. Recognizer pool reading scroll offsets from the viewport
	app.viewport = viewport.New()
	app.clock = opts.Clock
	if app.clock == nil {
		app.clock = gesture.SystemClock
	}
	recOpts := []gesture.Option{
		gesture.WithScrollMetrics(app.viewport),
		gesture.WithClock(app.clock),
	}
	if app.config.Input.PerSource {
		app.pool = gesture.NewPool(thresholds, recOpts...)
	} else {
		app.pool = gesture.NewSharedPool(thresholds, recOpts...)
	}

	app.accept = make(map[gesture.TopLevelType]bool)
	for _, typ := range gesture.Dependencies(app.config.Input.Touch) {
		app.accept[typ] = true
	}

	// 3. Emitter
	app.emitter = emit.NewEmitter(emit.NewTree(),
		emit.WithBus(app.bus),
		emit.WithLogger(app.logger.WithComponent("emit")),
	)
	if err := app.buildTree(); err != nil {
		return &InitError{Component: "targets", Err: err}
	}

	// 4. Sinks
	if opts.Output != nil {
		app.taps = trace.NewWriter(opts.Output)
		err := app.subscribe(TapPattern, event.AsHandler(func(ctx context.Context, e event.Event[*emit.TapEvent]) error {
			return app.taps.WriteTap(e.Payload)
		}), event.WithPriority(event.PriorityLow))
		if err != nil {
			return &InitError{Component: "output", Err: err}
		}
	}
	if opts.Record != nil {
		app.record = trace.NewWriter(opts.Record)
	}

	// 5. Script hook
	if opts.ScriptPath != "" {
		app.hook = script.New(script.WithLogger(app.logger.WithComponent("script")))
		if err := app.hook.LoadFile(ctx, opts.ScriptPath); err != nil {
			return &InitError{Component: "script", Err: err}
		}
		if !app.hook.HasOnTap() {
			app.logger.Warn("script %s does not define %s", opts.ScriptPath, script.HookName)
		}
		if err := app.subscribe(TapPattern, app.hook.Handler()); err != nil {
			return &InitError{Component: "script", Err: err}
		}
		for _, phase := range []emit.Phase{emit.PhaseCapture, emit.PhaseBubble} {
			if !app.hook.Defines(hookFor(phase)) {
				continue
			}
			if err := app.emitter.Listen(emit.AnyTarget, phase, app.hook.Listener(phase)); err != nil {
				return &InitError{Component: "script", Err: err}
			}
		}
	}

	app.logger.Debug("pipeline ready: touch=%t perSource=%t thresholds=%+v",
		app.config.Input.Touch, app.config.Input.PerSource, thresholds)
	return nil
}

// buildTree parents the configured targets in key order so that a cycle
// is always reported against the same entry.
func (app *Application) buildTree() error {
	children := make([]string, 0, len(app.config.Targets))
	for child := range app.config.Targets {
		children = append(children, child)
	}
	sort.Strings(children)

	tree := app.emitter.Tree()
	for _, child := range children {
		if err := tree.SetParent(child, app.config.Targets[child]); err != nil {
			return fmt.Errorf("%s: %w", child, err)
		}
	}
	return nil
}

func hookFor(phase emit.Phase) string {
	if phase == emit.PhaseCapture {
		return script.CaptureName
	}
	return script.BubbleName
}

func (app *Application) subscribe(pattern topic.Topic, h event.Handler, opts ...event.SubscriptionOption) error {
	sub, err := app.bus.Subscribe(pattern, h, opts...)
	if err != nil {
		return err
	}
	app.mu.Lock()
	app.subs = append(app.subs, sub)
	app.mu.Unlock()
	return nil
}

// Config returns the application configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Bus returns the event bus taps are published on.
func (app *Application) Bus() event.Bus {
	return app.bus
}

// Emitter returns the tap emitter.
func (app *Application) Emitter() *emit.Emitter {
	return app.emitter
}

// Pool returns the recognizer pool.
func (app *Application) Pool() *gesture.Pool {
	return app.pool
}

// Viewport returns the scroll metrics the recognizers read.
func (app *Application) Viewport() *viewport.Metrics {
	return app.viewport
}

// Metrics returns the pipeline metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// Close releases the script state and bus subscriptions. It is safe to
// call more than once.
func (app *Application) Close() error {
	if app.closed.Swap(true) {
		return nil
	}

	app.mu.Lock()
	subs := app.subs
	app.subs = nil
	app.mu.Unlock()

	for _, sub := range subs {
		_ = app.bus.Unsubscribe(sub)
	}

	var err error
	if app.hook != nil {
		err = app.hook.Close()
	}

	s := app.metrics.Snapshot()
	app.logger.Info("processed %d events, %d taps, %d malformed lines", s.Events, s.Taps, s.MalformedLines)
	return err
}
