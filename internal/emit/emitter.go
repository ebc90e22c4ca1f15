package emit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/taptrack/internal/event"
	"github.com/dshills/taptrack/internal/event/topic"
	"github.com/dshills/taptrack/internal/gesture"
	"github.com/dshills/taptrack/internal/logging"
)

// TopicTap is the parent topic of all published tap events.
const TopicTap topic.Topic = "gesture.tap"

// ErrNilListener is returned when registering a nil listener.
var ErrNilListener = errors.New("listener cannot be nil")

// AnyTarget registers a listener that runs at every target on the path.
const AnyTarget = "*"

// Phase is a delivery phase.
type Phase uint8

const (
	// PhaseCapture runs from the root down to the target.
	PhaseCapture Phase = iota
	// PhaseBubble runs from the target up to the root.
	PhaseBubble
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseCapture:
		return "capture"
	case PhaseBubble:
		return "bubble"
	default:
		return "unknown"
	}
}

// TapEvent is the synthetic event built for an emitted tap.
type TapEvent struct {
	ID        string
	Kind      string
	Target    string
	Source    string
	Timestamp time.Time

	// Native is the raw event that completed the tap.
	Native gesture.Event
}

// TopicFor returns the bus topic taps from source are published on.
func TopicFor(source string) topic.Topic {
	return topic.Join("gesture", "tap", source)
}

// Dispatch is the per-listener view of a delivery in progress.
type Dispatch struct {
	Event *TapEvent

	// CurrentTarget is the target whose listener is running.
	CurrentTarget string

	Phase Phase

	stopped bool
}

// StopPropagation prevents delivery to targets after the current one.
// Other listeners on the current target still run.
func (d *Dispatch) StopPropagation() {
	d.stopped = true
}

// Stopped reports whether propagation was stopped.
func (d *Dispatch) Stopped() bool {
	return d.stopped
}

// Listener receives tap events.
type Listener interface {
	HandleTap(ctx context.Context, d *Dispatch) error
}

// ListenerFunc is a function adapter for Listener.
type ListenerFunc func(ctx context.Context, d *Dispatch) error

// HandleTap implements Listener.
func (f ListenerFunc) HandleTap(ctx context.Context, d *Dispatch) error {
	return f(ctx, d)
}

// ListenerError records a listener failure with its position in the path.
type ListenerError struct {
	Target string
	Phase  Phase
	Err    error
}

// Error implements the error interface.
func (e *ListenerError) Error() string {
	return fmt.Sprintf("tap listener on %s (%s): %v", e.Target, e.Phase, e.Err)
}

// Unwrap returns the underlying error.
func (e *ListenerError) Unwrap() error {
	return e.Err
}

type listenerKey struct {
	target string
	phase  Phase
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithBus publishes every emitted event on bus.
func WithBus(bus event.Bus) Option {
	return func(e *Emitter) {
		e.bus = bus
	}
}

// WithLogger sets the emitter's logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Emitter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithIDFunc replaces the event id generator.
func WithIDFunc(fn func() string) Option {
	return func(e *Emitter) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// Emitter is the emission adapter between the recognizer and listeners.
type Emitter struct {
	mu        sync.RWMutex
	tree      *Tree
	listeners map[listenerKey][]Listener

	bus    event.Bus
	logger *logging.Logger
	newID  func() string
}

// NewEmitter creates an emitter delivering over tree.
// A nil tree delivers only to the target itself.
func NewEmitter(tree *Tree, opts ...Option) *Emitter {
	if tree == nil {
		tree = NewTree()
	}
	e := &Emitter{
		tree:      tree,
		listeners: make(map[listenerKey][]Listener),
		logger:    logging.Null(),
		newID:     event.NewID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tree returns the emitter's target tree.
func (e *Emitter) Tree() *Tree {
	return e.tree
}

// Listen registers l for taps reaching target in phase.
func (e *Emitter) Listen(target string, phase Phase, l Listener) error {
	if target == "" {
		return ErrEmptyTarget
	}
	if l == nil {
		return ErrNilListener
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	k := listenerKey{target, phase}
	e.listeners[k] = append(e.listeners[k], l)
	return nil
}

// ListenFunc registers a function listener.
func (e *Emitter) ListenFunc(target string, phase Phase, fn ListenerFunc) error {
	if fn == nil {
		return ErrNilListener
	}
	return e.Listen(target, phase, fn)
}

// Clear removes all listeners for target.
func (e *Emitter) Clear(target string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.listeners, listenerKey{target, PhaseCapture})
	delete(e.listeners, listenerKey{target, PhaseBubble})
}

// listenersFor returns the target's own listeners followed by the
// AnyTarget listeners.
func (e *Emitter) listenersFor(target string, phase Phase) []Listener {
	e.mu.RLock()
	defer e.mu.RUnlock()
	own := e.listeners[listenerKey{target, phase}]
	wild := e.listeners[listenerKey{AnyTarget, phase}]
	out := make([]Listener, 0, len(own)+len(wild))
	out = append(out, own...)
	return append(out, wild...)
}

// NewTapEvent builds the synthetic event for a tap decision.
func (e *Emitter) NewTapEvent(tap gesture.Tap) *TapEvent {
	kind := tap.Kind
	if kind == "" {
		kind = gesture.KindTouchTap
	}
	return &TapEvent{
		ID:        e.newID(),
		Kind:      kind,
		Target:    tap.Target,
		Source:    tap.Source,
		Timestamp: tap.Timestamp,
		Native:    tap.Native,
	}
}

// Emit builds the synthetic event for tap and delivers it.
// Listener and bus errors are joined; delivery continues past them.
func (e *Emitter) Emit(ctx context.Context, tap gesture.Tap) (*TapEvent, error) {
	ev := e.NewTapEvent(tap)
	err := e.Deliver(ctx, ev)
	return ev, err
}

// Deliver runs ev through capture and bubble listeners and then publishes
// it on the bus.
func (e *Emitter) Deliver(ctx context.Context, ev *TapEvent) error {
	path := e.tree.Path(ev.Target)
	var errs []error

	d := &Dispatch{Event: ev}
	run := func(target string, phase Phase) {
		d.CurrentTarget = target
		d.Phase = phase
		for _, l := range e.listenersFor(target, phase) {
			if err := l.HandleTap(ctx, d); err != nil {
				e.logger.Warn("listener failed on %s: %v", target, err)
				errs = append(errs, &ListenerError{Target: target, Phase: phase, Err: err})
			}
		}
	}

	for i := 0; i < len(path) && !d.stopped; i++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		run(path[i], PhaseCapture)
	}
	for i := len(path) - 1; i >= 0 && !d.stopped; i-- {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		run(path[i], PhaseBubble)
	}

	if e.bus != nil {
		t := TopicFor(ev.Source)
		if err := e.bus.Publish(ctx, event.NewEvent[*TapEvent](t, ev, "emit")); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", t, err))
		}
	}

	e.logger.Debug("emitted %s id=%s target=%s stopped=%t", ev.Kind, ev.ID, ev.Target, d.stopped)
	return errors.Join(errs...)
}
