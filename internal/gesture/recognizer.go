package gesture

import (
	"sync"
	"time"
)

// Clock supplies the time for events that carry no timestamp.
type Clock interface {
	Now() time.Time
}

// ClockFunc is a function adapter for Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads the wall clock with its monotonic component.
var SystemClock Clock = ClockFunc(time.Now)

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithClock sets the clock used for events without a timestamp.
func WithClock(c Clock) Option {
	return func(r *Recognizer) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithScrollMetrics sets the viewport metrics used to convert client
// coordinates to page coordinates.
func WithScrollMetrics(m ScrollMetrics) Option {
	return func(r *Recognizer) {
		r.extract.metrics = m
	}
}

// WithTouchSelector replaces the single-touch selector.
func WithTouchSelector(s TouchSelector) Option {
	return func(r *Recognizer) {
		if s != nil {
			r.extract.touches = s
		}
	}
}

// Recognizer detects taps for one input source.
type Recognizer struct {
	mu sync.Mutex

	thresholds Thresholds
	clock      Clock
	extract    extractor

	state State
	stats Stats
}

// NewRecognizer creates a recognizer with the given thresholds.
// The thresholds are fixed for the recognizer's lifetime.
func NewRecognizer(t Thresholds, opts ...Option) *Recognizer {
	r := &Recognizer{
		thresholds: t,
		clock:      SystemClock,
		extract:    extractor{touches: FirstTouch},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Thresholds returns the recognizer's thresholds.
func (r *Recognizer) Thresholds() Thresholds {
	return r.thresholds
}

// Handle processes one event and returns the tap it completes, or nil.
func (r *Recognizer) Handle(ev Event) *Tap {
	_, tap := r.Step(ev)
	return tap
}

// Step processes one event and reports what it did.
// tap is non-nil only when the verdict is VerdictTap.
func (r *Recognizer) Step(ev Event) (Verdict, *Tap) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.Native.Timestamp.IsZero() {
		ev.Native.Timestamp = r.clock.Now()
	}

	v, tap := r.step(ev)
	r.stats.record(v)
	return v, tap
}

// step runs arbitration and the state machine. r.mu must be held.
func (r *Recognizer) step(ev Event) (Verdict, *Tap) {
	now := ev.Native.Timestamp
	if ev.Type == TopUnknown {
		return VerdictIgnored, nil
	}

	if v := arbitrate(ev.Type.Device(), &r.state, r.thresholds, now); v != verdictAdmitted {
		return v, nil
	}

	switch ev.Type.Phase() {
	case PhaseStart:
		return r.start(ev, now), nil
	case PhaseEnd:
		return r.end(ev, now)
	case PhaseMove:
		return r.move(ev, now), nil
	}
	return VerdictIgnored, nil
}

// start opens a gesture, discarding any gesture already open.
func (r *Recognizer) start(ev Event, now time.Time) Verdict {
	r.state.Start, r.state.StartOK = r.extract.point(&ev.Native)
	r.state.StartTime = now
	r.state.Tracking = true
	return VerdictTracking
}

// end closes the gesture, emitting a tap when it stayed within bounds.
func (r *Recognizer) end(ev Event, now time.Time) (Verdict, *Tap) {
	v := VerdictReset
	var tap *Tap
	if r.state.Tracking && r.inBounds(&ev.Native, now) {
		tap = &Tap{
			Kind:      KindTouchTap,
			Target:    ev.Target,
			Source:    ev.Source,
			Timestamp: now,
			Native:    ev,
		}
		r.state.LastTap = now
		v = VerdictTap
	} else if !r.state.Tracking {
		v = VerdictIgnored
	}

	r.state.Start = Point{}
	r.state.StartOK = false
	r.state.Tracking = false
	return v, tap
}

// move drops the gesture once the pointer leaves the tap bounds.
func (r *Recognizer) move(ev Event, now time.Time) Verdict {
	if !r.state.Tracking {
		return VerdictIgnored
	}
	if r.inBounds(&ev.Native, now) {
		return VerdictIgnored
	}
	r.state.Tracking = false
	return VerdictCancelled
}

func (r *Recognizer) inBounds(n *Native, now time.Time) bool {
	cur, ok := r.extract.point(n)
	return r.thresholds.withinBounds(r.state.Start, r.state.StartOK, r.state.StartTime, cur, ok, now)
}

// Snapshot returns a copy of the current gesture state.
func (r *Recognizer) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Tracking reports whether a gesture is open.
func (r *Recognizer) Tracking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Tracking
}

// Stats returns the verdict counters.
func (r *Recognizer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Reset returns the recognizer to its initial state.
// Device history and counters are cleared as well.
func (r *Recognizer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = State{}
	r.stats = Stats{}
}
