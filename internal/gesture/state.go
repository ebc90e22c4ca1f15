package gesture

import "time"

// Verdict describes what one processing step did with an event.
type Verdict uint8

const (
	// verdictAdmitted is the arbitration result that lets an event through.
	verdictAdmitted Verdict = iota
	// VerdictIgnored means the event had no effect on the gesture.
	VerdictIgnored
	// VerdictTracking means a start event opened (or restarted) a gesture.
	VerdictTracking
	// VerdictTap means an end event completed a tap.
	VerdictTap
	// VerdictReset means an end event closed the gesture without a tap.
	VerdictReset
	// VerdictCancelled means a move left the tap bounds and dropped the gesture.
	VerdictCancelled
	// VerdictSuppressedMouse means a mouse event followed a touch too closely.
	VerdictSuppressedMouse
	// VerdictDebounced means a touch event followed the last tap too closely.
	VerdictDebounced
)

// String returns a string representation of the verdict.
func (v Verdict) String() string {
	switch v {
	case verdictAdmitted:
		return "admitted"
	case VerdictIgnored:
		return "ignored"
	case VerdictTracking:
		return "tracking"
	case VerdictTap:
		return "tap"
	case VerdictReset:
		return "reset"
	case VerdictCancelled:
		return "cancelled"
	case VerdictSuppressedMouse:
		return "suppressed-mouse"
	case VerdictDebounced:
		return "debounced"
	default:
		return "unknown"
	}
}

// Rejected reports whether device arbitration refused the event.
func (v Verdict) Rejected() bool {
	return v == VerdictSuppressedMouse || v == VerdictDebounced
}

// State is the gesture state of one input source.
// Zero times mean absent.
type State struct {
	// Start is the page position of the open gesture.
	Start Point

	// StartOK is false when the start event had no usable coordinates.
	StartOK bool

	// StartTime is when the open gesture began.
	StartTime time.Time

	// Tracking is true while a candidate gesture is open.
	Tracking bool

	// LastTouch is the time of the most recent touch event.
	LastTouch time.Time

	// LastTap is the time of the most recent emitted tap.
	LastTap time.Time
}

// Tap is a decision to emit a synthetic tap.
type Tap struct {
	// Kind is the synthetic event kind, always KindTouchTap.
	Kind string

	// Target is the target of the end event that completed the tap.
	Target string

	// Source is the input root of the gesture.
	Source string

	// Timestamp is the time of the end event.
	Timestamp time.Time

	// Native is the event that completed the tap.
	Native Event
}

// KindTouchTap is the synthetic event kind produced by the recognizer.
const KindTouchTap = "touchTap"

// Stats counts processed events by verdict.
type Stats struct {
	Events          uint64
	Tracking        uint64
	Taps            uint64
	Resets          uint64
	Cancelled       uint64
	Ignored         uint64
	SuppressedMouse uint64
	Debounced       uint64
}

func (s *Stats) record(v Verdict) {
	s.Events++
	switch v {
	case VerdictTracking:
		s.Tracking++
	case VerdictTap:
		s.Taps++
	case VerdictReset:
		s.Resets++
	case VerdictCancelled:
		s.Cancelled++
	case VerdictIgnored:
		s.Ignored++
	case VerdictSuppressedMouse:
		s.SuppressedMouse++
	case VerdictDebounced:
		s.Debounced++
	}
}

// Add returns the sum of two stats.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Events:          s.Events + o.Events,
		Tracking:        s.Tracking + o.Tracking,
		Taps:            s.Taps + o.Taps,
		Resets:          s.Resets + o.Resets,
		Cancelled:       s.Cancelled + o.Cancelled,
		Ignored:         s.Ignored + o.Ignored,
		SuppressedMouse: s.SuppressedMouse + o.SuppressedMouse,
		Debounced:       s.Debounced + o.Debounced,
	}
}
