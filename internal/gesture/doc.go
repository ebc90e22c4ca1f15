// Package gesture recognizes single taps in a serial stream of mouse and
// touch events.
//
// The recognizer consumes raw pointer events one at a time and decides
// which sequences represent a deliberate tap, as opposed to a drag, a
// duplicate signal, or the compatibility mouse event a touch device fires
// after a real touch.
//
// # Core Types
//
// Event is a raw pointer event with its top-level type, target, and native
// payload:
//
//	ev := gesture.Event{
//	    Type:   gesture.TopTouchStart,
//	    Target: "button-ok",
//	    Native: gesture.Native{
//	        Timestamp: time.Now(),
//	        PageX:     gesture.At(100),
//	        PageY:     gesture.At(100),
//	    },
//	}
//
// # Recognizer
//
// Recognizer holds the gesture state for one input source:
//
//	r := gesture.NewRecognizer(gesture.DefaultThresholds())
//	if tap := r.Handle(ev); tap != nil {
//	    emit(tap)
//	}
//
// Each event first passes device arbitration (phantom mouse suppression
// and tap debounce), then drives the Idle/Tracking state machine. A tap is
// produced when an end event arrives within the move threshold and the
// maximum tap time of the start event.
//
// # Input Sources
//
// Pool keeps one Recognizer per logical input source so that independent
// roots never share gesture state.
//
// # Thread Safety
//
// Recognizer and Pool are safe for concurrent use. Each event transition
// runs to completion under a single mutex.
package gesture
