package gesture

import (
	"strings"
	"time"
)

// TopLevelType identifies the semantic kind of a raw pointer event.
type TopLevelType uint8

const (
	// TopUnknown is an event type the recognizer does not handle.
	TopUnknown TopLevelType = iota
	// TopMouseDown is a mouse button press.
	TopMouseDown
	// TopMouseMove is mouse movement.
	TopMouseMove
	// TopMouseUp is a mouse button release.
	TopMouseUp
	// TopTouchStart is a finger touching the surface.
	TopTouchStart
	// TopTouchMove is a finger moving on the surface.
	TopTouchMove
	// TopTouchEnd is a finger leaving the surface.
	TopTouchEnd
	// TopTouchCancel is a touch interrupted by the platform.
	TopTouchCancel
)

// String returns the browser-style name of the type.
func (t TopLevelType) String() string {
	switch t {
	case TopMouseDown:
		return "topMouseDown"
	case TopMouseMove:
		return "topMouseMove"
	case TopMouseUp:
		return "topMouseUp"
	case TopTouchStart:
		return "topTouchStart"
	case TopTouchMove:
		return "topTouchMove"
	case TopTouchEnd:
		return "topTouchEnd"
	case TopTouchCancel:
		return "topTouchCancel"
	default:
		return "unknown"
	}
}

// ParseTopLevelType parses a top-level type name. Both the "topMouseDown"
// form and the native DOM form ("mousedown") are accepted, case-insensitively.
// Unrecognized names return TopUnknown.
func ParseTopLevelType(s string) TopLevelType {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "top")
	switch name {
	case "mousedown":
		return TopMouseDown
	case "mousemove":
		return TopMouseMove
	case "mouseup":
		return TopMouseUp
	case "touchstart":
		return TopTouchStart
	case "touchmove":
		return TopTouchMove
	case "touchend":
		return TopTouchEnd
	case "touchcancel":
		return TopTouchCancel
	default:
		return TopUnknown
	}
}

// Phase is the gesture lifecycle class of an event.
type Phase uint8

const (
	// PhaseNone marks events that take no part in a gesture.
	PhaseNone Phase = iota
	// PhaseStart is a press (start-ish).
	PhaseStart
	// PhaseMove is movement (move-ish).
	PhaseMove
	// PhaseEnd is a release or cancellation (end-ish).
	PhaseEnd
)

// String returns a string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseMove:
		return "move"
	case PhaseEnd:
		return "end"
	default:
		return "none"
	}
}

// Device is the kind of hardware an event originates from.
type Device uint8

const (
	// DeviceMouse covers mouse and other non-touch pointers.
	DeviceMouse Device = iota
	// DeviceTouch covers touch screens.
	DeviceTouch
)

// String returns a string representation of the device.
func (d Device) String() string {
	if d == DeviceTouch {
		return "touch"
	}
	return "mouse"
}

// class is the static classification of a top-level type.
type class struct {
	phase  Phase
	device Device
}

var classes = [...]class{
	TopUnknown:     {PhaseNone, DeviceMouse},
	TopMouseDown:   {PhaseStart, DeviceMouse},
	TopMouseMove:   {PhaseMove, DeviceMouse},
	TopMouseUp:     {PhaseEnd, DeviceMouse},
	TopTouchStart:  {PhaseStart, DeviceTouch},
	TopTouchMove:   {PhaseMove, DeviceTouch},
	TopTouchEnd:    {PhaseEnd, DeviceTouch},
	TopTouchCancel: {PhaseEnd, DeviceTouch},
}

func classify(t TopLevelType) class {
	if int(t) >= len(classes) {
		return classes[TopUnknown]
	}
	return classes[t]
}

// Phase returns the lifecycle class of the type.
func (t TopLevelType) Phase() Phase {
	return classify(t).phase
}

// Device returns the device kind of the type.
func (t TopLevelType) Device() Device {
	return classify(t).device
}

// Dependencies returns the top-level types a recognizer needs delivered.
// Mouse types are always required; touch types only when the host
// reports touch support.
func Dependencies(touchEnabled bool) []TopLevelType {
	deps := []TopLevelType{TopMouseDown, TopMouseMove, TopMouseUp}
	if touchEnabled {
		deps = append(deps, TopTouchStart, TopTouchMove, TopTouchEnd, TopTouchCancel)
	}
	return deps
}

// Coord is an optional coordinate value.
type Coord struct {
	V     float64
	Valid bool
}

// At returns a present coordinate.
func At(v float64) Coord {
	return Coord{V: v, Valid: true}
}

// Touch is one touch point of a touch payload.
type Touch struct {
	ID    int
	PageX float64
	PageY float64
}

// Native is the platform payload carried by a raw event.
type Native struct {
	// Timestamp is when the event occurred. Zero means absent.
	Timestamp time.Time

	// PageX and PageY are document-relative coordinates.
	PageX, PageY Coord

	// ClientX and ClientY are viewport-relative coordinates.
	ClientX, ClientY Coord

	// Touches are the points currently on the surface.
	Touches []Touch

	// ChangedTouches are the points that changed in this event.
	ChangedTouches []Touch
}

// Event is a raw pointer event.
type Event struct {
	// Type is the top-level event type.
	Type TopLevelType

	// Target identifies the logical target of the event.
	Target string

	// Source identifies the input root the event was captured on.
	Source string

	// Native is the platform payload.
	Native Native
}

// Point is a page coordinate pair.
type Point struct {
	X, Y float64
}
