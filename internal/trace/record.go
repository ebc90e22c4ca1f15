package trace

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dshills/taptrack/internal/gesture"
)

var (
	// ErrMalformed is returned for lines that are not a JSON object.
	ErrMalformed = errors.New("malformed trace line")

	// ErrUnknownType is returned for events the recognizer does not consume.
	ErrUnknownType = errors.New("unknown event type")

	// ErrLineTooLong is returned for lines over the line size limit.
	ErrLineTooLong = errors.New("trace line too long")
)

// LineError reports a trace line that could not be decoded.
type LineError struct {
	Line int
	Err  error
}

// Error implements the error interface.
func (e *LineError) Error() string {
	return fmt.Sprintf("trace line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *LineError) Unwrap() error {
	return e.Err
}

// Record is one decoded trace line.
type Record struct {
	// Line is the 1-based line number in the trace.
	Line int

	Event gesture.Event

	// ScrollX and ScrollY are the viewport offsets, when recorded.
	ScrollX, ScrollY gesture.Coord
}

// HasScroll reports whether the record carries a scroll offset.
func (r Record) HasScroll() bool {
	return r.ScrollX.Valid || r.ScrollY.Valid
}

// FromMillis converts a trace timestamp to a time.
func FromMillis(ms float64) time.Time {
	return time.UnixMicro(int64(math.Round(ms * 1000)))
}

// Millis converts a time to a trace timestamp.
func Millis(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1000
}

// Decode decodes one trace line.
func Decode(line []byte) (Record, error) {
	if !gjson.ValidBytes(line) {
		return Record{}, ErrMalformed
	}
	root := gjson.ParseBytes(line)
	if !root.IsObject() {
		return Record{}, ErrMalformed
	}

	typeName := root.Get("type").String()
	typ := gesture.ParseTopLevelType(typeName)
	if typ == gesture.TopUnknown {
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}

	rec := Record{
		Event: gesture.Event{
			Type:   typ,
			Target: root.Get("target").String(),
			Source: root.Get("source").String(),
			Native: gesture.Native{
				PageX:          coord(root.Get("pageX")),
				PageY:          coord(root.Get("pageY")),
				ClientX:        coord(root.Get("clientX")),
				ClientY:        coord(root.Get("clientY")),
				Touches:        touches(root.Get("touches")),
				ChangedTouches: touches(root.Get("changedTouches")),
			},
		},
		ScrollX: coord(root.Get("scrollX")),
		ScrollY: coord(root.Get("scrollY")),
	}

	if ts := root.Get("timeStamp"); ts.Type == gjson.Number {
		rec.Event.Native.Timestamp = FromMillis(ts.Float())
	}
	return rec, nil
}

// coord returns a present coordinate for JSON numbers only.
func coord(r gjson.Result) gesture.Coord {
	if r.Type != gjson.Number {
		return gesture.Coord{}
	}
	return gesture.At(r.Float())
}

// touches decodes a touch list. Points without both page coordinates
// are dropped.
func touches(r gjson.Result) []gesture.Touch {
	if !r.IsArray() {
		return nil
	}

	var out []gesture.Touch
	r.ForEach(func(_, t gjson.Result) bool {
		x, y := t.Get("pageX"), t.Get("pageY")
		if x.Type != gjson.Number || y.Type != gjson.Number {
			return true
		}
		out = append(out, gesture.Touch{
			ID:    int(t.Get("identifier").Int()),
			PageX: x.Float(),
			PageY: y.Float(),
		})
		return true
	})
	return out
}

// browserName returns the DOM event name for a top-level type.
func browserName(t gesture.TopLevelType) string {
	return strings.ToLower(strings.TrimPrefix(t.String(), "top"))
}
