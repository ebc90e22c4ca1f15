package trace

import (
	"io"
	"sync"

	"github.com/tidwall/sjson"

	"github.com/dshills/taptrack/internal/emit"
	"github.com/dshills/taptrack/internal/gesture"
)

// Writer writes JSON Lines records. It is safe for concurrent use.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteTap writes one tap record.
func (w *Writer) WriteTap(ev *emit.TapEvent) error {
	line, err := EncodeTap(ev)
	if err != nil {
		return err
	}
	return w.writeLine(line)
}

// WriteRecord writes one raw event, with its scroll offset, in trace form.
func (w *Writer) WriteRecord(rec Record) error {
	line, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	return w.writeLine(line)
}

func (w *Writer) writeLine(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.w.Write(append(line, '\n'))
	return err
}

// EncodeTap encodes a tap record.
func EncodeTap(ev *emit.TapEvent) ([]byte, error) {
	out := []byte("{}")
	fields := []struct {
		path  string
		value any
	}{
		{"id", ev.ID},
		{"kind", ev.Kind},
		{"target", ev.Target},
		{"source", ev.Source},
		{"timeStamp", Millis(ev.Timestamp)},
	}

	var err error
	for _, f := range fields {
		if out, err = sjson.SetBytes(out, f.path, f.value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// EncodeRecord encodes a record as a trace line. Absent fields are
// omitted, so Decode returns an equivalent record.
func EncodeRecord(rec Record) ([]byte, error) {
	ev := rec.Event
	out := []byte("{}")
	var err error
	set := func(path string, value any) {
		if err == nil {
			out, err = sjson.SetBytes(out, path, value)
		}
	}

	set("type", browserName(ev.Type))
	n := ev.Native
	if !n.Timestamp.IsZero() {
		set("timeStamp", Millis(n.Timestamp))
	}
	if ev.Target != "" {
		set("target", ev.Target)
	}
	if ev.Source != "" {
		set("source", ev.Source)
	}

	for _, c := range []struct {
		path  string
		coord gesture.Coord
	}{
		{"pageX", n.PageX},
		{"pageY", n.PageY},
		{"clientX", n.ClientX},
		{"clientY", n.ClientY},
		{"scrollX", rec.ScrollX},
		{"scrollY", rec.ScrollY},
	} {
		if c.coord.Valid {
			set(c.path, c.coord.V)
		}
	}

	setTouches := func(path string, ts []gesture.Touch) {
		if len(ts) == 0 {
			return
		}
		set(path, []any{})
		for _, t := range ts {
			set(path+".-1", map[string]any{
				"identifier": t.ID,
				"pageX":      t.PageX,
				"pageY":      t.PageY,
			})
		}
	}
	setTouches("touches", n.Touches)
	setTouches("changedTouches", n.ChangedTouches)

	if err != nil {
		return nil, err
	}
	return out, nil
}
