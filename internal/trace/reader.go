package trace

import (
	"bytes"
	"errors"
	"io"
)

// Reader reads records from a trace stream.
type Reader struct {
	lines *lineSplitter
	line  int
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{lines: newLineSplitter(r, maxLineSize)}
}

// Next returns the next record. Blank lines and // comments are skipped.
// A line that cannot be decoded or is longer than the line limit yields
// a *LineError; reading may continue after it. Next returns io.EOF at the
// end of the stream.
func (r *Reader) Next() (Record, error) {
	for {
		raw, tooLong, err := r.lines.next()
		if err == io.EOF {
			var ok bool
			if raw, tooLong, ok = r.lines.flush(); !ok {
				return Record{}, io.EOF
			}
		} else if err != nil {
			return Record{}, err
		}

		r.line++
		if tooLong {
			return Record{}, &LineError{Line: r.line, Err: ErrLineTooLong}
		}
		line := bytes.TrimSpace(raw)
		if skipLine(line) {
			continue
		}

		rec, err := Decode(line)
		if err != nil {
			return Record{}, &LineError{Line: r.line, Err: err}
		}
		rec.Line = r.line
		return rec, nil
	}
}

// Line returns the number of lines read so far.
func (r *Reader) Line() int {
	return r.line
}

// ReadAll reads every record, calling fn for each. Malformed lines are
// passed to onError and skipped; fn's error stops reading.
func ReadAll(r io.Reader, fn func(Record) error, onError func(*LineError)) error {
	rd := NewReader(r)
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return nil
		}
		var lerr *LineError
		if errors.As(err, &lerr) {
			if onError != nil {
				onError(lerr)
			}
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

func skipLine(line []byte) bool {
	return len(line) == 0 || bytes.HasPrefix(line, []byte("//"))
}
