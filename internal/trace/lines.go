package trace

import (
	"bufio"
	"errors"
	"io"
)

// maxLineSize bounds a single trace line, including its newline.
const maxLineSize = 1 << 20

// lineSplitter splits a stream into lines of at most max bytes. The rest
// of an oversized line is discarded and the line is reported as too long.
// An unterminated last line stays pending until more data arrives or
// flush is called.
type lineSplitter struct {
	r   *bufio.Reader
	max int

	pending []byte
	over    bool

	// consumed counts bytes read from the stream.
	consumed int64
}

func newLineSplitter(r io.Reader, max int) *lineSplitter {
	return &lineSplitter{r: bufio.NewReader(r), max: max}
}

// next returns the next complete line. It returns io.EOF, keeping any
// partial line, when the stream has no more data.
func (s *lineSplitter) next() (line []byte, tooLong bool, err error) {
	for {
		chunk, err := s.r.ReadSlice('\n')
		s.consumed += int64(len(chunk))
		if !s.over {
			s.pending = append(s.pending, chunk...)
			if len(s.pending) > s.max {
				s.pending = s.pending[:0]
				s.over = true
			}
		}

		switch {
		case err == nil:
			line, tooLong = s.take()
			return line, tooLong, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return nil, false, err
		}
	}
}

// flush returns the unterminated last line. ok is false when there is
// none.
func (s *lineSplitter) flush() (line []byte, tooLong, ok bool) {
	if len(s.pending) == 0 && !s.over {
		return nil, false, false
	}
	line, tooLong = s.take()
	return line, tooLong, true
}

func (s *lineSplitter) take() ([]byte, bool) {
	line, over := s.pending, s.over
	s.pending, s.over = nil, false
	return line, over
}

// reset restarts splitting on r, dropping any partial line.
func (s *lineSplitter) reset(r io.Reader) {
	s.r.Reset(r)
	s.pending, s.over = nil, false
	s.consumed = 0
}
