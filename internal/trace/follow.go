package trace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/taptrack/internal/logging"
)

// ErrTraceRemoved is returned when a followed trace is removed or renamed.
var ErrTraceRemoved = errors.New("trace file removed")

// Follower reads a trace file and keeps reading as it grows.
type Follower struct {
	path    string
	logger  *logging.Logger
	onError func(*LineError)
	ready   chan struct{}
}

// FollowOption configures a Follower.
type FollowOption func(*Follower)

// WithFollowLogger sets the follower's logger.
func WithFollowLogger(l *logging.Logger) FollowOption {
	return func(f *Follower) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithLineErrors receives malformed lines, which are otherwise logged.
func WithLineErrors(fn func(*LineError)) FollowOption {
	return func(f *Follower) {
		f.onError = fn
	}
}

// NewFollower creates a follower for the trace at path.
func NewFollower(path string, opts ...FollowOption) *Follower {
	f := &Follower{
		path:   path,
		logger: logging.Null(),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.onError == nil {
		f.onError = func(e *LineError) {
			f.logger.Warn("skipping %v", e)
		}
	}
	return f
}

// Ready is closed once the existing content has been read and the file
// is being watched.
func (f *Follower) Ready() <-chan struct{} {
	return f.ready
}

// Follow calls fn for every record in the trace, then waits for appended
// lines until ctx is done. A partial last line is held until its newline
// arrives. It returns nil when ctx is cancelled.
func (f *Follower) Follow(ctx context.Context, fn func(Record) error) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("opening trace: %w", err)
	}
	defer file.Close()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Clean(f.path)); err != nil {
		return fmt.Errorf("watching %s: %w", f.path, err)
	}

	t := &tail{file: file, lines: newLineSplitter(file, maxLineSize), fn: fn, onError: f.onError}
	if err := t.drain(); err != nil {
		return err
	}
	close(f.ready)
	f.logger.Debug("following %s from line %d", f.path, t.line)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			switch {
			case ev.Has(fsnotify.Write):
				truncated, err := t.rewindIfTruncated()
				if err != nil {
					return err
				}
				if truncated {
					f.logger.Info("%s was truncated, reading from the start", f.path)
				}
				if err := t.drain(); err != nil {
					return err
				}
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				return fmt.Errorf("%w: %s", ErrTraceRemoved, f.path)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("watcher error: %v", err)
		}
	}
}

// tail decodes complete lines from a growing file.
type tail struct {
	file    *os.File
	lines   *lineSplitter
	line    int
	fn      func(Record) error
	onError func(*LineError)
}

// drain reads every complete line currently available.
func (t *tail) drain() error {
	for {
		raw, tooLong, err := t.lines.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading trace: %w", err)
		}

		t.line++
		if tooLong {
			t.onError(&LineError{Line: t.line, Err: ErrLineTooLong})
			continue
		}
		line := bytes.TrimSpace(raw)
		if skipLine(line) {
			continue
		}
		rec, derr := Decode(line)
		if derr != nil {
			t.onError(&LineError{Line: t.line, Err: derr})
			continue
		}
		rec.Line = t.line
		if err := t.fn(rec); err != nil {
			return err
		}
	}
}

// rewindIfTruncated restarts reading from the beginning when the file
// is now shorter than what has been read.
func (t *tail) rewindIfTruncated() (bool, error) {
	info, err := t.file.Stat()
	if err != nil {
		return false, fmt.Errorf("stat trace: %w", err)
	}
	if info.Size() >= t.lines.consumed {
		return false, nil
	}
	if _, err := t.file.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("rewinding trace: %w", err)
	}
	t.lines.reset(t.file)
	t.line = 0
	return true, nil
}
