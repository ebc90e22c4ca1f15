package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dshills/taptrack/internal/emit"
	"github.com/dshills/taptrack/internal/event"
	"github.com/dshills/taptrack/internal/gesture"
	"github.com/dshills/taptrack/internal/terminal"
	"github.com/dshills/taptrack/internal/trace"
)

// Process runs one raw event through the recognizer. A completed tap is
// emitted before Process returns. Delivery failures are logged and
// counted; only a closed application or a done context is returned as
// an error.
func (app *Application) Process(ctx context.Context, ev gesture.Event) (gesture.Verdict, error) {
	return app.process(ctx, trace.Record{Event: ev})
}

// ProcessRecord applies the record's scroll offset, if any, and then
// processes its event.
func (app *Application) ProcessRecord(ctx context.Context, rec trace.Record) (gesture.Verdict, error) {
	if rec.HasScroll() {
		left, top := app.viewport.ScrollLeft(), app.viewport.ScrollTop()
		if rec.ScrollX.Valid {
			left = rec.ScrollX.V
		}
		if rec.ScrollY.Valid {
			top = rec.ScrollY.V
		}
		app.viewport.SetScroll(left, top)
	}
	return app.process(ctx, rec)
}

func (app *Application) process(ctx context.Context, rec trace.Record) (gesture.Verdict, error) {
	if app.closed.Load() {
		return gesture.VerdictIgnored, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return gesture.VerdictIgnored, err
	}
	ev := rec.Event
	if !app.accept[ev.Type] {
		app.metrics.RecordFiltered()
		app.logger.Debug("%s: dropping undeclared %s event", ev.Source, ev.Type)
		return gesture.VerdictIgnored, nil
	}

	// Resolve the time here so a recorded event replays with the time
	// the recognizer saw.
	if ev.Native.Timestamp.IsZero() {
		ev.Native.Timestamp = app.clock.Now()
	}

	if app.record != nil {
		if err := app.record.WriteRecord(app.recordFor(ev, rec)); err != nil {
			app.logger.Warn("recording event: %v", err)
		}
	}

	start := time.Now()
	verdict, tap := app.pool.Step(ev)
	app.metrics.RecordEvent(time.Since(start), tap != nil, verdict.Rejected())
	app.logger.Debug("%s %s on %q: %s", ev.Source, ev.Type, ev.Target, verdict)

	if tap == nil {
		return verdict, nil
	}

	tev, err := app.emitter.Emit(ctx, *tap)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return verdict, ctxErr
		}
		app.metrics.RecordDeliveryFailure()
		app.logger.Warn("delivering tap %s on %q: %v", tev.ID, tev.Target, err)
	}
	return verdict, nil
}

// recordFor builds the trace record for an accepted event. The live
// scroll offset is written whenever it is set, since filtered records
// may have moved it.
func (app *Application) recordFor(ev gesture.Event, rec trace.Record) trace.Record {
	out := trace.Record{Event: ev}
	left, top := app.viewport.ScrollLeft(), app.viewport.ScrollTop()
	if rec.HasScroll() || left != 0 || top != 0 {
		out.ScrollX = gesture.At(left)
		out.ScrollY = gesture.At(top)
	}
	return out
}

// Replay processes every event of a trace. Malformed lines are logged
// and skipped.
func (app *Application) Replay(ctx context.Context, r io.Reader) error {
	err := trace.ReadAll(r, func(rec trace.Record) error {
		_, err := app.ProcessRecord(ctx, rec)
		return err
	}, app.lineError)
	if err != nil {
		return NewOperationError("replay", "", err)
	}
	return nil
}

// Follow processes a trace file and keeps processing lines appended to
// it until ctx is done.
func (app *Application) Follow(ctx context.Context, path string) error {
	f := trace.NewFollower(path,
		trace.WithFollowLogger(app.logger.WithComponent("follow")),
		trace.WithLineErrors(app.lineError),
	)
	err := f.Follow(ctx, func(rec trace.Record) error {
		_, err := app.ProcessRecord(ctx, rec)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if err != nil {
		return NewOperationError("follow", path, err)
	}
	return nil
}

// RunTerminal processes mouse input from term until the user quits or
// ctx is done. Taps from the terminal are shown on its status line.
func (app *Application) RunTerminal(ctx context.Context, term *terminal.Terminal) error {
	sub, err := app.bus.Subscribe(emit.TopicFor(term.Source()),
		event.AsHandler(func(ctx context.Context, e event.Event[*emit.TapEvent]) error {
			term.ShowTap(e.Payload)
			return nil
		}))
	if err != nil {
		return NewOperationError("terminal", term.Source(), err)
	}
	defer func() { _ = app.bus.Unsubscribe(sub) }()

	tree := app.emitter.Tree()
	err = term.Run(ctx, func(ev gesture.Event) error {
		if _, ok := tree.Parent(ev.Target); !ok && ev.Target != terminal.RootTarget {
			if err := tree.SetParent(ev.Target, terminal.RootTarget); err != nil {
				return err
			}
		}
		_, err := app.Process(ctx, ev)
		if errors.Is(err, context.Canceled) {
			return terminal.ErrQuit
		}
		return err
	})
	if err != nil {
		return NewOperationError("terminal", term.Source(), err)
	}
	return nil
}

func (app *Application) lineError(err *trace.LineError) {
	app.metrics.RecordMalformed()
	app.logger.Warn("skipping trace line: %v", err)
}
