package emit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshills/taptrack/internal/event"
	"github.com/dshills/taptrack/internal/gesture"
)

func testTap(target, source string) gesture.Tap {
	return gesture.Tap{
		Kind:      gesture.KindTouchTap,
		Target:    target,
		Source:    source,
		Timestamp: time.Unix(0, 0).Add(300 * time.Millisecond),
		Native:    gesture.Event{Type: gesture.TopTouchEnd, Target: target, Source: source},
	}
}

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	tree := NewTree()
	for _, link := range [][2]string{{"toolbar", "root"}, {"button", "toolbar"}} {
		if err := tree.SetParent(link[0], link[1]); err != nil {
			t.Fatalf("SetParent(%s, %s): %v", link[0], link[1], err)
		}
	}
	return tree
}

type recorder struct {
	calls []string
}

func (r *recorder) listener(name string) ListenerFunc {
	return func(ctx context.Context, d *Dispatch) error {
		r.calls = append(r.calls, name+":"+d.Phase.String()+":"+d.CurrentTarget)
		return nil
	}
}

func TestTreePath(t *testing.T) {
	tree := newTestTree(t)

	tests := []struct {
		target string
		want   []string
	}{
		{"button", []string{"root", "toolbar", "button"}},
		{"toolbar", []string{"root", "toolbar"}},
		{"root", []string{"root"}},
		{"orphan", []string{"orphan"}},
		{"", nil},
	}

	for _, tt := range tests {
		got := tree.Path(tt.target)
		if len(got) != len(tt.want) {
			t.Errorf("Path(%q) = %v, want %v", tt.target, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Path(%q) = %v, want %v", tt.target, got, tt.want)
				break
			}
		}
	}
}

func TestTreeRejectsCycles(t *testing.T) {
	tree := newTestTree(t)

	if err := tree.SetParent("root", "button"); !errors.Is(err, ErrCycle) {
		t.Errorf("SetParent(root, button) = %v, want ErrCycle", err)
	}
	if err := tree.SetParent("button", "button"); !errors.Is(err, ErrCycle) {
		t.Errorf("SetParent(button, button) = %v, want ErrCycle", err)
	}
	if err := tree.SetParent("", "root"); !errors.Is(err, ErrEmptyTarget) {
		t.Errorf("SetParent(\"\", root) = %v, want ErrEmptyTarget", err)
	}

	tree.Remove("toolbar")
	if _, ok := tree.Parent("toolbar"); ok {
		t.Error("toolbar still has a parent after Remove")
	}
	if p, _ := tree.Parent("button"); p != "toolbar" {
		t.Errorf("button parent = %q, want toolbar", p)
	}
}

func TestEmitCaptureThenBubble(t *testing.T) {
	em := NewEmitter(newTestTree(t))
	rec := &recorder{}
	for _, target := range []string{"root", "toolbar", "button"} {
		em.Listen(target, PhaseCapture, rec.listener("c"))
		em.Listen(target, PhaseBubble, rec.listener("b"))
	}

	ev, err := em.Emit(context.Background(), testTap("button", "main"))
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	want := []string{
		"c:capture:root", "c:capture:toolbar", "c:capture:button",
		"b:bubble:button", "b:bubble:toolbar", "b:bubble:root",
	}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, rec.calls[i], want[i])
		}
	}

	if ev.ID == "" || ev.Kind != gesture.KindTouchTap || ev.Target != "button" || ev.Source != "main" {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.Native.Type != gesture.TopTouchEnd {
		t.Errorf("Native.Type = %s, want topTouchEnd", ev.Native.Type)
	}
}

func TestEmitAnyTargetListeners(t *testing.T) {
	em := NewEmitter(newTestTree(t))
	rec := &recorder{}
	em.Listen("toolbar", PhaseBubble, rec.listener("own"))
	em.Listen(AnyTarget, PhaseCapture, rec.listener("any"))
	em.Listen(AnyTarget, PhaseBubble, rec.listener("any"))

	if _, err := em.Emit(context.Background(), testTap("button", "main")); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	want := []string{
		"any:capture:root", "any:capture:toolbar", "any:capture:button",
		"any:bubble:button", "own:bubble:toolbar", "any:bubble:toolbar", "any:bubble:root",
	}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, rec.calls[i], want[i])
		}
	}
}

func TestEmitStopPropagation(t *testing.T) {
	em := NewEmitter(newTestTree(t))
	rec := &recorder{}

	em.Listen("root", PhaseCapture, rec.listener("root"))
	em.Listen("button", PhaseBubble, ListenerFunc(func(ctx context.Context, d *Dispatch) error {
		d.StopPropagation()
		return nil
	}))
	em.Listen("button", PhaseBubble, rec.listener("sibling"))
	em.Listen("toolbar", PhaseBubble, rec.listener("toolbar"))

	if _, err := em.Emit(context.Background(), testTap("button", "main")); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	want := []string{"root:capture:root", "sibling:bubble:button"}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, rec.calls[i], want[i])
		}
	}
}

func TestEmitJoinsListenerErrors(t *testing.T) {
	em := NewEmitter(newTestTree(t))
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	reached := false
	em.ListenFunc("toolbar", PhaseCapture, func(ctx context.Context, d *Dispatch) error { return errA })
	em.ListenFunc("button", PhaseBubble, func(ctx context.Context, d *Dispatch) error { return errB })
	em.ListenFunc("root", PhaseBubble, func(ctx context.Context, d *Dispatch) error {
		reached = true
		return nil
	})

	_, err := em.Emit(context.Background(), testTap("button", "main"))
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("Emit error = %v, want both listener errors", err)
	}
	var lerr *ListenerError
	if !errors.As(err, &lerr) || lerr.Target != "toolbar" || lerr.Phase != PhaseCapture {
		t.Errorf("first ListenerError = %+v", lerr)
	}
	if !reached {
		t.Error("delivery stopped at a failing listener")
	}
}

func TestEmitPublishesOnBus(t *testing.T) {
	bus := event.NewBus()
	var got []*TapEvent
	bus.Subscribe("gesture.tap.*", event.AsHandler(func(ctx context.Context, e event.Event[*TapEvent]) error {
		if e.Type != TopicFor("main") {
			t.Errorf("topic = %s", e.Type)
		}
		got = append(got, e.Payload)
		return nil
	}))

	em := NewEmitter(nil, WithBus(bus), WithIDFunc(func() string { return "tap-1" }))
	ev, err := em.Emit(context.Background(), testTap("button", "main"))
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(got) != 1 || got[0] != ev {
		t.Fatalf("bus received %v, want the emitted event", got)
	}
	if ev.ID != "tap-1" {
		t.Errorf("ID = %q, want tap-1", ev.ID)
	}
}

func TestEmitCancelledContext(t *testing.T) {
	em := NewEmitter(nil)
	called := false
	em.ListenFunc("button", PhaseBubble, func(ctx context.Context, d *Dispatch) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := em.Emit(ctx, testTap("button", "main")); !errors.Is(err, context.Canceled) {
		t.Errorf("Emit error = %v, want context.Canceled", err)
	}
	if called {
		t.Error("listener ran after cancellation")
	}
}

func TestListenValidation(t *testing.T) {
	em := NewEmitter(nil)
	if err := em.Listen("", PhaseBubble, ListenerFunc(func(context.Context, *Dispatch) error { return nil })); !errors.Is(err, ErrEmptyTarget) {
		t.Errorf("empty target error = %v", err)
	}
	if err := em.Listen("x", PhaseBubble, nil); !errors.Is(err, ErrNilListener) {
		t.Errorf("nil listener error = %v", err)
	}

	rec := &recorder{}
	em.Listen("x", PhaseBubble, rec.listener("x"))
	em.Clear("x")
	em.Emit(context.Background(), testTap("x", "main"))
	if len(rec.calls) != 0 {
		t.Errorf("cleared listener called: %v", rec.calls)
	}
}

func TestTopicFor(t *testing.T) {
	if got := TopicFor("main"); got != "gesture.tap.main" {
		t.Errorf("TopicFor(main) = %s", got)
	}
	if got := TopicFor(""); !got.Matches(TopicTap.Child("*")) {
		t.Errorf("TopicFor(\"\") = %s does not match %s.*", got, TopicTap)
	}
}
