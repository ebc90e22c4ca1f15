package gesture

import (
	"testing"
	"time"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func ms(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Millisecond)
}

func pageEvent(typ TopLevelType, x, y float64, at int) Event {
	return Event{
		Type:   typ,
		Target: "target",
		Native: Native{
			Timestamp: ms(at),
			PageX:     At(x),
			PageY:     At(y),
		},
	}
}

func touchEvent(typ TopLevelType, x, y float64, at int) Event {
	ev := Event{
		Type:   typ,
		Target: "target",
		Native: Native{Timestamp: ms(at)},
	}
	point := []Touch{{PageX: x, PageY: y}}
	if typ.Phase() == PhaseEnd {
		ev.Native.ChangedTouches = point
	} else {
		ev.Native.Touches = point
	}
	return ev
}

func TestRecognizerTapAcceptance(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	if tap := r.Handle(pageEvent(TopMouseDown, 100, 100, 0)); tap != nil {
		t.Fatalf("start produced tap %+v", tap)
	}

	end := pageEvent(TopMouseUp, 103, 104, 300)
	end.Target = "end-target"
	tap := r.Handle(end)
	if tap == nil {
		t.Fatal("expected a tap")
	}
	if tap.Target != "end-target" {
		t.Errorf("Target = %q, want %q", tap.Target, "end-target")
	}
	if tap.Kind != KindTouchTap {
		t.Errorf("Kind = %q, want %q", tap.Kind, KindTouchTap)
	}
	if !tap.Timestamp.Equal(ms(300)) {
		t.Errorf("Timestamp = %v, want %v", tap.Timestamp, ms(300))
	}
	if got := r.Snapshot().LastTap; !got.Equal(ms(300)) {
		t.Errorf("LastTap = %v, want %v", got, ms(300))
	}
	if r.Tracking() {
		t.Error("still tracking after end")
	}
}

func TestRecognizerDistanceRejection(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	r.Handle(pageEvent(TopMouseDown, 100, 100, 0))
	v, tap := r.Step(pageEvent(TopMouseUp, 130, 100, 300))
	if tap != nil {
		t.Fatalf("unexpected tap %+v", tap)
	}
	if v != VerdictReset {
		t.Errorf("verdict = %s, want reset", v)
	}

	s := r.Snapshot()
	if s.Tracking {
		t.Error("still tracking")
	}
	if s.Start != (Point{}) {
		t.Errorf("Start = %+v, want origin", s.Start)
	}
}

func TestRecognizerTimeRejection(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	r.Handle(pageEvent(TopMouseDown, 100, 100, 0))
	if tap := r.Handle(pageEvent(TopMouseUp, 101, 101, 700)); tap != nil {
		t.Fatalf("unexpected tap %+v", tap)
	}
}

func TestRecognizerThresholdsAreStrict(t *testing.T) {
	tests := []struct {
		name    string
		x, y    float64
		at      int
		wantTap bool
	}{
		{"just inside distance", 109.99, 100, 100, true},
		{"exactly at distance", 110, 100, 100, false},
		{"3-4-5 triangle", 103, 104, 100, true},
		{"6-8-10 triangle", 106, 108, 100, false},
		{"just inside time", 100, 100, 599, true},
		{"exactly at time", 100, 100, 600, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecognizer(DefaultThresholds())
			r.Handle(pageEvent(TopMouseDown, 100, 100, 0))
			tap := r.Handle(pageEvent(TopMouseUp, tt.x, tt.y, tt.at))
			if (tap != nil) != tt.wantTap {
				t.Errorf("tap = %v, want %v", tap != nil, tt.wantTap)
			}
		})
	}
}

func TestRecognizerPhantomMouseSuppression(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	r.Handle(touchEvent(TopTouchStart, 50, 50, 0))
	if tap := r.Handle(touchEvent(TopTouchEnd, 50, 50, 100)); tap == nil {
		t.Fatal("expected touch tap")
	}

	before := r.Snapshot()
	v, tap := r.Step(pageEvent(TopMouseDown, 50, 50, 400))
	if tap != nil || v != VerdictSuppressedMouse {
		t.Fatalf("verdict = %s, tap = %v, want suppressed-mouse", v, tap)
	}
	if after := r.Snapshot(); after != before {
		t.Errorf("state changed by suppressed event: %+v -> %+v", before, after)
	}

	// Past the ignore window mouse input is handled again.
	if v, _ := r.Step(pageEvent(TopMouseDown, 50, 50, 850)); v != VerdictTracking {
		t.Errorf("verdict after window = %s, want tracking", v)
	}
}

func TestRecognizerMouseWithoutPriorTouch(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	if v, _ := r.Step(pageEvent(TopMouseDown, 0, 0, 0)); v != VerdictTracking {
		t.Errorf("verdict = %s, want tracking", v)
	}
}

func TestRecognizerDebounce(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	r.Handle(touchEvent(TopTouchStart, 10, 10, 0))
	first := r.Handle(touchEvent(TopTouchEnd, 10, 10, 50))
	if first == nil {
		t.Fatal("first tap not emitted")
	}

	v, _ := r.Step(touchEvent(TopTouchStart, 10, 10, 100))
	if v != VerdictDebounced {
		t.Errorf("second start verdict = %s, want debounced", v)
	}
	v, second := r.Step(touchEvent(TopTouchEnd, 10, 10, 150))
	if second != nil {
		t.Errorf("second tap emitted: %+v", second)
	}
	if v != VerdictDebounced {
		t.Errorf("second end verdict = %s, want debounced", v)
	}

	// Debounced touches still refresh the last touch time.
	if got := r.Snapshot().LastTouch; !got.Equal(ms(150)) {
		t.Errorf("LastTouch = %v, want %v", got, ms(150))
	}

	stats := r.Stats()
	if stats.Taps != 1 || stats.Debounced != 2 {
		t.Errorf("stats = %+v, want 1 tap and 2 debounced", stats)
	}
}

func TestRecognizerTapAfterDebounceWindow(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	r.Handle(touchEvent(TopTouchStart, 10, 10, 0))
	r.Handle(touchEvent(TopTouchEnd, 10, 10, 50))
	r.Handle(touchEvent(TopTouchStart, 10, 10, 250))
	if tap := r.Handle(touchEvent(TopTouchEnd, 10, 10, 300)); tap == nil {
		t.Error("expected second tap after debounce window")
	}
}

func TestRecognizerMoveCancelsTracking(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	r.Handle(pageEvent(TopMouseDown, 0, 0, 0))
	v, _ := r.Step(pageEvent(TopMouseMove, 50, 0, 50))
	if v != VerdictCancelled {
		t.Fatalf("move verdict = %s, want cancelled", v)
	}
	if r.Tracking() {
		t.Fatal("still tracking after cancelling move")
	}

	if tap := r.Handle(pageEvent(TopMouseUp, 1, 0, 60)); tap != nil {
		t.Errorf("tap emitted after cancelled gesture: %+v", tap)
	}
}

func TestRecognizerSmallMoveKeepsTracking(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	r.Handle(pageEvent(TopMouseDown, 0, 0, 0))
	if v, _ := r.Step(pageEvent(TopMouseMove, 3, 4, 20)); v != VerdictIgnored {
		t.Errorf("move verdict = %s, want ignored", v)
	}
	if !r.Tracking() {
		t.Fatal("small move cancelled tracking")
	}
	if tap := r.Handle(pageEvent(TopMouseUp, 1, 1, 40)); tap == nil {
		t.Error("expected tap after small move")
	}
}

func TestRecognizerSlowMoveCancels(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	r.Handle(pageEvent(TopMouseDown, 0, 0, 0))
	if v, _ := r.Step(pageEvent(TopMouseMove, 0, 0, 650)); v != VerdictCancelled {
		t.Errorf("move verdict = %s, want cancelled", v)
	}
}

func TestRecognizerIdleMoveIsNoop(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	v, _ := r.Step(pageEvent(TopMouseMove, 500, 500, 10))
	if v != VerdictIgnored {
		t.Errorf("verdict = %s, want ignored", v)
	}
	if r.Snapshot() != (State{}) {
		t.Errorf("state changed: %+v", r.Snapshot())
	}
}

func TestRecognizerIdempotentReset(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	for i := 0; i < 3; i++ {
		v, tap := r.Step(pageEvent(TopMouseUp, 5, 5, 10*i))
		if tap != nil {
			t.Fatalf("end while idle produced tap %+v", tap)
		}
		if v != VerdictIgnored {
			t.Errorf("verdict = %s, want ignored", v)
		}
		if s := r.Snapshot(); s != (State{}) {
			t.Errorf("state = %+v, want initial state", s)
		}
	}
}

func TestRecognizerRestartOnSecondStart(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	r.Handle(pageEvent(TopMouseDown, 0, 0, 0))
	r.Handle(pageEvent(TopMouseDown, 200, 200, 500))

	s := r.Snapshot()
	if s.Start != (Point{X: 200, Y: 200}) || !s.StartTime.Equal(ms(500)) {
		t.Fatalf("start not replaced: %+v", s)
	}
	// Measured from the second start, so neither distance nor time fails.
	if tap := r.Handle(pageEvent(TopMouseUp, 201, 201, 900)); tap == nil {
		t.Error("expected tap relative to the restarted gesture")
	}
}

func TestRecognizerTouchCancelIsEnd(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	r.Handle(touchEvent(TopTouchStart, 10, 10, 0))
	if tap := r.Handle(touchEvent(TopTouchCancel, 10, 10, 100)); tap == nil {
		t.Error("touch cancel within bounds should complete a tap")
	}
}

func TestRecognizerMissingCoordinates(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	r.Handle(pageEvent(TopMouseDown, 10, 10, 0))
	end := Event{Type: TopMouseUp, Native: Native{Timestamp: ms(50), PageX: At(10)}}
	if tap := r.Handle(end); tap != nil {
		t.Errorf("tap emitted without y coordinate: %+v", tap)
	}

	start := Event{Type: TopMouseDown, Native: Native{Timestamp: ms(100)}}
	if v, _ := r.Step(start); v != VerdictTracking {
		t.Fatalf("verdict = %s, want tracking", v)
	}
	if tap := r.Handle(pageEvent(TopMouseUp, 0, 0, 150)); tap != nil {
		t.Errorf("tap emitted without start coordinates: %+v", tap)
	}
}

func TestRecognizerMissingTimestampUsesClock(t *testing.T) {
	now := ms(1000)
	clock := ClockFunc(func() time.Time { return now })
	r := NewRecognizer(DefaultThresholds(), WithClock(clock))

	start := pageEvent(TopMouseDown, 0, 0, 0)
	start.Native.Timestamp = time.Time{}
	r.Handle(start)
	if got := r.Snapshot().StartTime; !got.Equal(now) {
		t.Fatalf("StartTime = %v, want %v", got, now)
	}

	now = ms(1100)
	end := pageEvent(TopMouseUp, 0, 0, 0)
	end.Native.Timestamp = time.Time{}
	tap := r.Handle(end)
	if tap == nil {
		t.Fatal("expected tap")
	}
	if !tap.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", tap.Timestamp, now)
	}
}

func TestRecognizerUnknownTypeIgnored(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	v, _ := r.Step(Event{Type: TopUnknown, Native: Native{Timestamp: ms(0)}})
	if v != VerdictIgnored {
		t.Errorf("verdict = %s, want ignored", v)
	}
	if r.Snapshot() != (State{}) {
		t.Error("unknown event changed state")
	}
}

func TestRecognizerCustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.MoveThreshold = 40
	r := NewRecognizer(th)

	r.Handle(pageEvent(TopMouseDown, 100, 100, 0))
	if tap := r.Handle(pageEvent(TopMouseUp, 130, 100, 300)); tap == nil {
		t.Error("expected tap with widened threshold")
	}
	if got := r.Thresholds(); got != th {
		t.Errorf("Thresholds() = %+v, want %+v", got, th)
	}
}

func TestRecognizerReset(t *testing.T) {
	r := NewRecognizer(DefaultThresholds())

	r.Handle(touchEvent(TopTouchStart, 10, 10, 0))
	r.Handle(touchEvent(TopTouchEnd, 10, 10, 50))
	r.Reset()

	if s := r.Snapshot(); s != (State{}) {
		t.Errorf("state after Reset = %+v", s)
	}
	if s := r.Stats(); s != (Stats{}) {
		t.Errorf("stats after Reset = %+v", s)
	}
}

func TestVerdictString(t *testing.T) {
	tests := []struct {
		v    Verdict
		want string
	}{
		{VerdictIgnored, "ignored"},
		{VerdictTracking, "tracking"},
		{VerdictTap, "tap"},
		{VerdictReset, "reset"},
		{VerdictCancelled, "cancelled"},
		{VerdictSuppressedMouse, "suppressed-mouse"},
		{VerdictDebounced, "debounced"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("Verdict(%d).String() = %q, want %q", tt.v, got, tt.want)
		}
	}
	if !VerdictDebounced.Rejected() || VerdictTap.Rejected() {
		t.Error("Rejected() misclassified verdicts")
	}
}

func TestThresholdsValidate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	bad := DefaultThresholds()
	bad.TapDelay = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero tap delay")
	}

	bad = DefaultThresholds()
	bad.MoveThreshold = -1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for negative move threshold")
	}
}
