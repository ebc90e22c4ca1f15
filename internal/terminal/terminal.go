package terminal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/taptrack/internal/emit"
	"github.com/dshills/taptrack/internal/gesture"
)

// DefaultSource is the input source name of terminal events.
const DefaultSource = "terminal"

// RootTarget is the tree parent of every row target.
const RootTarget = "screen"

// ErrQuit is returned by a handler to end Run.
var ErrQuit = errors.New("quit")

// Terminal reads mouse input from a tcell screen.
type Terminal struct {
	mu     sync.Mutex
	screen tcell.Screen

	source  string
	touch   bool
	pressed bool
	taps    int

	statusStyle tcell.Style
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithSource sets the input source name.
func WithSource(name string) Option {
	return func(t *Terminal) {
		if name != "" {
			t.source = name
		}
	}
}

// WithTouch reports gestures as touch events instead of mouse events.
func WithTouch(enabled bool) Option {
	return func(t *Terminal) {
		t.touch = enabled
	}
}

// New wraps an existing screen. Call Init before Run.
func New(screen tcell.Screen, opts ...Option) *Terminal {
	t := &Terminal{
		screen:      screen,
		source:      DefaultSource,
		statusStyle: tcell.StyleDefault.Reverse(true),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewTerminal creates a terminal on the controlling tty.
func NewTerminal(opts ...Option) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating screen: %w", err)
	}
	return New(screen, opts...), nil
}

// Init initializes the screen and enables mouse reporting.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	t.screen.EnableMouse()
	t.screen.Clear()
	t.drawStatusLocked("tap with the left button, q or Esc to quit")
	return nil
}

// Shutdown restores the terminal.
func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Fini()
}

// Source returns the input source name.
func (t *Terminal) Source() string {
	return t.source
}

// Convert maps a mouse event to a raw pointer event. It reports false
// for input that is not part of a left-button gesture.
func (t *Terminal) Convert(ev *tcell.EventMouse) (gesture.Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	down := ev.Buttons()&tcell.Button1 != 0

	var phase gesture.Phase
	switch {
	case down && !t.pressed:
		phase = gesture.PhaseStart
		t.pressed = true
	case down:
		phase = gesture.PhaseMove
	case t.pressed:
		phase = gesture.PhaseEnd
		t.pressed = false
	default:
		return gesture.Event{}, false
	}

	x, y := ev.Position()
	out := gesture.Event{
		Type:   t.typeFor(phase),
		Target: "row:" + strconv.Itoa(y),
		Source: t.source,
		Native: gesture.Native{
			Timestamp: ev.When(),
			ClientX:   gesture.At(float64(x)),
			ClientY:   gesture.At(float64(y)),
		},
	}
	if t.touch {
		pt := []gesture.Touch{{PageX: float64(x), PageY: float64(y)}}
		if phase == gesture.PhaseEnd {
			out.Native.ChangedTouches = pt
		} else {
			out.Native.Touches = pt
		}
	}
	return out, true
}

func (t *Terminal) typeFor(p gesture.Phase) gesture.TopLevelType {
	switch {
	case p == gesture.PhaseStart && t.touch:
		return gesture.TopTouchStart
	case p == gesture.PhaseStart:
		return gesture.TopMouseDown
	case p == gesture.PhaseMove && t.touch:
		return gesture.TopTouchMove
	case p == gesture.PhaseMove:
		return gesture.TopMouseMove
	case t.touch:
		return gesture.TopTouchEnd
	default:
		return gesture.TopMouseUp
	}
}

// Run polls the screen and passes every converted event to handle until
// the user quits, ctx is done, or handle returns an error. ErrQuit from
// handle ends Run without error.
func (t *Terminal) Run(ctx context.Context, handle func(gesture.Event) error) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = t.screen.PostEvent(tcell.NewEventInterrupt(ctx.Err()))
		case <-stop:
		}
	}()

	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return nil

		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}

		case *tcell.EventResize:
			t.mu.Lock()
			t.screen.Sync()
			t.drawStatusLocked(fmt.Sprintf("%d taps", t.taps))
			t.mu.Unlock()

		case *tcell.EventKey:
			if isQuit(ev) {
				return nil
			}

		case *tcell.EventMouse:
			pe, ok := t.Convert(ev)
			if !ok {
				continue
			}
			if err := handle(pe); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				return err
			}
		}
	}
}

func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

// ShowTap draws a tap on the status line.
func (t *Terminal) ShowTap(ev *emit.TapEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.taps++
	t.drawStatusLocked(fmt.Sprintf("tap #%d on %s", t.taps, ev.Target))
}

// Taps returns the number of taps shown.
func (t *Terminal) Taps() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.taps
}

// drawStatusLocked writes msg on the last row. t.mu must be held.
func (t *Terminal) drawStatusLocked(msg string) {
	w, h := t.screen.Size()
	if h == 0 {
		return
	}
	y := h - 1
	runes := []rune(msg)
	for x := 0; x < w; x++ {
		r := ' '
		if x < len(runes) {
			r = runes[x]
		}
		t.screen.SetContent(x, y, r, nil, t.statusStyle)
	}
	t.screen.Show()
}

// StatusLine returns the text on the status line, without trailing spaces.
func (t *Terminal) StatusLine() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, h := t.screen.Size()
	if h == 0 {
		return ""
	}
	runes := make([]rune, 0, w)
	for x := 0; x < w; x++ {
		r, _, _, _ := t.screen.GetContent(x, h-1)
		runes = append(runes, r)
	}
	end := len(runes)
	for end > 0 && runes[end-1] == ' ' {
		end--
	}
	return string(runes[:end])
}
