package gesture

// ScrollMetrics reports the current viewport scroll offsets.
type ScrollMetrics interface {
	ScrollLeft() float64
	ScrollTop() float64
}

// TouchSelector picks the single active touch point of a payload.
type TouchSelector interface {
	SingleTouch(n *Native) (Touch, bool)
}

// TouchSelectorFunc is a function adapter for TouchSelector.
type TouchSelectorFunc func(n *Native) (Touch, bool)

// SingleTouch implements TouchSelector.
func (f TouchSelectorFunc) SingleTouch(n *Native) (Touch, bool) {
	return f(n)
}

// FirstTouch selects the first current touch, falling back to the first
// changed touch. Touch end events carry their point only in ChangedTouches.
var FirstTouch TouchSelector = TouchSelectorFunc(func(n *Native) (Touch, bool) {
	if len(n.Touches) > 0 {
		return n.Touches[0], true
	}
	if len(n.ChangedTouches) > 0 {
		return n.ChangedTouches[0], true
	}
	return Touch{}, false
})

// Axis describes where one coordinate axis lives in a payload.
type Axis struct {
	name   string
	page   func(n *Native) Coord
	client func(n *Native) Coord
	touch  func(t Touch) float64
	scroll func(m ScrollMetrics) float64
}

// String returns the axis name.
func (a Axis) String() string {
	return a.name
}

// Horizontal and vertical axes.
var (
	AxisX = Axis{
		name:   "x",
		page:   func(n *Native) Coord { return n.PageX },
		client: func(n *Native) Coord { return n.ClientX },
		touch:  func(t Touch) float64 { return t.PageX },
		scroll: func(m ScrollMetrics) float64 { return m.ScrollLeft() },
	}
	AxisY = Axis{
		name:   "y",
		page:   func(n *Native) Coord { return n.PageY },
		client: func(n *Native) Coord { return n.ClientY },
		touch:  func(t Touch) float64 { return t.PageY },
		scroll: func(m ScrollMetrics) float64 { return m.ScrollTop() },
	}
)

// extractor resolves page coordinates from raw payloads.
type extractor struct {
	touches TouchSelector
	metrics ScrollMetrics
}

// coord returns the page coordinate of n on axis a.
// A single touch point wins over the event's own fields; client
// coordinates are converted with the live scroll offset.
func (x extractor) coord(a Axis, n *Native) (float64, bool) {
	if x.touches != nil {
		if t, ok := x.touches.SingleTouch(n); ok {
			return a.touch(t), true
		}
	}
	if c := a.page(n); c.Valid {
		return c.V, true
	}
	c := a.client(n)
	if !c.Valid {
		return 0, false
	}
	if x.metrics == nil {
		return c.V, true
	}
	return c.V + a.scroll(x.metrics), true
}

// point returns both page coordinates of n. ok is false when either axis
// is absent.
func (x extractor) point(n *Native) (Point, bool) {
	px, okX := x.coord(AxisX, n)
	py, okY := x.coord(AxisY, n)
	return Point{X: px, Y: py}, okX && okY
}
