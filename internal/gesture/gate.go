package gesture

import (
	"math"
	"time"
)

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// withinBounds reports whether an event at cur, time now, stays within the
// move and time limits of a gesture that started at start, time began.
// Both comparisons are strict. An absent coordinate on either side fails.
func (t Thresholds) withinBounds(start Point, startOK bool, began time.Time, cur Point, curOK bool, now time.Time) bool {
	if !startOK || !curOK {
		return false
	}
	if !(start.Distance(cur) < t.MoveThreshold) {
		return false
	}
	return now.Sub(began) < t.TapMaxTime
}
