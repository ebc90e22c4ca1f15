// Package viewport tracks the live scroll offsets of the page the pointer
// events are captured on.
package viewport

import "sync"

// Metrics holds the current scroll offsets.
// It is safe for concurrent use.
type Metrics struct {
	mu   sync.RWMutex
	left float64
	top  float64
}

// New creates metrics with zero offsets.
func New() *Metrics {
	return &Metrics{}
}

// ScrollLeft returns the horizontal scroll offset.
func (m *Metrics) ScrollLeft() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.left
}

// ScrollTop returns the vertical scroll offset.
func (m *Metrics) ScrollTop() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.top
}

// SetScroll replaces both offsets.
func (m *Metrics) SetScroll(left, top float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.left = left
	m.top = top
}

// ScrollBy adds to both offsets.
func (m *Metrics) ScrollBy(dx, dy float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.left += dx
	m.top += dy
}
