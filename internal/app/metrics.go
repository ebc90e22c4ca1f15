package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks pipeline counters and processing latency.
type Metrics struct {
	events   atomic.Uint64
	filtered atomic.Uint64
	taps     atomic.Uint64
	rejected atomic.Uint64

	malformed     atomic.Uint64
	deliveryFails atomic.Uint64

	processTotalNs atomic.Int64
	processMaxNs   atomic.Int64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordEvent records one processed event and its latency.
func (m *Metrics) RecordEvent(duration time.Duration, tap, rejected bool) {
	ns := duration.Nanoseconds()
	m.events.Add(1)
	m.processTotalNs.Add(ns)
	if tap {
		m.taps.Add(1)
	}
	if rejected {
		m.rejected.Add(1)
	}

	for {
		old := m.processMaxNs.Load()
		if ns <= old || m.processMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordFiltered records an event whose type is not a declared dependency.
func (m *Metrics) RecordFiltered() {
	m.filtered.Add(1)
}

// RecordMalformed records a trace line that could not be decoded.
func (m *Metrics) RecordMalformed() {
	m.malformed.Add(1)
}

// RecordDeliveryFailure records a tap whose delivery reported errors.
func (m *Metrics) RecordDeliveryFailure() {
	m.deliveryFails.Add(1)
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	events := m.events.Load()

	var avg int64
	if events > 0 {
		avg = m.processTotalNs.Load() / int64(events)
	}

	return MetricsSnapshot{
		Uptime:           time.Since(m.startTime),
		Events:           events,
		Filtered:         m.filtered.Load(),
		Taps:             m.taps.Load(),
		Rejected:         m.rejected.Load(),
		MalformedLines:   m.malformed.Load(),
		DeliveryFailures: m.deliveryFails.Load(),
		AvgProcessNs:     avg,
		MaxProcessNs:     m.processMaxNs.Load(),
	}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime           time.Duration
	Events           uint64
	Filtered         uint64
	Taps             uint64
	Rejected         uint64
	MalformedLines   uint64
	DeliveryFailures uint64
	AvgProcessNs     int64
	MaxProcessNs     int64
}

// TapRate returns the share of processed events that completed a tap.
func (s MetricsSnapshot) TapRate() float64 {
	if s.Events == 0 {
		return 0
	}
	return float64(s.Taps) / float64(s.Events)
}
