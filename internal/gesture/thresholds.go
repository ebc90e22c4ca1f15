package gesture

import (
	"errors"
	"fmt"
	"time"
)

// Default thresholds.
const (
	DefaultMoveThreshold = 10.0
	DefaultIgnoreMouse   = 750 * time.Millisecond
	DefaultTapDelay      = 200 * time.Millisecond
	DefaultTapMaxTime    = 600 * time.Millisecond
)

// ErrInvalidThreshold is returned by Thresholds.Validate.
var ErrInvalidThreshold = errors.New("invalid threshold")

// Thresholds configures tap recognition.
type Thresholds struct {
	// MoveThreshold is the maximum pointer drift in pixels between start
	// and end of a tap.
	MoveThreshold float64

	// IgnoreMouse is how long mouse events are suppressed after a touch.
	IgnoreMouse time.Duration

	// TapDelay is the minimum time between accepted taps on touch devices.
	TapDelay time.Duration

	// TapMaxTime is the maximum duration of a tap gesture.
	TapMaxTime time.Duration
}

// DefaultThresholds returns the standard browser tap thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MoveThreshold: DefaultMoveThreshold,
		IgnoreMouse:   DefaultIgnoreMouse,
		TapDelay:      DefaultTapDelay,
		TapMaxTime:    DefaultTapMaxTime,
	}
}

// Validate checks that every threshold is positive.
func (t Thresholds) Validate() error {
	switch {
	case !(t.MoveThreshold > 0):
		return fmt.Errorf("%w: move threshold %v", ErrInvalidThreshold, t.MoveThreshold)
	case t.IgnoreMouse <= 0:
		return fmt.Errorf("%w: ignore mouse %v", ErrInvalidThreshold, t.IgnoreMouse)
	case t.TapDelay <= 0:
		return fmt.Errorf("%w: tap delay %v", ErrInvalidThreshold, t.TapDelay)
	case t.TapMaxTime <= 0:
		return fmt.Errorf("%w: tap max time %v", ErrInvalidThreshold, t.TapMaxTime)
	}
	return nil
}
