package gesture

import "time"

// arbiter decides whether an event of one device kind is admitted to the
// state machine. It may record device history in s.
type arbiter func(s *State, t Thresholds, now time.Time) Verdict

// arbitration is indexed by Device.
var arbitration = [...]arbiter{
	DeviceMouse: arbitrateMouse,
	DeviceTouch: arbitrateTouch,
}

// arbitrateTouch records the touch and debounces it against the last tap.
func arbitrateTouch(s *State, t Thresholds, now time.Time) Verdict {
	s.LastTouch = now
	if !s.LastTap.IsZero() && now.Sub(s.LastTap) < t.TapDelay {
		return VerdictDebounced
	}
	return verdictAdmitted
}

// arbitrateMouse drops the compatibility mouse events a touch device fires
// after a touch sequence.
func arbitrateMouse(s *State, t Thresholds, now time.Time) Verdict {
	if !s.LastTouch.IsZero() && now.Sub(s.LastTouch) < t.IgnoreMouse {
		return VerdictSuppressedMouse
	}
	return verdictAdmitted
}

func arbitrate(d Device, s *State, t Thresholds, now time.Time) Verdict {
	if int(d) >= len(arbitration) {
		return verdictAdmitted
	}
	return arbitration[d](s, t, now)
}
