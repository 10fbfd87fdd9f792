package scene

import "evedemo/internal/eve"

const (
	// ButtonTag is the touch tag assigned to the on/off button.
	ButtonTag = 10
	// RotateStep is the angle added per frame while the button is on, in
	// 1/65536 of a full turn.
	RotateStep = 256
)

// State is the mutable part of the demo: the button toggle, its debounce
// lock and the picture angle. It has no knowledge of the controller.
type State struct {
	Toggle bool
	// Angle wraps as an int32; the co-processor only looks at the low 16
	// bits, so the wrap is invisible on screen.
	Angle int32

	lock bool
}

// Poll feeds one REG_TOUCH_TAG reading into the debounce and reports
// whether the toggle flipped.
//
// Tag 0 releases the lock. The button tag flips the toggle only while the
// lock is released, so holding the button flips it once. Other tags leave
// both toggle and lock alone.
func (s *State) Poll(tag uint8) bool {
	switch tag {
	case 0:
		s.lock = false
	case ButtonTag:
		if !s.lock {
			s.lock = true
			s.Toggle = !s.Toggle
			return true
		}
	}
	return false
}

// Locked reports whether a press is being held.
func (s *State) Locked() bool { return s.lock }

// Advance steps the angle when the toggle is on.
func (s *State) Advance() {
	if s.Toggle {
		s.Angle += RotateStep
	}
}

// ButtonOptions selects the flat look for "on" and the 3D look for "off".
func (s *State) ButtonOptions() uint16 {
	if s.Toggle {
		return eve.OptFlat
	}
	return eve.Opt3D
}
