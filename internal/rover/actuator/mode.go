package actuator

// Mode is the last commanded discrete actuator mode.
type Mode int

const (
	Idle Mode = iota
	Forward
	Backward
	Left
	Right
	Stopped
)

var modeNames = [...]string{
	Idle:     "idle",
	Forward:  "forward",
	Backward: "backward",
	Left:     "left",
	Right:    "right",
	Stopped:  "stopped",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// InMotion reports whether the mode drives the wheels.
func (m Mode) InMotion() bool {
	switch m {
	case Forward, Backward, Left, Right:
		return true
	}
	return false
}

// IsTurn reports whether the mode spins the chassis in place.
func (m Mode) IsTurn() bool {
	return m == Left || m == Right
}

// ModeNames lists every mode label, in declaration order.
func ModeNames() []string {
	return modeNames[:]
}

// LiftPosition is one of the two lift extremes.
type LiftPosition int

const (
	LiftDown LiftPosition = iota
	LiftUp
)

func (p LiftPosition) String() string {
	if p == LiftUp {
		return "up"
	}
	return "down"
}

// direction holds the IN1..IN4 levels of the H-bridge for one mode.
type direction [4]bool

const (
	lo = false
	hi = true
)

var directions = map[Mode]direction{
	Idle:     {lo, lo, lo, lo},
	Forward:  {lo, hi, lo, hi},
	Backward: {hi, lo, hi, lo},
	Left:     {hi, lo, lo, hi},
	Right:    {lo, hi, hi, lo},
}
