package intent

// Kind is the closed set of intents the rover understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindForward
	KindBackward
	KindTurnLeft
	KindTurnRight
	KindStop
	KindSetSpeed
	KindLiftUp
	KindLiftDown
)

// Descriptor documents one intent: its wire names and parameters.
type Descriptor struct {
	Kind        Kind
	Name        string
	Aliases     []string
	Params      string
	Description string
}

var descriptors = []Descriptor{
	{KindForward, "tien", []string{"forward"}, "distance=0, unit=m", "Drive forward for distance (m) or raw ms."},
	{KindBackward, "lui", []string{"backward"}, "distance=0, unit=m", "Drive backward for distance (m) or raw ms."},
	{KindTurnLeft, "re_trai", []string{"turn_left"}, "angle=0, unit=deg", "Spin left by angle (deg) or raw ms."},
	{KindTurnRight, "re_phai", []string{"turn_right"}, "angle=0, unit=deg", "Spin right by angle (deg) or raw ms."},
	{KindStop, "stop", nil, "", "Stop the motors and drop the pending action."},
	{KindSetSpeed, "set_speed", nil, "pwm=<normal speed>", "Set normal speed; turn speed follows at +60."},
	{KindLiftUp, "nang_len", []string{"lift_up"}, "", "Raise the lift."},
	{KindLiftDown, "ha_xuong", []string{"lift_down"}, "", "Lower the lift."},
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, 2*len(descriptors))
	for _, d := range descriptors {
		m[d.Name] = d.Kind
		for _, a := range d.Aliases {
			m[a] = d.Kind
		}
	}
	return m
}()

// Lookup maps a wire name to its Kind. Unrecognised names are KindUnknown.
func Lookup(name string) Kind {
	return byName[name]
}

// Descriptors returns every known intent in table order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// String returns the canonical wire name.
func (k Kind) String() string {
	for _, d := range descriptors {
		if d.Kind == k {
			return d.Name
		}
	}
	return "unknown"
}

// Timed reports whether the intent drives for a computed duration.
func (k Kind) Timed() bool {
	switch k {
	case KindForward, KindBackward, KindTurnLeft, KindTurnRight:
		return true
	}
	return false
}
