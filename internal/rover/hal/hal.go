package hal

import (
	"fmt"

	"github.com/autopeer-io/rover/internal/rover/core"
	"github.com/autopeer-io/rover/pkg/options"
)

// NewBoard opens the board selected by opts.Backend.
func NewBoard(opts *options.ActuatorOptions) (core.Board, error) {
	switch opts.Backend {
	case options.BackendMemory:
		return NewMemoryBoard(), nil
	case options.BackendSysfs:
		return newSysfsBoard(opts.SysfsRoot, opts.PWMChip)
	default:
		return nil, fmt.Errorf("unknown hal backend %q", opts.Backend)
	}
}

// Servo pulse limits in nanoseconds for 0 and 180 degrees at 50 Hz.
const (
	servoMinPulseNs = 500_000
	servoMaxPulseNs = 2_500_000
)

// servoPulse maps an angle in degrees to a pulse width in nanoseconds.
func servoPulse(angle int) uint64 {
	if angle < 0 {
		angle = 0
	}
	if angle > 180 {
		angle = 180
	}
	return servoMinPulseNs + uint64(angle)*(servoMaxPulseNs-servoMinPulseNs)/180
}
