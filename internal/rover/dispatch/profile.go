package dispatch

import (
	"math"
	"time"

	"github.com/autopeer-io/rover/pkg/options"
)

// TurnBoost is added to the normal speed to derive the turn speed.
const TurnBoost = 60

// MotionProfile holds the duties used by motion intents.
type MotionProfile struct {
	NormalSpeed uint8 `json:"normal_speed"`
	TurnSpeed   uint8 `json:"turn_speed"`
}

// ProfileForPWM clamps pwm to [0,255] and derives the turn speed from it.
func ProfileForPWM(pwm int) MotionProfile {
	pwm = clamp(pwm, 0, math.MaxUint8)
	return MotionProfile{
		NormalSpeed: uint8(pwm),
		TurnSpeed:   uint8(clamp(pwm+TurnBoost, 0, math.MaxUint8)),
	}
}

// Calibration converts physical units into drive time.
type Calibration struct {
	MsPerMeter  float64 `json:"ms_per_meter"`
	MsPerDegree float64 `json:"ms_per_degree"`
}

// CalibrationFromOptions extracts the calibration from the motion options.
func CalibrationFromOptions(o *options.MotionOptions) Calibration {
	return Calibration{MsPerMeter: o.MsPerMeter, MsPerDegree: o.MsPerDegree}
}

// ProfileFromOptions extracts the initial speeds from the motion options.
func ProfileFromOptions(o *options.MotionOptions) MotionProfile {
	return MotionProfile{
		NormalSpeed: uint8(clamp(o.NormalSpeed, 0, math.MaxUint8)),
		TurnSpeed:   uint8(clamp(o.TurnSpeed, 0, math.MaxUint8)),
	}
}

// Units that scale the numeric parameter. Anything else is raw milliseconds.
const (
	UnitMeter  = "m"
	UnitDegree = "deg"
)

// maxMillis keeps the millisecond count representable as a time.Duration.
const maxMillis = float64(math.MaxInt64 / int64(time.Millisecond))

// duration converts value into drive time. When unit equals scaledUnit the
// value is multiplied by msPer, otherwise it is taken as milliseconds.
// Fractional milliseconds are truncated.
func duration(value float64, unit, scaledUnit string, msPer float64) time.Duration {
	ms := value
	if unit == scaledUnit {
		ms = value * msPer
	}
	if ms <= 0 || math.IsNaN(ms) {
		return 0
	}
	if ms >= maxMillis {
		ms = maxMillis
	}
	return time.Duration(int64(ms)) * time.Millisecond
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
