package options

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*MotionOptions)(nil)

// MotionOptions holds the open-loop calibration and speed defaults.
// There are no encoders: MsPerMeter and MsPerDegree are measured by hand
// for each chassis at the default speeds.
type MotionOptions struct {
	MsPerMeter  float64 `json:"ms-per-meter" mapstructure:"ms-per-meter"`
	MsPerDegree float64 `json:"ms-per-degree" mapstructure:"ms-per-degree"`

	NormalSpeed int `json:"normal-speed" mapstructure:"normal-speed"`
	TurnSpeed   int `json:"turn-speed" mapstructure:"turn-speed"`

	// LoopInterval is the period of the control loop that pumps the link
	// and checks the action deadline.
	LoopInterval time.Duration `json:"loop-interval" mapstructure:"loop-interval"`

	// InboundQueue bounds the number of undispatched commands.
	InboundQueue int `json:"inbound-queue" mapstructure:"inbound-queue"`
}

func NewMotionOptions() *MotionOptions {
	return &MotionOptions{
		MsPerMeter:   1000,
		MsPerDegree:  8,
		NormalSpeed:  120,
		TurnSpeed:    180,
		LoopInterval: 10 * time.Millisecond,
		InboundQueue: 64,
	}
}

func (o *MotionOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.MsPerMeter <= 0 {
		errs = append(errs, errors.New("motion.ms-per-meter must be positive"))
	}
	if o.MsPerDegree <= 0 {
		errs = append(errs, errors.New("motion.ms-per-degree must be positive"))
	}
	if o.NormalSpeed < 0 || o.NormalSpeed > 255 {
		errs = append(errs, fmt.Errorf("motion.normal-speed %d out of range [0,255]", o.NormalSpeed))
	}
	if o.TurnSpeed < 0 || o.TurnSpeed > 255 {
		errs = append(errs, fmt.Errorf("motion.turn-speed %d out of range [0,255]", o.TurnSpeed))
	}
	if o.LoopInterval <= 0 {
		errs = append(errs, errors.New("motion.loop-interval must be positive"))
	}
	if o.InboundQueue <= 0 {
		errs = append(errs, errors.New("motion.inbound-queue must be positive"))
	}

	return errs
}

func (o *MotionOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.Float64Var(&o.MsPerMeter, "motion.ms-per-meter", o.MsPerMeter, "Drive time in milliseconds per meter at normal speed.")
	fs.Float64Var(&o.MsPerDegree, "motion.ms-per-degree", o.MsPerDegree, "Turn time in milliseconds per degree at turn speed.")
	fs.IntVar(&o.NormalSpeed, "motion.normal-speed", o.NormalSpeed, "Initial PWM duty (0-255) for driving straight.")
	fs.IntVar(&o.TurnSpeed, "motion.turn-speed", o.TurnSpeed, "Initial PWM duty (0-255) for turning.")
	fs.DurationVar(&o.LoopInterval, "motion.loop-interval", o.LoopInterval, "Control loop period.")
	fs.IntVar(&o.InboundQueue, "motion.inbound-queue", o.InboundQueue, "Maximum number of queued, undispatched commands.")
}
