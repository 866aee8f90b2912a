package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ActuatorOptions)(nil)

const (
	BackendMemory = "memory"
	BackendSysfs  = "sysfs"
)

// ActuatorOptions describes the L298N wiring and the HAL backend driving it.
type ActuatorOptions struct {
	// Backend selects the HAL: "memory" logs and records, "sysfs" drives
	// /sys/class/gpio and /sys/class/pwm.
	Backend   string `json:"backend" mapstructure:"backend"`
	SysfsRoot string `json:"sysfs-root" mapstructure:"sysfs-root"`
	PWMChip   int    `json:"pwm-chip" mapstructure:"pwm-chip"`

	// Enable pins carry PWM for side A and side B.
	ENA int `json:"ena" mapstructure:"ena"`
	ENB int `json:"enb" mapstructure:"enb"`

	// Direction pins of the H-bridge.
	IN1 int `json:"in1" mapstructure:"in1"`
	IN2 int `json:"in2" mapstructure:"in2"`
	IN3 int `json:"in3" mapstructure:"in3"`
	IN4 int `json:"in4" mapstructure:"in4"`

	ChannelA     int `json:"channel-a" mapstructure:"channel-a"`
	ChannelB     int `json:"channel-b" mapstructure:"channel-b"`
	PWMFrequency int `json:"pwm-frequency" mapstructure:"pwm-frequency"`
	PWMBits      int `json:"pwm-bits" mapstructure:"pwm-bits"`

	// BootDuty is written to both channels before the motors are idled.
	BootDuty int `json:"boot-duty" mapstructure:"boot-duty"`

	ServoPin      int `json:"servo-pin" mapstructure:"servo-pin"`
	ServoChannel  int `json:"servo-channel" mapstructure:"servo-channel"`
	LiftUpAngle   int `json:"lift-up-angle" mapstructure:"lift-up-angle"`
	LiftDownAngle int `json:"lift-down-angle" mapstructure:"lift-down-angle"`
}

func NewActuatorOptions() *ActuatorOptions {
	return &ActuatorOptions{
		Backend:       BackendMemory,
		SysfsRoot:     "/sys/class",
		PWMChip:       0,
		ENA:           5,
		ENB:           23,
		IN1:           22,
		IN2:           21,
		IN3:           19,
		IN4:           18,
		ChannelA:      4,
		ChannelB:      5,
		PWMFrequency:  1000,
		PWMBits:       8,
		BootDuty:      120,
		ServoPin:      17,
		ServoChannel:  6,
		LiftUpAngle:   90,
		LiftDownAngle: 0,
	}
}

func (o *ActuatorOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	switch o.Backend {
	case BackendMemory, BackendSysfs:
	default:
		errs = append(errs, fmt.Errorf("actuator.backend must be %q or %q, got %q", BackendMemory, BackendSysfs, o.Backend))
	}
	if o.PWMFrequency <= 0 {
		errs = append(errs, fmt.Errorf("actuator.pwm-frequency must be positive"))
	}
	if o.PWMBits < 1 || o.PWMBits > 16 {
		errs = append(errs, fmt.Errorf("actuator.pwm-bits %d out of range [1,16]", o.PWMBits))
	}
	if o.BootDuty < 0 || o.BootDuty > 255 {
		errs = append(errs, fmt.Errorf("actuator.boot-duty %d out of range [0,255]", o.BootDuty))
	}
	for name, angle := range map[string]int{"lift-up-angle": o.LiftUpAngle, "lift-down-angle": o.LiftDownAngle} {
		if angle < 0 || angle > 180 {
			errs = append(errs, fmt.Errorf("actuator.%s %d out of range [0,180]", name, angle))
		}
	}
	if o.ChannelA == o.ChannelB {
		errs = append(errs, fmt.Errorf("actuator.channel-a and actuator.channel-b must differ"))
	}

	return errs
}

func (o *ActuatorOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Backend, "actuator.backend", o.Backend, "HAL backend: 'memory' or 'sysfs'.")
	fs.StringVar(&o.SysfsRoot, "actuator.sysfs-root", o.SysfsRoot, "Root of the gpio and pwm sysfs classes.")
	fs.IntVar(&o.PWMChip, "actuator.pwm-chip", o.PWMChip, "PWM chip index used by the sysfs backend.")

	fs.IntVar(&o.ENA, "actuator.ena", o.ENA, "Enable (PWM) pin of side A.")
	fs.IntVar(&o.ENB, "actuator.enb", o.ENB, "Enable (PWM) pin of side B.")
	fs.IntVar(&o.IN1, "actuator.in1", o.IN1, "H-bridge direction pin IN1.")
	fs.IntVar(&o.IN2, "actuator.in2", o.IN2, "H-bridge direction pin IN2.")
	fs.IntVar(&o.IN3, "actuator.in3", o.IN3, "H-bridge direction pin IN3.")
	fs.IntVar(&o.IN4, "actuator.in4", o.IN4, "H-bridge direction pin IN4.")

	fs.IntVar(&o.ChannelA, "actuator.channel-a", o.ChannelA, "PWM channel of side A.")
	fs.IntVar(&o.ChannelB, "actuator.channel-b", o.ChannelB, "PWM channel of side B.")
	fs.IntVar(&o.PWMFrequency, "actuator.pwm-frequency", o.PWMFrequency, "Motor PWM frequency in Hz.")
	fs.IntVar(&o.PWMBits, "actuator.pwm-bits", o.PWMBits, "Motor PWM resolution in bits.")
	fs.IntVar(&o.BootDuty, "actuator.boot-duty", o.BootDuty, "Duty written to both channels at boot, before idling.")

	fs.IntVar(&o.ServoPin, "actuator.servo-pin", o.ServoPin, "Lift servo signal pin.")
	fs.IntVar(&o.ServoChannel, "actuator.servo-channel", o.ServoChannel, "PWM channel of the lift servo.")
	fs.IntVar(&o.LiftUpAngle, "actuator.lift-up-angle", o.LiftUpAngle, "Servo angle in degrees for the raised lift.")
	fs.IntVar(&o.LiftDownAngle, "actuator.lift-down-angle", o.LiftDownAngle, "Servo angle in degrees for the lowered lift.")
}
