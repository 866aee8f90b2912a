package actuator

import (
	"github.com/autopeer-io/rover/internal/pkg/metrics"
	"github.com/autopeer-io/rover/internal/rover/core"
	"github.com/autopeer-io/rover/pkg/log"
	"github.com/autopeer-io/rover/pkg/options"
)

// Wiring describes how the H-bridge and the lift servo are connected.
type Wiring struct {
	ENA, ENB           int
	IN1, IN2, IN3, IN4 int

	ChannelA, ChannelB int
	FrequencyHz        int
	Bits               int

	ServoPin      int
	ServoChannel  int
	LiftUpAngle   int
	LiftDownAngle int
}

// servoFrequencyHz is the standard hobby servo frame rate.
const servoFrequencyHz = 50

// WiringFromOptions copies the pin map out of the actuator options.
func WiringFromOptions(o *options.ActuatorOptions) Wiring {
	return Wiring{
		ENA:           o.ENA,
		ENB:           o.ENB,
		IN1:           o.IN1,
		IN2:           o.IN2,
		IN3:           o.IN3,
		IN4:           o.IN4,
		ChannelA:      o.ChannelA,
		ChannelB:      o.ChannelB,
		FrequencyHz:   o.PWMFrequency,
		Bits:          o.PWMBits,
		ServoPin:      o.ServoPin,
		ServoChannel:  o.ServoChannel,
		LiftUpAngle:   o.LiftUpAngle,
		LiftDownAngle: o.LiftDownAngle,
	}
}

// Controller owns the actuator state and is the only writer to the board.
// It is not safe for concurrent use; the control loop owns it.
type Controller struct {
	board  core.Board
	wiring Wiring
	logger log.Logger

	mode Mode
	duty uint8
	lift LiftPosition
}

func NewController(board core.Board, wiring Wiring) *Controller {
	return &Controller{
		board:  board,
		wiring: wiring,
		logger: log.WithName("actuator"),
		mode:   Idle,
	}
}

// Setup configures the pins, writes bootDuty to both channels and then idles.
// Unlike the motion calls it returns configuration errors, since a board
// that cannot be configured is fatal at startup.
func (c *Controller) Setup(bootDuty uint8) error {
	w := c.wiring
	for _, pin := range []int{w.IN1, w.IN2, w.IN3, w.IN4} {
		if err := c.board.ConfigureOutput(pin); err != nil {
			return err
		}
	}
	c.logger.Info("Motor pins set as output")

	if err := c.board.ConfigurePWM(w.ChannelA, w.ENA, w.FrequencyHz, w.Bits); err != nil {
		return err
	}
	if err := c.board.ConfigurePWM(w.ChannelB, w.ENB, w.FrequencyHz, w.Bits); err != nil {
		return err
	}
	c.writeDuty(bootDuty)
	c.logger.Info("PWM configured", "freq", w.FrequencyHz, "bits", w.Bits, "init", bootDuty)

	if err := c.board.ConfigurePWM(w.ServoChannel, w.ServoPin, servoFrequencyHz, 16); err != nil {
		return err
	}
	c.SetLift(LiftDown)

	c.SetMotion(Idle, 0)
	return nil
}

// SetMotion writes the direction pins for mode and duty to both channels.
// Idle forces duty 0; Stopped is the same as Stop.
func (c *Controller) SetMotion(mode Mode, duty uint8) {
	if mode == Stopped {
		c.Stop()
		return
	}
	dir, ok := directions[mode]
	if !ok {
		c.logger.Warn("Ignoring unknown motor mode", "mode", int(mode))
		return
	}
	if mode == Idle {
		duty = 0
	}

	c.writeDuty(duty)
	w := c.wiring
	for i, pin := range [4]int{w.IN1, w.IN2, w.IN3, w.IN4} {
		if err := c.board.DigitalWrite(pin, dir[i]); err != nil {
			c.halError("digital_write", err, "pin", pin)
		}
	}

	c.setMode(mode, duty)
	if mode == Idle {
		c.logger.Info("Motor idle")
		return
	}
	c.logger.Info("Motor", "mode", mode.String(), "duty", duty)
}

// Stop cuts the duty on both channels. Direction pins keep their last level.
func (c *Controller) Stop() {
	c.writeDuty(0)
	c.setMode(Stopped, 0)
	c.logger.Info("Motor stop")
}

// Reapply rewrites duty for the current motion mode without touching the
// direction pins. It is a no-op when not in motion.
func (c *Controller) Reapply(duty uint8) {
	if !c.mode.InMotion() {
		return
	}
	c.writeDuty(duty)
	c.duty = duty
	c.logger.Info("Motor duty reapplied", "mode", c.mode.String(), "duty", duty)
}

// SetLift drives the lift servo to the configured angle for pos.
func (c *Controller) SetLift(pos LiftPosition) {
	angle := c.wiring.LiftDownAngle
	if pos == LiftUp {
		angle = c.wiring.LiftUpAngle
	}
	if err := c.board.ServoWrite(c.wiring.ServoChannel, angle); err != nil {
		c.halError("servo_write", err, "channel", c.wiring.ServoChannel)
	}
	c.lift = pos
	c.logger.Info("Lift", "position", pos.String(), "angle", angle)
}

func (c *Controller) Mode() Mode { return c.mode }

func (c *Controller) InMotion() bool { return c.mode.InMotion() }

func (c *Controller) Duty() uint8 { return c.duty }

func (c *Controller) Lift() LiftPosition { return c.lift }

// Close idles the motors and releases the board.
func (c *Controller) Close() error {
	c.SetMotion(Idle, 0)
	return c.board.Close()
}

func (c *Controller) writeDuty(duty uint8) {
	v := scaleDuty(duty, c.wiring.Bits)
	for _, ch := range [2]int{c.wiring.ChannelA, c.wiring.ChannelB} {
		if err := c.board.PWMWrite(ch, v); err != nil {
			c.halError("pwm_write", err, "channel", ch)
		}
	}
}

func (c *Controller) setMode(mode Mode, duty uint8) {
	c.mode = mode
	c.duty = duty
	metrics.SetActuatorMode(mode.String(), ModeNames())
}

func (c *Controller) halError(op string, err error, kv ...any) {
	metrics.HALErrorsTotal.WithLabelValues(op).Inc()
	c.logger.Error(err, "Hardware write failed", append([]any{"op", op}, kv...)...)
}

// scaleDuty maps an 8-bit duty onto a channel of the given resolution.
func scaleDuty(duty uint8, bits int) uint32 {
	if bits == 8 || bits <= 0 {
		return uint32(duty)
	}
	top := uint32(1)<<uint(bits) - 1
	return uint32(duty) * top / 255
}
