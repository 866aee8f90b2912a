package hal

import (
	"fmt"
	"sync"

	"github.com/autopeer-io/rover/internal/rover/core"
	"github.com/autopeer-io/rover/pkg/log"
)

var _ core.Board = (*MemoryBoard)(nil)

// Op names a board operation, used for recorded writes and injected failures.
type Op string

const (
	OpConfigureOutput Op = "configure_output"
	OpConfigurePWM    Op = "configure_pwm"
	OpDigitalWrite    Op = "digital_write"
	OpPWMWrite        Op = "pwm_write"
	OpServoWrite      Op = "servo_write"
)

// Write is one recorded board call.
type Write struct {
	Op      Op
	Pin     int
	Channel int
	Value   int
}

// MemoryBoard keeps pin and channel state in memory and logs every write.
// It backs development runs without hardware and the tests.
type MemoryBoard struct {
	mu sync.Mutex

	outputs  map[int]bool
	levels   map[int]bool
	channels map[int]int // channel -> pin
	duties   map[int]uint32
	angles   map[int]int
	writes   []Write
	failures map[Op]error
	closed   bool
}

func NewMemoryBoard() *MemoryBoard {
	return &MemoryBoard{
		outputs:  map[int]bool{},
		levels:   map[int]bool{},
		channels: map[int]int{},
		duties:   map[int]uint32{},
		angles:   map[int]int{},
		failures: map[Op]error{},
	}
}

// FailOn makes every subsequent op return err. A nil err clears the failure.
func (b *MemoryBoard) FailOn(op Op, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, op)
		return
	}
	b.failures[op] = err
}

func (b *MemoryBoard) ConfigureOutput(pin int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(OpConfigureOutput); err != nil {
		return err
	}
	b.outputs[pin] = true
	b.record(Write{Op: OpConfigureOutput, Pin: pin})
	return nil
}

func (b *MemoryBoard) ConfigurePWM(channel, pin, freqHz, bits int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(OpConfigurePWM); err != nil {
		return err
	}
	b.channels[channel] = pin
	b.record(Write{Op: OpConfigurePWM, Pin: pin, Channel: channel, Value: freqHz})
	log.Debug("[HAL-Memory] PWM attached", "channel", channel, "pin", pin, "freq", freqHz, "bits", bits)
	return nil
}

func (b *MemoryBoard) DigitalWrite(pin int, high bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(OpDigitalWrite); err != nil {
		return err
	}
	if !b.outputs[pin] {
		return fmt.Errorf("pin %d is not configured as output", pin)
	}
	b.levels[pin] = high
	v := 0
	if high {
		v = 1
	}
	b.record(Write{Op: OpDigitalWrite, Pin: pin, Value: v})
	return nil
}

func (b *MemoryBoard) PWMWrite(channel int, duty uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(OpPWMWrite); err != nil {
		return err
	}
	if _, ok := b.channels[channel]; !ok {
		return fmt.Errorf("pwm channel %d is not configured", channel)
	}
	b.duties[channel] = duty
	b.record(Write{Op: OpPWMWrite, Channel: channel, Value: int(duty)})
	return nil
}

func (b *MemoryBoard) ServoWrite(channel, angle int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(OpServoWrite); err != nil {
		return err
	}
	if _, ok := b.channels[channel]; !ok {
		return fmt.Errorf("servo channel %d is not configured", channel)
	}
	b.angles[channel] = angle
	b.record(Write{Op: OpServoWrite, Channel: channel, Value: angle})
	log.Debug("[HAL-Memory] Servo moved", "channel", channel, "angle", angle, "pulseNs", servoPulse(angle))
	return nil
}

func (b *MemoryBoard) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Level returns the last level written to pin.
func (b *MemoryBoard) Level(pin int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.levels[pin]
}

// Duty returns the last duty written to channel.
func (b *MemoryBoard) Duty(channel int) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.duties[channel]
}

// Angle returns the last servo angle written to channel.
func (b *MemoryBoard) Angle(channel int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.angles[channel]
}

// Writes returns a copy of every successful call in order.
func (b *MemoryBoard) Writes() []Write {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Write, len(b.writes))
	copy(out, b.writes)
	return out
}

// Reset forgets the recorded writes but keeps pin state.
func (b *MemoryBoard) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = nil
}

func (b *MemoryBoard) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *MemoryBoard) check(op Op) error {
	if b.closed {
		return fmt.Errorf("board closed")
	}
	return b.failures[op]
}

func (b *MemoryBoard) record(w Write) {
	b.writes = append(b.writes, w)
}
