package core

// Board is the driven port between the actuator driver and the hardware.
// Pins are GPIO numbers; channels are PWM channel indices.
type Board interface {
	// ConfigureOutput prepares a GPIO pin as a digital output.
	ConfigureOutput(pin int) error

	// ConfigurePWM attaches pin to channel at the given frequency and resolution.
	ConfigurePWM(channel, pin, freqHz, bits int) error

	// DigitalWrite drives a configured output pin high or low.
	DigitalWrite(pin int, high bool) error

	// PWMWrite writes a duty value in [0, 2^bits) to a configured channel.
	PWMWrite(channel int, duty uint32) error

	// ServoWrite moves the servo attached to channel to angle degrees (0-180).
	ServoWrite(channel, angle int) error

	// Close releases the hardware.
	Close() error
}
