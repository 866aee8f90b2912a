//go:build linux

package hal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/autopeer-io/rover/internal/rover/core"
	"github.com/autopeer-io/rover/pkg/log"
)

// SysfsBoard drives GPIO and PWM through the legacy sysfs interfaces
// under /sys/class/gpio and /sys/class/pwm.
type SysfsBoard struct {
	root string
	chip int

	mu       sync.Mutex
	periods  map[int]uint64 // channel -> period ns
	maxDuty  map[int]uint32 // channel -> 2^bits - 1
	exported []string
}

var _ core.Board = (*SysfsBoard)(nil)

func newSysfsBoard(root string, chip int) (core.Board, error) {
	chipDir := filepath.Join(root, "pwm", "pwmchip"+strconv.Itoa(chip))
	if _, err := os.Stat(chipDir); err != nil {
		return nil, fmt.Errorf("pwm chip %d: %w", chip, err)
	}
	log.Info("[HAL-Sysfs] Using sysfs board", "root", root, "chip", chip)
	return &SysfsBoard{
		root:    root,
		chip:    chip,
		periods: map[int]uint64{},
		maxDuty: map[int]uint32{},
	}, nil
}

func (b *SysfsBoard) gpioDir(pin int) string {
	return filepath.Join(b.root, "gpio", "gpio"+strconv.Itoa(pin))
}

func (b *SysfsBoard) pwmDir(channel int) string {
	return filepath.Join(b.root, "pwm", "pwmchip"+strconv.Itoa(b.chip), "pwm"+strconv.Itoa(channel))
}

func (b *SysfsBoard) ConfigureOutput(pin int) error {
	dir := b.gpioDir(pin)
	if err := b.export(filepath.Join(b.root, "gpio", "export"), dir, pin); err != nil {
		return err
	}
	return writeAttr(dir, "direction", "out")
}

// ConfigurePWM exports channel and fixes its period. The pin is routed by
// the device tree; it is only logged here.
func (b *SysfsBoard) ConfigurePWM(channel, pin, freqHz, bits int) error {
	if freqHz <= 0 {
		return fmt.Errorf("invalid pwm frequency %d", freqHz)
	}
	dir := b.pwmDir(channel)
	chipDir := filepath.Dir(dir)
	if err := b.export(filepath.Join(chipDir, "export"), dir, channel); err != nil {
		return err
	}

	period := uint64(1_000_000_000 / freqHz)
	if err := writeAttr(dir, "period", strconv.FormatUint(period, 10)); err != nil {
		return err
	}
	if err := writeAttr(dir, "duty_cycle", "0"); err != nil {
		return err
	}
	if err := writeAttr(dir, "enable", "1"); err != nil {
		return err
	}

	b.mu.Lock()
	b.periods[channel] = period
	b.maxDuty[channel] = uint32(1)<<uint(bits) - 1
	b.mu.Unlock()

	log.Debug("[HAL-Sysfs] PWM configured", "channel", channel, "pin", pin, "periodNs", period)
	return nil
}

func (b *SysfsBoard) DigitalWrite(pin int, high bool) error {
	v := "0"
	if high {
		v = "1"
	}
	return writeAttr(b.gpioDir(pin), "value", v)
}

func (b *SysfsBoard) PWMWrite(channel int, duty uint32) error {
	b.mu.Lock()
	period, ok := b.periods[channel]
	top := b.maxDuty[channel]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("pwm channel %d is not configured", channel)
	}
	if duty > top {
		duty = top
	}
	ns := period * uint64(duty) / uint64(top)
	return writeAttr(b.pwmDir(channel), "duty_cycle", strconv.FormatUint(ns, 10))
}

func (b *SysfsBoard) ServoWrite(channel, angle int) error {
	b.mu.Lock()
	_, ok := b.periods[channel]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("servo channel %d is not configured", channel)
	}
	return writeAttr(b.pwmDir(channel), "duty_cycle", strconv.FormatUint(servoPulse(angle), 10))
}

// Close disables every configured PWM channel and unexports what was exported.
func (b *SysfsBoard) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for channel := range b.periods {
		if err := writeAttr(b.pwmDir(channel), "enable", "0"); err != nil {
			errs = append(errs, err)
		}
	}
	for _, unexport := range b.exported {
		dir, id := filepath.Split(unexport)
		if err := writeAttr(dir, "unexport", id); err != nil {
			errs = append(errs, err)
		}
	}
	b.exported = nil
	return errors.Join(errs...)
}

// export writes id to exportFile unless dir already exists.
func (b *SysfsBoard) export(exportFile, dir string, id int) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.WriteFile(exportFile, []byte(strconv.Itoa(id)), 0); err != nil {
		return fmt.Errorf("export %d: %w", id, err)
	}
	b.mu.Lock()
	b.exported = append(b.exported, filepath.Join(filepath.Dir(exportFile), strconv.Itoa(id)))
	b.mu.Unlock()
	return nil
}

func writeAttr(dir, name, value string) error {
	if err := os.WriteFile(filepath.Join(dir, name), []byte(value), 0); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
