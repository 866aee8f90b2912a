//go:build linux

package hal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeSysfs lays out an exported gpio pin and pwm channels under a temp dir.
func fakeSysfs(t *testing.T, pins []string, channels []string) string {
	t.Helper()
	root := t.TempDir()
	for _, p := range pins {
		mustMkdir(t, filepath.Join(root, "gpio", "gpio"+p))
	}
	chip := filepath.Join(root, "pwm", "pwmchip0")
	mustMkdir(t, chip)
	for _, c := range channels {
		mustMkdir(t, filepath.Join(chip, "pwm"+c))
	}
	return root
}

func mustMkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
}

func readAttr(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.TrimSpace(string(data))
}

func TestSysfsBoardWrites(t *testing.T) {
	root := fakeSysfs(t, []string{"22"}, []string{"4", "6"})

	board, err := newSysfsBoard(root, 0)
	if err != nil {
		t.Fatalf("newSysfsBoard() error = %v", err)
	}

	if err := board.ConfigureOutput(22); err != nil {
		t.Fatal(err)
	}
	if err := board.DigitalWrite(22, true); err != nil {
		t.Fatal(err)
	}
	if got := readAttr(t, filepath.Join(root, "gpio", "gpio22", "direction")); got != "out" {
		t.Errorf("direction = %q", got)
	}
	if got := readAttr(t, filepath.Join(root, "gpio", "gpio22", "value")); got != "1" {
		t.Errorf("value = %q", got)
	}

	if err := board.ConfigurePWM(4, 5, 1000, 8); err != nil {
		t.Fatal(err)
	}
	pwm4 := filepath.Join(root, "pwm", "pwmchip0", "pwm4")
	if got := readAttr(t, filepath.Join(pwm4, "period")); got != "1000000" {
		t.Errorf("period = %q", got)
	}
	if err := board.PWMWrite(4, 255); err != nil {
		t.Fatal(err)
	}
	if got := readAttr(t, filepath.Join(pwm4, "duty_cycle")); got != "1000000" {
		t.Errorf("duty_cycle = %q, want full period", got)
	}

	if err := board.ConfigurePWM(6, 17, 50, 16); err != nil {
		t.Fatal(err)
	}
	if err := board.ServoWrite(6, 90); err != nil {
		t.Fatal(err)
	}
	if got := readAttr(t, filepath.Join(root, "pwm", "pwmchip0", "pwm6", "duty_cycle")); got != "1500000" {
		t.Errorf("servo duty_cycle = %q", got)
	}

	if err := board.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := readAttr(t, filepath.Join(pwm4, "enable")); got != "0" {
		t.Errorf("enable after close = %q", got)
	}
}

func TestSysfsBoardMissingChip(t *testing.T) {
	if _, err := newSysfsBoard(t.TempDir(), 3); err == nil {
		t.Fatal("expected error for missing pwm chip")
	}
}

func TestSysfsBoardRejectsUnconfiguredChannel(t *testing.T) {
	root := fakeSysfs(t, nil, nil)
	board, err := newSysfsBoard(root, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := board.PWMWrite(1, 10); err == nil {
		t.Error("expected error for unconfigured channel")
	}
}
