//go:build !linux

package hal

import (
	"errors"

	"github.com/autopeer-io/rover/internal/rover/core"
)

func newSysfsBoard(root string, chip int) (core.Board, error) {
	return nil, errors.New("sysfs backend is only available on linux")
}
