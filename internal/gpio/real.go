//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealOutput drives a GPIO line on actual hardware using the Linux GPIO
// character device. The line is requested as output, initially low: the
// valves are normally-closed and must stay closed through process start.
type RealOutput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	pin  int
}

// NewRealOutput requests the given BCM pin as an output, driven low.
func NewRealOutput(pin int) (*RealOutput, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}

	return &RealOutput{chip: chip, line: line, pin: pin}, nil
}

// Set drives the line high or low.
func (o *RealOutput) Set(high bool) error {
	v := 0
	if high {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin %d to %d: %w", o.pin, v, err)
	}
	return nil
}

// Close drives the line low and releases GPIO resources. Driving low first
// guarantees no valve is left energized across a restart.
func (o *RealOutput) Close() error {
	var errs []error

	if o.line != nil {
		if err := o.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drive pin %d low: %w", o.pin, err))
		}
		if err := o.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", o.pin, err))
		}
	}
	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
