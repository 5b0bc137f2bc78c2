package stage

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// PortOptions describes the serial connection parameters used when opening a
// real stage port. The zero value normalizes to the stage firmware defaults
// (115200 8N1 with a one second read timeout).
type PortOptions struct {
	BaudRate    int           `json:"baud_rate"`
	DataBits    int           `json:"data_bits"`
	StopBits    int           `json:"stop_bits"`
	Parity      string        `json:"parity"`
	ReadTimeout time.Duration `json:"read_timeout"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 115200
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	switch parity {
	case "", "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("invalid parity %q: supported values are N, E or O", o.Parity)
	}
	opts.Parity = parity

	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}

	return opts, nil
}

// serialMode translates normalized options into a go.bug.st/serial mode.
func (o PortOptions) serialMode() (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: o.BaudRate,
		DataBits: o.DataBits,
	}

	switch o.StopBits {
	case 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("invalid stop bits %d", o.StopBits)
	}

	switch o.Parity {
	case "N":
		mode.Parity = serial.NoParity
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("invalid parity %q", o.Parity)
	}

	return mode, nil
}
