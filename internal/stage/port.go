// Package stage drives the motorized rotation stage that carries the 2D range
// sensor. The stage speaks a single-byte command protocol over a serial
// channel: arm, step one increment, disarm.
package stage

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// Porter is the minimal interface needed for the stage's serial channel.
// This abstraction enables unit testing without real stage hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// OpenPort opens a real serial port for the stage using the given options and
// applies the configured read timeout so acknowledgment reads never block
// forever.
func OpenPort(path string, opts PortOptions) (Porter, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	mode, err := opts.serialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
		port.Close()
		return nil, err
	}

	return port, nil
}

// DefaultReadTimeout bounds each acknowledgment read. The stage firmware
// replies within a few milliseconds; one second covers slow USB adapters.
const DefaultReadTimeout = time.Second
