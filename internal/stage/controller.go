package stage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skein-labs/rotoscan/internal/monitoring"
)

// Single-byte stage commands.
const (
	CmdArm    = 'R' // energize the stepper; firmware replies with AckToken
	CmdStep   = 'C' // advance one increment; reply is not validated
	CmdDisarm = 'D' // release the stepper; firmware replies with AckToken
)

// AckToken is the substring the firmware includes in a successful arm or
// disarm acknowledgment.
const AckToken = "rc_ok"

// ErrAckMismatch reports a stage response that lacked the expected token.
// Whether it aborts a run depends on the controller's AckPolicy: continuing
// after a failed arm can desynchronize physical rotation from the rotation
// values recorded in the sample log.
var ErrAckMismatch = errors.New("stage acknowledgment mismatch")

// AckPolicy selects how a missing acknowledgment token is handled.
type AckPolicy int

const (
	// AckWarn logs the mismatch and continues. This mirrors the stage
	// firmware's historical tolerance for dropped replies.
	AckWarn AckPolicy = iota
	// AckAbort fails the command on the first mismatch.
	AckAbort
	// AckRetry resends the command once, then fails if the token is still
	// missing.
	AckRetry
)

func (p AckPolicy) String() string {
	switch p {
	case AckWarn:
		return "warn"
	case AckAbort:
		return "abort"
	case AckRetry:
		return "retry"
	default:
		return fmt.Sprintf("AckPolicy(%d)", int(p))
	}
}

// ParseAckPolicy parses the flag form of an AckPolicy.
func ParseAckPolicy(s string) (AckPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warn", "":
		return AckWarn, nil
	case "abort":
		return AckAbort, nil
	case "retry":
		return AckRetry, nil
	default:
		return AckWarn, fmt.Errorf("invalid ack policy %q: supported values are warn, abort or retry", s)
	}
}

// Controller owns the stage's serial channel for the duration of one scan run
// and issues arm/step/disarm commands synchronously: each command is written,
// the reply is read with the port's timeout, and only then does control
// return to the caller.
type Controller struct {
	port   Porter
	policy AckPolicy

	// CommandDelay is the pause between writing a command and reading its
	// reply, giving the firmware time to answer. Tests set it to zero.
	CommandDelay time.Duration
}

// NewController wraps an open stage port.
func NewController(port Porter, policy AckPolicy) *Controller {
	return &Controller{
		port:         port,
		policy:       policy,
		CommandDelay: 50 * time.Millisecond,
	}
}

// Arm energizes the stepper. The firmware must acknowledge with AckToken.
func (c *Controller) Arm() error { return c.send(CmdArm, true) }

// Step advances the stage one increment. The reply is not validated.
func (c *Controller) Step() error { return c.send(CmdStep, false) }

// Disarm releases the stepper. The firmware must acknowledge with AckToken.
func (c *Controller) Disarm() error { return c.send(CmdDisarm, true) }

// Close releases the serial channel.
func (c *Controller) Close() error { return c.port.Close() }

func (c *Controller) send(cmd byte, expectAck bool) error {
	if !expectAck {
		// Step replies are not validated and the firmware may not send one;
		// draining the port here would stall every step on the read timeout.
		return c.write(cmd)
	}

	resp, err := c.exchange(cmd)
	if err != nil {
		return err
	}
	if strings.Contains(resp, AckToken) {
		return nil
	}

	switch c.policy {
	case AckRetry:
		monitoring.Logf("stage: command %q response %q missing token %q, retrying once", string(cmd), resp, AckToken)
		resp, err = c.exchange(cmd)
		if err != nil {
			return err
		}
		if strings.Contains(resp, AckToken) {
			return nil
		}
		return fmt.Errorf("%w: command %q response %q after retry", ErrAckMismatch, string(cmd), resp)
	case AckAbort:
		return fmt.Errorf("%w: command %q response %q", ErrAckMismatch, string(cmd), resp)
	default:
		monitoring.Logf("stage: command %q response %q missing token %q, continuing", string(cmd), resp, AckToken)
		return nil
	}
}

// write sends one command byte and pauses for the firmware to act on it.
func (c *Controller) write(cmd byte) error {
	if _, err := c.port.Write([]byte{cmd}); err != nil {
		return fmt.Errorf("stage write %q: %w", string(cmd), err)
	}
	if c.CommandDelay > 0 {
		time.Sleep(c.CommandDelay)
	}
	return nil
}

// exchange writes one command byte and reads the reply line.
func (c *Controller) exchange(cmd byte) (string, error) {
	if err := c.write(cmd); err != nil {
		return "", err
	}
	return c.readLine()
}

// readLine accumulates bytes until a newline, a read error, or a timeout
// (reported by the port as a zero-byte read).
func (c *Controller) readLine() (string, error) {
	var resp []byte
	buf := make([]byte, 64)
	for {
		n, err := c.port.Read(buf)
		if err != nil {
			return "", fmt.Errorf("stage read: %w", err)
		}
		if n == 0 {
			// Read timeout: return whatever arrived.
			return strings.TrimSpace(string(resp)), nil
		}
		resp = append(resp, buf[:n]...)
		if i := strings.IndexByte(string(resp), '\n'); i >= 0 {
			return strings.TrimSpace(string(resp[:i])), nil
		}
	}
}
