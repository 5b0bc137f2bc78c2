// Package scan drives the rotation stage and range sensor in lockstep
// through a half-turn, collecting a deduplicated sample log. The loop is
// strictly single-threaded and synchronous: each step blocks on the stage
// round trip and busy-polls the sensor with a short sleep between
// availability checks.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skein-labs/rotoscan/internal/monitoring"
	"github.com/skein-labs/rotoscan/internal/samplelog"
	"github.com/skein-labs/rotoscan/internal/sensor"
	"github.com/skein-labs/rotoscan/internal/stage"
)

// HalfTurnDegrees is the stage travel of one complete scan.
const HalfTurnDegrees = 180.0

// DefaultQuality is the confidence value recorded for drivers that do not
// report per-reading quality.
const DefaultQuality = 1

// State tracks the controller through one run. Transitions are linear:
// Idle → Armed → (Rotating → Sampling → Advancing)* → Disarmed → Closed,
// and every exit path ends at Closed.
type State int

const (
	Idle State = iota
	Armed
	Rotating
	Sampling
	Advancing
	Disarmed
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Rotating:
		return "rotating"
	case Sampling:
		return "sampling"
	case Advancing:
		return "advancing"
	case Disarmed:
		return "disarmed"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config holds the per-run scan parameters.
type Config struct {
	// Steps is the number of discrete rotation positions across the half
	// turn. 400 matches a 0.45 degree stepper increment.
	Steps int

	// ScansPerStep is the oversampling count: full sweeps collected per
	// step before advancing. Repeats within a step are deduplicated.
	ScansPerStep int

	// PollInterval is the sleep between sensor availability checks.
	PollInterval time.Duration

	// SettleDelay is the pause after a step command, letting vibration die
	// down before the next sampling phase.
	SettleDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.Steps <= 0 {
		c.Steps = 400
	}
	if c.ScansPerStep <= 0 {
		c.ScansPerStep = 2
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Millisecond
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 50 * time.Millisecond
	}
	return c
}

// StepAngle returns the stage increment in degrees.
func (c Config) StepAngle() float64 {
	return HalfTurnDegrees / float64(c.Steps)
}

// Controller owns the stage and sensor for the duration of one run.
type Controller struct {
	cfg    Config
	stage  *stage.Controller
	sensor sensor.RangeSensor
	state  State
}

// New creates a controller. The stage and sensor are exclusively owned by
// the controller until Run returns.
func New(cfg Config, st *stage.Controller, sn sensor.RangeSensor) *Controller {
	return &Controller{cfg: cfg.withDefaults(), stage: st, sensor: sn}
}

// State returns the controller's current state.
func (c *Controller) State() State { return c.state }

// dedupKey identifies a reading within one rotation step. Oversampled
// repeats of the same (angle, distance) pair are discarded.
type dedupKey struct {
	angle    int
	distance float64
}

// Run executes the full scan, appending retained samples to log. Hardware
// release and log closure are guaranteed on every exit path: normal
// completion, error, and context cancellation all pass through Disarmed and
// Closed.
func (c *Controller) Run(ctx context.Context, log *samplelog.Writer) (err error) {
	if c.state != Idle {
		return fmt.Errorf("scan controller already ran (state %s)", c.state)
	}

	if err := c.sensor.Connect(); err != nil {
		c.state = Closed
		return fmt.Errorf("connect range sensor: %w", err)
	}
	if err := c.sensor.StartScan(); err != nil {
		c.sensor.Disconnect()
		c.state = Closed
		return fmt.Errorf("start range sensor: %w", err)
	}

	defer func() {
		// Unwind in the reverse of acquisition order; keep the first error.
		c.state = Disarmed
		if stopErr := c.sensor.StopScan(); stopErr != nil && err == nil {
			err = fmt.Errorf("stop range sensor: %w", stopErr)
		}
		if discErr := c.sensor.Disconnect(); discErr != nil && err == nil {
			err = fmt.Errorf("disconnect range sensor: %w", discErr)
		}
		if disarmErr := c.stage.Disarm(); disarmErr != nil && err == nil {
			err = disarmErr
		}
		if closeErr := log.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		c.state = Closed
	}()

	if err := c.stage.Arm(); err != nil {
		return err
	}
	c.state = Armed

	stepAngle := c.cfg.StepAngle()
	for step := 0; step < c.cfg.Steps; step++ {
		rotation := float64(step) * stepAngle
		c.state = Rotating
		monitoring.Logf("scan: step %d/%d rotation=%.2f°", step, c.cfg.Steps, rotation)

		c.state = Sampling
		retained, sampleErr := c.sampleStep(ctx, rotation, log)
		if sampleErr != nil {
			return sampleErr
		}
		if flushErr := log.Flush(); flushErr != nil {
			return flushErr
		}
		monitoring.Logf("scan: step %d retained %d samples", step, retained)

		c.state = Advancing
		if stepErr := c.stage.Step(); stepErr != nil {
			return stepErr
		}
		if sleepErr := sleepCtx(ctx, c.cfg.SettleDelay); sleepErr != nil {
			return sleepErr
		}
	}

	monitoring.Logf("scan: complete, %d samples over %d steps", log.Count(), c.cfg.Steps)
	return nil
}

// sampleStep collects the configured number of full sweeps for one rotation
// position, retaining each unique (angle, distance) pair once.
func (c *Controller) sampleStep(ctx context.Context, rotation float64, log *samplelog.Writer) (int, error) {
	seen := make(map[dedupKey]struct{})
	outOfRange := c.sensor.OutOfRange()

	retained := 0
	collected := 0
	for collected < c.cfg.ScansPerStep {
		select {
		case <-ctx.Done():
			return retained, fmt.Errorf("%w: %v", ErrCanceled, ctx.Err())
		default:
		}

		if !c.sensor.Available() {
			if err := sleepCtx(ctx, c.cfg.PollInterval); err != nil {
				return retained, err
			}
			continue
		}

		data := c.sensor.Data()
		for angle := 0; angle < sensor.SweepSize && angle < len(data); angle++ {
			distance := data[angle]
			if distance == outOfRange {
				continue
			}
			key := dedupKey{angle: angle, distance: distance}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			rec := samplelog.Record{
				Quality:  DefaultQuality,
				Angle:    float64(angle),
				Distance: distance,
				Rotation: rotation,
			}
			if err := log.Append(rec); err != nil {
				return retained, err
			}
			retained++
		}
		collected++
	}
	return retained, nil
}

// ErrCanceled wraps context cancellation so callers can distinguish an
// interrupted scan from a hardware failure.
var ErrCanceled = errors.New("scan canceled")

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrCanceled, ctx.Err())
	case <-timer.C:
		return nil
	}
}
