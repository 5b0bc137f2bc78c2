package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skein-labs/rotoscan/internal/fsutil"
	"github.com/skein-labs/rotoscan/internal/monitoring"
	"github.com/skein-labs/rotoscan/internal/samplelog"
	"github.com/skein-labs/rotoscan/internal/sensor"
	"github.com/skein-labs/rotoscan/internal/stage"
)

func testConfig(steps, scansPerStep int) Config {
	return Config{
		Steps:        steps,
		ScansPerStep: scansPerStep,
		PollInterval: time.Millisecond,
		SettleDelay:  time.Millisecond,
	}
}

func newTestStage(t *testing.T, policy stage.AckPolicy) (*stage.Controller, *stage.ScriptedPort) {
	t.Helper()
	port := stage.NewScriptedPort()
	ctl := stage.NewController(port, policy)
	ctl.CommandDelay = 0
	return ctl, port
}

func runScan(t *testing.T, cfg Config, st *stage.Controller, sn sensor.RangeSensor) ([]samplelog.Record, error) {
	t.Helper()
	fs := fsutil.NewMemory()
	log, path, err := samplelog.Create(fs, "out", "test")
	require.NoError(t, err)

	c := New(cfg, st, sn)
	runErr := c.Run(context.Background(), log)
	assert.Equal(t, Closed, c.State(), "controller must end Closed")

	records, _, readErr := samplelog.Read(fs, path)
	require.NoError(t, readErr)
	return records, runErr
}

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

func TestRunCompletesAndDeduplicates(t *testing.T) {
	// Two identical sweeps per step must yield exactly one sample per
	// angle, not two.
	sweep := make([]float64, sensor.SweepSize)
	for i := range sweep {
		sweep[i] = 1000 + float64(i)
	}
	sn := sensor.NewSim(sweep)
	st, port := newTestStage(t, stage.AckAbort)

	records, err := runScan(t, testConfig(3, 2), st, sn)
	require.NoError(t, err)

	assert.Len(t, records, 3*sensor.SweepSize)
	assert.Equal(t, "RCCCD", port.CommandLog(), "arm, one step per position, disarm")
	assert.False(t, sn.Scanning())
	assert.False(t, sn.Connected())
}

func TestRunTagsSamplesWithStepRotation(t *testing.T) {
	sweep := make([]float64, sensor.SweepSize)
	sweep[90] = 1000
	oor := sensor.SimOutOfRange
	for i := range sweep {
		if i != 90 {
			sweep[i] = float64(oor)
		}
	}
	sn := sensor.NewSim(sweep)
	st, _ := newTestStage(t, stage.AckAbort)

	cfg := testConfig(4, 1)
	records, err := runScan(t, cfg, st, sn)
	require.NoError(t, err)

	require.Len(t, records, 4, "one in-range angle per step")
	for step, rec := range records {
		assert.Equal(t, 90.0, rec.Angle)
		assert.InDelta(t, float64(step)*cfg.StepAngle(), rec.Rotation, 1e-9)
	}
	assert.InDelta(t, 45.0, cfg.StepAngle(), 1e-9)
}

func TestRunSkipsOutOfRangeReadings(t *testing.T) {
	sweep := make([]float64, sensor.SweepSize)
	for i := range sweep {
		sweep[i] = sensor.SimOutOfRange
	}
	sn := sensor.NewSim(sweep)
	st, _ := newTestStage(t, stage.AckAbort)

	records, err := runScan(t, testConfig(2, 1), st, sn)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRunRetainsDistinctOversamples(t *testing.T) {
	// Two sweeps that differ at one angle: the differing pair is a new
	// unique sample, everything else deduplicates.
	first := make([]float64, sensor.SweepSize)
	second := make([]float64, sensor.SweepSize)
	for i := range first {
		first[i] = 1000
		second[i] = 1000
	}
	second[45] = 1003

	sn := sensor.NewSim(first, second)
	st, _ := newTestStage(t, stage.AckAbort)

	records, err := runScan(t, testConfig(1, 2), st, sn)
	require.NoError(t, err)
	assert.Len(t, records, sensor.SweepSize+1)
}

// slowSensor reports unavailable for the first few polls of every sweep,
// forcing the controller through its busy-poll path.
type slowSensor struct {
	*sensor.Sim
	polls int
}

func (s *slowSensor) Available() bool {
	s.polls++
	if s.polls%3 != 0 {
		return false
	}
	return s.Sim.Available()
}

func TestRunPollsUntilSensorAvailable(t *testing.T) {
	sweep := make([]float64, sensor.SweepSize)
	for i := range sweep {
		sweep[i] = 500
	}
	sn := &slowSensor{Sim: sensor.NewSim(sweep)}
	st, _ := newTestStage(t, stage.AckAbort)

	records, err := runScan(t, testConfig(1, 1), st, sn)
	require.NoError(t, err)
	assert.Len(t, records, sensor.SweepSize)
	assert.Greater(t, sn.polls, 1, "controller polled through unavailable reads")
}

func TestRunCancellationStillCleansUp(t *testing.T) {
	sweep := make([]float64, sensor.SweepSize)
	for i := range sweep {
		sweep[i] = 750
	}
	sn := sensor.NewSim(sweep)
	st, port := newTestStage(t, stage.AckAbort)

	fs := fsutil.NewMemory()
	log, path, err := samplelog.Create(fs, "out", "cancel")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // canceled before the first step completes

	c := New(testConfig(400, 2), st, sn)
	runErr := c.Run(ctx, log)
	require.Error(t, runErr)
	assert.ErrorIs(t, runErr, ErrCanceled)

	// Cleanup contract: sensor released, stage disarmed, log closed.
	assert.Equal(t, Closed, c.State())
	assert.False(t, sn.Scanning())
	assert.False(t, sn.Connected())
	assert.Contains(t, port.CommandLog(), "D")

	// The log survives as a valid (possibly partial) session.
	_, _, readErr := samplelog.Read(fs, path)
	assert.NoError(t, readErr)
}

func TestRunAbortsOnArmFailureWithAbortPolicy(t *testing.T) {
	sweep := make([]float64, sensor.SweepSize)
	sn := sensor.NewSim(sweep)

	port := stage.NewScriptedPort()
	port.Responses[stage.CmdArm] = []string{"rc_err"}
	st := stage.NewController(port, stage.AckAbort)
	st.CommandDelay = 0

	fs := fsutil.NewMemory()
	log, _, err := samplelog.Create(fs, "out", "armfail")
	require.NoError(t, err)

	c := New(testConfig(2, 1), st, sn)
	runErr := c.Run(context.Background(), log)
	require.Error(t, runErr)
	assert.ErrorIs(t, runErr, stage.ErrAckMismatch)
	assert.Equal(t, Closed, c.State())
	assert.False(t, sn.Connected(), "sensor released even when arming fails")
}

func TestRunContinuesOnArmMismatchWithWarnPolicy(t *testing.T) {
	sweep := make([]float64, sensor.SweepSize)
	for i := range sweep {
		sweep[i] = 600
	}
	sn := sensor.NewSim(sweep)

	port := stage.NewScriptedPort()
	port.Responses[stage.CmdArm] = []string{"rc_err"}
	st := stage.NewController(port, stage.AckWarn)
	st.CommandDelay = 0

	records, err := runScan(t, testConfig(1, 1), st, sn)
	require.NoError(t, err)
	assert.Len(t, records, sensor.SweepSize)
}

func TestRunRejectsReuse(t *testing.T) {
	sweep := make([]float64, sensor.SweepSize)
	sn := sensor.NewSim(sweep)
	st, _ := newTestStage(t, stage.AckWarn)

	fs := fsutil.NewMemory()
	log, _, err := samplelog.Create(fs, "out", "reuse")
	require.NoError(t, err)

	c := New(testConfig(1, 1), st, sn)
	require.NoError(t, c.Run(context.Background(), log))

	err = c.Run(context.Background(), log)
	assert.Error(t, err, "a session is owned by exactly one run")
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 400, cfg.Steps)
	assert.Equal(t, 2, cfg.ScansPerStep)
	assert.InDelta(t, 0.45, cfg.StepAngle(), 1e-9)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "sampling", Sampling.String())
	assert.Equal(t, "closed", Closed.String())
}
