// Command scan drives the rotation stage and range sensor through one full
// half-turn scan and writes the session's sample log under the output
// directory's CSV folder.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/skein-labs/rotoscan/internal/fsutil"
	"github.com/skein-labs/rotoscan/internal/samplelog"
	"github.com/skein-labs/rotoscan/internal/scan"
	"github.com/skein-labs/rotoscan/internal/scandb"
	"github.com/skein-labs/rotoscan/internal/sensor"
	"github.com/skein-labs/rotoscan/internal/stage"
)

var (
	stagePortPath = flag.String("stage-port", "sim", "serial port of the rotation stage, or \"sim\" for a simulated stage")
	sensorMode    = flag.String("sensor", "sim", "range sensor to use (\"sim\" only; hardware drivers implement the sensor.RangeSensor interface)")
	steps         = flag.Int("steps", 400, "rotation positions across the half turn")
	scansPerStep  = flag.Int("scans-per-step", 2, "oversampling: full sweeps collected per step")
	outDir        = flag.String("out", ".", "output directory (sample logs go to <out>/CSV)")
	dbFile        = flag.String("db", "scans.db", "scan registry database path (empty to disable)")
	ackPolicyFlag = flag.String("ack-policy", "warn", "stage acknowledgment policy: warn, abort or retry")
	notes         = flag.String("notes", "", "free-form session notes for the registry")
	roomHalfW     = flag.Float64("sim-room-width", 1500, "simulated room half-width in mm (sensor \"sim\" only)")
	roomHalfD     = flag.Float64("sim-room-depth", 2500, "simulated room half-depth in mm (sensor \"sim\" only)")
)

func main() {
	flag.Parse()

	policy, err := stage.ParseAckPolicy(*ackPolicyFlag)
	if err != nil {
		log.Fatal(err)
	}

	rangeSensor, err := openSensor()
	if err != nil {
		log.Fatal(err)
	}

	stagePort, err := openStagePort()
	if err != nil {
		log.Fatalf("open stage port: %v", err)
	}
	stageCtl := stage.NewController(stagePort, policy)
	defer stageCtl.Close()

	sessionID := fmt.Sprintf("%s_%s",
		time.Now().Format("20060102_150405"),
		strings.SplitN(uuid.New().String(), "-", 2)[0])

	fs := fsutil.OS{}
	logWriter, logPath, err := samplelog.Create(fs, *outDir, sessionID)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("session %s: writing samples to %s", sessionID, logPath)

	var registry *scandb.DB
	if *dbFile != "" {
		registry, err = scandb.Open(*dbFile)
		if err != nil {
			log.Fatal(err)
		}
		defer registry.Close()
		if err := registry.StartSession(sessionID, *steps, *scansPerStep, logPath, *notes); err != nil {
			log.Fatal(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := scan.Config{Steps: *steps, ScansPerStep: *scansPerStep}
	controller := scan.New(cfg, stageCtl, rangeSensor)

	runErr := controller.Run(ctx, logWriter)

	if registry != nil {
		if err := registry.EndSession(sessionID, logWriter.Count()); err != nil {
			log.Printf("registry: %v", err)
		}
	}

	if runErr != nil {
		log.Fatalf("scan failed after %d samples: %v", logWriter.Count(), runErr)
	}
	log.Printf("scan complete: %d samples in %s", logWriter.Count(), logPath)
}

func openStagePort() (stage.Porter, error) {
	if *stagePortPath == "sim" {
		log.Print("using simulated rotation stage")
		return stage.NewScriptedPort(), nil
	}
	return stage.OpenPort(*stagePortPath, stage.PortOptions{})
}

func openSensor() (sensor.RangeSensor, error) {
	switch *sensorMode {
	case "sim":
		log.Printf("using simulated range sensor (room %vx%v mm)", 2*(*roomHalfW), 2*(*roomHalfD))
		return sensor.NewSimRoom(*roomHalfW, *roomHalfD), nil
	default:
		return nil, fmt.Errorf("unknown sensor %q: hardware drivers implement sensor.RangeSensor and register here", *sensorMode)
	}
}
