// Package sensor defines the range-sensor collaborator interface consumed by
// the scan controller. Concrete drivers (e.g. a YDLidar-class 2D unit) live
// outside this repository; the package ships a deterministic simulator for
// tests and hardware-free bring-up.
package sensor

// SweepSize is the number of integer-degree readings per half-sweep,
// covering angles 0..179.
const SweepSize = 180

// RangeSensor is the driver surface for a rotating 2D range finder. Sweeps
// are polled: Available reports whether a full sweep is ready, Data returns
// it. Distances are in sensor units (millimeters for supported hardware);
// OutOfRange is the sentinel the driver substitutes for readings beyond the
// sensor's range, and callers must exclude it before reconstruction.
type RangeSensor interface {
	// Connect establishes the driver connection.
	Connect() error

	// StartScan begins continuous sweeping.
	StartScan() error

	// StopScan halts sweeping but keeps the connection open.
	StopScan() error

	// Disconnect releases the driver connection.
	Disconnect() error

	// Available reports whether a complete sweep is ready to read.
	Available() bool

	// Data returns the most recent sweep: one distance per integer angle,
	// indexed 0..SweepSize-1. Reading consumes the sweep.
	Data() []float64

	// OutOfRange returns the sentinel distance for unusable readings.
	OutOfRange() float64
}
