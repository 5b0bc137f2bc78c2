package sensor

import (
	"errors"
	"math"
	"sync"
)

// SimOutOfRange is the sentinel distance reported by the simulator, matching
// the 16-bit ceiling used by the supported hardware drivers.
const SimOutOfRange = 65535

// Sim is an in-memory RangeSensor. It serves sweeps from a queue and, when
// the queue is exhausted, either repeats the last sweep (Repeat true) or
// reports unavailability. All methods are safe for concurrent use, though
// the scan controller drives it from a single goroutine.
type Sim struct {
	mu        sync.Mutex
	sweeps    [][]float64
	next      int
	connected bool
	scanning  bool

	// Repeat keeps serving the final queued sweep forever, so a short
	// scripted scene can feed an arbitrarily long scan.
	Repeat bool
}

// NewSim creates a simulator serving the given sweeps in order. Each sweep
// must have SweepSize entries.
func NewSim(sweeps ...[]float64) *Sim {
	return &Sim{sweeps: sweeps, Repeat: true}
}

// NewSimRoom creates a simulator sweeping a synthetic rectangular room of the
// given half-width and half-depth (sensor units), with the sensor at the
// center. Useful for demo scans without hardware.
func NewSimRoom(halfWidth, halfDepth float64) *Sim {
	sweep := make([]float64, SweepSize)
	for angle := 0; angle < SweepSize; angle++ {
		rad := float64(angle) * math.Pi / 180
		// Distance to the closest wall along this bearing.
		d := math.Inf(1)
		if s := math.Abs(math.Sin(rad)); s > 1e-9 {
			d = math.Min(d, halfWidth/s)
		}
		if c := math.Abs(math.Cos(rad)); c > 1e-9 {
			d = math.Min(d, halfDepth/c)
		}
		sweep[angle] = math.Round(d)
	}
	return NewSim(sweep)
}

func (s *Sim) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return errors.New("sim sensor: already connected")
	}
	s.connected = true
	return nil
}

func (s *Sim) StartScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return errors.New("sim sensor: not connected")
	}
	s.scanning = true
	return nil
}

func (s *Sim) StopScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanning = false
	return nil
}

func (s *Sim) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *Sim) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.scanning {
		return false
	}
	if s.next < len(s.sweeps) {
		return true
	}
	return s.Repeat && len(s.sweeps) > 0
}

func (s *Sim) Data() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var src []float64
	switch {
	case s.next < len(s.sweeps):
		src = s.sweeps[s.next]
		s.next++
	case s.Repeat && len(s.sweeps) > 0:
		src = s.sweeps[len(s.sweeps)-1]
	default:
		return nil
	}

	out := make([]float64, len(src))
	copy(out, src)
	return out
}

func (s *Sim) OutOfRange() float64 { return SimOutOfRange }

// Scanning reports whether StartScan has been called without a matching
// StopScan. Test helper.
func (s *Sim) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// Connected reports whether the simulator is connected. Test helper.
func (s *Sim) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
