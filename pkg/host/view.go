package host

import (
	"math"
	"sync"

	"github.com/robotalks/radar.go/pkg/l1/msgs"
)

// Sweep geometry.
const (
	StepDeg  = 4
	Steps    = 360 / StepDeg
	MaxRange = 400
)

// Point is a reading projected on the plane, in centimeters.
type Point struct {
	X, Y float64
}

// View is the sweep picture: one distance per step, the beam step and
// the sweep direction. It is safe for concurrent use.
type View struct {
	lock      sync.RWMutex
	distances [Steps]float64
	step      int
	direction int
}

// NewView creates an empty View sweeping forward from step 0.
func NewView() *View {
	return &View{direction: 1}
}

// Apply updates the view with a telegram and reports whether it
// changed. FWR advances the beam, a reading lands on the beam step and
// CDR flips the direction.
func (v *View) Apply(t Telegram) bool {
	v.lock.Lock()
	defer v.lock.Unlock()
	switch t.Kind {
	case Measuring:
		v.step = ((v.step+v.direction)%Steps + Steps) % Steps
	case Reading:
		v.distances[v.step] = t.Distance
	case DirectionChange:
		v.direction = -v.direction
	default:
		return false
	}
	return true
}

// Step returns the beam step.
func (v *View) Step() int {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.step
}

// Snapshot copies the view into a message.
func (v *View) Snapshot() *msgs.SweepSnapshot {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return &msgs.SweepSnapshot{
		Step:      v.step,
		Direction: v.direction,
		StepDeg:   StepDeg,
		Distances: append([]float64(nil), v.distances[:]...),
	}
}

// Points projects all steps, step n at n*StepDeg degrees.
func (v *View) Points() []Point {
	v.lock.RLock()
	defer v.lock.RUnlock()
	pts := make([]Point, Steps)
	for n, d := range v.distances {
		rad := float64(n*StepDeg) * math.Pi / 180
		pts[n] = Point{X: d * math.Cos(rad), Y: d * math.Sin(rad)}
	}
	return pts
}
