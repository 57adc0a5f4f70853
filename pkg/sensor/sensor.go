// Package sensor measures distance with an HC-SR04 style ultrasonic
// ranging module: a trigger pulse starts a sonic burst and the width of
// the echo pulse is the round-trip time of flight.
package sensor

import (
	"fmt"
	"time"

	"github.com/golang/glog"
)

// Distance is a range reading in centimeters. Zero means there was no
// valid reading.
type Distance float64

// Operating envelope of the module.
const (
	MinValid Distance = 2
	MaxValid Distance = 400
)

// CentimetersPerMicrosecond converts echo width to one-way distance:
// 0.034 cm/us speed of sound, halved for the round trip.
const CentimetersPerMicrosecond = 0.034 / 2

// DefaultEchoTimeout bounds each wait on the echo line. It is longer
// than the round trip for MaxValid, ~23.5ms.
const DefaultEchoTimeout = 25 * time.Millisecond

// Valid reports whether d is inside the operating envelope.
func (d Distance) Valid() bool {
	return d >= MinValid && d <= MaxValid
}

// String formats the distance with 2 decimals.
func (d Distance) String() string {
	return fmt.Sprintf("%.2f", float64(d))
}

// FromEcho converts an echo pulse width into a raw distance, not
// checked against the envelope.
func FromEcho(width time.Duration) Distance {
	us := float64(width) / float64(time.Microsecond)
	return Distance(us * CentimetersPerMicrosecond)
}

// Normalize maps readings outside the envelope to 0.
func Normalize(d Distance) Distance {
	if d.Valid() {
		return d
	}
	return 0
}

// Transducer drives the trigger line and times the echo line.
type Transducer interface {
	// Trigger emits the trigger pulse.
	Trigger()
	// EchoWidth waits for the echo pulse and returns its width. It
	// returns 0 when an edge doesn't arrive within timeout.
	EchoWidth(timeout time.Duration) time.Duration
}

// Sensor takes single-shot range readings.
type Sensor struct {
	Transducer  Transducer
	EchoTimeout time.Duration
}

// New creates a Sensor with the default echo timeout.
func New(t Transducer) *Sensor {
	return &Sensor{Transducer: t, EchoTimeout: DefaultEchoTimeout}
}

// Measure emits one trigger pulse and converts the echo. It never
// retries: a missing or out-of-range echo yields 0.
func (s *Sensor) Measure() Distance {
	timeout := s.EchoTimeout
	if timeout <= 0 {
		timeout = DefaultEchoTimeout
	}
	s.Transducer.Trigger()
	width := s.Transducer.EchoWidth(timeout)
	raw := FromEcho(width)
	d := Normalize(raw)
	if glog.V(3) {
		glog.Infof("echo %v raw %.2fcm -> %v", width, float64(raw), d)
	}
	return d
}
