// Package sim simulates the scanner hardware: a rotary platform turned
// by the drive lines and an ultrasonic module looking into a Scene.
package sim

import (
	"sync"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/robotalks/radar.go/pkg/sensor"
)

// DefaultRate is the platform turn rate in degrees per second.
const DefaultRate = 40.0

// Platform integrates the platform bearing from the drive line levels
// and answers pings from the Scene. It implements the sensor
// transducer.
type Platform struct {
	Scene Scene
	// Rate is in degrees per second.
	Rate float64
	// Now is the clock, time.Now when nil.
	Now func() time.Time

	Dir1, Dir2 gpio.PinOut

	lock    sync.Mutex
	bearing Bearing
	last    time.Time
	pin1    *motorPin
	pin2    *motorPin
}

// motorPin advances the platform before its level changes.
type motorPin struct {
	gpiotest.Pin
	platform *Platform
}

// Out implements gpio.PinOut.
func (p *motorPin) Out(l gpio.Level) error {
	p.platform.Advance()
	return p.Pin.Out(l)
}

// NewPlatform creates a Platform facing bearing 0.
func NewPlatform(scene Scene) *Platform {
	p := &Platform{Scene: scene, Rate: DefaultRate}
	p.pin1 = &motorPin{Pin: gpiotest.Pin{N: "SIM_DIR1"}, platform: p}
	p.pin2 = &motorPin{Pin: gpiotest.Pin{N: "SIM_DIR2"}, platform: p}
	p.Dir1, p.Dir2 = p.pin1, p.pin2
	return p
}

func (p *Platform) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Advance integrates the bearing up to now with the current line levels.
func (p *Platform) Advance() Bearing {
	now := p.now()
	p.lock.Lock()
	defer p.lock.Unlock()
	if !p.last.IsZero() {
		var sign float64
		switch l1, l2 := p.pin1.Read(), p.pin2.Read(); {
		case l1 == gpio.High && l2 == gpio.Low:
			sign = 1
		case l1 == gpio.Low && l2 == gpio.High:
			sign = -1
		}
		if sign != 0 {
			p.bearing = p.bearing.Turn(sign * p.Rate * now.Sub(p.last).Seconds())
		}
	}
	p.last = now
	return p.bearing
}

// Bearing returns the bearing at the last Advance.
func (p *Platform) Bearing() Bearing {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.bearing
}

// Trigger implements sensor.Transducer.
func (p *Platform) Trigger() {
	p.Advance()
}

// EchoWidth implements sensor.Transducer. The width is the round trip
// time for the range at the current bearing, 0 past timeout.
func (p *Platform) EchoWidth(timeout time.Duration) time.Duration {
	bearing := p.Bearing()
	r := p.Scene.RangeAt(bearing)
	width := time.Duration(r/sensor.CentimetersPerMicrosecond) * time.Microsecond
	if r <= 0 || width > timeout {
		width = 0
	}
	glog.V(3).Infof("sim: bearing %.1f range %.1f echo %v", bearing.Degrees(), r, width)
	return width
}
