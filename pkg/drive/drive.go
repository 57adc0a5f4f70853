// Package drive controls the sweep motor through an H-bridge: two
// direction lines select the rotation, an enable line sets the power.
package drive

import (
	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Direction is the sweep direction.
type Direction int

// Sweep directions.
const (
	Forward Direction = iota
	Reverse
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Forward {
		return Reverse
	}
	return Forward
}

// Pattern returns the levels of the two direction lines which rotate
// the motor in d. The lines are never both high.
func Pattern(d Direction) (dir1, dir2 gpio.Level) {
	if d == Reverse {
		return gpio.Low, gpio.High
	}
	return gpio.High, gpio.Low
}

// MotorState is either stopped or running in a direction.
type MotorState struct {
	Running   bool
	Direction Direction
}

// String implements fmt.Stringer.
func (s MotorState) String() string {
	if !s.Running {
		return "stopped"
	}
	return "running " + s.Direction.String()
}

// EnableFrequency is the PWM frequency on the enable line.
const EnableFrequency = physic.KiloHertz

// Actuator owns the sweep direction and the motor state.
// It is not safe for concurrent use.
type Actuator struct {
	Dir1   gpio.PinOut
	Dir2   gpio.PinOut
	Enable gpio.PinOut

	direction Direction
	running   bool
}

// New creates an Actuator: motor stopped, direction Forward, and the
// enable line at full duty. enable may be nil when it is hard-wired.
func New(dir1, dir2, enable gpio.PinOut) (*Actuator, error) {
	a := &Actuator{Dir1: dir1, Dir2: dir2, Enable: enable}
	if err := dir1.Out(gpio.Low); err != nil {
		return nil, err
	}
	if err := dir2.Out(gpio.Low); err != nil {
		return nil, err
	}
	if enable != nil {
		if err := enable.PWM(gpio.DutyMax, EnableFrequency); err != nil {
			glog.V(1).Infof("drive: enable pin %s has no PWM (%v), driving high", enable, err)
			if err := enable.Out(gpio.High); err != nil {
				return nil, err
			}
		}
	}
	return a, nil
}

// Stop drives both direction lines low. Calling it again changes nothing.
func (a *Actuator) Stop() {
	a.write(a.Dir1, gpio.Low)
	a.write(a.Dir2, gpio.Low)
	a.running = false
}

// Resume runs the motor in the current direction.
func (a *Actuator) Resume() {
	dir1, dir2 := Pattern(a.direction)
	// lower first so both lines are never high together.
	if dir1 == gpio.Low {
		a.write(a.Dir1, dir1)
		a.write(a.Dir2, dir2)
	} else {
		a.write(a.Dir2, dir2)
		a.write(a.Dir1, dir1)
	}
	a.running = true
}

// Reverse flips the direction used by the next Resume. The outputs are
// not touched.
func (a *Actuator) Reverse() {
	a.direction = a.direction.Opposite()
}

// Direction returns the current sweep direction.
func (a *Actuator) Direction() Direction {
	return a.direction
}

// State returns the current motor state.
func (a *Actuator) State() MotorState {
	return MotorState{Running: a.running, Direction: a.direction}
}

func (a *Actuator) write(p gpio.PinOut, l gpio.Level) {
	if err := p.Out(l); err != nil {
		glog.Warningf("drive: %s <- %v: %v", p, l, err)
	}
}
