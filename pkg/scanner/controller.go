// Package scanner runs the scan cycle: wait for the host, then forever
// stop, measure, report, resume and periodically reverse the sweep.
package scanner

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/radar.go/pkg/framework"
	"github.com/robotalks/radar.go/pkg/drive"
	"github.com/robotalks/radar.go/pkg/handshake"
	"github.com/robotalks/radar.go/pkg/l1"
	"github.com/robotalks/radar.go/pkg/l1/msgs"
	"github.com/robotalks/radar.go/pkg/sensor"
	"github.com/robotalks/radar.go/pkg/telemetry"
)

// Ranger takes a single range reading.
type Ranger interface {
	Measure() sensor.Distance
}

// Drive is the motor as seen by the scan cycle.
type Drive interface {
	Stop()
	Resume()
	Reverse()
	State() drive.MotorState
}

// State is the top level scanner state.
type State int

// States.
const (
	AwaitingHandshake State = iota
	Scanning
)

// String implements fmt.Stringer.
func (s State) String() string {
	if s == Scanning {
		return "scanning"
	}
	return "awaiting-handshake"
}

// phase is the step within a scanning cycle that runs when due.
type phase int

const (
	phaseMeasure phase = iota
	phaseReport
)

// Controller is the scan state machine. All of its state is owned by
// the loop goroutine.
type Controller struct {
	Config    Config
	Ranger    Ranger
	Drive     Drive
	Gate      *handshake.Gate
	Telemetry *telemetry.Telemetry
	// Registrar, when set, receives scan events.
	Registrar l1.Registrar

	state    State
	phase    phase
	due      time.Time
	splashed bool
	counter  uint32
	cycles   uint64
	last     sensor.Distance
	events   []fx.Message
}

// New creates a Controller waiting for the handshake on lines. The
// gate resumes the drive once on release.
func New(conf Config, ranger Ranger, drv Drive, lines handshake.LineSource, tel *telemetry.Telemetry) *Controller {
	c := &Controller{
		Config:    conf.normalize(),
		Ranger:    ranger,
		Drive:     drv,
		Telemetry: tel,
	}
	c.Gate = handshake.New(lines, drv.Resume)
	return c
}

// State returns the top level state.
func (c *Controller) State() State {
	return c.state
}

// Counter returns the cycles since the last reversal.
func (c *Controller) Counter() uint32 {
	return c.counter
}

// Cycles returns the cycles completed since the handshake.
func (c *Controller) Cycles() uint64 {
	return c.cycles
}

// Status builds the reply of ScanStatusQuery.
func (c *Controller) Status() *msgs.ScanStatus {
	motor := c.Drive.State()
	return &msgs.ScanStatus{
		State:        c.state.String(),
		Running:      motor.Running,
		Direction:    motor.Direction.String(),
		Counter:      c.counter,
		Cycles:       c.cycles,
		LastDistance: float64(c.last),
	}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvControl, c)
	l.AddController(fx.PrLvPostProc, fx.ControlFunc(c.publish))
}

// Control implements Controller. An iteration before the due time
// only serves commands.
func (c *Controller) Control(cc fx.ControlContext) error {
	c.serveCommands(cc)
	now := cc.Time()
	if now.Before(c.due) {
		cc.WakeAfter(c.due.Sub(now))
		return nil
	}
	switch c.state {
	case AwaitingHandshake:
		c.pollHandshake(cc, now)
	case Scanning:
		c.runPhase(cc, now)
	}
	return nil
}

// Shutdown leaves the motor stopped.
func (c *Controller) Shutdown() {
	c.Drive.Stop()
}

func (c *Controller) pollHandshake(cc fx.ControlContext, now time.Time) {
	if !c.splashed {
		c.Telemetry.Splash()
		c.splashed = true
	}
	c.Telemetry.NotifyWaiting()
	if !c.Gate.Poll() {
		c.schedule(cc, now, c.Config.PollInterval)
		return
	}
	c.Telemetry.NotifyReady()
	c.Telemetry.ClearDisplay()
	c.state, c.phase = Scanning, phaseMeasure
	c.events = append(c.events, &msgs.ScannerReady{})
	c.schedule(cc, now, c.Config.PaceDelay)
}

func (c *Controller) runPhase(cc fx.ControlContext, now time.Time) {
	switch c.phase {
	case phaseMeasure:
		c.Drive.Stop()
		c.Telemetry.NotifyMeasuring()
		c.last = c.Ranger.Measure()
		c.Telemetry.Display(c.last)
		c.phase = phaseReport
		c.schedule(cc, now, c.Config.SettleDelay)
	case phaseReport:
		c.Telemetry.Report(c.last)
		c.Drive.Resume()
		c.cycles++
		c.events = append(c.events, &msgs.ScanReading{
			Cycle:     c.cycles,
			Distance:  float64(c.last),
			Direction: c.Drive.State().Direction.String(),
		})
		c.count()
		c.phase = phaseMeasure
		c.schedule(cc, now, c.Config.PaceDelay)
	}
}

// count reverses once a full sweep of cycles has completed, so the
// cycle after the threshold is the one reversing.
func (c *Controller) count() {
	if c.counter >= c.Config.ReversalThreshold {
		c.counter = 0
		c.Telemetry.NotifyDirectionChange()
		c.Drive.Reverse()
		dir := c.Drive.State().Direction
		glog.V(1).Infof("scanner: cycle %d reverses to %s", c.cycles, dir)
		c.events = append(c.events, &msgs.DirectionChanged{Cycle: c.cycles, Direction: dir.String()})
	}
	c.counter++
}

func (c *Controller) schedule(cc fx.ControlContext, now time.Time, d time.Duration) {
	c.due = now.Add(d)
	cc.WakeAfter(d)
}

func (c *Controller) serveCommands(cc fx.ControlContext) {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmd, ok := mctx.CurrentMessage().(*l1.CommandMsg)
		if !ok {
			return
		}
		if _, ok := cmd.Command.Msg().(*msgs.ScanStatusQuery); !ok {
			return
		}
		mctx.MessageTaken()
		if err := cmd.Command.Done(c.Status()); err != nil {
			glog.Warningf("scanner: status reply: %v", err)
		}
	}))
}

func (c *Controller) publish(cc fx.ControlContext) error {
	events := c.events
	c.events = nil
	if c.Registrar == nil {
		return nil
	}
	var errs fx.AggregatedError
	for _, ev := range events {
		errs.Add(c.Registrar.SendEvent(cc.Context(), ev))
	}
	return errs.Aggregate()
}
