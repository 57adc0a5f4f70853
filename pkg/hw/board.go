package hw

import (
	"fmt"
	"io"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/robotalks/radar.go/pkg/display"
	fx "github.com/robotalks/radar.go/pkg/framework"
	"github.com/robotalks/radar.go/pkg/sensor"
	"github.com/robotalks/radar.go/pkg/sim"
)

// Board is the opened hardware.
type Board struct {
	Transducer sensor.Transducer
	Dir1       gpio.PinOut
	Dir2       gpio.PinOut
	Enable     gpio.PinOut
	Display    display.Sink
	// Platform is set on the simulated board.
	Platform *sim.Platform

	closers []io.Closer
}

// Open opens the board described by conf.
func Open(conf *Config) (*Board, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if conf.Sim {
		return OpenSim(sim.DefaultScene(), conf.LCDCols, conf.LCDRows), nil
	}

	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("hw: init host: %w", err)
	}
	for _, drv := range state.Failed {
		glog.Warningf("hw: driver %s failed: %v", drv.D, drv.Err)
	}

	b := &Board{}
	pins := make(map[string]gpio.PinIO)
	for _, name := range []string{conf.Trigger, conf.Echo, conf.Dir1, conf.Dir2, conf.Enable} {
		if name == "" {
			continue
		}
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("hw: unknown pin %q", name)
		}
		pins[name] = p
	}
	if b.Transducer, err = sensor.NewHCSR04(pins[conf.Trigger], pins[conf.Echo]); err != nil {
		return nil, fmt.Errorf("hw: sensor: %w", err)
	}
	b.Dir1, b.Dir2 = pins[conf.Dir1], pins[conf.Dir2]
	if conf.Enable != "" {
		b.Enable = pins[conf.Enable]
	}

	bus, err := i2creg.Open(conf.I2CBus)
	if err != nil {
		glog.Warningf("hw: no I2C bus %q (%v), using console display", conf.I2CBus, err)
		b.Display = display.NewConsole(conf.LCDCols, conf.LCDRows)
		return b, nil
	}
	b.closers = append(b.closers, bus)
	lcd, err := display.NewLCD(bus, conf.LCDAddr, conf.LCDCols, conf.LCDRows)
	if err != nil {
		glog.Warningf("hw: no LCD at %#x (%v), using console display", conf.LCDAddr, err)
		b.Display = display.NewConsole(conf.LCDCols, conf.LCDRows)
		return b, nil
	}
	b.Display = lcd
	return b, nil
}

// OpenSim creates a board on the simulated platform looking into scene.
func OpenSim(scene sim.Scene, cols, rows int) *Board {
	p := sim.NewPlatform(scene)
	return &Board{
		Transducer: p,
		Dir1:       p.Dir1,
		Dir2:       p.Dir2,
		Display:    display.NewConsole(cols, rows),
		Platform:   p,
	}
}

// Close releases the buses.
func (b *Board) Close() error {
	var errs fx.AggregatedError
	for _, c := range b.closers {
		errs.Add(c.Close())
	}
	return errs.Aggregate()
}
