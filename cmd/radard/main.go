package main

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/radar.go/pkg/drive"
	fx "github.com/robotalks/radar.go/pkg/framework"
	"github.com/robotalks/radar.go/pkg/hw"
	"github.com/robotalks/radar.go/pkg/l1"
	env "github.com/robotalks/radar.go/pkg/l1/env/device"
	"github.com/robotalks/radar.go/pkg/link"
	"github.com/robotalks/radar.go/pkg/scanner"
	"github.com/robotalks/radar.go/pkg/sensor"
	"github.com/robotalks/radar.go/pkg/telemetry"
)

func init() {
	env.SetDeviceType("radar", l1.DeviceMeta{Description: "Ultrasonic sweep scanner"})
	env.SetupFlags()
	hw.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	e := env.NewConfig().MustNewEnv()
	conf, err := hw.NewConfig()
	if err != nil {
		glog.Exit(err)
	}
	board, err := hw.Open(conf)
	if err != nil {
		glog.Exit(err)
	}
	defer board.Close()

	act, err := drive.New(board.Dir1, board.Dir2, board.Enable)
	if err != nil {
		glog.Exitf("drive: %v", err)
	}
	port, err := link.OpenLine(conf.Port)
	if err != nil {
		glog.Exit(err)
	}
	defer port.Close()
	lines := link.NewLines(port, link.DefaultLineQueue)

	ctl := scanner.New(scanner.DefaultConfig(),
		sensor.New(board.Transducer), act, lines,
		telemetry.New(port, board.Display))
	ctl.Registrar = e.Registrar

	loop := fx.NewLoop().Add(e, ctl)
	loop.AddRunnable(lines)
	err = fx.NewRunner().HandleSignals().Go(loop).Wait()
	ctl.Shutdown()
	if err != nil {
		glog.Error(err)
	}
}
