package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	fx "github.com/robotalks/radar.go/pkg/framework"
	"github.com/robotalks/radar.go/pkg/host"
	"github.com/robotalks/radar.go/pkg/l1"
	env "github.com/robotalks/radar.go/pkg/l1/env/device"
	"github.com/robotalks/radar.go/pkg/link"
)

var (
	port = link.PortOptions{
		Device:   "/dev/ttyUSB0",
		BaudRate: link.DefaultBaudRate,
	}
	listenAddr string
	resetDelay = host.DefaultResetDelay
)

func init() {
	if val := os.Getenv("RADAR_SERIAL_PORT"); val != "" {
		port.Device = val
	}
	env.SetDeviceType("radar-view", l1.DeviceMeta{Description: "Sweep view of a scanner"})
	env.SetupFlags()
	flag.StringVar(&port.Device, "serial", port.Device, "Serial device of the scanner.")
	flag.IntVar(&port.BaudRate, "baud", port.BaudRate, "Baud rate.")
	flag.StringVar(&listenAddr, "listen", listenAddr, "Serve the sweep feed over websocket on this address, e.g. :8080.")
	flag.DurationVar(&resetDelay, "reset-delay", resetDelay, "Wait before sending the ready token.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	e := env.NewConfig().MustNewEnv()
	serialPort, err := link.Open(port)
	if err != nil {
		glog.Exit(err)
	}
	defer serialPort.Close()

	session := host.NewSession(serialPort)
	session.ResetDelay = resetDelay
	session.Observe(func(t host.Telegram, v *host.View) {
		if t.Kind != host.Reading {
			return
		}
		if err := e.Registrar.SendEvent(context.Background(), v.Snapshot()); err != nil {
			glog.V(1).Infof("publish snapshot: %v", err)
		}
	})

	var feed *host.Feed
	if listenAddr != "" {
		feed = host.NewFeed()
		session.Observe(feed.Update)
	}

	runner := fx.NewRunner().HandleSignals()
	ctx, cancel := context.WithCancel(runner.Context)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// the scanner line closing ends everything.
		defer cancel()
		return session.Run(ctx)
	})
	g.Go(func() error { return fx.NewLoop().Add(e).Run(ctx) })
	if feed != nil {
		mux := http.NewServeMux()
		mux.Handle("/sweep", feed.Handler())
		srv := &http.Server{Addr: listenAddr, Handler: mux}
		g.Go(func() error {
			glog.Infof("sweep feed on ws://%s/sweep", listenAddr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		glog.Exit(err)
	}
}
