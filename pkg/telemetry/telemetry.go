// Package telemetry writes the scanner's one-way line protocol to the
// host and mirrors the latest distance on the local display.
package telemetry

import (
	"fmt"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/radar.go/pkg/display"
	"github.com/robotalks/radar.go/pkg/link"
	"github.com/robotalks/radar.go/pkg/sensor"
)

// Markers of the host line protocol.
const (
	MarkerMeasuring       = "FWR"
	MarkerDirectionChange = "CDR"
	ReportPrefix          = "Distance: "

	WaitingText = "Scanner: waiting for RDY"
	ReadyText   = "Scanner: ready signal received"
)

// Display layout.
const (
	DisplayLabel     = "Distance:"
	DisplayValueCol  = 10
	DisplayValueSize = 6
	SplashText       = "Waiting for host"
)

// FormatReport formats the distance line without terminator.
func FormatReport(d sensor.Distance) string {
	return fmt.Sprintf("%s%f", ReportPrefix, float64(d))
}

// Telemetry emits fire-and-forget lines; write failures are logged.
type Telemetry struct {
	Host   io.Writer
	Screen display.Sink
}

// New creates Telemetry. sink may be nil.
func New(host io.Writer, sink display.Sink) *Telemetry {
	return &Telemetry{Host: host, Screen: sink}
}

// NotifyMeasuring tells the host a reading is about to be taken.
func (t *Telemetry) NotifyMeasuring() {
	t.line(MarkerMeasuring)
}

// NotifyDirectionChange tells the host the sweep reverses.
func (t *Telemetry) NotifyDirectionChange() {
	t.line(MarkerDirectionChange)
}

// Report sends the reading to the host.
func (t *Telemetry) Report(d sensor.Distance) {
	t.line(FormatReport(d))
}

// NotifyWaiting is repeated while the handshake is pending.
func (t *Telemetry) NotifyWaiting() {
	t.line(WaitingText)
}

// NotifyReady is sent once the handshake completes.
func (t *Telemetry) NotifyReady() {
	t.line(ReadyText)
}

// Display shows the reading as label and value on the first row.
func (t *Telemetry) Display(d sensor.Distance) {
	if t.Screen == nil {
		return
	}
	if err := t.Screen.Print(0, 0, DisplayLabel); err != nil {
		glog.Warningf("telemetry: display: %v", err)
		return
	}
	value := fmt.Sprintf("%-*s", DisplayValueSize, d.String())
	if err := t.Screen.Print(DisplayValueCol, 0, value); err != nil {
		glog.Warningf("telemetry: display: %v", err)
	}
}

// Splash shows the waiting text before the handshake.
func (t *Telemetry) Splash() {
	if t.Screen == nil {
		return
	}
	if err := t.Screen.Print(0, 0, SplashText); err != nil {
		glog.Warningf("telemetry: display: %v", err)
	}
}

// ClearDisplay blanks the display.
func (t *Telemetry) ClearDisplay() {
	if t.Screen == nil {
		return
	}
	if err := t.Screen.Clear(); err != nil {
		glog.Warningf("telemetry: display: %v", err)
	}
}

func (t *Telemetry) line(s string) {
	glog.V(2).Infof("host <- %s", s)
	if t.Host == nil {
		return
	}
	if _, err := io.WriteString(t.Host, s+link.LineEnd); err != nil {
		glog.Warningf("telemetry: write %q: %v", s, err)
	}
}
