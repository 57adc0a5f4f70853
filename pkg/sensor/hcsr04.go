package sensor

import (
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
)

// HCSR04 is a Transducer on two GPIO lines.
//
// Datasheet: https://cdn.sparkfun.com/datasheets/Sensors/Proximity/HCSR04.pdf
type HCSR04 struct {
	Trig gpio.PinOut
	Echo gpio.PinIn
}

// NewHCSR04 configures the pins: trigger driven low, echo pulled down.
func NewHCSR04(trig gpio.PinOut, echo gpio.PinIn) (*HCSR04, error) {
	if err := trig.Out(gpio.Low); err != nil {
		return nil, err
	}
	if err := echo.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return nil, err
	}
	return &HCSR04{Trig: trig, Echo: echo}, nil
}

// Trigger implements Transducer: low 2us, high 10us, low.
func (h *HCSR04) Trigger() {
	// re-arming the echo line drops stale edges from the last burst.
	if err := h.Echo.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		glog.Warningf("hcsr04: arm echo: %v", err)
	}
	h.out(gpio.Low)
	time.Sleep(2 * time.Microsecond)
	h.out(gpio.High)
	time.Sleep(10 * time.Microsecond)
	h.out(gpio.Low)
}

// EchoWidth implements Transducer.
func (h *HCSR04) EchoWidth(timeout time.Duration) time.Duration {
	if !h.Echo.WaitForEdge(timeout) {
		return 0
	}
	start := time.Now()
	if err := h.Echo.In(gpio.PullDown, gpio.FallingEdge); err != nil {
		glog.Warningf("hcsr04: watch falling edge: %v", err)
		return 0
	}
	if !h.Echo.WaitForEdge(timeout) {
		return 0
	}
	return time.Since(start)
}

func (h *HCSR04) out(l gpio.Level) {
	if err := h.Trig.Out(l); err != nil {
		glog.Warningf("hcsr04: trigger %v: %v", l, err)
	}
}
