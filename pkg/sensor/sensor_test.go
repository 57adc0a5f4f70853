package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type fakeTransducer struct {
	width    time.Duration
	triggers int
	timeouts []time.Duration
}

func (f *fakeTransducer) Trigger() { f.triggers++ }

func (f *fakeTransducer) EchoWidth(timeout time.Duration) time.Duration {
	f.timeouts = append(f.timeouts, timeout)
	return f.width
}

func TestFromEcho(t *testing.T) {
	for _, us := range []int{0, 1, 118, 1000, 5882, 23529, 30000} {
		d := FromEcho(time.Duration(us) * time.Microsecond)
		require.InDelta(t, float64(us)*0.017, float64(d), 1e-9)
	}
}

func TestMeasure(t *testing.T) {
	tests := []struct {
		name  string
		width time.Duration
		want  float64
	}{
		{"17cm", 1000 * time.Microsecond, 17},
		{"too far", 30000 * time.Microsecond, 0},
		{"timeout", 0, 0},
		{"too close", 100 * time.Microsecond, 0},
		{"lower bound", 118 * time.Microsecond, 2.006},
		{"upper bound", 23529 * time.Microsecond, 399.993},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := &fakeTransducer{width: tc.width}
			d := New(tr).Measure()
			require.InDelta(t, tc.want, float64(d), 1e-9)
			require.Equal(t, 1, tr.triggers)
			require.Equal(t, []time.Duration{DefaultEchoTimeout}, tr.timeouts)
			require.True(t, d == 0 || d.Valid())
		})
	}
}

func TestMeasureTimeoutFallback(t *testing.T) {
	tr := &fakeTransducer{width: time.Millisecond}
	s := &Sensor{Transducer: tr}
	s.Measure()
	require.Equal(t, []time.Duration{DefaultEchoTimeout}, tr.timeouts)
}

func TestDistanceString(t *testing.T) {
	require.Equal(t, "17.00", Distance(17).String())
	require.Equal(t, "0.00", Distance(0).String())
}

func TestHCSR04NoEcho(t *testing.T) {
	trig := &gpiotest.Pin{N: "TRIG", L: gpio.High}
	echo := &gpiotest.Pin{N: "ECHO", EdgesChan: make(chan gpio.Level, 1)}
	h, err := NewHCSR04(trig, echo)
	require.NoError(t, err)
	require.Equal(t, gpio.Low, trig.Read())

	h.Trigger()
	require.Equal(t, gpio.Low, trig.Read())
	require.Zero(t, h.EchoWidth(5*time.Millisecond))
}

func TestHCSR04Echo(t *testing.T) {
	trig := &gpiotest.Pin{N: "TRIG"}
	echo := &gpiotest.Pin{N: "ECHO", EdgesChan: make(chan gpio.Level, 2)}
	h, err := NewHCSR04(trig, echo)
	require.NoError(t, err)

	h.Trigger()
	echo.EdgesChan <- gpio.High
	go func() {
		time.Sleep(2 * time.Millisecond)
		echo.EdgesChan <- gpio.Low
	}()
	width := h.EchoWidth(time.Second)
	require.GreaterOrEqual(t, width, 2*time.Millisecond)
	require.Less(t, width, time.Second)
}
