package drive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
)

type noPWMPin struct {
	gpiotest.Pin
}

func (p *noPWMPin) PWM(gpio.Duty, physic.Frequency) error {
	return errors.New("not supported")
}

func newTestActuator(t *testing.T) (*Actuator, *gpiotest.Pin, *gpiotest.Pin) {
	dir1 := &gpiotest.Pin{N: "DIR1", L: gpio.High}
	dir2 := &gpiotest.Pin{N: "DIR2", L: gpio.High}
	a, err := New(dir1, dir2, nil)
	require.NoError(t, err)
	return a, dir1, dir2
}

func levels(p1, p2 *gpiotest.Pin) [2]gpio.Level {
	return [2]gpio.Level{p1.Read(), p2.Read()}
}

func TestNew(t *testing.T) {
	a, dir1, dir2 := newTestActuator(t)
	require.Equal(t, MotorState{Running: false, Direction: Forward}, a.State())
	require.Equal(t, [2]gpio.Level{gpio.Low, gpio.Low}, levels(dir1, dir2))
}

func TestNewEnable(t *testing.T) {
	t.Run("pwm", func(t *testing.T) {
		en := &gpiotest.Pin{N: "EN"}
		_, err := New(&gpiotest.Pin{}, &gpiotest.Pin{}, en)
		require.NoError(t, err)
		require.Equal(t, gpio.DutyMax, en.D)
		require.Equal(t, EnableFrequency, en.F)
	})
	t.Run("no pwm", func(t *testing.T) {
		en := &noPWMPin{gpiotest.Pin{N: "EN"}}
		_, err := New(&gpiotest.Pin{}, &gpiotest.Pin{}, en)
		require.NoError(t, err)
		require.Equal(t, gpio.High, en.Read())
	})
}

func TestResumePatterns(t *testing.T) {
	a, dir1, dir2 := newTestActuator(t)
	a.Resume()
	require.Equal(t, [2]gpio.Level{gpio.High, gpio.Low}, levels(dir1, dir2))
	require.Equal(t, MotorState{Running: true, Direction: Forward}, a.State())

	a.Reverse()
	// outputs unchanged until the next Resume.
	require.Equal(t, [2]gpio.Level{gpio.High, gpio.Low}, levels(dir1, dir2))
	require.True(t, a.State().Running)
	a.Resume()
	require.Equal(t, [2]gpio.Level{gpio.Low, gpio.High}, levels(dir1, dir2))

	a.Reverse()
	a.Resume()
	require.Equal(t, [2]gpio.Level{gpio.High, gpio.Low}, levels(dir1, dir2))
}

func TestReverseIsInvolution(t *testing.T) {
	for _, d := range []Direction{Forward, Reverse} {
		t.Run(d.String(), func(t *testing.T) {
			p1, p2 := Pattern(d)
			o1, o2 := Pattern(d.Opposite())
			require.Equal(t, p1, o2)
			require.Equal(t, p2, o1)
			require.False(t, p1 == gpio.High && p2 == gpio.High)
			require.Equal(t, d, d.Opposite().Opposite())
		})
	}
}

func TestStopIdempotent(t *testing.T) {
	a, dir1, dir2 := newTestActuator(t)
	a.Resume()
	a.Stop()
	once := a.State()
	onceLevels := levels(dir1, dir2)
	a.Stop()
	require.Equal(t, once, a.State())
	require.Equal(t, onceLevels, levels(dir1, dir2))
	require.Equal(t, [2]gpio.Level{gpio.Low, gpio.Low}, onceLevels)
	require.Equal(t, "stopped", a.State().String())
}
