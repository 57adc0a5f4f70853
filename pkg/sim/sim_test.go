package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"

	"github.com/robotalks/radar.go/pkg/drive"
	"github.com/robotalks/radar.go/pkg/sensor"
)

func TestBearing(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{450, 90},
		{270, -90},
		{-180, 180},
		{180, 180},
		{-540, 180},
		{-90, -90},
	}
	for _, tc := range tests {
		require.InDelta(t, tc.want, Deg(tc.in).Degrees(), 1e-9, "Deg(%v)", tc.in)
	}
	require.InDelta(t, -170, Deg(170).Turn(20).Degrees(), 1e-9)
	require.InDelta(t, 10, Deg(-175).Offset(175), 1e-9)
	require.True(t, Deg(175).Within(-175, 30))
	require.False(t, Deg(10).Within(0, 10))
}

func TestSceneRangeAt(t *testing.T) {
	s := Scene{
		Background: 300,
		Obstacles: []Obstacle{
			{Bearing: 0, Width: 20, Range: 100},
			{Bearing: 5, Width: 4, Range: 50},
		},
	}
	require.Equal(t, 100.0, s.RangeAt(-8))
	require.Equal(t, 50.0, s.RangeAt(6))
	require.Equal(t, 300.0, s.RangeAt(45))
	s.Background = 0
	require.Equal(t, 0.0, s.RangeAt(45))
}

func TestPlatformTurnsWithDrive(t *testing.T) {
	now := time.Unix(0, 0)
	p := NewPlatform(Scene{})
	p.Rate = 10
	p.Now = func() time.Time { return now }
	act, err := drive.New(p.Dir1, p.Dir2, nil)
	require.NoError(t, err)

	act.Resume()
	now = now.Add(2 * time.Second)
	require.InDelta(t, 20, p.Advance().Degrees(), 1e-9)

	act.Stop()
	now = now.Add(time.Second)
	require.InDelta(t, 20, p.Advance().Degrees(), 1e-9)

	act.Reverse()
	act.Resume()
	require.Equal(t, gpio.High, p.pin2.Read())
	now = now.Add(3 * time.Second)
	act.Stop()
	require.InDelta(t, -10, p.Bearing().Degrees(), 1e-9)
}

func TestPlatformEcho(t *testing.T) {
	p := NewPlatform(Scene{Obstacles: []Obstacle{
		{Bearing: 0, Width: 10, Range: 170},
	}})
	s := sensor.New(p)
	require.InDelta(t, 170, float64(s.Measure()), 0.05)

	p.Scene.Obstacles[0].Range = 1
	require.Equal(t, sensor.Distance(0), s.Measure())

	p.Scene = Scene{}
	require.Equal(t, sensor.Distance(0), s.Measure())

	p.Scene = Scene{Background: 600}
	require.Zero(t, p.EchoWidth(sensor.DefaultEchoTimeout))
}
