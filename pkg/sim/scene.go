package sim

// Obstacle reflects the ping over an arc at a fixed range.
type Obstacle struct {
	Bearing Bearing
	// Width is the arc in degrees.
	Width float64
	// Range is in centimeters.
	Range float64
}

// Scene is what the scanner sees around it.
type Scene struct {
	Obstacles []Obstacle
	// Background is the range where no obstacle covers the bearing,
	// 0 for open space which returns no echo.
	Background float64
}

// DefaultScene is a small room with a few objects in it.
func DefaultScene() Scene {
	return Scene{
		Background: 350,
		Obstacles: []Obstacle{
			{Bearing: 0, Width: 30, Range: 120},
			{Bearing: 75, Width: 12, Range: 45},
			{Bearing: 160, Width: 40, Range: 210},
			{Bearing: -90, Width: 20, Range: 1.5},
		},
	}
}

// RangeAt returns the nearest reflecting range at bearing b.
func (s Scene) RangeAt(b Bearing) float64 {
	r := s.Background
	for _, o := range s.Obstacles {
		if !b.Within(o.Bearing, o.Width) {
			continue
		}
		if r == 0 || o.Range < r {
			r = o.Range
		}
	}
	return r
}
