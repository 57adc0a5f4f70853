package sim

import "math"

// Bearing is the platform heading in degrees, kept in (-180, 180].
type Bearing float64

// Deg normalizes d into a Bearing.
func Deg(d float64) Bearing {
	d = math.Mod(d, 360)
	switch {
	case d > 180:
		d -= 360
	case d <= -180:
		d += 360
	}
	return Bearing(d)
}

// Turn returns b rotated by d degrees, positive counter-clockwise.
func (b Bearing) Turn(d float64) Bearing {
	return Deg(float64(b) + d)
}

// Degrees returns b as a number.
func (b Bearing) Degrees() float64 {
	return float64(b)
}

// Offset is the signed shortest rotation from c to b.
func (b Bearing) Offset(c Bearing) float64 {
	return float64(Deg(float64(b) - float64(c)))
}

// Within reports whether b falls in the arc of width degrees centered
// on c.
func (b Bearing) Within(c Bearing, width float64) bool {
	return math.Abs(b.Offset(c)) <= width/2
}
