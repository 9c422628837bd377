package geom

import "math"

// Point is a position in a planar projected coordinate system (meters).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance calculates Euclidean distance between two points
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Lerp returns the point a fraction t of the way from p to other.
func (p Point) Lerp(other Point, t float64) Point {
	return Point{
		X: p.X + (other.X-p.X)*t,
		Y: p.Y + (other.Y-p.Y)*t,
	}
}

// Config is an oriented point: a position plus a heading in radians.
// Heading follows math convention (counter-clockwise from +X).
type Config struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// Point returns the location without the heading.
func (c Config) Point() Point {
	return Point{X: c.X, Y: c.Y}
}

// Distance calculates Euclidean distance between the positions of two configurations
func (c Config) Distance(other Config) float64 {
	return c.Point().Distance(other.Point())
}

// IsFinite reports whether all components are finite numbers.
func (c Config) IsFinite() bool {
	return !math.IsNaN(c.X) && !math.IsInf(c.X, 0) &&
		!math.IsNaN(c.Y) && !math.IsInf(c.Y, 0) &&
		!math.IsNaN(c.Heading) && !math.IsInf(c.Heading, 0)
}

// NormalizeAngle wraps an angle to (-pi, pi].
func NormalizeAngle(rad float64) float64 {
	for rad > math.Pi {
		rad -= 2.0 * math.Pi
	}
	for rad <= -math.Pi {
		rad += 2.0 * math.Pi
	}
	return rad
}

// Mod2Pi wraps an angle to [0, 2*pi).
func Mod2Pi(rad float64) float64 {
	rad = math.Mod(rad, 2.0*math.Pi)
	if rad < 0 {
		rad += 2.0 * math.Pi
	}
	return rad
}

// HeadingBetween returns the heading of the vector from a to b.
func HeadingBetween(a, b Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// PolylineLength sums the segment lengths of an ordered point sequence.
func PolylineLength(points []Point) float64 {
	var total float64
	for i := 0; i+1 < len(points); i++ {
		total += points[i].Distance(points[i+1])
	}
	return total
}

// ConfigsToPoints strips headings from a configuration sequence.
func ConfigsToPoints(configs []Config) []Point {
	points := make([]Point, len(configs))
	for i, c := range configs {
		points[i] = c.Point()
	}
	return points
}
