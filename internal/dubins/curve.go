package dubins

import (
	"errors"
	"math"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
)

// ErrChord is returned when no arc of the requested radius can join the
// two points (chord longer than the diameter).
var ErrChord = errors.New("dubins: chord exceeds turn diameter")

// Curve builds a single minimum-radius arc between two points without
// heading continuity at either end, for simple turn smoothing. The minor
// arc on the requested side is taken.
func Curve(a, b geom.Point, radius float64, clockwise bool) (Path, error) {
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return Path{}, ErrRadius
	}
	chord := a.Distance(b)
	if chord < 1e-9 {
		start := geom.Config{X: a.X, Y: a.Y}
		return Path{Start: start, End: start, Length: 0, Polyline: []geom.Config{start}}, nil
	}
	if chord > 2*radius {
		return Path{}, ErrChord
	}

	ux := (b.X - a.X) / chord
	uy := (b.Y - a.Y) / chord
	h := math.Sqrt(radius*radius - (chord/2)*(chord/2))

	mid := geom.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	var center geom.Point
	if clockwise {
		// Center to the right of the chord gives a clockwise minor arc.
		center = geom.Point{X: mid.X + uy*h, Y: mid.Y - ux*h}
	} else {
		center = geom.Point{X: mid.X - uy*h, Y: mid.Y + ux*h}
	}

	angA := math.Atan2(a.Y-center.Y, a.X-center.X)
	angB := math.Atan2(b.Y-center.Y, b.X-center.X)
	sweep := geom.NormalizeAngle(angB - angA)
	if clockwise && sweep > 0 {
		sweep -= 2 * math.Pi
	}
	if !clockwise && sweep < 0 {
		sweep += 2 * math.Pi
	}

	curvature := 1 / radius
	tangent := angA + math.Pi/2
	if clockwise {
		curvature = -curvature
		tangent = angA - math.Pi/2
	}

	path := Path{
		Start: geom.Config{X: a.X, Y: a.Y, Heading: geom.NormalizeAngle(tangent)},
		Word:  "",
		Segments: []Segment{{
			Kind:      Arc,
			Length:    math.Abs(sweep) * radius,
			Radius:    radius,
			Curvature: curvature,
			Angle:     sweep,
		}},
		Length: math.Abs(sweep) * radius,
	}
	path.End = advance(path.Start, path.Segments[0], path.Segments[0].Length)
	path.Polyline = path.Sample(DefaultSampleStep)
	return path, nil
}
