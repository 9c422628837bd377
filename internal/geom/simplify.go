package geom

import "math"

// SimplifyPolyline reduces polyline vertex count using the Douglas-Peucker
// algorithm. Used to thin densely sampled paths before export.
func SimplifyPolyline(points []Point, epsilon float64) []Point {
	if len(points) <= 2 || epsilon <= 0 {
		return points
	}
	return douglasPeucker(points, epsilon)
}

// douglasPeucker implements the Douglas-Peucker line simplification algorithm
func douglasPeucker(points []Point, epsilon float64) []Point {
	if len(points) <= 2 {
		return points
	}

	// Find the point with maximum distance from line between first and last
	dmax := 0.0
	index := 0
	end := len(points) - 1

	for i := 1; i < end; i++ {
		d := perpendicularDistance(points[i], points[0], points[end])
		if d > dmax {
			index = i
			dmax = d
		}
	}

	if dmax > epsilon {
		left := douglasPeucker(points[0:index+1], epsilon)
		right := douglasPeucker(points[index:], epsilon)

		result := make([]Point, 0, len(left)+len(right)-1)
		result = append(result, left[:len(left)-1]...)
		result = append(result, right...)
		return result
	}

	return []Point{points[0], points[end]}
}

// perpendicularDistance calculates perpendicular distance from point to line
func perpendicularDistance(point, lineStart, lineEnd Point) float64 {
	dx := lineEnd.X - lineStart.X
	dy := lineEnd.Y - lineStart.Y

	mag := math.Sqrt(dx*dx + dy*dy)
	if mag > 0 {
		dx /= mag
		dy /= mag
	}

	pvx := point.X - lineStart.X
	pvy := point.Y - lineStart.Y

	pvdot := dx*pvx + dy*pvy

	ax := pvx - pvdot*dx
	ay := pvy - pvdot*dy

	return math.Sqrt(ax*ax + ay*ay)
}
