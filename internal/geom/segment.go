package geom

import "math"

// Segment represents a line segment between two points
type Segment struct {
	P1, P2 Point
}

// SegmentsIntersect checks if two line segments intersect.
// Segments that merely share an endpoint are not treated as intersecting,
// so a path may start or end exactly on an obstacle edge.
func SegmentsIntersect(seg1, seg2 Segment) bool {
	p1, p2 := seg1.P1, seg1.P2
	p3, p4 := seg2.P1, seg2.P2

	if (p1 == p3 && p2 == p4) || (p1 == p4 && p2 == p3) {
		return false
	}
	if p1 == p3 || p1 == p4 || p2 == p3 || p2 == p4 {
		return false
	}

	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear cases
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}

	return false
}

// direction calculates the cross product to determine orientation
func direction(p1, p2, p3 Point) float64 {
	return (p3.X-p1.X)*(p2.Y-p1.Y) - (p2.X-p1.X)*(p3.Y-p1.Y)
}

// onSegment checks if point q lies on segment pr
func onSegment(p, r, q Point) bool {
	return q.X <= math.Max(p.X, r.X) && q.X >= math.Min(p.X, r.X) &&
		q.Y <= math.Max(p.Y, r.Y) && q.Y >= math.Min(p.Y, r.Y)
}

// DistanceToPoint returns the distance from point q to the segment.
func (s Segment) DistanceToPoint(q Point) float64 {
	dx := s.P2.X - s.P1.X
	dy := s.P2.Y - s.P1.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return s.P1.Distance(q)
	}
	t := ((q.X-s.P1.X)*dx + (q.Y-s.P1.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	closest := Point{X: s.P1.X + t*dx, Y: s.P1.Y + t*dy}
	return closest.Distance(q)
}

// DistanceToSegment returns the minimum distance between two segments.
// Zero if they intersect.
func (s Segment) DistanceToSegment(other Segment) float64 {
	if SegmentsIntersect(s, other) {
		return 0
	}
	d := s.DistanceToPoint(other.P1)
	if d2 := s.DistanceToPoint(other.P2); d2 < d {
		d = d2
	}
	if d2 := other.DistanceToPoint(s.P1); d2 < d {
		d = d2
	}
	if d2 := other.DistanceToPoint(s.P2); d2 < d {
		d = d2
	}
	return d
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return s.P1.Distance(s.P2)
}

// IntersectionParams returns the parameters t along the segment at which it
// crosses the other segment, in [0, 1]. Empty when they do not cross.
func (s Segment) IntersectionParams(other Segment) []float64 {
	d1 := s.P2.X - s.P1.X
	e1 := s.P2.Y - s.P1.Y
	d2 := other.P2.X - other.P1.X
	e2 := other.P2.Y - other.P1.Y

	denom := d1*e2 - e1*d2
	if math.Abs(denom) < 1e-12 {
		return nil // parallel or collinear
	}

	t := ((other.P1.X-s.P1.X)*e2 - (other.P1.Y-s.P1.Y)*d2) / denom
	u := ((other.P1.X-s.P1.X)*e1 - (other.P1.Y-s.P1.Y)*d1) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return nil
	}
	return []float64{t}
}
