package geom

import "math"

// Polygon represents an exclusion zone outline as an ordered list of vertices.
// The ring is implicitly closed; the last vertex should not repeat the first.
type Polygon struct {
	Vertices []Point `json:"vertices"`
}

// BBox represents an axis-aligned bounding box
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// Expand grows the box by margin on every side.
func (b BBox) Expand(margin float64) BBox {
	return BBox{
		MinX: b.MinX - margin,
		MinY: b.MinY - margin,
		MaxX: b.MaxX + margin,
		MaxY: b.MaxY + margin,
	}
}

// Union returns the smallest box containing both boxes.
func (b BBox) Union(other BBox) BBox {
	return BBox{
		MinX: math.Min(b.MinX, other.MinX),
		MinY: math.Min(b.MinY, other.MinY),
		MaxX: math.Max(b.MaxX, other.MaxX),
		MaxY: math.Max(b.MaxY, other.MaxY),
	}
}

// BBoxOf calculates the bounding box of a set of points.
func BBoxOf(points []Point) BBox {
	if len(points) == 0 {
		return BBox{}
	}
	bbox := BBox{
		MinX: points[0].X, MinY: points[0].Y,
		MaxX: points[0].X, MaxY: points[0].Y,
	}
	for _, v := range points[1:] {
		bbox.MinX = math.Min(bbox.MinX, v.X)
		bbox.MinY = math.Min(bbox.MinY, v.Y)
		bbox.MaxX = math.Max(bbox.MaxX, v.X)
		bbox.MaxY = math.Max(bbox.MaxY, v.Y)
	}
	return bbox
}

// BBox calculates the bounding box of the polygon.
func (p Polygon) BBox() BBox {
	return BBoxOf(p.Vertices)
}

// Contains checks if a point is inside the polygon using ray casting
func (p Polygon) Contains(point Point) bool {
	n := len(p.Vertices)
	if n < 3 {
		return false
	}

	count := 0
	for i := 0; i < n; i++ {
		v1 := p.Vertices[i]
		v2 := p.Vertices[(i+1)%n]

		// Check if the ray from point to the right intersects the edge
		if (v1.Y > point.Y) != (v2.Y > point.Y) {
			slope := (point.X-v1.X)*(v2.Y-v1.Y) - (v2.X-v1.X)*(point.Y-v1.Y)
			if v2.Y > v1.Y {
				if slope > 0 {
					count++
				}
			} else {
				if slope < 0 {
					count++
				}
			}
		}
	}

	return count%2 == 1
}

// Edge returns the i-th boundary edge, wrapping around the ring.
func (p Polygon) Edge(i int) Segment {
	n := len(p.Vertices)
	return Segment{P1: p.Vertices[i%n], P2: p.Vertices[(i+1)%n]}
}

// IntersectsSegment checks if a line segment crosses any edge of the polygon.
func (p Polygon) IntersectsSegment(seg Segment) bool {
	for i := range p.Vertices {
		if SegmentsIntersect(seg, p.Edge(i)) {
			return true
		}
	}
	return false
}

// DistanceToPoint returns the distance from a point to the polygon boundary,
// or zero if the point lies inside.
func (p Polygon) DistanceToPoint(point Point) float64 {
	if p.Contains(point) {
		return 0
	}
	min := math.MaxFloat64
	for i := range p.Vertices {
		if d := p.Edge(i).DistanceToPoint(point); d < min {
			min = d
		}
	}
	return min
}

// DistanceToSegment returns the minimum distance from a segment to the
// polygon, zero when the segment crosses or lies inside it.
func (p Polygon) DistanceToSegment(seg Segment) float64 {
	if p.IntersectsSegment(seg) {
		return 0
	}
	if p.Contains(seg.P1) || p.Contains(seg.P2) {
		return 0
	}
	min := math.MaxFloat64
	for i := range p.Vertices {
		if d := p.Edge(i).DistanceToSegment(seg); d < min {
			min = d
		}
	}
	return min
}

// IsSimple reports whether the polygon is non-self-intersecting.
func (p Polygon) IsSimple() bool {
	n := len(p.Vertices)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			// Adjacent edges share an endpoint; skip them.
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if SegmentsIntersect(p.Edge(i), p.Edge(j)) {
				return false
			}
		}
	}
	return true
}

// IsConvex reports whether all polygon turns have the same orientation.
func (p Polygon) IsConvex() bool {
	n := len(p.Vertices)
	if n < 3 {
		return false
	}
	sign := 0.0
	for i := 0; i < n; i++ {
		cross := crossProduct(p.Vertices[i], p.Vertices[(i+1)%n], p.Vertices[(i+2)%n])
		if math.Abs(cross) < 1e-12 {
			continue // collinear run
		}
		if sign == 0 {
			sign = cross
		} else if sign*cross < 0 {
			return false
		}
	}
	return true
}

// ContainsPolygon checks if polygon other is fully contained within p.
func (p Polygon) ContainsPolygon(other Polygon) bool {
	if len(p.Vertices) == 0 || len(other.Vertices) == 0 {
		return false
	}
	// Quick bounding box check first
	pb, ob := p.BBox(), other.BBox()
	if ob.MinX < pb.MinX || ob.MaxX > pb.MaxX || ob.MinY < pb.MinY || ob.MaxY > pb.MaxY {
		return false
	}
	for _, vertex := range other.Vertices {
		if !p.Contains(vertex) {
			return false
		}
	}
	return true
}

// Offset returns the polygon grown outward by margin, moving each vertex
// along its angle bisector with a miter correction so every edge of the
// result keeps at least margin distance from the original boundary.
// Exact for convex polygons; approximate at reflex vertices, which is
// acceptable because callers take the convex hull of the result.
func (p Polygon) Offset(margin float64) Polygon {
	n := len(p.Vertices)
	if n < 3 || margin <= 0 {
		return p
	}

	// Determine winding so the bisector is pushed outward.
	var area float64
	for i := 0; i < n; i++ {
		a, b := p.Vertices[i], p.Vertices[(i+1)%n]
		area += a.X*b.Y - b.X*a.Y
	}
	ccw := area > 0

	out := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		prev := p.Vertices[(i+n-1)%n]
		cur := p.Vertices[i]
		next := p.Vertices[(i+1)%n]

		// Outward normals of the two edges meeting at cur.
		n1 := edgeNormal(prev, cur, ccw)
		n2 := edgeNormal(cur, next, ccw)

		bx, by := n1.X+n2.X, n1.Y+n2.Y
		mag := math.Hypot(bx, by)
		if mag < 1e-12 {
			// Degenerate spike; fall back to the first normal.
			bx, by, mag = n1.X, n1.Y, 1
		} else {
			bx, by = bx/mag, by/mag
		}
		// Miter factor: bisector dot normal gives cos(half turn angle).
		scale := margin / math.Max(bx*n1.X+by*n1.Y, 0.5)
		out = append(out, Point{X: cur.X + bx*scale, Y: cur.Y + by*scale})
	}
	return Polygon{Vertices: out}
}

func edgeNormal(a, b Point, ccw bool) Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	mag := math.Hypot(dx, dy)
	if mag < 1e-12 {
		return Point{}
	}
	if ccw {
		return Point{X: dy / mag, Y: -dx / mag}
	}
	return Point{X: -dy / mag, Y: dx / mag}
}

// ConvexHull computes the convex hull of a point set using Graham scan.
func ConvexHull(points []Point) []Point {
	if len(points) < 3 {
		return points
	}

	pts := make([]Point, len(points))
	copy(pts, points)

	// Find the point with lowest Y (and lowest X if tied)
	start := 0
	for i := 1; i < len(pts); i++ {
		if pts[i].Y < pts[start].Y ||
			(pts[i].Y == pts[start].Y && pts[i].X < pts[start].X) {
			start = i
		}
	}
	pts[0], pts[start] = pts[start], pts[0]
	pivot := pts[0]

	sorted := pts[1:]
	// Simple insertion sort by polar angle (hulls here are small)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && polarAngle(pivot, sorted[j]) < polarAngle(pivot, sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	hull := []Point{pivot, sorted[0]}
	for i := 1; i < len(sorted); i++ {
		for len(hull) > 1 && crossProduct(hull[len(hull)-2], hull[len(hull)-1], sorted[i]) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, sorted[i])
	}

	return hull
}

// polarAngle calculates the polar angle from pivot to point
func polarAngle(pivot, point Point) float64 {
	return math.Atan2(point.Y-pivot.Y, point.X-pivot.X)
}

// crossProduct calculates the cross product of vectors (b-a) and (c-a)
func crossProduct(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}
