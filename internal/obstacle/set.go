// Package obstacle provides buffered exclusion-zone storage and the
// collision oracle used by every planning tier. A Set is immutable after
// construction and safe for concurrent queries.
package obstacle

import (
	"errors"
	"fmt"

	"github.com/dhconnelly/rtreego"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
)

// DefaultBoundaryEpsilon tolerates paths touching the buffered boundary,
// e.g. a line endpoint lying exactly on an exclusion-zone edge.
const DefaultBoundaryEpsilon = 1e-6

var (
	// ErrNotSimple is returned for self-intersecting obstacle polygons.
	ErrNotSimple = errors.New("obstacle: polygon is not simple")
	// ErrTooFewVertices is returned for degenerate obstacle polygons.
	ErrTooFewVertices = errors.New("obstacle: polygon needs at least 3 vertices")
	// ErrNegativeBuffer is returned for a negative safety buffer.
	ErrNegativeBuffer = errors.New("obstacle: buffer must be non-negative")
)

// Obstacle is an exclusion zone: a simple polygon plus a safety buffer
// distance a path must keep from its boundary.
type Obstacle struct {
	ID      int
	Ring    geom.Polygon
	Buffer  float64
	bbox    rtreego.Rect
}

// New validates and builds an obstacle.
func New(id int, ring geom.Polygon, buffer float64) (*Obstacle, error) {
	if len(ring.Vertices) < 3 {
		return nil, ErrTooFewVertices
	}
	if !ring.IsSimple() {
		return nil, fmt.Errorf("%w (obstacle %d)", ErrNotSimple, id)
	}
	if buffer < 0 {
		return nil, ErrNegativeBuffer
	}
	o := &Obstacle{ID: id, Ring: ring, Buffer: buffer}
	bb := ring.BBox().Expand(buffer)
	rect, err := rtreego.NewRect(
		rtreego.Point{bb.MinX, bb.MinY},
		[]float64{bb.MaxX - bb.MinX, bb.MaxY - bb.MinY},
	)
	if err != nil {
		return nil, fmt.Errorf("obstacle %d bounds: %w", id, err)
	}
	o.bbox = rect
	return o, nil
}

// Bounds implements rtreego.Spatial; the box is already buffer-expanded.
func (o *Obstacle) Bounds() rtreego.Rect {
	return o.bbox
}

// blocks reports whether a segment comes closer than the safety buffer to
// the obstacle, crosses it, or lies inside it. Crossing and containment
// block unconditionally; the epsilon tolerance applies only to the
// clearance test, so a zero-buffer zone still blocks its interior.
func (o *Obstacle) blocks(seg geom.Segment, epsilon float64) bool {
	if o.Ring.IntersectsSegment(seg) || o.Ring.Contains(seg.P1) || o.Ring.Contains(seg.P2) {
		return true
	}
	return o.Ring.DistanceToSegment(seg) < o.Buffer-epsilon
}

// blocksPoint reports whether a point is inside the obstacle or within the
// safety buffer of its boundary.
func (o *Obstacle) blocksPoint(p geom.Point, epsilon float64) bool {
	if o.Ring.Contains(p) {
		return true
	}
	return o.Ring.DistanceToPoint(p) < o.Buffer-epsilon
}

// Set is an immutable collection of obstacles indexed by an R-tree over
// buffer-expanded bounding boxes.
type Set struct {
	tree      *rtreego.Rtree
	obstacles []*Obstacle
	epsilon   float64
}

// NewSet validates the polygons, drops those fully contained in another
// (they cannot change any query result), and indexes the rest.
func NewSet(obstacles []*Obstacle, epsilon float64) (*Set, error) {
	if epsilon <= 0 {
		epsilon = DefaultBoundaryEpsilon
	}
	kept := dropContained(obstacles)

	tree := rtreego.NewTree(2, 25, 50)
	for _, o := range kept {
		tree.Insert(o)
	}
	return &Set{tree: tree, obstacles: kept, epsilon: epsilon}, nil
}

// NewSetFromPolygons builds a Set applying the same buffer to every polygon.
func NewSetFromPolygons(polygons []geom.Polygon, buffer, epsilon float64) (*Set, error) {
	obstacles := make([]*Obstacle, 0, len(polygons))
	for i, ring := range polygons {
		o, err := New(i, ring, buffer)
		if err != nil {
			return nil, err
		}
		obstacles = append(obstacles, o)
	}
	return NewSet(obstacles, epsilon)
}

// dropContained removes obstacles fully inside another obstacle.
func dropContained(obstacles []*Obstacle) []*Obstacle {
	if len(obstacles) <= 1 {
		return obstacles
	}
	contained := make([]bool, len(obstacles))
	for i := range obstacles {
		if contained[i] {
			continue
		}
		for j := range obstacles {
			if i == j || contained[j] {
				continue
			}
			if obstacles[j].Ring.ContainsPolygon(obstacles[i].Ring) &&
				obstacles[j].Buffer >= obstacles[i].Buffer {
				contained[i] = true
				break
			}
		}
	}
	kept := make([]*Obstacle, 0, len(obstacles))
	for i, o := range obstacles {
		if !contained[i] {
			kept = append(kept, o)
		}
	}
	return kept
}

// Len returns the number of indexed obstacles.
func (s *Set) Len() int {
	return len(s.obstacles)
}

// Obstacles returns the indexed obstacles. Callers must not mutate them.
func (s *Set) Obstacles() []*Obstacle {
	return s.obstacles
}

// Epsilon returns the boundary tolerance used by queries.
func (s *Set) Epsilon() float64 {
	return s.epsilon
}

// BBox returns the bounding box of all obstacles including buffers.
// ok is false for an empty set.
func (s *Set) BBox() (geom.BBox, bool) {
	if len(s.obstacles) == 0 {
		return geom.BBox{}, false
	}
	bb := s.obstacles[0].Ring.BBox().Expand(s.obstacles[0].Buffer)
	for _, o := range s.obstacles[1:] {
		bb = bb.Union(o.Ring.BBox().Expand(o.Buffer))
	}
	return bb, true
}

// query returns obstacles whose buffered bounds intersect the given box.
func (s *Set) query(bb geom.BBox) []*Obstacle {
	if len(s.obstacles) == 0 {
		return nil
	}
	rect, err := rtreego.NewRect(
		rtreego.Point{bb.MinX, bb.MinY},
		[]float64{bb.MaxX - bb.MinX + 1e-9, bb.MaxY - bb.MinY + 1e-9},
	)
	if err != nil {
		return nil
	}
	results := s.tree.SearchIntersect(rect)
	out := make([]*Obstacle, 0, len(results))
	for _, item := range results {
		out = append(out, item.(*Obstacle))
	}
	return out
}

// PointBlocked reports whether a point is inside any obstacle or within an
// obstacle's buffer of its boundary.
func (s *Set) PointBlocked(p geom.Point) bool {
	for _, o := range s.query(geom.BBoxOf([]geom.Point{p})) {
		if o.blocksPoint(p, s.epsilon) {
			return true
		}
	}
	return false
}

// SegmentBlocked reports whether the straight segment a-b violates any
// obstacle's buffered boundary or passes through an obstacle.
func (s *Set) SegmentBlocked(a, b geom.Point) bool {
	seg := geom.Segment{P1: a, P2: b}
	for _, o := range s.query(geom.BBoxOf([]geom.Point{a, b})) {
		if o.blocks(seg, s.epsilon) {
			return true
		}
	}
	return false
}

// PolylineBlocked reports whether any segment of the polyline is blocked.
func (s *Set) PolylineBlocked(points []geom.Point) bool {
	if len(points) == 1 {
		return s.PointBlocked(points[0])
	}
	for i := 0; i+1 < len(points); i++ {
		if s.SegmentBlocked(points[i], points[i+1]) {
			return true
		}
	}
	return false
}

// PathBlocked is PolylineBlocked over an oriented-point sequence.
func (s *Set) PathBlocked(configs []geom.Config) bool {
	return s.PolylineBlocked(geom.ConfigsToPoints(configs))
}

// Crossing returns the obstacles whose buffered region the segment a-b
// violates, in index order.
func (s *Set) Crossing(a, b geom.Point) []*Obstacle {
	seg := geom.Segment{P1: a, P2: b}
	var out []*Obstacle
	for _, o := range s.obstacles {
		if o.blocks(seg, s.epsilon) {
			out = append(out, o)
		}
	}
	return out
}
