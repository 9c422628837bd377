package planner

import (
	"math"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/dubins"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/obstacle"
)

// tangentBypass builds the taut-string detour around a single convex
// obstacle: the chain of tangent points along the buffered hull between the
// exit and re-entry points, shorter side chosen. Corners wide enough to take
// a minimum-radius fillet are joined with a tangent arc on the spot; the
// rest keep the chord heading for the caller to smooth and validate.
func tangentBypass(exit, entry geom.Config, obs *obstacle.Obstacle, turnRadius float64) []geom.Config {
	// Inflate beyond the safety buffer so the arc fitted at each tangency
	// keeps clearance after corner cutting.
	slack := math.Max(2, 0.1*turnRadius)
	inflated := obs.Ring.Offset(obs.Buffer + slack)
	hull := geom.ConvexHull(inflated.Vertices)
	if len(hull) < 3 {
		return nil
	}

	exitPt, entryPt := exit.Point(), entry.Point()
	combined := geom.ConvexHull(append(append([]geom.Point{}, hull...), exitPt, entryPt))

	exitIdx, entryIdx := -1, -1
	for i, p := range combined {
		if p == exitPt {
			exitIdx = i
		}
		if p == entryPt {
			entryIdx = i
		}
	}
	if exitIdx < 0 || entryIdx < 0 {
		// An endpoint fell inside the hull; no tangent chain exists.
		return nil
	}

	side1 := hullChain(combined, exitIdx, entryIdx)
	side2 := reversePoints(hullChain(combined, entryIdx, exitIdx))

	chain := side1
	if geom.PolylineLength(side2) < geom.PolylineLength(side1) {
		chain = side2
	}
	if len(chain) < 2 {
		return nil
	}

	waypoints := []geom.Config{exit}
	for i := 1; i+1 < len(chain); i++ {
		if fillet, ok := filletCorner(chain[i-1], chain[i], chain[i+1], turnRadius); ok {
			waypoints = append(waypoints, fillet...)
			continue
		}
		// Heading at each tangency follows the chord past the vertex.
		heading := geom.HeadingBetween(chain[i-1], chain[i+1])
		waypoints = append(waypoints, geom.Config{X: chain[i].X, Y: chain[i].Y, Heading: heading})
	}
	waypoints = append(waypoints, entry)
	return waypoints
}

// filletCorner replaces the corner at cur with an arc of the given radius
// tangent to both incident edges. It fails when the edges are too short to
// hold the backed-off tangency points, leaving the raw vertex in place.
func filletCorner(prev, cur, next geom.Point, radius float64) ([]geom.Config, bool) {
	inLen, outLen := prev.Distance(cur), cur.Distance(next)
	if inLen < 1e-9 || outLen < 1e-9 {
		return nil, false
	}
	inHeading := geom.HeadingBetween(prev, cur)
	outHeading := geom.HeadingBetween(cur, next)
	turn := geom.NormalizeAngle(outHeading - inHeading)
	if math.Abs(turn) < 1e-9 {
		return nil, false
	}
	back := radius * math.Tan(math.Abs(turn)/2)
	if back > inLen/2 || back > outLen/2 {
		return nil, false
	}
	start := cur.Lerp(prev, back/inLen)
	end := cur.Lerp(next, back/outLen)
	arc, err := dubins.Curve(start, end, radius, turn < 0)
	if err != nil {
		return nil, false
	}
	return arc.Polyline, true
}

// hullChain walks a convex hull from index from to index to in ring order.
func hullChain(hull []geom.Point, from, to int) []geom.Point {
	n := len(hull)
	chain := []geom.Point{hull[from]}
	for i := (from + 1) % n; ; i = (i + 1) % n {
		chain = append(chain, hull[i])
		if i == to {
			break
		}
	}
	return chain
}

func reversePoints(points []geom.Point) []geom.Point {
	out := make([]geom.Point, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}
