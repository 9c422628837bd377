package planner

import (
	"context"
	"math"
	"sort"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/dubins"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/obstacle"
)

// maxDirectObstacles is the largest blocking-obstacle count for which the
// direct curvature-path tier is still attempted before tree search.
const maxDirectObstacles = 3

// Orchestrator selects the cheapest deviation algorithm that yields a
// validated path: tangent bypass, direct curvature path, then tree search
// with refinement. Every tier's output passes the same final validation.
type Orchestrator struct {
	Obstacles   *obstacle.Set
	Constraints VesselConstraints
	Opts        Options
}

// PlanDeviation routes one survey line around the obstacles it crosses.
// The error return is reserved for invalid input; planning failures are
// reported through DeviationPath.Status (Unresolvable, Cancelled).
func (o *Orchestrator) PlanDeviation(ctx context.Context, line SurveyLine) (DeviationPath, Diagnostics, error) {
	diag := Diagnostics{}
	if err := o.Constraints.Validate(); err != nil {
		return DeviationPath{}, diag, err
	}
	if line.Length() < 1e-9 {
		return DeviationPath{}, diag, &InputError{Reason: "zero-length survey line"}
	}

	blocking := line.Blocking
	if len(blocking) == 0 {
		blocking = o.Obstacles.Crossing(line.Start, line.End)
	}

	// Tier 1: clear line, identity deviation.
	if len(blocking) == 0 {
		entry := geom.Config{X: line.Start.X, Y: line.Start.Y, Heading: line.Heading}
		exit := geom.Config{X: line.End.X, Y: line.End.Y, Heading: line.Heading}
		diag.Tier = TierNone
		diag.TiersTried = append(diag.TiersTried, TierNone)
		return DeviationPath{
			Line:     line.Number,
			Exit:     entry,
			Entry:    exit,
			Polyline: []geom.Config{entry, exit},
			Length:   line.Length(),
			Tier:     TierNone,
			Status:   StatusSuccess,
		}, diag, nil
	}

	exit, entry := o.deviationWindow(line, blocking)
	refiner := &Refiner{Obstacles: o.Obstacles, TurnRadius: o.Constraints.TurnRadius}

	// Tier 2: single convex obstacle, tangent bypass.
	if len(blocking) == 1 && blocking[0].Ring.IsConvex() {
		diag.TiersTried = append(diag.TiersTried, TierTangent)
		if waypoints := tangentBypass(exit, entry, blocking[0], o.Constraints.TurnRadius); waypoints != nil {
			if polyline, length, status := refiner.Refine(waypoints); status == StatusSuccess {
				diag.Tier = TierTangent
				return DeviationPath{
					Line: line.Number, Exit: exit, Entry: entry,
					Polyline: polyline, Length: length,
					Tier: TierTangent, Status: StatusSuccess,
				}, diag, nil
			}
		}
	}

	// Tier 3: direct constrained curvature path for simple conflicts.
	if len(blocking) <= maxDirectObstacles {
		diag.TiersTried = append(diag.TiersTried, TierDirect)
		if direct, err := dubins.Shortest(exit, entry, o.Constraints.TurnRadius); err == nil &&
			!o.Obstacles.PathBlocked(direct.Polyline) {
			diag.Tier = TierDirect
			return DeviationPath{
				Line: line.Number, Exit: exit, Entry: entry,
				Polyline: direct.Polyline, Length: direct.Length,
				Tier: TierDirect, Status: StatusSuccess,
			}, diag, nil
		}
	}

	// Tier 4: randomized tree search plus refinement.
	diag.TiersTried = append(diag.TiersTried, TierTreeSearch)
	tp := &TreePlanner{Obstacles: o.Obstacles, Constraints: o.Constraints, Opts: o.Opts}
	waypoints, status, searchDiag, err := tp.Plan(ctx, exit, entry)
	diag.Iterations = searchDiag.Iterations
	diag.NodesAdded = searchDiag.NodesAdded
	diag.SamplesRejected = searchDiag.SamplesRejected
	diag.EdgesRejected = searchDiag.EdgesRejected
	if err != nil {
		return DeviationPath{}, diag, err
	}
	switch status {
	case StatusCancelled:
		return DeviationPath{Line: line.Number, Tier: TierTreeSearch, Status: StatusCancelled}, diag, nil
	case StatusSuccess:
		if polyline, length, refStatus := refiner.Refine(waypoints); refStatus == StatusSuccess {
			diag.Tier = TierTreeSearch
			return DeviationPath{
				Line: line.Number, Exit: exit, Entry: entry,
				Polyline: polyline, Length: length,
				Tier: TierTreeSearch, Status: StatusSuccess,
			}, diag, nil
		}
	}

	// Every tier failed; recoverable at the caller level.
	return DeviationPath{Line: line.Number, Status: StatusUnresolvable}, diag, nil
}

// deviationWindow locates where the line first and last violates the
// blocking obstacles and pushes exit/re-entry one turn radius beyond, so
// the vessel has room to peel off and line back up.
func (o *Orchestrator) deviationWindow(line SurveyLine, blocking []*obstacle.Obstacle) (exit, entry geom.Config) {
	seg := geom.Segment{P1: line.Start, P2: line.End}
	length := line.Length()

	var params []float64
	for _, obs := range blocking {
		inflated := obs.Ring.Offset(math.Max(obs.Buffer, 1e-3))
		hull := geom.Polygon{Vertices: geom.ConvexHull(inflated.Vertices)}
		for i := range hull.Vertices {
			params = append(params, seg.IntersectionParams(hull.Edge(i))...)
		}
		if hull.Contains(line.Start) {
			params = append(params, 0)
		}
		if hull.Contains(line.End) {
			params = append(params, 1)
		}
	}

	tMin, tMax := 0.0, 1.0
	if len(params) > 0 {
		sort.Float64s(params)
		tMin, tMax = params[0], params[len(params)-1]
	}

	lead := o.Constraints.TurnRadius / length
	exitT := math.Max(0, tMin-lead)
	entryT := math.Min(1, tMax+lead)

	exitPt := line.Start.Lerp(line.End, exitT)
	entryPt := line.Start.Lerp(line.End, entryT)
	exit = geom.Config{X: exitPt.X, Y: exitPt.Y, Heading: line.Heading}
	entry = geom.Config{X: entryPt.X, Y: entryPt.Y, Heading: line.Heading}
	return exit, entry
}
