package planner

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/obstacle"
)

// circle approximates a circular exclusion zone as a regular polygon.
func circle(cx, cy, radius float64, vertices int) geom.Polygon {
	pts := make([]geom.Point, vertices)
	for i := range pts {
		ang := 2 * math.Pi * float64(i) / float64(vertices)
		pts[i] = geom.Point{X: cx + radius*math.Cos(ang), Y: cy + radius*math.Sin(ang)}
	}
	return geom.Polygon{Vertices: pts}
}

func surveyConstraints() VesselConstraints {
	return VesselConstraints{TurnRadius: 150, StepSize: 50, Speed: 2.5}
}

func newOrchestrator(t *testing.T, set *obstacle.Set, constraints VesselConstraints, seed int64) *Orchestrator {
	t.Helper()
	return &Orchestrator{
		Obstacles:   set,
		Constraints: constraints,
		Opts:        DefaultOptions(rand.New(rand.NewSource(seed))),
	}
}

func lineThrough(start, end geom.Point) SurveyLine {
	return SurveyLine{
		Number:  1,
		Start:   start,
		End:     end,
		Heading: geom.HeadingBetween(start, end),
	}
}

func TestPlanDeviationClearLine(t *testing.T) {
	t.Parallel()

	orch := newOrchestrator(t, emptySet(t), surveyConstraints(), 1)
	line := lineThrough(geom.Point{X: 0, Y: 0}, geom.Point{X: 1000, Y: 0})

	dev, diag, err := orch.PlanDeviation(context.Background(), line)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, dev.Status)
	assert.Equal(t, TierNone, dev.Tier)
	assert.Equal(t, []Tier{TierNone}, diag.TiersTried)
	require.Len(t, dev.Polyline, 2)
	assert.InDelta(t, 1000, dev.Length, 1e-9)
}

func TestPlanDeviationAroundCircle(t *testing.T) {
	t.Parallel()

	// A circular zone sitting on the line: single convex obstacle, so the
	// tangent-bypass tier should resolve it.
	set, err := obstacle.NewSetFromPolygons(
		[]geom.Polygon{circle(500, 0, 100, 24)}, 10, 0)
	require.NoError(t, err)

	orch := newOrchestrator(t, set, surveyConstraints(), 1)
	line := lineThrough(geom.Point{X: 0, Y: 0}, geom.Point{X: 1000, Y: 0})

	dev, diag, err := orch.PlanDeviation(context.Background(), line)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, dev.Status)
	assert.Equal(t, TierTangent, dev.Tier)
	assert.Contains(t, diag.TiersTried, TierTangent)

	// The deviation leaves and rejoins on the line heading.
	assert.InDelta(t, 0, dev.Exit.Heading, 1e-9)
	assert.InDelta(t, 0, dev.Entry.Heading, 1e-9)
	assert.InDelta(t, 0, dev.Exit.Y, 1e-9)
	assert.InDelta(t, 0, dev.Entry.Y, 1e-9)
	assert.Less(t, dev.Exit.X, 400.0)
	assert.Greater(t, dev.Entry.X, 600.0)

	// Validated clear of the buffered zone, and no longer than twice the
	// straight window it replaces.
	assert.False(t, set.PathBlocked(dev.Polyline))
	window := dev.Exit.Distance(dev.Entry)
	assert.GreaterOrEqual(t, dev.Length, window)
	assert.Less(t, dev.Length, 2*window)

	// Splicing the detour into the line costs at most 260 m of extra track.
	spliced := line.Length() - window + dev.Length
	assert.GreaterOrEqual(t, spliced, 1000.0)
	assert.LessOrEqual(t, spliced, 1260.0)
}

func TestPlanDeviationZeroBufferZone(t *testing.T) {
	t.Parallel()

	// A zone loaded without a safety buffer must still be routed around,
	// never returned as a clear line.
	set, err := obstacle.NewSetFromPolygons(
		[]geom.Polygon{circle(500, 0, 100, 24)}, 0, 0)
	require.NoError(t, err)

	orch := newOrchestrator(t, set, surveyConstraints(), 1)
	line := lineThrough(geom.Point{X: 0, Y: 0}, geom.Point{X: 1000, Y: 0})

	dev, diag, err := orch.PlanDeviation(context.Background(), line)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, dev.Status)
	assert.NotEqual(t, TierNone, dev.Tier)
	assert.NotContains(t, diag.TiersTried, TierNone)
	assert.False(t, set.PathBlocked(dev.Polyline))
}

func TestTangentBypassNoLongerThanTreeSearch(t *testing.T) {
	t.Parallel()

	set, err := obstacle.NewSetFromPolygons(
		[]geom.Polygon{circle(500, 0, 100, 24)}, 10, 0)
	require.NoError(t, err)

	orch := newOrchestrator(t, set, surveyConstraints(), 1)
	line := lineThrough(geom.Point{X: 0, Y: 0}, geom.Point{X: 1000, Y: 0})

	dev, _, err := orch.PlanDeviation(context.Background(), line)
	require.NoError(t, err)
	require.Equal(t, TierTangent, dev.Tier)

	// Run the randomized tier on the same window; the taut tangent chain
	// should not lose to a sampled and refined route.
	tp := &TreePlanner{
		Obstacles:   set,
		Constraints: orch.Constraints,
		Opts:        DefaultOptions(rand.New(rand.NewSource(7))),
	}
	waypoints, status, _, err := tp.Plan(context.Background(), dev.Exit, dev.Entry)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, status)

	refiner := &Refiner{Obstacles: set, TurnRadius: orch.Constraints.TurnRadius}
	_, treeLength, refStatus := refiner.Refine(waypoints)
	require.Equal(t, StatusSuccess, refStatus)

	assert.LessOrEqual(t, dev.Length, treeLength*1.05)
}

func TestPlanDeviationTreeSearchFallback(t *testing.T) {
	t.Parallel()

	// An L-shaped zone is not convex, so the tangent tier is skipped, and
	// the straight exit-to-entry curvature path runs through it, so the
	// direct tier fails too. Only the tree search remains.
	l := geom.Polygon{Vertices: []geom.Point{
		{X: 450, Y: -80}, {X: 550, Y: -80}, {X: 550, Y: 80},
		{X: 500, Y: 80}, {X: 500, Y: -20}, {X: 450, Y: -20},
	}}
	set, err := obstacle.NewSetFromPolygons([]geom.Polygon{l}, 10, 0)
	require.NoError(t, err)

	constraints := VesselConstraints{TurnRadius: 50, StepSize: 50, Speed: 2.5}
	orch := newOrchestrator(t, set, constraints, 11)
	line := lineThrough(geom.Point{X: 0, Y: 0}, geom.Point{X: 1000, Y: 0})

	dev, diag, err := orch.PlanDeviation(context.Background(), line)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, dev.Status)
	assert.Equal(t, TierTreeSearch, dev.Tier)
	assert.Equal(t, []Tier{TierDirect, TierTreeSearch}, diag.TiersTried)
	assert.Positive(t, diag.Iterations)
	assert.False(t, set.PathBlocked(dev.Polyline))
}

func TestPlanDeviationCancelled(t *testing.T) {
	t.Parallel()

	l := geom.Polygon{Vertices: []geom.Point{
		{X: 450, Y: -80}, {X: 550, Y: -80}, {X: 550, Y: 80},
		{X: 500, Y: 80}, {X: 500, Y: -20}, {X: 450, Y: -20},
	}}
	set, err := obstacle.NewSetFromPolygons([]geom.Polygon{l}, 10, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := DefaultOptions(rand.New(rand.NewSource(1)))
	opts.CheckpointEvery = 1
	orch := &Orchestrator{
		Obstacles:   set,
		Constraints: VesselConstraints{TurnRadius: 50, StepSize: 50, Speed: 2.5},
		Opts:        opts,
	}

	dev, _, err := orch.PlanDeviation(ctx, lineThrough(geom.Point{X: 0, Y: 0}, geom.Point{X: 1000, Y: 0}))
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, dev.Status)
	assert.Empty(t, dev.Polyline)
}

func TestPlanDeviationUnresolvable(t *testing.T) {
	t.Parallel()

	// The line ends inside a sealed zone; no tier can reach the re-entry.
	box := geom.Polygon{Vertices: []geom.Point{
		{X: 800, Y: -200}, {X: 1200, Y: -200}, {X: 1200, Y: 200}, {X: 800, Y: 200},
	}}
	set, err := obstacle.NewSetFromPolygons([]geom.Polygon{box}, 20, 0)
	require.NoError(t, err)

	opts := DefaultOptions(rand.New(rand.NewSource(2)))
	opts.MaxIterations = 300
	orch := &Orchestrator{
		Obstacles:   set,
		Constraints: VesselConstraints{TurnRadius: 50, StepSize: 50, Speed: 2.5},
		Opts:        opts,
	}

	dev, diag, err := orch.PlanDeviation(context.Background(),
		lineThrough(geom.Point{X: 0, Y: 0}, geom.Point{X: 1000, Y: 0}))
	require.NoError(t, err)
	assert.Equal(t, StatusUnresolvable, dev.Status)
	assert.Nil(t, dev.Polyline)
	assert.Contains(t, diag.TiersTried, TierTreeSearch)
}

func TestPlanDeviationInputErrors(t *testing.T) {
	t.Parallel()

	t.Run("zero-length line", func(t *testing.T) {
		t.Parallel()
		orch := newOrchestrator(t, emptySet(t), surveyConstraints(), 1)
		_, _, err := orch.PlanDeviation(context.Background(),
			lineThrough(geom.Point{X: 5, Y: 5}, geom.Point{X: 5, Y: 5}))
		var inputErr *InputError
		require.ErrorAs(t, err, &inputErr)
	})

	t.Run("invalid constraints", func(t *testing.T) {
		t.Parallel()
		orch := &Orchestrator{
			Obstacles:   emptySet(t),
			Constraints: VesselConstraints{},
			Opts:        DefaultOptions(rand.New(rand.NewSource(1))),
		}
		_, _, err := orch.PlanDeviation(context.Background(),
			lineThrough(geom.Point{X: 0, Y: 0}, geom.Point{X: 1, Y: 0}))
		var inputErr *InputError
		require.ErrorAs(t, err, &inputErr)
	})
}
