package dubins

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
)

func TestShortestInputValidation(t *testing.T) {
	t.Parallel()

	start := geom.Config{X: 0, Y: 0, Heading: 0}
	end := geom.Config{X: 100, Y: 0, Heading: 0}

	_, err := Shortest(start, end, 0)
	assert.ErrorIs(t, err, ErrRadius)

	_, err = Shortest(start, end, math.Inf(1))
	assert.ErrorIs(t, err, ErrRadius)

	_, err = Shortest(geom.Config{X: math.NaN()}, end, 10)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestShortestDegenerate(t *testing.T) {
	t.Parallel()

	cfg := geom.Config{X: 42, Y: -7, Heading: 1.2}
	path, err := Shortest(cfg, cfg, 150)
	require.NoError(t, err)
	assert.Zero(t, path.Length)
	assert.Empty(t, path.Segments)
	require.Len(t, path.Polyline, 1)
	assert.Equal(t, cfg, path.Polyline[0])
}

func TestShortestStraightLine(t *testing.T) {
	t.Parallel()

	// Aligned configurations on a common heading reduce to a straight run.
	start := geom.Config{X: 0, Y: 0, Heading: 0}
	end := geom.Config{X: 500, Y: 0, Heading: 0}
	path, err := Shortest(start, end, 150)
	require.NoError(t, err)
	assert.InDelta(t, 500, path.Length, 1e-6)
	assertPathEndsAt(t, path, end)
}

func TestShortestUTurn(t *testing.T) {
	t.Parallel()

	// Reciprocal headings one turn diameter apart make a perfect half circle.
	radius := 150.0
	start := geom.Config{X: 0, Y: 0, Heading: 0}
	end := geom.Config{X: 0, Y: 2 * radius, Heading: math.Pi}
	path, err := Shortest(start, end, radius)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi*radius, path.Length, 1e-6)
	assertPathEndsAt(t, path, end)
}

func TestShortestNeverBeatsEuclidean(t *testing.T) {
	t.Parallel()

	start := geom.Config{X: 0, Y: 0, Heading: 0.3}
	headings := []float64{0, math.Pi / 2, math.Pi, -math.Pi / 2, 2.1}
	targets := []geom.Point{
		{X: 400, Y: 0}, {X: -350, Y: 120}, {X: 60, Y: 60},
		{X: 0, Y: -500}, {X: 1000, Y: 1000},
	}

	for _, target := range targets {
		for _, h := range headings {
			end := geom.Config{X: target.X, Y: target.Y, Heading: h}
			path, err := Shortest(start, end, 100)
			require.NoError(t, err)
			euclid := start.Distance(end)
			assert.GreaterOrEqual(t, path.Length+1e-9, euclid,
				"path to (%v,%v)@%v shorter than straight-line distance", target.X, target.Y, h)
			assertPathEndsAt(t, path, end)
		}
	}
}

func TestShortestCurvatureBound(t *testing.T) {
	t.Parallel()

	radius := 100.0
	start := geom.Config{X: 0, Y: 0, Heading: 0}
	end := geom.Config{X: 80, Y: 150, Heading: -2.5}
	path, err := Shortest(start, end, radius)
	require.NoError(t, err)

	// Sampled heading change per arc length never exceeds 1/radius.
	pts := path.Sample(1.0)
	for i := 1; i < len(pts); i++ {
		ds := pts[i-1].Distance(pts[i])
		if ds < 1e-6 {
			continue
		}
		dh := math.Abs(geom.NormalizeAngle(pts[i].Heading - pts[i-1].Heading))
		assert.LessOrEqual(t, dh/ds, 1/radius*1.01,
			"curvature violated between samples %d and %d", i-1, i)
	}
}

func TestShortestTieBreakPrefersCSC(t *testing.T) {
	t.Parallel()

	// Short translations with identical headings admit CCC and CSC
	// solutions of comparable length; the three-segment word must only
	// win when strictly shorter.
	start := geom.Config{X: 0, Y: 0, Heading: 0}
	end := geom.Config{X: 150, Y: 10, Heading: 0}
	path, err := Shortest(start, end, 100)
	require.NoError(t, err)
	assert.Contains(t, []Word{LSL, RSR, LSR, RSL}, path.Word)
}

func TestSampleResolution(t *testing.T) {
	t.Parallel()

	start := geom.Config{X: 0, Y: 0, Heading: 0}
	end := geom.Config{X: 300, Y: 200, Heading: 1.0}
	path, err := Shortest(start, end, 120)
	require.NoError(t, err)

	coarse := path.Sample(20)
	fine := path.Sample(2)
	assert.Greater(t, len(fine), len(coarse))

	// Consecutive fine samples stay within the requested step.
	for i := 1; i < len(fine); i++ {
		assert.LessOrEqual(t, fine[i-1].Distance(fine[i]), 2.0+1e-9)
	}

	// Both resolutions start and end at the same configurations.
	assert.Equal(t, coarse[0], fine[0])
	assert.InDelta(t, coarse[len(coarse)-1].X, fine[len(fine)-1].X, 1e-6)
	assert.InDelta(t, coarse[len(coarse)-1].Y, fine[len(fine)-1].Y, 1e-6)
}

func TestCurve(t *testing.T) {
	t.Parallel()

	t.Run("semicircle between diameter endpoints", func(t *testing.T) {
		t.Parallel()
		a := geom.Point{X: 0, Y: 0}
		b := geom.Point{X: 0, Y: 200}
		path, err := Curve(a, b, 100, false)
		require.NoError(t, err)
		assert.InDelta(t, math.Pi*100, path.Length, 1e-6)
		assert.InDelta(t, b.X, path.End.X, 1e-6)
		assert.InDelta(t, b.Y, path.End.Y, 1e-6)
	})

	t.Run("clockwise and counter-clockwise arcs mirror", func(t *testing.T) {
		t.Parallel()
		a := geom.Point{X: 0, Y: 0}
		b := geom.Point{X: 100, Y: 0}
		cw, err := Curve(a, b, 80, true)
		require.NoError(t, err)
		ccw, err := Curve(a, b, 80, false)
		require.NoError(t, err)
		assert.InDelta(t, cw.Length, ccw.Length, 1e-6)

		// The two arcs bulge to opposite sides of the chord.
		var cwMaxY, ccwMinY float64
		for _, p := range cw.Polyline {
			cwMaxY = math.Max(cwMaxY, p.Y)
		}
		for _, p := range ccw.Polyline {
			ccwMinY = math.Min(ccwMinY, p.Y)
		}
		assert.Greater(t, cwMaxY, 1.0)
		assert.Less(t, ccwMinY, -1.0)
	})

	t.Run("chord longer than diameter fails", func(t *testing.T) {
		t.Parallel()
		_, err := Curve(geom.Point{X: 0, Y: 0}, geom.Point{X: 500, Y: 0}, 100, true)
		assert.ErrorIs(t, err, ErrChord)
	})

	t.Run("coincident points yield a zero-length path", func(t *testing.T) {
		t.Parallel()
		p := geom.Point{X: 3, Y: 4}
		path, err := Curve(p, p, 100, false)
		require.NoError(t, err)
		assert.Zero(t, path.Length)
	})
}

// assertPathEndsAt checks the sampled polyline terminates at the goal.
func assertPathEndsAt(t *testing.T, path Path, end geom.Config) {
	t.Helper()
	require.NotEmpty(t, path.Polyline)
	last := path.Polyline[len(path.Polyline)-1]
	assert.InDelta(t, end.X, last.X, 1e-6)
	assert.InDelta(t, end.Y, last.Y, 1e-6)
	assert.InDelta(t, 0, geom.NormalizeAngle(last.Heading-end.Heading), 1e-6)
}
