package planner

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/dubins"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/obstacle"
)

const pi = math.Pi

// Defaults for tree search options.
const (
	DefaultStepSize        = 50.0
	DefaultMaxIterations   = 20000
	DefaultGoalBias        = 0.2
	DefaultGoalTolerance   = 25.0
	DefaultCheckpointEvery = 500

	// goalConnectEvery iterations, nodes near the goal attempt a direct
	// curvature-path connection instead of waiting for sampling luck.
	goalConnectEvery = 50
)

// Options configures the randomized tree search. Rand is mandatory: all
// sampling flows through it so identical seeds reproduce identical trees.
type Options struct {
	StepSize             float64
	MaxIterations        int
	GoalBias             float64
	GoalTolerance        float64
	GoalHeadingTolerance float64 // radians; zero disables the heading check
	CheckpointEvery      int     // cancellation/progress checkpoint interval
	Rand                 *rand.Rand
	// Progress, when set, is called at every checkpoint with the iteration
	// count and tree size; returning false aborts the search.
	Progress func(iteration, nodes int) bool
}

// DefaultOptions returns the standard search parameters with the given
// random source.
func DefaultOptions(r *rand.Rand) Options {
	return Options{
		StepSize:        DefaultStepSize,
		MaxIterations:   DefaultMaxIterations,
		GoalBias:        DefaultGoalBias,
		GoalTolerance:   DefaultGoalTolerance,
		CheckpointEvery: DefaultCheckpointEvery,
		Rand:            r,
	}
}

func (o Options) validate() error {
	if o.Rand == nil {
		return &InputError{Reason: "random source is required"}
	}
	if o.StepSize <= 0 {
		return &InputError{Reason: "step size must be positive"}
	}
	if o.MaxIterations <= 0 {
		return &InputError{Reason: "max iterations must be positive"}
	}
	if o.GoalBias < 0 || o.GoalBias > 1 {
		return &InputError{Reason: "goal bias must be within [0, 1]"}
	}
	return nil
}

// treeNode lives in the search arena. Parent is an arena index, never an
// owning reference; the whole arena is dropped when Plan returns.
type treeNode struct {
	cfg    geom.Config
	parent int // -1 for the root
	cost   float64
}

// TreePlanner grows a tree from a start configuration toward a goal
// through free space. Each Plan call owns its own arena; a single planner
// value may be used for concurrent calls only if each call gets its own
// Options.Rand.
type TreePlanner struct {
	Obstacles   *obstacle.Set
	Constraints VesselConstraints
	Opts        Options
}

// Plan searches for a collision-free, curvature-feasible waypoint sequence
// from start to goal. The returned status is StatusSuccess, StatusInfeasible
// (iterations exhausted), or StatusCancelled (context or progress abort).
// An error is returned only for invalid input, before any search work.
func (tp *TreePlanner) Plan(ctx context.Context, start, goal geom.Config) ([]geom.Config, Status, Diagnostics, error) {
	diag := Diagnostics{Tier: TierTreeSearch}
	if err := tp.Constraints.Validate(); err != nil {
		return nil, StatusInfeasible, diag, err
	}
	if err := tp.Opts.validate(); err != nil {
		return nil, StatusInfeasible, diag, err
	}
	if !start.IsFinite() || !goal.IsFinite() {
		return nil, StatusInfeasible, diag, &InputError{Reason: "non-finite configuration"}
	}

	opts := tp.Opts
	radius := tp.Constraints.TurnRadius

	// Clear direct connection short-circuits the search entirely.
	if direct, err := dubins.Shortest(start, goal, radius); err == nil &&
		!tp.Obstacles.PathBlocked(direct.Polyline) {
		return []geom.Config{start, goal}, StatusSuccess, diag, nil
	}

	region := tp.samplingRegion(start, goal)

	arena := []treeNode{{cfg: start, parent: -1}}
	index := kdtree.New(nodePoints{{x: start.X, y: start.Y, id: 0}}, false)

	checkpoint := opts.CheckpointEvery
	if checkpoint <= 0 {
		checkpoint = DefaultCheckpointEvery
	}

	for iteration := 1; iteration <= opts.MaxIterations; iteration++ {
		diag.Iterations = iteration

		if iteration%checkpoint == 0 {
			if ctx.Err() != nil {
				return nil, StatusCancelled, diag, nil
			}
			if opts.Progress != nil && !opts.Progress(iteration, len(arena)) {
				return nil, StatusCancelled, diag, nil
			}
		}

		// Sample: the goal with probability GoalBias, else uniform within
		// the expanded obstacle-and-endpoint region.
		var sample geom.Config
		if opts.Rand.Float64() < opts.GoalBias {
			sample = goal
		} else {
			sample = geom.Config{
				X:       region.MinX + opts.Rand.Float64()*(region.MaxX-region.MinX),
				Y:       region.MinY + opts.Rand.Float64()*(region.MaxY-region.MinY),
				Heading: -pi + opts.Rand.Float64()*2*pi,
			}
		}

		nearestPt, _ := index.Nearest(nodePoint{x: sample.X, y: sample.Y, id: -1})
		nearestID := nearestPt.(nodePoint).id
		nearest := arena[nearestID]

		newCfg, edge, edgeLen, ok := tp.steer(nearest.cfg, sample, radius, opts.StepSize)
		if !ok {
			diag.SamplesRejected++
			continue
		}
		if tp.Obstacles.PathBlocked(edge) {
			diag.EdgesRejected++
			continue
		}

		arena = append(arena, treeNode{
			cfg:    newCfg,
			parent: nearestID,
			cost:   nearest.cost + edgeLen,
		})
		newID := len(arena) - 1
		index.Insert(nodePoint{x: newCfg.X, y: newCfg.Y, id: newID}, false)
		diag.NodesAdded++

		distToGoal := newCfg.Distance(goal)

		// Periodic direct-to-goal connection for nodes already close.
		if iteration%goalConnectEvery == 0 && distToGoal < 3*opts.StepSize {
			if connect, err := dubins.Shortest(newCfg, goal, radius); err == nil &&
				!tp.Obstacles.PathBlocked(connect.Polyline) {
				arena = append(arena, treeNode{
					cfg:    goal,
					parent: newID,
					cost:   arena[newID].cost + connect.Length,
				})
				return reconstruct(arena, len(arena)-1), StatusSuccess, diag, nil
			}
		}

		if distToGoal <= opts.GoalTolerance {
			if opts.GoalHeadingTolerance > 0 &&
				math.Abs(geom.NormalizeAngle(newCfg.Heading-goal.Heading)) > opts.GoalHeadingTolerance {
				continue
			}
			return reconstruct(arena, newID), StatusSuccess, diag, nil
		}
	}

	return nil, StatusInfeasible, diag, nil
}

// samplingRegion is the bounding box of the obstacles and both endpoints,
// expanded so detours around large turn radii stay inside it.
func (tp *TreePlanner) samplingRegion(start, goal geom.Config) geom.BBox {
	bb := geom.BBoxOf([]geom.Point{start.Point(), goal.Point()})
	if ob, ok := tp.Obstacles.BBox(); ok {
		bb = bb.Union(ob)
	}
	margin := 4*tp.Opts.StepSize + tp.Constraints.TurnRadius
	return bb.Expand(margin)
}

// steer produces a curvature-feasible edge from cfg toward sample, capped
// at stepSize of arc length along the shortest curvature path.
func (tp *TreePlanner) steer(cfg, sample geom.Config, radius, stepSize float64) (geom.Config, []geom.Config, float64, bool) {
	full, err := dubins.Shortest(cfg, sample, radius)
	if err != nil || full.Length < 1e-9 {
		return geom.Config{}, nil, 0, false
	}

	if full.Length <= stepSize {
		return full.End, full.Polyline, full.Length, true
	}

	sampleStep := math.Max(stepSize/5, 0.5)
	pts := full.Sample(sampleStep)

	edge := []geom.Config{pts[0]}
	accumulated := 0.0
	for i := 1; i < len(pts); i++ {
		d := pts[i-1].Distance(pts[i])
		if accumulated+d >= stepSize {
			remaining := stepSize - accumulated
			fraction := 0.0
			if d > 1e-9 {
				fraction = remaining / d
			}
			p := pts[i-1].Point().Lerp(pts[i].Point(), fraction)
			heading := geom.HeadingBetween(pts[i-1].Point(), pts[i].Point())
			if d <= 1e-9 {
				heading = pts[i-1].Heading
			}
			end := geom.Config{X: p.X, Y: p.Y, Heading: heading}
			edge = append(edge, end)
			return end, edge, stepSize, true
		}
		accumulated += d
		edge = append(edge, pts[i])
	}

	end := pts[len(pts)-1]
	return end, edge, accumulated, true
}

// reconstruct walks parent indices from the given node back to the root
// and returns the waypoint sequence in root-to-node order.
func reconstruct(arena []treeNode, id int) []geom.Config {
	var reversed []geom.Config
	for i := id; i >= 0; i = arena[i].parent {
		reversed = append(reversed, arena[i].cfg)
	}
	waypoints := make([]geom.Config, len(reversed))
	for i, cfg := range reversed {
		waypoints[len(reversed)-1-i] = cfg
	}
	return waypoints
}
