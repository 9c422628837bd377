package cli

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/obstacle"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/planner"
)

var planFlags struct {
	zones      string
	start      string
	end        string
	headingDeg float64
	turnRadius float64
	buffer     float64
	stepSize   float64
	maxIter    int
	seed       int64
	out        string
}

// exportEpsilon thins densely sampled polylines before GeoJSON export.
const exportEpsilon = 0.5

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a deviation for one survey line around exclusion zones",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parsePoint(planFlags.start)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		end, err := parsePoint(planFlags.end)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}

		var obstacles []*obstacle.Obstacle
		if planFlags.zones != "" {
			obstacles, err = obstacle.LoadGeoJSONFile(planFlags.zones, planFlags.buffer)
			if err != nil {
				return err
			}
		}
		set, err := obstacle.NewSet(obstacles, 0)
		if err != nil {
			return err
		}

		opts := planner.DefaultOptions(rand.New(rand.NewSource(planFlags.seed)))
		if planFlags.stepSize > 0 {
			opts.StepSize = planFlags.stepSize
		}
		if planFlags.maxIter > 0 {
			opts.MaxIterations = planFlags.maxIter
		}

		orch := &planner.Orchestrator{
			Obstacles: set,
			Constraints: planner.VesselConstraints{
				TurnRadius: planFlags.turnRadius,
				StepSize:   opts.StepSize,
				Speed:      2.5,
			},
			Opts: opts,
		}
		line := planner.SurveyLine{
			Number:  1,
			Start:   start,
			End:     end,
			Heading: geom.HeadingBetween(start, end),
		}

		dev, diag, err := orch.PlanDeviation(context.Background(), line)
		if err != nil {
			return err
		}

		switch dev.Status {
		case planner.StatusSuccess:
			okColor.Printf("Success")
			fmt.Printf(" tier=%s length=%.1fm vertices=%d iterations=%d\n",
				dev.Tier, dev.Length, len(dev.Polyline), diag.Iterations)
		case planner.StatusCancelled:
			warnColor.Println("Cancelled")
			return nil
		default:
			failColor.Printf("%s", dev.Status)
			fmt.Printf(" after tiers %v, %d iterations\n", diag.TiersTried, diag.Iterations)
			return nil
		}

		if planFlags.out != "" {
			points := geom.SimplifyPolyline(geom.ConfigsToPoints(dev.Polyline), exportEpsilon)
			feature := obstacle.PolylineToGeoJSON(points, map[string]interface{}{
				"line": line.Number,
				"tier": dev.Tier.String(),
			})
			fc := geojson.NewFeatureCollection()
			fc.Append(feature)
			data, err := fc.MarshalJSON()
			if err != nil {
				return err
			}
			if err := os.WriteFile(planFlags.out, data, 0644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", planFlags.out)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planFlags.zones, "zones", "", "GeoJSON file of exclusion-zone polygons")
	planCmd.Flags().StringVar(&planFlags.start, "start", "", "line start as x,y (required)")
	planCmd.Flags().StringVar(&planFlags.end, "end", "", "line end as x,y (required)")
	planCmd.Flags().Float64Var(&planFlags.turnRadius, "turn-radius", 150, "minimum turn radius in meters")
	planCmd.Flags().Float64Var(&planFlags.buffer, "buffer", 50, "default safety buffer around zones in meters")
	planCmd.Flags().Float64Var(&planFlags.stepSize, "step-size", 0, "tree search step size (default 50)")
	planCmd.Flags().IntVar(&planFlags.maxIter, "max-iterations", 0, "tree search iteration cap (default 20000)")
	planCmd.Flags().Int64Var(&planFlags.seed, "seed", 1, "random seed for reproducible planning")
	planCmd.Flags().StringVar(&planFlags.out, "out", "", "write the planned path as GeoJSON")
	planCmd.MarkFlagRequired("start")
	planCmd.MarkFlagRequired("end")
}

// parsePoint reads "x,y".
func parsePoint(s string) (geom.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geom.Point{}, fmt.Errorf("expected x,y got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geom.Point{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Point{X: x, Y: y}, nil
}
