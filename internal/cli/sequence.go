package cli

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/obstacle"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/planner"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/sequence"
)

var sequenceFlags struct {
	lines      string
	zones      string
	pattern    string
	firstLine  int
	turnRadius float64
	buffer     float64
	speed      float64
	runIn      float64
	startTime  string
	reciprocal bool
	seed       int64
	out        string
}

var sequenceCmd = &cobra.Command{
	Use:   "sequence",
	Short: "Assemble a timed acquisition sequence over a set of survey lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := loadSurveyLines(sequenceFlags.lines)
		if err != nil {
			return err
		}

		pattern, err := sequence.ParsePattern(sequenceFlags.pattern)
		if err != nil {
			return err
		}

		startTime := time.Now().UTC()
		if sequenceFlags.startTime != "" {
			startTime, err = time.Parse(time.RFC3339, sequenceFlags.startTime)
			if err != nil {
				return fmt.Errorf("--start-time: %w", err)
			}
		}

		var obstacles []*obstacle.Obstacle
		if sequenceFlags.zones != "" {
			obstacles, err = obstacle.LoadGeoJSONFile(sequenceFlags.zones, sequenceFlags.buffer)
			if err != nil {
				return err
			}
		}
		set, err := obstacle.NewSet(obstacles, 0)
		if err != nil {
			return err
		}

		constraints := planner.VesselConstraints{
			TurnRadius: sequenceFlags.turnRadius,
			StepSize:   planner.DefaultStepSize,
			Speed:      sequenceFlags.speed,
		}
		orch := &planner.Orchestrator{
			Obstacles:   set,
			Constraints: constraints,
			Opts:        planner.DefaultOptions(rand.New(rand.NewSource(sequenceFlags.seed))),
		}

		deviations := make(map[int]planner.DeviationPath, len(lines))
		for _, line := range lines {
			dev, _, err := orch.PlanDeviation(context.Background(), line)
			if err != nil {
				return fmt.Errorf("line %d: %w", line.Number, err)
			}
			deviations[line.Number] = dev
			if dev.Status != planner.StatusSuccess {
				warnColor.Printf("line %d: %s, will be skipped\n", line.Number, dev.Status)
			}
		}

		asm := &sequence.Assembler{Constraints: constraints, RunIn: sequenceFlags.runIn}
		plan, err := asm.Assemble(lines, deviations, pattern, sequenceFlags.firstLine, startTime, sequenceFlags.reciprocal)
		if err != nil {
			failColor.Println(err)
			return err
		}

		okColor.Printf("Plan %s", plan.ID)
		fmt.Printf(" pattern=%s lines=%d skipped=%d total=%.0fm duration=%s\n",
			plan.Pattern, len(plan.Order), len(plan.Skipped), plan.TotalLength,
			plan.TotalDuration.Round(time.Second))
		for _, leg := range plan.Legs {
			if leg.Kind == sequence.LegLine {
				fmt.Printf("  %s line %d %s  %7.0fm  %s -> %s\n",
					leg.Kind, leg.Line, leg.Direction, leg.Length,
					leg.Start.Format("15:04:05"), leg.End.Format("15:04:05"))
			} else {
				fmt.Printf("  %-4s        %7.0fm  %s -> %s\n",
					leg.Kind, leg.Length,
					leg.Start.Format("15:04:05"), leg.End.Format("15:04:05"))
			}
		}

		if sequenceFlags.out != "" {
			if err := writeSequenceGeoJSON(sequenceFlags.out, plan); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", sequenceFlags.out)
		}
		return nil
	},
}

func init() {
	sequenceCmd.Flags().StringVar(&sequenceFlags.lines, "lines", "", "GeoJSON file of survey lines (LineStrings with a number property, required)")
	sequenceCmd.Flags().StringVar(&sequenceFlags.zones, "zones", "", "GeoJSON file of exclusion-zone polygons")
	sequenceCmd.Flags().StringVar(&sequenceFlags.pattern, "pattern", "Racetrack", "turn pattern: Racetrack or Teardrop")
	sequenceCmd.Flags().IntVar(&sequenceFlags.firstLine, "first-line", 0, "line number to start with (default lowest)")
	sequenceCmd.Flags().Float64Var(&sequenceFlags.turnRadius, "turn-radius", 150, "minimum turn radius in meters")
	sequenceCmd.Flags().Float64Var(&sequenceFlags.buffer, "buffer", 50, "default safety buffer around zones in meters")
	sequenceCmd.Flags().Float64Var(&sequenceFlags.speed, "speed", 2.5, "vessel speed in meters per second")
	sequenceCmd.Flags().Float64Var(&sequenceFlags.runIn, "run-in", 0, "straight approach distance before each line in meters")
	sequenceCmd.Flags().StringVar(&sequenceFlags.startTime, "start-time", "", "acquisition start time, RFC 3339 (default now)")
	sequenceCmd.Flags().BoolVar(&sequenceFlags.reciprocal, "reciprocal", false, "acquire the first line high-to-low")
	sequenceCmd.Flags().Int64Var(&sequenceFlags.seed, "seed", 1, "random seed for reproducible planning")
	sequenceCmd.Flags().StringVar(&sequenceFlags.out, "out", "", "write the sequence legs as GeoJSON")
	sequenceCmd.MarkFlagRequired("lines")
}

// loadSurveyLines reads survey lines from a GeoJSON feature collection of
// LineStrings. A numeric "number" property names the line; features without
// one are numbered by position.
func loadSurveyLines(path string) ([]planner.SurveyLine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("cli: parsing %s: %w", path, err)
	}

	var lines []planner.SurveyLine
	for i, feature := range fc.Features {
		ls, ok := feature.Geometry.(orb.LineString)
		if !ok || len(ls) < 2 {
			continue
		}
		number := i + 1
		if v, ok := feature.Properties["number"]; ok {
			if f, ok := v.(float64); ok && f > 0 {
				number = int(f)
			}
		}
		start := geom.Point{X: ls[0][0], Y: ls[0][1]}
		end := geom.Point{X: ls[len(ls)-1][0], Y: ls[len(ls)-1][1]}
		lines = append(lines, planner.SurveyLine{
			Number:  number,
			Start:   start,
			End:     end,
			Heading: geom.HeadingBetween(start, end),
		})
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("cli: no LineString features in %s", path)
	}
	return lines, nil
}

// writeSequenceGeoJSON exports one LineString feature per leg.
func writeSequenceGeoJSON(path string, plan sequence.Plan) error {
	fc := geojson.NewFeatureCollection()
	for _, leg := range plan.Legs {
		points := geom.SimplifyPolyline(geom.ConfigsToPoints(leg.Polyline), exportEpsilon)
		feature := obstacle.PolylineToGeoJSON(points, map[string]interface{}{
			"kind":      leg.Kind.String(),
			"line":      leg.Line,
			"direction": leg.Direction.String(),
			"start":     leg.Start.Format(time.RFC3339),
			"end":       leg.End.Format(time.RFC3339),
		})
		fc.Append(feature)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
