// Package sequence composes planned survey lines, turns, and deviations
// into a timed acquisition sequence.
package sequence

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/dubins"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/planner"
)

// Pattern selects the acquisition turn template between lines.
type Pattern int

const (
	PatternRacetrack Pattern = iota
	PatternTeardrop
)

func (p Pattern) String() string {
	switch p {
	case PatternRacetrack:
		return "Racetrack"
	case PatternTeardrop:
		return "Teardrop"
	default:
		return fmt.Sprintf("Pattern(%d)", int(p))
	}
}

// ParsePattern accepts the user-facing pattern names.
func ParsePattern(s string) (Pattern, error) {
	switch s {
	case "Racetrack", "racetrack":
		return PatternRacetrack, nil
	case "Teardrop", "teardrop":
		return PatternTeardrop, nil
	}
	return 0, fmt.Errorf("sequence: unknown pattern %q", s)
}

// Direction is the acquisition direction of a line.
type Direction int

const (
	LowToHigh Direction = iota
	HighToLow
)

func (d Direction) String() string {
	if d == HighToLow {
		return "high_to_low"
	}
	return "low_to_high"
}

// LegKind tags a sequence element.
type LegKind int

const (
	LegTurn LegKind = iota
	LegRunIn
	LegLine
)

func (k LegKind) String() string {
	switch k {
	case LegTurn:
		return "turn"
	case LegRunIn:
		return "run-in"
	default:
		return "line"
	}
}

// Leg is one element of the acquisition sequence with cumulative timing.
type Leg struct {
	Kind      LegKind
	Line      int // line number; zero for turns
	Direction Direction
	Tier      planner.Tier // deviation tier for line legs
	Polyline  []geom.Config
	Length    float64
	Duration  time.Duration
	Start     time.Time
	End       time.Time
}

// Plan is a fully timed acquisition sequence.
type Plan struct {
	ID            string
	Pattern       Pattern
	Order         []int
	Directions    map[int]Direction
	Skipped       []int // lines excluded because their deviation failed
	Legs          []Leg
	TotalLength   float64
	TotalDuration time.Duration
	StartTime     time.Time
	EndTime       time.Time
}

// Assembler builds acquisition sequences from planned lines and their
// deviations.
type Assembler struct {
	Constraints planner.VesselConstraints
	// RunIn is the straight approach distance before each line (meters).
	RunIn float64
}

// Assemble orders the lines by the selected pattern starting at firstLine,
// connects consecutive lines with curvature-path turns, splices deviations
// into their lines, and accumulates distance and elapsed time at the
// vessel speed. Lines whose deviation is not Success are skipped, not
// fatal. preferReciprocal starts the first line high-to-low.
func (a *Assembler) Assemble(
	lines []planner.SurveyLine,
	deviations map[int]planner.DeviationPath,
	pattern Pattern,
	firstLine int,
	startTime time.Time,
	preferReciprocal bool,
) (Plan, error) {
	if err := a.Constraints.Validate(); err != nil {
		return Plan{}, err
	}
	if len(lines) == 0 {
		return Plan{}, errors.New("sequence: no survey lines")
	}

	byNumber := make(map[int]planner.SurveyLine, len(lines))
	var active []planner.SurveyLine
	var skipped []int
	for _, line := range lines {
		byNumber[line.Number] = line
		if dev, ok := deviations[line.Number]; ok && dev.Status != planner.StatusSuccess {
			skipped = append(skipped, line.Number)
			continue
		}
		active = append(active, line)
	}
	if len(active) == 0 {
		return Plan{}, errors.New("sequence: no usable lines after deviation checks")
	}

	if _, ok := byNumber[firstLine]; !ok || !containsLine(active, firstLine) {
		firstLine = active[0].Number
	}

	var order []int
	switch pattern {
	case PatternRacetrack:
		spacing := lineSpacing(active)
		order = racetrackOrder(active, firstLine, IdealJump(a.Constraints.TurnRadius, spacing))
	case PatternTeardrop:
		order = teardropOrder(active, firstLine)
	default:
		return Plan{}, fmt.Errorf("sequence: unknown pattern %v", pattern)
	}

	plan := Plan{
		ID:         uuid.NewString(),
		Pattern:    pattern,
		Order:      order,
		Directions: make(map[int]Direction, len(order)),
		Skipped:    skipped,
		StartTime:  startTime,
	}

	clock := startTime
	reciprocal := preferReciprocal
	var prevExit geom.Config
	turns := make(map[turnKey]dubins.Path)

	for i, num := range order {
		line := byNumber[num]
		dir := LowToHigh
		if reciprocal {
			dir = HighToLow
		}
		plan.Directions[num] = dir

		entry := line.EntryConfig(reciprocal)
		exit := line.ExitConfig(reciprocal)
		runInStart := backOff(entry, a.RunIn)

		if i > 0 {
			turn, err := a.cachedTurn(turns, order[i-1], num, reciprocal, prevExit, runInStart)
			if err != nil {
				return Plan{}, fmt.Errorf("sequence: turn %d->%d: %w", order[i-1], num, err)
			}
			clock = plan.appendLeg(clock, Leg{
				Kind:     LegTurn,
				Polyline: turn.Polyline,
				Length:   turn.Length,
			}, a.Constraints.Speed)
		}

		if a.RunIn > 0 {
			clock = plan.appendLeg(clock, Leg{
				Kind:      LegRunIn,
				Line:      num,
				Direction: dir,
				Polyline:  []geom.Config{runInStart, entry},
				Length:    a.RunIn,
			}, a.Constraints.Speed)
		}

		polyline, length := linePolyline(line, deviations[num], reciprocal)
		tier := planner.TierNone
		if dev, ok := deviations[num]; ok {
			tier = dev.Tier
		}
		clock = plan.appendLeg(clock, Leg{
			Kind:      LegLine,
			Line:      num,
			Direction: dir,
			Tier:      tier,
			Polyline:  polyline,
			Length:    length,
		}, a.Constraints.Speed)

		prevExit = exit
		reciprocal = !reciprocal
	}

	plan.EndTime = clock
	plan.TotalDuration = clock.Sub(startTime)
	return plan, nil
}

// appendLeg stamps the leg with start/end times and accumulates totals.
func (p *Plan) appendLeg(clock time.Time, leg Leg, speed float64) time.Time {
	leg.Duration = time.Duration(leg.Length / speed * float64(time.Second))
	leg.Start = clock
	leg.End = clock.Add(leg.Duration)
	p.Legs = append(p.Legs, leg)
	p.TotalLength += leg.Length
	return leg.End
}

type turnKey struct {
	from, to   int
	reciprocal bool
}

// cachedTurn computes the heading-continuous turn between a line exit and
// the next line's run-in start, memoised per line pair and direction. For
// reciprocal teardrops the shortest curvature path is the loop-back turn
// itself, so no special casing is needed.
func (a *Assembler) cachedTurn(cache map[turnKey]dubins.Path, from, to int, reciprocal bool, exit, entry geom.Config) (dubins.Path, error) {
	key := turnKey{from: from, to: to, reciprocal: reciprocal}
	if turn, ok := cache[key]; ok {
		return turn, nil
	}
	turn, err := dubins.Shortest(exit, entry, a.Constraints.TurnRadius)
	if err != nil {
		return dubins.Path{}, err
	}
	cache[key] = turn
	return turn, nil
}

// backOff moves a configuration backwards along its heading.
func backOff(cfg geom.Config, distance float64) geom.Config {
	if distance <= 0 {
		return cfg
	}
	return geom.Config{
		X:       cfg.X - distance*math.Cos(cfg.Heading),
		Y:       cfg.Y - distance*math.Sin(cfg.Heading),
		Heading: cfg.Heading,
	}
}

// linePolyline splices a non-identity deviation into its line and orients
// the result for the acquisition direction.
func linePolyline(line planner.SurveyLine, dev planner.DeviationPath, reciprocal bool) ([]geom.Config, float64) {
	heading := line.Heading
	points := []geom.Config{
		{X: line.Start.X, Y: line.Start.Y, Heading: heading},
		{X: line.End.X, Y: line.End.Y, Heading: heading},
	}

	if dev.Status == planner.StatusSuccess && dev.Tier != planner.TierNone && len(dev.Polyline) > 1 {
		spliced := []geom.Config{{X: line.Start.X, Y: line.Start.Y, Heading: heading}}
		if dev.Exit.Point() != line.Start {
			spliced = append(spliced, dev.Exit)
		}
		spliced = append(spliced, dev.Polyline[1:]...)
		if dev.Entry.Point() != line.End {
			spliced = append(spliced, geom.Config{X: line.End.X, Y: line.End.Y, Heading: heading})
		}
		points = spliced
	}

	if reciprocal {
		points = reverseConfigs(points)
	}
	return points, geom.PolylineLength(geom.ConfigsToPoints(points))
}

// reverseConfigs reverses a polyline and recomputes headings to follow the
// reversed direction of travel.
func reverseConfigs(configs []geom.Config) []geom.Config {
	n := len(configs)
	out := make([]geom.Config, n)
	for i := range configs {
		out[n-1-i] = configs[i]
	}
	for i := range out {
		var heading float64
		switch {
		case i+1 < n:
			heading = geom.HeadingBetween(out[i].Point(), out[i+1].Point())
		case n > 1:
			heading = geom.HeadingBetween(out[i-1].Point(), out[i].Point())
		}
		out[i].Heading = heading
	}
	return out
}

func containsLine(lines []planner.SurveyLine, num int) bool {
	for _, l := range lines {
		if l.Number == num {
			return true
		}
	}
	return false
}
