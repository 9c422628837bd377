// Package planner contains the randomized tree search, the path refiner,
// and the deviation orchestrator that routes blocked survey lines around
// exclusion zones under vessel turning constraints.
package planner

import (
	"fmt"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/obstacle"
)

// Status is the planning outcome surfaced to callers. All non-Success
// values are recoverable at the process level.
type Status int

const (
	StatusSuccess Status = iota
	StatusInfeasible
	StatusValidationFailed
	StatusUnresolvable
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusInfeasible:
		return "Infeasible"
	case StatusValidationFailed:
		return "ValidationFailed"
	case StatusUnresolvable:
		return "Unresolvable"
	case StatusCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// InputError marks degenerate input rejected before any planning starts.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "planner: invalid input: " + e.Reason
}

// VesselConstraints are the kinematic limits of the survey vessel.
type VesselConstraints struct {
	TurnRadius float64 // meters, > 0
	StepSize   float64 // meters, > 0
	Speed      float64 // meters per second, > 0
}

// Validate rejects non-positive constraint values.
func (v VesselConstraints) Validate() error {
	if v.TurnRadius <= 0 {
		return &InputError{Reason: "turn radius must be positive"}
	}
	if v.StepSize <= 0 {
		return &InputError{Reason: "step size must be positive"}
	}
	if v.Speed <= 0 {
		return &InputError{Reason: "speed must be positive"}
	}
	return nil
}

// SurveyLine is one planned acquisition line.
type SurveyLine struct {
	Number  int
	Start   geom.Point
	End     geom.Point
	Heading float64
	// Blocking holds the obstacles the line crosses; filled by the
	// orchestrator when empty.
	Blocking []*obstacle.Obstacle
}

// EntryConfig returns the oriented start of the line; reciprocal acquires
// the line from End toward Start.
func (l SurveyLine) EntryConfig(reciprocal bool) geom.Config {
	if reciprocal {
		return geom.Config{X: l.End.X, Y: l.End.Y, Heading: geom.NormalizeAngle(l.Heading + pi)}
	}
	return geom.Config{X: l.Start.X, Y: l.Start.Y, Heading: l.Heading}
}

// ExitConfig returns the oriented end of the line for the given direction.
func (l SurveyLine) ExitConfig(reciprocal bool) geom.Config {
	if reciprocal {
		return geom.Config{X: l.Start.X, Y: l.Start.Y, Heading: geom.NormalizeAngle(l.Heading + pi)}
	}
	return geom.Config{X: l.End.X, Y: l.End.Y, Heading: l.Heading}
}

// Length returns the straight line length.
func (l SurveyLine) Length() float64 {
	return l.Start.Distance(l.End)
}

// Tier identifies which algorithm produced a deviation path.
type Tier int

const (
	TierNone Tier = iota // line is clear, no deviation needed
	TierTangent
	TierDirect
	TierTreeSearch
)

func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierTangent:
		return "tangent-bypass"
	case TierDirect:
		return "curvature-path"
	case TierTreeSearch:
		return "tree-search"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// DeviationPath is a detour from a line's exit point back to its re-entry
// point, tagged with the algorithm tier that produced it.
type DeviationPath struct {
	Line     int
	Exit     geom.Config // where the vessel leaves the line
	Entry    geom.Config // where it rejoins the line
	Polyline []geom.Config
	Length   float64
	Tier     Tier
	Status   Status
}

// Diagnostics is the per-call planning report returned to the caller in
// place of a process-wide debug stream.
type Diagnostics struct {
	Tier            Tier
	Iterations      int
	NodesAdded      int
	SamplesRejected int
	EdgesRejected   int
	TiersTried      []Tier
}
