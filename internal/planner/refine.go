package planner

import (
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/dubins"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/obstacle"
)

// defaultShortcutPasses caps the shortcut loop; each pass either removes a
// waypoint or terminates, so the cap is rarely reached.
const defaultShortcutPasses = 50

// Refiner shortcuts and smooths a raw waypoint sequence into a minimal,
// curvature-valid, collision-free path.
type Refiner struct {
	Obstacles  *obstacle.Set
	TurnRadius float64
	MaxPasses  int
}

// Refine runs the shortcut and smooth passes and then re-validates the
// whole refined polyline against the obstacle set. The final validation is
// unconditional: a violating path yields StatusValidationFailed with no
// polyline, never a silently unsafe result. Waypoint count and total path
// length never exceed those of the raw input.
func (r *Refiner) Refine(waypoints []geom.Config) ([]geom.Config, float64, Status) {
	if len(waypoints) == 0 {
		return nil, 0, StatusValidationFailed
	}
	if len(waypoints) == 1 {
		if r.Obstacles.PointBlocked(waypoints[0].Point()) {
			return nil, 0, StatusValidationFailed
		}
		return waypoints, 0, StatusSuccess
	}

	wps, ok := r.shortcut(waypoints)
	if !ok {
		return nil, 0, StatusValidationFailed
	}

	// Smooth: realize every remaining hop as a curvature path so heading
	// is continuous throughout.
	polyline := []geom.Config{wps[0]}
	total := 0.0
	for i := 0; i+1 < len(wps); i++ {
		path, err := dubins.Shortest(wps[i], wps[i+1], r.TurnRadius)
		if err != nil {
			return nil, 0, StatusValidationFailed
		}
		if len(path.Polyline) > 1 {
			polyline = append(polyline, path.Polyline[1:]...)
		}
		total += path.Length
	}

	if r.Obstacles.PathBlocked(polyline) {
		return nil, 0, StatusValidationFailed
	}
	return polyline, total, StatusSuccess
}

// shortcut repeatedly replaces waypoint subsequences with a direct
// curvature path when that is collision-free and no longer than the hops
// it removes.
func (r *Refiner) shortcut(waypoints []geom.Config) ([]geom.Config, bool) {
	wps := make([]geom.Config, len(waypoints))
	copy(wps, waypoints)

	hops := make([]float64, 0, len(wps)-1)
	for i := 0; i+1 < len(wps); i++ {
		path, err := dubins.Shortest(wps[i], wps[i+1], r.TurnRadius)
		if err != nil {
			return nil, false
		}
		hops = append(hops, path.Length)
	}

	maxPasses := r.MaxPasses
	if maxPasses <= 0 {
		maxPasses = defaultShortcutPasses
	}

	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for i := 0; i+2 < len(wps); i++ {
			// Longest cut first.
			for j := len(wps) - 1; j > i+1; j-- {
				cand, err := dubins.Shortest(wps[i], wps[j], r.TurnRadius)
				if err != nil {
					continue
				}
				removed := 0.0
				for k := i; k < j; k++ {
					removed += hops[k]
				}
				if cand.Length > removed+1e-9 {
					continue
				}
				if r.Obstacles.PathBlocked(cand.Polyline) {
					continue
				}
				wps = append(wps[:i+1], wps[j:]...)
				hops = append(hops[:i], append([]float64{cand.Length}, hops[j:]...)...)
				changed = true
				break
			}
		}
		if !changed {
			break
		}
	}
	return wps, true
}
