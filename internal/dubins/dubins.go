// Package dubins computes curvature-constrained shortest paths between
// oriented points: the six canonical curve-straight-curve and
// curve-curve-curve families evaluated in closed form, with the
// minimum-length valid candidate selected.
package dubins

import (
	"errors"
	"math"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
)

// DefaultSampleStep is the arc-length resolution of sampled polylines (meters).
const DefaultSampleStep = 5.0

// lengthTieEpsilon below which two candidate lengths count as equal.
const lengthTieEpsilon = 1e-6

var (
	// ErrRadius is returned for a non-positive or non-finite turn radius.
	ErrRadius = errors.New("dubins: turn radius must be positive and finite")
	// ErrConfig is returned for non-finite start or end configurations.
	ErrConfig = errors.New("dubins: configuration is not finite")
)

// Word identifies one of the six canonical path families.
// L and R are left and right arcs at minimum radius, S a straight run.
type Word string

const (
	LSL Word = "LSL"
	LSR Word = "LSR"
	RSL Word = "RSL"
	RSR Word = "RSR"
	RLR Word = "RLR"
	LRL Word = "LRL"
)

// SegmentKind tags a path segment variant.
type SegmentKind int

const (
	Straight SegmentKind = iota
	Arc
)

// Segment is one piece of a curvature path.
type Segment struct {
	Kind      SegmentKind
	Length    float64 // arc length in meters
	Radius    float64 // arcs only
	Curvature float64 // signed 1/radius; zero for straight runs
	Angle     float64 // signed swept angle in radians; zero for straight runs
}

// Path is a curvature-constrained path between two oriented points.
// Polyline is sampled at DefaultSampleStep; Sample regenerates it at any step.
type Path struct {
	Start    geom.Config
	End      geom.Config
	Word     Word
	Segments []Segment
	Length   float64
	Polyline []geom.Config
}

// candidate is a scaled solution: segment lengths in turn-radius units.
type candidate struct {
	word    Word
	t, p, q float64
}

func (c candidate) length() float64 { return c.t + c.p + c.q }

// signChanges counts L<->R transitions within the word.
func (c candidate) signChanges() int {
	changes := 0
	var last byte
	for i := 0; i < len(c.word); i++ {
		m := c.word[i]
		if m == 'S' {
			continue
		}
		if last != 0 && m != last {
			changes++
		}
		last = m
	}
	return changes
}

func (c candidate) isCSC() bool { return c.word[1] == 'S' }

// better reports whether a beats b under the selection rule: shorter wins;
// within tolerance prefer fewer curvature-sign changes, then CSC over CCC.
func better(a, b candidate) bool {
	la, lb := a.length(), b.length()
	if math.Abs(la-lb) > lengthTieEpsilon {
		return la < lb
	}
	if a.signChanges() != b.signChanges() {
		return a.signChanges() < b.signChanges()
	}
	return a.isCSC() && !b.isCSC()
}

// Shortest computes the minimum-length curvature path from start to end
// under the given minimum turn radius. Coincident configurations yield a
// legal zero-length path, never an error.
func Shortest(start, end geom.Config, radius float64) (Path, error) {
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return Path{}, ErrRadius
	}
	if !start.IsFinite() || !end.IsFinite() {
		return Path{}, ErrConfig
	}

	dist := start.Distance(end)
	if dist < 1e-9 && math.Abs(geom.NormalizeAngle(start.Heading-end.Heading)) < 1e-9 {
		return Path{
			Start:    start,
			End:      end,
			Segments: nil,
			Length:   0,
			Polyline: []geom.Config{start},
		}, nil
	}

	// Normalize into the start's local frame.
	theta := geom.HeadingBetween(start.Point(), end.Point())
	d := dist / radius
	alpha := geom.Mod2Pi(start.Heading - theta)
	beta := geom.Mod2Pi(end.Heading - theta)

	var best candidate
	found := false
	for _, solve := range solvers {
		c, ok := solve(d, alpha, beta)
		if !ok {
			continue
		}
		if !found || better(c, best) {
			best = c
			found = true
		}
	}
	if !found {
		// Unreachable for d >= 0: LSL/RSR always have a real solution.
		return Path{}, errors.New("dubins: no valid family")
	}

	path := Path{
		Start:    start,
		End:      end,
		Word:     best.word,
		Length:   best.length() * radius,
		Segments: make([]Segment, 0, 3),
	}
	lengths := [3]float64{best.t, best.p, best.q}
	for i := 0; i < 3; i++ {
		mode := best.word[i]
		seg := Segment{Length: lengths[i] * radius}
		switch mode {
		case 'S':
			seg.Kind = Straight
		case 'L':
			seg.Kind = Arc
			seg.Radius = radius
			seg.Curvature = 1 / radius
			seg.Angle = lengths[i]
		case 'R':
			seg.Kind = Arc
			seg.Radius = radius
			seg.Curvature = -1 / radius
			seg.Angle = -lengths[i]
		}
		path.Segments = append(path.Segments, seg)
	}
	path.Polyline = path.Sample(DefaultSampleStep)
	return path, nil
}

var solvers = []func(d, alpha, beta float64) (candidate, bool){
	solveLSL, solveRSR, solveLSR, solveRSL, solveRLR, solveLRL,
}

func solveLSL(d, alpha, beta float64) (candidate, bool) {
	sa, ca := math.Sincos(alpha)
	sb, cb := math.Sincos(beta)
	cab := math.Cos(alpha - beta)

	psq := 2 + d*d - 2*cab + 2*d*(sa-sb)
	if psq < 0 {
		return candidate{}, false
	}
	tmp := math.Atan2(cb-ca, d+sa-sb)
	return candidate{
		word: LSL,
		t:    geom.Mod2Pi(-alpha + tmp),
		p:    math.Sqrt(psq),
		q:    geom.Mod2Pi(beta - tmp),
	}, true
}

func solveRSR(d, alpha, beta float64) (candidate, bool) {
	sa, ca := math.Sincos(alpha)
	sb, cb := math.Sincos(beta)
	cab := math.Cos(alpha - beta)

	psq := 2 + d*d - 2*cab + 2*d*(sb-sa)
	if psq < 0 {
		return candidate{}, false
	}
	tmp := math.Atan2(ca-cb, d-sa+sb)
	return candidate{
		word: RSR,
		t:    geom.Mod2Pi(alpha - tmp),
		p:    math.Sqrt(psq),
		q:    geom.Mod2Pi(-beta + tmp),
	}, true
}

func solveLSR(d, alpha, beta float64) (candidate, bool) {
	sa, ca := math.Sincos(alpha)
	sb, cb := math.Sincos(beta)
	cab := math.Cos(alpha - beta)

	psq := -2 + d*d + 2*cab + 2*d*(sa+sb)
	if psq < 0 {
		return candidate{}, false
	}
	p := math.Sqrt(psq)
	tmp := math.Atan2(-ca-cb, d+sa+sb) - math.Atan2(-2, p)
	return candidate{
		word: LSR,
		t:    geom.Mod2Pi(-alpha + tmp),
		p:    p,
		q:    geom.Mod2Pi(-geom.Mod2Pi(beta) + tmp),
	}, true
}

func solveRSL(d, alpha, beta float64) (candidate, bool) {
	sa, ca := math.Sincos(alpha)
	sb, cb := math.Sincos(beta)
	cab := math.Cos(alpha - beta)

	psq := -2 + d*d + 2*cab - 2*d*(sa+sb)
	if psq < 0 {
		return candidate{}, false
	}
	p := math.Sqrt(psq)
	tmp := math.Atan2(ca+cb, d-sa-sb) - math.Atan2(2, p)
	return candidate{
		word: RSL,
		t:    geom.Mod2Pi(alpha - tmp),
		p:    p,
		q:    geom.Mod2Pi(beta - tmp),
	}, true
}

func solveRLR(d, alpha, beta float64) (candidate, bool) {
	sa, ca := math.Sincos(alpha)
	sb, cb := math.Sincos(beta)
	cab := math.Cos(alpha - beta)

	tmp := (6 - d*d + 2*cab + 2*d*(sa-sb)) / 8
	phi := math.Atan2(ca-cb, d-sa+sb)
	if math.Abs(tmp) > 1 {
		return candidate{}, false
	}
	p := geom.Mod2Pi(2*math.Pi - math.Acos(tmp))
	t := geom.Mod2Pi(alpha - phi + geom.Mod2Pi(p/2))
	return candidate{
		word: RLR,
		t:    t,
		p:    p,
		q:    geom.Mod2Pi(alpha - beta - t + geom.Mod2Pi(p)),
	}, true
}

func solveLRL(d, alpha, beta float64) (candidate, bool) {
	sa, ca := math.Sincos(alpha)
	sb, cb := math.Sincos(beta)
	cab := math.Cos(alpha - beta)

	tmp := (6 - d*d + 2*cab + 2*d*(sb-sa)) / 8
	phi := math.Atan2(ca-cb, d+sa-sb)
	if math.Abs(tmp) > 1 {
		return candidate{}, false
	}
	p := geom.Mod2Pi(2*math.Pi - math.Acos(tmp))
	t := geom.Mod2Pi(-alpha - phi + p/2)
	return candidate{
		word: LRL,
		t:    t,
		p:    p,
		q:    geom.Mod2Pi(geom.Mod2Pi(beta) - alpha - t + geom.Mod2Pi(p)),
	}, true
}

// Sample discretizes the path at a fixed arc-length step, heading included
// per vertex. The first vertex is the start configuration and the last is
// the exact end of the final segment.
func (p Path) Sample(step float64) []geom.Config {
	if step <= 0 {
		step = DefaultSampleStep
	}
	out := []geom.Config{p.Start}
	cur := p.Start
	for _, seg := range p.Segments {
		if seg.Length <= 0 {
			continue
		}
		n := int(math.Ceil(seg.Length / step))
		for i := 1; i <= n; i++ {
			s := math.Min(float64(i)*step, seg.Length)
			out = append(out, advance(cur, seg, s))
		}
		cur = advance(cur, seg, seg.Length)
	}
	return out
}

// advance moves arc length s along a segment starting at cfg.
func advance(cfg geom.Config, seg Segment, s float64) geom.Config {
	if seg.Kind == Straight || seg.Curvature == 0 {
		return geom.Config{
			X:       cfg.X + s*math.Cos(cfg.Heading),
			Y:       cfg.Y + s*math.Sin(cfg.Heading),
			Heading: cfg.Heading,
		}
	}
	k := seg.Curvature
	h := cfg.Heading + k*s
	return geom.Config{
		X:       cfg.X + (math.Sin(h)-math.Sin(cfg.Heading))/k,
		Y:       cfg.Y - (math.Cos(h)-math.Cos(cfg.Heading))/k,
		Heading: geom.NormalizeAngle(h),
	}
}
