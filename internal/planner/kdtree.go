package planner

import (
	"gonum.org/v1/gonum/spatial/kdtree"
)

// nodePoint adapts a tree-node position to gonum's kd-tree so nearest
// neighbor lookups are O(log n) instead of a linear arena scan.
type nodePoint struct {
	x, y float64
	id   int // arena index
}

var (
	_ kdtree.Comparable = nodePoint{}
	_ kdtree.Interface  = nodePoints{}
)

func (p nodePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(nodePoint)
	switch d {
	case 0:
		return p.x - q.x
	default:
		return p.y - q.y
	}
}

func (p nodePoint) Dims() int { return 2 }

// Distance returns the squared Euclidean distance, as gonum expects.
func (p nodePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(nodePoint)
	dx := p.x - q.x
	dy := p.y - q.y
	return dx*dx + dy*dy
}

type nodePoints []nodePoint

func (p nodePoints) Index(i int) kdtree.Comparable { return p[i] }
func (p nodePoints) Len() int                      { return len(p) }
func (p nodePoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}
func (p nodePoints) Pivot(d kdtree.Dim) int {
	return nodePlane{Dim: d, nodePoints: p}.Pivot()
}

// nodePlane sorts nodePoints along a dimension for pivot selection.
type nodePlane struct {
	kdtree.Dim
	nodePoints
}

func (p nodePlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.nodePoints[i].x < p.nodePoints[j].x
	default:
		return p.nodePoints[i].y < p.nodePoints[j].y
	}
}

func (p nodePlane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (p nodePlane) Slice(start, end int) kdtree.SortSlicer {
	p.nodePoints = p.nodePoints[start:end]
	return p
}

func (p nodePlane) Swap(i, j int) {
	p.nodePoints[i], p.nodePoints[j] = p.nodePoints[j], p.nodePoints[i]
}
