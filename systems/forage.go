package systems

import (
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/pthm-cable/ava/components"
)

// ForageIndex is an immutable nearest-food snapshot. It is rebuilt wholesale
// on a cadence, so queries between rebuilds may return food that has since
// been eaten; callers treat hits as approximate.
type ForageIndex struct {
	tree  *kdtree.Tree
	count int
}

// NewForageIndex builds an index over the given food positions.
func NewForageIndex(food []components.Position) *ForageIndex {
	idx := &ForageIndex{count: len(food)}
	if len(food) == 0 {
		return idx
	}
	pts := make(kdtree.Points, len(food))
	for i, p := range food {
		pts[i] = kdtree.Point{float64(p.X), float64(p.Y)}
	}
	idx.tree = kdtree.New(pts, false)
	return idx
}

// Len returns the number of indexed food items.
func (f *ForageIndex) Len() int {
	if f == nil {
		return 0
	}
	return f.count
}

// Nearest returns the food position closest to (x, y) and its squared
// distance. ok is false when the index is empty.
func (f *ForageIndex) Nearest(x, y float32) (tx, ty, distSq float32, ok bool) {
	if f == nil || f.tree == nil {
		return 0, 0, 0, false
	}
	got, d := f.tree.Nearest(kdtree.Point{float64(x), float64(y)})
	if got == nil {
		return 0, 0, 0, false
	}
	p := got.(kdtree.Point)
	return float32(p[0]), float32(p[1]), float32(d), true
}
