// Package systems provides the per-concern simulation logic: sensing,
// decisions, the energy ledger, culling rules and headless kinematics.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ava/components"
)

// Neighbor holds a nearby entity with precomputed spatial data.
type Neighbor struct {
	E      ecs.Entity
	DX, DY float32 // delta from query origin
	DistSq float32
}

// SpatialGrid provides O(1) neighbor lookups using a cell-based grid over a
// bounded world centered on the origin.
type SpatialGrid struct {
	cellSize   float32
	cols       int
	rows       int
	minX, minY float32
	cells      [][]ecs.Entity
}

// NewSpatialGrid creates a spatial grid covering [-w/2, w/2] x [-h/2, h/2].
func NewSpatialGrid(width, height, cellSize float32) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]ecs.Entity, cols*rows)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 4)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		minX:     -width / 2,
		minY:     -height / 2,
		cells:    cells,
	}
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity to the grid at the given position. Positions outside
// the world are clamped into the border cells.
func (g *SpatialGrid) Insert(e ecs.Entity, x, y float32) {
	col, row := g.cellCoords(x, y)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], e)
}

// MaxQueryResults caps the number of neighbors returned by spatial queries.
const MaxQueryResults = 128

// QueryRadiusInto finds entities within radius and appends to dst (up to
// MaxQueryResults). Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, x, y, radius float32, exclude ecs.Entity, posMap *ecs.Map[components.Position]) []Neighbor {
	cellRadius := int(radius/g.cellSize) + 1
	centerCol, centerRow := g.cellCoords(x, y)
	radiusSq := radius * radius

	for dr := -cellRadius; dr <= cellRadius; dr++ {
		row := centerRow + dr
		if row < 0 || row >= g.rows {
			continue
		}
		for dc := -cellRadius; dc <= cellRadius; dc++ {
			col := centerCol + dc
			if col < 0 || col >= g.cols {
				continue
			}
			for _, e := range g.cells[row*g.cols+col] {
				if e == exclude {
					continue
				}
				pos := posMap.Get(e)
				if pos == nil {
					continue
				}

				dx := pos.X - x
				dy := pos.Y - y
				distSq := dx*dx + dy*dy
				if distSq <= radiusSq {
					dst = append(dst, Neighbor{E: e, DX: dx, DY: dy, DistSq: distSq})
					if len(dst) >= MaxQueryResults {
						return dst
					}
				}
			}
		}
	}

	return dst
}

// cellCoords returns the clamped grid column and row for a world position.
func (g *SpatialGrid) cellCoords(x, y float32) (col, row int) {
	col = int((x - g.minX) / g.cellSize)
	row = int((y - g.minY) / g.cellSize)

	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}
