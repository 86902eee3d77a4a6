package game

import "github.com/pthm-cable/ava/components"

// SimStats summarizes the population at the end of a tick.
type SimStats struct {
	Cells       int
	Food        int
	Projectiles int

	MaxEnergy float32 // 0 when no cell has energy
	BestID    uint32
	BestPos   components.Position

	MaxAge    float64
	OldestID  uint32
	OldestPos components.Position

	MaxChildren uint32
}

// computeStats scans evolving cells for the most energetic and the oldest.
func (g *Game) computeStats() SimStats {
	s := SimStats{
		Cells:       g.evolving,
		Food:        g.foodCount,
		Projectiles: g.shotCount,
	}

	query := g.cellFilter.Query()
	for query.Next() {
		pos, _, _, _, cell := query.Get()
		if cell.Manual {
			continue
		}
		if e := g.ledger.Energy(cell.ID); e > s.MaxEnergy {
			s.MaxEnergy = e
			s.BestID = cell.ID
			s.BestPos = *pos
		}
		if age := cell.Age(g.now); age > s.MaxAge {
			s.MaxAge = age
			s.OldestID = cell.ID
			s.OldestPos = *pos
		}
		if cell.Children > s.MaxChildren {
			s.MaxChildren = cell.Children
		}
	}

	return s
}
