package game

import (
	"github.com/pthm-cable/ava/components"
	"github.com/pthm-cable/ava/systems"
)

// replenishFood tops food up toward target once enough has been eaten.
func (g *Game) replenishFood(target int) {
	n := g.supply.Deficit(g.foodCount, target)
	if n == 0 {
		return
	}
	for _, p := range g.supply.Place(g.rng, n) {
		pos := p
		g.foodMapper.NewEntity(&pos, &components.Food{SpawnedAt: g.now})
	}
	g.foodCount += n
}

// refreshForageIndex rebuilds the nearest-food index from current food. The
// index is a snapshot; food eaten since the last refresh can still be sensed.
func (g *Game) refreshForageIndex() {
	points := make([]components.Position, 0, g.foodCount)
	query := g.foodFilter.Query()
	for query.Next() {
		pos, _ := query.Get()
		points = append(points, *pos)
	}
	g.forage = systems.NewForageIndex(points)
}
