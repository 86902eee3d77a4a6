package game

import (
	"github.com/pthm-cable/ava/components"
	"github.com/pthm-cable/ava/systems"
)

// focusRadius is the maximum distance from a point to the cell it selects.
const focusRadius = 10

// focusState tracks the observed cell and its last decision.
type focusState struct {
	active      bool
	id          uint32
	sensors     systems.Sensors
	action      systems.Action
	fitness     float32
	activations [][]float64
	decided     bool
}

func (f *focusState) capture(it *intent) {
	f.sensors = it.Sensors
	f.action = it.Action
	f.fitness = it.Fitness
	f.activations = it.Activations
	f.decided = true
}

// FocusStats describes the focused cell.
type FocusStats struct {
	ID       uint32
	Pos      components.Position
	Heading  float32
	Energy   float32
	Age      float64
	Fitness  float32 // rolling mean
	Children uint32

	// Last decision, valid when Decided is true
	Decided     bool
	Sensors     systems.Sensors
	Action      systems.Action
	Score       float32
	Activations [][]float64
}

// FocusAt selects the cell nearest to (x, y) within focusRadius.
func (g *Game) FocusAt(x, y float32) (uint32, bool) {
	var bestID uint32
	bestDist := float32(focusRadius * focusRadius)
	found := false

	query := g.cellFilter.Query()
	for query.Next() {
		pos, _, _, _, cell := query.Get()
		dx, dy := pos.X-x, pos.Y-y
		if d := dx*dx + dy*dy; d <= bestDist {
			bestDist = d
			bestID = cell.ID
			found = true
		}
	}

	if !found {
		return 0, false
	}
	return bestID, g.Focus(bestID)
}

// Focus selects a cell by id. Returns false if it is not alive.
func (g *Game) Focus(id uint32) bool {
	if _, ok := g.registry[id]; !ok {
		return false
	}
	g.focus = focusState{active: true, id: id}
	return true
}

// Unfocus clears the selection.
func (g *Game) Unfocus() {
	g.focus = focusState{}
}

// FocusedStats returns the state of the focused cell.
func (g *Game) FocusedStats() (FocusStats, bool) {
	if !g.focus.active {
		return FocusStats{}, false
	}
	e, ok := g.registry[g.focus.id]
	if !ok || !g.world.Alive(e) {
		return FocusStats{}, false
	}

	cell := g.cellMap.Get(e)
	return FocusStats{
		ID:          cell.ID,
		Pos:         *g.posMap.Get(e),
		Heading:     g.rotMap.Get(e).Heading,
		Energy:      g.ledger.Energy(cell.ID),
		Age:         cell.Age(g.now),
		Fitness:     cell.Fitness.Mean(),
		Children:    cell.Children,
		Decided:     g.focus.decided,
		Sensors:     g.focus.sensors,
		Action:      g.focus.action,
		Score:       g.focus.fitness,
		Activations: g.focus.activations,
	}, true
}
