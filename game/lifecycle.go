package game

import (
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ava/components"
	"github.com/pthm-cable/ava/neural"
	"github.com/pthm-cable/ava/systems"
)

// spawnCell creates a cell at (x, y) with the given controller.
func (g *Game) spawnCell(x, y float32, brain *neural.Net, parentID uint32, manual bool) ecs.Entity {
	id := g.ids.Next()

	pos := components.Position{X: x, Y: y}
	vel := components.Velocity{}
	rot := components.Rotation{Heading: systems.NormalizeAngle(g.rng.Float32() * 2 * math.Pi)}
	force := components.Force{}
	cell := components.Cell{
		ID:          id,
		BirthX:      x,
		BirthY:      y,
		BirthTime:   g.now,
		LastUpdated: g.now,
		LastFired:   g.now,
		Phase:       g.rng.Float64(),
		Manual:      manual,
		Fitness:     components.NewFitnessWindow(g.cfg.Decision.FitnessWindow),
		Brain:       brain,
	}

	e := g.cellMapper.NewEntity(&pos, &vel, &rot, &force, &cell)
	g.register(id, e)
	g.lifetimes.Register(id, g.now, parentID)

	if manual {
		g.manualCount++
	} else {
		g.evolving++
	}
	return e
}

// seedPopulation spawns n cells with fresh random controllers.
func (g *Game) seedPopulation(n int) {
	for i := 0; i < n; i++ {
		x, y := g.randomPosition()
		g.spawnCell(x, y, neural.New(g.rng, g.cfg.Derived.Arch), 0, false)
	}
}

// spawnManualCell adds the single externally driven cell.
func (g *Game) spawnManualCell() {
	if g.manual.active {
		return
	}
	e := g.spawnCell(0, 0, neural.New(g.rng, g.cfg.Derived.Arch), 0, true)
	g.manual.active = true
	g.manual.entity = e
	g.manual.id = g.cellMap.Get(e).ID
}

// reseedIfExtinct restarts evolution when every evolving cell has died.
// Controllers are fresh unless reseeding from the hall of fame is enabled
// and the hall has entries.
func (g *Game) reseedIfExtinct() {
	if g.evolving > 0 {
		return
	}
	n := g.cfg.Population.Target
	fromHall := g.populate(n)
	g.collector.RecordReseed(n)
	slog.Info("population reseeded", "tick", g.tick, "cells", n, "from_hall", fromHall)
}

// populate spawns n cells, from the hall of fame when reseed_from_hall is
// set and the hall has entries. Reports whether the hall was used.
func (g *Game) populate(n int) bool {
	if g.cfg.HallOfFame.ReseedFromHall && g.hallOfFame.Size() > 0 {
		g.seedFromHall(n)
		return true
	}
	g.seedPopulation(n)
	return false
}

// seedFromHall spawns n cells with mutated copies of hall of fame
// controllers. Entries that fail to rebuild fall back to fresh controllers.
func (g *Game) seedFromHall(n int) {
	nc := &g.cfg.Neural
	for i := 0; i < n; i++ {
		var brain *neural.Net
		if w, ok := g.hallOfFame.Sample(); ok {
			if net, err := neural.FromWeights(w); err == nil {
				net.Mutate(g.rng, nc.MutationRate, nc.MutationVariation)
				brain = net
			} else {
				slog.Warn("hall of fame entry rejected", "error", err)
			}
		}
		if brain == nil {
			brain = neural.New(g.rng, g.cfg.Derived.Arch)
		}
		x, y := g.randomPosition()
		g.spawnCell(x, y, brain, 0, false)
	}
}

type victim struct {
	entity ecs.Entity
	id     uint32
	reason systems.CullReason
}

// cullCells removes starved and degenerate movers, and penalizes cells that
// have not fired recently.
func (g *Game) cullCells() {
	threshold := g.cfg.Energy.InactivityThreshold
	penalty := float32(g.cfg.Energy.InactivityPenalty)

	var victims []victim
	query := g.cellFilter.Query()
	for query.Next() {
		pos, _, _, _, cell := query.Get()
		if cell.Manual {
			continue
		}

		entry, ok := g.ledger.Get(cell.ID)
		dx, dy := cell.Displacement(*pos)
		reason := g.culling.Evaluate(systems.CullSubject{
			Age:       cell.Age(g.now),
			DX:        dx,
			DY:        dy,
			Energy:    entry.Energy,
			HasEnergy: ok,
		})
		if reason != systems.CullNone {
			victims = append(victims, victim{entity: query.Entity(), id: cell.ID, reason: reason})
			continue
		}

		if g.now-cell.LastFired >= threshold && g.ledger.Penalize(cell.ID, penalty, g.now) {
			g.collector.RecordInactivityPenalty()
		}
	}

	for _, v := range victims {
		g.removeCell(v.entity, v.id, v.reason)
	}
}

// removeCell deletes a cell and everything keyed by its id.
// The controller is offered to the hall of fame first.
func (g *Game) removeCell(e ecs.Entity, id uint32, reason systems.CullReason) {
	cell := g.cellMap.Get(e)
	lt := g.lifetimes.Remove(id)
	age := cell.Age(g.now)
	if g.hallOfFame.Qualifies(lt, age) && g.hallOfFame.Consider(id, cell.Brain.MarshalWeights(), lt, age) {
		slog.Debug("hall of fame entry", "id", id, "size", g.hallOfFame.Size(), "top", g.hallOfFame.TopFitness())
	}

	g.world.RemoveEntity(e)
	delete(g.registry, id)
	g.ledger.Remove(id)
	g.evolving--
	g.collector.RecordDeath(reason)

	if lt != nil {
		slog.Debug("cell removed",
			"id", id,
			"reason", reason.String(),
			"age", age,
			"children", lt.Children,
			"hit_rate", lt.HitRate(),
		)
	}

	if g.focus.active && g.focus.id == id {
		g.Unfocus()
	}
}

type birth struct {
	parent uint32
	brain  *neural.Net
}

// reproduce gives each evolving cell a chance to replicate proportional to
// its share of the highest energy in the population. The population cap is
// checked against a running count.
func (g *Game) reproduce() {
	popCap := g.cfg.Population.Cap
	n := g.evolving
	if n >= popCap {
		return
	}
	maxEnergy := g.maxEnergy()
	if maxEnergy <= 0 {
		return
	}

	rate := g.cfg.Neural.MutationRate
	variation := g.cfg.Neural.MutationVariation

	var births []birth
	query := g.cellFilter.Query()
	for query.Next() {
		_, _, _, _, cell := query.Get()
		if cell.Manual || n >= popCap {
			continue
		}

		energy := g.ledger.Energy(cell.ID)
		if energy <= 0 {
			continue
		}
		if g.rng.Float64() >= float64(energy/maxEnergy) {
			continue
		}

		child := cell.Brain.Clone()
		child.Mutate(g.rng, rate, variation)
		births = append(births, birth{parent: cell.ID, brain: child})
		cell.Children++
		n++
	}

	for _, b := range births {
		x, y := g.randomPosition()
		g.spawnCell(x, y, b.brain, b.parent, false)
		g.lifetimes.RecordChild(b.parent)
		g.collector.RecordBirth()
	}
}

// maxEnergy returns the highest ledger energy among evolving cells.
func (g *Game) maxEnergy() float32 {
	var best float32
	query := g.cellFilter.Query()
	for query.Next() {
		_, _, _, _, cell := query.Get()
		if cell.Manual {
			continue
		}
		if e := g.ledger.Energy(cell.ID); e > best {
			best = e
		}
	}
	return best
}
