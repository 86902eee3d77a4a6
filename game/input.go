package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ava/systems"
)

// manualState holds the externally driven cell and its pending command.
type manualState struct {
	active bool
	entity ecs.Entity
	id     uint32
	action systems.Action
}

// ManualID returns the id of the manual cell, if one exists.
func (g *Game) ManualID() (uint32, bool) {
	return g.manual.id, g.manual.active
}

// SetManualAction sets the command applied at the manual cell's next
// decision. The command persists until replaced.
func (g *Game) SetManualAction(a systems.Action) {
	g.manual.action = a
}

// applyManual actuates the manual cell with the same throttles as evolving
// cells. It never scores fitness.
func (g *Game) applyManual() {
	e := g.manual.entity
	if !g.manual.active || !g.world.Alive(e) {
		return
	}

	pos := g.posMap.Get(e)
	rot := g.rotMap.Get(e)
	force := g.forceMap.Get(e)
	cell := g.cellMap.Get(e)

	a := g.manual.action
	if a.SpinLeft && a.SpinRight {
		a.SpinLeft, a.SpinRight = false, false
	}
	if a.Shoot && g.now-cell.LastFired < g.cfg.Projectile.FireRate {
		a.Shoot = false
	}

	fx, fy, spin := systems.Actuation(a, rot.Heading, float32(g.cfg.Cell.ThrustForce), float32(g.cfg.Cell.SpinStrength))
	force.X, force.Y = fx, fy
	force.Spin += spin
	cell.LastUpdated = g.now

	if a.Shoot {
		cell.LastFired = g.now
		g.spawnProjectile(cell.ID, *pos, rot.Heading+spin)
	}
}
