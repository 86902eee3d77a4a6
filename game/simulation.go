package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ava/components"
	"github.com/pthm-cable/ava/config"
	"github.com/pthm-cable/ava/systems"
	"github.com/pthm-cable/ava/telemetry"
)

// Step advances the simulation by one fixed tick.
func (g *Game) Step() {
	cfg := g.cfg
	dt := cfg.Physics.DT
	settings := g.settings.Current()

	g.perf.StartTick()

	g.now += dt
	g.heartbeat.Advance(dt, g.now)

	g.perf.StartPhase(telemetry.PhaseFood)
	if g.foodCadence.Advance(dt) {
		g.replenishFood(settings.NumFood)
	}
	if g.indexCadence.Advance(dt) {
		g.refreshForageIndex()
	}

	g.perf.StartPhase(telemetry.PhaseDecide)
	g.updateDecisions()

	g.perf.StartPhase(telemetry.PhasePhysics)
	contacts := g.kinematics.Step(cfg.Derived.DT32)

	g.perf.StartPhase(telemetry.PhaseContacts)
	g.resolveContacts(contacts, settings)
	g.expireProjectiles(settings)

	g.perf.StartPhase(telemetry.PhaseLifecycle)
	if g.energyCadence.Advance(dt) {
		g.updateEnergy(settings)
	}
	if g.cullCadence.Advance(dt) {
		g.cullCells()
	}
	if g.reproCadence.Advance(dt) {
		g.reproduce()
	}
	if g.reseedCadence.Advance(dt) {
		g.reseedIfExtinct()
	}
	g.stats = g.computeStats()
	g.tick++

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perf.EndTick()
}

// resolveContacts credits projectile hits. Either side of a contact may be
// the projectile; stale or unrelated pairs are ignored.
func (g *Game) resolveContacts(contacts []systems.Collision, settings config.Settings) {
	for _, c := range contacts {
		if !g.world.Alive(c.A) || !g.world.Alive(c.B) {
			continue
		}
		shot, food, ok := g.classifyContact(c)
		if !ok {
			continue
		}

		owner := g.shotMap.Get(shot).Owner
		g.world.RemoveEntity(shot)
		g.world.RemoveEntity(food)
		g.shotCount--
		g.foodCount--

		gain := float32(settings.EnergyPerFood)
		energy := g.ledger.Credit(owner, gain, g.now)
		g.collector.RecordHit()
		g.lifetimes.RecordHit(owner, gain, energy)
	}
}

// classifyContact returns the projectile and food of a contact.
func (g *Game) classifyContact(c systems.Collision) (shot, food ecs.Entity, ok bool) {
	switch {
	case g.shotMap.Has(c.A) && g.foodMap.Has(c.B):
		return c.A, c.B, true
	case g.shotMap.Has(c.B) && g.foodMap.Has(c.A):
		return c.B, c.A, true
	}
	return ecs.Entity{}, ecs.Entity{}, false
}

type expiredShot struct {
	entity ecs.Entity
	owner  uint32
}

// expireProjectiles removes projectiles older than their lifespan and
// charges the owner for the miss.
func (g *Game) expireProjectiles(settings config.Settings) {
	lifespan := g.cfg.Projectile.Lifespan

	var expired []expiredShot
	query := g.shotFilter.Query()
	for query.Next() {
		_, _, shot := query.Get()
		if g.now-shot.BornAt >= lifespan {
			expired = append(expired, expiredShot{entity: query.Entity(), owner: shot.Owner})
		}
	}

	penalty := float32(settings.BulletMissPenalty)
	for _, s := range expired {
		g.world.RemoveEntity(s.entity)
		g.shotCount--
		g.ledger.Penalize(s.owner, penalty, g.now)
		g.collector.RecordMiss()
		g.lifetimes.RecordMiss(s.owner)
	}
}

// updateEnergy charges each evolving cell its decay rate scaled by rolling
// fitness, then drops stale ledger entries.
func (g *Game) updateEnergy(settings config.Settings) {
	rate := float32(settings.EnergyDecayRate)

	query := g.cellFilter.Query()
	for query.Next() {
		_, _, _, _, cell := query.Get()
		if cell.Manual {
			continue
		}
		g.ledger.Decay(cell.ID, rate*cell.Fitness.Mean(), g.now)
	}

	g.ledger.Purge(g.now)
}

// spawnProjectile launches a shot from a cell along heading.
func (g *Game) spawnProjectile(owner uint32, from components.Position, heading float32) {
	pc := &g.cfg.Projectile
	hx, hy := systems.HeadingVector(heading)
	offset := float32(pc.SpawnOffset)
	speed := float32(pc.Speed)

	pos := components.Position{X: from.X + hx*offset, Y: from.Y + hy*offset}
	vel := components.Velocity{X: hx * speed, Y: hy * speed}
	shot := components.Projectile{Owner: owner, BornAt: g.now}
	g.shotMapper.NewEntity(&pos, &vel, &shot)
	g.shotCount++

	g.collector.RecordShot()
	g.lifetimes.RecordShot(owner)
}
