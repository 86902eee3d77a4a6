// Package components defines ECS components for the simulation.
package components

import (
	"github.com/pthm-cable/ava/neural"
)

// Position represents an entity's world position.
type Position struct {
	X, Y float32
}

// Velocity represents an entity's velocity.
type Velocity struct {
	X, Y float32
}

// Rotation holds the facing angle in radians, normalized to [-pi, pi].
type Rotation struct {
	Heading float32
}

// Force is the actuation a cell requests from the kinematics step.
// Spin is consumed and zeroed by the integrator.
type Force struct {
	X, Y float32
	Spin float32
}

// Cell holds the evolving agent's own state.
type Cell struct {
	ID uint32

	// Birth record, immutable after spawn
	BirthX, BirthY float32
	BirthTime      float64

	LastUpdated float64 // last decision time
	LastFired   float64 // last projectile launch time
	Phase       float64 // heartbeat offset in [0,1) that staggers decisions
	Children    uint32
	Manual      bool // driven by external input, never evolves

	Fitness FitnessWindow
	Brain   *neural.Net
}

// Age returns the cell's age at time now.
func (c *Cell) Age(now float64) float64 {
	return now - c.BirthTime
}

// Displacement returns the absolute displacement from the birth position.
func (c *Cell) Displacement(pos Position) (dx, dy float32) {
	dx = pos.X - c.BirthX
	dy = pos.Y - c.BirthY
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx, dy
}

// Food marks a food item.
type Food struct {
	SpawnedAt float64
}

// Projectile is a shot fired by a cell.
type Projectile struct {
	Owner  uint32 // cell id credited on hit, penalized on miss
	BornAt float64
}
