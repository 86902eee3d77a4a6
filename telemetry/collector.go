package telemetry

import "github.com/pthm-cable/ava/systems"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	births              int
	reseeded            int
	deaths              [systems.CullOneDimensional + 1]int
	shots               int
	hits                int
	misses              int
	inactivityPenalties int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordBirth records an offspring.
func (c *Collector) RecordBirth() {
	c.births++
}

// RecordReseed records n fresh cells spawned after extinction.
func (c *Collector) RecordReseed(n int) {
	c.reseeded += n
}

// RecordDeath records a removal with its reason.
func (c *Collector) RecordDeath(reason systems.CullReason) {
	if int(reason) < len(c.deaths) {
		c.deaths[reason]++
	}
}

// RecordShot records a projectile launch.
func (c *Collector) RecordShot() {
	c.shots++
}

// RecordHit records a projectile that reached food.
func (c *Collector) RecordHit() {
	c.hits++
}

// RecordMiss records a projectile that expired.
func (c *Collector) RecordMiss() {
	c.misses++
}

// RecordInactivityPenalty records a penalty for not firing.
func (c *Collector) RecordInactivityPenalty() {
	c.inactivityPenalties++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// PopulationSample is the population state sampled at window end.
type PopulationSample struct {
	Cells       int
	Food        int
	Projectiles int
	LedgerSize  int
	Energies    []float64
	Fitness     []float64
	MaxAge      float64
	MaxChildren int
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, pop PopulationSample) WindowStats {
	var hitRate float64
	if resolved := c.hits + c.misses; resolved > 0 {
		hitRate = float64(c.hits) / float64(resolved)
	}

	energyMean, energyP10, energyP50, energyP90 := ComputeEnergyStats(pop.Energies)
	fitnessMean, fitnessStd := ComputeMeanStd(pop.Fitness)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Cells:       pop.Cells,
		Food:        pop.Food,
		Projectiles: pop.Projectiles,
		LedgerSize:  pop.LedgerSize,

		Births:               c.births,
		Reseeded:             c.reseeded,
		DeathsStarved:        c.deaths[systems.CullStarved],
		DeathsUnmoving:       c.deaths[systems.CullUnmoving],
		DeathsRevolving:      c.deaths[systems.CullRevolving],
		DeathsOneDimensional: c.deaths[systems.CullOneDimensional],

		Shots:               c.shots,
		Hits:                c.hits,
		Misses:              c.misses,
		HitRate:             hitRate,
		InactivityPenalties: c.inactivityPenalties,

		EnergyMean: energyMean,
		EnergyP10:  energyP10,
		EnergyP50:  energyP50,
		EnergyP90:  energyP90,
		EnergyMax:  maxOf(pop.Energies),

		FitnessMean: fitnessMean,
		FitnessStd:  fitnessStd,

		MaxAge:      pop.MaxAge,
		MaxChildren: pop.MaxChildren,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.births = 0
	c.reseeded = 0
	clear(c.deaths[:])
	c.shots = 0
	c.hits = 0
	c.misses = 0
	c.inactivityPenalties = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
