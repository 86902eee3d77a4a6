// Package game owns the simulation world and runs the fixed-step tick.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ava/components"
	"github.com/pthm-cable/ava/config"
	"github.com/pthm-cable/ava/systems"
	"github.com/pthm-cable/ava/telemetry"
)

// Options configures a new Game.
type Options struct {
	Seed           int64
	Config         *config.Config        // nil uses config.Cfg()
	Settings       config.SettingsSource // nil uses the config's settings section
	LogStats       bool
	StatsWindowSec float64 // 0 uses the config's telemetry window
	OutputDir      string
	SnapshotDir    string // snapshots are saved here on each bookmark; empty disables
	HallOfFamePath string // hall_of_fame.json from an earlier run; empty starts empty
	StepsPerUpdate int

	// StatsCallback is invoked with each flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg      *config.Config
	settings config.SettingsSource
	seed     int64

	world *ecs.World
	rng   *rand.Rand

	// Entity mappers
	cellMapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Force,
		components.Cell,
	]
	cellFilter *ecs.Filter5[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Force,
		components.Cell,
	]
	foodMapper *ecs.Map2[components.Position, components.Food]
	foodFilter *ecs.Filter2[components.Position, components.Food]
	shotMapper *ecs.Map3[components.Position, components.Velocity, components.Projectile]
	shotFilter *ecs.Filter3[components.Position, components.Velocity, components.Projectile]

	// Individual component mappers for lookups
	posMap   *ecs.Map[components.Position]
	rotMap   *ecs.Map[components.Rotation]
	forceMap *ecs.Map[components.Force]
	cellMap  *ecs.Map[components.Cell]
	foodMap  *ecs.Map[components.Food]
	shotMap  *ecs.Map[components.Projectile]

	// Cell id to entity
	registry map[uint32]ecs.Entity
	ids      systems.IDAllocator

	ledger     *systems.Ledger
	forage     *systems.ForageIndex
	kinematics *systems.Kinematics
	supply     *systems.FoodSupply
	policy     systems.Policy
	culling    systems.CullRules

	heartbeat     *systems.Heartbeat
	foodCadence   *systems.Cadence
	indexCadence  *systems.Cadence
	energyCadence *systems.Cadence
	cullCadence   *systems.Cadence
	reproCadence  *systems.Cadence
	reseedCadence *systems.Cadence

	parallel *parallelState
	perf     *telemetry.PerfCollector
	focus    focusState
	manual   manualState
	stats    SimStats

	// Telemetry
	collector     *telemetry.Collector
	lifetimes     *telemetry.LifetimeTracker
	hallOfFame    *telemetry.HallOfFame
	bookmarks     *telemetry.BookmarkDetector
	outputManager *telemetry.OutputManager
	snapshotDir   string
	statsCallback func(telemetry.WindowStats)
	logStats      bool

	// State
	tick           int32
	now            float64
	stepsPerUpdate int
	evolving       int // living non-manual cells
	manualCount    int
	foodCount      int
	shotCount      int
}

// NewGameWithOptions creates a new game instance and seeds the world.
func NewGameWithOptions(opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	settings := opts.Settings
	if settings == nil {
		settings = config.StaticSettings(cfg.Settings)
	}
	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	world := ecs.NewWorld()

	g := &Game{
		cfg:      cfg,
		settings: settings,
		seed:     opts.Seed,
		world:    world,
		rng:      rand.New(rand.NewSource(opts.Seed)),

		cellMapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Force,
			components.Cell,
		](world),
		cellFilter: ecs.NewFilter5[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Force,
			components.Cell,
		](world),
		foodMapper: ecs.NewMap2[components.Position, components.Food](world),
		foodFilter: ecs.NewFilter2[components.Position, components.Food](world),
		shotMapper: ecs.NewMap3[components.Position, components.Velocity, components.Projectile](world),
		shotFilter: ecs.NewFilter3[components.Position, components.Velocity, components.Projectile](world),

		posMap:   ecs.NewMap[components.Position](world),
		rotMap:   ecs.NewMap[components.Rotation](world),
		forceMap: ecs.NewMap[components.Force](world),
		cellMap:  ecs.NewMap[components.Cell](world),
		foodMap:  ecs.NewMap[components.Food](world),
		shotMap:  ecs.NewMap[components.Projectile](world),

		registry: make(map[uint32]ecs.Entity),

		ledger:     systems.NewLedger(float32(cfg.Energy.Base), float32(cfg.Energy.Max), cfg.Energy.TTL),
		kinematics: systems.NewKinematics(world, cfg),
		supply:     systems.NewFoodSupply(cfg),
		policy:     systems.NewPolicy(cfg.Decision),
		culling:    systems.NewCullRules(cfg.Culling),

		heartbeat:     systems.NewHeartbeat(cfg.Heartbeat.Interval),
		foodCadence:   systems.NewCadence(cfg.Food.RefreshInterval),
		indexCadence:  systems.NewCadence(cfg.Food.IndexRefreshInterval),
		energyCadence: systems.NewCadence(cfg.Energy.UpdateInterval),
		cullCadence:   systems.NewCadence(cfg.Culling.Interval),
		reproCadence:  systems.NewCadence(cfg.Reproduction.Interval),
		reseedCadence: systems.NewCadence(cfg.Reproduction.ReseedInterval),

		parallel: newParallelState(),
	}

	g.collector = telemetry.NewCollector(statsWindow, cfg.Physics.DT)
	g.perf = telemetry.NewPerfCollector(int(g.collector.WindowDurationTicks()))
	g.lifetimes = telemetry.NewLifetimeTracker()
	g.hallOfFame = telemetry.NewHallOfFame(cfg.HallOfFame, g.rng)
	if opts.HallOfFamePath != "" {
		hof, err := telemetry.LoadHallOfFameFromFile(opts.HallOfFamePath, cfg.HallOfFame, g.rng)
		if err != nil {
			slog.Error("failed to load hall of fame", "path", opts.HallOfFamePath, "error", err)
		} else {
			g.hallOfFame = hof
			slog.Info("hall of fame loaded", "path", opts.HallOfFamePath, "entries", hof.Size())
		}
	}
	g.bookmarks = telemetry.NewBookmarkDetector(10)

	g.statsCallback = opts.StatsCallback
	g.logStats = opts.LogStats
	g.snapshotDir = opts.SnapshotDir
	g.stepsPerUpdate = steps

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			slog.Error("failed to create output manager", "error", err)
		} else {
			g.outputManager = om
			if err := om.WriteConfig(cfg); err != nil {
				slog.Error("failed to write config", "error", err)
			}
			if err := om.WriteRunInfo(opts.Seed); err != nil {
				slog.Error("failed to write run info", "error", err)
			}
		}
	}

	g.replenishFood(settings.Current().NumFood)
	g.refreshForageIndex()
	g.populate(cfg.Population.Target)
	if cfg.Cell.UserEnabled {
		g.spawnManualCell()
	}
	g.stats = g.computeStats()

	slog.Info("world seeded",
		"seed", opts.Seed,
		"cells", g.evolving,
		"food", g.foodCount,
		"arch", cfg.Derived.Arch,
	)

	return g
}

// UpdateHeadless runs the configured number of ticks.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.Step()
	}
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() int32 {
	return g.tick
}

// Now returns the simulation clock in seconds.
func (g *Game) Now() float64 {
	return g.now
}

// Seed returns the RNG seed the game was created with.
func (g *Game) Seed() int64 {
	return g.seed
}

// CellCount returns the number of living evolving cells.
func (g *Game) CellCount() int {
	return g.evolving
}

// FoodCount returns the number of food items.
func (g *Game) FoodCount() int {
	return g.foodCount
}

// ProjectileCount returns the number of live projectiles.
func (g *Game) ProjectileCount() int {
	return g.shotCount
}

// Stats returns the statistics computed at the end of the last tick.
func (g *Game) Stats() SimStats {
	return g.stats
}

// Energy returns the ledger energy for a cell id.
func (g *Game) Energy(id uint32) (float32, bool) {
	e, ok := g.ledger.Get(id)
	return e.Energy, ok
}

// Unload stops the worker pool, saves the best controller and the hall of
// fame, and closes output.
func (g *Game) Unload() {
	g.stopParallelWorkers()

	if g.outputManager != nil {
		if rec, ok := g.bestBrainRecord(); ok {
			if err := g.outputManager.WriteBrain("best_brain.json", rec); err != nil {
				slog.Error("failed to write best brain", "error", err)
			}
		}
		if err := g.outputManager.WriteHallOfFame(g.hallOfFame); err != nil {
			slog.Error("failed to write hall of fame", "error", err)
		}
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
		g.outputManager = nil
	}
}

// register records a fresh cell id. Ids are never reused, so a collision is
// a bug in the allocator.
func (g *Game) register(id uint32, e ecs.Entity) {
	if _, dup := g.registry[id]; dup {
		panic(fmt.Sprintf("game: duplicate cell id %d", id))
	}
	g.registry[id] = e
}

// randomPosition returns a uniform point inside the world.
func (g *Game) randomPosition() (x, y float32) {
	hw, hh := g.cfg.Derived.HalfWidth, g.cfg.Derived.HalfHeight
	return (g.rng.Float32()*2 - 1) * hw, (g.rng.Float32()*2 - 1) * hh
}
