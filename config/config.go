// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Physics      PhysicsConfig      `yaml:"physics"`
	Cell         CellConfig         `yaml:"cell"`
	Decision     DecisionConfig     `yaml:"decision"`
	Energy       EnergyConfig       `yaml:"energy"`
	Projectile   ProjectileConfig   `yaml:"projectile"`
	Food         FoodConfig         `yaml:"food"`
	Neural       NeuralConfig       `yaml:"neural"`
	Culling      CullingConfig      `yaml:"culling"`
	Population   PopulationConfig   `yaml:"population"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Heartbeat    HeartbeatConfig    `yaml:"heartbeat"`
	HallOfFame   HallOfFameConfig   `yaml:"hall_of_fame"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Settings     Settings           `yaml:"settings"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds world dimensions. The world is centered on the origin.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PhysicsConfig holds parameters for the headless kinematics integrator.
type PhysicsConfig struct {
	DT               float64 `yaml:"dt"`
	LinearDamping    float64 `yaml:"linear_damping"`
	GridCellSize     float64 `yaml:"grid_cell_size"`
	CellRadius       float64 `yaml:"cell_radius"`
	ProjectileRadius float64 `yaml:"projectile_radius"`
	FoodRadius       float64 `yaml:"food_radius"`
}

// CellConfig holds per-cell movement and sensing parameters.
type CellConfig struct {
	ThrustForce    float64 `yaml:"thrust_force"`    // force magnitude while thrusting
	SpinStrength   float64 `yaml:"spin_strength"`   // radians per spin decision
	VisionRadius   float64 `yaml:"vision_radius"`   // distance normalizer for the nearest food
	UpdateInterval float64 `yaml:"update_interval"` // minimum seconds between decisions
	UserEnabled    bool    `yaml:"user_enabled"`    // spawn one manually driven cell
}

// DecisionConfig holds output thresholds and fitness heuristics.
type DecisionConfig struct {
	ThrustThreshold float64 `yaml:"thrust_threshold"`
	ShootThreshold  float64 `yaml:"shoot_threshold"`
	FitnessWindow   int     `yaml:"fitness_window"`
	ThrustDistance  float64 `yaml:"thrust_distance"` // thrust is credited beyond this normalized distance
	ShootDistance   float64 `yaml:"shoot_distance"`  // shooting is credited below this normalized distance
}

// EnergyConfig holds the energy economy parameters not tunable at runtime.
type EnergyConfig struct {
	Base                float64 `yaml:"base"`
	Max                 float64 `yaml:"max"`
	UpdateInterval      float64 `yaml:"update_interval"`
	TTL                 float64 `yaml:"ttl"`
	InactivityThreshold float64 `yaml:"inactivity_threshold"`
	InactivityPenalty   float64 `yaml:"inactivity_penalty"`
}

// ProjectileConfig holds projectile parameters.
type ProjectileConfig struct {
	Lifespan    float64 `yaml:"lifespan"`
	Speed       float64 `yaml:"speed"`
	FireRate    float64 `yaml:"fire_rate"` // minimum seconds between shots
	SpawnOffset float64 `yaml:"spawn_offset"`
}

// FoodConfig holds food supply parameters.
type FoodConfig struct {
	RefillBatch          int     `yaml:"refill_batch"`
	RefreshInterval      float64 `yaml:"refresh_interval"`
	IndexRefreshInterval float64 `yaml:"index_refresh_interval"`
	WideChance           float64 `yaml:"wide_chance"` // probability of using the wide spread factor
	WideFactor           float64 `yaml:"wide_factor"` // positions span ±world/factor
	NarrowFactor         float64 `yaml:"narrow_factor"`
}

// NeuralConfig holds controller topology and mutation parameters.
type NeuralConfig struct {
	HiddenLayers      []int   `yaml:"hidden_layers"`
	MutationRate      float64 `yaml:"mutation_rate"`
	MutationVariation float64 `yaml:"mutation_variation"`
}

// AgeWindow is a half-open age interval [Min, Max) in seconds.
type AgeWindow struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// CullingConfig holds the removal rules.
type CullingConfig struct {
	Interval            float64   `yaml:"interval"`
	UnmovingAge         AgeWindow `yaml:"unmoving_age"`
	UnmovingDistSq      float64   `yaml:"unmoving_dist_sq"`
	RevolvingAge        AgeWindow `yaml:"revolving_age"`
	RevolvingDistSq     float64   `yaml:"revolving_dist_sq"`
	OneDimensionalAge   AgeWindow `yaml:"one_dimensional_age"`
	OneDimensionalRatio float64   `yaml:"one_dimensional_ratio"`
}

// PopulationConfig holds population management parameters.
type PopulationConfig struct {
	Cap    int `yaml:"cap"`    // reproduction stops at this living count
	Target int `yaml:"target"` // fresh cells spawned when the population dies out
}

// ReproductionConfig holds reproduction parameters.
type ReproductionConfig struct {
	Interval       float64 `yaml:"interval"`
	ReseedInterval float64 `yaml:"reseed_interval"`
}

// HeartbeatConfig holds the decision staggering clock.
type HeartbeatConfig struct {
	Interval float64 `yaml:"interval"`
}

// HallOfFameConfig holds the archive of proven controllers.
type HallOfFameConfig struct {
	Size           int     `yaml:"size"`
	MinChildren    int     `yaml:"min_children"`
	MinHits        int     `yaml:"min_hits"`
	MinAge         float64 `yaml:"min_age"`
	ChildrenWeight float64 `yaml:"children_weight"`
	HitsWeight     float64 `yaml:"hits_weight"`
	AgeWeight      float64 `yaml:"age_weight"`
	ReseedFromHall bool    `yaml:"reseed_from_hall"` // reseed with mutated hall entries instead of random controllers
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds per stats window
}

// DerivedConfig holds values computed from other config values.
type DerivedConfig struct {
	DT32       float32
	HalfWidth  float32
	HalfHeight float32
	Arch       []int // full layer widths including input and output
	VisionSq   float32
	CollisionR float32 // projectile + food radius
}

// Controller input and output widths.
const (
	NumInputs  = 3 // distance, bearing, heading
	NumOutputs = 4 // spin-left, spin-right, thrust, shoot
)

// Global config instance
var global *Config

// Init initializes the global config from a file path.
// If path is empty, only defaults are used.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit initializes config or panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
}

// Cfg returns the global config. Panics if not initialized.
func Cfg() *Config {
	if global == nil {
		panic("config not initialized - call config.Init() first")
	}
	return global
}

// Load reads configuration from a YAML file, using embedded defaults as base.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Physics.DT <= 0:
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	case c.World.Width <= 0 || c.World.Height <= 0:
		return fmt.Errorf("world dimensions must be positive, got %vx%v", c.World.Width, c.World.Height)
	case c.Cell.VisionRadius <= 0:
		return fmt.Errorf("cell.vision_radius must be positive, got %v", c.Cell.VisionRadius)
	case c.Decision.FitnessWindow <= 0:
		return fmt.Errorf("decision.fitness_window must be positive, got %d", c.Decision.FitnessWindow)
	case c.Energy.Max < c.Energy.Base:
		return fmt.Errorf("energy.max (%v) below energy.base (%v)", c.Energy.Max, c.Energy.Base)
	case c.Physics.GridCellSize <= 0:
		return fmt.Errorf("physics.grid_cell_size must be positive, got %v", c.Physics.GridCellSize)
	case c.HallOfFame.Size < 0:
		return fmt.Errorf("hall_of_fame.size must not be negative, got %d", c.HallOfFame.Size)
	}
	for i, w := range c.Neural.HiddenLayers {
		if w <= 0 {
			return fmt.Errorf("neural.hidden_layers[%d] must be positive, got %d", i, w)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.HalfWidth = float32(c.World.Width / 2)
	c.Derived.HalfHeight = float32(c.World.Height / 2)
	c.Derived.VisionSq = float32(c.Cell.VisionRadius * c.Cell.VisionRadius)
	c.Derived.CollisionR = float32(c.Physics.ProjectileRadius + c.Physics.FoodRadius)

	arch := make([]int, 0, len(c.Neural.HiddenLayers)+2)
	arch = append(arch, NumInputs)
	arch = append(arch, c.Neural.HiddenLayers...)
	arch = append(arch, NumOutputs)
	c.Derived.Arch = arch
}

// Clone returns a deep copy of the config with derived values recomputed.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Neural.HiddenLayers = append([]int(nil), c.Neural.HiddenLayers...)
	cp.computeDerived()
	return &cp
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
