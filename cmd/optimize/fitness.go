package main

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/ava/config"
	"github.com/pthm-cable/ava/game"
	"github.com/pthm-cable/ava/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestBrain   *telemetry.BrainRecord
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10.0, // 10 seconds per window
		bestFitness: math.Inf(1),
	}
}

// BestBrain returns the strongest controller from the best evaluation.
func (fe *FitnessEvaluator) BestBrain() *telemetry.BrainRecord {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestBrain
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single simulation run.
type runResult struct {
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
	reseeds     int
	brain       *telemetry.BrainRecord
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
	brain   *telemetry.BrainRecord
}

// Evaluate computes fitness for a parameter vector (lower = better). An
// invalid parameter set scores +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) (float64, error) {
	results := make([]seedResult, len(fe.seeds))

	var eg errgroup.Group
	for i, seed := range fe.seeds {
		eg.Go(func() error {
			result, err := fe.runSimulation(x, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = seedResult{
				fitness: fe.computeFitness(result),
				quality: fe.computeQuality(result.windowStats),
				brain:   result.brain,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return math.Inf(1), err
	}

	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeedBrain *telemetry.BrainRecord

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedBrain = r.brain
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestBrain = bestSeedBrain
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness, nil
}

// runSimulation executes a single headless simulation run for maxTicks.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (*runResult, error) {
	cfg := fe.baseConfig.Clone()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return nil, err
	}

	result := &runResult{}

	g := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 1,
		Config:         cfg,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
			result.reseeds += stats.Reseeded
		},
	})
	defer g.Unload()

	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()
	}

	if rec, ok := g.BestBrain(); ok {
		result.brain = &rec
	}
	return result, nil
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -quality / (1 + reseeded/target)
// Every extinction costs as much as a full population's worth of foraging.
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	quality := fe.computeQuality(r.windowStats)
	extinctions := float64(r.reseeds) / math.Max(1, float64(fe.baseConfig.Population.Target))
	return -quality / (1 + extinctions)
}

// Quality component weights.
const (
	qualityWeightForage   = 0.5
	qualityWeightAccuracy = 0.3
	qualityWeightFitness  = 0.2

	qualityWarmupWindows = 3 // skip first N windows (warmup)
	qualityMinCells      = 1 // exclude windows with fewer cells
)

// computeQuality computes foraging quality ∈ [0, 1] from window stats.
func (fe *FitnessEvaluator) computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	var forageSum, accuracySum, fitnessSum float64
	var count int

	for _, w := range windows[qualityWarmupWindows:] {
		if w.Cells < qualityMinCells {
			continue
		}

		// Hits per cell per window, saturating
		hitsPerCell := float64(w.Hits) / float64(w.Cells)
		forageSum += 1.0 - math.Exp(-hitsPerCell)

		accuracySum += w.HitRate

		// Rolling fitness is a penalty in [0, 4]
		fitnessSum += 1.0 - w.FitnessMean/4.0
		count++
	}

	if count == 0 {
		return 0
	}

	n := float64(count)
	quality := qualityWeightForage*forageSum/n +
		qualityWeightAccuracy*accuracySum/n +
		qualityWeightFitness*fitnessSum/n

	return clamp01(quality)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
