package systems

import (
	"math/rand"

	"github.com/pthm-cable/ava/components"
	"github.com/pthm-cable/ava/config"
)

// FoodSupply decides when and where to replenish food.
type FoodSupply struct {
	batch        int
	wideChance   float64
	wideFactor   float32
	narrowFactor float32
	width        float32
	height       float32
}

// NewFoodSupply creates a supply planner from config.
func NewFoodSupply(cfg *config.Config) *FoodSupply {
	return &FoodSupply{
		batch:        cfg.Food.RefillBatch,
		wideChance:   cfg.Food.WideChance,
		wideFactor:   float32(cfg.Food.WideFactor),
		narrowFactor: float32(cfg.Food.NarrowFactor),
		width:        float32(cfg.World.Width),
		height:       float32(cfg.World.Height),
	}
}

// Deficit returns how many food items to spawn given the current count and
// the target. Food is only topped up once a full batch has been eaten; an
// empty world is refilled completely.
func (s *FoodSupply) Deficit(count, target int) int {
	if count == 0 {
		return target
	}
	if count > target-s.batch {
		return 0
	}
	return min(s.batch, target-count)
}

// Place returns n positions. Each call draws one spread factor, so a batch
// clusters either widely or toward the center.
func (s *FoodSupply) Place(rng *rand.Rand, n int) []components.Position {
	factor := s.narrowFactor
	if rng.Float64() < s.wideChance {
		factor = s.wideFactor
	}
	spanX := s.width / factor
	spanY := s.height / factor

	out := make([]components.Position, n)
	for i := range out {
		out[i] = components.Position{
			X: (rng.Float32()*2 - 1) * spanX,
			Y: (rng.Float32()*2 - 1) * spanY,
		}
	}
	return out
}
