package telemetry

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"github.com/pthm-cable/ava/config"
	"github.com/pthm-cable/ava/neural"
)

// HallEntry is a removed cell's controller and what it achieved.
type HallEntry struct {
	CellID   uint32              `json:"cell_id"`
	Fitness  float32             `json:"fitness"`
	Children int                 `json:"children"`
	Hits     int                 `json:"hits"`
	Misses   int                 `json:"misses"`
	Age      float64             `json:"age_sec"`
	Foraged  float32             `json:"foraged"`
	Weights  neural.BrainWeights `json:"brain"`
}

// HallOfFame keeps the fittest controllers of removed cells, sorted by
// descending fitness.
type HallOfFame struct {
	cfg     config.HallOfFameConfig
	entries []HallEntry
	rng     *rand.Rand
}

// NewHallOfFame creates an empty hall.
func NewHallOfFame(cfg config.HallOfFameConfig, rng *rand.Rand) *HallOfFame {
	return &HallOfFame{
		cfg:     cfg,
		entries: make([]HallEntry, 0, cfg.Size),
		rng:     rng,
	}
}

// Consider evaluates a removed cell for entry.
// Returns true if the cell was added.
func (hof *HallOfFame) Consider(id uint32, weights neural.BrainWeights, stats *LifetimeStats, age float64) bool {
	if !hof.Qualifies(stats, age) {
		return false
	}

	entry := HallEntry{
		CellID:   id,
		Fitness:  hof.fitness(stats, age),
		Children: stats.Children,
		Hits:     stats.Hits,
		Misses:   stats.Misses,
		Age:      age,
		Foraged:  stats.TotalForaged,
		Weights:  weights,
	}
	return hof.insert(entry)
}

// Qualifies reports whether a cell reproduced, or lived long enough and
// foraged enough.
func (hof *HallOfFame) Qualifies(stats *LifetimeStats, age float64) bool {
	if stats == nil || hof.cfg.Size == 0 {
		return false
	}
	if stats.Children >= hof.cfg.MinChildren && hof.cfg.MinChildren > 0 {
		return true
	}
	return age >= hof.cfg.MinAge && stats.Hits >= hof.cfg.MinHits
}

func (hof *HallOfFame) fitness(stats *LifetimeStats, age float64) float32 {
	return float32(float64(stats.Children)*hof.cfg.ChildrenWeight +
		float64(stats.Hits)*hof.cfg.HitsWeight +
		age*hof.cfg.AgeWeight)
}

// insert adds an entry at its sorted position, dropping the weakest when
// the hall is over capacity.
func (hof *HallOfFame) insert(entry HallEntry) bool {
	idx := sort.Search(len(hof.entries), func(i int) bool {
		return hof.entries[i].Fitness < entry.Fitness
	})
	if idx >= hof.cfg.Size {
		return false
	}

	hof.entries = append(hof.entries, HallEntry{})
	copy(hof.entries[idx+1:], hof.entries[idx:])
	hof.entries[idx] = entry

	if len(hof.entries) > hof.cfg.Size {
		hof.entries = hof.entries[:hof.cfg.Size]
	}
	return true
}

// Sample picks an entry by tournament selection with k=3.
// Returns false if the hall is empty.
func (hof *HallOfFame) Sample() (neural.BrainWeights, bool) {
	if len(hof.entries) == 0 {
		return neural.BrainWeights{}, false
	}

	const tournamentSize = 3
	best := -1
	for i := 0; i < tournamentSize; i++ {
		idx := hof.rng.Intn(len(hof.entries))
		if best < 0 || hof.entries[idx].Fitness > hof.entries[best].Fitness {
			best = idx
		}
	}
	return hof.entries[best].Weights, true
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	return len(hof.entries)
}

// TopFitness returns the highest fitness in the hall, or 0 when empty.
func (hof *HallOfFame) TopFitness() float32 {
	if len(hof.entries) == 0 {
		return 0
	}
	return hof.entries[0].Fitness
}

// Entries returns the entries in descending fitness order.
func (hof *HallOfFame) Entries() []HallEntry {
	return hof.entries
}

// MarshalJSON implements json.Marshaler.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(hof.entries, "", "  ")
}

// LoadHallOfFameFromFile reads a hall written by MarshalJSON. Entries beyond
// the configured size are dropped.
func LoadHallOfFameFromFile(path string, cfg config.HallOfFameConfig, rng *rand.Rand) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var entries []HallEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	hof := NewHallOfFame(cfg, rng)
	for _, e := range entries {
		hof.insert(e)
	}
	return hof, nil
}
