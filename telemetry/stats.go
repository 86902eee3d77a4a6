package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	RunID           string  `csv:"run_id"`
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	Cells       int `csv:"cells"`
	Food        int `csv:"food"`
	Projectiles int `csv:"projectiles"`
	LedgerSize  int `csv:"ledger_size"`

	// Events during window
	Births               int `csv:"births"`
	Reseeded             int `csv:"reseeded"`
	DeathsStarved        int `csv:"deaths_starved"`
	DeathsUnmoving       int `csv:"deaths_unmoving"`
	DeathsRevolving      int `csv:"deaths_revolving"`
	DeathsOneDimensional int `csv:"deaths_one_dimensional"`

	// Foraging
	Shots               int     `csv:"shots"`
	Hits                int     `csv:"hits"`
	Misses              int     `csv:"misses"`
	HitRate             float64 `csv:"hit_rate"`
	InactivityPenalties int     `csv:"inactivity_penalties"`

	// Energy distribution (sampled at window end)
	EnergyMean float64 `csv:"energy_mean"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`
	EnergyMax  float64 `csv:"energy_max"`

	// Rolling fitness across the population
	FitnessMean float64 `csv:"fitness_mean"`
	FitnessStd  float64 `csv:"fitness_std"`

	MaxAge      float64 `csv:"max_age"`
	MaxChildren int     `csv:"max_children"`
}

// Deaths returns the total number of removals in the window.
func (s WindowStats) Deaths() int {
	return s.DeathsStarved + s.DeathsUnmoving + s.DeathsRevolving + s.DeathsOneDimensional
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeEnergyStats calculates mean and percentiles from energy values.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// ComputeMeanStd returns the mean and population standard deviation.
func ComputeMeanStd(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	mean, std = stat.PopMeanStdDev(values, nil)
	return mean, std
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("cells", s.Cells),
		slog.Int("food", s.Food),
		slog.Int("projectiles", s.Projectiles),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths()),
		slog.Int("reseeded", s.Reseeded),
		slog.Float64("hit_rate", s.HitRate),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_max", s.EnergyMax),
		slog.Float64("fitness_mean", s.FitnessMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"cells", s.Cells,
		"food", s.Food,
		"projectiles", s.Projectiles,
		"ledger_size", s.LedgerSize,
		"births", s.Births,
		"reseeded", s.Reseeded,
		"deaths_starved", s.DeathsStarved,
		"deaths_unmoving", s.DeathsUnmoving,
		"deaths_revolving", s.DeathsRevolving,
		"deaths_one_dimensional", s.DeathsOneDimensional,
		"shots", s.Shots,
		"hits", s.Hits,
		"misses", s.Misses,
		"hit_rate", s.HitRate,
		"inactivity_penalties", s.InactivityPenalties,
		"energy_mean", s.EnergyMean,
		"energy_p10", s.EnergyP10,
		"energy_p50", s.EnergyP50,
		"energy_p90", s.EnergyP90,
		"energy_max", s.EnergyMax,
		"fitness_mean", s.FitnessMean,
		"fitness_std", s.FitnessStd,
		"max_age", s.MaxAge,
		"max_children", s.MaxChildren,
	)
}
