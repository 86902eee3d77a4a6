package game

import (
	"log/slog"

	"github.com/pthm-cable/ava/telemetry"
)

// flushTelemetry checks if the stats window should be flushed.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.samplePopulation())
	perfStats := g.perf.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Console output
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats(g.tick)
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, g.tick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, b := range g.bookmarks.Check(stats) {
		g.recordBookmark(b)
	}
}

// recordBookmark logs and persists a bookmark, saving a snapshot when a
// snapshot directory is configured.
func (g *Game) recordBookmark(b telemetry.Bookmark) {
	if g.logStats {
		b.LogBookmark()
	}
	if err := g.outputManager.WriteBookmark(b); err != nil {
		slog.Error("failed to write bookmark", "error", err)
	}
	if g.snapshotDir == "" {
		return
	}
	path, err := telemetry.SaveSnapshot(g.Snapshot(&b), g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "bookmark", string(b.Type))
}

// Snapshot captures every evolving cell at the current tick.
func (g *Game) Snapshot(b *telemetry.Bookmark) *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RunID:       g.outputManager.RunID(),
		RNGSeed:     g.seed,
		WorldWidth:  float32(g.cfg.World.Width),
		WorldHeight: float32(g.cfg.World.Height),
		Tick:        g.tick,
		SimTime:     g.now,
		Food:        g.foodCount,
		Cells:       make([]telemetry.CellState, 0, g.evolving),
		Bookmark:    b,
	}

	query := g.cellFilter.Query()
	for query.Next() {
		pos, vel, rot, _, cell := query.Get()
		if cell.Manual {
			continue
		}
		entry, hasEnergy := g.ledger.Get(cell.ID)
		snap.Cells = append(snap.Cells, telemetry.CellState{
			ID:        cell.ID,
			X:         pos.X,
			Y:         pos.Y,
			VelX:      vel.X,
			VelY:      vel.Y,
			Heading:   rot.Heading,
			Energy:    entry.Energy,
			HasEnergy: hasEnergy,
			Age:       cell.Age(g.now),
			Fitness:   cell.Fitness.Mean(),
			Children:  cell.Children,
			Brain:     cell.Brain.MarshalWeights(),
			Lifetime:  g.lifetimes.Get(cell.ID).ToJSON(),
		})
	}

	return snap
}

// samplePopulation collects per-cell energy and fitness for the window.
func (g *Game) samplePopulation() telemetry.PopulationSample {
	sample := telemetry.PopulationSample{
		Cells:       g.evolving,
		Food:        g.foodCount,
		Projectiles: g.shotCount,
		LedgerSize:  g.ledger.Len(),
		Energies:    make([]float64, 0, g.evolving),
		Fitness:     make([]float64, 0, g.evolving),
		MaxAge:      g.stats.MaxAge,
		MaxChildren: int(g.stats.MaxChildren),
	}

	query := g.cellFilter.Query()
	for query.Next() {
		_, _, _, _, cell := query.Get()
		if cell.Manual {
			continue
		}
		if e, ok := g.ledger.Get(cell.ID); ok {
			sample.Energies = append(sample.Energies, float64(e.Energy))
		}
		if cell.Fitness.Len() > 0 {
			sample.Fitness = append(sample.Fitness, float64(cell.Fitness.Mean()))
		}
	}

	return sample
}

// BestBrain returns the controller of the most energetic cell as of the last
// tick.
func (g *Game) BestBrain() (telemetry.BrainRecord, bool) {
	return g.bestBrainRecord()
}

func (g *Game) bestBrainRecord() (telemetry.BrainRecord, bool) {
	if g.stats.BestID == 0 {
		return telemetry.BrainRecord{}, false
	}
	e, ok := g.registry[g.stats.BestID]
	if !ok || !g.world.Alive(e) {
		return telemetry.BrainRecord{}, false
	}
	cell := g.cellMap.Get(e)
	return telemetry.BrainRecord{
		CellID:   cell.ID,
		Energy:   g.ledger.Energy(cell.ID),
		Age:      cell.Age(g.now),
		Lifetime: g.lifetimes.Get(cell.ID),
		Weights:  cell.Brain.MarshalWeights(),
	}, true
}
