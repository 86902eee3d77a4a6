package telemetry

import (
	"testing"

	"github.com/pthm-cable/ava/systems"
)

func TestCollector_FlushWindow(t *testing.T) {
	c := NewCollector(1.0, 0.25) // 4 ticks per window

	if c.WindowDurationTicks() != 4 {
		t.Fatalf("window ticks = %d, want 4", c.WindowDurationTicks())
	}
	if c.ShouldFlush(3) {
		t.Error("window should not flush before 4 ticks")
	}
	if !c.ShouldFlush(4) {
		t.Error("window should flush at 4 ticks")
	}

	c.RecordBirth()
	c.RecordBirth()
	c.RecordReseed(10)
	c.RecordDeath(systems.CullStarved)
	c.RecordDeath(systems.CullRevolving)
	c.RecordDeath(systems.CullRevolving)
	c.RecordShot()
	c.RecordShot()
	c.RecordShot()
	c.RecordHit()
	c.RecordMiss()
	c.RecordMiss()
	c.RecordMiss()
	c.RecordInactivityPenalty()

	stats := c.Flush(4, PopulationSample{
		Cells:       12,
		Food:        30,
		Projectiles: 2,
		LedgerSize:  11,
		Energies:    []float64{10, 20, 30},
		Fitness:     []float64{0.5, 0.5},
		MaxAge:      3.5,
		MaxChildren: 2,
	})

	if stats.WindowStartTick != 0 || stats.WindowEndTick != 4 || stats.SimTimeSec != 1.0 {
		t.Errorf("window = [%d, %d] at %v", stats.WindowStartTick, stats.WindowEndTick, stats.SimTimeSec)
	}
	if stats.Births != 2 || stats.Reseeded != 10 {
		t.Errorf("births = %d reseeded = %d", stats.Births, stats.Reseeded)
	}
	if stats.DeathsStarved != 1 || stats.DeathsRevolving != 2 || stats.Deaths() != 3 {
		t.Errorf("deaths = %+v", stats)
	}
	if stats.HitRate != 0.25 {
		t.Errorf("hit rate = %v, want 0.25", stats.HitRate)
	}
	if stats.EnergyMean != 20 || stats.EnergyMax != 30 {
		t.Errorf("energy mean = %v max = %v", stats.EnergyMean, stats.EnergyMax)
	}
	if stats.FitnessMean != 0.5 || stats.FitnessStd != 0 {
		t.Errorf("fitness = %v ± %v", stats.FitnessMean, stats.FitnessStd)
	}

	// Counters reset for the next window
	next := c.Flush(8, PopulationSample{})
	if next.WindowStartTick != 4 || next.Births != 0 || next.Deaths() != 0 || next.Shots != 0 || next.HitRate != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
}

func TestLifetimeTracker(t *testing.T) {
	lt := NewLifetimeTracker()
	lt.Register(1, 0.5, 0)
	lt.Register(2, 1.0, 1)

	lt.RecordShot(1)
	lt.RecordShot(1)
	lt.RecordHit(1, 70, 170)
	lt.RecordHit(1, 70, 120)
	lt.RecordMiss(1)
	lt.RecordChild(1)

	// Unknown ids are ignored
	lt.RecordShot(99)
	lt.RecordHit(99, 70, 70)
	lt.RecordChild(99)

	s := lt.Get(1)
	if s.Shots != 2 || s.Hits != 2 || s.Misses != 1 || s.Children != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.TotalForaged != 140 || s.PeakEnergy != 170 {
		t.Errorf("foraged = %v peak = %v", s.TotalForaged, s.PeakEnergy)
	}
	if got := s.HitRate(); got < 0.666 || got > 0.667 {
		t.Errorf("hit rate = %v, want 2/3", got)
	}
	if lt.Get(2).HitRate() != 0 {
		t.Error("hit rate with no resolved shots should be 0")
	}

	if lt.Remove(1) != s || lt.Get(1) != nil || lt.Count() != 1 {
		t.Error("remove did not drop the entry")
	}
}
