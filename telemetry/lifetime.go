package telemetry

// LifetimeStats tracks per-cell statistics over its lifetime.
type LifetimeStats struct {
	BirthTime float64
	ParentID  uint32 // 0 for founders

	Shots  int
	Hits   int
	Misses int

	Children int

	PeakEnergy   float32
	TotalForaged float32
}

// HitRate is hits over resolved shots, 0 when none resolved.
func (s *LifetimeStats) HitRate() float64 {
	if resolved := s.Hits + s.Misses; resolved > 0 {
		return float64(s.Hits) / float64(resolved)
	}
	return 0
}

// LifetimeTracker manages per-cell lifetime statistics.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new cell.
func (lt *LifetimeTracker) Register(id uint32, birthTime float64, parentID uint32) {
	lt.stats[id] = &LifetimeStats{
		BirthTime: birthTime,
		ParentID:  parentID,
	}
}

// Get returns the lifetime stats for a cell, or nil if not found.
func (lt *LifetimeTracker) Get(id uint32) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes a cell's stats and returns them for logging.
func (lt *LifetimeTracker) Remove(id uint32) *LifetimeStats {
	stats := lt.stats[id]
	delete(lt.stats, id)
	return stats
}

// RecordShot increments the shot count.
func (lt *LifetimeTracker) RecordShot(id uint32) {
	if s := lt.stats[id]; s != nil {
		s.Shots++
	}
}

// RecordHit counts a projectile that reached food and the energy it earned.
func (lt *LifetimeTracker) RecordHit(id uint32, gained, energyAfter float32) {
	if s := lt.stats[id]; s != nil {
		s.Hits++
		s.TotalForaged += gained
		if energyAfter > s.PeakEnergy {
			s.PeakEnergy = energyAfter
		}
	}
}

// RecordMiss increments the miss count.
func (lt *LifetimeTracker) RecordMiss(id uint32) {
	if s := lt.stats[id]; s != nil {
		s.Misses++
	}
}

// RecordChild increments children count.
func (lt *LifetimeTracker) RecordChild(parentID uint32) {
	if s := lt.stats[parentID]; s != nil {
		s.Children++
	}
}

// Count returns the number of tracked cells.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
