package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/ava/neural"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the population state at one tick.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	RNGSeed int64  `json:"rng_seed"`

	WorldWidth  float32 `json:"world_width"`
	WorldHeight float32 `json:"world_height"`

	Tick    int32   `json:"tick"`
	SimTime float64 `json:"sim_time"`
	Food    int     `json:"food"`

	Cells []CellState `json:"cells"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// CellState holds one cell's state.
type CellState struct {
	ID uint32 `json:"id"`

	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	VelX    float32 `json:"vel_x"`
	VelY    float32 `json:"vel_y"`
	Heading float32 `json:"heading"`

	Energy    float32 `json:"energy"`
	HasEnergy bool    `json:"has_energy"`
	Age       float64 `json:"age"`
	Fitness   float32 `json:"fitness"`
	Children  uint32  `json:"children"`

	Brain neural.BrainWeights `json:"brain"`

	Lifetime *LifetimeStatsJSON `json:"lifetime,omitempty"`
}

// LifetimeStatsJSON is the JSON-serializable form of LifetimeStats.
type LifetimeStatsJSON struct {
	BirthTime    float64 `json:"birth_time"`
	ParentID     uint32  `json:"parent_id"`
	Shots        int     `json:"shots"`
	Hits         int     `json:"hits"`
	Misses       int     `json:"misses"`
	Children     int     `json:"children"`
	PeakEnergy   float32 `json:"peak_energy"`
	TotalForaged float32 `json:"total_foraged"`
}

// ToJSON converts LifetimeStats to its JSON form.
func (ls *LifetimeStats) ToJSON() *LifetimeStatsJSON {
	if ls == nil {
		return nil
	}
	return &LifetimeStatsJSON{
		BirthTime:    ls.BirthTime,
		ParentID:     ls.ParentID,
		Shots:        ls.Shots,
		Hits:         ls.Hits,
		Misses:       ls.Misses,
		Children:     ls.Children,
		PeakEnergy:   ls.PeakEnergy,
		TotalForaged: ls.TotalForaged,
	}
}

// FromJSON converts the JSON form back to LifetimeStats.
func (lsj *LifetimeStatsJSON) FromJSON() *LifetimeStats {
	if lsj == nil {
		return nil
	}
	return &LifetimeStats{
		BirthTime:    lsj.BirthTime,
		ParentID:     lsj.ParentID,
		Shots:        lsj.Shots,
		Hits:         lsj.Hits,
		Misses:       lsj.Misses,
		Children:     lsj.Children,
		PeakEnergy:   lsj.PeakEnergy,
		TotalForaged: lsj.TotalForaged,
	}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
