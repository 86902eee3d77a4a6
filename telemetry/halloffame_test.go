package telemetry

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pthm-cable/ava/config"
	"github.com/pthm-cable/ava/neural"
)

func testHallConfig(size int) config.HallOfFameConfig {
	return config.HallOfFameConfig{
		Size:           size,
		MinChildren:    1,
		MinHits:        5,
		MinAge:         10,
		ChildrenWeight: 10,
		HitsWeight:     1,
		AgeWeight:      0.1,
	}
}

func testWeights(rng *rand.Rand) neural.BrainWeights {
	return neural.New(rng, []int{3, 4, 4}).MarshalWeights()
}

func TestHallOfFame_EntryCriteria(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	hof := NewHallOfFame(testHallConfig(5), rng)
	w := testWeights(rng)

	if hof.Consider(1, w, &LifetimeStats{Hits: 2}, 30) {
		t.Error("cell with few hits and no children should not qualify")
	}
	if hof.Consider(2, w, &LifetimeStats{Hits: 20}, 5) {
		t.Error("short-lived cell without children should not qualify")
	}
	if !hof.Consider(3, w, &LifetimeStats{Children: 1}, 1) {
		t.Error("cell with a child should qualify")
	}
	if !hof.Consider(4, w, &LifetimeStats{Hits: 5}, 10) {
		t.Error("long-lived forager should qualify")
	}
	if hof.Consider(5, w, nil, 100) {
		t.Error("cell without lifetime stats should not qualify")
	}
	if hof.Size() != 2 {
		t.Errorf("size = %d, want 2", hof.Size())
	}
}

func TestHallOfFame_KeepsFittest(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	hof := NewHallOfFame(testHallConfig(3), rng)
	w := testWeights(rng)

	for i := 1; i <= 6; i++ {
		hof.Consider(uint32(i), w, &LifetimeStats{Children: i}, 0)
	}

	var got []uint32
	for _, e := range hof.Entries() {
		got = append(got, e.CellID)
	}
	if diff := cmp.Diff([]uint32{6, 5, 4}, got); diff != "" {
		t.Errorf("entries (-want +got):\n%s", diff)
	}
	if hof.TopFitness() != 60 {
		t.Errorf("top fitness = %v, want 60", hof.TopFitness())
	}

	if hof.Consider(7, w, &LifetimeStats{Children: 1}, 0) {
		t.Error("entry weaker than a full hall should be rejected")
	}
}

func TestHallOfFame_Sample(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	hof := NewHallOfFame(testHallConfig(3), rng)

	if _, ok := hof.Sample(); ok {
		t.Error("empty hall should not sample")
	}

	w := testWeights(rng)
	hof.Consider(1, w, &LifetimeStats{Children: 2}, 0)
	got, ok := hof.Sample()
	if !ok {
		t.Fatal("expected a sample")
	}
	if diff := cmp.Diff(w, got); diff != "" {
		t.Errorf("sampled weights (-want +got):\n%s", diff)
	}
	if _, err := neural.FromWeights(got); err != nil {
		t.Errorf("sampled weights do not rebuild: %v", err)
	}
}

func TestHallOfFame_JSONRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	hof := NewHallOfFame(testHallConfig(4), rng)
	for i := 1; i <= 3; i++ {
		hof.Consider(uint32(i), testWeights(rng), &LifetimeStats{Children: i, Hits: i * 3}, float64(i*10))
	}

	data, err := hof.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	path := filepath.Join(t.TempDir(), "hall_of_fame.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadHallOfFameFromFile(path, testHallConfig(4), rng)
	if err != nil {
		t.Fatalf("LoadHallOfFameFromFile: %v", err)
	}
	if diff := cmp.Diff(hof.Entries(), loaded.Entries()); diff != "" {
		t.Errorf("entries (-want +got):\n%s", diff)
	}
}
