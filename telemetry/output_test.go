package telemetry

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/ava/config"
	"github.com/pthm-cable/ava/neural"
)

func TestNewOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	// Methods are safe on a nil manager
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManager_TelemetryHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 3; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: int32(i * 600), Cells: i}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "run_id"); n != 1 {
		t.Errorf("header written %d times, want 1", n)
	}

	var rows []WindowStats
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		t.Fatalf("unmarshal telemetry: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for _, r := range rows {
		if r.RunID != om.RunID() {
			t.Errorf("row run id = %q, want %q", r.RunID, om.RunID())
		}
	}
	if rows[2].Cells != 3 || rows[2].WindowEndTick != 1800 {
		t.Errorf("last row = %+v", rows[2])
	}
}

func TestOutputManager_RunInfoAndConfig(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteRunInfo(99); err != nil {
		t.Fatal(err)
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not load: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "run.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var info RunInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		t.Fatal(err)
	}
	if info.Seed != 99 || info.RunID != om.RunID() || info.StartedAt.IsZero() {
		t.Errorf("run info = %+v", info)
	}
}

func TestOutputManager_WriteBrain(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	net := neural.New(rand.New(rand.NewSource(5)), []int{3, 8, 4})
	rec := BrainRecord{CellID: 7, Energy: 300, Age: 12, Weights: net.MarshalWeights()}
	if err := om.WriteBrain("best_brain.json", rec); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "best_brain.json"))
	if err != nil {
		t.Fatal(err)
	}
	var loaded BrainRecord
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatal(err)
	}
	if loaded.CellID != 7 {
		t.Errorf("cell id = %d, want 7", loaded.CellID)
	}
	if _, err := neural.FromWeights(loaded.Weights); err != nil {
		t.Errorf("weights do not rebuild: %v", err)
	}
}
