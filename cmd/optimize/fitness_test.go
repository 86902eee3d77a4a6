package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/ava/config"
	"github.com/pthm-cable/ava/telemetry"
)

func testEvaluator(t *testing.T) *FitnessEvaluator {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Population.Target = 100
	return NewFitnessEvaluator(NewParamVector(), 600, []int64{1}, cfg)
}

func TestComputeQualitySkipsWarmup(t *testing.T) {
	fe := testEvaluator(t)

	warm := make([]telemetry.WindowStats, qualityWarmupWindows)
	for i := range warm {
		warm[i] = telemetry.WindowStats{Cells: 100, Hits: 1000, HitRate: 1}
	}
	if q := fe.computeQuality(warm); q != 0 {
		t.Errorf("quality over warmup only = %v, want 0", q)
	}

	// Perfect accuracy and zero fitness penalty, one hit per cell
	windows := append(warm, telemetry.WindowStats{Cells: 100, Hits: 100, HitRate: 1})
	want := qualityWeightForage*(1-math.Exp(-1)) + qualityWeightAccuracy + qualityWeightFitness
	if q := fe.computeQuality(windows); math.Abs(q-want) > 1e-9 {
		t.Errorf("quality = %v, want %v", q, want)
	}

	// Empty windows are excluded
	empty := append(warm, telemetry.WindowStats{Cells: 0, Hits: 5})
	if q := fe.computeQuality(empty); q != 0 {
		t.Errorf("quality with no populated windows = %v, want 0", q)
	}
}

func TestComputeFitnessPenalizesReseeds(t *testing.T) {
	fe := testEvaluator(t)

	windows := make([]telemetry.WindowStats, qualityWarmupWindows+1)
	for i := range windows {
		windows[i] = telemetry.WindowStats{Cells: 100, Hits: 50, HitRate: 0.5, FitnessMean: 1}
	}

	healthy := fe.computeFitness(&runResult{windowStats: windows})
	extinct := fe.computeFitness(&runResult{windowStats: windows, reseeds: 100})
	if healthy >= 0 {
		t.Errorf("healthy fitness = %v, want negative", healthy)
	}
	if math.Abs(extinct-healthy/2) > 1e-9 {
		t.Errorf("one extinction fitness = %v, want %v", extinct, healthy/2)
	}
}

func TestClamp01(t *testing.T) {
	for _, tt := range []struct{ in, want float64 }{{-1, 0}, {0.3, 0.3}, {2, 1}} {
		if got := clamp01(tt.in); got != tt.want {
			t.Errorf("clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
