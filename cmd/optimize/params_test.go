package main

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/pthm-cable/ava/config"
)

func TestParamDefaultsMatchConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()

	got, err := pv.ExtractFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(pv.DefaultVector(), got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("defaults (-spec +config):\n%s", diff)
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()

	norm := pv.Normalize(raw)
	for i, v := range norm {
		if v < 0 || v > 1 {
			t.Errorf("%s normalized to %v, want [0,1]", pv.Specs[i].Name, v)
		}
	}
	back := pv.Denormalize(norm)
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: round trip %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestApplyToConfigClamps(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()

	values := make([]float64, pv.Dim())
	for i, spec := range pv.Specs {
		values[i] = spec.Max * 10
	}
	if err := pv.ApplyToConfig(cfg, values); err != nil {
		t.Fatalf("ApplyToConfig: %v", err)
	}

	got, err := pv.ExtractFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i, spec := range pv.Specs {
		if got[i] != spec.Max {
			t.Errorf("%s = %v, want clamped to %v", spec.Name, got[i], spec.Max)
		}
	}
	if cfg.Settings.EnergyPerFood != 150 {
		t.Errorf("energy_per_food = %v, want 150", cfg.Settings.EnergyPerFood)
	}
}

func TestApplyToConfigUnknownPath(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := &ParamVector{Specs: []ParamSpec{{Name: "bogus", Path: "nowhere.bogus", Min: 0, Max: 1}}}
	if err := pv.ApplyToConfig(cfg, []float64{0.5}); err == nil {
		t.Error("expected an error for an unknown path")
	}
}
