// Package main provides CMA-ES optimization for simulation parameters.
package main

import (
	"fmt"

	"github.com/pthm-cable/ava/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Runtime settings
			{Name: "energy_per_food", Path: "settings.energy_per_food", Min: 30, Max: 150, Default: 70},
			{Name: "energy_decay_rate", Path: "settings.energy_decay_rate", Min: 1, Max: 10, Default: 5},
			{Name: "bullet_miss_penalty", Path: "settings.bullet_miss_penalty", Min: 0, Max: 20, Default: 5},
			// Energy
			{Name: "inactivity_threshold", Path: "energy.inactivity_threshold", Min: 4, Max: 16, Default: 8},
			{Name: "inactivity_penalty", Path: "energy.inactivity_penalty", Min: 0, Max: 60, Default: 30},
			// Evolution
			{Name: "mutation_rate", Path: "neural.mutation_rate", Min: 0.01, Max: 0.3, Default: 0.1},
			{Name: "mutation_variation", Path: "neural.mutation_variation", Min: 0.02, Max: 0.5, Default: 0.1},
			// Decision
			{Name: "thrust_threshold", Path: "decision.thrust_threshold", Min: 0.5, Max: 0.9, Default: 0.7},
			{Name: "shoot_threshold", Path: "decision.shoot_threshold", Min: 0.5, Max: 0.9, Default: 0.7},
			// Actuation
			{Name: "fire_rate", Path: "projectile.fire_rate", Min: 0.25, Max: 2.0, Default: 1.0},
			{Name: "thrust_force", Path: "cell.thrust_force", Min: 20, Max: 150, Default: 60},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// fields maps each spec path to its config field.
func fields(cfg *config.Config) map[string]*float64 {
	return map[string]*float64{
		"settings.energy_per_food":     &cfg.Settings.EnergyPerFood,
		"settings.energy_decay_rate":   &cfg.Settings.EnergyDecayRate,
		"settings.bullet_miss_penalty": &cfg.Settings.BulletMissPenalty,
		"energy.inactivity_threshold":  &cfg.Energy.InactivityThreshold,
		"energy.inactivity_penalty":    &cfg.Energy.InactivityPenalty,
		"neural.mutation_rate":         &cfg.Neural.MutationRate,
		"neural.mutation_variation":    &cfg.Neural.MutationVariation,
		"decision.thrust_threshold":    &cfg.Decision.ThrustThreshold,
		"decision.shoot_threshold":     &cfg.Decision.ShootThreshold,
		"projectile.fire_rate":         &cfg.Projectile.FireRate,
		"cell.thrust_force":            &cfg.Cell.ThrustForce,
	}
}

// ApplyToConfig applies clamped parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)
	f := fields(cfg)
	for i, spec := range pv.Specs {
		p, ok := f[spec.Path]
		if !ok {
			return fmt.Errorf("unknown parameter path %q", spec.Path)
		}
		*p = clamped[i]
	}
	return cfg.Validate()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) ([]float64, error) {
	f := fields(cfg)
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		p, ok := f[spec.Path]
		if !ok {
			return nil, fmt.Errorf("unknown parameter path %q", spec.Path)
		}
		out[i] = *p
	}
	return out, nil
}
