package systems

import "github.com/pthm-cable/ava/config"

// CullReason identifies why a cell was removed.
type CullReason uint8

const (
	CullNone CullReason = iota
	CullStarved
	CullUnmoving
	CullRevolving
	CullOneDimensional
)

// String returns the reason name used in logs and telemetry.
func (r CullReason) String() string {
	switch r {
	case CullStarved:
		return "starved"
	case CullUnmoving:
		return "unmoving"
	case CullRevolving:
		return "revolving"
	case CullOneDimensional:
		return "one_dimensional"
	default:
		return "none"
	}
}

// ageWindow is a half-open interval [min, max).
type ageWindow struct {
	min, max float64
}

func (w ageWindow) contains(age float64) bool {
	return age >= w.min && age < w.max
}

// CullRules evaluates the removal table in order; the first match wins.
type CullRules struct {
	unmoving       ageWindow
	unmovingDistSq float32

	revolving       ageWindow
	revolvingDistSq float32

	oneDim      ageWindow
	oneDimRatio float32
}

// NewCullRules builds the rule table from config.
func NewCullRules(cfg config.CullingConfig) CullRules {
	return CullRules{
		unmoving:        ageWindow{cfg.UnmovingAge.Min, cfg.UnmovingAge.Max},
		unmovingDistSq:  float32(cfg.UnmovingDistSq),
		revolving:       ageWindow{cfg.RevolvingAge.Min, cfg.RevolvingAge.Max},
		revolvingDistSq: float32(cfg.RevolvingDistSq),
		oneDim:          ageWindow{cfg.OneDimensionalAge.Min, cfg.OneDimensionalAge.Max},
		oneDimRatio:     float32(cfg.OneDimensionalRatio),
	}
}

// CullSubject is the state a removal decision depends on.
type CullSubject struct {
	Age       float64
	DX, DY    float32 // absolute displacement from the birth position
	Energy    float32
	HasEnergy bool // false when the cell has no ledger entry yet
}

// Evaluate returns the first matching removal reason, or CullNone.
func (r CullRules) Evaluate(s CullSubject) CullReason {
	if s.HasEnergy && s.Energy <= 0 {
		return CullStarved
	}
	distSq := s.DX*s.DX + s.DY*s.DY
	if r.unmoving.contains(s.Age) && distSq < r.unmovingDistSq {
		return CullUnmoving
	}
	if r.revolving.contains(s.Age) && distSq < r.revolvingDistSq {
		return CullRevolving
	}
	moved := s.DX > 0 || s.DY > 0
	if r.oneDim.contains(s.Age) && moved && (s.DX >= r.oneDimRatio*s.DY || s.DY >= r.oneDimRatio*s.DX) {
		return CullOneDimensional
	}
	return CullNone
}
