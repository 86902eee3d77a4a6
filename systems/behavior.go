package systems

import (
	"github.com/pthm-cable/ava/config"
	"github.com/pthm-cable/ava/neural"
)

// Action is the discrete outcome of one decision.
type Action struct {
	SpinLeft  bool
	SpinRight bool
	Thrust    bool
	Shoot     bool
}

// MaxFitness is the penalty of a cycle in which no rule was satisfied.
const MaxFitness = 4

// Policy turns controller outputs into actions and scores them.
type Policy struct {
	ThrustThreshold float64
	ShootThreshold  float64
	ThrustDistance  float32
	ShootDistance   float32
}

// NewPolicy builds a policy from the decision config.
func NewPolicy(cfg config.DecisionConfig) Policy {
	return Policy{
		ThrustThreshold: cfg.ThrustThreshold,
		ShootThreshold:  cfg.ShootThreshold,
		ThrustDistance:  float32(cfg.ThrustDistance),
		ShootDistance:   float32(cfg.ShootDistance),
	}
}

// Decide maps the output layer to an action. canFire reports whether the
// fire cooldown has elapsed; without it Shoot is never set.
func (p Policy) Decide(out []float64, canFire bool) Action {
	return Action{
		SpinLeft:  out[neural.OutSpinLeft] > out[neural.OutSpinRight],
		SpinRight: out[neural.OutSpinRight] > out[neural.OutSpinLeft],
		Thrust:    out[neural.OutThrust] >= p.ThrustThreshold,
		Shoot:     canFire && out[neural.OutShoot] >= p.ShootThreshold,
	}
}

// Fitness scores an action in [0, 4]. Lower is better: one point is removed
// for thrusting toward distant food, for spinning toward the target, and for
// shooting at close food.
func (p Policy) Fitness(s Sensors, a Action) float32 {
	score := float32(MaxFitness)
	if a.Thrust && s.Distance > p.ThrustDistance {
		score--
	}
	// Inclusive: a cell already facing its target earns the spin credit, so
	// dist 0.2, bearing = heading = 0.1 with spin-left and shoot scores 2.
	if (a.SpinLeft && s.Heading <= s.Bearing) || (a.SpinRight && s.Heading >= s.Bearing) {
		score--
	}
	if a.Shoot && s.Distance < p.ShootDistance {
		score--
	}
	return score
}

// Actuation converts an action into a force along the heading and a spin.
// Left is a positive (counterclockwise) rotation.
func Actuation(a Action, heading, thrustForce, spinStrength float32) (fx, fy, spin float32) {
	if a.Thrust {
		hx, hy := HeadingVector(heading)
		fx, fy = hx*thrustForce, hy*thrustForce
	}
	switch {
	case a.SpinLeft:
		spin = spinStrength
	case a.SpinRight:
		spin = -spinStrength
	}
	return fx, fy, spin
}
