package systems

import (
	"math"

	"github.com/pthm-cable/ava/components"
)

// Sensors holds the three normalized controller inputs.
type Sensors struct {
	Distance float32 // distance to target / vision radius, capped at 1
	Bearing  float32 // direction to target as a fraction of a turn
	Heading  float32 // facing direction as a fraction of a turn
}

// Inputs returns the sensors in controller input order.
func (s Sensors) Inputs() []float64 {
	return []float64{float64(s.Distance), float64(s.Bearing), float64(s.Heading)}
}

// Sense computes the controller inputs for a cell. The target is the nearest
// indexed food, or the world origin when the index is empty.
func Sense(idx *ForageIndex, pos components.Position, rot components.Rotation, visionRadius float32) Sensors {
	tx, ty, distSq, ok := idx.Nearest(pos.X, pos.Y)
	if !ok {
		tx, ty = 0, 0
		distSq = distanceSq(pos.X, pos.Y, 0, 0)
	}

	dist := float32(math.Sqrt(float64(distSq))) / visionRadius
	if dist > 1 {
		dist = 1
	}

	return Sensors{
		Distance: dist,
		Bearing:  Bearing(pos.X, pos.Y, tx, ty),
		Heading:  NormalizedHeading(rot.Heading),
	}
}

// Bearing returns the direction from (x, y) to (tx, ty) as a fraction of a
// turn in [0, 1), measured counterclockwise from +X.
func Bearing(x, y, tx, ty float32) float32 {
	return unitTurns(math.Atan2(float64(ty-y), float64(tx-x)))
}

// NormalizedHeading maps a heading in radians to [0, 1).
func NormalizedHeading(heading float32) float32 {
	return unitTurns(float64(heading))
}
