package systems

import "math"

// NormalizeAngle wraps an angle to [-Pi, Pi].
func NormalizeAngle(angle float32) float32 {
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// unitTurns maps an angle in radians to a fraction of a full turn in [0, 1).
func unitTurns(rad float64) float32 {
	deg := math.Mod(rad*180/math.Pi, 360)
	if deg < 0 {
		deg += 360
	}
	t := float32(deg / 360)
	if t >= 1 {
		t = 0
	}
	return t
}

// distanceSq returns the squared distance between two points.
func distanceSq(x1, y1, x2, y2 float32) float32 {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx + dy*dy
}

// HeadingVector returns the unit vector for a heading in radians.
func HeadingVector(heading float32) (x, y float32) {
	s, c := math.Sincos(float64(heading))
	return float32(c), float32(s)
}
