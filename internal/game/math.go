package game

import "math"

// checkObjectsConverging returns true if two objects are moving toward each other.
func checkObjectsConverging(posA, posB, velA, velB Vec3) bool {
	return approachSpeed(posA, posB, velA, velB) > 0
}

// approachSpeed is the closing speed of A and B along their line of centres.
// Positive means converging.
func approachSpeed(posA, posB, velA, velB Vec3) float64 {
	n := lineOfCentres(posA, posB)
	return velA.Minus(velB).Dot(n)
}

// lineOfCentres is the unit vector from a to b. Coincident centres fall back to +x
// so resolution stays deterministic.
func lineOfCentres(a, b Vec3) Vec3 {
	n := b.Minus(a).Normalize()
	if n.IsZero() {
		return Vec3{X: 1}
	}
	return n
}

// contactVelocity is the velocity of the point where a ball touches the cloth.
// Zero means the ball is rolling without slipping.
func contactVelocity(vel, rvel Vec3) Vec3 {
	return NewVec3(vel.X-float64(BallRadius*rvel.Y), vel.Y+float64(BallRadius*rvel.X), 0)
}

// rollingSpin returns the angular velocity that makes vel a pure roll, keeping z-spin.
func rollingSpin(vel Vec3, zspin float64) Vec3 {
	return NewVec3(-vel.Y/BallRadius, vel.X/BallRadius, zspin)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// decay moves v toward zero by amount without crossing it.
func decay(v, amount float64) float64 {
	if math.Abs(v) <= amount {
		return 0
	}
	if v > 0 {
		return fix(v - amount)
	}
	return fix(v + amount)
}
