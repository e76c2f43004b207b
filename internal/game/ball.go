package game

import "math"

// Phase is the motion state of a ball. The shot is over when every ball on the table
// is Stationary.
type Phase string

const (
	Stationary Phase = "STATIONARY"
	Sliding    Phase = "SLIDING"
	Rolling    Phase = "ROLLING"
	Spinning   Phase = "SPINNING"
	InPocket   Phase = "IN_POCKET"
)

// Ball represents a single ball's physics state.
type Ball struct {
	ID    int   `json:"id"`
	Pos   Vec3  `json:"pos"`
	Vel   Vec3  `json:"vel"`
	Rvel  Vec3  `json:"rvel"` // angular velocity
	Phase Phase `json:"phase"`
}

func NewBall(id int, pos Vec3) Ball {
	return Ball{ID: id, Pos: pos, Phase: Stationary}
}

// OnTable reports whether the ball takes part in collisions.
func (b *Ball) OnTable() bool {
	return b.Phase != InPocket
}

func (b *Ball) IsStationary() bool {
	return b.Phase == Stationary || b.Phase == InPocket
}

// SetStationary stops the ball where it is.
func (b *Ball) SetStationary() {
	b.Vel = Vec3{}
	b.Rvel = Vec3{}
	b.Phase = Stationary
}

func (b *Ball) pot(at Vec3) {
	b.Pos = at
	b.Vel = Vec3{}
	b.Rvel = Vec3{}
	b.Phase = InPocket
}

// update integrates one substep: move, apply cloth friction, then re-derive the phase.
func (b *Ball) update(dt float64) {
	if !b.OnTable() {
		return
	}
	b.Pos = b.Pos.Plus(b.Vel.Times(dt))
	b.applyFriction(dt)
	b.updatePhase()
}

func (b *Ball) applyFriction(dt float64) {
	slip := contactVelocity(b.Vel, b.Rvel)
	slipSpeed := slip.Magnitude()

	// Sliding friction reduces slip by 7/2 * mu * g per second; snap to rolling
	// rather than overshoot.
	maxSlipChange := fix(3.5 * SlidingFriction * Gravity * dt)

	switch {
	case slipSpeed >= SlipEpsilon && slipSpeed > maxSlipChange:
		dir := slip.Normalize()
		b.Vel = b.Vel.Minus(dir.Times(SlidingFriction * Gravity * dt))
		dw := fix(2.5 * SlidingFriction * Gravity / BallRadius * dt)
		b.Rvel = b.Rvel.Plus(NewVec3(-dir.Y, dir.X, 0).Times(dw))
	case slipSpeed >= SlipEpsilon:
		// slip would vanish within this step: settle the ball into a roll at the
		// velocity friction leaves it with
		dir := slip.Normalize()
		b.Vel = b.Vel.Minus(dir.Times(fix(slipSpeed / 3.5)))
		b.Rvel = rollingSpin(b.Vel, b.Rvel.Z)
	default:
		speed := fix(b.Vel.Magnitude() - float64(RollingFriction*Gravity*dt))
		if speed < StationaryEpsilon {
			b.Vel = Vec3{}
		} else {
			b.Vel = b.Vel.Normalize().Times(speed)
		}
		b.Rvel = rollingSpin(b.Vel, b.Rvel.Z)
	}

	b.Rvel.Z = decay(b.Rvel.Z, SpinDecel*dt)
}

func (b *Ball) updatePhase() {
	speed := b.Vel.Magnitude()
	slip := contactVelocity(b.Vel, b.Rvel).Magnitude()

	switch {
	case speed < StationaryEpsilon && slip < SlipEpsilon && math.Abs(b.Rvel.Z) < SpinEpsilon:
		b.SetStationary()
	case speed < StationaryEpsilon && slip < SlipEpsilon:
		b.Vel = Vec3{}
		b.Rvel = Vec3{Z: b.Rvel.Z}
		b.Phase = Spinning
	case slip < SlipEpsilon:
		b.Phase = Rolling
	default:
		b.Phase = Sliding
	}
}
