package game

// Physics and table constants. Lengths are in table units (ball radius 0.5),
// speeds in units per second. Peers must share these exactly.

const (
	BallRadius   = 0.5
	TableX       = 21.5 // half length reachable by a ball centre
	TableY       = 10.5 // half width reachable by a ball centre
	PocketRadius = 1.0  // capture radius around a pocket centre
	CornerInset  = 0.3  // corner pocket centres sit this far outside the cushion bounds
	MiddleInset  = 0.6

	Gravity            = 9.8
	SlidingFriction    = 0.2
	RollingFriction    = 0.01
	SpinDecel          = 5.0 // rad/s^2 decay of z-spin against the cloth
	BallRestitution    = 0.95
	CushionRestitution = 0.75
	CushionSpinDamping = 0.8

	StationaryEpsilon = 0.01
	SlipEpsilon       = 0.01
	SpinEpsilon       = 0.1
	OverlapTolerance  = 1e-6

	MaxPower  = 40.0
	MaxOffset = 0.5

	CueBallID = 0
)

// BaulkSpot is where the cue ball is re-spotted after a scratch.
var BaulkSpot = Vec3{X: -TableX / 2}
