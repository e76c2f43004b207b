package game

import "math"

// Cue holds the shot parameters the shooter is lining up.
type Cue struct {
	Angle  float64 `json:"angle"`  // radians, direction of travel in the table plane
	Power  float64 `json:"power"`  // 0..MaxPower, initial cue ball speed
	Offset Vec3    `json:"offset"` // x side spin, y top/back spin, each within MaxOffset
}

// Rotate turns the aim by delta radians, keeping the angle in [0, 2pi).
func (c *Cue) Rotate(delta float64) {
	a := math.Mod(c.Angle+delta, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	c.Angle = fix(a)
}

func (c *Cue) AdjustPower(delta float64) {
	c.Power = fix(clamp(c.Power+delta, 0, MaxPower))
}

func (c *Cue) AdjustOffset(dx, dy float64) {
	c.Offset = NewVec3(
		clamp(c.Offset.X+dx, -MaxOffset, MaxOffset),
		clamp(c.Offset.Y+dy, -MaxOffset, MaxOffset),
		0,
	)
}

// Direction is the unit aim vector.
func (c Cue) Direction() Vec3 {
	return NewVec3(math.Cos(c.Angle), math.Sin(c.Angle), 0)
}

// strike returns the cue ball velocity and angular velocity for this cue.
// A centre hit gives a pure slide; a y offset of 0.4 gives a natural roll.
func (c Cue) strike() (Vec3, Vec3) {
	vel := c.Direction().Times(c.Power)
	roll := rollingSpin(vel, 0).Times(2.5 * c.Offset.Y)
	side := fix(float64(-2.5*c.Offset.X*c.Power) / BallRadius)
	return vel, NewVec3(roll.X, roll.Y, side)
}
