package game

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// rackGap keeps racked balls apart so seeded jitter can never make them touch.
const (
	rackGap    = 0.02
	rackJitter = 0.005
)

// Rack names accepted by NewRack.
const (
	RackDiamond  = "diamond"
	RackTriangle = "triangle"
)

var ErrUnknownRack = errors.New("unknown rack")

// RackApex is where the front ball of a rack sits.
var RackApex = Vec3{X: TableX / 2}

func rackSpacing() (dx, dy float64) {
	s := 2*BallRadius + rackGap
	return s * math.Sqrt(3) / 2, s / 2
}

// DiamondRack returns the cue ball plus a 9-ball diamond (rows 1-2-3-2-1).
func DiamondRack() []Ball {
	dx, dy := rackSpacing()
	balls := []Ball{NewBall(CueBallID, BaulkSpot)}

	rows := []int{1, 2, 3, 2, 1}
	id := 1
	for r, n := range rows {
		for k := 0; k < n; k++ {
			y := float64(float64(2*k-(n-1)) * dy)
			balls = append(balls, NewBall(id, NewVec3(RackApex.X+float64(float64(r)*dx), y, 0)))
			id++
		}
	}
	return balls
}

// TriangleRack returns the cue ball plus a 15-ball triangle with the 8 in the middle
// of the third row and a solid and stripe on the back corners.
func TriangleRack() []Ball {
	dx, dy := rackSpacing()
	at := func(row, slot int) Vec3 {
		return NewVec3(RackApex.X+float64(float64(row)*dx), float64(slot)*dy, 0)
	}

	pos := map[int]Vec3{
		1: at(0, 0),

		2:  at(1, 1),
		15: at(1, -1),

		8:  at(2, 0),
		5:  at(2, 2),
		10: at(2, -2),

		7: at(3, 1),
		4: at(3, 3),
		9: at(3, -1),
		6: at(3, -3),

		11: at(4, 0),
		12: at(4, 2),
		13: at(4, -2),
		14: at(4, 4),
		3:  at(4, -4),
	}

	balls := []Ball{NewBall(CueBallID, BaulkSpot)}
	for id := 1; id <= 15; id++ {
		balls = append(balls, NewBall(id, pos[id]))
	}
	return balls
}

// Jitter nudges every object ball by a small seeded offset so racks are not perfectly
// tight. The same seed gives the same layout on every peer.
func Jitter(balls []Ball, seed uint64) []Ball {
	rng := rand.New(rand.NewSource(seed))
	out := append([]Ball(nil), balls...)
	for i := range out {
		if out[i].ID == CueBallID {
			continue
		}
		jx := (float64(rng.Float64()*2) - 1) * rackJitter
		jy := (float64(rng.Float64()*2) - 1) * rackJitter
		out[i].Pos = out[i].Pos.Plus(NewVec3(jx, jy, 0))
	}
	return out
}

// NewRack builds the named rack. A non-zero seed jitters it.
func NewRack(name string, seed uint64) ([]Ball, error) {
	var balls []Ball
	switch name {
	case RackDiamond, "":
		balls = DiamondRack()
	case RackTriangle:
		balls = TriangleRack()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRack, name)
	}
	if seed != 0 {
		balls = Jitter(balls, seed)
	}
	return balls, nil
}
