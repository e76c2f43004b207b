package game

import "math"

// Advance runs one fixed substep of the simulation and appends any outcomes.
// The caller owns the substep schedule; dt should be the same on every peer.
func (t *Table) Advance(dt float64) error {
	for i := range t.Balls {
		b := &t.Balls[i]
		b.update(dt)
		if !b.Pos.IsFinite() || !b.Vel.IsFinite() || !b.Rvel.IsFinite() {
			return &InvariantError{BallID: b.ID, Reason: "non-finite state after integration"}
		}
	}
	t.Elapsed = fix(t.Elapsed + dt)

	t.resolveBallBall()
	for i := range t.Balls {
		b := &t.Balls[i]
		if !b.OnTable() {
			continue
		}
		if t.resolveBallPocket(b) {
			continue
		}
		t.resolveBallCushion(b)
	}

	for i := range t.Balls {
		b := &t.Balls[i]
		if !b.Pos.IsFinite() || !b.Vel.IsFinite() || !b.Rvel.IsFinite() {
			return &InvariantError{BallID: b.ID, Reason: "non-finite state after collisions"}
		}
	}
	return nil
}

// resolveBallBall handles every overlapping pair in id order, one pair at a time.
func (t *Table) resolveBallBall() {
	for a := 0; a < len(t.Balls); a++ {
		ball := &t.Balls[a]
		if !ball.OnTable() {
			continue
		}
		for p := a + 1; p < len(t.Balls); p++ {
			other := &t.Balls[p]
			if !other.OnTable() {
				continue
			}
			if ball.Pos.Minus(other.Pos).MagnitudeSquared() >= 4*BallRadius*BallRadius {
				continue
			}
			t.collide(ball, other)
		}
	}
}

func (t *Table) collide(ball, target *Ball) {
	n := lineOfCentres(ball.Pos, target.Pos)

	// Separate the overlap symmetrically so no two balls come to rest inside each other.
	overlap := fix(2*BallRadius - target.Pos.Minus(ball.Pos).Magnitude())
	if overlap > 0 {
		ball.Pos = ball.Pos.Minus(n.Times(overlap / 2))
		target.Pos = target.Pos.Plus(n.Times(overlap / 2))
	}

	if !checkObjectsConverging(ball.Pos, target.Pos, ball.Vel, target.Vel) {
		return
	}
	speed := approachSpeed(ball.Pos, target.Pos, ball.Vel, target.Vel)

	// Equal masses: exchange the normal component, scaled by restitution.
	j := fix(speed * (1 + BallRestitution) / 2)
	ball.Vel = ball.Vel.Minus(n.Times(j))
	target.Vel = target.Vel.Plus(n.Times(j))

	ball.updatePhase()
	target.updatePhase()
	if ball.Phase == Stationary {
		ball.Phase = Sliding
	}
	if target.Phase == Stationary {
		target.Phase = Sliding
	}

	t.Outcome = append(t.Outcome, CollisionOutcome(ball.ID, target.ID, t.Elapsed, speed))
}

// resolveBallPocket captures a ball whose centre falls within a pocket.
func (t *Table) resolveBallPocket(b *Ball) bool {
	for _, pocket := range Pockets {
		if b.Pos.Minus(pocket.Position).Magnitude() >= PocketRadius {
			continue
		}
		b.pot(pocket.Position)
		t.Outcome = append(t.Outcome, PotOutcome(b.ID, t.Elapsed))
		if b.ID == CueBallID {
			t.Outcome = append(t.Outcome, FoulOutcome(b.ID, t.Elapsed, FoulScratch))
		}
		return true
	}
	return false
}

// resolveBallCushion reflects a ball that has crossed a cushion while moving outward
// and keeps every ball inside the cushion bounds.
func (t *Table) resolveBallCushion(b *Ball) {
	var impact float64

	if math.Abs(b.Pos.X) > TableX {
		if b.Pos.X*b.Vel.X > 0 {
			impact = math.Abs(b.Vel.X)
			b.Vel.X = fix(-b.Vel.X * CushionRestitution)
		}
		b.Pos.X = math.Copysign(TableX, b.Pos.X)
	}
	if math.Abs(b.Pos.Y) > TableY {
		if b.Pos.Y*b.Vel.Y > 0 {
			impact = math.Max(impact, math.Abs(b.Vel.Y))
			b.Vel.Y = fix(-b.Vel.Y * CushionRestitution)
		}
		b.Pos.Y = math.Copysign(TableY, b.Pos.Y)
	}
	if impact == 0 {
		return
	}

	b.Rvel = b.Rvel.Times(CushionSpinDamping)
	b.updatePhase()
	if b.Phase == Stationary {
		b.Phase = Sliding
	}
	t.Outcome = append(t.Outcome, CushionOutcome(b.ID, t.Elapsed, impact))
}
