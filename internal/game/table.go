package game

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Pocket represents one of the 6 pockets on the table.
type Pocket struct {
	ID       int  `json:"id"`
	Position Vec3 `json:"position"`
}

// Pockets is the standard six-pocket layout: corners first, then middles.
var Pockets = []Pocket{
	{ID: 0, Position: Vec3{X: -TableX - CornerInset, Y: -TableY - CornerInset}},
	{ID: 1, Position: Vec3{X: 0, Y: -TableY - MiddleInset}},
	{ID: 2, Position: Vec3{X: TableX + CornerInset, Y: -TableY - CornerInset}},
	{ID: 3, Position: Vec3{X: -TableX - CornerInset, Y: TableY + CornerInset}},
	{ID: 4, Position: Vec3{X: 0, Y: TableY + MiddleInset}},
	{ID: 5, Position: Vec3{X: TableX + CornerInset, Y: TableY + CornerInset}},
}

var ErrInvalidPlacement = errors.New("invalid cue ball placement")

// InvariantError reports a table state the simulation cannot continue from.
type InvariantError struct {
	BallID int
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("table invariant violated by ball %d: %s", e.BallID, e.Reason)
}

// Table owns the balls, the cue and the outcome log for the current shot.
type Table struct {
	Balls   []Ball
	Cue     Cue
	Outcome []Outcome
	ShotID  int
	Elapsed float64 // simulated seconds since the shot began
}

// NewTable creates a table from rack positions. Balls are kept in id order.
func NewTable(balls []Ball) *Table {
	t := &Table{Balls: append([]Ball(nil), balls...)}
	sort.SliceStable(t.Balls, func(i, j int) bool { return t.Balls[i].ID < t.Balls[j].ID })
	return t
}

// Ball returns the ball with the given id, or nil.
func (t *Table) Ball(id int) *Ball {
	for i := range t.Balls {
		if t.Balls[i].ID == id {
			return &t.Balls[i]
		}
	}
	return nil
}

// CueBall returns ball 0.
func (t *Table) CueBall() *Ball {
	return t.Ball(CueBallID)
}

// AllStationary returns true if no ball on the table is moving.
func (t *Table) AllStationary() bool {
	for i := range t.Balls {
		if !t.Balls[i].IsStationary() {
			return false
		}
	}
	return true
}

// Hit starts a new shot from the current cue.
func (t *Table) Hit() {
	t.Outcome = nil
	t.ShotID++
	t.Elapsed = 0

	cb := t.CueBall()
	if cb == nil || !cb.OnTable() {
		return
	}
	cb.Vel, cb.Rvel = t.Cue.strike()
	cb.Phase = Sliding
	t.Outcome = append(t.Outcome, HitOutcome(cb.ID, t.Cue.Power))
}

// Halt stops every ball on the table immediately.
func (t *Table) Halt() {
	for i := range t.Balls {
		if t.Balls[i].OnTable() {
			t.Balls[i].SetStationary()
		}
	}
}

// FinishShot classifies the completed shot: a struck cue ball that never touched
// another ball is a foul.
func (t *Table) FinishShot() {
	if len(OfType(t.Outcome, OutcomeHit)) == 0 || HasFoul(t.Outcome) {
		return
	}
	if _, ok := FirstCollision(t.Outcome, CueBallID); !ok {
		t.Outcome = append(t.Outcome, FoulOutcome(CueBallID, t.Elapsed, FoulNoContact))
	}
}

// SpotCueBall returns a potted cue ball to the baulk spot, nudged along x until it
// overlaps nothing.
func (t *Table) SpotCueBall() {
	cb := t.CueBall()
	if cb == nil || cb.OnTable() {
		return
	}
	spot := BaulkSpot
	for t.overlapsAny(CueBallID, spot) && spot.X > -TableX {
		spot = spot.Plus(Vec3{X: -2 * BallRadius})
	}
	cb.Pos = spot
	cb.SetStationary()
}

// MoveCueBall shifts the cue ball during ball-in-hand placement.
func (t *Table) MoveCueBall(delta Vec3) error {
	cb := t.CueBall()
	if cb == nil || !cb.OnTable() {
		return fmt.Errorf("%w: cue ball not on table", ErrInvalidPlacement)
	}
	next := cb.Pos.Plus(delta)
	if math.Abs(next.X) > TableX || math.Abs(next.Y) > TableY {
		return fmt.Errorf("%w: out of bounds", ErrInvalidPlacement)
	}
	if t.overlapsAny(CueBallID, next) {
		return fmt.Errorf("%w: overlapping another ball", ErrInvalidPlacement)
	}
	cb.Pos = next
	return nil
}

func (t *Table) overlapsAny(id int, pos Vec3) bool {
	for i := range t.Balls {
		b := &t.Balls[i]
		if b.ID == id || !b.OnTable() {
			continue
		}
		if b.Pos.Minus(pos).Magnitude() < 2*BallRadius-OverlapTolerance {
			return true
		}
	}
	return false
}

// Validate checks for non-finite state and balls resting inside one another.
func (t *Table) Validate() error {
	for i := range t.Balls {
		b := &t.Balls[i]
		if !b.Pos.IsFinite() || !b.Vel.IsFinite() || !b.Rvel.IsFinite() {
			return &InvariantError{BallID: b.ID, Reason: "non-finite state"}
		}
	}
	for i := range t.Balls {
		a := &t.Balls[i]
		if a.Phase != Stationary {
			continue
		}
		for j := i + 1; j < len(t.Balls); j++ {
			b := &t.Balls[j]
			if b.Phase != Stationary {
				continue
			}
			if a.Pos.Minus(b.Pos).Magnitude() < 2*BallRadius-OverlapTolerance {
				return &InvariantError{BallID: a.ID, Reason: fmt.Sprintf("overlaps ball %d at rest", b.ID)}
			}
		}
	}
	return nil
}
