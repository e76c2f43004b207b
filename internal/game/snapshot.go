package game

import (
	"encoding/json"
	"fmt"
	"sort"
)

// BallSnapshot is a ball's state for serialization.
type BallSnapshot struct {
	ID    int   `json:"id"`
	Pos   Vec3  `json:"pos"`
	Vel   Vec3  `json:"vel"`
	Rvel  Vec3  `json:"rvel"`
	Phase Phase `json:"phase"`
}

// TableSnapshot is the payload peers exchange to agree on the table.
type TableSnapshot struct {
	Balls []BallSnapshot `json:"balls"`
	Cue   Cue            `json:"cue"`
}

// Snapshot captures every ball in id order plus the cue.
func (t *Table) Snapshot() TableSnapshot {
	s := TableSnapshot{Balls: make([]BallSnapshot, 0, len(t.Balls)), Cue: t.Cue}
	for _, b := range t.Balls {
		s.Balls = append(s.Balls, BallSnapshot{ID: b.ID, Pos: b.Pos, Vel: b.Vel, Rvel: b.Rvel, Phase: b.Phase})
	}
	return s
}

// Restore replaces the balls and cue with the snapshot. The outcome log is kept.
func (t *Table) Restore(s TableSnapshot) error {
	balls := make([]Ball, 0, len(s.Balls))
	seen := make(map[int]bool, len(s.Balls))
	for _, bs := range s.Balls {
		if seen[bs.ID] {
			return &InvariantError{BallID: bs.ID, Reason: "duplicate ball in snapshot"}
		}
		seen[bs.ID] = true
		phase := bs.Phase
		if phase == "" {
			phase = Stationary
		}
		balls = append(balls, Ball{ID: bs.ID, Pos: bs.Pos, Vel: bs.Vel, Rvel: bs.Rvel, Phase: phase})
	}
	sort.SliceStable(balls, func(i, j int) bool { return balls[i].ID < balls[j].ID })

	next := &Table{Balls: balls, Cue: s.Cue}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	t.Balls = balls
	t.Cue = s.Cue
	return nil
}

// Serialise encodes the table snapshot as JSON.
func (t *Table) Serialise() ([]byte, error) {
	return json.Marshal(t.Snapshot())
}

// Deserialise builds a table from a serialised snapshot.
func Deserialise(data []byte) (*Table, error) {
	var s TableSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode table snapshot: %w", err)
	}
	t := &Table{}
	if err := t.Restore(s); err != nil {
		return nil, err
	}
	return t, nil
}
