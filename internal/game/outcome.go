package game

// OutcomeType classifies a physics event recorded during a shot.
type OutcomeType string

const (
	OutcomeHit       OutcomeType = "HIT"
	OutcomeCollision OutcomeType = "COLLISION"
	OutcomeCushion   OutcomeType = "CUSHION"
	OutcomePot       OutcomeType = "POT"
	OutcomeFoul      OutcomeType = "FOUL"
)

// Foul reasons.
const (
	FoulScratch   = "scratch"
	FoulNoContact = "no_contact"
)

// NoTarget marks an Outcome without a second ball.
const NoTarget = -1

// Outcome records one physics event for rule checking and sound playback.
// Outcomes are values; the Table only ever appends them.
type Outcome struct {
	Type     OutcomeType `json:"type"`
	BallID   int         `json:"ball_id"`
	TargetID int         `json:"target_id"`
	Time     float64     `json:"time"`
	Speed    float64     `json:"speed"`
	Reason   string      `json:"reason,omitempty"`
}

func HitOutcome(ballID int, speed float64) Outcome {
	return Outcome{Type: OutcomeHit, BallID: ballID, TargetID: NoTarget, Speed: speed}
}

func CollisionOutcome(ballID, targetID int, t, speed float64) Outcome {
	return Outcome{Type: OutcomeCollision, BallID: ballID, TargetID: targetID, Time: t, Speed: speed}
}

func CushionOutcome(ballID int, t, speed float64) Outcome {
	return Outcome{Type: OutcomeCushion, BallID: ballID, TargetID: NoTarget, Time: t, Speed: speed}
}

func PotOutcome(ballID int, t float64) Outcome {
	return Outcome{Type: OutcomePot, BallID: ballID, TargetID: NoTarget, Time: t}
}

func FoulOutcome(ballID int, t float64, reason string) Outcome {
	return Outcome{Type: OutcomeFoul, BallID: ballID, TargetID: NoTarget, Time: t, Reason: reason}
}

// Involves reports whether ball id takes part in the outcome.
func (o Outcome) Involves(id int) bool {
	return o.BallID == id || o.TargetID == id
}

// OfType filters outcomes, preserving order.
func OfType(outcomes []Outcome, t OutcomeType) []Outcome {
	var out []Outcome
	for _, o := range outcomes {
		if o.Type == t {
			out = append(out, o)
		}
	}
	return out
}

func HasPot(outcomes []Outcome) bool {
	return len(OfType(outcomes, OutcomePot)) > 0
}

func HasFoul(outcomes []Outcome) bool {
	return len(OfType(outcomes, OutcomeFoul)) > 0
}

// FirstCollision returns the first ball-ball collision involving ballID.
func FirstCollision(outcomes []Outcome, ballID int) (Outcome, bool) {
	for _, o := range outcomes {
		if o.Type == OutcomeCollision && o.Involves(ballID) {
			return o, true
		}
	}
	return Outcome{}, false
}

// PottedIDs lists the ids of potted balls in pot order.
func PottedIDs(outcomes []Outcome) []int {
	ids := []int{}
	for _, o := range OfType(outcomes, OutcomePot) {
		ids = append(ids, o.BallID)
	}
	return ids
}
