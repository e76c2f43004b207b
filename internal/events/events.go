package events

import "github.com/playpool/cuesim/internal/game"

// EventType is the wire tag of a GameEvent.
type EventType string

const (
	Begin      EventType = "BEGIN"
	Watch      EventType = "WATCH"
	Aim        EventType = "AIM"
	Hit        EventType = "HIT"
	PlaceBall  EventType = "PLACEBALL"
	Stationary EventType = "STATIONARY"
	Abort      EventType = "ABORT"
	Chat       EventType = "CHAT"
)

// GameEvent is a discrete message exchanged between peers, or synthesised locally,
// that drives controller transitions. Each event is consumed exactly once.
type GameEvent interface {
	Type() EventType
}

// BeginEvent starts a game on the peer that breaks.
type BeginEvent struct{}

// WatchEvent hands the receiver a table to spectate.
type WatchEvent struct {
	Table game.TableSnapshot `json:"table"`
}

// AimEvent passes the turn, or mirrors the shooter's cue while they aim.
// Both fields are optional.
type AimEvent struct {
	Cue   *game.Cue           `json:"cue,omitempty"`
	Table *game.TableSnapshot `json:"table,omitempty"`
}

// HitEvent carries the table at the moment of the strike plus the cue used.
type HitEvent struct {
	Table game.TableSnapshot `json:"table"`
	Cue   game.Cue           `json:"cue"`
}

// PlaceBallEvent gives the receiver ball in hand.
type PlaceBallEvent struct {
	Table game.TableSnapshot `json:"table"`
}

// StationaryEvent is synthesised locally when a shot comes to rest.
type StationaryEvent struct{}

type AbortEvent struct{}

type ChatEvent struct {
	From string `json:"from"`
	Text string `json:"text"`
}

func (BeginEvent) Type() EventType      { return Begin }
func (WatchEvent) Type() EventType      { return Watch }
func (AimEvent) Type() EventType        { return Aim }
func (HitEvent) Type() EventType        { return Hit }
func (PlaceBallEvent) Type() EventType  { return PlaceBall }
func (StationaryEvent) Type() EventType { return Stationary }
func (AbortEvent) Type() EventType      { return Abort }
func (ChatEvent) Type() EventType       { return Chat }

// NewAimEvent mirrors a cue without a table.
func NewAimEvent(cue game.Cue) AimEvent {
	return AimEvent{Cue: &cue}
}

// NewTurnAimEvent hands the turn over with the table as it came to rest.
func NewTurnAimEvent(table game.TableSnapshot) AimEvent {
	cue := table.Cue
	return AimEvent{Cue: &cue, Table: &table}
}
