package controller

import "github.com/playpool/cuesim/internal/events"

// StateKind identifies a controller state.
type StateKind int

const (
	KindInit StateKind = iota
	KindPlaceBall
	KindAim
	KindWatchAim
	KindPlayShot
	KindWatchShot
	KindEnd
)

var kindNames = map[StateKind]string{
	KindInit:      "Init",
	KindPlaceBall: "PlaceBall",
	KindAim:       "Aim",
	KindWatchAim:  "WatchAim",
	KindPlayShot:  "PlayShot",
	KindWatchShot: "WatchShot",
	KindEnd:       "End",
}

func (k StateKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Controller is the turn state of one peer. Values are immutable; every accepted
// transition produces a new one.
type Controller interface {
	Kind() StateKind
}

// Init waits for the game to begin, or for a table to watch.
type Init struct{}

// PlaceBall lets the local player position the cue ball.
type PlaceBall struct{}

// Aim lets the local player line up and take a shot.
type Aim struct{}

// WatchAim mirrors the opponent while they aim.
type WatchAim struct{}

// PlayShot runs the local player's shot until the table comes to rest.
type PlayShot struct{}

// WatchShot runs the opponent's shot. Turn events that arrive before the local
// simulation has settled are held in Deferred and replayed once it does.
type WatchShot struct {
	AllStationary bool
	Deferred      []events.GameEvent
}

// End is terminal.
type End struct{}

func (Init) Kind() StateKind      { return KindInit }
func (PlaceBall) Kind() StateKind { return KindPlaceBall }
func (Aim) Kind() StateKind       { return KindAim }
func (WatchAim) Kind() StateKind  { return KindWatchAim }
func (PlayShot) Kind() StateKind  { return KindPlayShot }
func (WatchShot) Kind() StateKind { return KindWatchShot }
func (End) Kind() StateKind       { return KindEnd }

// deferEvent returns a copy of s holding e after any earlier deferred events.
func (s WatchShot) deferEvent(e events.GameEvent) WatchShot {
	deferred := make([]events.GameEvent, 0, len(s.Deferred)+1)
	deferred = append(deferred, s.Deferred...)
	return WatchShot{AllStationary: s.AllStationary, Deferred: append(deferred, e)}
}

// ShotInProgress reports whether a simulated shot is owned by this state.
func ShotInProgress(s Controller) bool {
	k := s.Kind()
	return k == KindPlayShot || k == KindWatchShot
}
