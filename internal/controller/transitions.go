package controller

import (
	"fmt"

	"github.com/playpool/cuesim/internal/events"
	"github.com/playpool/cuesim/internal/game"
)

// transition is a pure state change: it may touch the container's table and
// broadcast, but the old Controller value is never modified.
type transition func(c *Container, s Controller, e events.GameEvent) (Controller, error)

type transitionKey struct {
	event events.EventType
	state StateKind
}

var transitions map[transitionKey]transition

func init() {
	transitions = map[transitionKey]transition{
		{events.Begin, KindInit}: beginGame,
		{events.Watch, KindInit}: watchTable,

		{events.Aim, KindAim}: stay,

		{events.Watch, KindWatchAim}:     watchTable,
		{events.Aim, KindWatchAim}:       mirrorAim,
		{events.Hit, KindWatchAim}:       watchHit,
		{events.PlaceBall, KindWatchAim}: takeBallInHand,

		{events.Stationary, KindPlayShot}: nextTurn,

		{events.Watch, KindWatchShot}:      afterShot(watchTable),
		{events.Aim, KindWatchShot}:        afterShot(takeTurn),
		{events.PlaceBall, KindWatchShot}:  afterShot(takeBallInHand),
		{events.Stationary, KindWatchShot}: settleShot,
	}
	for _, k := range []StateKind{KindInit, KindPlaceBall, KindAim, KindWatchAim, KindPlayShot, KindWatchShot} {
		transitions[transitionKey{events.Abort, k}] = abort
	}
}

// Apply feeds one event to state s and returns the successor. Events with no
// entry in the table leave the state unchanged. Chat never changes state.
func Apply(c *Container, s Controller, e events.GameEvent) (Controller, error) {
	if chat, ok := e.(events.ChatEvent); ok {
		if c.OnChat != nil {
			c.OnChat(chat)
		}
		return s, nil
	}
	t, ok := transitions[transitionKey{e.Type(), s.Kind()}]
	if !ok {
		return s, nil
	}
	next, err := t(c, s, e)
	if err != nil {
		return nil, err
	}
	return c.spectate(next), nil
}

func stay(_ *Container, s Controller, _ events.GameEvent) (Controller, error) {
	return s, nil
}

func abort(_ *Container, _ Controller, _ events.GameEvent) (Controller, error) {
	return End{}, nil
}

// beginGame gives the breaking player ball in hand and tells the opponent to watch.
func beginGame(c *Container, _ Controller, _ events.GameEvent) (Controller, error) {
	if err := c.broadcast(events.WatchEvent{Table: c.Table.Snapshot()}); err != nil {
		return nil, err
	}
	return PlaceBall{}, nil
}

func watchTable(c *Container, _ Controller, e events.GameEvent) (Controller, error) {
	w := e.(events.WatchEvent)
	if err := c.Table.Restore(w.Table); err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	return WatchAim{}, nil
}

func mirrorAim(c *Container, s Controller, e events.GameEvent) (Controller, error) {
	if err := restoreAim(c, e.(events.AimEvent)); err != nil {
		return nil, err
	}
	return s, nil
}

// takeTurn hands the local player the table after the opponent's shot.
func takeTurn(c *Container, _ Controller, e events.GameEvent) (Controller, error) {
	if err := restoreAim(c, e.(events.AimEvent)); err != nil {
		return nil, err
	}
	return Aim{}, nil
}

func restoreAim(c *Container, a events.AimEvent) error {
	if a.Table != nil {
		if err := c.Table.Restore(*a.Table); err != nil {
			return fmt.Errorf("aim: %w", err)
		}
	}
	if a.Cue != nil {
		c.Table.Cue = *a.Cue
	}
	return nil
}

// watchHit replays the opponent's strike on the local table.
func watchHit(c *Container, _ Controller, e events.GameEvent) (Controller, error) {
	h := e.(events.HitEvent)
	if err := c.Table.Restore(h.Table); err != nil {
		return nil, fmt.Errorf("hit: %w", err)
	}
	c.Table.Cue = h.Cue
	c.Table.Hit()
	return WatchShot{}, nil
}

func takeBallInHand(c *Container, _ Controller, e events.GameEvent) (Controller, error) {
	p := e.(events.PlaceBallEvent)
	if err := c.Table.Restore(p.Table); err != nil {
		return nil, fmt.Errorf("place ball: %w", err)
	}
	c.Table.SpotCueBall()
	return PlaceBall{}, nil
}

// afterShot applies t once the watched shot has settled, otherwise defers the event.
func afterShot(t transition) transition {
	return func(c *Container, s Controller, e events.GameEvent) (Controller, error) {
		ws := s.(WatchShot)
		if !ws.AllStationary {
			return ws.deferEvent(e), nil
		}
		return t(c, s, e)
	}
}

// settleShot latches the watched shot as finished and replays deferred events
// in arrival order against whichever state results.
func settleShot(c *Container, s Controller, _ events.GameEvent) (Controller, error) {
	ws := s.(WatchShot)
	var next Controller = WatchShot{AllStationary: true}
	for _, e := range ws.Deferred {
		var err error
		if next, err = Apply(c, next, e); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// nextTurn decides who plays next once the local shot is at rest. A foul gives the
// opponent ball in hand, a pot keeps the turn, anything else passes it.
func nextTurn(c *Container, _ Controller, _ events.GameEvent) (Controller, error) {
	outcome := c.Table.Outcome

	switch {
	case game.HasFoul(outcome):
		c.Table.SpotCueBall()
		if err := c.broadcast(events.PlaceBallEvent{Table: c.Table.Snapshot()}); err != nil {
			return nil, err
		}
		return WatchAim{}, nil
	case game.HasPot(outcome):
		if err := c.broadcast(events.WatchEvent{Table: c.Table.Snapshot()}); err != nil {
			return nil, err
		}
		return Aim{}, nil
	default:
		if err := c.broadcast(events.NewTurnAimEvent(c.Table.Snapshot())); err != nil {
			return nil, err
		}
		return WatchAim{}, nil
	}
}
