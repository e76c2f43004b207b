package controller

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playpool/cuesim/internal/events"
	"github.com/playpool/cuesim/internal/game"
)

// link carries frames from one container to another only when flushed, so a test
// can hold the network back while both sides simulate.
type link struct {
	to      *Container
	pending [][]byte
	journal [][]byte
	both    *[][]byte
}

func (l *link) send(data []byte) {
	l.pending = append(l.pending, data)
	l.journal = append(l.journal, data)
	*l.both = append(*l.both, data)
}

func (l *link) flush(t *testing.T) {
	t.Helper()
	for _, data := range l.pending {
		e, err := events.FromSerialised(data)
		require.NoError(t, err)
		l.to.EventQueue.Push(e)
	}
	l.pending = nil
}

type loopback struct {
	a, b   *Container
	ab, ba *link

	// journal holds every frame either side sent, in send order.
	journal [][]byte
}

func newLoopback(rack []game.Ball) *loopback {
	lb := &loopback{
		a: NewContainer(game.NewTable(rack), DefaultSettings(), zerolog.Nop()),
		b: NewContainer(game.NewTable(rack), DefaultSettings(), zerolog.Nop()),
	}
	lb.ab = &link{to: lb.b, both: &lb.journal}
	lb.ba = &link{to: lb.a, both: &lb.journal}
	lb.a.Broadcast = lb.ab.send
	lb.b.Broadcast = lb.ba.send
	return lb
}

func tickUntil(t *testing.T, c *Container, limit int, done func() bool) {
	t.Helper()
	for i := 0; i < limit && !done(); i++ {
		require.NoError(t, c.Tick(c.Settings().Step))
	}
	require.True(t, done(), "condition not reached after %d ticks, controller %s", limit, c.Controller().Kind())
}

func kindIs(c *Container, k StateKind) func() bool {
	return func() bool { return c.Controller().Kind() == k }
}

// breakShot plays the opening sequence up to the moment both sides have the shot
// at rest, with A's post-shot broadcast still held on the link.
func breakShot(t *testing.T, lb *loopback) {
	t.Helper()

	lb.a.EventQueue.Push(events.BeginEvent{})
	tickUntil(t, lb.a, 5, kindIs(lb.a, KindPlaceBall))
	lb.ab.flush(t)
	tickUntil(t, lb.b, 5, kindIs(lb.b, KindWatchAim))

	lb.a.InputQueue.Push(Input{Dt: 0.1, Key: "ArrowDown"})
	lb.a.InputQueue.Push(Input{Key: "Enter"})
	tickUntil(t, lb.a, 5, kindIs(lb.a, KindAim))

	lb.a.InputQueue.Push(Input{Dt: 1.5, Key: "ArrowUp"})
	lb.a.InputQueue.Push(Input{Dt: 0.02, Key: "ArrowLeft"})
	lb.a.InputQueue.Push(Input{Key: "SpaceUp"})
	tickUntil(t, lb.a, 5, kindIs(lb.a, KindPlayShot))

	lb.ab.flush(t)
	tickUntil(t, lb.b, 10, kindIs(lb.b, KindWatchShot))
	assert.Equal(t, lb.a.Table.Cue, lb.b.Table.Cue, "watcher mirrored the cue")

	tickUntil(t, lb.a, 10000, func() bool { return !ShotInProgress(lb.a.Controller()) })
	tickUntil(t, lb.b, 10000, func() bool {
		ws, ok := lb.b.Controller().(WatchShot)
		return ok && ws.AllStationary
	})
}

func TestLoopbackPeersAgreeAfterShot(t *testing.T) {
	lb := newLoopback(game.DiamondRack())
	breakShot(t, lb)

	for _, want := range lb.a.Table.Balls {
		if want.ID == game.CueBallID {
			continue
		}
		got := lb.b.Table.Ball(want.ID)
		require.NotNil(t, got)
		assert.Equal(t, want.Pos, got.Pos, "ball %d", want.ID)
		assert.Equal(t, want.Phase, got.Phase, "ball %d", want.ID)
	}
	assert.Equal(t, game.PottedIDs(lb.a.Table.Outcome), game.PottedIDs(lb.b.Table.Outcome))
	assert.NotEmpty(t, game.OfType(lb.a.Table.Outcome, game.OutcomeCollision), "break reached the rack")
}

func TestLoopbackTurnPassesToOpponent(t *testing.T) {
	lb := newLoopback(game.DiamondRack())
	breakShot(t, lb)

	lb.ab.flush(t)
	tickUntil(t, lb.b, 10, func() bool { return lb.b.EventQueue.Empty() && lb.b.Controller().Kind() != KindWatchShot })

	outcome := lb.a.Table.Outcome
	switch {
	case game.HasFoul(outcome):
		assert.Equal(t, KindWatchAim, lb.a.Controller().Kind())
		assert.Equal(t, KindPlaceBall, lb.b.Controller().Kind())
	case game.HasPot(outcome):
		assert.Equal(t, KindAim, lb.a.Controller().Kind())
		assert.Equal(t, KindWatchAim, lb.b.Controller().Kind())
	default:
		assert.Equal(t, KindWatchAim, lb.a.Controller().Kind())
		assert.Equal(t, KindAim, lb.b.Controller().Kind())
	}
	assert.Equal(t, lb.a.Table.Snapshot().Balls, lb.b.Table.Snapshot().Balls)
}

func TestReplayRebuildsTableFromJournal(t *testing.T) {
	lb := newLoopback(game.DiamondRack())
	breakShot(t, lb)
	final := lb.a.Table.Snapshot()

	spectator := NewContainer(game.NewTable(game.DiamondRack()), DefaultSettings(), zerolog.Nop())
	require.NoError(t, Replay(spectator, lb.ab.journal))

	assert.Equal(t, KindWatchAim, spectator.Controller().Kind(), "spectators never take a turn")
	assert.Equal(t, final.Balls, spectator.Table.Snapshot().Balls)
}

func TestReplayOfLiveGameSimulatesLastHit(t *testing.T) {
	lb := newLoopback(game.DiamondRack())
	breakShot(t, lb)
	lb.ab.flush(t)
	tickUntil(t, lb.b, 10, func() bool { return lb.b.EventQueue.Empty() && lb.b.Controller().Kind() != KindWatchShot })

	shooter, watcher, out := lb.b, lb.a, lb.ba
	if k := lb.a.Controller().Kind(); k == KindAim || k == KindPlaceBall {
		shooter, watcher, out = lb.a, lb.b, lb.ab
	}
	if shooter.Controller().Kind() == KindPlaceBall {
		shooter.InputQueue.Push(Input{Key: "Enter"})
		tickUntil(t, shooter, 5, kindIs(shooter, KindAim))
	}
	shooter.InputQueue.Push(Input{Dt: 1, Key: "ArrowUp"})
	shooter.InputQueue.Push(Input{Dt: 0.3, Key: "ArrowRight"})
	shooter.InputQueue.Push(Input{Key: "SpaceUp"})
	tickUntil(t, shooter, 5, kindIs(shooter, KindPlayShot))

	live := append([][]byte(nil), lb.journal...)
	last, err := events.FromSerialised(live[len(live)-1])
	require.NoError(t, err)
	require.Equal(t, events.Hit, last.Type(), "journal ends on the second strike")

	out.flush(t)
	tickUntil(t, watcher, 10000, func() bool {
		ws, ok := watcher.Controller().(WatchShot)
		return ok && ws.AllStationary
	})
	require.Equal(t, 2, watcher.Table.ShotID)

	spectator := NewContainer(game.NewTable(game.DiamondRack()), DefaultSettings(), zerolog.Nop())
	require.NoError(t, Replay(spectator, live))

	assert.Equal(t, 2, spectator.Table.ShotID)
	assert.Equal(t, watcher.Table.Snapshot().Balls, spectator.Table.Snapshot().Balls)
	assert.True(t, spectator.Table.AllStationary())
}

func TestReplayRejectsBadFrame(t *testing.T) {
	c := NewContainer(game.NewTable(game.DiamondRack()), DefaultSettings(), zerolog.Nop())
	err := Replay(c, [][]byte{[]byte(`{"type":"BEGIN"}`), []byte(`{"type":"WARP"}`)})
	assert.ErrorIs(t, err, events.ErrUnknownEventType)
}
