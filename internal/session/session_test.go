package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playpool/cuesim/internal/controller"
	"github.com/playpool/cuesim/internal/database"
	"github.com/playpool/cuesim/internal/events"
	"github.com/playpool/cuesim/internal/game"
	"github.com/playpool/cuesim/internal/models"
	"github.com/playpool/cuesim/internal/session/sessiontest"
)

var secret = []byte("test-secret")

func newTestManager(t *testing.T) (*Manager, *sessiontest.Store) {
	t.Helper()
	store := sessiontest.NewStore()
	m := NewManager(store, Options{
		Secret: secret,
		TTL:    time.Hour,
		Sim:    controller.DefaultSettings(),
	}, zerolog.Nop())
	return m, store
}

func frame(t *testing.T, e events.GameEvent) []byte {
	t.Helper()
	data, err := events.Serialise(e)
	require.NoError(t, err)
	return data
}

func TestSeatTokenRoundTrip(t *testing.T) {
	tok, err := IssueSeatToken(secret, "s-1", SeatTwo, time.Now(), time.Minute)
	require.NoError(t, err)

	claims, err := ParseSeatToken(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "s-1", claims.SessionID)
	assert.Equal(t, SeatTwo, claims.Seat)
	assert.Equal(t, "s-1/2", claims.Subject)
}

func TestSeatTokenRejections(t *testing.T) {
	expired, err := IssueSeatToken(secret, "s-1", SeatOne, time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)

	good, err := IssueSeatToken(secret, "s-1", SeatOne, time.Now(), time.Hour)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, SeatClaims{SessionID: "s-1", Seat: SeatOne}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tc := range map[string]struct {
		secret []byte
		token  string
	}{
		"expired":      {secret, expired},
		"wrong secret": {[]byte("other"), good},
		"alg none":     {secret, unsigned},
		"garbage":      {secret, "not.a.token"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSeatToken(tc.secret, tc.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = IssueSeatToken(secret, "s-1", 3, time.Now(), time.Hour)
	assert.Error(t, err)
}

func TestCreateIssuesTokensForBothSeats(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	created, err := m.Create(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, game.RackDiamond, created.Session.Rack)
	assert.Equal(t, models.StatusWaiting, store.Status(created.Session.ID))
	assert.Positive(t, created.Session.RackSeed)

	for _, seat := range []int{SeatOne, SeatTwo} {
		claims, err := m.Authorize(ctx, created.Session.ID, created.Tokens[seat])
		require.NoError(t, err)
		assert.Equal(t, seat, claims.Seat)
	}

	_, err = m.Create(ctx, "carom")
	assert.ErrorIs(t, err, game.ErrUnknownRack)
}

func TestCreateUsesFixedSeed(t *testing.T) {
	m, _ := newTestManager(t)
	m.opts.RackSeed = 77

	created, err := m.Create(context.Background(), game.RackTriangle)
	require.NoError(t, err)
	assert.Equal(t, int64(77), created.Session.RackSeed)
}

func TestAuthorizeRejectsOtherSessionAndClosed(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	a, err := m.Create(ctx, "")
	require.NoError(t, err)
	b, err := m.Create(ctx, "")
	require.NoError(t, err)

	_, err = m.Authorize(ctx, b.Session.ID, a.Tokens[SeatOne])
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, store.UpdateSessionStatus(ctx, a.Session.ID, models.StatusCancelled))
	_, err = m.Authorize(ctx, a.Session.ID, a.Tokens[SeatOne])
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestRecordDrivesStatus(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	created, err := m.Create(ctx, "")
	require.NoError(t, err)
	id := created.Session.ID

	table := game.NewTable(game.DiamondRack())
	e, err := m.Record(ctx, id, SeatOne, frame(t, events.WatchEvent{Table: table.Snapshot()}))
	require.NoError(t, err)
	assert.Equal(t, events.Watch, e.Type())
	assert.Equal(t, models.StatusInProgress, store.Status(id))

	_, err = m.Record(ctx, id, SeatTwo, []byte(`{"type":"TELEPORT"}`))
	assert.ErrorIs(t, err, events.ErrUnknownEventType)

	_, err = m.Record(ctx, id, SeatTwo, frame(t, events.AbortEvent{}))
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, store.Status(id))

	_, err = m.Record(ctx, id, SeatOne, frame(t, events.ChatEvent{From: "a", Text: "gg"}))
	assert.ErrorIs(t, err, ErrSessionClosed)

	journal, err := m.Events(ctx, id)
	require.NoError(t, err)
	require.Len(t, journal, 2)
	assert.Equal(t, []string{"WATCH", "ABORT"}, []string{journal[0].EventType, journal[1].EventType})
	assert.Equal(t, []int{1, 2}, []int{journal[0].Seq, journal[1].Seq})
	assert.Equal(t, SeatTwo, journal[1].Seat)

	_, err = m.Events(ctx, "missing")
	assert.ErrorIs(t, err, database.ErrSessionNotFound)
}

func TestRecordNeverJournalsAfterRacingAbort(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	created, err := m.Create(ctx, "")
	require.NoError(t, err)
	id := created.Session.ID

	chat := frame(t, events.ChatEvent{From: "b", Text: "wait"})
	abort := frame(t, events.AbortEvent{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i == 10 {
				_, _ = m.Record(ctx, id, SeatOne, abort)
				return
			}
			_, err := m.Record(ctx, id, SeatTwo, chat)
			if err != nil {
				assert.ErrorIs(t, err, ErrSessionClosed)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, models.StatusCompleted, store.Status(id))
	journal, err := m.Events(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, journal)
	assert.Equal(t, "ABORT", journal[len(journal)-1].EventType, "abort is the last entry")
}

func TestAppendRefusedOnceFinished(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	created, err := m.Create(ctx, "")
	require.NoError(t, err)
	id := created.Session.ID

	require.NoError(t, store.UpdateSessionStatus(ctx, id, models.StatusCancelled))

	_, err = store.AppendEvent(ctx, id, SeatOne, "CHAT", []byte(`{}`), nil)
	assert.ErrorIs(t, err, database.ErrSessionFinished)

	_, err = m.Record(ctx, id, SeatOne, frame(t, events.ChatEvent{From: "a", Text: "hi"}))
	assert.ErrorIs(t, err, ErrSessionClosed)

	n, err := m.CountEvents(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCancel(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	created, err := m.Create(ctx, "")
	require.NoError(t, err)

	require.NoError(t, m.Cancel(ctx, created.Session.ID))
	assert.Equal(t, models.StatusCancelled, store.Status(created.Session.ID))
	assert.ErrorIs(t, m.Cancel(ctx, "missing"), database.ErrSessionNotFound)
}

func TestTableReplaysJournal(t *testing.T) {
	m, _ := newTestManager(t)
	m.opts.RackSeed = 5
	ctx := context.Background()
	created, err := m.Create(ctx, "")
	require.NoError(t, err)
	id := created.Session.ID

	balls, err := game.NewRack(game.RackDiamond, 5)
	require.NoError(t, err)
	start := game.NewTable(balls)
	cue := game.Cue{Angle: 0.01, Power: 9}

	_, err = m.Record(ctx, id, SeatOne, frame(t, events.WatchEvent{Table: start.Snapshot()}))
	require.NoError(t, err)
	_, err = m.Record(ctx, id, SeatOne, frame(t, events.HitEvent{Table: start.Snapshot(), Cue: cue}))
	require.NoError(t, err)

	want := game.NewTable(balls)
	want.Cue = cue
	want.Hit()
	for i := 0; i < 100000 && !want.AllStationary(); i++ {
		require.NoError(t, want.Advance(controller.DefaultSettings().Step))
	}
	want.FinishShot()

	got, err := m.Table(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, want.Snapshot().Balls, got.Balls)
}

func TestIdleCutoff(t *testing.T) {
	now := time.Unix(10_000, 0)
	assert.Equal(t, "9700", idleCutoff(now, 300*time.Second))
	assert.Equal(t, "10000", idleCutoff(now, 0))
}
