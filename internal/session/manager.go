package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/playpool/cuesim/internal/config"
	"github.com/playpool/cuesim/internal/controller"
	"github.com/playpool/cuesim/internal/database"
	"github.com/playpool/cuesim/internal/events"
	"github.com/playpool/cuesim/internal/game"
	"github.com/playpool/cuesim/internal/logging"
	"github.com/playpool/cuesim/internal/models"
)

var ErrSessionClosed = errors.New("session closed")

// Store is the persistence the manager needs; *database.Store implements it.
type Store interface {
	CreateSession(ctx context.Context, sess *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	UpdateSessionStatus(ctx context.Context, id string, status models.SessionStatus) error
	AppendEvent(ctx context.Context, sessionID string, seat int, eventType string, payload []byte, advance func(models.SessionStatus) models.SessionStatus) (*models.SessionEvent, error)
	ListEvents(ctx context.Context, sessionID string) ([]models.SessionEvent, error)
	CountEvents(ctx context.Context, sessionID string) (int, error)
}

type Options struct {
	Secret   []byte
	TTL      time.Duration
	RackSeed uint64 // fixed seed for every session when non-zero
	Sim      controller.Settings
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Secret:   []byte(cfg.JWTSecret),
		TTL:      cfg.SessionTTL(),
		RackSeed: cfg.RackSeed,
		Sim: controller.Settings{
			Step:           cfg.StepSeconds,
			MinSubsteps:    cfg.MinSubsteps,
			MaxShotSeconds: cfg.MaxShotSeconds,
		},
	}
}

// Manager creates sessions, admits seats and journals their events
type Manager struct {
	store Store
	opts  Options
	now   func() time.Time
	base  zerolog.Logger
	log   zerolog.Logger
}

func NewManager(store Store, opts Options, log zerolog.Logger) *Manager {
	return &Manager{
		store: store,
		opts:  opts,
		now:   time.Now,
		base:  log,
		log:   logging.Component(log, "session"),
	}
}

// Created is returned once, on creation; tokens are keyed by seat.
type Created struct {
	Session *models.Session `json:"session"`
	Tokens  map[int]string  `json:"tokens"`
}

func (m *Manager) Create(ctx context.Context, rack string) (*Created, error) {
	if rack == "" {
		rack = game.RackDiamond
	}
	if _, err := game.NewRack(rack, 0); err != nil {
		return nil, err
	}

	seed := m.opts.RackSeed
	if seed == 0 {
		seed = rand.Uint64() >> 1
	}

	now := m.now().UTC()
	sess := &models.Session{
		ID:        uuid.NewString(),
		Status:    models.StatusWaiting,
		Rack:      rack,
		RackSeed:  int64(seed),
		CreatedAt: now,
		ExpiresAt: now.Add(m.opts.TTL),
	}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}

	tokens := make(map[int]string, 2)
	for _, seat := range []int{SeatOne, SeatTwo} {
		tok, err := IssueSeatToken(m.opts.Secret, sess.ID, seat, now, m.opts.TTL)
		if err != nil {
			return nil, err
		}
		tokens[seat] = tok
	}

	m.log.Info().Str("session", sess.ID).Str("rack", rack).Int64("seed", sess.RackSeed).Msg("session created")
	return &Created{Session: sess, Tokens: tokens}, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*models.Session, error) {
	return m.store.GetSession(ctx, id)
}

func (m *Manager) Events(ctx context.Context, id string) ([]models.SessionEvent, error) {
	if _, err := m.store.GetSession(ctx, id); err != nil {
		return nil, err
	}
	return m.store.ListEvents(ctx, id)
}

func (m *Manager) CountEvents(ctx context.Context, id string) (int, error) {
	return m.store.CountEvents(ctx, id)
}

// Authorize checks a seat token against the session it is presented for.
func (m *Manager) Authorize(ctx context.Context, sessionID, token string) (*SeatClaims, error) {
	claims, err := ParseSeatToken(m.opts.Secret, token)
	if err != nil {
		return nil, err
	}
	if claims.SessionID != sessionID {
		return nil, fmt.Errorf("%w: issued for another session", ErrInvalidToken)
	}
	sess, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status.Finished() {
		return nil, ErrSessionClosed
	}
	return claims, nil
}

// Record validates and journals one frame sent by seat. The first frame starts
// the session and ABORT completes it; the status moves in the same store call that
// journals the frame, so nothing is recorded after a racing ABORT. Frames that do
// not decode are rejected before anything is written.
func (m *Manager) Record(ctx context.Context, sessionID string, seat int, frame []byte) (events.GameEvent, error) {
	e, err := events.FromSerialised(frame)
	if err != nil {
		return nil, err
	}

	var from, to models.SessionStatus
	advance := func(cur models.SessionStatus) models.SessionStatus {
		from, to = cur, statusAfter(cur, e.Type())
		return to
	}
	if _, err := m.store.AppendEvent(ctx, sessionID, seat, string(e.Type()), frame, advance); err != nil {
		if errors.Is(err, database.ErrSessionFinished) {
			return nil, ErrSessionClosed
		}
		return nil, err
	}

	if to != from {
		m.log.Info().Str("session", sessionID).Str("status", string(to)).Msg("session status changed")
	}
	return e, nil
}

func statusAfter(cur models.SessionStatus, t events.EventType) models.SessionStatus {
	switch {
	case t == events.Abort:
		return models.StatusCompleted
	case cur == models.StatusWaiting:
		return models.StatusInProgress
	}
	return cur
}

// Cancel marks a session CANCELLED
func (m *Manager) Cancel(ctx context.Context, sessionID string) error {
	if err := m.store.UpdateSessionStatus(ctx, sessionID, models.StatusCancelled); err != nil {
		return err
	}
	m.log.Info().Str("session", sessionID).Msg("session cancelled")
	return nil
}

// Table rebuilds the session's current table by replaying its journal on a
// spectating container.
func (m *Manager) Table(ctx context.Context, sessionID string) (game.TableSnapshot, error) {
	sess, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return game.TableSnapshot{}, err
	}
	journal, err := m.store.ListEvents(ctx, sessionID)
	if err != nil {
		return game.TableSnapshot{}, err
	}
	balls, err := game.NewRack(sess.Rack, uint64(sess.RackSeed))
	if err != nil {
		return game.TableSnapshot{}, err
	}

	frames := make([][]byte, len(journal))
	for i, ev := range journal {
		frames[i] = []byte(ev.Payload)
	}

	c := controller.NewContainer(game.NewTable(balls), m.opts.Sim, m.base.With().Str("session", sessionID).Logger())
	if err := controller.Replay(c, frames); err != nil {
		return game.TableSnapshot{}, fmt.Errorf("replay session %s: %w", sessionID, err)
	}
	return c.Table.Snapshot(), nil
}
