package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"

	"github.com/playpool/cuesim/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFinished = errors.New("session finished")
)

// Store persists sessions and their event journal
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// NewEventID returns a time-sortable journal entry id
func NewEventID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}

func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO sessions (id, status, rack, rack_seed, created_at, expires_at)
		VALUES (:id, :status, :rack, :rack_seed, :created_at, :expires_at)`, sess)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	err := s.db.GetContext(ctx, &sess, `SELECT * FROM sessions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &sess, nil
}

const updateStatusSQL = `
	UPDATE sessions SET
		status = $2,
		started_at = CASE WHEN $2 = 'IN_PROGRESS' AND started_at IS NULL THEN NOW() ELSE started_at END,
		completed_at = CASE WHEN $2 IN ('COMPLETED', 'CANCELLED') AND completed_at IS NULL THEN NOW() ELSE completed_at END
	WHERE id = $1`

// UpdateSessionStatus moves a session to status, stamping started_at or
// completed_at the first time the matching state is reached.
func (s *Store) UpdateSessionStatus(ctx context.Context, id string, status models.SessionStatus) error {
	res, err := s.db.ExecContext(ctx, updateStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("update session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// AppendEvent journals one frame with the next sequence number for its session.
// The session row is locked for the whole append, so concurrent appends get
// distinct sequence numbers and nothing is journaled once the session has finished.
// advance, when non-nil, maps the locked status to the one the session moves to
// in the same transaction.
func (s *Store) AppendEvent(ctx context.Context, sessionID string, seat int, eventType string, payload []byte, advance func(models.SessionStatus) models.SessionStatus) (*models.SessionEvent, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var status models.SessionStatus
	err = tx.GetContext(ctx, &status, `SELECT status FROM sessions WHERE id = $1 FOR UPDATE`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock session %s: %w", sessionID, err)
	}
	if status.Finished() {
		return nil, ErrSessionFinished
	}

	ev := models.SessionEvent{
		SessionID: sessionID,
		Seat:      seat,
		EventType: eventType,
		Payload:   string(payload),
		CreatedAt: time.Now().UTC(),
	}
	ev.ID = NewEventID(ev.CreatedAt)

	if err := tx.GetContext(ctx, &ev.Seq, `SELECT COALESCE(MAX(seq), 0) + 1 FROM session_events WHERE session_id = $1`, sessionID); err != nil {
		return nil, fmt.Errorf("next seq for %s: %w", sessionID, err)
	}

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO session_events (id, session_id, seq, seat, event_type, payload, created_at)
		VALUES (:id, :session_id, :seq, :seat, :event_type, :payload, :created_at)`, &ev); err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	if advance != nil {
		if next := advance(status); next != status {
			if _, err := tx.ExecContext(ctx, updateStatusSQL, sessionID, string(next)); err != nil {
				return nil, fmt.Errorf("update session %s: %w", sessionID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return &ev, nil
}

// ListEvents returns the journal of a session in sequence order
func (s *Store) ListEvents(ctx context.Context, sessionID string) ([]models.SessionEvent, error) {
	out := []models.SessionEvent{}
	if err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM session_events WHERE session_id = $1 ORDER BY seq`, sessionID); err != nil {
		return nil, fmt.Errorf("list events %s: %w", sessionID, err)
	}
	return out, nil
}

func (s *Store) CountEvents(ctx context.Context, sessionID string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM session_events WHERE session_id = $1`, sessionID); err != nil {
		return 0, fmt.Errorf("count events %s: %w", sessionID, err)
	}
	return n, nil
}
