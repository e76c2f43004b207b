// Package sessiontest provides an in-memory session store for tests.
package sessiontest

import (
	"context"
	"sync"
	"time"

	"github.com/playpool/cuesim/internal/database"
	"github.com/playpool/cuesim/internal/models"
)

type Store struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	events   map[string][]models.SessionEvent
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]models.Session),
		events:   make(map[string][]models.SessionEvent),
	}
}

func (s *Store) CreateSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, database.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *Store) UpdateSessionStatus(_ context.Context, id string, status models.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return database.ErrSessionNotFound
	}
	sess.Status = status
	s.sessions[id] = sess
	return nil
}

func (s *Store) AppendEvent(_ context.Context, sessionID string, seat int, eventType string, payload []byte, advance func(models.SessionStatus) models.SessionStatus) (*models.SessionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, database.ErrSessionNotFound
	}
	if sess.Status.Finished() {
		return nil, database.ErrSessionFinished
	}
	now := time.Now().UTC()
	ev := models.SessionEvent{
		ID:        database.NewEventID(now),
		SessionID: sessionID,
		Seq:       len(s.events[sessionID]) + 1,
		Seat:      seat,
		EventType: eventType,
		Payload:   string(payload),
		CreatedAt: now,
	}
	s.events[sessionID] = append(s.events[sessionID], ev)
	if advance != nil {
		sess.Status = advance(sess.Status)
		s.sessions[sessionID] = sess
	}
	return &ev, nil
}

func (s *Store) ListEvents(_ context.Context, sessionID string) ([]models.SessionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SessionEvent{}, s.events[sessionID]...), nil
}

func (s *Store) CountEvents(_ context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events[sessionID]), nil
}

// Status returns the stored status of a session, or "" if it does not exist.
func (s *Store) Status(id string) models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id].Status
}
