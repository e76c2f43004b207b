package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/playpool/cuesim/internal/events"
	"github.com/playpool/cuesim/internal/logging"
	cueredis "github.com/playpool/cuesim/internal/redis"
	"github.com/playpool/cuesim/internal/session"
)

// Recorder validates and journals frames; *session.Manager implements it.
type Recorder interface {
	Record(ctx context.Context, sessionID string, seat int, frame []byte) (events.GameEvent, error)
	Cancel(ctx context.Context, sessionID string) error
}

// Publisher fans frames out to other instances; *redis.Relay implements it.
type Publisher interface {
	Publish(ctx context.Context, env cueredis.Envelope) error
}

// Activity tracks when sessions were last active; *session.IdleTracker implements it.
type Activity interface {
	Touch(ctx context.Context, sessionID string) error
	Forget(ctx context.Context, sessionID string) error
}

// Hub relays game event frames between the seats of each session
type Hub struct {
	id         string
	rooms      map[string]map[int]*Client // sessionID -> seat -> client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex

	recorder  Recorder
	publisher Publisher
	activity  Activity
	log       zerolog.Logger
}

// NewHub builds a hub. publisher and activity may be nil for a single instance
// without redis.
func NewHub(recorder Recorder, publisher Publisher, activity Activity, log zerolog.Logger) *Hub {
	return &Hub{
		id:         uuid.NewString(),
		rooms:      make(map[string]map[int]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		recorder:   recorder,
		publisher:  publisher,
		activity:   activity,
		log:        logging.Component(log, "ws"),
	}
}

// ID names this instance on the relay so it can skip its own publications.
func (h *Hub) ID() string {
	return h.id
}

// Run owns room membership until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.join(c)
		case c := <-h.unregister:
			h.leave(c)
		}
	}
}

// Register and Unregister return without effect once Run has stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) join(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.sessionID]
	if !ok {
		room = make(map[int]*Client)
		h.rooms[c.sessionID] = room
	}
	old := room[c.seat]
	room[c.seat] = c
	if old != nil {
		old.close("replaced by new connection")
	}
	h.mu.Unlock()

	h.log.Info().
		Str("session", c.sessionID).
		Int("seat", c.seat).
		Bool("reconnect", old != nil).
		Msg("seat connected")
}

func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[c.sessionID]
	if room[c.seat] != c {
		return
	}
	delete(room, c.seat)
	if len(room) == 0 {
		delete(h.rooms, c.sessionID)
	}
	c.close("")
	h.log.Info().Str("session", c.sessionID).Int("seat", c.seat).Msg("seat disconnected")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for _, c := range room {
			c.close("server shutting down")
		}
		delete(h.rooms, id)
	}
}

// Seats lists the seats connected to a session on this instance.
func (h *Hub) Seats(sessionID string) []int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seats := make([]int, 0, 2)
	for _, s := range []int{session.SeatOne, session.SeatTwo} {
		if _, ok := h.rooms[sessionID][s]; ok {
			seats = append(seats, s)
		}
	}
	return seats
}

// Handle takes one frame read from a seat: it is journaled, relayed to the
// other seats and published for other instances. A frame that fails validation
// is answered with an error frame and goes nowhere else.
func (h *Hub) Handle(ctx context.Context, from *Client, frame []byte) {
	e, err := h.recorder.Record(ctx, from.sessionID, from.seat, frame)
	if err != nil {
		h.log.Debug().Err(err).Str("session", from.sessionID).Int("seat", from.seat).Msg("frame rejected")
		from.sendError(rejectReason(err))
		return
	}

	h.deliver(from.sessionID, from.seat, frame)
	h.publish(ctx, from.sessionID, from.seat, frame)

	if e.Type() == events.Abort {
		h.forget(ctx, from.sessionID)
		return
	}
	if h.activity != nil {
		if err := h.activity.Touch(ctx, from.sessionID); err != nil {
			h.log.Warn().Err(err).Str("session", from.sessionID).Msg("touch activity")
		}
	}
}

// Deliver hands a frame published by another instance to the local seats.
func (h *Hub) Deliver(env cueredis.Envelope) {
	if env.Origin == h.id {
		return
	}
	h.deliver(env.SessionID, env.Seat, env.Frame)
}

// AbortIdle ends a session that went quiet: both seats receive an ABORT and the
// session is cancelled.
func (h *Hub) AbortIdle(ctx context.Context, sessionID string) {
	frame, err := events.Serialise(events.AbortEvent{})
	if err != nil {
		h.log.Error().Err(err).Msg("serialise abort")
		return
	}
	if _, err := h.recorder.Record(ctx, sessionID, session.SeatServer, frame); err != nil {
		h.log.Warn().Err(err).Str("session", sessionID).Msg("journal idle abort")
	}
	if err := h.recorder.Cancel(ctx, sessionID); err != nil {
		h.log.Warn().Err(err).Str("session", sessionID).Msg("cancel idle session")
	}

	h.deliver(sessionID, session.SeatServer, frame)
	h.publish(ctx, sessionID, session.SeatServer, frame)
}

func (h *Hub) deliver(sessionID string, fromSeat int, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for seat, c := range h.rooms[sessionID] {
		if seat == fromSeat {
			continue
		}
		select {
		case c.send <- frame:
		default:
			h.log.Warn().Str("session", sessionID).Int("seat", seat).Msg("send buffer full, dropping frame")
		}
	}
}

func (h *Hub) publish(ctx context.Context, sessionID string, seat int, frame []byte) {
	if h.publisher == nil {
		return
	}
	env := cueredis.Envelope{Origin: h.id, SessionID: sessionID, Seat: seat, Frame: frame}
	if err := h.publisher.Publish(ctx, env); err != nil {
		h.log.Warn().Err(err).Str("session", sessionID).Msg("publish frame")
	}
}

func (h *Hub) forget(ctx context.Context, sessionID string) {
	if h.activity == nil {
		return
	}
	if err := h.activity.Forget(ctx, sessionID); err != nil {
		h.log.Warn().Err(err).Str("session", sessionID).Msg("forget activity")
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, events.ErrUnknownEventType):
		return "unknown event type"
	case errors.Is(err, session.ErrSessionClosed):
		return "session closed"
	}
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) {
		return "malformed frame"
	}
	return "frame rejected"
}

// errorFrame is the only non-GameEvent frame the hub ever writes.
func errorFrame(message string) []byte {
	data, _ := json.Marshal(map[string]string{"type": "error", "message": message})
	return data
}
