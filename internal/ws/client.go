package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxFrame   = 65536
)

// NewUpgrader accepts origins approved by checkOrigin; nil allows all.
func NewUpgrader(checkOrigin func(r *http.Request) bool) *websocket.Upgrader {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}
}

// Client is one seat's websocket connection
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	seat      int
	send      chan []byte

	// guarded by hub.mu
	closed      bool
	closeReason string
}

func NewClient(h *Hub, conn *websocket.Conn, sessionID string, seat int) *Client {
	return &Client{
		hub:       h,
		conn:      conn,
		sessionID: sessionID,
		seat:      seat,
		send:      make(chan []byte, 256),
	}
}

// Serve registers the client and runs its pumps; it returns when the connection ends.
func (c *Client) Serve(ctx context.Context) {
	c.hub.Register(c)
	go c.writePump()
	c.readPump(ctx)
}

// close must be called with hub.mu held for writing.
func (c *Client) close(reason string) {
	if c.closed {
		return
	}
	c.closed = true
	c.closeReason = reason
	close(c.send)
}

func (c *Client) sendError(message string) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- errorFrame(message):
	default:
	}
}

func (c *Client) readPump(ctx context.Context) {
	log := c.hub.log.With().Str("session", c.sessionID).Int("seat", c.seat).Logger()
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrame)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		kind, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("unexpected close")
			} else {
				log.Debug().Err(err).Msg("read ended")
			}
			return
		}
		if kind != websocket.TextMessage {
			c.sendError("text frames only")
			continue
		}
		c.hub.Handle(ctx, c, message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.hub.mu.RLock()
				reason := c.closeReason
				c.hub.mu.RUnlock()
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.Debug().Err(err).Str("session", c.sessionID).Int("seat", c.seat).Msg("write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
