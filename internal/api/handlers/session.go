package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/playpool/cuesim/internal/models"
	"github.com/playpool/cuesim/internal/session"
	"github.com/playpool/cuesim/internal/ws"
)

type createSessionRequest struct {
	Rack string `json:"rack"`
}

// CreateSession opens a session and returns the seat tokens
func CreateSession(mgr *session.Manager, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createSessionRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
		}

		created, err := mgr.Create(c.Request.Context(), req.Rack)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

// GetSession returns status, connected seats and journal length
func GetSession(mgr *session.Manager, hub *ws.Hub, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		sess, err := mgr.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, log, err)
			return
		}
		count, err := mgr.CountEvents(c.Request.Context(), id)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"session":     sess,
			"seats":       hub.Seats(id),
			"event_count": count,
		})
	}
}

type journalEntry struct {
	Seq       int             `json:"seq"`
	Seat      int             `json:"seat"`
	Type      string          `json:"type"`
	Event     json.RawMessage `json:"event"`
	CreatedAt time.Time       `json:"created_at"`
}

func toJournal(evs []models.SessionEvent) []journalEntry {
	out := make([]journalEntry, len(evs))
	for i, ev := range evs {
		out[i] = journalEntry{
			Seq:       ev.Seq,
			Seat:      ev.Seat,
			Type:      ev.EventType,
			Event:     json.RawMessage(ev.Payload),
			CreatedAt: ev.CreatedAt,
		}
	}
	return out
}

// GetSessionEvents returns the journal in sequence order
func GetSessionEvents(mgr *session.Manager, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		evs, err := mgr.Events(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": toJournal(evs)})
	}
}

// GetSessionTable returns the table rebuilt from the journal
func GetSessionTable(mgr *session.Manager, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := mgr.Table(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}
