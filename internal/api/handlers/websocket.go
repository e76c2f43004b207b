package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/playpool/cuesim/internal/session"
	"github.com/playpool/cuesim/internal/ws"
)

// SessionWebSocket upgrades a seat holder's connection and hands it to the hub.
// The seat token travels in the token query parameter.
func SessionWebSocket(mgr *session.Manager, hub *ws.Hub, upgrader *websocket.Upgrader, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		claims, err := mgr.Authorize(c.Request.Context(), id, token)
		if err != nil {
			respondError(c, log, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Str("session", id).Msg("upgrade failed")
			return
		}

		client := ws.NewClient(hub, conn, id, claims.Seat)
		go client.Serve(context.WithoutCancel(c.Request.Context()))
	}
}
