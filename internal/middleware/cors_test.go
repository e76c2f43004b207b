package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/playpool/cuesim/internal/config"
)

func TestOriginAllowed(t *testing.T) {
	dev := &config.Config{Environment: "development", FrontendURL: "https://pool.example"}
	prod := &config.Config{Environment: "production", FrontendURL: "https://pool.example"}

	cases := []struct {
		cfg    *config.Config
		origin string
		want   bool
	}{
		{dev, "http://localhost:3000", true},
		{dev, "http://127.0.0.1:5173", true},
		{dev, "https://pool.example", true},
		{dev, "", false},
		{prod, "https://pool.example", true},
		{prod, "http://localhost:5173", false},
		{prod, "https://evil.example", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, OriginAllowed(tc.cfg, tc.origin), "%s %q", tc.cfg.Environment, tc.origin)
	}
}

func TestWebSocketCORSCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Environment: "production", FrontendURL: "https://pool.example"}

	r := gin.New()
	r.Use(WebSocketCORSCheck(cfg))
	r.GET("/ws", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(origin string, upgrade bool) int {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if upgrade {
			req.Header.Set("Connection", "keep-alive, Upgrade")
			req.Header.Set("Upgrade", "websocket")
		}
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, do("", false), "plain requests pass")
	assert.Equal(t, http.StatusBadRequest, do("", true))
	assert.Equal(t, http.StatusForbidden, do("https://evil.example", true))
	assert.Equal(t, http.StatusNoContent, do("https://pool.example", true))
}
