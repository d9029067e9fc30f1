package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLoggedEngine(out *bytes.Buffer) *gin.Engine {
	engine := gin.New()
	engine.Use(LogApi(out, "/health"))
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/api/v1/presence/:id", func(c *gin.Context) {
		c.Set("user_id", uint(42))
		c.Status(http.StatusOK)
	})
	engine.GET("/api/v1/ws", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	return engine
}

func TestLogApi_LogsMatchedRouteAndUser(t *testing.T) {
	var out bytes.Buffer
	engine := newLoggedEngine(&out)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/presence/17", nil))

	require.Equal(t, http.StatusOK, w.Code)
	line := out.String()
	assert.Contains(t, line, "] http | 200 | GET /api/v1/presence/:id |")
	assert.NotContains(t, line, "/api/v1/presence/17")
	assert.Contains(t, line, "user=42")
}

func TestLogApi_TagsWebSocketUpgrades(t *testing.T) {
	var out bytes.Buffer
	engine := newLoggedEngine(&out)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
	req.Header.Set("Connection", "keep-alive, Upgrade")
	req.Header.Set("Upgrade", "websocket")
	engine.ServeHTTP(httptest.NewRecorder(), req)

	line := out.String()
	assert.Contains(t, line, "] ws | 400 | GET /api/v1/ws |")
	assert.Contains(t, line, "user=-")
}

func TestLogApi_UnmatchedAndSkippedPaths(t *testing.T) {
	var out bytes.Buffer
	engine := newLoggedEngine(&out)

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, out.String())

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Contains(t, out.String(), "| 404 | GET /nope |")
}

func TestIsWebSocketUpgrade(t *testing.T) {
	assert.True(t, isWebSocketUpgrade("Upgrade", "websocket"))
	assert.True(t, isWebSocketUpgrade("keep-alive, upgrade", "WebSocket"))
	assert.False(t, isWebSocketUpgrade("keep-alive", "websocket"))
	assert.False(t, isWebSocketUpgrade("Upgrade", "h2c"))
}
