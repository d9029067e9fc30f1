package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SocketServer upgrades HTTP requests into chat connections
type SocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type WSHandler struct {
	hub SocketServer
}

func NewWSHandler(hub SocketServer) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleWebSocket godoc
// @Summary WebSocket connection
// @Description Upgrade to a WebSocket. The connection starts unauthenticated; the client must send an authenticate event before anything else.
// @Tags websocket
// @Success 101 "Switching Protocols"
// @Failure 403 "Origin not allowed"
// @Failure 429 {object} map[string]interface{} "Too many connection attempts"
// @Router /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}
