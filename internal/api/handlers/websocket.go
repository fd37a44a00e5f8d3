package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/humphreyhhui/LanguageGames/internal/gateway"
)

type WebSocketHandler struct {
	hub *gateway.Hub
	gw  *gateway.Gateway
}

func NewWebSocketHandler(hub *gateway.Hub, gw *gateway.Gateway) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		gw:  gw,
	}
}

// HandleWebSocket upgrades the connection and hands it to the realtime
// gateway. Authentication happens in-band via the authenticate event, not
// here, so clients without a token can still reach the handshake.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	gateway.ServeWs(h.hub, h.gw, c.Writer, c.Request)
}
