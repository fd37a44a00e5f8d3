package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/humphreyhhui/LanguageGames/pkg/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// checkOrigin accepts same-origin and configured browser origins. Requests
// without an Origin header come from non-browser clients and pass through.
func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range g.cfg.CORSAllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// Client is one websocket connection: an inbound read pump feeding the
// gateway dispatcher and an outbound write pump draining the hub.
type Client struct {
	hub          *Hub
	gateway      *Gateway
	conn         *websocket.Conn
	sendQueue    chan *Message
	connectionID string
}

// readPump forwards inbound frames to the gateway until the peer goes away.
func (c *Client) readPump() {
	defer func() {
		c.gateway.HandleDisconnect(c.connectionID)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket read error",
					"connectionId", c.connectionID,
					"error", err,
				)
			}
			break
		}

		c.gateway.HandleMessage(c.connectionID, data)
	}
}

// writePump drains the send queue to the peer and keeps the ping cadence.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.sendQueue:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(message)
			if err != nil {
				logger.Error("Failed to marshal message",
					"connectionId", c.connectionID,
					"error", err,
				)
				continue
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Error("Failed to write message",
					"connectionId", c.connectionID,
					"error", err,
				)
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

// ServeWs upgrades an HTTP request, registers the connection and starts the
// pumps. Authentication happens in-band afterwards.
func ServeWs(hub *Hub, gw *Gateway, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     gw.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}

	client := &Client{
		hub:          hub,
		gateway:      gw,
		conn:         conn,
		sendQueue:    make(chan *Message, 256),
		connectionID: uuid.New().String(),
	}

	client.hub.register <- client
	gw.HandleConnect(client.connectionID)

	go client.writePump()
	go client.readPump()
}
