package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/models"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size.
	maxMessageSize = 8 * 1024

	// Per-client outbound queue. A client that falls this far behind is
	// dropped by the hub.
	sendQueueSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The portal fronts the channel; origin enforcement lives there.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one connected participant on the shared channel.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	logger    zerolog.Logger

	// mu guards closed so that send and close of the queue never race.
	// The hub goroutine closes the queue; the read pump sends errors on it.
	mu     sync.Mutex
	closed bool
}

// trySend queues a frame without blocking. Reports false when the queue is
// full or already closed.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the queue exactly once.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ServeWS upgrades an HTTP request to a channel connection and starts the
// client's pumps. The session id rides in on a query parameter; it is opaque
// and never echoed to other participants.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendQueueSize),
		sessionID: r.URL.Query().Get("session_id"),
		logger:    h.logger.With().Str("remote_addr", r.RemoteAddr).Logger(),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump reads frames off the connection and dispatches them. Frames on one
// connection are handled in arrival order; connections run in parallel.
func (c *Client) readPump() {
	defer func() {
		// After shutdown the hub no longer drains unregister.
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("connection closed unexpectedly")
			}
			return
		}
		c.hub.handleEnvelope(context.Background(), c, message)
	}
}

// writePump writes queued frames to the connection and keeps it alive with
// pings. A write failure closes the connection; the peer recovers by
// reconnecting and re-fetching the snapshot.
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
				// Hub closed the queue.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn().Err(err).Msg("write failed")
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

// sendError queues an ERROR envelope for this client only. Errors are never
// broadcast.
func (c *Client) sendError(message string) {
	env, err := models.NewEnvelope(models.TypeError, models.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	if !c.trySend(data) {
		// Queue full or client already dropped; nothing to report to.
		return
	}
}
