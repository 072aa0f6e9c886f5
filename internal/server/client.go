package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const maxMessageSize = 64 * 1024

// Client is one websocket connection. Outgoing messages go through a bounded queue drained by
// writePump; a full queue drops the message rather than blocking the match that produced it.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	subs   map[string]int
}

func (c *Client) enqueue(msg ServerMessage) bool {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to encode message", zap.String("type", msg.Type), zap.Error(err))
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		c.logger.Warn("send queue full, dropping message",
			zap.String("type", msg.Type),
			zap.String("game_id", msg.GameID),
		)
		return false
	}
}

func (c *Client) subscription(gameID string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.subs[gameID]
	return h, ok
}

func (c *Client) setSubscription(gameID string, handle int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[gameID] = handle
}

func (c *Client) dropSubscription(gameID string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.subs[gameID]
	delete(c.subs, gameID)
	return h, ok
}

// shutdown closes the send queue once and returns the subscriptions that were open.
func (c *Client) shutdown() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.send)
	subs := c.subs
	c.subs = make(map[string]int)
	return subs
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	pongTimeout := c.hub.cfg.PongTimeout
	c.conn.SetReadLimit(maxMessageSize)
	if pongTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		})
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug("invalid client message", zap.Error(err))
			c.enqueue(ServerMessage{Type: MsgError, Error: "invalid message: " + err.Error()})
			continue
		}
		c.hub.handleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	writeTimeout := c.hub.cfg.WriteTimeout
	var ping <-chan time.Time
	if pongTimeout := c.hub.cfg.PongTimeout; pongTimeout > 0 {
		ticker := time.NewTicker(pongTimeout * 9 / 10)
		defer ticker.Stop()
		ping = ticker.C
	}
	defer c.conn.Close()

	for {
		select {
		case payload, ok := <-c.send:
			c.setWriteDeadline(writeTimeout)
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ping:
			c.setWriteDeadline(writeTimeout)
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) setWriteDeadline(timeout time.Duration) {
	if timeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
}
