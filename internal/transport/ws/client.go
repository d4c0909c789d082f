package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/codebreak-go/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong before the connection is
	// considered dead
	pongWait = 60 * time.Second

	// Ping interval. Kept under pongWait and under common proxy idle
	// timeouts.
	pingPeriod = 54 * time.Second

	// Largest inbound frame we accept
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// client is one live websocket connection. The token is the player
// identity the connection currently acts as; a rejoin rebinds it.
type client struct {
	hub  *Hub
	id   model.ConnectionID
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	token  model.PlayerToken
	closed bool
}

func (c *client) playerToken() model.PlayerToken {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *client) setPlayerToken(token model.PlayerToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// enqueue queues a payload for the write pump. It reports false if the
// client is closed or its buffer is full. Holding the mutex across the
// channel send keeps it ordered before close, so the channel is never
// written after it is shut.
func (c *client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close shuts the send channel exactly once, which in turn ends the
// write pump
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump reads inbound messages and hands them to the hub. It owns
// the read side of the connection; on any read error it unregisters
// the client, which notifies the engine of the disconnect.
func (c *client) readPump() {
	defer func() {
		c.hub.drop(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error",
					slog.String("conn", string(c.id)),
					slog.Any("error", err))
			}
			return
		}
		if messageType == websocket.TextMessage {
			c.hub.dispatch(c, message)
		}
	}
}

// writePump drains the send channel to the connection and keeps the
// peer alive with periodic pings. It owns the write side of the
// connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Drain whatever queued up behind this message
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
