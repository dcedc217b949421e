package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/liveclass/internal/model"
)

// Client is one websocket connection. It implements session.Conn: Send never
// blocks and Close may be called from any goroutine.
type Client struct {
	id     model.ConnectionID
	conn   *websocket.Conn
	send   chan []byte
	quit   chan struct{}
	once   sync.Once
	config Config
	logger *slog.Logger

	connectedAt time.Time
}

func newClient(id model.ConnectionID, conn *websocket.Conn, config Config, logger *slog.Logger) *Client {
	return &Client{
		id:          id,
		conn:        conn,
		send:        make(chan []byte, config.SendBuffer),
		quit:        make(chan struct{}),
		config:      config,
		logger:      logger.With(slog.String("connection_id", string(id))),
		connectedAt: time.Now(),
	}
}

// ID returns the connection identifier
func (c *Client) ID() model.ConnectionID {
	return c.id
}

// Send queues a frame, dropping it if the buffer is full or the client is closed
func (c *Client) Send(frame []byte) bool {
	select {
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close asks the write pump to send a close frame and shut the socket
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.quit)
	})
}

// readPump feeds inbound frames to the coordinator until the socket fails
func (c *Client) readPump(coordinator Coordinator) {
	defer func() {
		c.Close()
		if err := coordinator.Disconnect(c.id); err != nil {
			c.logger.Debug("disconnect not delivered", slog.String("error", err.Error()))
		}
		_ = c.conn.Close()
		c.logger.Info("websocket closed", slog.Duration("connection_duration", time.Since(c.connectedAt)))
	}()

	c.conn.SetReadLimit(c.config.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	})

	for {
		messageType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", slog.String("error", err.Error()))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if err := coordinator.Deliver(c.id, frame); err != nil {
			c.logger.Debug("frame not delivered", slog.String("error", err.Error()))
			return
		}
	}
}

// writePump drains the send queue and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("websocket write failed", slog.String("error", err.Error()))
				c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.quit:
			c.flush()
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.config.WriteWait))
			return
		}
	}
}

// flush writes whatever is already queued so a kick notice reaches the client
func (c *Client) flush() {
	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		default:
			return
		}
	}
}
