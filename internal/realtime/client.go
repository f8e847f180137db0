package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/ccellsty/oryxchatfrfr/internal/observability"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 16384
)

// wsConn is the subset of *websocket.Conn the hub needs. Satisfied by
// fiber's websocket connection; tests substitute a fake.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// ControlMessage is what the peer sends to add or remove topic watches.
type ControlMessage struct {
	Action string `json:"action"` // "watch" or "unwatch"
	Topic  string `json:"topic"`
}

// Client is the middleman between one websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn wsConn

	// Buffered channel of outbound frames.
	send chan []byte

	// UserID for this client
	UserID uint
}

func newClient(hub *Hub, conn wsConn, userID uint) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		UserID: userID,
	}
}

// TrySend queues a frame without blocking. A full buffer means the peer
// cannot keep up; the frame is dropped and the peer reconciles later.
func (c *Client) TrySend(message []byte) {
	select {
	case c.send <- message:
	default:
		observability.WebSocketBackpressureDrops.
			WithLabelValues(c.hub.Name(), "buffer_full").Inc()
	}
}

// ReadPump pumps control messages from the websocket connection to the
// hub until the connection drops.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.UnregisterClient(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				observability.Logger.Warn("websocket read failed",
					"user_id", c.UserID, "error", err)
			}
			return
		}

		var ctl ControlMessage
		if err := json.Unmarshal(message, &ctl); err != nil {
			observability.Logger.Warn("malformed control message",
				"user_id", c.UserID, "error", err)
			continue
		}
		c.handleControl(ctx, ctl)
	}
}

func (c *Client) handleControl(ctx context.Context, ctl ControlMessage) {
	switch ctl.Action {
	case "watch":
		if !c.hub.authorizeTopic(ctx, c.UserID, ctl.Topic) {
			observability.Logger.Warn("topic watch denied",
				"user_id", c.UserID, "topic", ctl.Topic)
			return
		}
		if err := c.hub.Watch(ctx, c, ctl.Topic); err != nil {
			observability.Logger.Error("topic watch failed",
				"user_id", c.UserID, "topic", ctl.Topic, "error", err)
		}
	case "unwatch":
		c.hub.Unwatch(c, ctl.Topic)
	default:
		observability.Logger.Warn("unknown control action",
			"user_id", c.UserID, "action", ctl.Action)
	}
}

// WritePump pumps frames from the hub to the websocket connection and
// keeps the connection alive with pings.
func (c *Client) WritePump() {
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
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) closeConn() {
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
	_ = c.conn.Close()
}
