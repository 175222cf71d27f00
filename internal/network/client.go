package network

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/DrillCore/internal/engine"
	"github.com/MRamiBalles/DrillCore/internal/events"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 4096
	// Minimum spacing between two actions from one client.
	actionInterval = 50 * time.Millisecond
	// How long an action may wait for the loop.
	submitTimeout = 2 * time.Second
)

// ClientMessage is a client-to-server frame.
type ClientMessage struct {
	RequestID string        `json:"request_id"`
	Action    engine.Action `json:"action"`
}

// Client is one websocket connection.
type Client struct {
	hub            *Hub
	conn           *websocket.Conn
	send           chan []byte
	lastActionTime time.Time
}

// NewClient creates a new WebSocket client.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.cfg.SendBuffer),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump reads player actions until the connection drops.
func (c *Client) ReadPump() {
	defer func() {
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error: %v", err)
				c.hub.metrics.RecordWSError()
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.reply(Envelope{Kind: KindError, Error: "malformed message"})
			continue
		}
		c.handleAction(msg)
	}
}

func (c *Client) handleAction(msg ClientMessage) {
	if time.Since(c.lastActionTime) < actionInterval {
		c.reply(Envelope{Kind: KindError, RequestID: msg.RequestID, Error: "rate limited"})
		return
	}
	c.lastActionTime = time.Now()

	if c.hub.sink == nil {
		c.reply(Envelope{Kind: KindError, RequestID: msg.RequestID, Error: "read-only server"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	if err := c.hub.sink.Submit(ctx, msg.Action); err != nil {
		c.reply(Envelope{Kind: KindError, RequestID: msg.RequestID, Error: err.Error()})
		return
	}
	c.reply(Envelope{Kind: KindAck, RequestID: msg.RequestID})
}

// reply queues a message for this client only. The send channel may already be
// closed by the hub, so the write is guarded.
func (c *Client) reply(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	defer func() { recover() }()
	select {
	case c.send <- payload:
	default:
		c.hub.metrics.RecordWSError()
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Queued messages go out newline-delimited in the same frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the presentation layer may be served from another origin
	},
}

// ServeWS upgrades the request and starts the client pumps. The optional
// ?since=N query replays the log backlog after sequence N before live traffic.
func (h *Hub) ServeWS(log *events.EventLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.full() {
			http.Error(w, ErrHubFull.Error(), http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Error("failed to upgrade websocket connection: %v", err)
			h.metrics.RecordWSError()
			return
		}

		client := NewClient(h, conn)
		if since := r.URL.Query().Get("since"); since != "" && log != nil {
			if seq, err := strconv.ParseInt(since, 10, 64); err == nil {
				if backlog := log.Since(seq); len(backlog) > 0 {
					client.reply(Envelope{Kind: KindNotifications, Notifications: backlog})
				}
			}
		}
		client.Register()

		go client.WritePump()
		go client.ReadPump()
	}
}
