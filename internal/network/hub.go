// Package network streams simulation output to presentation clients over
// websockets and accepts their player actions.
package network

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/engine"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
	"github.com/MRamiBalles/DrillCore/internal/platform/metrics"
)

// ErrHubFull is returned when MaxClients are already connected.
var ErrHubFull = errors.New("network: client limit reached")

// Envelope kinds sent to clients.
const (
	KindNotifications = "notifications"
	KindState         = "state"
	KindAck           = "ack"
	KindError         = "error"
)

// Envelope is every server-to-client message.
type Envelope struct {
	Kind          string                `json:"kind"`
	RequestID     string                `json:"request_id,omitempty"`
	Error         string                `json:"error,omitempty"`
	Notifications []events.Notification `json:"notifications,omitempty"`
	State         *drill.GameState      `json:"state,omitempty"`
}

// ActionSink receives player actions; engine.Ticker implements it.
type ActionSink interface {
	Submit(ctx context.Context, a engine.Action) error
}

// HubConfig bounds the hub's buffers.
type HubConfig struct {
	MaxClients int
	SendBuffer int
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	cfg        HubConfig
	sink       ActionSink
	logger     *logger.Logger
	metrics    *metrics.Collector
}

// NewHub initializes a new WebSocket Hub.
func NewHub(cfg HubConfig, sink ActionSink, log *logger.Logger, m *metrics.Collector) *Hub {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 64
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	if m == nil {
		m = metrics.Get()
	}
	return &Hub{
		broadcast:  make(chan []byte, cfg.SendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		cfg:        cfg,
		sink:       sink,
		logger:     log,
		metrics:    m,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("websocket hub shutting down")
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
				h.metrics.RecordWSConnection(-1)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Info("websocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordWSConnection(-1)
				h.logger.Info("websocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordWSMessage(false)
				default:
					// Slow consumer: drop it rather than stall everyone.
					close(client.send)
					delete(h.clients, client)
					h.metrics.RecordWSConnection(-1)
					h.metrics.RecordWSError()
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount reports connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) full() bool {
	return h.ClientCount() >= h.cfg.MaxClients
}

// BroadcastNotifications sends a stamped batch to all clients. It never blocks;
// when the hub is backed up the batch is dropped and counted.
func (h *Hub) BroadcastNotifications(batch []events.Notification) {
	if len(batch) == 0 {
		return
	}
	h.enqueue(Envelope{Kind: KindNotifications, Notifications: batch})
}

// BroadcastState sends a full state snapshot to all clients.
func (h *Hub) BroadcastState(s *drill.GameState) {
	h.enqueue(Envelope{Kind: KindState, State: s})
}

func (h *Hub) enqueue(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("failed to serialize %s envelope: %v", env.Kind, err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.metrics.RecordWSError()
		h.logger.Warn("broadcast queue full, dropped %s envelope", env.Kind)
	}
}

// StartStatePusher broadcasts a state snapshot every interval while clients
// are connected.
func (h *Hub) StartStatePusher(ctx context.Context, source func() *drill.GameState, interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if h.ClientCount() == 0 {
					continue
				}
				h.BroadcastState(source())
			}
		}
	}()
}
