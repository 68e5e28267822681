// Package ws is the websocket transport. Each websocket is one connection;
// inbound frames are decoded and handed to a Handler, and outbound events
// are queued per connection.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mcoot/wordduel/internal/dependencies/random"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/protocol"
)

// Handler receives connection lifecycle notifications and inbound events
type Handler interface {
	Connect(ctx context.Context, conn model.ConnectionID)
	Handle(ctx context.Context, conn model.ConnectionID, ev protocol.Event)
	Disconnect(ctx context.Context, conn model.ConnectionID)
}

// Config controls framing, keepalive and flood limits
type Config struct {
	SendBufferSize int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	MessageRate    float64 // inbound messages per second; <= 0 disables
	MessageBurst   int
}

// DefaultConfig returns the default transport settings
func DefaultConfig() Config {
	return Config{
		SendBufferSize: 256,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 4096,
		MessageRate:    20,
		MessageBurst:   40,
	}
}

// Hub tracks open connections and their room subscriptions
type Hub struct {
	cfg      Config
	random   random.Random
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	handler Handler
	clients map[model.ConnectionID]*Client
	rooms   map[model.RoomID]map[model.ConnectionID]*Client
}

// NewHub creates a Hub. SetHandler must be called before serving.
func NewHub(cfg Config, random random.Random, logger *slog.Logger) *Hub {
	defaults := DefaultConfig()
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaults.SendBufferSize
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = defaults.WriteWait
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = defaults.PongWait
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}
	return &Hub{
		cfg:    cfg,
		random: random,
		logger: logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[model.ConnectionID]*Client),
		rooms:   make(map[model.RoomID]map[model.ConnectionID]*Client),
	}
}

// SetHandler sets the receiver of inbound events
func (h *Hub) SetHandler(handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

// ServeHTTP upgrades the request and starts the connection's pumps
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	id := model.ConnectionID(h.random.UUID())
	client := newClient(h, id, conn)

	h.mu.Lock()
	h.clients[id] = client
	handler := h.handler
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("websocket connected",
		slog.String("conn_id", string(id)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.Int("total_clients", total),
	)

	go client.writePump()
	if handler != nil {
		handler.Connect(context.Background(), id)
	}
	go client.readPump(handler)
}

// Send queues an event for one connection
func (h *Hub) Send(conn model.ConnectionID, event model.EventType, payload any) {
	msg, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, found := h.clients[conn]; found {
		c.enqueue(msg)
	}
}

// BroadcastRoom queues an event for every subscriber of the room
func (h *Hub) BroadcastRoom(roomID model.RoomID, event model.EventType, payload any) {
	msg, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[roomID] {
		c.enqueue(msg)
	}
}

// BroadcastAll queues an event for every open connection
func (h *Hub) BroadcastAll(event model.EventType, payload any) {
	msg, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.enqueue(msg)
	}
}

// Subscribe adds the connection to the room's broadcasts
func (h *Hub) Subscribe(conn model.ConnectionID, roomID model.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[conn]
	if !ok {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[model.ConnectionID]*Client)
	}
	h.rooms[roomID][conn] = c
}

// Unsubscribe removes the connection from the room's broadcasts
func (h *Hub) Unsubscribe(conn model.ConnectionID, roomID model.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeLocked(conn, roomID)
}

// UnsubscribeAll removes the connection from every room
func (h *Hub) UnsubscribeAll(conn model.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID := range h.rooms {
		h.unsubscribeLocked(conn, roomID)
	}
}

// CloseRoom drops every subscription to the room
func (h *Hub) CloseRoom(roomID model.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, roomID)
}

// ClientCount returns the number of open connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscriberCount returns the number of connections subscribed to the room
func (h *Hub) SubscriberCount(roomID model.RoomID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Close closes every connection. Their read pumps report the disconnects.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.closeConn()
	}
	h.logger.Info("websocket hub closed", slog.Int("disconnected_clients", len(clients)))
}

func (h *Hub) unsubscribeLocked(conn model.ConnectionID, roomID model.RoomID) {
	subs, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(subs, conn)
	if len(subs) == 0 {
		delete(h.rooms, roomID)
	}
}

// unregister forgets the client and closes its send queue. Returns false if
// it was already gone.
func (h *Hub) unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[c.id]; !ok || current != c {
		return false
	}
	delete(h.clients, c.id)
	for roomID := range h.rooms {
		h.unsubscribeLocked(c.id, roomID)
	}
	c.closeSend()
	return true
}

func (h *Hub) encode(event model.EventType, payload any) ([]byte, bool) {
	msg, err := protocol.Encode(event, payload)
	if err != nil {
		h.logger.Error("failed to encode event",
			slog.String("event", string(event)),
			slog.Any("error", err),
		)
		return nil, false
	}
	return msg, true
}

func (h *Hub) newLimiter() *rate.Limiter {
	if h.cfg.MessageRate <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := h.cfg.MessageBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(h.cfg.MessageRate), burst)
}
