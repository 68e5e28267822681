package ws

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/protocol"
)

// Client is one websocket connection
type Client struct {
	hub         *Hub
	id          model.ConnectionID
	conn        *websocket.Conn
	send        chan []byte
	limiter     *rate.Limiter
	connectedAt time.Time

	closeConn func()
	sendOnce  sync.Once
	overflow  atomic.Bool
}

func newClient(h *Hub, id model.ConnectionID, conn *websocket.Conn) *Client {
	c := &Client{
		hub:         h,
		id:          id,
		conn:        conn,
		send:        make(chan []byte, h.cfg.SendBufferSize),
		limiter:     h.newLimiter(),
		connectedAt: time.Now(),
	}
	c.closeConn = func() { _ = conn.Close() }
	return c
}

// enqueue never blocks. A client that cannot keep up is closed rather than
// skipped, so it never sees a stream with gaps.
func (c *Client) enqueue(msg []byte) {
	if c.overflow.Load() {
		return
	}
	select {
	case c.send <- msg:
	default:
		if c.overflow.CompareAndSwap(false, true) {
			c.hub.logger.Warn("websocket send buffer full, closing connection",
				slog.String("conn_id", string(c.id)))
			c.closeConn()
		}
	}
}

func (c *Client) closeSend() {
	c.sendOnce.Do(func() { close(c.send) })
}

func (c *Client) readPump(handler Handler) {
	ctx := context.Background()
	cfg := c.hub.cfg
	logger := c.hub.logger.With(slog.String("conn_id", string(c.id)))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in websocket read loop", slog.Any("panic", r))
		}
		c.closeConn()
		if c.hub.unregister(c) && handler != nil {
			handler.Disconnect(ctx, c.id)
		}
		logger.Info("websocket disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)))
	}()

	if cfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(cfg.MaxMessageSize)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error", slog.Any("error", err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if !c.limiter.Allow() {
			logger.Warn("inbound message rate exceeded, dropping message")
			continue
		}

		ev, err := protocol.Decode(message)
		if err != nil {
			logger.Warn("dropping malformed message", slog.Any("error", err))
			continue
		}
		if handler != nil {
			handler.Handle(ctx, c.id, ev)
		}
	}
}

func (c *Client) writePump() {
	cfg := c.hub.cfg
	ticker := time.NewTicker(cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
