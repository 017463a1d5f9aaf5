// Package ws pushes live drive events to connected browsers over
// gorilla/websocket. Connections are grouped by user so a change made in
// one tab shows up in the owner's other tabs, and only theirs.
//
//	hub := ws.NewHub()
//	go hub.Run(ctx)
//
//	// In the route handler, after auth:
//	ws.Upgrade(c.W, c.R, hub, userID)
//
//	// From anywhere:
//	hub.Publish(userID, payload)
package ws

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"drivebox/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins by default — restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SetCheckOrigin replaces the default (allow-all) origin checker.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}

// ─── Client ───────────────────────────────────────────────────────────────────

// Client is a single connected browser tab.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

// readPump discards inbound frames; the feed is push-only. It exists to
// run the pong handler and notice closed connections.
func (c *Client) readPump() {
	defer func() {
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
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("ws: unexpected close", "user_id", c.userID, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// ─── Hub ──────────────────────────────────────────────────────────────────────

type envelope struct {
	userID uint
	data   []byte
}

// Hub owns all active connections, grouped by user ID.
type Hub struct {
	clients    map[uint]map[*Client]struct{}
	publish    chan envelope
	register   chan *Client
	unregister chan *Client
	connected  atomic.Int64
}

// NewHub creates a Hub. Call hub.Run in a goroutine at startup.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		publish:    make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Publish queues data for every connection belonging to userID. Messages
// to users with no open connections are dropped.
func (h *Hub) Publish(userID uint, data []byte) {
	select {
	case h.publish <- envelope{userID: userID, data: data}:
	default:
		logger.Warn("ws: publish buffer full, dropping event", "user_id", userID)
	}
}

// ClientCount reports currently connected clients across all users.
func (h *Hub) ClientCount() int { return int(h.connected.Load()) }

// Run is the hub event loop. It owns the client map; all mutation happens
// here. Returns when ctx is cancelled, closing every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for c := range conns {
					close(c.send)
				}
			}
			h.clients = make(map[uint]map[*Client]struct{})
			h.connected.Store(0)
			logger.Info("ws: hub stopped")
			return

		case c := <-h.register:
			if h.clients[c.userID] == nil {
				h.clients[c.userID] = make(map[*Client]struct{})
			}
			h.clients[c.userID][c] = struct{}{}
			h.connected.Add(1)
			logger.Info("ws: client connected", "user_id", c.userID, "total", h.connected.Load())

		case c := <-h.unregister:
			if conns, ok := h.clients[c.userID]; ok {
				if _, ok := conns[c]; ok {
					delete(conns, c)
					if len(conns) == 0 {
						delete(h.clients, c.userID)
					}
					close(c.send)
					h.connected.Add(-1)
					logger.Info("ws: client disconnected", "user_id", c.userID, "total", h.connected.Load())
				}
			}

		case env := <-h.publish:
			for c := range h.clients[env.userID] {
				select {
				case c.send <- env.data:
				default:
					// Slow consumer; drop the connection.
					delete(h.clients[env.userID], c)
					close(c.send)
					h.connected.Add(-1)
				}
			}
		}
	}
}

// ─── Upgrade ─────────────────────────────────────────────────────────────────

// Upgrade promotes an authenticated HTTP request to a WebSocket and
// registers the connection under userID.
func Upgrade(w http.ResponseWriter, r *http.Request, hub *Hub, userID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("ws: upgrade failed", "error", err)
		return
	}
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), userID: userID}
	hub.register <- client
	go client.writePump()
	go client.readPump()
}
