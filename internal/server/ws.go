package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pingInterval = 10 * time.Second
	writeWait    = 5 * time.Second

	// clientBuffer is the per-client send queue. Clients that fall this
	// far behind are disconnected.
	clientBuffer = 16
)

// Event is one change notification pushed to WebSocket clients.
type Event struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId"`
	NodeID    string `json:"nodeId,omitempty"`
}

type client struct {
	conn      *websocket.Conn
	sessionID string
	send      chan Event
}

// Hub fans change events out to connected WebSocket clients. Clients
// subscribe to a single session via the sessionId query parameter.
type Hub struct {
	logger *slog.Logger

	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	events     chan Event
	clients    map[*client]struct{}
}

// NewHub creates a hub. Run must be called before clients connect.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local dev
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		events:     make(chan Event, 64),
		clients:    make(map[*client]struct{}),
	}
}

// NodeUpdated implements service.Broadcaster.
func (h *Hub) NodeUpdated(sessionID, nodeID string) {
	h.publish(Event{Event: "node-updated", SessionID: sessionID, NodeID: nodeID})
}

// VelocityInvalidated implements service.Broadcaster.
func (h *Hub) VelocityInvalidated(sessionID string) {
	h.publish(Event{Event: "velocity-invalidated", SessionID: sessionID})
}

func (h *Hub) publish(ev Event) {
	select {
	case h.events <- ev:
	default:
		h.logger.Warn("event queue full, dropping event", "event", ev.Event, "session_id", ev.SessionID)
	}
}

// Run dispatches events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Debug("ws client connected", "session_id", c.sessionID, "clients", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case ev := <-h.events:
			for c := range h.clients {
				if c.sessionID != ev.SessionID {
					continue
				}
				select {
				case c.send <- ev:
				default:
					// Slow client, drop it.
					delete(h.clients, c)
					close(c.send)
					h.logger.Warn("ws client too slow, dropping", "session_id", c.sessionID)
				}
			}
		}
	}
}

// ServeWS upgrades the connection and streams events for one session.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId query parameter required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, sessionID: sessionID, send: make(chan Event, clientBuffer)}
	h.register <- c

	go c.writePump()
	c.readPump(h)
}

// readPump discards inbound frames and unregisters on disconnect.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
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
