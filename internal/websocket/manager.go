// Package websocket pushes live update notifications to open admin pages.
// A single hub goroutine fans messages out to every connected client.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/conneroisu/sitepanel/internal/logging"
	"github.com/conneroisu/sitepanel/internal/validation"
	"golang.org/x/time/rate"
)

const (
	sendBuffer   = 64
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second

	// Browsers only send pings and the odd keep-alive; anything faster is
	// dropped.
	clientMessageRate  = 5
	clientMessageBurst = 10
)

// Hub handles WebSocket connections and broadcasts update messages.
//
// Invariants:
//   - clients is guarded by clientsMu
//   - a client's send channel is closed exactly once, together with its
//     removal from clients
type Hub struct {
	clients   map[*websocket.Conn]*client
	clientsMu sync.RWMutex

	broadcast  chan []byte
	unregister chan *websocket.Conn

	allowedOrigins []string
	logger         logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
	shutdownOnce sync.Once
	isShutdown   atomic.Bool
}

// NewHub creates a hub and starts its goroutine. Connections whose Origin
// header is not in allowedOrigins are refused.
func NewHub(allowedOrigins []string, logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:        make(map[*websocket.Conn]*client),
		broadcast:      make(chan []byte, 256),
		unregister:     make(chan *websocket.Conn, 32),
		allowedOrigins: allowedOrigins,
		logger:         logger.WithComponent("websocket"),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}

	go h.run()

	return h
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.isShutdown.Load() {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	if origin := r.Header.Get("Origin"); origin != "" {
		if err := validation.ValidateOrigin(origin, h.allowedOrigins); err != nil {
			h.logger.Warn(r.Context(), err, "WebSocket connection rejected", "remote_addr", r.RemoteAddr)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origin has been checked above against the configured list.
		InsecureSkipVerify: true,
		CompressionMode:    websocket.CompressionDisabled,
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote_addr", r.RemoteAddr)
		return
	}

	c := &client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(rate.Limit(clientMessageRate), clientMessageBurst),
		addr:    r.RemoteAddr,
	}

	h.clientsMu.Lock()
	if h.ctx.Err() != nil {
		h.clientsMu.Unlock()
		_ = conn.Close(websocket.StatusServiceRestart, "server shutting down")
		return
	}
	h.clients[conn] = c
	n := len(h.clients)
	h.clientsMu.Unlock()
	h.logger.Debug(r.Context(), "WebSocket client connected", "remote_addr", c.addr, "clients", n)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case conn := <-h.unregister:
			h.remove(conn)

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case <-h.ctx.Done():
			h.clientsMu.Lock()
			for conn, c := range h.clients {
				close(c.send)
				delete(h.clients, conn)
			}
			h.clientsMu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.clientsMu.Lock()
	c, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(c.send)
	}
	n := len(h.clients)
	h.clientsMu.Unlock()

	if ok {
		h.logger.Debug(h.ctx, "WebSocket client disconnected", "remote_addr", c.addr, "clients", n)
	}
}

func (h *Hub) fanOut(msg []byte) {
	h.clientsMu.RLock()
	var slow []*websocket.Conn
	for conn, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, conn)
		}
	}
	h.clientsMu.RUnlock()

	for _, conn := range slow {
		h.logger.Debug(h.ctx, "Dropping slow WebSocket client")
		h.remove(conn)
	}
}

func (h *Hub) readPump(c *client) {
	defer h.leave(c.conn)

	for {
		// Pongs are only processed while a read is pending.
		_, _, err := c.conn.Read(h.ctx)
		if err != nil {
			return
		}
		if !c.limiter.Allow() {
			_ = c.conn.Close(websocket.StatusPolicyViolation, "too many messages")
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.Close(websocket.StatusGoingAway, "")
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				h.leave(c.conn)
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				h.leave(c.conn)
				return
			}

		case <-h.ctx.Done():
			_ = c.conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}
	}
}

// leave asks the hub to forget conn unless the hub has already stopped.
func (h *Hub) leave(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.ctx.Done():
	}
}

// Broadcast sends msg to every connected client. It never blocks; messages
// are dropped when the hub is saturated or shut down.
func (h *Hub) Broadcast(msg UpdateMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(h.ctx, err, "Failed to marshal update message")
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	default:
		h.logger.Warn(h.ctx, nil, "Broadcast channel full, dropping message", "type", msg.Type)
	}
}

// Notify broadcasts a change of the given kind for site.
func (h *Hub) Notify(kind, site string) {
	h.Broadcast(UpdateMessage{Type: kind, Target: site})
}

// Reload tells every open page to reload itself.
func (h *Hub) Reload() {
	h.Broadcast(UpdateMessage{Type: MessageReload})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every connection and stops the hub. It is safe to call
// more than once.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownOnce.Do(func() {
		h.isShutdown.Store(true)
		h.cancel()
	})

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsShutdown reports whether Shutdown has been called.
func (h *Hub) IsShutdown() bool {
	return h.isShutdown.Load()
}
