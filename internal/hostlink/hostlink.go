// Package hostlink bridges the room to its host page over a WebSocket.
//
// The host connects to /ws and receives JSON messages:
//
//	{"type":"progress","value":42}
//	{"type":"navigate","url":"https://..."}
//	{"type":"error","error":"..."}
//
// A client that joins late is sent the latest progress value and error first.
package hostlink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/virtual-room/internal/logger"
)

// ErrNoClients is returned by Navigate when no host page is connected.
var ErrNoClients = errors.New("no host connected")

const (
	writeWait = 5 * time.Second

	// sendBuffer is how many messages a client may fall behind before it is dropped.
	sendBuffer = 16
)

// Message types.
const (
	TypeProgress = "progress"
	TypeNavigate = "navigate"
	TypeError    = "error"
)

// Message is the wire format sent to the host.
type Message struct {
	Type  string `json:"type"`
	Value *int   `json:"value,omitempty"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// client is one host connection. Only its writer goroutine writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected host pages and broadcasts to them. Broadcasts only
// queue messages; each client has its own writer goroutine.
type Hub struct {
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[*client]struct{}
	progress *int
	lastErr  string

	server   *http.Server
	listener net.Listener

	log *zap.Logger
}

// NewHub creates a hub with no clients.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// The host page is served from another origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
		log:     logger.Named("hostlink"),
	}
}

// Handler returns a mux serving the hub at /ws.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	return mux
}

// ServeHTTP upgrades the request and keeps the connection until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	for _, msg := range h.snapshot() {
		c.send <- msg
	}
	n := len(h.clients)
	h.mu.Unlock()

	go h.writePump(c)
	h.log.Info("host connected", zap.String("remote", r.RemoteAddr), zap.Int("clients", n))

	defer func() {
		h.remove(c)
		conn.Close()
		h.log.Info("host disconnected", zap.String("remote", r.RemoteAddr))
	}()

	// Drain reads so control frames are processed and closes are noticed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump delivers queued messages until the send channel is closed.
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn("write failed, dropping client", zap.Error(err))
			h.remove(c)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
}

// remove forgets c and closes its queue. Safe to call more than once.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

// dropLocked must be called with mu held.
func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// snapshot must be called with mu held.
func (h *Hub) snapshot() [][]byte {
	var out [][]byte
	if h.progress != nil {
		if data, err := json.Marshal(Message{Type: TypeProgress, Value: h.progress}); err == nil {
			out = append(out, data)
		}
	}
	if h.lastErr != "" {
		if data, err := json.Marshal(Message{Type: TypeError, Error: h.lastErr}); err == nil {
			out = append(out, data)
		}
	}
	return out
}

// broadcast queues msg for every client and returns how many accepted it.
// A client whose queue is full is dropped.
func (h *Hub) broadcast(msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal message", zap.Error(err))
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for c := range h.clients {
		select {
		case c.send <- data:
			sent++
		default:
			h.log.Warn("host not keeping up, dropping client", zap.String("remote", c.conn.RemoteAddr().String()))
			h.dropLocked(c)
			c.conn.Close()
		}
	}
	return sent
}

// Progress records and broadcasts an aggregate progress value.
func (h *Hub) Progress(percent int) {
	h.mu.Lock()
	v := percent
	h.progress = &v
	h.mu.Unlock()

	h.broadcast(Message{Type: TypeProgress, Value: &v})
}

// Failure records and broadcasts a load failure.
func (h *Hub) Failure(err error) {
	if err == nil {
		return
	}
	h.mu.Lock()
	h.lastErr = err.Error()
	h.mu.Unlock()

	h.broadcast(Message{Type: TypeError, Error: err.Error()})
}

// Navigate asks every connected host to replace its location.
func (h *Hub) Navigate(url string) error {
	if h.broadcast(Message{Type: TypeNavigate, URL: url}) == 0 {
		return fmt.Errorf("navigate %q: %w", url, ErrNoClients)
	}
	return nil
}

// Clients returns the number of connected hosts.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Start listens on addr and serves in the background.
func (h *Hub) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	h.listener = ln
	h.server = &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.log.Error("host bridge stopped", zap.Error(err))
		}
	}()

	h.log.Info("host bridge listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the listening address, or "" before Start.
func (h *Hub) Addr() string {
	if h.listener == nil {
		return ""
	}
	return h.listener.Addr().String()
}

// Close stops the server and disconnects every client.
func (h *Hub) Close(ctx context.Context) error {
	var err error
	if h.server != nil {
		err = h.server.Shutdown(ctx)
	}

	h.mu.Lock()
	for c := range h.clients {
		h.dropLocked(c)
	}
	h.mu.Unlock()
	return err
}
