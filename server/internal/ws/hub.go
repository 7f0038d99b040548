package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/interday/reliastat/pkg/types"
	"github.com/interday/reliastat/server/internal/store"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong before treating the connection
	// as dead.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16

	// eventBufSize is the depth of the queue between Publish and Run.
	eventBufSize = 64

	// DefaultSnapshotSize is how many recent analyses a new client receives.
	DefaultSnapshotSize = 50
)

// Event names.
const (
	EventSnapshot = "snapshot"
	EventAnalysis = "analysis"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// CORS is left to the reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients. A snapshot carries Analyses,
// an analysis event carries Analysis.
type Message struct {
	Event    string           `json:"event"`
	Analyses []types.Analysis `json:"analyses,omitempty"`
	Analysis *types.Analysis  `json:"analysis,omitempty"`
}

// Hub manages WebSocket client connections. New clients receive a snapshot of
// recent analyses; analyses passed to Publish are then pushed to every client.
type Hub struct {
	store        *store.Store
	snapshotSize int
	events       chan types.Analysis

	mu      sync.Mutex
	clients map[*client]struct{}
}

// client represents one connected WebSocket client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub whose snapshots hold up to snapshotSize analyses from st.
// snapshotSize <= 0 uses DefaultSnapshotSize.
func New(st *store.Store, snapshotSize int) *Hub {
	if snapshotSize <= 0 {
		snapshotSize = DefaultSnapshotSize
	}
	return &Hub{
		store:        st,
		snapshotSize: snapshotSize,
		events:       make(chan types.Analysis, eventBufSize),
		clients:      make(map[*client]struct{}),
	}
}

// Publish queues a for broadcast. It never blocks; when the queue is full the
// event is dropped and clients pick the analysis up from their next snapshot.
func (h *Hub) Publish(a types.Analysis) {
	select {
	case h.events <- a:
	default:
		slog.Warn("ws: event queue full, dropping analysis", "id", a.ID)
	}
}

// Run broadcasts published analyses until ctx is cancelled, then closes all
// active connections.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case a := <-h.events:
			data, err := json.Marshal(Message{Event: EventAnalysis, Analysis: &a})
			if err != nil {
				slog.Error("ws: encode analysis", "id", a.ID, "err", err)
				continue
			}
			h.broadcast(data)
		}
	}
}

// ServeHTTP upgrades the connection to WebSocket and serves the client until
// it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	if err := h.register(c); err != nil {
		slog.Error("ws: encode snapshot", "err", err)
		conn.Close()
		return
	}
	defer h.unregister(c)

	go c.writePump()
	c.readPump() // blocks until connection closes
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

// register queues the snapshot and adds c under one lock, so no broadcast
// lands between the two.
func (h *Hub) register(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := json.Marshal(Message{
		Event:    EventSnapshot,
		Analyses: h.store.List(h.snapshotSize),
	})
	if err != nil {
		return err
	}
	c.send <- data // empty buffer, never blocks
	h.clients[c] = struct{}{}
	return nil
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

// drop removes c. h.mu must be held.
func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slog.Warn("ws: client too slow, disconnecting", "remote", c.conn.RemoteAddr().String())
			h.drop(c)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.drop(c)
	}
}

// writePump forwards queued messages to the connection and sends periodic
// pings. Runs in its own goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Removed by the hub.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles control frames and detects disconnects. Clients send
// nothing else. Blocks until the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
