package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/editor"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// Message types pushed to clients.
const (
	TypeSnapshot = "snapshot"
	TypeNode     = "node"
	TypeGraph    = "graph"
	TypeNotice   = "notice"
	TypeAck      = "ack"
	TypeError    = "error"
)

// Message is a frame sent to clients.
type Message struct {
	Type     string             `json:"type"`
	Node     *domain.NodeEvent  `json:"node,omitempty"`
	Graph    *domain.GraphEvent `json:"graph,omitempty"`
	Snapshot *Snapshot          `json:"snapshot,omitempty"`
	Notice   *editor.Notice     `json:"notice,omitempty"`
	Status   *editor.StatusBar  `json:"status,omitempty"`
	Op       string             `json:"op,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Snapshot is the full graph sent on connect and after every graph change.
type Snapshot struct {
	Nodes       []domain.Node       `json:"nodes"`
	Connections []domain.Connection `json:"connections"`
}

// Hub fans lifecycle events out to websocket clients and applies the
// commands they send to an attached editor.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	editor  *editor.Editor
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// Option configures the Hub.
type Option func(*Hub)

// WithLogger configures a logger for the Hub.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithCheckOrigin overrides the origin policy of the upgrader.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

// NewHub creates a hub with no editor attached.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logging.NewNop(),
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach sets the editor commands are applied to. The editor's manager
// should have been built with Hooks so clients see the resulting events.
func (h *Hub) Attach(ed *editor.Editor) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.editor = ed
}

// Hooks returns lifecycle hooks broadcasting every event.
func (h *Hub) Hooks() domain.LifecycleHooks {
	node := func(_ context.Context, e *domain.NodeEvent) {
		h.Broadcast(Message{Type: TypeNode, Node: e})
	}
	return domain.LifecycleHooks{
		OnNodeCreated:   node,
		OnNodeConverted: node,
		OnNodeUpdated:   node,
		OnNodeDeleted:   node,
		OnGraphChanged: func(_ context.Context, e *domain.GraphEvent) {
			h.Broadcast(Message{Type: TypeGraph, Graph: e, Snapshot: h.snapshot()})
		},
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues msg for every client. Slow clients drop frames instead of
// blocking the caller.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode frame", "type", msg.Type, "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("ws client buffer full, dropping frame", "type", msg.Type)
		}
	}
}

// ServeHTTP upgrades the connection and serves the client until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("ws client connected", "remote", r.RemoteAddr)

	go h.writer(c)
	h.sendTo(c, Message{Type: TypeSnapshot, Snapshot: h.snapshot(), Status: h.status()})
	h.reader(r.Context(), c)
}

func (h *Hub) reader(ctx context.Context, c *client) {
	defer h.drop(c)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx = context.WithoutCancel(ctx)
	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("ws unexpected close", "err", err)
			}
			return
		}
		h.sendTo(c, h.apply(ctx, cmd))
	}
}

func (h *Hub) writer(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

func (h *Hub) sendTo(c *client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.once.Do(func() { close(c.send) })
	}
	h.mu.Unlock()
	h.logger.Debug("ws client disconnected")
}

func (h *Hub) attached() *editor.Editor {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.editor
}

func (h *Hub) snapshot() *Snapshot {
	ed := h.attached()
	if ed == nil {
		return nil
	}
	nodes, conns := ed.Manager().Graph().Snapshot()
	return &Snapshot{Nodes: nodes, Connections: conns}
}

func (h *Hub) status() *editor.StatusBar {
	ed := h.attached()
	if ed == nil {
		return nil
	}
	s := ed.Status()
	return &s
}
