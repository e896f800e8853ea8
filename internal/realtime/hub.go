// Package realtime keeps the live websocket connections and pushes
// notifications and relay events to them.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"campusconnect/internal/domain"
)

const (
	EventJoin         = "join"
	EventNotification = "notification"
	EventNewPost      = "newPost"
	EventNewComment   = "newComment"
	EventError        = "error"
)

// Frame is the only wire shape in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

var (
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "campus_ws_connections",
		Help: "Open websocket connections",
	})
	wsOnlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "campus_ws_online_users",
		Help: "Users that joined on an open connection",
	})
)

func init() { prometheus.MustRegister(wsConnections, wsOnlineUsers) }

// Hub is the registry of live connections. A user id maps to at most one
// connection; the latest join wins.
type Hub struct {
	mu    sync.RWMutex
	conns map[*Conn]struct{}
	users map[string]*Conn
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		conns: make(map[*Conn]struct{}),
		users: make(map[string]*Conn),
		log:   log.Named("hub"),
	}
}

func (h *Hub) add(c *Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	wsConnections.Inc()
}

// remove drops c and every user entry still pointing at it. An entry that a
// newer connection has taken over is left alone.
func (h *Hub) remove(c *Conn) {
	h.mu.Lock()
	_, ok := h.conns[c]
	delete(h.conns, c)
	for uid, cur := range h.users {
		if cur == c {
			delete(h.users, uid)
		}
	}
	wsOnlineUsers.Set(float64(len(h.users)))
	h.mu.Unlock()
	if ok {
		wsConnections.Dec()
	}
}

func (h *Hub) Join(uid string, c *Conn) {
	h.mu.Lock()
	h.users[uid] = c
	wsOnlineUsers.Set(float64(len(h.users)))
	h.mu.Unlock()
	h.log.Debug("join", zap.String("uid", uid))
}

func (h *Hub) Lookup(uid string) (*Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.users[uid]
	return c, ok
}

// Online 当前已 join 的用户数，/health 和 campus_ws_online_users 都读它
func (h *Hub) Online() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users)
}

// Deliver hands an encoded frame to uid's connection.
func (h *Hub) Deliver(uid string, msg []byte) bool {
	c, ok := h.Lookup(uid)
	if !ok {
		return false
	}
	return c.TrySend(msg)
}

// Push sends n as a notification frame to the recipient's connection in this
// process.
func (h *Hub) Push(_ context.Context, recipientID string, n *domain.Notification) (bool, error) {
	msg, err := encode(EventNotification, n)
	if err != nil {
		return false, err
	}
	return h.Deliver(recipientID, msg), nil
}

// Relay forwards f to every connection except from. Returns how many accepted it.
func (h *Hub) Relay(from *Conn, f Frame) int {
	msg, err := json.Marshal(f)
	if err != nil {
		return 0
	}
	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		if c != from {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	n := 0
	for _, c := range targets {
		if c.TrySend(msg) {
			n++
		}
	}
	return n
}

// Shutdown closes every connection with 1001 going away.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.RLock()
	all := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.closeWith(websocket.CloseGoingAway, "server shutdown")
		h.remove(c)
	}
	return nil
}
