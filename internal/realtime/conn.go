package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Options struct {
	WriteWait   time.Duration
	PongWait    time.Duration
	PingPeriod  time.Duration
	ReadLimit   int64
	SendBuffer  int
	RequireAuth bool
}

func DefaultOptions() Options {
	return Options{
		WriteWait:   10 * time.Second,
		PongWait:    60 * time.Second,
		PingPeriod:  54 * time.Second,
		ReadLimit:   64 << 10,
		SendBuffer:  256,
		RequireAuth: true,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.WriteWait <= 0 {
		o.WriteWait = d.WriteWait
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = d.PingPeriod
	}
	// pong 必须比 ping 间隔长，否则正常连接也会超时
	if o.PongWait <= o.PingPeriod {
		o.PongWait = o.PingPeriod * 10 / 9
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = d.ReadLimit
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = d.SendBuffer
	}
	return o
}

// Conn is one websocket client. authUID is the user id proven by the token
// on upgrade, empty when none was given.
type Conn struct {
	ws      *websocket.Conn
	hub     *Hub
	authUID string
	opts    Options
	log     *zap.Logger

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newConn(hub *Hub, ws *websocket.Conn, authUID string, opts Options) *Conn {
	return &Conn{
		ws:      ws,
		hub:     hub,
		authUID: authUID,
		opts:    opts,
		log:     hub.log,
		send:    make(chan []byte, opts.SendBuffer),
		done:    make(chan struct{}),
	}
}

// TrySend queues msg without blocking; a full buffer or a closed connection drops it.
func (c *Conn) TrySend(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.log.Warn("send buffer full, dropping frame", zap.String("uid", c.authUID))
		return false
	}
}

func (c *Conn) sendEvent(event string, data any) {
	msg, err := encode(event, data)
	if err != nil {
		c.log.Error("encode frame", zap.String("event", event), zap.Error(err))
		return
	}
	c.TrySend(msg)
}

func (c *Conn) closeWith(code int, reason string) {
	c.once.Do(func() {
		close(c.done)
		if c.ws == nil {
			return
		}
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), time.Now().Add(c.opts.WriteWait))
		_ = c.ws.Close()
	})
}

func (c *Conn) run() {
	c.hub.add(c)
	go c.writePump()
	c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.hub.remove(c)
		c.closeWith(websocket.CloseNormalClosure, "")
	}()

	c.ws.SetReadLimit(c.opts.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.log.Debug("read", zap.Error(err))
			}
			return
		}
		var f Frame
		if err := json.Unmarshal(msg, &f); err != nil || f.Event == "" {
			c.sendEvent(EventError, "malformed frame")
			continue
		}
		c.handle(f)
	}
}

var errJoinRejected = errors.New("join rejected")

func (c *Conn) handle(f Frame) {
	switch f.Event {
	case EventJoin:
		if err := c.join(f.Data); err != nil {
			c.sendEvent(EventError, err.Error())
		}
	case EventNewPost, EventNewComment:
		c.hub.Relay(c, f)
	default:
		c.sendEvent(EventError, "unknown event "+f.Event)
	}
}

func (c *Conn) join(data json.RawMessage) error {
	var uid string
	if err := json.Unmarshal(data, &uid); err != nil || uid == "" {
		return errJoinRejected
	}
	if c.opts.RequireAuth && uid != c.authUID {
		return errJoinRejected
	}
	c.hub.Join(uid, c)
	return nil
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.closeWith(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.closeWith(websocket.CloseAbnormalClosure, "")
				return
			}
		}
	}
}
