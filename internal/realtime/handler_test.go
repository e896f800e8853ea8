package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campusconnect/internal/domain"
)

var tokens = map[string]string{"tok-u1": "u1", "tok-u2": "u2"}

func verifyStub(token string) (string, error) {
	if uid, ok := tokens[token]; ok {
		return uid, nil
	}
	return "", errors.New("bad token")
}

func newServer(t *testing.T, requireAuth bool) (*Hub, string) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	opts := DefaultOptions()
	opts.RequireAuth = requireAuth
	srv := httptest.NewServer(NewHandler(hub, verifyStub, opts, nil))
	t.Cleanup(func() {
		_ = hub.Shutdown(context.Background())
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(Frame{Event: event, Data: raw}))
}

func receive(t *testing.T, ws *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(waitFor)))
	var f Frame
	require.NoError(t, ws.ReadJSON(&f))
	return f
}

func TestWebsocketJoinAndNotification(t *testing.T) {
	hub, url := newServer(t, true)
	ws := dial(t, url+"?token=tok-u1")

	send(t, ws, EventJoin, "u1")
	assert.Eventually(t, func() bool { _, ok := hub.Lookup("u1"); return ok }, waitFor, tick)

	delivered, err := hub.Push(context.Background(), "u1", &domain.Notification{ID: "n1", Type: domain.NotifyComment})
	require.NoError(t, err)
	require.True(t, delivered)

	f := receive(t, ws)
	assert.Equal(t, EventNotification, f.Event)
	assert.Contains(t, string(f.Data), `"id":"n1"`)
}

func TestWebsocketJoinWithOtherUserRejected(t *testing.T) {
	hub, url := newServer(t, true)
	ws := dial(t, url+"?token=tok-u1")

	send(t, ws, EventJoin, "u2")
	f := receive(t, ws)
	assert.Equal(t, EventError, f.Event)
	_, ok := hub.Lookup("u2")
	assert.False(t, ok)
}

func TestWebsocketJoinWithoutTokenRejected(t *testing.T) {
	_, url := newServer(t, true)
	ws := dial(t, url)

	send(t, ws, EventJoin, "u1")
	assert.Equal(t, EventError, receive(t, ws).Event)
}

func TestWebsocketOpenJoinWhenAuthDisabled(t *testing.T) {
	hub, url := newServer(t, false)
	ws := dial(t, url)

	send(t, ws, EventJoin, "u7")
	assert.Eventually(t, func() bool { _, ok := hub.Lookup("u7"); return ok }, waitFor, tick)
}

func TestWebsocketRelaysToOthers(t *testing.T) {
	hub, url := newServer(t, true)
	author := dial(t, url)
	reader := dial(t, url)
	assert.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.conns) == 2
	}, waitFor, tick)

	send(t, author, EventNewComment, map[string]string{"postId": "p1"})
	f := receive(t, reader)
	assert.Equal(t, EventNewComment, f.Event)
	assert.JSONEq(t, `{"postId":"p1"}`, string(f.Data))
}

func TestWebsocketMalformedFrame(t *testing.T) {
	_, url := newServer(t, true)
	ws := dial(t, url)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, EventError, receive(t, ws).Event)
}

func TestBrokerDeliversAcrossProcesses(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	// 两个 hub 模拟两个进程：发布方没有该用户的连接
	local := NewHub(zap.NewNop())
	remote := NewHub(zap.NewNop())
	c := detached(t, remote, "u1", 4)
	remote.Join("u1", c)

	publisher := NewBroker(rdb, "campus:notify:user:", local, zap.NewNop())
	subscriber := NewBroker(rdb, "campus:notify:user:", remote, zap.NewNop())
	require.NoError(t, subscriber.Run(ctx))

	delivered, err := publisher.Push(ctx, "u1", &domain.Notification{ID: "n1", Type: domain.NotifyVerified})
	require.NoError(t, err)
	assert.True(t, delivered)

	f := readFrame(t, c)
	assert.Equal(t, EventNotification, f.Event)
	assert.Contains(t, string(f.Data), `"type":"verified"`)
	assert.Equal(t, "campus:notify:user:u1", publisher.Channel("u1"))
}

func TestBrokerIgnoresForeignChannels(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := detached(t, hub, "u1", 4)
	hub.Join("u1", c)
	b := NewBroker(nil, "campus:notify:user:", hub, zap.NewNop())

	b.deliver(&redis.Message{Channel: "other:u1", Payload: "{}"})
	b.deliver(&redis.Message{Channel: "campus:notify:user:", Payload: "{}"})
	assert.Empty(t, c.send)
}
