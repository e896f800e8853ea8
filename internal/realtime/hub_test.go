package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campusconnect/internal/domain"
)

const (
	waitFor = time.Second
	tick    = 10 * time.Millisecond
)

func detached(t *testing.T, hub *Hub, uid string, buf int) *Conn {
	t.Helper()
	opts := DefaultOptions()
	opts.SendBuffer = buf
	c := newConn(hub, nil, uid, opts)
	hub.add(c)
	t.Cleanup(func() { hub.remove(c) })
	return c
}

func readFrame(t *testing.T, c *Conn) Frame {
	t.Helper()
	select {
	case msg := <-c.send:
		var f Frame
		require.NoError(t, json.Unmarshal(msg, &f))
		return f
	case <-time.After(waitFor):
		t.Fatal("no frame queued")
		return Frame{}
	}
}

func TestHubLastJoinWins(t *testing.T) {
	hub := NewHub(zap.NewNop())
	first := detached(t, hub, "u1", 4)
	second := detached(t, hub, "u1", 4)

	hub.Join("u1", first)
	hub.Join("u1", second)
	got, ok := hub.Lookup("u1")
	require.True(t, ok)
	assert.Same(t, second, got)

	// 旧连接断开不能把新连接的映射删掉
	hub.remove(first)
	got, ok = hub.Lookup("u1")
	require.True(t, ok)
	assert.Same(t, second, got)

	hub.remove(second)
	_, ok = hub.Lookup("u1")
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Online())
}

func TestHubPushSendsNotificationFrame(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := detached(t, hub, "u1", 4)
	hub.Join("u1", c)

	n := &domain.Notification{ID: "n1", RecipientID: "u1", Type: domain.NotifyUpvote, Message: "Ann upvoted your post"}
	delivered, err := hub.Push(context.Background(), "u1", n)
	require.NoError(t, err)
	assert.True(t, delivered)

	f := readFrame(t, c)
	assert.Equal(t, EventNotification, f.Event)
	var got domain.Notification
	require.NoError(t, json.Unmarshal(f.Data, &got))
	assert.Equal(t, "n1", got.ID)
	assert.Equal(t, domain.NotifyUpvote, got.Type)
}

func TestHubPushToOfflineUser(t *testing.T) {
	hub := NewHub(zap.NewNop())
	delivered, err := hub.Push(context.Background(), "nobody", &domain.Notification{ID: "n1"})
	require.NoError(t, err)
	assert.False(t, delivered)
}

func TestTrySendDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := detached(t, hub, "u1", 1)

	assert.True(t, c.TrySend([]byte("a")))
	assert.False(t, c.TrySend([]byte("b")))
	assert.Equal(t, []byte("a"), <-c.send)
}

func TestTrySendAfterClose(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := detached(t, hub, "u1", 4)
	c.closeWith(1000, "")
	assert.False(t, c.TrySend([]byte("a")))
}

func TestRelaySkipsSender(t *testing.T) {
	hub := NewHub(zap.NewNop())
	from := detached(t, hub, "", 4)
	a := detached(t, hub, "", 4)
	b := detached(t, hub, "", 4)

	n := hub.Relay(from, Frame{Event: EventNewPost, Data: json.RawMessage(`{"title":"hi"}`)})
	assert.Equal(t, 2, n)
	for _, c := range []*Conn{a, b} {
		f := readFrame(t, c)
		assert.Equal(t, EventNewPost, f.Event)
		assert.JSONEq(t, `{"title":"hi"}`, string(f.Data))
	}
	assert.Empty(t, from.send)
}

func TestJoinRequiresMatchingToken(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := detached(t, hub, "u1", 4)

	assert.Error(t, c.join(json.RawMessage(`"u2"`)))
	assert.Error(t, c.join(json.RawMessage(`42`)))
	require.NoError(t, c.join(json.RawMessage(`"u1"`)))
	_, ok := hub.Lookup("u1")
	assert.True(t, ok)

	open := newConn(hub, nil, "", Options{SendBuffer: 1})
	require.NoError(t, open.join(json.RawMessage(`"u9"`)))
}

func TestShutdownClosesConnections(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := detached(t, hub, "u1", 4)
	hub.Join("u1", c)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Equal(t, 0, hub.Online())
	assert.False(t, c.TrySend([]byte("x")))
}
