package realtime

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"campusconnect/internal/domain"
)

// Broker fans notifications out through redis so that every API process can
// deliver to the connections it holds. Each process publishes to
// <prefix><userID> and pattern-subscribes to <prefix>*.
type Broker struct {
	rdb    *redis.Client
	prefix string
	hub    *Hub
	log    *zap.Logger
}

func NewBroker(rdb *redis.Client, prefix string, hub *Hub, log *zap.Logger) *Broker {
	return &Broker{rdb: rdb, prefix: prefix, hub: hub, log: log.Named("broker")}
}

func (b *Broker) Channel(uid string) string { return b.prefix + uid }

// Push publishes the notification frame. delivered reports whether at least one
// subscribed process received it; it says nothing about the user being online.
func (b *Broker) Push(ctx context.Context, recipientID string, n *domain.Notification) (bool, error) {
	msg, err := encode(EventNotification, n)
	if err != nil {
		return false, err
	}
	receivers, err := b.rdb.Publish(ctx, b.Channel(recipientID), msg).Result()
	if err != nil {
		return false, fmt.Errorf("publish notification: %w", err)
	}
	return receivers > 0, nil
}

// Run subscribes and delivers into the local hub until ctx is cancelled.
// It returns once the subscription is confirmed.
func (b *Broker) Run(ctx context.Context) error {
	sub := b.rdb.PSubscribe(ctx, b.prefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s*: %w", b.prefix, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.deliver(msg)
			}
		}
	}()
	return nil
}

func (b *Broker) deliver(msg *redis.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic in subscriber", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		}
	}()
	uid, ok := strings.CutPrefix(msg.Channel, b.prefix)
	if !ok || uid == "" {
		return
	}
	b.hub.Deliver(uid, []byte(msg.Payload))
}
