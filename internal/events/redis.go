package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// RedisBus fans changes out through Redis pub/sub so every server instance
// sees writes made by the others.
type RedisBus struct {
	rdb    *redis.Client
	prefix string
}

var _ Bus = (*RedisBus)(nil)

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb, prefix: "changes:"}
}

func (b *RedisBus) channel(owner string) string {
	return b.prefix + owner
}

func (b *RedisBus) Publish(ctx context.Context, c Change) error {
	body, err := c.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel(c.Owner), body).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, owner string) (<-chan Change, func(), error) {
	ps := b.rdb.Subscribe(ctx, b.channel(owner))
	// Wait for the subscription to be confirmed so no publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", owner, err)
	}

	out := make(chan Change, 16)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			ps.Close()
		})
	}

	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				c, err := ChangeFromJSON([]byte(msg.Payload))
				if err != nil {
					logrus.WithFields(logrus.Fields{
						"channel": msg.Channel,
						"error":   err.Error(),
					}).Warn("Dropping malformed change")
					continue
				}
				select {
				case out <- c:
				default:
				}
			}
		}
	}()
	return out, cancel, nil
}
