// Package push is the per-till notification channel. Settlement updates are
// published here and fanned out to websocket subscribers.
package push

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Subscriber hands out a message stream for one topic. The returned stop
// function tears the subscription down.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan []byte, func(), error)
}

var Module = fx.Module("push",
	fx.Provide(
		NewRedisChannel,
		func(c *RedisChannel) Publisher { return c },
		func(c *RedisChannel) Subscriber { return c },
	),
)

// TillTopic names the per-till pub/sub channel.
func TillTopic(tillID string) string {
	return "till:" + tillID
}

type RedisChannel struct {
	rdb *redis.Client
}

func NewRedisChannel(rdb *redis.Client) *RedisChannel {
	return &RedisChannel{rdb: rdb}
}

func (c *RedisChannel) Publish(ctx context.Context, topic string, payload []byte) error {
	return c.rdb.Publish(ctx, topic, payload).Err()
}

func (c *RedisChannel) Subscribe(ctx context.Context, topic string) (<-chan []byte, func(), error) {
	sub := c.rdb.Subscribe(ctx, topic)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { _ = sub.Close() }, nil
}
