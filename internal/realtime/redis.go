package realtime

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ccellsty/oryxchatfrfr/internal/observability"
)

const healthCheckInterval = 15 * time.Second

// RedisChannel implements Channel over Redis pub/sub. Each subscription
// owns its own PubSub and reader goroutine; unsubscribing closes both.
// A background ping loop detects connection loss and fires reconnect
// callbacks once the connection recovers.
type RedisChannel struct {
	rdb *redis.Client

	mu          sync.Mutex
	reconnectCb map[int]func()
	nextID      int
	down        bool

	stop chan struct{}
	done chan struct{}
}

// NewRedisChannel creates a channel over the given Redis client and
// starts its health loop.
func NewRedisChannel(rdb *redis.Client) *RedisChannel {
	c := &RedisChannel{
		rdb:         rdb,
		reconnectCb: make(map[int]func()),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go c.healthLoop()
	return c
}

func (c *RedisChannel) Publish(ctx context.Context, topic string, ev Event) error {
	payload, err := ev.Encode()
	if err != nil {
		return err
	}
	if err := c.rdb.Publish(ctx, channelPrefix+topic, payload).Err(); err != nil {
		observability.RedisErrors.WithLabelValues("publish").Inc()
		return err
	}
	return nil
}

func (c *RedisChannel) Subscribe(ctx context.Context, topic string, onEvent func(Event)) (func(), error) {
	sub := c.rdb.Subscribe(ctx, channelPrefix+topic)

	// Confirm the subscription before returning so a publish issued
	// right after Subscribe is not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		observability.RedisErrors.WithLabelValues("subscribe").Inc()
		return nil, err
	}

	ch := sub.Channel()
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() { _ = sub.Close() })
	}

	go func() {
		for msg := range ch {
			ev, err := DecodeEvent([]byte(msg.Payload))
			if err != nil {
				observability.Logger.Warn("dropping malformed event",
					"topic", topic, "error", err)
				continue
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						observability.Logger.Error("panic in event handler",
							"topic", topic, "panic", r, "stack", string(debug.Stack()))
					}
				}()
				onEvent(ev)
			}()
		}
	}()

	return unsubscribe, nil
}

func (c *RedisChannel) OnReconnect(fn func()) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.reconnectCb[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.reconnectCb, id)
		c.mu.Unlock()
	}
}

// healthLoop pings Redis periodically. A failed ping marks the channel
// down; the first successful ping afterwards fires reconnect callbacks.
func (c *RedisChannel) healthLoop() {
	defer close(c.done)
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := c.rdb.Ping(ctx).Err()
			cancel()

			c.mu.Lock()
			if err != nil {
				if !c.down {
					observability.Logger.Warn("realtime transport lost", "error", err)
				}
				c.down = true
				c.mu.Unlock()
				observability.RedisErrors.WithLabelValues("ping").Inc()
				continue
			}
			recovered := c.down
			c.down = false
			var fns []func()
			if recovered {
				fns = make([]func(), 0, len(c.reconnectCb))
				for _, fn := range c.reconnectCb {
					fns = append(fns, fn)
				}
			}
			c.mu.Unlock()

			if recovered {
				observability.Logger.Info("realtime transport recovered")
				for _, fn := range fns {
					fn()
				}
			}
		}
	}
}

// Close stops the health loop. Open subscriptions keep working until
// their own unsubscribe runs.
func (c *RedisChannel) Close() {
	close(c.stop)
	<-c.done
}
