// Package sync keeps in-memory views of a user's friend graph, group
// directory, and message streams consistent with the store. Views apply
// their own mutation results directly and fold in pushed row events, so
// they converge without polling and survive missed events by
// reconciling on reconnect.
package sync

import (
	"context"
	stdsync "sync"

	"github.com/ccellsty/oryxchatfrfr/internal/observability"
	"github.com/ccellsty/oryxchatfrfr/internal/realtime"
)

// Router fans channel events out to view subscriptions and replays
// their refresh functions after the transport reconnects, since any
// number of events may have been missed while it was down.
type Router struct {
	channel realtime.Channel

	mu     stdsync.Mutex
	subs   map[int]*subscription
	nextID int

	cancelReconnect func()
}

type subscription struct {
	entity  string
	topic   string
	apply   func(context.Context, realtime.Event)
	refresh func(context.Context) error

	mu          stdsync.Mutex
	closed      bool
	unsubscribe func()
}

// NewRouter creates a router over the given channel and registers for
// its reconnect notifications.
func NewRouter(channel realtime.Channel) *Router {
	r := &Router{
		channel: channel,
		subs:    make(map[int]*subscription),
	}
	r.cancelReconnect = channel.OnReconnect(r.reconcileAll)
	return r
}

// Subscribe routes events on topic to apply and registers refresh for
// post-reconnect reconciliation. The returned cancel stops delivery
// immediately: apply is never invoked after cancel returns, even for
// events already in flight.
func (r *Router) Subscribe(ctx context.Context, entity, topic string, apply func(context.Context, realtime.Event), refresh func(context.Context) error) (func(), error) {
	sub := &subscription{
		entity:  entity,
		topic:   topic,
		apply:   apply,
		refresh: refresh,
	}

	unsubscribe, err := r.channel.Subscribe(ctx, topic, func(ev realtime.Event) {
		sub.mu.Lock()
		defer sub.mu.Unlock()
		if sub.closed {
			return
		}
		observability.RealtimeEventsDispatched.WithLabelValues(ev.Table, string(ev.Op)).Inc()
		sub.apply(context.Background(), ev)
	})
	if err != nil {
		return nil, err
	}
	sub.unsubscribe = unsubscribe

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = sub
	r.mu.Unlock()

	cancel := func() {
		sub.mu.Lock()
		if sub.closed {
			sub.mu.Unlock()
			return
		}
		sub.closed = true
		sub.mu.Unlock()

		sub.unsubscribe()

		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
	return cancel, nil
}

// reconcileAll reruns every live subscription's refresh. Called by the
// transport after reconnecting.
func (r *Router) reconcileAll() {
	r.mu.Lock()
	subs := make([]*subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	r.mu.Unlock()

	ctx := context.Background()
	for _, sub := range subs {
		if sub.refresh == nil {
			continue
		}
		observability.ReconcilerRefreshes.WithLabelValues(sub.entity).Inc()
		if err := sub.refresh(ctx); err != nil {
			observability.Logger.Error("post-reconnect refresh failed",
				"entity", sub.entity, "topic", sub.topic, "error", err)
		}
	}
}

// Close cancels the reconnect registration. Subscriptions keep
// delivering until individually cancelled.
func (r *Router) Close() {
	if r.cancelReconnect != nil {
		r.cancelReconnect()
	}
}
