package realtime

import "context"

// Channel is a topic-addressed event transport. Implementations must
// deliver each published event to every live subscription of its topic,
// and must stop invoking onEvent once the returned unsubscribe has run.
type Channel interface {
	// Subscribe starts delivering events for topic to onEvent. The
	// returned function cancels the subscription.
	Subscribe(ctx context.Context, topic string, onEvent func(Event)) (func(), error)

	// Publish sends an event to every subscriber of topic.
	Publish(ctx context.Context, topic string, ev Event) error

	// OnReconnect registers a callback fired after the transport
	// recovers from a connection loss. Subscribers use it to trigger a
	// full refresh, since events may have been missed.
	OnReconnect(fn func()) (cancel func())
}
