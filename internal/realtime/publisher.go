package realtime

import (
	"context"
	"encoding/json"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
	"github.com/ccellsty/oryxchatfrfr/internal/observability"
)

// Publisher turns store mutations into events on the topics their
// observers watch. A nil Publisher is safe to call and publishes
// nothing, so services can run without a transport in tests.
type Publisher struct {
	channel Channel
}

// NewPublisher wraps a channel for domain-level publication.
func NewPublisher(channel Channel) *Publisher {
	return &Publisher{channel: channel}
}

func (p *Publisher) publish(ctx context.Context, topic string, table string, op Operation, row interface{}) {
	if p == nil || p.channel == nil {
		return
	}
	raw, err := json.Marshal(row)
	if err != nil {
		observability.Logger.ErrorContext(ctx, "encode event row failed",
			"table", table, "error", err)
		return
	}
	ev := Event{Table: table, Op: op, Row: raw}
	if err := p.channel.Publish(ctx, topic, ev); err != nil {
		// Delivery is best effort: observers reconcile on reconnect.
		observability.Logger.WarnContext(ctx, "publish event failed",
			"topic", topic, "table", table, "error", err)
		return
	}
	observability.RealtimeEventsDispatched.WithLabelValues(table, string(op)).Inc()
}

// PublishEdge notifies both endpoints of a friend edge change.
func (p *Publisher) PublishEdge(ctx context.Context, op Operation, edge *models.FriendEdge) {
	p.publish(ctx, FriendTopic(edge.RequesterID), "friend_edges", op, edge)
	p.publish(ctx, FriendTopic(edge.RecipientID), "friend_edges", op, edge)
}

// PublishMessage notifies a group's message topic of a new message.
func (p *Publisher) PublishMessage(ctx context.Context, op Operation, msg *models.Message) {
	p.publish(ctx, GroupMessagesTopic(msg.GroupID), "messages", op, msg)
}

// PublishMembership notifies a user's group topic of a membership change.
func (p *Publisher) PublishMembership(ctx context.Context, op Operation, m *models.Membership) {
	p.publish(ctx, GroupsTopic(m.UserID), "memberships", op, m)
}
