package sync

import (
	"context"
	"testing"
	"time"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
	"github.com/ccellsty/oryxchatfrfr/internal/realtime"
)

func TestStreamOrderingSurvivesOutOfOrderApplies(t *testing.T) {
	stream := NewMessageStream(5)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	third := models.Message{ID: 3, GroupID: 5, SenderID: 1, Content: "third", CreatedAt: base.Add(2 * time.Second)}
	first := models.Message{ID: 1, GroupID: 5, SenderID: 1, Content: "first", CreatedAt: base}
	second := models.Message{ID: 2, GroupID: 5, SenderID: 2, Content: "second", CreatedAt: base.Add(time.Second)}

	stream.Apply(ctx, third)
	stream.Apply(ctx, first)
	stream.Apply(ctx, second)

	got := stream.Messages()
	want := []string{"first", "second", "third"}
	for i, m := range got {
		if m.Content != want[i] {
			t.Fatalf("position %d: expected %q, got %q", i, want[i], m.Content)
		}
	}
}

func TestStreamTimestampTiesBreakOnID(t *testing.T) {
	stream := NewMessageStream(5)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := models.Message{ID: 8, GroupID: 5, SenderID: 1, Content: "b", CreatedAt: at}
	a := models.Message{ID: 7, GroupID: 5, SenderID: 2, Content: "a", CreatedAt: at}

	stream.Apply(ctx, b)
	stream.Apply(ctx, a)

	got := stream.Messages()
	if got[0].ID != 7 || got[1].ID != 8 {
		t.Fatalf("expected id tiebreak order [7 8], got [%d %d]", got[0].ID, got[1].ID)
	}
}

func TestStreamDeduplicatesReplays(t *testing.T) {
	stream := NewMessageStream(5)
	ctx := context.Background()

	m := models.Message{ID: 1, GroupID: 5, SenderID: 1, Content: "once"}
	stream.Apply(ctx, m)
	stream.Apply(ctx, m)
	stream.Apply(ctx, m)

	if stream.Len() != 1 {
		t.Fatalf("expected 1 message after replays, got %d", stream.Len())
	}
}

func TestStreamIgnoresForeignGroups(t *testing.T) {
	stream := NewMessageStream(5)
	ctx := context.Background()

	stream.Apply(ctx, models.Message{ID: 1, GroupID: 6, SenderID: 1, Content: "elsewhere"})
	if stream.Len() != 0 {
		t.Fatal("message for another group must be ignored")
	}

	stream.Replace(ctx, []models.Message{
		{ID: 1, GroupID: 6, SenderID: 1, Content: "elsewhere"},
		{ID: 2, GroupID: 5, SenderID: 1, Content: "here"},
	})
	if stream.Len() != 1 {
		t.Fatalf("replace must filter foreign rows, got %d", stream.Len())
	}
}

func TestStreamReplaceResortsSnapshot(t *testing.T) {
	stream := NewMessageStream(5)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stream.Replace(ctx, []models.Message{
		{ID: 2, GroupID: 5, CreatedAt: base.Add(time.Second), Content: "second"},
		{ID: 1, GroupID: 5, CreatedAt: base, Content: "first"},
		{ID: 2, GroupID: 5, CreatedAt: base.Add(time.Second), Content: "second"},
	})

	got := stream.Messages()
	if len(got) != 2 {
		t.Fatalf("expected deduplicated snapshot of 2, got %d", len(got))
	}
	if got[0].Content != "first" || got[1].Content != "second" {
		t.Fatalf("expected re-sorted snapshot, got %v then %v", got[0].Content, got[1].Content)
	}
}

func TestOpenStreamsReceivePushedMessages(t *testing.T) {
	env := newTestEnv(t)
	env.mustProfile(t, 1, "alice")
	env.mustProfile(t, 2, "bob")

	alice := env.startClient(t, 1)
	bob := env.startClient(t, 2)

	group, err := alice.Groups.CreateGroup(context.Background(), "gophers")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	groupID := group.Group.ID

	if _, err := env.groupSvc.AddMember(context.Background(), 1, groupID, 2); err != nil {
		t.Fatalf("add member: %v", err)
	}

	aliceStream, err := alice.Streams.Open(context.Background(), groupID)
	if err != nil {
		t.Fatalf("alice open: %v", err)
	}
	bobStream, err := bob.Streams.Open(context.Background(), groupID)
	if err != nil {
		t.Fatalf("bob open: %v", err)
	}

	msg, err := alice.Streams.Send(context.Background(), groupID, "hello", "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if aliceStream.Len() != 1 {
		t.Fatalf("sender must see own message, stream has %d", aliceStream.Len())
	}
	got := bobStream.Messages()
	if len(got) != 1 || got[0].ID != msg.ID {
		t.Fatalf("expected pushed message %d for bob, got %v", msg.ID, got)
	}
	if got[0].Sender == nil || got[0].Sender.Username != "alice" {
		t.Fatal("expected sender profile on pushed row")
	}
}

func TestSendAppliesLocallyWithoutPush(t *testing.T) {
	env := newTestEnv(t)
	env.mustProfile(t, 1, "alice")

	alice := env.startClient(t, 1)

	group, err := alice.Groups.CreateGroup(context.Background(), "solo")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	stream, err := alice.Streams.Open(context.Background(), group.Group.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// Sever the push path entirely; the sender's view must still gain
	// the message because Send applies its own result.
	env.channel.mu.Lock()
	env.channel.subs = make(map[string]map[int]func(realtime.Event))
	env.channel.mu.Unlock()

	if _, err := alice.Streams.Send(context.Background(), group.Group.ID, "offline-ish", ""); err != nil {
		t.Fatalf("send: %v", err)
	}
	if stream.Len() != 1 {
		t.Fatalf("sender view must not depend on push delivery, got %d", stream.Len())
	}
}

func TestOpenIsIdempotentAndCloseUnsubscribes(t *testing.T) {
	env := newTestEnv(t)
	env.mustProfile(t, 1, "alice")

	alice := env.startClient(t, 1)

	group, err := alice.Groups.CreateGroup(context.Background(), "gophers")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	groupID := group.Group.ID
	topic := realtime.GroupMessagesTopic(groupID)

	s1, err := alice.Streams.Open(context.Background(), groupID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s2, err := alice.Streams.Open(context.Background(), groupID)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	if s1 != s2 {
		t.Fatal("reopening must return the same stream")
	}
	if env.channel.subscriberCount(topic) != 1 {
		t.Fatalf("expected a single upstream subscription, got %d", env.channel.subscriberCount(topic))
	}

	alice.Streams.Close(groupID)
	if env.channel.subscriberCount(topic) != 0 {
		t.Fatal("close must drop the upstream subscription")
	}
	if _, ok := alice.Streams.Stream(groupID); ok {
		t.Fatal("closed stream must be forgotten")
	}

	// Closing again is harmless.
	alice.Streams.Close(groupID)
}

func TestOpenRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	env.mustProfile(t, 1, "alice")
	env.mustProfile(t, 2, "bob")

	alice := env.startClient(t, 1)
	bob := env.startClient(t, 2)

	group, err := alice.Groups.CreateGroup(context.Background(), "private")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	_, err = bob.Streams.Open(context.Background(), group.Group.ID)
	if !models.IsCode(err, models.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for non-member, got %v", err)
	}
	if env.channel.subscriberCount(realtime.GroupMessagesTopic(group.Group.ID)) != 0 {
		t.Fatal("failed open must leave no subscription behind")
	}
}

func TestReconnectRestoresMissedMessages(t *testing.T) {
	env := newTestEnv(t)
	env.mustProfile(t, 1, "alice")
	env.mustProfile(t, 2, "bob")

	alice := env.startClient(t, 1)

	group, err := alice.Groups.CreateGroup(context.Background(), "gophers")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	groupID := group.Group.ID
	if _, err := env.groupSvc.AddMember(context.Background(), 1, groupID, 2); err != nil {
		t.Fatalf("add member: %v", err)
	}

	stream, err := alice.Streams.Open(context.Background(), groupID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// Drop deliveries to model an outage, write while "down", then
	// reconnect.
	env.channel.mu.Lock()
	saved := env.channel.subs
	env.channel.subs = make(map[string]map[int]func(realtime.Event))
	env.channel.mu.Unlock()

	if _, err := env.msgSvc.Send(context.Background(), 2, groupID, "missed you", ""); err != nil {
		t.Fatalf("send during outage: %v", err)
	}
	if stream.Len() != 0 {
		t.Fatal("setup: message must have been missed")
	}

	env.channel.mu.Lock()
	env.channel.subs = saved
	env.channel.mu.Unlock()
	env.channel.fireReconnect()

	got := stream.Messages()
	if len(got) != 1 || got[0].Content != "missed you" {
		t.Fatalf("expected reconnect refresh to restore the message, got %v", got)
	}
}
