package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChannel is an in-process Channel with synchronous delivery.
type fakeChannel struct {
	mu   sync.Mutex
	subs map[string]map[int]func(Event)
	next int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{subs: make(map[string]map[int]func(Event))}
}

func (f *fakeChannel) Subscribe(_ context.Context, topic string, onEvent func(Event)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs[topic] == nil {
		f.subs[topic] = make(map[int]func(Event))
	}
	id := f.next
	f.next++
	f.subs[topic][id] = onEvent
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs[topic], id)
	}, nil
}

func (f *fakeChannel) Publish(_ context.Context, topic string, ev Event) error {
	f.mu.Lock()
	fns := make([]func(Event), 0, len(f.subs[topic]))
	for _, fn := range f.subs[topic] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
	return nil
}

func (f *fakeChannel) OnReconnect(func()) func() { return func() {} }

func (f *fakeChannel) subscriberCount(topic string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[topic])
}

// fakeConn satisfies wsConn; reads block until Close.
type fakeConn struct {
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, io.EOF
}
func (c *fakeConn) WriteMessage(int, []byte) error { return nil }
func (c *fakeConn) SetReadLimit(int64)             {}
func (c *fakeConn) SetReadDeadline(time.Time) error {
	return nil
}
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (c *fakeConn) SetPongHandler(func(string) error) {}
func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func drainFrame(t *testing.T, client *Client) Frame {
	t.Helper()
	select {
	case data := <-client.send:
		var frame Frame
		require.NoError(t, json.Unmarshal(data, &frame))
		return frame
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}
	}
}

func TestHubFansOutToWatchers(t *testing.T) {
	channel := newFakeChannel()
	hub := NewHub(channel)
	ctx := context.Background()

	c1, err := hub.Register(1, newFakeConn())
	require.NoError(t, err)
	c2, err := hub.Register(2, newFakeConn())
	require.NoError(t, err)

	topic := GroupMessagesTopic(9)
	require.NoError(t, hub.Watch(ctx, c1, topic))
	require.NoError(t, hub.Watch(ctx, c2, topic))

	// Two watchers share one upstream subscription.
	assert.Equal(t, 1, channel.subscriberCount(topic))

	ev := Event{Table: "messages", Op: OpInsert, Row: json.RawMessage(`{"id":1}`)}
	require.NoError(t, channel.Publish(ctx, topic, ev))

	for _, c := range []*Client{c1, c2} {
		frame := drainFrame(t, c)
		assert.Equal(t, topic, frame.Topic)
		assert.Equal(t, OpInsert, frame.Event.Op)
	}
}

func TestHubUnwatchClosesUpstreamWhenLastWatcherLeaves(t *testing.T) {
	channel := newFakeChannel()
	hub := NewHub(channel)
	ctx := context.Background()

	c1, err := hub.Register(1, newFakeConn())
	require.NoError(t, err)
	c2, err := hub.Register(2, newFakeConn())
	require.NoError(t, err)

	topic := FriendTopic(1)
	require.NoError(t, hub.Watch(ctx, c1, topic))
	require.NoError(t, hub.Watch(ctx, c2, topic))

	hub.Unwatch(c1, topic)
	assert.Equal(t, 1, channel.subscriberCount(topic), "subscription survives while a watcher remains")

	hub.Unwatch(c2, topic)
	assert.Equal(t, 0, channel.subscriberCount(topic), "last unwatch closes the upstream subscription")
}

func TestHubUnregisterDropsSubscriptions(t *testing.T) {
	channel := newFakeChannel()
	hub := NewHub(channel)
	ctx := context.Background()

	c1, err := hub.Register(1, newFakeConn())
	require.NoError(t, err)

	require.NoError(t, hub.Watch(ctx, c1, FriendTopic(1)))
	require.NoError(t, hub.Watch(ctx, c1, GroupMessagesTopic(4)))

	hub.UnregisterClient(c1)

	assert.Equal(t, 0, channel.subscriberCount(FriendTopic(1)))
	assert.Equal(t, 0, channel.subscriberCount(GroupMessagesTopic(4)))

	// Unregistering twice is a no-op.
	hub.UnregisterClient(c1)
}

func TestHubConnectionLimitPerUser(t *testing.T) {
	hub := NewHub(newFakeChannel())

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(1, newFakeConn())
		require.NoError(t, err)
	}
	_, err := hub.Register(1, newFakeConn())
	assert.Error(t, err)

	// Other users are unaffected.
	_, err = hub.Register(2, newFakeConn())
	assert.NoError(t, err)
}

func TestHubAuthorizerGatesWatch(t *testing.T) {
	channel := newFakeChannel()
	hub := NewHub(channel)
	hub.SetAuthorizer(func(_ context.Context, userID uint, topic string) bool {
		return topic == FriendTopic(userID)
	})
	ctx := context.Background()

	c1, err := hub.Register(1, newFakeConn())
	require.NoError(t, err)

	c1.handleControl(ctx, ControlMessage{Action: "watch", Topic: FriendTopic(1)})
	assert.Equal(t, 1, channel.subscriberCount(FriendTopic(1)))

	c1.handleControl(ctx, ControlMessage{Action: "watch", Topic: FriendTopic(2)})
	assert.Equal(t, 0, channel.subscriberCount(FriendTopic(2)), "foreign topic must be denied")
}

type failingChannel struct {
	fakeChannel
}

func (f *failingChannel) Subscribe(context.Context, string, func(Event)) (func(), error) {
	return nil, errors.New("transport down")
}

func TestHubWatchSubscribeFailure(t *testing.T) {
	hub := NewHub(&failingChannel{})
	ctx := context.Background()

	c1, err := hub.Register(1, newFakeConn())
	require.NoError(t, err)

	err = hub.Watch(ctx, c1, FriendTopic(1))
	assert.Error(t, err)

	hub.mu.RLock()
	_, exists := hub.topics[FriendTopic(1)]
	hub.mu.RUnlock()
	assert.False(t, exists, "failed watch must not leave topic state behind")
}
