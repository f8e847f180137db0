package sync

import (
	"context"
	stdsync "sync"
	"testing"

	"github.com/ccellsty/oryxchatfrfr/internal/database"
	"github.com/ccellsty/oryxchatfrfr/internal/identity"
	"github.com/ccellsty/oryxchatfrfr/internal/models"
	"github.com/ccellsty/oryxchatfrfr/internal/realtime"
	"github.com/ccellsty/oryxchatfrfr/internal/repository"
	"github.com/ccellsty/oryxchatfrfr/internal/service"
)

// memChannel is an in-process realtime.Channel with synchronous
// delivery, so tests observe event effects without sleeping.
type memChannel struct {
	mu        stdsync.Mutex
	subs      map[string]map[int]func(realtime.Event)
	nextID    int
	reconnect map[int]func()
}

func newMemChannel() *memChannel {
	return &memChannel{
		subs:      make(map[string]map[int]func(realtime.Event)),
		reconnect: make(map[int]func()),
	}
}

func (c *memChannel) Subscribe(_ context.Context, topic string, onEvent func(realtime.Event)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs[topic] == nil {
		c.subs[topic] = make(map[int]func(realtime.Event))
	}
	id := c.nextID
	c.nextID++
	c.subs[topic][id] = onEvent
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs[topic], id)
	}, nil
}

func (c *memChannel) Publish(_ context.Context, topic string, ev realtime.Event) error {
	c.mu.Lock()
	fns := make([]func(realtime.Event), 0, len(c.subs[topic]))
	for _, fn := range c.subs[topic] {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
	return nil
}

func (c *memChannel) OnReconnect(fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.reconnect[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.reconnect, id)
	}
}

// fireReconnect simulates the transport recovering from an outage.
func (c *memChannel) fireReconnect() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.reconnect))
	for _, fn := range c.reconnect {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *memChannel) subscriberCount(topic string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[topic])
}

// testEnv wires real repositories and services over an in-memory
// database and channel.
type testEnv struct {
	channel   *memChannel
	profiles  repository.ProfileRepository
	friendSvc *service.FriendService
	groupSvc  *service.GroupService
	msgSvc    *service.MessageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("connect sqlite: %v", err)
	}

	channel := newMemChannel()
	publisher := realtime.NewPublisher(channel)

	profiles := repository.NewProfileRepository(db)
	friendSvc := service.NewFriendService(repository.NewFriendRepository(db), profiles, publisher)
	groupSvc := service.NewGroupService(repository.NewGroupRepository(db), publisher)
	msgSvc := service.NewMessageService(repository.NewMessageRepository(db), groupSvc, publisher)

	return &testEnv{
		channel:   channel,
		profiles:  profiles,
		friendSvc: friendSvc,
		groupSvc:  groupSvc,
		msgSvc:    msgSvc,
	}
}

func (e *testEnv) services() Services {
	return Services{Friend: e.friendSvc, Group: e.groupSvc, Message: e.msgSvc}
}

func (e *testEnv) mustProfile(t *testing.T, id uint, username string) {
	t.Helper()
	p := &models.Profile{ID: id, Username: username, Theme: models.DefaultTheme}
	if err := e.profiles.Create(context.Background(), p); err != nil {
		t.Fatalf("create profile %s: %v", username, err)
	}
}

// startClient hydrates and starts a sync client for an existing profile.
func (e *testEnv) startClient(t *testing.T, userID uint) *Client {
	t.Helper()

	cache := identity.NewCache(identity.NewStaticProvider(&identity.Session{UserID: userID}), e.profiles)
	if _, err := cache.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate user %d: %v", userID, err)
	}

	client := NewClient(cache, e.channel, e.services())
	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("start client %d: %v", userID, err)
	}
	t.Cleanup(client.Stop)
	return client
}
