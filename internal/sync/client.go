package sync

import (
	"context"

	"github.com/ccellsty/oryxchatfrfr/internal/identity"
	"github.com/ccellsty/oryxchatfrfr/internal/models"
	"github.com/ccellsty/oryxchatfrfr/internal/observability"
	"github.com/ccellsty/oryxchatfrfr/internal/realtime"
	"github.com/ccellsty/oryxchatfrfr/internal/service"
)

// Client owns a signed-in user's synchronized state: their profile,
// friend graph, group directory, and open message streams. Start wiring
// order matters: views subscribe before their first refresh so no event
// published in between is lost.
type Client struct {
	identity *identity.Cache
	router   *Router

	Friends *FriendGraph
	Groups  *GroupDirectory
	Streams *Streams

	cancels []func()
}

// Services bundles what a Client needs to mutate and read the store.
type Services struct {
	Friend  *service.FriendService
	Group   *service.GroupService
	Message *service.MessageService
}

// NewClient assembles a client for the hydrated user in cache.
func NewClient(cache *identity.Cache, channel realtime.Channel, svcs Services) *Client {
	c := &Client{
		identity: cache,
		router:   NewRouter(channel),
	}
	userID := cache.UserID()
	c.Friends = NewFriendGraph(userID, svcs.Friend)
	c.Groups = NewGroupDirectory(userID, svcs.Group)
	c.Streams = NewStreams(userID, svcs.Message, c.router)
	return c
}

// Start subscribes the friend graph and group directory to their topics
// and performs the initial refresh of each. Message streams are opened
// on demand via Streams.Open.
func (c *Client) Start(ctx context.Context) error {
	userID := c.identity.UserID()
	if userID == 0 {
		return models.NewUnauthorizedError("profile not hydrated")
	}

	cancelFriends, err := c.router.Subscribe(ctx,
		"friend_graph", realtime.FriendTopic(userID),
		c.Friends.ApplyEvent, c.Friends.Refresh)
	if err != nil {
		return err
	}
	c.cancels = append(c.cancels, cancelFriends)

	cancelGroups, err := c.router.Subscribe(ctx,
		"group_directory", realtime.GroupsTopic(userID),
		c.Groups.ApplyEvent, c.Groups.Refresh)
	if err != nil {
		c.Stop()
		return err
	}
	c.cancels = append(c.cancels, cancelGroups)

	if err := c.Friends.Refresh(ctx); err != nil {
		c.Stop()
		return err
	}
	if err := c.Groups.Refresh(ctx); err != nil {
		c.Stop()
		return err
	}

	observability.Logger.InfoContext(ctx, "sync client started", "user_id", userID)
	return nil
}

// Stop closes every stream and subscription. The client cannot be
// restarted; build a new one for the next session.
func (c *Client) Stop() {
	c.Streams.CloseAll()
	for _, cancel := range c.cancels {
		cancel()
	}
	c.cancels = nil
	c.router.Close()
}

// Profile returns the hydrated profile snapshot.
func (c *Client) Profile() *models.Profile {
	return c.identity.Profile()
}
