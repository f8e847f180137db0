package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/ccellsty/oryxchatfrfr/internal/observability"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// Frame is what the hub writes to websocket clients: the topic an event
// arrived on plus the event itself.
type Frame struct {
	Topic string `json:"topic"`
	Event Event  `json:"event"`
}

// topicState tracks one upstream channel subscription shared by every
// client watching that topic.
type topicState struct {
	clients     map[*Client]struct{}
	unsubscribe func()
}

// Hub bridges channel topics to websocket clients. Each topic holds a
// single upstream subscription no matter how many clients watch it.
type Hub struct {
	channel   Channel
	authorize func(ctx context.Context, userID uint, topic string) bool

	mu         sync.RWMutex
	topics     map[string]*topicState
	conns      map[uint]map[*Client]struct{}
	totalConns int
}

// NewHub creates a hub over the given channel.
func NewHub(channel Channel) *Hub {
	return &Hub{
		channel: channel,
		topics:  make(map[string]*topicState),
		conns:   make(map[uint]map[*Client]struct{}),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "realtime hub" }

// SetAuthorizer installs the check run before a client may watch a
// topic. Without one, every watch is allowed.
func (h *Hub) SetAuthorizer(fn func(ctx context.Context, userID uint, topic string) bool) {
	h.authorize = fn
}

func (h *Hub) authorizeTopic(ctx context.Context, userID uint, topic string) bool {
	if h.authorize == nil {
		return true
	}
	return h.authorize(ctx, userID, topic)
}

// Register admits a websocket connection for a user. Returns an error
// when connection limits are exceeded.
func (h *Hub) Register(userID uint, conn wsConn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, errors.New("user connection limit reached")
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnections.Inc()
	return client, nil
}

// UnregisterClient removes a client and drops its topic subscriptions.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			removed = true
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
		}
	}
	var drop []string
	if removed {
		for topic, state := range h.topics {
			if _, ok := state.clients[client]; ok {
				delete(state.clients, client)
				if len(state.clients) == 0 {
					drop = append(drop, topic)
				}
			}
		}
	}
	var unsubs []func()
	for _, topic := range drop {
		unsubs = append(unsubs, h.topics[topic].unsubscribe)
		delete(h.topics, topic)
	}
	h.mu.Unlock()

	if removed {
		observability.WebSocketConnections.Dec()
	}
	for _, unsub := range unsubs {
		unsub()
	}
}

// Watch subscribes a client to a topic, opening the upstream channel
// subscription if this is the topic's first watcher.
func (h *Hub) Watch(ctx context.Context, client *Client, topic string) error {
	h.mu.Lock()
	state, ok := h.topics[topic]
	if ok {
		state.clients[client] = struct{}{}
		h.mu.Unlock()
		return nil
	}
	state = &topicState{clients: map[*Client]struct{}{client: {}}}
	h.topics[topic] = state
	h.mu.Unlock()

	unsubscribe, err := h.channel.Subscribe(ctx, topic, func(ev Event) {
		h.dispatch(topic, ev)
	})
	if err != nil {
		h.mu.Lock()
		delete(h.topics, topic)
		h.mu.Unlock()
		return err
	}

	h.mu.Lock()
	state.unsubscribe = unsubscribe
	// The topic may have lost all watchers while the subscribe was in
	// flight.
	if len(state.clients) == 0 {
		delete(h.topics, topic)
		h.mu.Unlock()
		unsubscribe()
		return nil
	}
	h.mu.Unlock()
	return nil
}

// Unwatch removes a client from a topic, closing the upstream
// subscription when no watchers remain.
func (h *Hub) Unwatch(client *Client, topic string) {
	h.mu.Lock()
	state, ok := h.topics[topic]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(state.clients, client)
	var unsub func()
	if len(state.clients) == 0 {
		unsub = state.unsubscribe
		delete(h.topics, topic)
	}
	h.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (h *Hub) dispatch(topic string, ev Event) {
	frame, err := json.Marshal(Frame{Topic: topic, Event: ev})
	if err != nil {
		observability.Logger.Error("encode frame failed", "topic", topic, "error", err)
		return
	}

	h.mu.RLock()
	state, ok := h.topics[topic]
	if !ok {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(state.clients))
	for c := range state.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.TrySend(frame)
	}
}

// Shutdown closes every websocket connection and drops all topic
// subscriptions.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	var unsubs []func()
	for _, state := range h.topics {
		if state.unsubscribe != nil {
			unsubs = append(unsubs, state.unsubscribe)
		}
	}
	h.topics = make(map[string]*topicState)

	var clients []*Client
	for _, m := range h.conns {
		for c := range m {
			clients = append(clients, c)
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	h.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	for _, c := range clients {
		c.closeConn()
		observability.WebSocketConnections.Dec()
	}
	return nil
}
