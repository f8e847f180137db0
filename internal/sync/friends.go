package sync

import (
	"context"
	"encoding/json"
	stdsync "sync"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
	"github.com/ccellsty/oryxchatfrfr/internal/observability"
	"github.com/ccellsty/oryxchatfrfr/internal/realtime"
	"github.com/ccellsty/oryxchatfrfr/internal/service"
)

// FriendGraph is the signed-in user's in-memory view of their friend
// edges, keyed by edge id. Mutations go through the friend service and
// fold the returned row back in directly, so the caller's own view
// never depends on push delivery. Pushed events and wholesale refreshes
// apply idempotently: replaying either leaves the graph unchanged.
type FriendGraph struct {
	userID  uint
	service *service.FriendService
	log     *observability.SyncLogger

	mu    stdsync.Mutex
	edges map[uint]models.FriendEdge
}

// NewFriendGraph returns an empty graph for the given user.
func NewFriendGraph(userID uint, svc *service.FriendService) *FriendGraph {
	return &FriendGraph{
		userID:  userID,
		service: svc,
		log:     observability.NewSyncLogger("friend_graph"),
		edges:   make(map[uint]models.FriendEdge),
	}
}

// Refresh replaces the graph with the store's current state. Safe to
// run at any time, including concurrently with event applies.
func (g *FriendGraph) Refresh(ctx context.Context) error {
	edges, err := g.service.ListEdges(ctx, g.userID)
	if err != nil {
		g.log.LogError(ctx, "refresh", err)
		return err
	}

	next := make(map[uint]models.FriendEdge, len(edges))
	for _, e := range edges {
		next[e.ID] = e
	}

	g.mu.Lock()
	g.edges = next
	g.mu.Unlock()

	g.log.LogRefresh(ctx, len(edges))
	return nil
}

// SendRequest sends a friend request by username and applies the
// created edge locally.
func (g *FriendGraph) SendRequest(ctx context.Context, username string) (*models.FriendEdge, error) {
	edge, err := g.service.SendRequest(ctx, g.userID, username)
	if err != nil {
		return nil, err
	}
	g.apply(ctx, realtime.OpInsert, *edge)
	return edge, nil
}

// Respond resolves a pending request and applies the outcome locally:
// an accepted edge is updated in place, a rejected one removed.
func (g *FriendGraph) Respond(ctx context.Context, edgeID uint, action models.RespondAction) (*models.FriendEdge, error) {
	edge, err := g.service.Respond(ctx, g.userID, edgeID, action)
	if err != nil {
		return nil, err
	}
	if edge == nil {
		g.remove(ctx, edgeID)
		return nil, nil
	}
	g.apply(ctx, realtime.OpUpdate, *edge)
	return edge, nil
}

// ApplyEvent folds a pushed friend edge change into the graph. Events
// not touching this user are ignored; replays are no-ops.
func (g *FriendGraph) ApplyEvent(ctx context.Context, ev realtime.Event) {
	var edge models.FriendEdge
	if err := json.Unmarshal(ev.Row, &edge); err != nil {
		g.log.LogError(ctx, "decode", err)
		return
	}
	if !edge.Touches(g.userID) {
		return
	}

	switch ev.Op {
	case realtime.OpInsert, realtime.OpUpdate:
		g.apply(ctx, ev.Op, edge)
	case realtime.OpDelete:
		g.remove(ctx, edge.ID)
	}
}

func (g *FriendGraph) apply(ctx context.Context, op realtime.Operation, edge models.FriendEdge) {
	g.mu.Lock()
	prev, exists := g.edges[edge.ID]
	// Keep preloaded profiles when the incoming row lacks them.
	if exists {
		if edge.Requester == nil {
			edge.Requester = prev.Requester
		}
		if edge.Recipient == nil {
			edge.Recipient = prev.Recipient
		}
	}
	unchanged := exists && prev.Status == edge.Status
	g.edges[edge.ID] = edge
	g.mu.Unlock()

	outcome := "applied"
	if unchanged {
		outcome = "noop"
	}
	observability.ReconcilerApplies.WithLabelValues("friend_graph", outcome).Inc()
	g.log.LogApply(ctx, string(op), edge.ID, outcome)
}

func (g *FriendGraph) remove(ctx context.Context, edgeID uint) {
	g.mu.Lock()
	_, existed := g.edges[edgeID]
	delete(g.edges, edgeID)
	g.mu.Unlock()

	outcome := "applied"
	if !existed {
		outcome = "noop"
	}
	observability.ReconcilerApplies.WithLabelValues("friend_graph", outcome).Inc()
	g.log.LogApply(ctx, string(realtime.OpDelete), edgeID, outcome)
}

// PendingIncoming returns pending requests addressed to this user.
func (g *FriendGraph) PendingIncoming() []models.FriendEdge {
	g.mu.Lock()
	defer g.mu.Unlock()

	var pending []models.FriendEdge
	for _, e := range g.edges {
		if e.Status == models.EdgeStatusPending && e.RecipientID == g.userID {
			pending = append(pending, e)
		}
	}
	return pending
}

// PendingOutgoing returns pending requests this user has sent.
func (g *FriendGraph) PendingOutgoing() []models.FriendEdge {
	g.mu.Lock()
	defer g.mu.Unlock()

	var pending []models.FriendEdge
	for _, e := range g.edges {
		if e.Status == models.EdgeStatusPending && e.RequesterID == g.userID {
			pending = append(pending, e)
		}
	}
	return pending
}

// Friends returns the peer ids of accepted edges.
func (g *FriendGraph) Friends() []uint {
	g.mu.Lock()
	defer g.mu.Unlock()

	var peers []uint
	for _, e := range g.edges {
		if e.Status == models.EdgeStatusAccepted {
			peers = append(peers, e.PeerOf(g.userID))
		}
	}
	return peers
}

// Edge returns the edge with the given id, if present.
func (g *FriendGraph) Edge(edgeID uint) (models.FriendEdge, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.edges[edgeID]
	return e, ok
}

// EdgeWith returns the edge connecting this user to peerID, if any.
func (g *FriendGraph) EdgeWith(peerID uint) (models.FriendEdge, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, e := range g.edges {
		if e.Touches(peerID) {
			return e, true
		}
	}
	return models.FriendEdge{}, false
}

// Len reports the number of edges in the view.
func (g *FriendGraph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.edges)
}
