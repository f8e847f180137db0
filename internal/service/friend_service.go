package service

import (
	"context"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
	"github.com/ccellsty/oryxchatfrfr/internal/realtime"
	"github.com/ccellsty/oryxchatfrfr/internal/repository"
)

// FriendService provides friend-request and friendship business logic.
// Every mutation both persists and publishes, so observers on either
// side of an edge see the change without polling.
type FriendService struct {
	friendRepo  repository.FriendRepository
	profileRepo repository.ProfileRepository
	publisher   *realtime.Publisher
}

// NewFriendService returns a new FriendService.
func NewFriendService(friendRepo repository.FriendRepository, profileRepo repository.ProfileRepository, publisher *realtime.Publisher) *FriendService {
	return &FriendService{
		friendRepo:  friendRepo,
		profileRepo: profileRepo,
		publisher:   publisher,
	}
}

// SendRequest creates a pending edge from userID to the profile named by
// username. At most one edge ever exists per pair, in either direction.
func (s *FriendService) SendRequest(ctx context.Context, userID uint, username string) (*models.FriendEdge, error) {
	target, err := s.profileRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == userID {
		return nil, models.NewSelfReferenceError()
	}

	existing, err := s.friendRepo.GetBetween(ctx, userID, target.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewDuplicateEdgeError(existing.Status)
	}

	edge := &models.FriendEdge{
		RequesterID: userID,
		RecipientID: target.ID,
		Status:      models.EdgeStatusPending,
	}
	if err := s.friendRepo.Create(ctx, edge); err != nil {
		return nil, err
	}

	edge, err = s.friendRepo.GetByID(ctx, edge.ID)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishEdge(ctx, realtime.OpInsert, edge)
	return edge, nil
}

// Respond resolves a pending request addressed to userID. Accept
// transitions the edge to accepted; reject deletes it so the requester
// can re-request. Responding to an already settled request is a no-op
// when the prior outcome matches, and INVALID_STATE when it conflicts.
func (s *FriendService) Respond(ctx context.Context, userID, edgeID uint, action models.RespondAction) (*models.FriendEdge, error) {
	edge, err := s.friendRepo.GetByID(ctx, edgeID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			// A rejected edge leaves no row behind, so a replayed
			// reject lands here and must succeed quietly. A replayed
			// accept cannot be told apart from a reject that won, and
			// treating it as settled keeps replays harmless either way.
			return nil, nil
		}
		return nil, err
	}

	if edge.RecipientID != userID {
		return nil, models.NewInvalidStateError("only the recipient can respond to a friend request")
	}

	switch action {
	case models.RespondAccept:
		rows, err := s.friendRepo.UpdateStatusIf(ctx, edgeID, models.EdgeStatusPending, models.EdgeStatusAccepted)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			return s.settleAccept(ctx, edgeID)
		}
	case models.RespondReject:
		rows, err := s.friendRepo.DeleteIf(ctx, edgeID, models.EdgeStatusPending)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			return nil, s.settleReject(ctx, edgeID)
		}
		edge.Status = models.EdgeStatusPending
		s.publisher.PublishEdge(ctx, realtime.OpDelete, edge)
		return nil, nil
	default:
		return nil, models.NewValidationError("action must be accept or reject")
	}

	edge, err = s.friendRepo.GetByID(ctx, edgeID)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishEdge(ctx, realtime.OpUpdate, edge)
	return edge, nil
}

// settleAccept resolves an accept whose conditional update affected no
// rows: the edge left pending state concurrently.
func (s *FriendService) settleAccept(ctx context.Context, edgeID uint) (*models.FriendEdge, error) {
	edge, err := s.friendRepo.GetByID(ctx, edgeID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewInvalidStateError("friend request was already rejected")
		}
		return nil, err
	}
	if edge.Status == models.EdgeStatusAccepted {
		// Already accepted, replay is a no-op.
		return edge, nil
	}
	return nil, models.NewInvalidStateError("friend request is no longer pending")
}

// settleReject resolves a reject whose conditional delete affected no
// rows.
func (s *FriendService) settleReject(ctx context.Context, edgeID uint) error {
	_, err := s.friendRepo.GetByID(ctx, edgeID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			// Row already gone, replay is a no-op.
			return nil
		}
		return err
	}
	return models.NewInvalidStateError("friend request was already accepted")
}

// ListEdges returns every edge touching the user, both directions and
// both statuses, with peer profiles preloaded.
func (s *FriendService) ListEdges(ctx context.Context, userID uint) ([]models.FriendEdge, error) {
	return s.friendRepo.ListForUser(ctx, userID)
}

// PendingIncoming returns pending requests addressed to the user.
func (s *FriendService) PendingIncoming(ctx context.Context, userID uint) ([]models.FriendEdge, error) {
	return s.friendRepo.ListPendingIncoming(ctx, userID)
}

// Friends returns the profiles the user holds an accepted edge with.
func (s *FriendService) Friends(ctx context.Context, userID uint) ([]models.Profile, error) {
	edges, err := s.friendRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	friends := make([]models.Profile, 0, len(edges))
	for _, e := range edges {
		if e.Status != models.EdgeStatusAccepted {
			continue
		}
		if peer := e.PeerProfile(userID); peer != nil {
			friends = append(friends, *peer)
		}
	}
	return friends, nil
}
