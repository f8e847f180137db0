package service

import (
	"context"
	"strings"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
	"github.com/ccellsty/oryxchatfrfr/internal/observability"
	"github.com/ccellsty/oryxchatfrfr/internal/realtime"
	"github.com/ccellsty/oryxchatfrfr/internal/repository"
)

// GroupService provides group and membership business logic.
type GroupService struct {
	groupRepo repository.GroupRepository
	publisher *realtime.Publisher
}

// NewGroupService returns a new GroupService.
func NewGroupService(groupRepo repository.GroupRepository, publisher *realtime.Publisher) *GroupService {
	return &GroupService{groupRepo: groupRepo, publisher: publisher}
}

// CreateGroup creates a group and enrolls the creator as its owner.
// The two writes are not atomic: if the membership write fails the
// group row already exists, and the error carries its id so the caller
// can surface or repair the orphan.
func (s *GroupService) CreateGroup(ctx context.Context, ownerID uint, name string) (*models.GroupWithRole, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("group name must not be empty")
	}

	group := &models.Group{Name: name, OwnerID: ownerID}
	if err := s.groupRepo.CreateGroup(ctx, group); err != nil {
		return nil, err
	}

	membership := &models.Membership{
		GroupID: group.ID,
		UserID:  ownerID,
		Role:    models.MembershipRoleOwner,
	}
	if err := s.groupRepo.CreateMembership(ctx, membership); err != nil {
		observability.Logger.ErrorContext(ctx, "group created without owner membership",
			"group_id", group.ID, "owner_id", ownerID, "error", err)
		return nil, models.NewPartialCreateError(group.ID, err)
	}

	s.publisher.PublishMembership(ctx, realtime.OpInsert, membership)
	return &models.GroupWithRole{Group: *group, Role: models.MembershipRoleOwner}, nil
}

// AddMember enrolls a user into a group. Only existing members with the
// owner or admin role may add others.
func (s *GroupService) AddMember(ctx context.Context, actorID, groupID, userID uint) (*models.Membership, error) {
	actorRole, err := s.roleOf(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if actorRole != models.MembershipRoleOwner && actorRole != models.MembershipRoleAdmin {
		return nil, models.NewUnauthorizedError("only owners and admins can add members")
	}

	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.UserID == userID {
			// Enrolling an existing member is a no-op.
			existing := m
			return &existing, nil
		}
	}

	membership := &models.Membership{
		GroupID: groupID,
		UserID:  userID,
		Role:    models.MembershipRoleMember,
	}
	if err := s.groupRepo.CreateMembership(ctx, membership); err != nil {
		return nil, err
	}

	s.publisher.PublishMembership(ctx, realtime.OpInsert, membership)
	return membership, nil
}

// ListGroups returns the groups the user belongs to with their role.
func (s *GroupService) ListGroups(ctx context.Context, userID uint) ([]models.GroupWithRole, error) {
	return s.groupRepo.ListForUser(ctx, userID)
}

// Members returns a group's membership roster. Callers must themselves
// be members.
func (s *GroupService) Members(ctx context.Context, userID, groupID uint) ([]models.Membership, error) {
	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.UserID == userID {
			return members, nil
		}
	}
	return nil, models.NewUnauthorizedError("not a member of this group")
}

// IsMember reports whether a user belongs to a group.
func (s *GroupService) IsMember(ctx context.Context, userID, groupID uint) (bool, error) {
	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *GroupService) roleOf(ctx context.Context, groupID, userID uint) (models.MembershipRole, error) {
	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return "", err
	}
	for _, m := range members {
		if m.UserID == userID {
			return m.Role, nil
		}
	}
	return "", models.NewUnauthorizedError("not a member of this group")
}
