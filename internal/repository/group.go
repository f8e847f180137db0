package repository

import (
	"context"
	"errors"

	"github.com/ccellsty/oryxchatfrfr/internal/models"

	"gorm.io/gorm"
)

// GroupRepository defines the interface for group and membership data
// operations. CreateGroup and CreateMembership are deliberately separate
// writes: a membership failure after group creation is surfaced to the
// service layer, which reports the orphan for repair.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	CreateMembership(ctx context.Context, membership *models.Membership) error
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	ListForUser(ctx context.Context, userID uint) ([]models.GroupWithRole, error)
	ListMembers(ctx context.Context, groupID uint) ([]models.Membership, error)
	DeleteGroup(ctx context.Context, id uint) error
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new group repository.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) CreateGroup(ctx context.Context, group *models.Group) error {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *groupRepository) CreateMembership(ctx context.Context, membership *models.Membership) error {
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Group", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &group, nil
}

func (r *groupRepository) ListForUser(ctx context.Context, userID uint) ([]models.GroupWithRole, error) {
	var memberships []models.Membership
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Group").
		Find(&memberships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	groups := make([]models.GroupWithRole, 0, len(memberships))
	for _, m := range memberships {
		if m.Group == nil {
			continue
		}
		groups = append(groups, models.GroupWithRole{Group: *m.Group, Role: m.Role})
	}
	return groups, nil
}

func (r *groupRepository) ListMembers(ctx context.Context, groupID uint) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Preload("User").
		Find(&memberships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return memberships, nil
}

func (r *groupRepository) DeleteGroup(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Group{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
