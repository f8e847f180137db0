package repository

import (
	"context"
	"errors"

	"github.com/ccellsty/oryxchatfrfr/internal/models"

	"gorm.io/gorm"
)

// FriendRepository defines the interface for friend edge data operations.
// UpdateStatusIf and DeleteIf are conditional writes: they succeed only if
// the row is still in the expected prior status, and report the number of
// rows affected so callers can detect a lost optimistic race.
type FriendRepository interface {
	Create(ctx context.Context, edge *models.FriendEdge) error
	GetByID(ctx context.Context, id uint) (*models.FriendEdge, error)
	GetBetween(ctx context.Context, userID1, userID2 uint) (*models.FriendEdge, error)
	ListForUser(ctx context.Context, userID uint) ([]models.FriendEdge, error)
	ListPendingIncoming(ctx context.Context, userID uint) ([]models.FriendEdge, error)
	UpdateStatusIf(ctx context.Context, id uint, expected, next models.EdgeStatus) (int64, error)
	DeleteIf(ctx context.Context, id uint, expected models.EdgeStatus) (int64, error)
}

type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository.
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) Create(ctx context.Context, edge *models.FriendEdge) error {
	if err := r.db.WithContext(ctx).Create(edge).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *friendRepository) GetByID(ctx context.Context, id uint) (*models.FriendEdge, error) {
	var edge models.FriendEdge
	if err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Recipient").
		First(&edge, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("FriendEdge", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &edge, nil
}

func (r *friendRepository) GetBetween(ctx context.Context, userID1, userID2 uint) (*models.FriendEdge, error) {
	var edge models.FriendEdge

	// Find an edge where users appear as requester/recipient in either order.
	if err := r.db.WithContext(ctx).
		Where("(requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)",
			userID1, userID2, userID2, userID1).
		Preload("Requester").
		Preload("Recipient").
		First(&edge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // No edge exists for the pair.
		}
		return nil, models.NewInternalError(err)
	}
	return &edge, nil
}

func (r *friendRepository) ListForUser(ctx context.Context, userID uint) ([]models.FriendEdge, error) {
	var edges []models.FriendEdge
	if err := r.db.WithContext(ctx).
		Where("requester_id = ? OR recipient_id = ?", userID, userID).
		Preload("Requester").
		Preload("Recipient").
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

func (r *friendRepository) ListPendingIncoming(ctx context.Context, userID uint) ([]models.FriendEdge, error) {
	var edges []models.FriendEdge
	if err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND status = ?", userID, models.EdgeStatusPending).
		Preload("Requester").
		Preload("Recipient").
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

func (r *friendRepository) UpdateStatusIf(ctx context.Context, id uint, expected, next models.EdgeStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.FriendEdge{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *friendRepository) DeleteIf(ctx context.Context, id uint, expected models.EdgeStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, expected).
		Delete(&models.FriendEdge{})
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}
