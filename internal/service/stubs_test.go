package service

import (
	"context"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
)

type friendRepoStub struct {
	createFn              func(context.Context, *models.FriendEdge) error
	getByIDFn             func(context.Context, uint) (*models.FriendEdge, error)
	getBetweenFn          func(context.Context, uint, uint) (*models.FriendEdge, error)
	listForUserFn         func(context.Context, uint) ([]models.FriendEdge, error)
	listPendingIncomingFn func(context.Context, uint) ([]models.FriendEdge, error)
	updateStatusIfFn      func(context.Context, uint, models.EdgeStatus, models.EdgeStatus) (int64, error)
	deleteIfFn            func(context.Context, uint, models.EdgeStatus) (int64, error)
}

func (s *friendRepoStub) Create(ctx context.Context, edge *models.FriendEdge) error {
	return s.createFn(ctx, edge)
}
func (s *friendRepoStub) GetByID(ctx context.Context, id uint) (*models.FriendEdge, error) {
	return s.getByIDFn(ctx, id)
}
func (s *friendRepoStub) GetBetween(ctx context.Context, userID1, userID2 uint) (*models.FriendEdge, error) {
	return s.getBetweenFn(ctx, userID1, userID2)
}
func (s *friendRepoStub) ListForUser(ctx context.Context, userID uint) ([]models.FriendEdge, error) {
	return s.listForUserFn(ctx, userID)
}
func (s *friendRepoStub) ListPendingIncoming(ctx context.Context, userID uint) ([]models.FriendEdge, error) {
	return s.listPendingIncomingFn(ctx, userID)
}
func (s *friendRepoStub) UpdateStatusIf(ctx context.Context, id uint, expected, next models.EdgeStatus) (int64, error) {
	return s.updateStatusIfFn(ctx, id, expected, next)
}
func (s *friendRepoStub) DeleteIf(ctx context.Context, id uint, expected models.EdgeStatus) (int64, error) {
	return s.deleteIfFn(ctx, id, expected)
}

type profileRepoStub struct {
	createFn        func(context.Context, *models.Profile) error
	getByIDFn       func(context.Context, uint) (*models.Profile, error)
	getByUsernameFn func(context.Context, string) (*models.Profile, error)
	updateFn        func(context.Context, *models.Profile) error
}

func (s *profileRepoStub) Create(ctx context.Context, profile *models.Profile) error {
	return s.createFn(ctx, profile)
}
func (s *profileRepoStub) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	return s.getByIDFn(ctx, id)
}
func (s *profileRepoStub) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *profileRepoStub) Update(ctx context.Context, profile *models.Profile) error {
	return s.updateFn(ctx, profile)
}

type accountRepoStub struct {
	createFn     func(context.Context, *models.Account) error
	getByEmailFn func(context.Context, string) (*models.Account, error)
	getByIDFn    func(context.Context, uint) (*models.Account, error)
}

func (s *accountRepoStub) Create(ctx context.Context, account *models.Account) error {
	return s.createFn(ctx, account)
}
func (s *accountRepoStub) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *accountRepoStub) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	return s.getByIDFn(ctx, id)
}

type groupRepoStub struct {
	createGroupFn      func(context.Context, *models.Group) error
	createMembershipFn func(context.Context, *models.Membership) error
	getByIDFn          func(context.Context, uint) (*models.Group, error)
	listForUserFn      func(context.Context, uint) ([]models.GroupWithRole, error)
	listMembersFn      func(context.Context, uint) ([]models.Membership, error)
	deleteGroupFn      func(context.Context, uint) error
}

func (s *groupRepoStub) CreateGroup(ctx context.Context, group *models.Group) error {
	return s.createGroupFn(ctx, group)
}
func (s *groupRepoStub) CreateMembership(ctx context.Context, membership *models.Membership) error {
	return s.createMembershipFn(ctx, membership)
}
func (s *groupRepoStub) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	return s.getByIDFn(ctx, id)
}
func (s *groupRepoStub) ListForUser(ctx context.Context, userID uint) ([]models.GroupWithRole, error) {
	return s.listForUserFn(ctx, userID)
}
func (s *groupRepoStub) ListMembers(ctx context.Context, groupID uint) ([]models.Membership, error) {
	return s.listMembersFn(ctx, groupID)
}
func (s *groupRepoStub) DeleteGroup(ctx context.Context, id uint) error {
	return s.deleteGroupFn(ctx, id)
}

type messageRepoStub struct {
	createFn      func(context.Context, *models.Message) error
	getByIDFn     func(context.Context, uint) (*models.Message, error)
	listByGroupFn func(context.Context, uint) ([]models.Message, error)
}

func (s *messageRepoStub) Create(ctx context.Context, message *models.Message) error {
	return s.createFn(ctx, message)
}
func (s *messageRepoStub) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	return s.getByIDFn(ctx, id)
}
func (s *messageRepoStub) ListByGroup(ctx context.Context, groupID uint) ([]models.Message, error) {
	return s.listByGroupFn(ctx, groupID)
}
