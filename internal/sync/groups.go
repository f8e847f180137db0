package sync

import (
	"context"
	"encoding/json"
	"sort"
	stdsync "sync"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
	"github.com/ccellsty/oryxchatfrfr/internal/observability"
	"github.com/ccellsty/oryxchatfrfr/internal/realtime"
	"github.com/ccellsty/oryxchatfrfr/internal/service"
)

// GroupDirectory is the signed-in user's in-memory view of the groups
// they belong to, with their role in each. Membership events carry only
// the membership row, not the group it names, so pushed changes trigger
// a refresh rather than a partial apply.
type GroupDirectory struct {
	userID  uint
	service *service.GroupService
	log     *observability.SyncLogger

	mu     stdsync.Mutex
	groups map[uint]models.GroupWithRole
}

// NewGroupDirectory returns an empty directory for the given user.
func NewGroupDirectory(userID uint, svc *service.GroupService) *GroupDirectory {
	return &GroupDirectory{
		userID:  userID,
		service: svc,
		log:     observability.NewSyncLogger("group_directory"),
		groups:  make(map[uint]models.GroupWithRole),
	}
}

// Refresh replaces the directory with the store's current state.
func (d *GroupDirectory) Refresh(ctx context.Context) error {
	groups, err := d.service.ListGroups(ctx, d.userID)
	if err != nil {
		d.log.LogError(ctx, "refresh", err)
		return err
	}

	next := make(map[uint]models.GroupWithRole, len(groups))
	for _, g := range groups {
		next[g.Group.ID] = g
	}

	d.mu.Lock()
	d.groups = next
	d.mu.Unlock()

	d.log.LogRefresh(ctx, len(groups))
	return nil
}

// CreateGroup creates a group owned by this user and applies it
// locally.
func (d *GroupDirectory) CreateGroup(ctx context.Context, name string) (*models.GroupWithRole, error) {
	group, err := d.service.CreateGroup(ctx, d.userID, name)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	_, existed := d.groups[group.Group.ID]
	d.groups[group.Group.ID] = *group
	d.mu.Unlock()

	outcome := "applied"
	if existed {
		outcome = "noop"
	}
	observability.ReconcilerApplies.WithLabelValues("group_directory", outcome).Inc()
	d.log.LogApply(ctx, string(realtime.OpInsert), group.Group.ID, outcome)
	return group, nil
}

// ApplyEvent reacts to a pushed membership change for this user. The
// row only names group and user ids, so the directory reconciles by
// refreshing from the store. Foreign rows are ignored.
func (d *GroupDirectory) ApplyEvent(ctx context.Context, ev realtime.Event) {
	var membership models.Membership
	if err := json.Unmarshal(ev.Row, &membership); err != nil {
		d.log.LogError(ctx, "decode", err)
		return
	}
	if membership.UserID != d.userID {
		return
	}

	if err := d.Refresh(ctx); err != nil {
		d.log.LogError(ctx, string(ev.Op), err)
	}
}

// Groups returns the directory ordered by group id for stable display.
func (d *GroupDirectory) Groups() []models.GroupWithRole {
	d.mu.Lock()
	defer d.mu.Unlock()

	groups := make([]models.GroupWithRole, 0, len(d.groups))
	for _, g := range d.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Group.ID < groups[j].Group.ID
	})
	return groups
}

// Group returns the directory entry for a group id, if present.
func (d *GroupDirectory) Group(groupID uint) (models.GroupWithRole, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.groups[groupID]
	return g, ok
}

// IsMember reports whether the view contains the group.
func (d *GroupDirectory) IsMember(groupID uint) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.groups[groupID]
	return ok
}
