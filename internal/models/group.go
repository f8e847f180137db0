package models

import "time"

// MembershipRole defines a member's role in a group.
type MembershipRole string

const (
	// MembershipRoleOwner is the group creator's role.
	MembershipRoleOwner MembershipRole = "owner"
	// MembershipRoleAdmin is an elevated member role.
	MembershipRoleAdmin MembershipRole = "admin"
	// MembershipRoleMember is the default member role.
	MembershipRoleMember MembershipRole = "member"
)

// Group represents a group chat.
type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	OwnerID   uint      `gorm:"not null;index" json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`

	Owner *Profile `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// TableName specifies the table name for GORM.
func (Group) TableName() string {
	return "groups"
}

// Membership maps users to groups and tracks role. Exactly one row exists
// per (group, user).
type Membership struct {
	GroupID   uint           `gorm:"primaryKey;autoIncrement:false" json:"group_id"`
	UserID    uint           `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Role      MembershipRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`

	Group *Group   `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	User  *Profile `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for GORM.
func (Membership) TableName() string {
	return "memberships"
}

// GroupWithRole annotates a group with the requesting user's role, for
// list views.
type GroupWithRole struct {
	Group Group          `json:"group"`
	Role  MembershipRole `json:"role"`
}
