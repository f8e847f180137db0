package models

import "time"

// EdgeStatus represents the status of a friend edge.
type EdgeStatus string

const (
	// EdgeStatusPending indicates a request awaiting the recipient's response.
	EdgeStatusPending EdgeStatus = "pending"
	// EdgeStatusAccepted indicates an established friendship.
	EdgeStatusAccepted EdgeStatus = "accepted"
)

// RespondAction is the recipient's decision on a pending edge.
type RespondAction string

const (
	// RespondAccept transitions a pending edge to accepted.
	RespondAccept RespondAction = "accept"
	// RespondReject deletes the pending edge. No rejected state persists,
	// so the requester can immediately re-request.
	RespondReject RespondAction = "reject"
)

// FriendEdge represents a directed friend request between two profiles.
// Direction distinguishes sent from received requests; once accepted the
// edge is interpreted bidirectionally. At most one edge exists for any
// unordered pair regardless of direction.
type FriendEdge struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	RequesterID uint       `gorm:"not null;index:idx_friend_edges_pair" json:"requester_id"`
	RecipientID uint       `gorm:"not null;index:idx_friend_edges_pair" json:"recipient_id"`
	Status      EdgeStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`

	Requester *Profile `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Recipient *Profile `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
}

// TableName specifies the table name for GORM.
func (FriendEdge) TableName() string {
	return "friend_edges"
}

// Touches reports whether the edge involves the given user on either side.
func (e *FriendEdge) Touches(userID uint) bool {
	return e.RequesterID == userID || e.RecipientID == userID
}

// PeerOf returns the other side of the edge relative to userID.
func (e *FriendEdge) PeerOf(userID uint) uint {
	if e.RequesterID == userID {
		return e.RecipientID
	}
	return e.RequesterID
}

// PeerProfile returns the preloaded profile of the other side, if present.
func (e *FriendEdge) PeerProfile(userID uint) *Profile {
	if e.RequesterID == userID {
		return e.Recipient
	}
	return e.Requester
}
