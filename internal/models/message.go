package models

import "time"

// Message represents a group chat message. Immutable once created. At
// least one of Content/AttachmentURL is non-empty.
type Message struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	GroupID       uint      `gorm:"not null;index:idx_messages_group_created,priority:1" json:"group_id"`
	SenderID      uint      `gorm:"not null" json:"sender_id"`
	Content       string    `gorm:"type:text" json:"content,omitempty"`
	AttachmentURL string    `gorm:"size:512" json:"attachment_url,omitempty"`
	CreatedAt     time.Time `gorm:"index:idx_messages_group_created,priority:2" json:"created_at"`

	Sender *Profile `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// TableName specifies the table name for GORM.
func (Message) TableName() string {
	return "messages"
}

// Before reports whether m sorts before other in a message stream.
// Streams are ordered by created-at ascending, ties broken by id so
// ordering is deterministic.
func (m *Message) Before(other *Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

// Empty reports whether the message carries neither content nor an
// attachment reference.
func (m *Message) Empty() bool {
	return m.Content == "" && m.AttachmentURL == ""
}
