// Package realtime delivers row-change events over Redis pub/sub and
// fans them out to websocket clients.
package realtime

import (
	"encoding/json"
	"fmt"
)

// Operation identifies the kind of row change an event carries.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// channelPrefix namespaces all pub/sub channels used by this package.
const channelPrefix = "realtime:"

// Event is a row change notification. Row holds the full row as JSON;
// for deletes it carries at least the primary key fields.
type Event struct {
	Table string          `json:"table"`
	Op    Operation       `json:"op"`
	Row   json.RawMessage `json:"row"`
}

// Encode serializes the event for publication.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses a published event payload.
func DecodeEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}

// FriendTopic is the topic carrying friend edge changes visible to a user.
func FriendTopic(userID uint) string {
	return fmt.Sprintf("friends:user:%d", userID)
}

// GroupMessagesTopic is the topic carrying message inserts for a group.
func GroupMessagesTopic(groupID uint) string {
	return fmt.Sprintf("messages:group:%d", groupID)
}

// GroupsTopic is the topic carrying group and membership changes for a user.
func GroupsTopic(userID uint) string {
	return fmt.Sprintf("groups:user:%d", userID)
}
