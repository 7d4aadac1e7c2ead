package core

import "github.com/vovakirdan/wirechat-rooms/internal/store"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventUserJoined announces a verified user joining a room.
	EventUserJoined EventKind = iota
	// EventActiveUsers carries a fresh membership snapshot of a room.
	EventActiveUsers
	// EventReceiveMessage relays a chat message to room subscribers.
	EventReceiveMessage
	// EventRoomUpdated announces changed room metadata to every connection.
	EventRoomUpdated
	// EventRoomDeleted announces a deleted room to every connection.
	EventRoomDeleted
	// EventError notifies a single connection about a failed request.
	EventError
	// EventAck answers a command that carried an AckID.
	EventAck
)

var eventNames = [...]string{
	EventUserJoined:     "userJoined",
	EventActiveUsers:    "activeUsers",
	EventReceiveMessage: "receiveMessage",
	EventRoomUpdated:    "roomUpdated",
	EventRoomDeleted:    "roomDeleted",
	EventError:          "error",
	EventAck:            "ack",
}

// String returns the wire name of the event.
func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind EventKind
	Room string

	// EventUserJoined
	UserID string
	User   string
	Notice string

	// EventActiveUsers
	Users []string

	Message  *ChatMessage // EventReceiveMessage
	RoomInfo *store.Room  // EventRoomUpdated
	Error    *CoreError   // EventError

	// EventAck
	AckID  string
	Result any
}
