package core

import "github.com/vovakirdan/wirechat-rooms/internal/store"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom binds the connection to a room under a verified identity.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom releases the connection's binding.
	CommandLeaveRoom
	// CommandSendMessage relays a chat message to room subscribers.
	CommandSendMessage
	// CommandUpdateRoom renames a room and announces it to everyone.
	CommandUpdateRoom
	// CommandDeleteRoom deletes a room and announces it to everyone.
	CommandDeleteRoom
)

// Command represents an action requested by a connection.
type Command struct {
	Kind    CommandKind
	Room    string
	UserID  string
	Content string
	Update  store.RoomUpdate
	// AckID, when set, asks for an EventAck carrying the command result.
	AckID string
}

// DeleteResult is the acknowledgement payload of CommandDeleteRoom.
type DeleteResult struct {
	Success bool
}
