package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinRoom    = "joinRoom"
	InboundTypeLeaveRoom   = "leaveRoom"
	InboundTypeSendMessage = "sendMessage"
	InboundTypeUpdateRoom  = "updateRoom"
	InboundTypeDeleteRoom  = "deleteRoom"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
	OutboundTypeAck   = "ack"
)

// JoinRoomData requests to join a room as a registered user.
type JoinRoomData struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// LeaveRoomData requests to leave a room.
type LeaveRoomData struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// SendMessageData is a chat message from the client. Sender is accepted for
// compatibility and ignored.
type SendMessageData struct {
	RoomID  string `json:"roomId"`
	Sender  string `json:"sender,omitempty"`
	Content string `json:"content"`
}

// RoomUpdates lists the room fields a client may change.
type RoomUpdates struct {
	Name *string `json:"name,omitempty"`
}

// UpdateRoomData requests a room update.
type UpdateRoomData struct {
	RoomID  string      `json:"roomId"`
	Updates RoomUpdates `json:"updates"`
}

// DeleteRoomData requests a room deletion.
type DeleteRoomData struct {
	RoomID string `json:"roomId"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventUserJoined announces a user joining a room.
type EventUserJoined struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// EventActiveUsers is the membership snapshot of a room.
type EventActiveUsers struct {
	RoomID string   `json:"roomId"`
	Users  []string `json:"users"`
}

// EventMessage is a relayed chat message.
type EventMessage struct {
	ID        string `json:"id"`
	RoomID    string `json:"roomId"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// Room is the public representation of a room.
type Room struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// EventRoomDeleted announces a deleted room.
type EventRoomDeleted struct {
	RoomID string `json:"roomId"`
}

// DeleteAck acknowledges a deleteRoom request.
type DeleteAck struct {
	Success bool `json:"success"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
