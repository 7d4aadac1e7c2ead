package core

import "time"

// ChatMessage is a relayed chat message. Sender is always the verified
// username bound to the sending connection.
type ChatMessage struct {
	ID        string
	RoomID    string
	Sender    string
	Content   string
	CreatedAt time.Time
}
