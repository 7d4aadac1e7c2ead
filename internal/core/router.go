package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/wirechat-rooms/internal/store"
)

// Send relays content to every subscriber of roomID (the sender included)
// as a message from the username bound to connID. An empty roomID targets
// the bound room. Unbound connections get an unauthenticated error and
// nothing is broadcast. Blank content from a bound connection is rejected.
func (h *Hub) Send(connID, roomID, content string) (*ChatMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.registry.Lookup(connID)
	if !ok {
		h.notifyError(connID, errUnauthenticated)
		return nil, errUnauthenticated
	}
	if strings.TrimSpace(content) == "" {
		h.notifyError(connID, errEmptyMessage)
		return nil, errEmptyMessage
	}
	if roomID == "" {
		roomID = b.RoomID
	}

	msg := &ChatMessage{
		ID:        h.newID(),
		RoomID:    roomID,
		Sender:    b.Username,
		Content:   content,
		CreatedAt: h.now().UTC(),
	}
	h.bus.ToRoom(roomID, &Event{Kind: EventReceiveMessage, Room: roomID, Message: msg})

	h.log.Debug().Str("conn_id", connID).Str("room_id", roomID).Str("message_id", msg.ID).Msg("message relayed")
	return msg, nil
}

// UpdateRoom applies update through the room store and announces the
// resulting room to every connection.
func (h *Hub) UpdateRoom(ctx context.Context, roomID string, update store.RoomUpdate) (*store.Room, error) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()

	room, err := h.rooms.UpdateRoom(ctx, roomID, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errRoomNotFound
		}
		h.log.Error().Err(err).Str("room_id", roomID).Msg("update room")
		return nil, fmt.Errorf("update room: %w", err)
	}

	h.mu.Lock()
	h.bus.ToAll(&Event{Kind: EventRoomUpdated, Room: room.ID, RoomInfo: room})
	h.mu.Unlock()

	h.log.Info().Str("room_id", room.ID).Str("name", room.Name).Msg("room updated")
	return room, nil
}

// DeleteRoom deletes the room through the room store, announces it to every
// connection and discards its membership.
func (h *Hub) DeleteRoom(ctx context.Context, roomID string) error {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()

	found, err := h.rooms.DeleteRoom(ctx, roomID)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Msg("delete room")
		return fmt.Errorf("delete room: %w", err)
	}
	if !found {
		return errRoomNotFound
	}

	h.mu.Lock()
	h.bus.ToAll(&Event{Kind: EventRoomDeleted, Room: roomID})
	h.members.DropRoom(roomID)
	h.mu.Unlock()

	h.log.Info().Str("room_id", roomID).Msg("room deleted")
	return nil
}
