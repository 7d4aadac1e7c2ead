package core

import (
	"context"
	"errors"
	"fmt"
)

// Join verifies userID and binds connID to roomID under the resolved
// username. Every subscriber of the room, the joiner included, receives
// userJoined followed by a fresh activeUsers snapshot.
//
// A connection already bound elsewhere leaves its previous room first.
func (h *Hub) Join(ctx context.Context, connID, roomID, userID string) error {
	ident, err := h.verifier.Resolve(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			h.log.Debug().Str("conn_id", connID).Str("user_id", userID).Msg("join with unknown identity")
			h.notifyError(connID, errUnknownIdentity)
			return errUnknownIdentity
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("resolve identity")
		h.notifyError(connID, errInternal)
		return fmt.Errorf("resolve identity: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	prev, wasBound := h.registry.Lookup(connID)

	if !h.bus.Subscribe(connID, roomID) {
		// Disconnected while the identity was being resolved.
		h.log.Debug().Str("conn_id", connID).Str("room_id", roomID).Msg("join dropped, connection gone")
		return nil
	}

	if wasBound && (prev.RoomID != roomID || prev.Username != ident.Username) {
		h.members.Remove(prev.RoomID, prev.Username)
		if prev.RoomID != roomID {
			h.bus.Unsubscribe(connID, prev.RoomID)
			h.bus.ToRoom(prev.RoomID, h.activeUsersEvent(prev.RoomID))
		}
	}

	h.registry.Bind(Binding{
		ConnID:   connID,
		UserID:   ident.ID,
		Username: ident.Username,
		RoomID:   roomID,
	})
	h.members.Add(roomID, ident.Username)

	h.bus.ToRoom(roomID, &Event{
		Kind:   EventUserJoined,
		Room:   roomID,
		UserID: ident.ID,
		User:   ident.Username,
		Notice: ident.Username + " joined the room.",
	})
	h.bus.ToRoom(roomID, h.activeUsersEvent(roomID))

	h.log.Info().Str("conn_id", connID).Str("room_id", roomID).Str("user", ident.Username).Msg("user joined room")
	return nil
}

// Leave unsubscribes connID from roomID and releases its binding. The room
// the connection was bound to receives a fresh activeUsers snapshot. Leaving
// without a binding is a no-op.
func (h *Hub) Leave(connID, roomID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if roomID != "" {
		h.bus.Unsubscribe(connID, roomID)
	}

	b, ok := h.registry.Unbind(connID)
	if !ok {
		h.log.Debug().Str("conn_id", connID).Str("user_id", userID).Msg("leave without binding")
		return
	}
	if b.RoomID != roomID {
		h.bus.Unsubscribe(connID, b.RoomID)
	}

	h.members.Remove(b.RoomID, b.Username)
	h.bus.ToRoom(b.RoomID, h.activeUsersEvent(b.RoomID))

	h.log.Info().Str("conn_id", connID).Str("room_id", b.RoomID).Str("user", b.Username).Msg("user left room")
}

// Disconnect reconciles a connection dropped by the transport. The room it
// was bound to receives a fresh activeUsers snapshot; unbound connections
// produce no events.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.registry.Unbind(connID)
	if !ok {
		return
	}

	h.members.Remove(b.RoomID, b.Username)
	h.bus.ToRoom(b.RoomID, h.activeUsersEvent(b.RoomID))

	h.log.Info().Str("conn_id", connID).Str("room_id", b.RoomID).Str("user", b.Username).Msg("user disconnected")
}
