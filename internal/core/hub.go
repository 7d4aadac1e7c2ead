package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-rooms/internal/store"
)

// Identity is a verified user.
type Identity struct {
	ID       string
	Username string
}

// IdentityVerifier resolves an opaque user id to a verified identity.
// It returns ErrIdentityNotFound for unknown ids.
type IdentityVerifier interface {
	Resolve(ctx context.Context, userID string) (*Identity, error)
}

// RoomStore is the subset of room persistence the Hub mutates through.
type RoomStore interface {
	UpdateRoom(ctx context.Context, id string, update store.RoomUpdate) (*store.Room, error)
	DeleteRoom(ctx context.Context, id string) (bool, error)
}

// Hub keeps the connection registry and room membership consistent and
// publishes presence and chat events through a Broadcaster.
type Hub struct {
	// mu serializes compound transitions across registry, membership and
	// broadcasts. It is never held while calling the verifier or the store.
	mu       sync.Mutex
	registry *Registry
	members  *Membership

	// roomsMu orders room mutations so broadcasts follow store commit order.
	// It is held across store calls and never taken while holding mu.
	roomsMu sync.Mutex

	bus      Broadcaster
	verifier IdentityVerifier
	rooms    RoomStore
	log      *zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewHub creates a hub publishing through bus.
func NewHub(bus Broadcaster, verifier IdentityVerifier, rooms RoomStore, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		registry: NewRegistry(),
		members:  NewMembership(),
		bus:      bus,
		verifier: verifier,
		rooms:    rooms,
		log:      logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// ActiveUsers returns a snapshot of the usernames active in roomID.
func (h *Hub) ActiveUsers(roomID string) []string {
	return h.members.Members(roomID)
}

// Binding returns the binding of connID, if any.
func (h *Hub) Binding(connID string) (Binding, bool) {
	return h.registry.Lookup(connID)
}

// Notify delivers ev to a single connection.
func (h *Hub) Notify(connID string, ev *Event) {
	h.bus.ToOne(connID, ev)
}

// Dispatch executes a command on behalf of connID. Failures of room
// mutations are reported to the connection; join and send report their own.
func (h *Hub) Dispatch(ctx context.Context, connID string, cmd *Command) {
	var (
		result any
		err    error
	)

	switch cmd.Kind {
	case CommandJoinRoom:
		err = h.Join(ctx, connID, cmd.Room, cmd.UserID)
	case CommandLeaveRoom:
		h.Leave(connID, cmd.Room, cmd.UserID)
	case CommandSendMessage:
		var msg *ChatMessage
		msg, err = h.Send(connID, cmd.Room, cmd.Content)
		if err == nil {
			result = msg
		}
	case CommandUpdateRoom:
		var room *store.Room
		room, err = h.UpdateRoom(ctx, cmd.Room, cmd.Update)
		if err == nil {
			result = room
		} else {
			h.notifyError(connID, err)
		}
	case CommandDeleteRoom:
		err = h.DeleteRoom(ctx, cmd.Room)
		result = DeleteResult{Success: err == nil}
		if err != nil {
			h.notifyError(connID, err)
		}
	default:
		h.notifyError(connID, coreError(ErrCodeBadRequest, "unknown command"))
		return
	}

	if cmd.AckID != "" {
		h.bus.ToOne(connID, &Event{Kind: EventAck, AckID: cmd.AckID, Result: result})
	}
}

func (h *Hub) notifyError(connID string, err error) {
	var ce *CoreError
	if !errors.As(err, &ce) {
		ce = errInternal
	}
	h.bus.ToOne(connID, &Event{Kind: EventError, Error: ce})
}

func (h *Hub) activeUsersEvent(roomID string) *Event {
	return &Event{Kind: EventActiveUsers, Room: roomID, Users: h.members.Members(roomID)}
}
