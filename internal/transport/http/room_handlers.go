package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-rooms/internal/core"
	"github.com/vovakirdan/wirechat-rooms/internal/proto"
	"github.com/vovakirdan/wirechat-rooms/internal/store"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
// Mutations go through the hub so connected clients are notified.
type RoomHandlers struct {
	store store.RoomStore
	hub   *core.Hub
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(st store.RoomStore, hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		store: st,
		hub:   hub,
		log:   logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// UpdateRoomRequest represents the update room request body.
type UpdateRoomRequest struct {
	Name *string `json:"name" binding:"omitempty,min=1,max=100"`
}

// CreateRoom handles room creation.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.store.CreateRoom(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().
		Str("room_id", room.ID).
		Str("room_name", room.Name).
		Str("user_id", c.GetString(ContextKeyUserID)).
		Msg("room created")
	c.JSON(http.StatusCreated, roomToProto(room))
}

// ListRooms handles listing rooms, oldest first.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.store.ListRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]*proto.Room, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, roomToProto(room))
	}

	c.JSON(http.StatusOK, response)
}

// GetRoom returns a single room.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	room, err := h.store.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Str("room_id", c.Param("id")).Msg("failed to get room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, roomToProto(room))
}

// UpdateRoom renames a room and broadcasts roomUpdated.
// PATCH /api/rooms/:id
func (h *RoomHandlers) UpdateRoom(c *gin.Context) {
	var req UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid update room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.hub.UpdateRoom(c.Request.Context(), c.Param("id"), store.RoomUpdate{Name: req.Name})
	if err != nil {
		h.coreErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, roomToProto(room))
}

// DeleteRoom deletes a room and broadcasts roomDeleted.
// DELETE /api/rooms/:id
func (h *RoomHandlers) DeleteRoom(c *gin.Context) {
	if err := h.hub.DeleteRoom(c.Request.Context(), c.Param("id")); err != nil {
		h.coreErrorResponse(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ActiveUsers returns the usernames currently joined to a room.
// GET /api/rooms/:id/active
func (h *RoomHandlers) ActiveUsers(c *gin.Context) {
	roomID := c.Param("id")
	c.JSON(http.StatusOK, proto.EventActiveUsers{
		RoomID: roomID,
		Users:  h.hub.ActiveUsers(roomID),
	})
}

func (h *RoomHandlers) coreErrorResponse(c *gin.Context, err error) {
	var ce *core.CoreError
	if !errors.As(err, &ce) {
		h.log.Error().Err(err).Str("room_id", c.Param("id")).Msg("room operation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch ce.Code {
	case core.ErrCodeNotFound:
		status = http.StatusNotFound
	case core.ErrCodeBadRequest:
		status = http.StatusBadRequest
	}
	c.JSON(status, ErrorResponse{Error: ce.Message})
}
