package http

import (
	"encoding/json"
	"time"

	"github.com/vovakirdan/wirechat-rooms/internal/core"
	"github.com/vovakirdan/wirechat-rooms/internal/proto"
	"github.com/vovakirdan/wirechat-rooms/internal/store"
)

const (
	timeLayout     = "2006-01-02T15:04:05.000Z07:00"
	maxRoomNameLen = 100
)

func badRequest(msg string) *core.CoreError {
	return &core.CoreError{Code: core.ErrCodeBadRequest, Message: msg}
}

func inboundToCommand(inbound proto.Inbound) (*core.Command, *core.CoreError) {
	switch inbound.Type {
	case proto.InboundTypeJoinRoom:
		var join proto.JoinRoomData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, badRequest("invalid joinRoom payload")
		}
		// An empty userId is left to the verifier, which reports unknown_identity.
		if join.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		return &core.Command{
			Kind:   core.CommandJoinRoom,
			Room:   join.RoomID,
			UserID: join.UserID,
			AckID:  inbound.ID,
		}, nil
	case proto.InboundTypeLeaveRoom:
		var leave proto.LeaveRoomData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return nil, badRequest("invalid leaveRoom payload")
		}
		if leave.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		return &core.Command{
			Kind:   core.CommandLeaveRoom,
			Room:   leave.RoomID,
			UserID: leave.UserID,
			AckID:  inbound.ID,
		}, nil
	case proto.InboundTypeSendMessage:
		var msg proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, badRequest("invalid sendMessage payload")
		}
		// msg.Sender is deliberately dropped: the hub stamps the bound username.
		return &core.Command{
			Kind:    core.CommandSendMessage,
			Room:    msg.RoomID,
			Content: msg.Content,
			AckID:   inbound.ID,
		}, nil
	case proto.InboundTypeUpdateRoom:
		var upd proto.UpdateRoomData
		if err := json.Unmarshal(inbound.Data, &upd); err != nil {
			return nil, badRequest("invalid updateRoom payload")
		}
		if upd.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		if name := upd.Updates.Name; name != nil && (*name == "" || len(*name) > maxRoomNameLen) {
			return nil, badRequest("name must be 1-100 characters")
		}
		return &core.Command{
			Kind:   core.CommandUpdateRoom,
			Room:   upd.RoomID,
			Update: store.RoomUpdate{Name: upd.Updates.Name},
			AckID:  inbound.ID,
		}, nil
	case proto.InboundTypeDeleteRoom:
		var del proto.DeleteRoomData
		if err := json.Unmarshal(inbound.Data, &del); err != nil {
			return nil, badRequest("invalid deleteRoom payload")
		}
		if del.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		return &core.Command{
			Kind:  core.CommandDeleteRoom,
			Room:  del.RoomID,
			AckID: inbound.ID,
		}, nil
	default:
		return nil, badRequest("unknown message type")
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventUserJoined:
		return eventFrame(event, proto.EventUserJoined{
			UserID:   event.UserID,
			Username: event.User,
			Message:  event.Notice,
		})
	case core.EventActiveUsers:
		return eventFrame(event, proto.EventActiveUsers{
			RoomID: event.Room,
			Users:  event.Users,
		})
	case core.EventReceiveMessage:
		return eventFrame(event, messageToProto(event.Message))
	case core.EventRoomUpdated:
		return eventFrame(event, roomToProto(event.RoomInfo))
	case core.EventRoomDeleted:
		return eventFrame(event, proto.EventRoomDeleted{RoomID: event.Room})
	case core.EventAck:
		return proto.Outbound{
			Type: proto.OutboundTypeAck,
			ID:   event.AckID,
			Data: ackPayload(event.Result),
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Message: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Message: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventFrame(event *core.Event, data any) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: event.Kind.String(),
		Data:  data,
	}
}

func ackPayload(result any) any {
	switch r := result.(type) {
	case *core.ChatMessage:
		return messageToProto(r)
	case *store.Room:
		return roomToProto(r)
	case core.DeleteResult:
		return proto.DeleteAck{Success: r.Success}
	default:
		return nil
	}
}

func messageToProto(msg *core.ChatMessage) *proto.EventMessage {
	if msg == nil {
		return nil
	}
	return &proto.EventMessage{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		Sender:    msg.Sender,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt.Format(timeLayout),
	}
}

func roomToProto(room *store.Room) *proto.Room {
	if room == nil {
		return nil
	}
	return &proto.Room{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		CreatedAt:   formatTime(room.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
