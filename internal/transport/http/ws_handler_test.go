package http

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/wirechat-rooms/internal/core"
	"github.com/vovakirdan/wirechat-rooms/internal/proto"
)

func TestHealthEndpoint(t *testing.T) {
	s := startTestServer(t)

	resp, err := s.ts.Client().Get(s.ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketUpgradeThroughServerHandler(t *testing.T) {
	s := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := s.dial(t, ctx)

	// Any frame back proves the upgraded connection reached the read loop.
	send(t, ctx, conn, proto.InboundTypeSendMessage, "", proto.SendMessageData{Content: "hello"})
	expectError(t, ctx, conn, core.ErrCodeUnauthenticated)

	resp, err := s.ts.Client().Get(s.ts.URL + "/api/rooms")
	if err != nil {
		t.Fatalf("rooms request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 401 {
		t.Fatalf("expected gin routes behind the mux, got status %d", resp.StatusCode)
	}
}

func TestWebSocketRoomScenario(t *testing.T) {
	s := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := s.register(t, "alice")
	bob := s.register(t, "bob")
	room, err := s.store.CreateRoom(ctx, "General", "")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	connA := s.dial(t, ctx)
	connB := s.dial(t, ctx)

	join(t, ctx, connA, room.ID, alice, "alice")
	join(t, ctx, connB, room.ID, bob, "alice", "bob")

	var joined proto.EventUserJoined
	expectEvent(t, ctx, connA, "userJoined", &joined)
	if joined.UserID != bob.UserID || joined.Username != "bob" || joined.Message == "" {
		t.Fatalf("unexpected userJoined: %+v", joined)
	}
	expectActiveUsers(t, ctx, connA, room.ID, "alice", "bob")

	// The claimed sender is ignored in favour of the bound username.
	send(t, ctx, connB, proto.InboundTypeSendMessage, "m1", proto.SendMessageData{
		RoomID:  room.ID,
		Sender:  "mallory",
		Content: "hi there",
	})

	for _, conn := range []*websocket.Conn{connA, connB} {
		var msg proto.EventMessage
		expectEvent(t, ctx, conn, "receiveMessage", &msg)
		if msg.Sender != "bob" || msg.Content != "hi there" || msg.RoomID != room.ID {
			t.Fatalf("unexpected message: %+v", msg)
		}
		if _, err := time.Parse(time.RFC3339, msg.CreatedAt); err != nil {
			t.Fatalf("createdAt not RFC3339: %q", msg.CreatedAt)
		}
	}

	ack := readFrame(t, ctx, connB)
	if ack.Type != proto.OutboundTypeAck || ack.ID != "m1" {
		t.Fatalf("expected ack m1, got %+v", ack)
	}
	var acked proto.EventMessage
	if err := json.Unmarshal(ack.Data, &acked); err != nil || acked.Sender != "bob" || acked.ID == "" {
		t.Fatalf("unexpected ack payload: %s (%v)", ack.Data, err)
	}

	send(t, ctx, connB, proto.InboundTypeLeaveRoom, "", proto.LeaveRoomData{RoomID: room.ID, UserID: bob.UserID})
	expectActiveUsers(t, ctx, connA, room.ID, "alice")

	if users := s.hub.ActiveUsers(room.ID); len(users) != 1 || users[0] != "alice" {
		t.Fatalf("unexpected active users after leave: %v", users)
	}
}

func TestWebSocketErrorsGoToSenderOnly(t *testing.T) {
	s := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := s.register(t, "alice")
	connA := s.dial(t, ctx)
	connB := s.dial(t, ctx)
	join(t, ctx, connA, "lobby", alice, "alice")

	send(t, ctx, connB, proto.InboundTypeSendMessage, "", proto.SendMessageData{RoomID: "lobby", Content: "hello"})
	expectError(t, ctx, connB, core.ErrCodeUnauthenticated)

	send(t, ctx, connB, proto.InboundTypeJoinRoom, "", proto.JoinRoomData{RoomID: "lobby", UserID: "ghost"})
	expectError(t, ctx, connB, core.ErrCodeUnknownIdentity)

	send(t, ctx, connB, proto.InboundTypeJoinRoom, "", proto.JoinRoomData{RoomID: "lobby"})
	expectError(t, ctx, connB, core.ErrCodeUnknownIdentity)

	send(t, ctx, connB, proto.InboundTypeJoinRoom, "", proto.JoinRoomData{UserID: alice.UserID})
	expectError(t, ctx, connB, core.ErrCodeBadRequest)

	send(t, ctx, connB, proto.InboundTypeSendMessage, "", proto.SendMessageData{RoomID: "lobby", Content: "  "})
	expectError(t, ctx, connB, core.ErrCodeUnauthenticated)

	send(t, ctx, connB, "shout", "", map[string]string{"roomId": "lobby"})
	expectError(t, ctx, connB, core.ErrCodeBadRequest)

	// Alice saw none of it: her next frame is her own message.
	send(t, ctx, connA, proto.InboundTypeSendMessage, "", proto.SendMessageData{Content: "still here"})
	var msg proto.EventMessage
	expectEvent(t, ctx, connA, "receiveMessage", &msg)
	if msg.Content != "still here" || msg.RoomID != "lobby" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestWebSocketDisconnectUpdatesPresence(t *testing.T) {
	s := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	connA := s.dial(t, ctx)
	connB := s.dial(t, ctx)
	join(t, ctx, connA, "lobby", alice, "alice")
	join(t, ctx, connB, "lobby", bob, "alice", "bob")
	expectEvent(t, ctx, connA, "userJoined", nil)
	expectActiveUsers(t, ctx, connA, "lobby", "alice", "bob")

	if err := connB.Close(websocket.StatusNormalClosure, "bye"); err != nil {
		t.Fatalf("close: %v", err)
	}

	expectActiveUsers(t, ctx, connA, "lobby", "alice")
}

func TestWebSocketRoomMutationsReachEveryone(t *testing.T) {
	s := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := s.register(t, "alice")
	bob := s.register(t, "bob")
	general, err := s.store.CreateRoom(ctx, "General", "")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	random, err := s.store.CreateRoom(ctx, "Random", "")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	connA := s.dial(t, ctx)
	connB := s.dial(t, ctx)
	join(t, ctx, connA, general.ID, alice, "alice")
	join(t, ctx, connB, random.ID, bob, "bob")

	send(t, ctx, connA, proto.InboundTypeUpdateRoom, "u1", proto.UpdateRoomData{
		RoomID:  random.ID,
		Updates: proto.RoomUpdates{Name: ptr("Off-topic")},
	})

	for _, conn := range []*websocket.Conn{connA, connB} {
		var updated proto.Room
		expectEvent(t, ctx, conn, "roomUpdated", &updated)
		if updated.ID != random.ID || updated.Name != "Off-topic" {
			t.Fatalf("unexpected roomUpdated: %+v", updated)
		}
	}
	if ack := readFrame(t, ctx, connA); ack.Type != proto.OutboundTypeAck || ack.ID != "u1" {
		t.Fatalf("expected ack u1, got %+v", ack)
	}

	send(t, ctx, connA, proto.InboundTypeDeleteRoom, "d1", proto.DeleteRoomData{RoomID: random.ID})
	for _, conn := range []*websocket.Conn{connA, connB} {
		var deleted proto.EventRoomDeleted
		expectEvent(t, ctx, conn, "roomDeleted", &deleted)
		if deleted.RoomID != random.ID {
			t.Fatalf("unexpected roomDeleted: %+v", deleted)
		}
	}
	ack := readFrame(t, ctx, connA)
	if ack.Type != proto.OutboundTypeAck || ack.ID != "d1" || !strings.Contains(string(ack.Data), `"success":true`) {
		t.Fatalf("unexpected delete ack: %+v", ack)
	}

	send(t, ctx, connA, proto.InboundTypeDeleteRoom, "d2", proto.DeleteRoomData{RoomID: random.ID})
	expectError(t, ctx, connA, core.ErrCodeNotFound)
	ack = readFrame(t, ctx, connA)
	if ack.Type != proto.OutboundTypeAck || ack.ID != "d2" || !strings.Contains(string(ack.Data), `"success":false`) {
		t.Fatalf("unexpected failed delete ack: %+v", ack)
	}

	if users := s.hub.ActiveUsers(random.ID); len(users) != 0 {
		t.Fatalf("expected deleted room membership to be dropped, got %v", users)
	}
}

func ptr[T any](v T) *T {
	return &v
}
