package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/vovakirdan/wirechat-rooms/internal/proto"
)

type account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type frame struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	text := flag.String("text", "hello from smoke test", "message content to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// A fresh account per run keeps the smoke test repeatable.
	username := "smoke-" + uuid.NewString()[:8]
	var acc account
	if err := request(ctx, http.MethodPost, *server+"/api/register", "",
		map[string]string{"username": username, "password": "smoke-password"}, &acc); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	var rooms []proto.Room
	if err := request(ctx, http.MethodGet, *server+"/api/rooms", acc.Token, nil, &rooms); err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}
	if len(rooms) == 0 {
		return fmt.Errorf("no rooms available")
	}
	room := rooms[0]

	conn, _, err := websocket.Dial(ctx, strings.Replace(*server, "http", "ws", 1)+"/ws", nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ, id string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, ID: id, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeJoinRoom, "", proto.JoinRoomData{RoomID: room.ID, UserID: acc.ID}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeSendMessage, "smoke", proto.SendMessageData{RoomID: room.ID, Content: *text}); err != nil {
		return err
	}

	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received: type=%s", f.Type)
		if f.Event != "" {
			fmt.Printf(" event=%s", f.Event)
		}
		fmt.Printf(" data=%s\n", f.Data)

		switch f.Type {
		case proto.OutboundTypeError:
			return fmt.Errorf("server error: %s: %s", f.Error.Code, f.Error.Message)
		case proto.OutboundTypeAck:
			var msg proto.EventMessage
			if err := json.Unmarshal(f.Data, &msg); err != nil {
				return fmt.Errorf("unmarshal ack: %w", err)
			}
			if msg.Sender != username || msg.Content != *text {
				return fmt.Errorf("unexpected ack payload: %+v", msg)
			}
			fmt.Printf("OK: %s relayed %q in %s\n", msg.Sender, msg.Content, room.Name)
			return nil
		}
	}
}

func request(ctx context.Context, method, url, token string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
