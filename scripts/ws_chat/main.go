package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-rooms/internal/proto"
)

type account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	user := flag.String("user", "cli-user", "username")
	password := flag.String("password", "cli-password", "password (the account is registered if missing)")
	room := flag.String("room", "", "room name to join (default: first room)")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	acc, err := authenticate(ctx, *server, *user, *password)
	if err != nil {
		return err
	}
	roomID, roomName, err := findRoom(ctx, *server, acc.Token, *room)
	if err != nil {
		return err
	}

	wsURL := strings.Replace(*server, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	joinPayload, err := json.Marshal(proto.JoinRoomData{RoomID: roomID, UserID: acc.ID})
	if err != nil {
		return fmt.Errorf("marshal join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoinRoom, Data: joinPayload}); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	fmt.Printf("Connected to %s as %s in room %s\n", wsURL, acc.Username, roomName)
	fmt.Println("Type messages and press Enter to send. /rename <name> renames the room. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, roomID)

	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func doJSON(ctx context.Context, method, url, token string, body, out any) (int, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return 0, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resp.StatusCode, nil
	}
	return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
}

func authenticate(ctx context.Context, server, username, password string) (*account, error) {
	creds := map[string]string{"username": username, "password": password}

	var acc account
	status, err := doJSON(ctx, http.MethodPost, server+"/api/login", "", creds, &acc)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if status == http.StatusOK {
		return &acc, nil
	}

	status, err = doJSON(ctx, http.MethodPost, server+"/api/register", "", creds, &acc)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if status != http.StatusCreated {
		return nil, fmt.Errorf("register: unexpected status %d", status)
	}
	return &acc, nil
}

func findRoom(ctx context.Context, server, token, name string) (string, string, error) {
	var rooms []proto.Room
	status, err := doJSON(ctx, http.MethodGet, server+"/api/rooms", token, nil, &rooms)
	if err != nil {
		return "", "", fmt.Errorf("list rooms: %w", err)
	}
	if status != http.StatusOK {
		return "", "", fmt.Errorf("list rooms: unexpected status %d", status)
	}

	for _, r := range rooms {
		if name == "" || r.Name == name {
			return r.ID, r.Name, nil
		}
	}
	return "", "", fmt.Errorf("room %q not found", name)
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if f.Type == proto.OutboundTypeError && f.Error != nil {
			fmt.Printf("! %s: %s\n", f.Error.Code, f.Error.Message)
			continue
		}

		switch f.Event {
		case "receiveMessage":
			var evt proto.EventMessage
			if err := json.Unmarshal(f.Data, &evt); err != nil {
				log.Printf("unmarshal message: %v", err)
				continue
			}
			fmt.Printf("%s: %s\n", evt.Sender, evt.Content)
		case "userJoined":
			var evt proto.EventUserJoined
			if err := json.Unmarshal(f.Data, &evt); err != nil {
				log.Printf("unmarshal userJoined: %v", err)
				continue
			}
			fmt.Printf("* %s\n", evt.Message)
		case "activeUsers":
			var evt proto.EventActiveUsers
			if err := json.Unmarshal(f.Data, &evt); err != nil {
				log.Printf("unmarshal activeUsers: %v", err)
				continue
			}
			fmt.Printf("* online: %s\n", strings.Join(evt.Users, ", "))
		default:
			fmt.Printf("event=%s data=%s\n", f.Event, f.Data)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, roomID string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			inbound, err := inboundFor(roomID, text)
			if err != nil {
				log.Printf("marshal: %v", err)
				return
			}
			if err := wsjson.Write(ctx, conn, inbound); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}

func inboundFor(roomID, text string) (proto.Inbound, error) {
	if name, ok := strings.CutPrefix(text, "/rename "); ok {
		payload, err := json.Marshal(proto.UpdateRoomData{RoomID: roomID, Updates: proto.RoomUpdates{Name: &name}})
		return proto.Inbound{Type: proto.InboundTypeUpdateRoom, Data: payload}, err
	}
	payload, err := json.Marshal(proto.SendMessageData{RoomID: roomID, Content: text})
	return proto.Inbound{Type: proto.InboundTypeSendMessage, Data: payload}, err
}
