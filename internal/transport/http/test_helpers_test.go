package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-rooms/internal/auth"
	"github.com/vovakirdan/wirechat-rooms/internal/config"
	"github.com/vovakirdan/wirechat-rooms/internal/core"
	"github.com/vovakirdan/wirechat-rooms/internal/proto"
	"github.com/vovakirdan/wirechat-rooms/internal/store/sqlite"
)

const testSecret = "test-secret"

type testServer struct {
	ts     *httptest.Server
	server *stdhttp.Server
	store  *sqlite.SQLiteStore
	auth   *auth.Service
	hub    *core.Hub
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.JWTSecret = testSecret

	logger := zerolog.Nop()
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	fanout := core.NewFanout(&logger)
	hub := core.NewHub(fanout, authService, st, &logger)
	server := NewServer(hub, fanout, authService, st, &cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		fanout.CloseAll()
		ts.Close()
	})

	return &testServer{ts: ts, server: server, store: st, auth: authService, hub: hub}
}

func (s *testServer) register(t *testing.T, username string) *auth.Session {
	t.Helper()

	session, err := s.auth.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return session
}

func (s *testServer) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(s.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

// frame mirrors proto.Outbound with a raw payload for per-event decoding.
type frame struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ, id string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, ID: id, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) frame {
	t.Helper()

	var f frame
	if err := wsjson.Read(ctx, conn, &f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func expectEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, name string, out any) {
	t.Helper()

	f := readFrame(t, ctx, conn)
	if f.Type != proto.OutboundTypeEvent || f.Event != name {
		t.Fatalf("expected event %s, got %+v", name, f)
	}
	if out != nil {
		if err := json.Unmarshal(f.Data, out); err != nil {
			t.Fatalf("unmarshal %s: %v", name, err)
		}
	}
}

func expectError(t *testing.T, ctx context.Context, conn *websocket.Conn, code string) {
	t.Helper()

	f := readFrame(t, ctx, conn)
	if f.Type != proto.OutboundTypeError || f.Error == nil || f.Error.Code != code {
		t.Fatalf("expected error %s, got %+v", code, f)
	}
}

func expectActiveUsers(t *testing.T, ctx context.Context, conn *websocket.Conn, roomID string, want ...string) {
	t.Helper()

	var active proto.EventActiveUsers
	expectEvent(t, ctx, conn, "activeUsers", &active)
	if active.RoomID != roomID || strings.Join(active.Users, ",") != strings.Join(want, ",") {
		t.Fatalf("expected active users %v in %s, got %+v", want, roomID, active)
	}
}

// join sends joinRoom and consumes the joiner's own userJoined and activeUsers.
func join(t *testing.T, ctx context.Context, conn *websocket.Conn, roomID string, session *auth.Session, active ...string) {
	t.Helper()

	send(t, ctx, conn, proto.InboundTypeJoinRoom, "", proto.JoinRoomData{RoomID: roomID, UserID: session.UserID})

	var joined proto.EventUserJoined
	expectEvent(t, ctx, conn, "userJoined", &joined)
	if joined.Username != session.Username {
		t.Fatalf("expected userJoined for %s, got %+v", session.Username, joined)
	}
	expectActiveUsers(t, ctx, conn, roomID, active...)
}
