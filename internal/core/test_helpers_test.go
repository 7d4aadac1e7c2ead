package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-rooms/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event %v: %+v", kind, ev)
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

type fakeVerifier struct {
	mu    sync.Mutex
	users map[string]string
	// gate, when set, blocks Resolve until closed.
	gate chan struct{}
}

func (v *fakeVerifier) Resolve(ctx context.Context, userID string) (*Identity, error) {
	v.mu.Lock()
	gate := v.gate
	v.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	name, ok := v.users[userID]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return &Identity{ID: userID, Username: name}, nil
}

type fakeRooms struct {
	mu    sync.Mutex
	rooms map[string]*store.Room
	// updated, when set, receives a value after an update is applied and
	// before UpdateRoom returns; updateGate then holds the return until closed.
	updated    chan struct{}
	updateGate chan struct{}
}

func (f *fakeRooms) UpdateRoom(_ context.Context, id string, update store.RoomUpdate) (*store.Room, error) {
	f.mu.Lock()
	room, ok := f.rooms[id]
	if !ok {
		f.mu.Unlock()
		return nil, store.ErrNotFound
	}
	if update.Name != nil {
		room.Name = *update.Name
	}
	cp := *room
	updated, gate := f.updated, f.updateGate
	f.mu.Unlock()

	if updated != nil {
		updated <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return &cp, nil
}

func (f *fakeRooms) DeleteRoom(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.rooms[id]; !ok {
		return false, nil
	}
	delete(f.rooms, id)
	return true, nil
}

type testEnv struct {
	hub      *Hub
	fanout   *Fanout
	verifier *fakeVerifier
	rooms    *fakeRooms
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	verifier := &fakeVerifier{users: map[string]string{
		"u-alice": "alice",
		"u-bob":   "bob",
		"u-carol": "carol",
	}}
	rooms := &fakeRooms{rooms: map[string]*store.Room{
		"general": {ID: "general", Name: "General"},
		"random":  {ID: "random", Name: "Random"},
	}}
	fanout := NewFanout(nil)

	return &testEnv{
		hub:      NewHub(fanout, verifier, rooms, nil),
		fanout:   fanout,
		verifier: verifier,
		rooms:    rooms,
	}
}

func (e *testEnv) connect(id string) *Client {
	c := NewClient(id, 256)
	e.fanout.Register(c)
	return c
}

func (e *testEnv) disconnect(c *Client) {
	e.fanout.Unregister(c)
	e.hub.Disconnect(c.ID)
}
