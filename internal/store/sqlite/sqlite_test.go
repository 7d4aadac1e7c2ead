package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/vovakirdan/wirechat-rooms/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.ID == "" || created.Username != "alice" {
		t.Fatalf("unexpected user: %+v", created)
	}

	byID, err := s.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Username != "alice" || byID.PasswordHash != "hash" {
		t.Fatalf("unexpected user by id: %+v", byID)
	}

	byName, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != created.ID {
		t.Fatalf("expected id %s, got %s", created.ID, byName.ID)
	}

	if _, err := s.CreateUser(ctx, "alice", "other"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}

	if _, err := s.GetUserByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRoomLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	general, err := s.CreateRoom(ctx, "General", "General discussion")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	random, err := s.CreateRoom(ctx, "Random", "")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	rooms, err := s.ListRooms(ctx)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 2 || rooms[0].ID != general.ID || rooms[1].ID != random.ID {
		t.Fatalf("unexpected room order: %+v", rooms)
	}

	name := "Off-topic"
	updated, err := s.UpdateRoom(ctx, random.ID, store.RoomUpdate{Name: &name})
	if err != nil {
		t.Fatalf("update room: %v", err)
	}
	if updated.Name != "Off-topic" || updated.ID != random.ID {
		t.Fatalf("unexpected updated room: %+v", updated)
	}

	unchanged, err := s.UpdateRoom(ctx, general.ID, store.RoomUpdate{})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if unchanged.Name != "General" || unchanged.Description != "General discussion" {
		t.Fatalf("empty update changed room: %+v", unchanged)
	}

	if _, err := s.UpdateRoom(ctx, "ghost", store.RoomUpdate{Name: &name}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	deleted, err := s.DeleteRoom(ctx, general.ID)
	if err != nil || !deleted {
		t.Fatalf("expected delete success, got %v %v", deleted, err)
	}
	deleted, err = s.DeleteRoom(ctx, general.ID)
	if err != nil || deleted {
		t.Fatalf("expected second delete to report false, got %v %v", deleted, err)
	}

	if _, err := s.GetRoom(ctx, general.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
