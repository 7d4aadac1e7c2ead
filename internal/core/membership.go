package core

import (
	"slices"
	"sync"
)

// Membership tracks the set of active usernames per room.
type Membership struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{}
}

// NewMembership creates an empty membership table.
func NewMembership() *Membership {
	return &Membership{rooms: make(map[string]map[string]struct{})}
}

// Add inserts username into the room's set, creating the set if needed.
func (m *Membership) Add(roomID, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.rooms[roomID]
	if !ok {
		set = make(map[string]struct{})
		m.rooms[roomID] = set
	}
	set[username] = struct{}{}
}

// Remove deletes username from the room's set. Unknown rooms and users are ignored.
func (m *Membership) Remove(roomID, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.rooms[roomID]
	if !ok {
		return
	}
	delete(set, username)
	if len(set) == 0 {
		delete(m.rooms, roomID)
	}
}

// Members returns a sorted copy of the room's active usernames.
func (m *Membership) Members(roomID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.rooms[roomID]
	users := make([]string, 0, len(set))
	for name := range set {
		users = append(users, name)
	}
	slices.Sort(users)
	return users
}

// DropRoom discards the room's set entirely.
func (m *Membership) DropRoom(roomID string) {
	m.mu.Lock()
	delete(m.rooms, roomID)
	m.mu.Unlock()
}
