package core

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Broadcaster is the transport capability the Hub publishes through.
type Broadcaster interface {
	// Subscribe adds the connection to the room's audience. It reports false
	// when the connection is no longer registered.
	Subscribe(connID, roomID string) bool
	// Unsubscribe removes the connection from the room's audience.
	Unsubscribe(connID, roomID string)
	// ToRoom delivers ev to every subscriber of roomID.
	ToRoom(roomID string, ev *Event)
	// ToAll delivers ev to every registered connection.
	ToAll(ev *Event)
	// ToOne delivers ev to a single connection.
	ToOne(connID string, ev *Event)
}

// Fanout is the in-process Broadcaster backed by per-client event queues.
type Fanout struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]*Room
	log     *zerolog.Logger
}

// NewFanout creates an empty fanout.
func NewFanout(logger *zerolog.Logger) *Fanout {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Fanout{
		clients: make(map[string]*Client),
		rooms:   make(map[string]*Room),
		log:     logger,
	}
}

// Register makes the client addressable.
func (f *Fanout) Register(c *Client) {
	f.mu.Lock()
	f.clients[c.ID] = c
	total := len(f.clients)
	f.mu.Unlock()

	f.log.Debug().Str("conn_id", c.ID).Int("clients", total).Msg("client registered")
}

// Unregister drops the client and all of its room subscriptions.
func (f *Fanout) Unregister(c *Client) {
	f.mu.Lock()
	if current, ok := f.clients[c.ID]; ok && current == c {
		delete(f.clients, c.ID)
	}
	for id, room := range f.rooms {
		if room.RemoveClient(c) && room.Empty() {
			delete(f.rooms, id)
		}
	}
	total := len(f.clients)
	f.mu.Unlock()

	c.Close()
	f.log.Debug().Str("conn_id", c.ID).Int("clients", total).Msg("client unregistered")
}

// CloseAll closes every registered client. Used on shutdown.
func (f *Fanout) CloseAll() {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, c := range f.clients {
		c.Close()
	}
}

// Subscribe implements Broadcaster.
func (f *Fanout) Subscribe(connID, roomID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.clients[connID]
	if !ok {
		return false
	}
	room, ok := f.rooms[roomID]
	if !ok {
		room = NewRoom(roomID)
		f.rooms[roomID] = room
	}
	room.AddClient(c)
	return true
}

// Unsubscribe implements Broadcaster.
func (f *Fanout) Unsubscribe(connID, roomID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.clients[connID]
	if !ok {
		return
	}
	if room, ok := f.rooms[roomID]; ok && room.RemoveClient(c) && room.Empty() {
		delete(f.rooms, roomID)
	}
}

// ToRoom implements Broadcaster.
func (f *Fanout) ToRoom(roomID string, ev *Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	room, ok := f.rooms[roomID]
	if !ok {
		return
	}
	for c := range room.clients {
		f.send(c, ev)
	}
}

// ToAll implements Broadcaster.
func (f *Fanout) ToAll(ev *Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, c := range f.clients {
		f.send(c, ev)
	}
}

// ToOne implements Broadcaster.
func (f *Fanout) ToOne(connID string, ev *Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if c, ok := f.clients[connID]; ok {
		f.send(c, ev)
	}
}

// RoomSize returns the number of connections subscribed to roomID.
func (f *Fanout) RoomSize(roomID string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if room, ok := f.rooms[roomID]; ok {
		return len(room.clients)
	}
	return 0
}

func (f *Fanout) send(c *Client, ev *Event) {
	if err := c.deliver(ev); errors.Is(err, errClientOverflow) {
		f.log.Warn().Str("conn_id", c.ID).Str("event", ev.Kind.String()).Msg("slow client, closing connection")
	}
}
