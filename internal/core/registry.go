package core

import "sync"

// Binding associates a live connection with the room and verified identity
// it currently participates as.
type Binding struct {
	ConnID   string
	UserID   string
	Username string
	RoomID   string
}

// Registry holds at most one Binding per connection.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]Binding
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[string]Binding)}
}

// Bind records or replaces the binding for b.ConnID.
func (r *Registry) Bind(b Binding) {
	r.mu.Lock()
	r.bindings[b.ConnID] = b
	r.mu.Unlock()
}

// Lookup returns the binding of connID, if any.
func (r *Registry) Lookup(connID string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[connID]
	return b, ok
}

// Unbind removes and returns the binding of connID. ok is false when the
// connection was not bound.
func (r *Registry) Unbind(connID string) (b Binding, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok = r.bindings[connID]
	if ok {
		delete(r.bindings, connID)
	}
	return b, ok
}

// Len returns the number of bound connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}
