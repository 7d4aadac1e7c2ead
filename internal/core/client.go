package core

import (
	"errors"
	"sync"
)

var (
	errClientClosed   = errors.New("client closed")
	errClientOverflow = errors.New("client outbound queue full")
)

// Client is a live connection as seen by the core layer.
type Client struct {
	ID     string
	Events chan *Event

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client with an outbound queue of the given size.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		ID:     id,
		Events: make(chan *Event, buffer),
		done:   make(chan struct{}),
	}
}

// Done is closed once the client must stop writing and be disconnected.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close marks the client as finished. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// deliver enqueues ev without blocking. A full queue closes the client
// instead of silently dropping events.
func (c *Client) deliver(ev *Event) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}

	select {
	case c.Events <- ev:
		return nil
	default:
		c.Close()
		return errClientOverflow
	}
}
