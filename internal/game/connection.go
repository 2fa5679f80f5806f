// internal/game/connection.go
package game

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrConnectionClosed is returned by Next once the connection is closed and drained.
var ErrConnectionClosed = errors.New("connection closed")

// Connection is the outbound side of one websocket. Writes never block: messages queue
// without bound until the write pump drains them, so a slow client costs memory, not game time.
type Connection struct {
	ID uuid.UUID

	mu     sync.Mutex
	queue  [][]byte
	closed bool
	signal chan struct{}
}

// NewConnection returns an open, empty connection.
func NewConnection() *Connection {
	return &Connection{
		ID:     uuid.New(),
		signal: make(chan struct{}, 1),
	}
}

// Write queues msg. It reports false if the connection is already closed.
func (c *Connection) Write(msg []byte) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.queue = append(c.queue, msg)
	c.mu.Unlock()
	c.notify()
	return true
}

// Close stops accepting writes. Already queued messages can still be drained.
func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.notify()
}

// Closed reports whether Close has been called.
func (c *Connection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Pending returns the number of queued messages.
func (c *Connection) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Next blocks until a message is available, the connection is closed and empty, or ctx is done.
func (c *Connection) Next(ctx context.Context) ([]byte, error) {
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			msg := c.queue[0]
			c.queue[0] = nil
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return msg, nil
		}
		if c.closed {
			c.mu.Unlock()
			return nil, ErrConnectionClosed
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.signal:
		}
	}
}

// drain empties the queue without blocking.
func (c *Connection) drain() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.queue
	c.queue = nil
	return out
}

func (c *Connection) notify() {
	select {
	case c.signal <- struct{}{}:
	default:
	}
}
