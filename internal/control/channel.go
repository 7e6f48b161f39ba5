// Package control carries run/stop signals to the scheduler loop.
//
// Channel is an unbounded FIFO with many producers and one consumer. Sends
// never block, which lets the editing surface push a stop+start pulse while
// holding no locks and without caring whether the loop is busy sleeping.
package control

import (
	"context"
	"sync"
)

type Channel struct {
	mu    sync.Mutex
	queue []bool
	// ready has capacity 1 and holds a token while queue is non-empty.
	ready chan struct{}
}

func New() *Channel {
	return &Channel{ready: make(chan struct{}, 1)}
}

// Send appends v. It never blocks.
func (c *Channel) Send(v bool) {
	c.mu.Lock()
	c.queue = append(c.queue, v)
	c.mu.Unlock()
	c.signal()
}

// Start sends true.
func (c *Channel) Start() { c.Send(true) }

// Stop sends false.
func (c *Channel) Stop() { c.Send(false) }

// Resync pushes false followed by true as one unit, so no other producer's
// message lands between them.
func (c *Channel) Resync() {
	c.mu.Lock()
	c.queue = append(c.queue, false, true)
	c.mu.Unlock()
	c.signal()
}

func (c *Channel) signal() {
	select {
	case c.ready <- struct{}{}:
	default:
	}
}

// TryRecv pops the oldest message without blocking. ok is false when empty.
func (c *Channel) TryRecv() (v bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return false, false
	}
	v = c.queue[0]
	c.queue[0] = false
	c.queue = c.queue[1:]
	if len(c.queue) == 0 {
		// Release the backing array once drained.
		c.queue = nil
	} else {
		c.signal()
	}
	return v, true
}

// Recv blocks until a message is available or ctx is done.
func (c *Channel) Recv(ctx context.Context) (bool, error) {
	for {
		if v, ok := c.TryRecv(); ok {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-c.ready:
		}
	}
}

// Ready is signalled whenever the channel may hold messages. A receive from
// Ready does not consume a message; follow it with TryRecv.
func (c *Channel) Ready() <-chan struct{} { return c.ready }

func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
