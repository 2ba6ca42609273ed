package canbus

import (
	"context"
	"sync"

	"github.com/danmuck/canctl/internal/can"
)

// Loopback is an in-memory bus for tests and simulations. Endpoints opened
// from the same Loopback exchange frames; a sender never receives its own
// traffic back.
type Loopback struct {
	mu        sync.RWMutex
	closed    bool
	endpoints map[*loopEndpoint]struct{}
}

// NewLoopback creates an empty loopback bus.
func NewLoopback() *Loopback {
	return &Loopback{endpoints: make(map[*loopEndpoint]struct{})}
}

// Open attaches a new endpoint to the bus.
func (b *Loopback) Open() Bus {
	ep := &loopEndpoint{
		bus:    b,
		ch:     make(chan []byte, 64),
		closed: make(chan struct{}),
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ep.closed)
		ep.dead = true
		return ep
	}
	b.endpoints[ep] = struct{}{}
	b.mu.Unlock()
	return ep
}

// Close shuts the bus down and detaches every endpoint.
func (b *Loopback) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for ep := range b.endpoints {
		ep.close()
	}
	b.endpoints = nil
	b.mu.Unlock()
	return nil
}

// loopEndpoint passes raw regions over a channel; each delivery carries its
// own copy so receivers own their storage.
type loopEndpoint struct {
	bus    *Loopback
	ch     chan []byte
	mu     sync.Mutex
	dead   bool
	closed chan struct{}
}

func (e *loopEndpoint) Send(ctx context.Context, f can.Frame) error {
	region := f.Region()
	if _, err := can.Decode(region); err != nil {
		return err
	}
	e.mu.Lock()
	if e.dead {
		e.mu.Unlock()
		return ErrClosed
	}
	e.mu.Unlock()

	// Snapshot targets so the bus lock is not held while delivering.
	e.bus.mu.RLock()
	if e.bus.closed {
		e.bus.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]*loopEndpoint, 0, len(e.bus.endpoints))
	for ep := range e.bus.endpoints {
		if ep != e {
			targets = append(targets, ep)
		}
	}
	e.bus.mu.RUnlock()

	for _, t := range targets {
		clone := append([]byte(nil), region...)
		select {
		case t.ch <- clone:
		case <-t.closed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (e *loopEndpoint) Receive(ctx context.Context) (can.Frame, error) {
	select {
	case region := <-e.ch:
		return can.Decode(region)
	case <-e.closed:
		return can.Frame{}, ErrClosed
	case <-ctx.Done():
		return can.Frame{}, ctx.Err()
	}
}

func (e *loopEndpoint) Close() error {
	e.bus.mu.Lock()
	e.close()
	if e.bus.endpoints != nil {
		delete(e.bus.endpoints, e)
	}
	e.bus.mu.Unlock()
	return nil
}

// close marks the endpoint dead. The data channel stays open so concurrent
// senders never hit a closed channel; they observe the closed signal
// instead.
func (e *loopEndpoint) close() {
	e.mu.Lock()
	if !e.dead {
		e.dead = true
		close(e.closed)
	}
	e.mu.Unlock()
}
