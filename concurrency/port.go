package concurrency

import (
	"context"
	"sync"
)

// Port is an unbounded, thread-safe FIFO queue. Its non-empty state is
// observable through Ready, so an event loop can select on it alongside its
// other sources instead of polling.
type Port[T any] struct {
	mu    sync.Mutex
	items []T
	ready chan struct{}
	// changed is closed and replaced on every Put.
	changed chan struct{}
}

// NewPort creates an empty port.
func NewPort[T any]() *Port[T] {
	return &Port[T]{
		ready:   make(chan struct{}, 1),
		changed: make(chan struct{}),
	}
}

// Put appends v to the port and wakes one waiter.
func (p *Port[T]) Put(v T) {
	p.mu.Lock()
	p.items = append(p.items, v)
	close(p.changed)
	p.changed = make(chan struct{})
	p.mu.Unlock()
	p.signal()
}

// Get removes and returns the oldest item. ok is false when the port is empty.
func (p *Port[T]) Get() (v T, ok bool) {
	p.mu.Lock()
	if len(p.items) == 0 {
		p.mu.Unlock()
		return v, false
	}
	v = p.items[0]
	var zero T
	p.items[0] = zero
	p.items = p.items[1:]
	more := len(p.items) > 0
	p.mu.Unlock()

	// Pass the wakeup on so a second waiter is not stranded behind a
	// coalesced signal.
	if more {
		p.signal()
	}
	return v, true
}

// Wait blocks until an item is available and returns it.
func (p *Port[T]) Wait() T {
	for {
		if v, ok := p.Get(); ok {
			return v
		}
		<-p.ready
	}
}

// WaitContext is Wait with cancellation.
func (p *Port[T]) WaitContext(ctx context.Context) (T, error) {
	for {
		if v, ok := p.Get(); ok {
			return v, nil
		}
		select {
		case <-p.ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Ready returns a channel that receives a value after items are put. A
// receive only hints that the port may be non-empty; callers must Get.
func (p *Port[T]) Ready() <-chan struct{} {
	return p.ready
}

// Changed returns a channel that is closed by the next Put. Unlike Ready it
// wakes every receiver, so several loops can watch the same port. Take the
// channel before checking Len to avoid missing a Put in between.
func (p *Port[T]) Changed() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.changed
}

// Len returns the number of queued items.
func (p *Port[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

func (p *Port[T]) signal() {
	select {
	case p.ready <- struct{}{}:
	default:
	}
}
