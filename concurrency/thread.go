package concurrency

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ByteMirror/mailmt/log"
)

// ErrThreadClosed is returned by Put after Close has been called.
var ErrThreadClosed = errors.New("thread is closed")

// Policy selects how a Thread schedules the messages put on it.
type Policy int

const (
	// PolicyQueue runs every message on a single worker goroutine, strictly
	// in submission order.
	PolicyQueue Policy = iota
	// PolicyNew starts an independent goroutine for every message. There is
	// no ordering between messages.
	PolicyNew
)

func (p Policy) String() string {
	switch p {
	case PolicyQueue:
		return "queue"
	case PolicyNew:
		return "new"
	default:
		return "unknown"
	}
}

// ThreadConfig configures a Thread.
type ThreadConfig[T any] struct {
	Policy Policy
	// MaxThreads caps concurrent goroutines for PolicyNew. 0 means unlimited.
	MaxThreads int64
	// Received runs on a worker goroutine exactly once per message.
	Received func(T)
	// ReplyPort returns where a message goes after Received. A nil port means
	// the message is finished and Destroy runs on the worker instead.
	ReplyPort func(T) *Port[T]
	// Destroy runs on the worker for messages that have no reply port.
	Destroy func(T)
}

// Thread executes messages on background goroutines according to its Policy.
type Thread[T any] struct {
	cfg     ThreadConfig[T]
	queue   *Port[T]
	sem     *semaphore.Weighted
	metrics ThreadMetrics

	// mu orders Put against Close so no worker is added to wg after Close
	// starts waiting on it.
	mu     sync.RWMutex
	closed bool
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewThread creates a thread and, for PolicyQueue, starts its worker.
func NewThread[T any](cfg ThreadConfig[T]) *Thread[T] {
	t := &Thread[T]{
		cfg:  cfg,
		stop: make(chan struct{}),
	}
	switch cfg.Policy {
	case PolicyQueue:
		t.queue = NewPort[T]()
		t.wg.Add(1)
		go t.queueLoop()
	case PolicyNew:
		if cfg.MaxThreads > 0 {
			t.sem = semaphore.NewWeighted(cfg.MaxThreads)
		}
	}
	return t
}

// Put hands msg to the thread. It never blocks on the work itself.
func (t *Thread[T]) Put(msg T) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return ErrThreadClosed
	}
	t.metrics.Submitted.Add(1)

	switch t.cfg.Policy {
	case PolicyQueue:
		t.queue.Put(msg)
	case PolicyNew:
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			if t.sem != nil {
				// Acquire only fails on a cancelled context.
				_ = t.sem.Acquire(context.Background(), 1)
				defer t.sem.Release(1)
			}
			t.dispatch(msg)
		}()
	default:
		return fmt.Errorf("unknown thread policy %d", t.cfg.Policy)
	}
	return nil
}

// Metrics returns the thread's counters.
func (t *Thread[T]) Metrics() *ThreadMetrics {
	return &t.metrics
}

// Close stops accepting messages, lets everything already put finish and
// waits for the workers. It returns early if ctx is done first.
func (t *Thread[T]) Close(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.stop)
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close %s thread: %w", t.cfg.Policy, ctx.Err())
	}
}

func (t *Thread[T]) queueLoop() {
	defer t.wg.Done()

	for {
		for {
			msg, ok := t.queue.Get()
			if !ok {
				break
			}
			t.dispatch(msg)
		}

		select {
		case <-t.queue.Ready():
		case <-t.stop:
			// Drain whatever was put before Close.
			for {
				msg, ok := t.queue.Get()
				if !ok {
					return
				}
				t.dispatch(msg)
			}
		}
	}
}

// dispatch runs Received and then either replies or destroys the message.
func (t *Thread[T]) dispatch(msg T) {
	t.metrics.Active.Add(1)
	start := time.Now()
	t.received(msg)
	t.metrics.recordLatency(time.Since(start))
	t.metrics.Active.Add(-1)
	t.metrics.Completed.Add(1)

	var reply *Port[T]
	if t.cfg.ReplyPort != nil {
		reply = t.cfg.ReplyPort(msg)
	}
	if reply != nil {
		reply.Put(msg)
		return
	}
	if t.cfg.Destroy != nil {
		t.cfg.Destroy(msg)
	}
}

// received calls the Received callback, turning a panic into a log line so
// the message still reaches its reply or destroy step.
func (t *Thread[T]) received(msg T) {
	if t.cfg.Received == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.metrics.Panicked.Add(1)
			log.ErrorLog.Printf("panic in %s thread: %v\n%s", t.cfg.Policy, r, debug.Stack())
		}
	}()
	t.cfg.Received(msg)
}
