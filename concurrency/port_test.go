package concurrency

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortFIFO(t *testing.T) {
	p := NewPort[int]()
	for i := 0; i < 5; i++ {
		p.Put(i)
	}
	assert.Equal(t, 5, p.Len())

	for i := 0; i < 5; i++ {
		v, ok := p.Get()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}

	_, ok := p.Get()
	assert.False(t, ok, "empty port should report no item")
}

func TestPortReadySignalsAfterPut(t *testing.T) {
	p := NewPort[string]()

	select {
	case <-p.Ready():
		t.Fatal("empty port should not be ready")
	default:
	}

	p.Put("a")
	select {
	case <-p.Ready():
	case <-time.After(time.Second):
		t.Fatal("port should be ready after Put")
	}
}

func TestPortWaitBlocksUntilPut(t *testing.T) {
	p := NewPort[int]()
	got := make(chan int)
	go func() { got <- p.Wait() }()

	select {
	case <-got:
		t.Fatal("Wait returned before anything was put")
	case <-time.After(20 * time.Millisecond):
	}

	p.Put(42)
	select {
	case v := <-got:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Put")
	}
}

func TestPortWaitContextCancelled(t *testing.T) {
	p := NewPort[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.WaitContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPortManyWaitersAllServed(t *testing.T) {
	p := NewPort[int]()
	const waiters = 8

	var wg sync.WaitGroup
	results := make(chan int, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- p.Wait()
		}()
	}

	for i := 0; i < waiters; i++ {
		p.Put(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not every waiter received an item")
	}
	close(results)

	seen := map[int]bool{}
	for v := range results {
		seen[v] = true
	}
	assert.Len(t, seen, waiters)
}

func TestGoroutineIDDiffersAcrossGoroutines(t *testing.T) {
	main := GoroutineID()
	assert.NotZero(t, main)
	assert.Equal(t, main, GoroutineID(), "same goroutine should report a stable id")

	other := make(chan uint64)
	go func() { other <- GoroutineID() }()
	assert.NotEqual(t, main, <-other)
}

func TestPortChangedWakesEveryWatcher(t *testing.T) {
	p := NewPort[int]()
	changed := p.Changed()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-changed
		}()
	}

	p.Put(1)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Put should wake every watcher of Changed")
	}

	assert.NotEqual(t, changed, p.Changed(), "Put should install a fresh channel")
}
