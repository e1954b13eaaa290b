package mt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Progress markers accepted by Token.Progress in place of a percentage.
const (
	ProgressStart = -1
	ProgressEnd   = -2
)

// StatusFunc receives progress reports for the job with the given id.
type StatusFunc func(id ID, text string, percent int)

// Token is a job's cooperative cancellation flag and progress reporter. It is
// reference counted because an operation may hold on to it after the job
// itself has been released.
type Token struct {
	id     ID
	ctx    context.Context
	cancel context.CancelFunc
	status StatusFunc

	cancelled atomic.Bool
	refs      atomic.Int32

	mu   sync.Mutex
	what string
}

func newToken(id ID, status StatusFunc) *Token {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Token{id: id, ctx: ctx, cancel: cancel, status: status}
	t.refs.Store(1)
	return t
}

// ID returns the id of the job the token belongs to.
func (t *Token) ID() ID { return t.id }

// Cancel flags the token and cancels its context. Cancelling twice is a no-op.
func (t *Token) Cancel() {
	if t.cancelled.CompareAndSwap(false, true) {
		t.cancel()
	}
}

// Cancelled reports whether Cancel has been called.
func (t *Token) Cancelled() bool {
	return t.cancelled.Load()
}

// Err returns ErrUserCancelled once the token is cancelled.
func (t *Token) Err() error {
	if t.Cancelled() {
		return ErrUserCancelled
	}
	return nil
}

// Context is cancelled together with the token, for operations that take a
// context.
func (t *Token) Context() context.Context { return t.ctx }

// Done is Context().Done().
func (t *Token) Done() <-chan struct{} { return t.ctx.Done() }

// Ref takes an extra reference and returns t.
func (t *Token) Ref() *Token {
	t.refs.Add(1)
	return t
}

// Unref drops a reference. The context's resources are released with the
// last one.
func (t *Token) Unref() {
	n := t.refs.Add(-1)
	switch {
	case n == 0:
		t.cancel()
	case n < 0:
		panic(fmt.Sprintf("mt: token %d unreferenced too many times", t.id))
	}
}

// Start reports that the operation described by what is starting.
func (t *Token) Start(what string) {
	t.mu.Lock()
	t.what = what
	t.mu.Unlock()
	t.report(what, ProgressStart)
}

// Progress reports text with a percentage, or one of the Progress markers.
func (t *Token) Progress(text string, percent int) {
	t.report(text, percent)
}

// End reports that the operation started with Start has finished.
func (t *Token) End() {
	t.mu.Lock()
	what := t.what
	t.mu.Unlock()
	t.report(what, ProgressEnd)
}

func (t *Token) report(text string, percent int) {
	if t.status != nil {
		t.status(t.id, text, percent)
	}
}

// normalizePercent maps the progress markers to 0 and 100 and clamps
// everything else into range.
func normalizePercent(percent int) int {
	switch percent {
	case ProgressStart:
		return 0
	case ProgressEnd:
		return 100
	}
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
