package mt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCore(t *testing.T, opts ...Option) *Core {
	t.Helper()
	c := New(opts...)
	c.BindUI()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, c.Close(ctx))
	})
	return c
}

// drainUntil pumps the UI ports from the test goroutine until cond holds.
func drainUntil(t *testing.T, c *Core, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		c.Drain()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("condition not met while draining")
		}
		time.Sleep(time.Millisecond)
	}
}

// settle drains until every job, including internal ones, is released.
func settle(t *testing.T, c *Core) {
	t.Helper()
	drainUntil(t, c, func() bool {
		return c.ActiveJobs() == 0 && c.Busy() == 0 && c.guiPort.Len() == 0 && c.replyPort.Len() == 0
	})
}

type fakeActivity struct {
	mu      sync.Mutex
	id      ID
	what    string
	updates []string
	percent int
	closed  int
}

func (a *fakeActivity) Update(text string, percent int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.updates = append(a.updates, text)
	a.percent = percent
}

func (a *fakeActivity) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed++
}

func (a *fakeActivity) closeCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

type recordingHost struct {
	mu         sync.Mutex
	activities []*fakeActivity
	// onCreate runs inside NewActivity before it returns.
	onCreate func(id ID)
}

func (h *recordingHost) NewActivity(id ID, what string) Activity {
	if h.onCreate != nil {
		h.onCreate(id)
	}
	a := &fakeActivity{id: id, what: what}
	h.mu.Lock()
	h.activities = append(h.activities, a)
	h.mu.Unlock()
	return a
}

func (h *recordingHost) all() []*fakeActivity {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*fakeActivity, len(h.activities))
	copy(out, h.activities)
	return out
}

type recordingPresenter struct {
	mu    sync.Mutex
	texts []string
}

func (p *recordingPresenter) PresentError(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, text)
}

func (p *recordingPresenter) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.texts...)
}

type recordingWindow struct {
	calls []bool
}

func (w *recordingWindow) SetStopSensitive(sensitive bool) {
	w.calls = append(w.calls, sensitive)
}

// scriptedPrompter answers confirmations from a goroutine after a short
// delay and records how many prompts were open at once.
type scriptedPrompter struct {
	mu      sync.Mutex
	open    int
	maxOpen int
	prompts []string
	secret  string
	// async answers from a goroutine instead of inline.
	async bool
	// decide maps a confirmation prompt to its answer.
	decide func(prompt string) bool
}

func (p *scriptedPrompter) enter(prompt string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open++
	if p.open > p.maxOpen {
		p.maxOpen = p.open
	}
	p.prompts = append(p.prompts, prompt)
}

func (p *scriptedPrompter) leave() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open--
}

func (p *scriptedPrompter) PromptSecret(req SecretRequest, answer func(string, bool)) {
	p.enter(req.Prompt)
	respond := func() {
		p.leave()
		answer(p.secret, p.secret != "")
	}
	if p.async {
		go func() {
			time.Sleep(5 * time.Millisecond)
			respond()
		}()
		return
	}
	respond()
}

func (p *scriptedPrompter) Confirm(req ConfirmRequest, answer func(bool)) {
	p.enter(req.Prompt)
	respond := func() {
		p.leave()
		answer(p.decide == nil || p.decide(req.Prompt))
	}
	if p.async {
		go func() {
			time.Sleep(5 * time.Millisecond)
			respond()
		}()
		return
	}
	respond()
}

func (p *scriptedPrompter) maxConcurrent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxOpen
}
