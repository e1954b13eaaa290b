package mt

import (
	"context"
	"sync"

	"github.com/ByteMirror/mailmt/log"
)

// MessageKind is the severity of a confirmation prompt.
type MessageKind int

const (
	KindInfo MessageKind = iota
	KindWarning
	KindError
	KindQuestion
)

func (k MessageKind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	case KindQuestion:
		return "question"
	default:
		return "unknown"
	}
}

// SecretRequest asks the user for a line of text.
type SecretRequest struct {
	Prompt string
	// Secret hides the typed text.
	Secret bool
}

// ConfirmRequest asks the user to acknowledge or accept a message.
type ConfirmRequest struct {
	Kind   MessageKind
	Prompt string
	// AllowCancel offers a way to decline. Without it the prompt is only
	// acknowledged.
	AllowCancel bool
}

// Prompter shows modal prompts. Its methods are called on the UI goroutine
// and must not block: they call answer exactly once, now or later, from any
// goroutine.
type Prompter interface {
	PromptSecret(req SecretRequest, answer func(text string, ok bool))
	Confirm(req ConfirmRequest, answer func(ok bool))
}

// RequestSecret asks the user for text and blocks until it is answered. ok is
// false when the user cancelled or no prompter is configured.
func (c *Core) RequestSecret(prompt string, secret bool) (text string, ok bool) {
	return c.RequestSecretContext(context.Background(), prompt, secret)
}

// RequestSecretContext is RequestSecret that gives up when ctx is done,
// reporting ok false. Jobs pass their own context so cancelling the job
// unblocks a pending prompt.
func (c *Core) RequestSecretContext(ctx context.Context, prompt string, secret bool) (text string, ok bool) {
	req := SecretRequest{Prompt: prompt, Secret: secret}
	return c.roundTrip(ctx, func(p Prompter, answer func(string, bool)) {
		p.PromptSecret(req, answer)
	})
}

// RequestConfirmation shows a message and blocks until the user answers.
func (c *Core) RequestConfirmation(kind MessageKind, prompt string, allowCancel bool) bool {
	return c.RequestConfirmationContext(context.Background(), kind, prompt, allowCancel)
}

// RequestConfirmationContext is RequestConfirmation that gives up when ctx
// is done, reporting false.
func (c *Core) RequestConfirmationContext(ctx context.Context, kind MessageKind, prompt string, allowCancel bool) bool {
	req := ConfirmRequest{Kind: kind, Prompt: prompt, AllowCancel: allowCancel}
	_, ok := c.roundTrip(ctx, func(p Prompter, answer func(string, bool)) {
		p.Confirm(req, func(ok bool) { answer("", ok) })
	})
	return ok
}

// roundTrip runs ask on the UI goroutine and waits for its answer. Worker
// callers queue up behind modalMu so only one of them has a prompt open.
//
// When ctx is done first the caller returns at once. The prompt stays with
// the Prompter; its late answer frees the job and, for workers, lets the next
// prompt through.
func (c *Core) roundTrip(ctx context.Context, ask func(p Prompter, answer func(string, bool))) (string, bool) {
	if c.prompter == nil {
		log.WarningLog.Printf("modal request without a prompter; treating as cancelled")
		return "", false
	}
	if ctx.Err() != nil {
		return "", false
	}

	var (
		once sync.Once
		text string
		ok   bool
	)
	reply := NewPort()
	j := c.NewJob(OpsFuncs{ReceiveFunc: func(j *Job) {
		j.deferred = true
		answer := func(t string, accepted bool) {
			once.Do(func() {
				text, ok = t, accepted
				reply.Put(j)
			})
		}
		if ctx.Err() != nil {
			// Given up while queued; nothing to ask.
			answer("", false)
			return
		}
		ask(c.prompter, answer)
	}}, reply)

	if c.IsUIGoroutine() {
		c.deliverInbound(j)
		if !c.pumpUntil(ctx, reply) {
			go c.freeWhenAnswered(j, reply, false)
			return "", false
		}
	} else {
		c.modalMu.Lock()
		c.guiPort.Put(j)
		if _, err := reply.WaitContext(ctx); err != nil {
			go c.freeWhenAnswered(j, reply, true)
			return "", false
		}
		c.modalMu.Unlock()
	}
	c.free(j)
	return text, ok
}

// freeWhenAnswered waits for an abandoned prompt's answer, then frees its
// job and, if held, releases modalMu.
func (c *Core) freeWhenAnswered(j *Job, reply *Port, unlock bool) {
	reply.Wait()
	if unlock {
		c.modalMu.Unlock()
	}
	c.free(j)
}

// pumpUntil keeps the UI goroutine delivering jobs until p has an item, which
// it then takes. It returns false if ctx is done first.
func (c *Core) pumpUntil(ctx context.Context, p *Port) bool {
	for {
		mine := p.Changed()
		inbound, replies := c.portsChanged()
		if _, got := p.Get(); got {
			return true
		}
		c.Drain()
		if _, got := p.Get(); got {
			return true
		}
		select {
		case <-mine:
		case <-inbound:
		case <-replies:
		case <-ctx.Done():
			return false
		}
	}
}
