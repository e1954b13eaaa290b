package app

import (
	"github.com/ByteMirror/mailmt/mt"
	"github.com/ByteMirror/mailmt/ui"
	"github.com/ByteMirror/mailmt/ui/overlay"
)

// toastActivity shows a job's progress as an activity toast.
type toastActivity struct {
	m    *home
	id   string
	what string
}

func (a *toastActivity) Update(text string, percent int) {
	if text == a.what {
		text = ""
	}
	a.m.toasts.Progress(a.id, text, percent)
}

func (a *toastActivity) Close() {
	a.m.toasts.Finish(a.id)
	a.m.startToastTick()
}

// NewActivity implements mt.ActivityHost.
func (m *home) NewActivity(id mt.ID, what string) mt.Activity {
	a := &toastActivity{m: m, id: m.toasts.Activity(what), what: what}
	m.startToastTick()
	return a
}

// PresentError implements mt.ErrorPresenter.
func (m *home) PresentError(text string) {
	m.lastError = text
	m.toasts.Error(text)
	m.startToastTick()
	m.journal.Add(ui.EntryFailed, firstLine(text))
}

// SetStopSensitive implements mt.Window.
func (m *home) SetStopSensitive(sensitive bool) {
	m.status.SetStopSensitive(sensitive)
	if !sensitive {
		m.status.SetMessage("")
	}
}

// pendingPrompt is a prompt waiting for the one on screen to be answered.
type pendingPrompt struct {
	confirm *mt.ConfirmRequest
	secret  *mt.SecretRequest

	answerConfirm func(bool)
	answerSecret  func(string, bool)
}

func (p *pendingPrompt) cancel() {
	if p.confirm != nil {
		p.answerConfirm(false)
		return
	}
	p.answerSecret("", false)
}

// Confirm implements mt.Prompter.
func (m *home) Confirm(req mt.ConfirmRequest, answer func(bool)) {
	m.enqueue(&pendingPrompt{confirm: &req, answerConfirm: answer})
}

// PromptSecret implements mt.Prompter.
func (m *home) PromptSecret(req mt.SecretRequest, answer func(string, bool)) {
	m.enqueue(&pendingPrompt{secret: &req, answerSecret: answer})
}

func (m *home) enqueue(p *pendingPrompt) {
	if m.quitting {
		p.cancel()
		return
	}
	m.prompts = append(m.prompts, p)
	m.openNextPrompt()
}

// openNextPrompt shows the oldest waiting prompt unless one is open.
func (m *home) openNextPrompt() {
	if m.confirm != nil || m.secret != nil || len(m.prompts) == 0 {
		return
	}
	p := m.prompts[0]
	m.prompts = m.prompts[1:]

	if p.confirm != nil {
		c := overlay.NewConfirmationOverlay(p.confirm.Prompt)
		c.Kind = confirmKind(p.confirm.Kind)
		c.AllowCancel = p.confirm.AllowCancel
		c.SetWidth(60)
		c.OnConfirm = func() { m.closePrompt(); p.answerConfirm(true) }
		c.OnCancel = func() { m.closePrompt(); p.answerConfirm(false) }
		m.confirm = c
		return
	}

	s := overlay.NewSecretInputOverlay(p.secret.Prompt, p.secret.Secret)
	s.SetWidth(60)
	s.OnSubmit = func(v string) { m.closePrompt(); p.answerSecret(v, true) }
	s.OnCancel = func() { m.closePrompt(); p.answerSecret("", false) }
	m.secret = s
	m.queueCmd(s.Init())
}

// closePrompt removes the open prompt and shows the next one.
func (m *home) closePrompt() {
	m.confirm = nil
	m.secret = nil
	m.openNextPrompt()
}

// cancelPrompts answers the open prompt and every waiting one with a
// cancel.
func (m *home) cancelPrompts() {
	waiting := m.prompts
	m.prompts = nil
	switch {
	case m.confirm != nil:
		m.confirm.Cancel()
	case m.secret != nil:
		m.secret.Cancel()
	}
	for _, p := range waiting {
		p.cancel()
	}
}

func confirmKind(k mt.MessageKind) overlay.ConfirmKind {
	switch k {
	case mt.KindInfo:
		return overlay.ConfirmInfo
	case mt.KindWarning:
		return overlay.ConfirmWarning
	case mt.KindError:
		return overlay.ConfirmError
	default:
		return overlay.ConfirmQuestion
	}
}
