package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/ByteMirror/mailmt/config"
	"github.com/ByteMirror/mailmt/log"
	"github.com/ByteMirror/mailmt/mt"
)

// Headless implements the core's collaborators on a plain line-oriented
// terminal or pipe. Progress goes to out and prompts are answered from in.
// Apart from prompt answers, everything runs on the UI goroutine.
type Headless struct {
	out *termenv.Output
	in  *bufio.Reader
	// inFd is the terminal behind in, or -1 when in is not a terminal.
	inFd int

	errors    int
	lastError string
}

// NewHeadless creates a headless host writing to out and reading answers
// from in.
func NewHeadless(out io.Writer, in io.Reader) *Headless {
	h := &Headless{
		out:  termenv.NewOutput(out),
		in:   bufio.NewReader(in),
		inFd: -1,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		h.inFd = int(f.Fd())
	}
	return h
}

// Errors returns how many errors have been presented.
func (h *Headless) Errors() int { return h.errors }

// LastError returns the text of the last presented error.
func (h *Headless) LastError() string { return h.lastError }

func (h *Headless) styled(s, color string) string {
	return h.out.String(s).Foreground(h.out.Color(color)).String()
}

func (h *Headless) println(s string) {
	fmt.Fprintln(h.out, s)
}

type lineActivity struct {
	h      *Headless
	what   string
	text   string
	bucket int
}

// Update prints a line when the text changes or the percentage crosses a
// tenth.
func (a *lineActivity) Update(text string, percent int) {
	bucket := percent / 10
	if text == a.text && bucket == a.bucket {
		return
	}
	a.text, a.bucket = text, bucket
	line := fmt.Sprintf("%s %s", a.h.styled("["+a.what+"]", "6"), text)
	if percent > 0 {
		line += fmt.Sprintf(" %d%%", percent)
	}
	a.h.println(line)
}

func (a *lineActivity) Close() {
	a.h.println(fmt.Sprintf("%s done", a.h.styled("["+a.what+"]", "6")))
}

// NewActivity implements mt.ActivityHost.
func (h *Headless) NewActivity(id mt.ID, what string) mt.Activity {
	return &lineActivity{h: h, what: what, bucket: -1}
}

// PresentError implements mt.ErrorPresenter.
func (h *Headless) PresentError(text string) {
	h.errors++
	h.lastError = text
	h.println(h.styled("error: ", "1") + text)
}

// SetStopSensitive implements mt.Window.
func (h *Headless) SetStopSensitive(sensitive bool) {
	log.DebugLog.Printf("headless host busy: %v", sensitive)
}

// Confirm implements mt.Prompter. End of input declines.
func (h *Headless) Confirm(req mt.ConfirmRequest, answer func(bool)) {
	hint := "[press enter]"
	if req.AllowCancel {
		hint = "[y/N]"
	}
	fmt.Fprintf(h.out, "%s %s ", req.Prompt, hint)
	go func() {
		line, ok := h.readLine()
		if !ok {
			answer(false)
			return
		}
		if !req.AllowCancel {
			answer(true)
			return
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			answer(true)
		default:
			answer(false)
		}
	}()
}

// PromptSecret implements mt.Prompter. Secret text is read without echo when
// input is a terminal. End of input cancels.
func (h *Headless) PromptSecret(req mt.SecretRequest, answer func(string, bool)) {
	fmt.Fprintf(h.out, "%s: ", req.Prompt)
	go func() {
		if req.Secret && h.inFd >= 0 {
			b, err := term.ReadPassword(h.inFd)
			h.println("")
			if err != nil {
				log.WarningLog.Printf("failed to read secret: %v", err)
				answer("", false)
				return
			}
			answer(string(b), true)
			return
		}
		line, ok := h.readLine()
		answer(line, ok)
	}()
}

func (h *Headless) readLine() (string, bool) {
	line, err := h.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

// RunHeadless runs ops as a single job with h as the host and waits for it,
// on the calling goroutine. Cancelling ctx cancels the job. It returns an
// error if the job's failure was presented.
func RunHeadless(ctx context.Context, h *Headless, cfg *config.Config, pool mt.Pool, ops mt.Ops) error {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	core := newCore(cfg, h, h, h)
	core.BindUI()
	core.AddWindow(h)

	id, err := core.Submit(pool, ops, core.ReplyPort())
	if err != nil {
		return fmt.Errorf("failed to submit job: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { core.Cancel(id) })
	defer stop()

	core.WaitFor(id)
	core.Drain()

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := core.Close(closeCtx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.errors > 0 {
		return fmt.Errorf("job failed: %s", firstLine(h.lastError))
	}
	return nil
}

func firstLine(s string) string {
	first, _, _ := strings.Cut(s, "\n")
	return first
}
