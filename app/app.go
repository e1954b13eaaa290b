package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/ByteMirror/mailmt/config"
	"github.com/ByteMirror/mailmt/keys"
	"github.com/ByteMirror/mailmt/log"
	"github.com/ByteMirror/mailmt/mt"
	"github.com/ByteMirror/mailmt/tasks"
	"github.com/ByteMirror/mailmt/ui"
	"github.com/ByteMirror/mailmt/ui/overlay"
)

// closeTimeout bounds how long quitting waits for running jobs.
const closeTimeout = 5 * time.Second

// Options configures the terminal UI.
type Options struct {
	Config *config.Config
	// RepoPath is the repository fetch and history jobs work on.
	RepoPath string
}

// Run is the main entrypoint into the application.
func Run(ctx context.Context, opts Options) error {
	h := newHome(ctx, opts)
	defer h.zones.Close()

	p := tea.NewProgram(
		h,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}

// newCore creates a core wired to the given collaborators.
func newCore(cfg *config.Config, host mt.ActivityHost, prompter mt.Prompter, errs mt.ErrorPresenter) *mt.Core {
	return mt.New(
		mt.WithActivityHost(host),
		mt.WithPrompter(prompter),
		mt.WithErrorPresenter(errs),
		mt.WithMaxThreads(cfg.MaxThreads),
		mt.WithStatusLogInterval(cfg.StatusLogInterval()),
	)
}

// portReadyMsg reports that the core has jobs waiting for the UI goroutine.
type portReadyMsg struct{}

// closedMsg is sent once the core has shut down after a quit.
type closedMsg struct{ err error }

type home struct {
	ctx      context.Context
	cfg      *config.Config
	core     *mt.Core
	repoPath string

	// global spinner instance, shared by the status bar and activity toasts
	spinner spinner.Model
	zones   *zone.Manager
	toasts  *overlay.ToastManager
	status  *ui.StatusBar
	journal *ui.Journal

	// prompts waiting behind the open one
	prompts []*pendingPrompt
	confirm *overlay.ConfirmationOverlay
	secret  *overlay.SecretInputOverlay
	showHelp bool

	lastError string
	quitting  bool
	ticking   bool
	// cmds collects commands produced while draining the core.
	cmds []tea.Cmd

	width, height int
}

func newHome(ctx context.Context, opts Options) *home {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	h := &home{
		ctx:      ctx,
		cfg:      cfg,
		repoPath: opts.RepoPath,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		zones:    zone.New(),
		journal:  ui.NewJournal(200),
	}
	h.toasts = overlay.NewToastManager(&h.spinner, cfg.ProgressWidth, cfg.ErrorDismiss())
	h.status = ui.NewStatusBar(&h.spinner, h.zones)
	h.core = newCore(cfg, h, h, h)
	return h
}

func (m *home) Init() tea.Cmd {
	// bubbletea runs Init and Update on the same goroutine.
	m.core.BindUI()
	m.core.AddWindow(m)
	m.journal.Add(ui.EntryInfo, "ready")
	return tea.Batch(m.spinner.Tick, m.listen())
}

// listen waits for the core's ports off the UI goroutine.
func (m *home) listen() tea.Cmd {
	return ui.ListenCmd(m.ctx, m.core, portReadyMsg{})
}

func (m *home) queueCmd(cmd tea.Cmd) {
	if cmd != nil {
		m.cmds = append(m.cmds, cmd)
	}
}

func (m *home) takeCmds() []tea.Cmd {
	cmds := m.cmds
	m.cmds = nil
	return cmds
}

func toastTick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return overlay.ToastTickMsg{}
	})
}

func (m *home) startToastTick() {
	if !m.ticking {
		m.ticking = true
		m.queueCmd(toastTick())
	}
}

func (m *home) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case portReadyMsg:
		m.core.Drain()
		m.status.SetRunning(m.core.Busy())
		return m, tea.Batch(append(m.takeCmds(), m.listen())...)
	case overlay.ToastTickMsg:
		m.toasts.Tick()
		if m.toasts.HasActiveToasts() {
			return m, toastTick()
		}
		m.ticking = false
		return m, nil
	case closedMsg:
		m.core.Drain()
		if msg.err != nil {
			log.WarningLog.Printf("job core did not shut down cleanly: %v", msg.err)
		}
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if z := m.zones.Get(ui.StopZoneID); z != nil && m.status.StopSensitive() && z.InBounds(msg) {
			m.stop()
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}
	return m, nil
}

func (m *home) setSize(width, height int) {
	m.width, m.height = width, height
	m.toasts.SetSize(width, height)
	m.status.SetWidth(width)
	// header and status bar take a line each
	m.journal.SetSize(width, height-2)
}

func (m *home) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC && !m.quitting {
		return m, m.quit()
	}
	switch {
	case m.confirm != nil:
		m.confirm.HandleKeyPress(msg)
		return m, tea.Batch(m.takeCmds()...)
	case m.secret != nil:
		m.secret.HandleKeyPress(msg)
		return m, tea.Batch(m.takeCmds()...)
	case m.showHelp:
		m.showHelp = false
		return m, nil
	}

	name, ok := keys.Lookup(msg.String())
	if !ok || m.quitting {
		return m, nil
	}
	switch name {
	case keys.KeyQuit:
		return m, m.quit()
	case keys.KeyStop:
		m.stop()
	case keys.KeyHelp:
		m.showHelp = true
	case keys.KeyCopyError:
		m.copyLastError()
	case keys.KeyFetch:
		m.submitFetch()
	case keys.KeyLog:
		m.submitLog()
	case keys.KeyDemo:
		m.submitDemo()
	}
	return m, tea.Batch(m.takeCmds()...)
}

// stop cancels every running job.
func (m *home) stop() {
	m.core.CancelAll()
	m.status.SetMessage("stopping")
}

// quit cancels everything and shuts the core down off the UI goroutine, so
// replies keep flowing while workers finish.
func (m *home) quit() tea.Cmd {
	m.quitting = true
	m.core.CancelAll()
	m.cancelPrompts()
	m.status.SetMessage("quitting")
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		return closedMsg{err: m.core.Close(ctx)}
	}
}

func (m *home) copyLastError() {
	if m.lastError == "" {
		m.toasts.Info("no error to copy")
		m.startToastTick()
		return
	}
	if err := clipboard.WriteAll(m.lastError); err != nil {
		log.WarningLog.Printf("failed to copy error to clipboard: %v", err)
		m.toasts.Error(fmt.Sprintf("could not copy: %v", err))
	} else {
		m.toasts.Success("error copied to clipboard")
	}
	m.startToastTick()
}

func (m *home) submit(pool mt.Pool, ops mt.Ops) {
	if _, err := m.core.Submit(pool, ops, m.core.ReplyPort()); err != nil {
		m.journal.Add(ui.EntryFailed, fmt.Sprintf("could not start job: %v", err))
	}
}

func (m *home) needRepo() bool {
	if m.repoPath != "" {
		return true
	}
	m.toasts.Info("no repository: start mailmt inside a git repository")
	m.startToastTick()
	return false
}

func (m *home) submitFetch() {
	if !m.needRepo() {
		return
	}
	m.submit(mt.Queued, &tasks.Fetch{
		RepoPath:      m.repoPath,
		DefaultRemote: m.cfg.DefaultRemote,
		OnDone:        m.fetchDone,
	})
}

func (m *home) fetchDone(r tasks.FetchResult) {
	switch {
	case mt.IsUserCancel(r.Err):
		m.journal.Add(ui.EntryInfo, fmt.Sprintf("fetch from %s cancelled", r.Remote))
	case r.Err != nil:
		m.journal.Add(ui.EntryFailed, fmt.Sprintf("fetch from %s failed", r.Remote))
	case r.UpToDate:
		m.journal.Add(ui.EntryDone, fmt.Sprintf("%s is up to date", r.Remote))
	default:
		m.journal.Add(ui.EntryDone, fmt.Sprintf("fetched %s", r.Remote))
	}
}

func (m *home) submitLog() {
	if !m.needRepo() {
		return
	}
	m.submit(mt.PerSubmission, &tasks.LogWalk{
		RepoPath: m.repoPath,
		OnDone:   m.logDone,
	})
}

func (m *home) logDone(r tasks.LogResult) {
	name := filepath.Base(m.repoPath)
	switch {
	case mt.IsUserCancel(r.Err):
		m.journal.Add(ui.EntryInfo, fmt.Sprintf("history of %s cancelled after %d commits", name, r.Commits))
	case r.Err != nil:
		m.journal.Add(ui.EntryFailed, fmt.Sprintf("history of %s failed", name))
	default:
		top := make([]string, 0, 3)
		for i, a := range r.Authors {
			if i == 3 {
				break
			}
			top = append(top, fmt.Sprintf("%s (%d)", a.Name, a.Commits))
		}
		m.journal.Add(ui.EntryDone, fmt.Sprintf("%s: %d commits, top authors %s", name, r.Commits, strings.Join(top, ", ")))
	}
}

func (m *home) submitDemo() {
	m.submit(mt.PerSubmission, &tasks.Sleep{
		Name:     "Demo job",
		Duration: 3 * time.Second,
		Steps:    30,
		OnDone: func(completed int, err error) {
			if mt.IsUserCancel(err) {
				m.journal.Add(ui.EntryInfo, fmt.Sprintf("demo job stopped at step %d", completed))
				return
			}
			m.journal.Add(ui.EntryDone, "demo job finished")
		},
	})
}

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7EC8D8"))

func (m *home) header() string {
	title := "mailmt"
	if m.repoPath != "" {
		title += " · " + filepath.Base(m.repoPath)
	}
	return headerStyle.Render(title)
}

func (m *home) View() string {
	if m.width == 0 {
		return ""
	}
	var body string
	switch {
	case m.confirm != nil:
		body = overlay.PlaceCenter(m.width, m.height-1, m.confirm.Render())
	case m.secret != nil:
		body = overlay.PlaceCenter(m.width, m.height-1, m.secret.Render())
	case m.showHelp:
		body = overlay.PlaceCenter(m.width, m.height-1, helpView())
	default:
		body = lipgloss.JoinVertical(lipgloss.Left, m.header(), m.journal.View())
		x, y := m.toasts.GetPosition()
		body = overlay.PlaceAt(x, y, m.toasts.View(), body)
	}
	return m.zones.Scan(lipgloss.JoinVertical(lipgloss.Left, body, m.status.View()))
}
