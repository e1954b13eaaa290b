package overlay

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
)

// ToastType identifies the kind of toast notification.
type ToastType int

const (
	ToastInfo ToastType = iota
	ToastSuccess
	ToastError
	// ToastActivity follows a running job and carries a progress bar.
	ToastActivity
)

// AnimPhase represents the current animation phase of a toast.
type AnimPhase int

const (
	PhaseSlidingIn AnimPhase = iota
	PhaseVisible
	PhaseSlidingOut
	PhaseDone
)

const (
	SlideInDuration  = 300 * time.Millisecond
	SlideOutDuration = 200 * time.Millisecond

	InfoDismissAfter    = 3 * time.Second
	SuccessDismissAfter = 3 * time.Second
	DefaultErrorDismiss = 5 * time.Second

	MinToastWidth = 38
	MaxToastWidth = 60
	MaxToasts     = 6
)

type toast struct {
	ID         string
	Type       ToastType
	Title      string
	Detail     string
	Percent    int
	Phase      AnimPhase
	PhaseStart time.Time
	Duration   time.Duration // 0 means no auto-dismiss
}

// ToastManager stacks job activities and notifications in the top right
// corner. It is only touched from the bubbletea goroutine.
type ToastManager struct {
	toasts       []*toast
	spinner      *spinner.Model
	bar          progress.Model
	errorDismiss time.Duration
	width        int
	height       int
}

// NewToastManager creates a manager whose activity toasts use the given
// spinner and progress bars barWidth cells wide.
func NewToastManager(s *spinner.Model, barWidth int, errorDismiss time.Duration) *ToastManager {
	if errorDismiss <= 0 {
		errorDismiss = DefaultErrorDismiss
	}
	return &ToastManager{
		spinner:      s,
		bar:          progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth), progress.WithoutPercentage()),
		errorDismiss: errorDismiss,
	}
}

// SetSize updates the available viewport dimensions for toast positioning.
func (tm *ToastManager) SetSize(width, height int) {
	tm.width = width
	tm.height = height
}

func (tm *ToastManager) toastWidth() int {
	w := tm.width * 40 / 100
	if w < MinToastWidth {
		return MinToastWidth
	}
	if w > MaxToastWidth {
		return MaxToastWidth
	}
	return w
}

// Info creates an informational toast and returns its ID.
func (tm *ToastManager) Info(msg string) string {
	return tm.add(ToastInfo, msg, InfoDismissAfter)
}

// Success creates a success toast and returns its ID.
func (tm *ToastManager) Success(msg string) string {
	return tm.add(ToastSuccess, msg, SuccessDismissAfter)
}

// Error creates an error toast and returns its ID.
func (tm *ToastManager) Error(msg string) string {
	return tm.add(ToastError, msg, tm.errorDismiss)
}

// Activity creates a toast that stays until Finish is called.
func (tm *ToastManager) Activity(title string) string {
	return tm.add(ToastActivity, title, 0)
}

// Progress updates the detail line and bar of an activity toast.
func (tm *ToastManager) Progress(id, detail string, percent int) {
	if t := tm.find(id); t != nil {
		t.Detail = detail
		t.Percent = percent
	}
}

// Finish slides an activity toast out. Unknown IDs are ignored.
func (tm *ToastManager) Finish(id string) {
	if t := tm.find(id); t != nil && t.Phase < PhaseSlidingOut {
		t.Phase = PhaseSlidingOut
		t.PhaseStart = time.Now()
	}
}

// Count returns the number of toasts of the given type still on screen.
func (tm *ToastManager) Count(typ ToastType) int {
	n := 0
	for _, t := range tm.toasts {
		if t.Type == typ && t.Phase != PhaseDone {
			n++
		}
	}
	return n
}

// HasActiveToasts returns true if any toast still needs animation ticks.
func (tm *ToastManager) HasActiveToasts() bool {
	for _, t := range tm.toasts {
		if t.Phase != PhaseDone {
			return true
		}
	}
	return false
}

func (tm *ToastManager) find(id string) *toast {
	for _, t := range tm.toasts {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (tm *ToastManager) add(typ ToastType, title string, duration time.Duration) string {
	now := time.Now()
	t := &toast{
		ID:         uuid.NewString(),
		Type:       typ,
		Title:      title,
		Phase:      PhaseSlidingIn,
		PhaseStart: now,
		Duration:   duration,
	}
	tm.evict()
	tm.toasts = append(tm.toasts, t)
	return t.ID
}

// evict makes room for one more toast, dropping notifications before
// activities.
func (tm *ToastManager) evict() {
	for len(tm.toasts) >= MaxToasts {
		victim := 0
		for i, t := range tm.toasts {
			if t.Type != ToastActivity {
				victim = i
				break
			}
		}
		tm.toasts = append(tm.toasts[:victim], tm.toasts[victim+1:]...)
	}
}

// ToastTickMsg drives toast animations while any toast is on screen.
type ToastTickMsg struct{}

// Tick advances animation phases and drops finished toasts.
func (tm *ToastManager) Tick() {
	now := time.Now()
	alive := tm.toasts[:0]
	for _, t := range tm.toasts {
		elapsed := now.Sub(t.PhaseStart)
		switch t.Phase {
		case PhaseSlidingIn:
			if elapsed >= SlideInDuration {
				t.Phase = PhaseVisible
				t.PhaseStart = now
			}
		case PhaseVisible:
			if t.Duration > 0 && elapsed >= t.Duration {
				t.Phase = PhaseSlidingOut
				t.PhaseStart = now
			}
		case PhaseSlidingOut:
			if elapsed >= SlideOutDuration {
				continue
			}
		case PhaseDone:
			continue
		}
		alive = append(alive, t)
	}
	tm.toasts = alive
}

func toastColor(typ ToastType) string {
	switch typ {
	case ToastSuccess:
		return "#A8D8A8"
	case ToastError:
		return "#FF6B6B"
	case ToastActivity:
		return "#F0A868"
	default:
		return "#7EC8D8"
	}
}

func (tm *ToastManager) icon(typ ToastType) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(toastColor(typ)))
	switch typ {
	case ToastSuccess:
		return style.Render("✓")
	case ToastError:
		return style.Render("✗")
	case ToastActivity:
		return style.Render(tm.spinner.View())
	default:
		return style.Render("▸")
	}
}

func (tm *ToastManager) render(t *toast) string {
	tw := tm.toastWidth()
	icon := tm.icon(t.Type)
	// border (2) + padding (2) + icon + space
	textWidth := tw - 4 - lipgloss.Width(icon) - 1
	if textWidth < 10 {
		textWidth = 10
	}
	indent := strings.Repeat(" ", lipgloss.Width(icon)+1)

	var body string
	if t.Type == ToastActivity {
		body = runewidth.Truncate(t.Title, textWidth, "…")
		if t.Detail != "" {
			body += "\n" + indent + runewidth.Truncate(t.Detail, textWidth, "…")
		}
		bar := tm.bar
		bar.Width = textWidth
		body += "\n" + indent + bar.ViewAs(float64(t.Percent)/100)
	} else {
		lines := strings.Split(wordwrap.String(t.Title, textWidth), "\n")
		for i := 1; i < len(lines); i++ {
			lines[i] = indent + lines[i]
		}
		body = strings.Join(lines, "\n")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(toastColor(t.Type))).
		Padding(0, 1).
		Width(tw).
		Render(icon + " " + body)
}

// View renders all toasts stacked vertically.
func (tm *ToastManager) View() string {
	var rendered []string
	for _, t := range tm.toasts {
		if t.Phase == PhaseDone {
			continue
		}
		rendered = append(rendered, tm.render(t))
	}
	if len(rendered) == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}

func (t *toast) slideOffset(toastWidth int) int {
	full := toastWidth + 4
	switch t.Phase {
	case PhaseSlidingIn:
		p := float64(time.Since(t.PhaseStart)) / float64(SlideInDuration)
		if p > 1 {
			p = 1
		}
		p = 1 - (1-p)*(1-p)
		return int(float64(full) * (1 - p))
	case PhaseSlidingOut:
		p := float64(time.Since(t.PhaseStart)) / float64(SlideOutDuration)
		if p > 1 {
			p = 1
		}
		return int(float64(full) * p * p)
	default:
		return 0
	}
}

// GetPosition returns the x, y coordinates for placing the toast stack.
func (tm *ToastManager) GetPosition() (int, int) {
	tw := tm.toastWidth()
	x := tm.width - tw - 4
	if x < 0 {
		x = 0
	}
	maxOffset := 0
	for _, t := range tm.toasts {
		if off := t.slideOffset(tw); off > maxOffset {
			maxOffset = off
		}
	}
	return x + maxOffset, 1
}
