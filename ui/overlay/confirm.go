package overlay

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// ConfirmKind picks the border color of a confirmation.
type ConfirmKind int

const (
	ConfirmInfo ConfirmKind = iota
	ConfirmWarning
	ConfirmError
	ConfirmQuestion
)

// ConfirmationOverlay asks a yes/no question, or shows a message that only
// needs acknowledging when AllowCancel is false.
type ConfirmationOverlay struct {
	Kind        ConfirmKind
	AllowCancel bool
	// OnConfirm and OnCancel are called once, when the user answers.
	OnConfirm func()
	OnCancel  func()

	message  string
	answered bool
	width    int
}

// NewConfirmationOverlay creates a confirmation for message.
func NewConfirmationOverlay(message string) *ConfirmationOverlay {
	return &ConfirmationOverlay{
		Kind:        ConfirmQuestion,
		AllowCancel: true,
		message:     message,
		width:       50,
	}
}

// SetWidth sets the rendered width.
func (c *ConfirmationOverlay) SetWidth(width int) {
	c.width = width
}

// HandleKeyPress processes a key press. It returns true once the overlay has
// been answered and should be closed.
func (c *ConfirmationOverlay) HandleKeyPress(msg tea.KeyMsg) bool {
	if c.answered {
		return true
	}
	switch msg.String() {
	case "y", "Y", "enter":
		c.answer(true)
		return true
	case "n", "N", "esc":
		if !c.AllowCancel {
			if msg.String() == "esc" {
				c.answer(true)
				return true
			}
			return false
		}
		c.answer(false)
		return true
	}
	return false
}

// Cancel answers no without user input, for teardown.
func (c *ConfirmationOverlay) Cancel() {
	if !c.answered {
		c.answer(false)
	}
}

func (c *ConfirmationOverlay) answer(ok bool) {
	c.answered = true
	if ok && c.OnConfirm != nil {
		c.OnConfirm()
	}
	if !ok && c.OnCancel != nil {
		c.OnCancel()
	}
}

func (c *ConfirmationOverlay) color() lipgloss.Color {
	switch c.Kind {
	case ConfirmWarning:
		return lipgloss.Color("#F0A868")
	case ConfirmError:
		return lipgloss.Color("#de613e")
	case ConfirmInfo:
		return lipgloss.Color("62")
	default:
		return lipgloss.Color("#7EC8D8")
	}
}

// Render renders the confirmation box.
func (c *ConfirmationOverlay) Render() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c.color()).
		Padding(1, 2).
		Width(c.width)
	help := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)

	hint := "(enter to continue)"
	if c.AllowCancel {
		hint = "(y to confirm, n or esc to cancel)"
	}
	body := wordwrap.String(c.message, c.width-6)
	return style.Render(body + "\n" + help.Render(hint))
}
