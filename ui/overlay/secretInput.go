package overlay

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SecretInputOverlay reads one line of text, optionally hidden.
type SecretInputOverlay struct {
	Title string
	// OnSubmit receives the typed text; OnCancel runs on esc.
	OnSubmit func(value string)
	OnCancel func()

	textinput textinput.Model
	answered  bool
	width     int
}

// NewSecretInputOverlay creates an input overlay. When secret is true the
// typed text is masked.
func NewSecretInputOverlay(title string, secret bool) *SecretInputOverlay {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 40
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return &SecretInputOverlay{
		Title:     title,
		textinput: ti,
		width:     50,
	}
}

// SetWidth sets the rendered width.
func (s *SecretInputOverlay) SetWidth(width int) {
	s.width = width
	s.textinput.Width = width - 10
}

// Init starts the cursor blink.
func (s *SecretInputOverlay) Init() tea.Cmd {
	return textinput.Blink
}

// HandleKeyPress processes a key press. It returns true once the overlay has
// been answered and should be closed.
func (s *SecretInputOverlay) HandleKeyPress(msg tea.KeyMsg) bool {
	if s.answered {
		return true
	}
	switch msg.Type {
	case tea.KeyEsc:
		s.Cancel()
		return true
	case tea.KeyEnter:
		s.answered = true
		if s.OnSubmit != nil {
			s.OnSubmit(s.textinput.Value())
		}
		return true
	default:
		s.textinput, _ = s.textinput.Update(msg)
		return false
	}
}

// Cancel answers without a value.
func (s *SecretInputOverlay) Cancel() {
	if s.answered {
		return
	}
	s.answered = true
	if s.OnCancel != nil {
		s.OnCancel()
	}
}

// Value returns the text typed so far.
func (s *SecretInputOverlay) Value() string {
	return s.textinput.Value()
}

// Render renders the input box.
func (s *SecretInputOverlay) Render() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(s.width)
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		MarginBottom(1)
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		MarginTop(1)

	content := titleStyle.Render(s.Title) + "\n"
	content += s.textinput.View() + "\n"
	content += helpStyle.Render("(Enter to submit, Esc to cancel)")
	return style.Render(content)
}
