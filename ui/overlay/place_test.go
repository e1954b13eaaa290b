package overlay

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestPlaceAt(t *testing.T) {
	bg := "aaaaaaaa\nbbbbbbbb\ncccccccc"
	got := PlaceAt(4, 1, "XY\nZW", bg)
	assert.Equal(t, "aaaaaaaa\nbbbbXY\nccccZW", got)

	got = PlaceAt(2, 2, "Q", "a")
	assert.Equal(t, "a\n\n  Q", got)
	assert.Equal(t, bg, PlaceAt(1, 1, "", bg))
}

func TestPlaceCenter(t *testing.T) {
	out := PlaceCenter(10, 3, "x")
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "x", strings.TrimSpace(lines[1]))
	assert.Equal(t, 10, lipgloss.Width(lines[1]))
}

func TestConfirmationOverlay(t *testing.T) {
	var answers []bool
	newOverlay := func(allowCancel bool) *ConfirmationOverlay {
		c := NewConfirmationOverlay("Fetch from upstream?")
		c.AllowCancel = allowCancel
		c.OnConfirm = func() { answers = append(answers, true) }
		c.OnCancel = func() { answers = append(answers, false) }
		return c
	}

	c := newOverlay(true)
	assert.False(t, c.HandleKeyPress(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}))
	assert.True(t, c.HandleKeyPress(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}))
	c.Cancel()

	c = newOverlay(true)
	assert.True(t, c.HandleKeyPress(tea.KeyMsg{Type: tea.KeyEsc}))

	c = newOverlay(false)
	assert.False(t, c.HandleKeyPress(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}), "n does nothing without a cancel option")
	assert.True(t, c.HandleKeyPress(tea.KeyMsg{Type: tea.KeyEnter}))

	assert.Equal(t, []bool{true, false, true}, answers)
	assert.Contains(t, c.Render(), "Fetch from upstream?")
}

func TestSecretInputOverlay(t *testing.T) {
	var got string
	var cancelled bool
	s := NewSecretInputOverlay("Password for origin", true)
	s.OnSubmit = func(v string) { got = v }
	s.OnCancel = func() { cancelled = true }

	assert.False(t, s.HandleKeyPress(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hunter2")}))
	assert.Equal(t, "hunter2", s.Value())
	assert.NotContains(t, s.Render(), "hunter2", "secret text is masked")

	assert.True(t, s.HandleKeyPress(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.Equal(t, "hunter2", got)
	s.Cancel()
	assert.False(t, cancelled, "an answered overlay cannot be cancelled")
}
