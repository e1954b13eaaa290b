package app

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ByteMirror/mailmt/keys"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("#7D56F4"))
	keyStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFCC00"))
	descStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	helpBox    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
)

func helpView() string {
	lines := []string{
		titleStyle.Render("mailmt"),
		"",
		"Background jobs report progress in the top right corner.",
		"Errors stay in the journal; the last one can be copied.",
		"",
	}
	for _, name := range keys.Ordered {
		h := keys.GlobalkeyBindings[name].Help()
		lines = append(lines, keyStyle.Render(h.Key)+descStyle.Render("  - "+h.Desc))
	}
	lines = append(lines, "", descStyle.Render("press any key to close"))
	return helpBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
