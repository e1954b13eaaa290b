package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"
)

// StopZoneID marks the clickable stop button.
const StopZoneID = "stop"

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#dddddd")).
			Background(lipgloss.Color("#303030"))
	stopStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#de613e")).
			Padding(0, 1).
			Bold(true)
	stopDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#777777")).
				Background(lipgloss.Color("#3a3a3a")).
				Padding(0, 1)
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Background(lipgloss.Color("#303030"))
)

// StatusBar is the bottom line: busy spinner, stop button and key hints.
type StatusBar struct {
	spinner *spinner.Model
	zones   *zone.Manager
	width   int

	stopSensitive bool
	running       int
	message       string
}

// NewStatusBar creates a status bar. zones may be nil when mouse support is
// off.
func NewStatusBar(s *spinner.Model, zones *zone.Manager) *StatusBar {
	return &StatusBar{spinner: s, zones: zones}
}

func (b *StatusBar) SetWidth(width int) { b.width = width }

// SetStopSensitive enables or greys out the stop button.
func (b *StatusBar) SetStopSensitive(sensitive bool) { b.stopSensitive = sensitive }

// StopSensitive reports whether the stop button is enabled.
func (b *StatusBar) StopSensitive() bool { return b.stopSensitive }

// SetRunning sets the number of jobs shown as running.
func (b *StatusBar) SetRunning(n int) { b.running = n }

// SetMessage sets a short message shown after the job count.
func (b *StatusBar) SetMessage(msg string) { b.message = msg }

func (b *StatusBar) stopButton() string {
	if !b.stopSensitive {
		return stopDisabledStyle.Render("■ stop")
	}
	button := stopStyle.Render("■ stop")
	if b.zones != nil {
		button = b.zones.Mark(StopZoneID, button)
	}
	return button
}

// View renders the bar at its configured width.
func (b *StatusBar) View() string {
	var left string
	if b.stopSensitive {
		left = fmt.Sprintf(" %s %d running", b.spinner.View(), b.running)
	} else {
		left = " ● idle"
	}
	if b.message != "" {
		left += " · " + b.message
	}
	hints := hintStyle.Render(" f fetch · l log · d demo · c copy error · s stop · q quit ")
	button := b.stopButton()

	room := b.width - lipgloss.Width(button) - lipgloss.Width(hints) - 1
	if room < 0 {
		hints = ""
		room = b.width - lipgloss.Width(button) - 1
	}
	if room < 1 {
		room = 1
	}
	if lipgloss.Width(left) > room {
		left = runewidth.Truncate(left, room, "…")
	}
	gap := b.width - lipgloss.Width(left) - lipgloss.Width(button) - lipgloss.Width(hints) - 1
	if gap < 0 {
		gap = 0
	}
	return statusStyle.Render(left+strings.Repeat(" ", gap)) + hints + " " + button
}
