package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// EntryKind colors a journal line.
type EntryKind int

const (
	EntryInfo EntryKind = iota
	EntryDone
	EntryFailed
)

// Entry is one line of the journal.
type Entry struct {
	At   time.Time
	Kind EntryKind
	Text string
}

// Journal lists what finished jobs reported, newest last.
type Journal struct {
	entries []Entry
	max     int
	width   int
	height  int
}

// NewJournal keeps at most max entries.
func NewJournal(max int) *Journal {
	if max <= 0 {
		max = 200
	}
	return &Journal{max: max}
}

func (j *Journal) SetSize(width, height int) {
	j.width = width
	j.height = height
}

// Add appends an entry, dropping the oldest beyond the limit.
func (j *Journal) Add(kind EntryKind, text string) {
	j.entries = append(j.entries, Entry{At: time.Now(), Kind: kind, Text: text})
	if over := len(j.entries) - j.max; over > 0 {
		j.entries = j.entries[over:]
	}
}

// Entries returns the stored entries.
func (j *Journal) Entries() []Entry {
	return j.entries
}

func entryStyle(kind EntryKind) lipgloss.Style {
	switch kind {
	case EntryDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#A8D8A8"))
	case EntryFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#7EC8D8"))
	}
}

// View renders the newest entries that fit.
func (j *Journal) View() string {
	if j.height <= 0 {
		return ""
	}
	start := len(j.entries) - j.height
	if start < 0 {
		start = 0
	}
	lines := make([]string, 0, j.height)
	for _, e := range j.entries[start:] {
		text := strings.ReplaceAll(e.Text, "\n", " ")
		line := fmt.Sprintf("%s  %s", e.At.Format("15:04:05"), text)
		if j.width > 0 {
			line = runewidth.Truncate(line, j.width, "…")
		}
		lines = append(lines, entryStyle(e.Kind).Render(line))
	}
	for len(lines) < j.height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
