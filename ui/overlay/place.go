package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// PlaceCenter draws fg centered in a width by height area. The background is
// not kept: modals take the whole screen.
func PlaceCenter(width, height int, fg string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, fg)
}

// PlaceAt draws fg over bg with its top left corner at column x, row y.
// Cells of bg right of fg are dropped.
func PlaceAt(x, y int, fg, bg string) string {
	if fg == "" {
		return bg
	}
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")
	for len(bgLines) < y+len(fgLines) {
		bgLines = append(bgLines, "")
	}
	for i, line := range fgLines {
		base := bgLines[y+i]
		if w := lipgloss.Width(base); w < x {
			base += strings.Repeat(" ", x-w)
		} else {
			base = truncate.String(base, uint(x))
		}
		bgLines[y+i] = base + line
	}
	return strings.Join(bgLines, "\n")
}
