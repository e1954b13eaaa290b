package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Waiter blocks until it has work for the UI goroutine.
type Waiter interface {
	WaitReady(ctx context.Context) error
}

// ListenCmd returns a command that waits on w off the UI goroutine and then
// delivers msg to Update. It delivers nothing once ctx is done.
func ListenCmd(ctx context.Context, w Waiter, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if err := w.WaitReady(ctx); err != nil {
			return nil
		}
		return msg
	}
}
