package keys

import (
	"github.com/charmbracelet/bubbles/key"
)

type KeyName int

const (
	KeyFetch KeyName = iota
	KeyLog
	KeyDemo
	KeyStop
	KeyCopyError
	KeyHelp
	KeyQuit
)

// GlobalKeyStringsMap maps a key string from tea.KeyMsg to its action.
var GlobalKeyStringsMap = map[string]KeyName{
	"f":      KeyFetch,
	"l":      KeyLog,
	"d":      KeyDemo,
	"s":      KeyStop,
	"c":      KeyCopyError,
	"?":      KeyHelp,
	"q":      KeyQuit,
	"ctrl+c": KeyQuit,
}

// GlobalkeyBindings holds the help text for every action.
var GlobalkeyBindings = map[KeyName]key.Binding{
	KeyFetch: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "fetch"),
	),
	KeyLog: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "read history"),
	),
	KeyDemo: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "demo job"),
	),
	KeyStop: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "stop all jobs"),
	),
	KeyCopyError: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy last error"),
	),
	KeyHelp: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	KeyQuit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Ordered lists actions in the order help shows them.
var Ordered = []KeyName{KeyFetch, KeyLog, KeyDemo, KeyStop, KeyCopyError, KeyHelp, KeyQuit}

// Lookup returns the action bound to a key string.
func Lookup(s string) (KeyName, bool) {
	name, ok := GlobalKeyStringsMap[s]
	return name, ok
}
