package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"mediahub/internal/tui/focus"
	"mediahub/internal/tui/views"
)

// KeyMap defines the global key bindings. Screen bindings live with their views.
type KeyMap struct {
	Quit      key.Binding
	Interrupt key.Binding
	Help      key.Binding

	feed views.FeedKeyMap
}

// ShouldHandleKey reports whether the global bindings see msg. A focused
// text field keeps every key except ctrl+c.
func (k KeyMap) ShouldHandleKey(mode focus.Mode, msg tea.KeyMsg) bool {
	if mode == focus.ModeInput {
		return key.Matches(msg, k.Interrupt)
	}
	return true
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		feed: views.DefaultFeedKeyMap(),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.feed.Like, k.feed.Save, k.feed.Play, k.feed.Comments, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.feed.Up, k.feed.Down, k.feed.Refresh},
		{k.feed.Like, k.feed.Save, k.feed.Share},
		{k.feed.Play, k.feed.Mute, k.feed.Comments},
		{k.Help, k.Quit},
	}
}
