// Package styles holds the lipgloss styles shared by every TUI view.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette roles. Each colour has a light and dark terminal variant.
var (
	Text    = lipgloss.AdaptiveColor{Light: "#1f2330", Dark: "#eceff4"}
	Dim     = lipgloss.AdaptiveColor{Light: "#7a8194", Dark: "#7b88a1"}
	Surface = lipgloss.AdaptiveColor{Light: "#dde1ea", Dark: "#3b4252"}
	Accent  = lipgloss.AdaptiveColor{Light: "#5e4fc9", Dark: "#b48ead"}
	Link    = lipgloss.AdaptiveColor{Light: "#1b6fa8", Dark: "#88c0d0"}
	Like    = lipgloss.AdaptiveColor{Light: "#c22d5a", Dark: "#f06292"}
	Save    = lipgloss.AdaptiveColor{Light: "#a66f00", Dark: "#ebcb8b"}
	Play    = lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#a3be8c"}
	Warn    = lipgloss.AdaptiveColor{Light: "#b35c00", Dark: "#d08770"}
	Danger  = lipgloss.AdaptiveColor{Light: "#b3261e", Dark: "#bf616a"}
)

func fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func bold(c lipgloss.TerminalColor) lipgloss.Style {
	return fg(c).Bold(true)
}

var (
	AppStyle      = fg(Text).Padding(1, 2)
	TitleStyle    = bold(Accent).Padding(0, 1)
	SubtitleStyle = fg(Link)

	StatusBarStyle       = fg(Text).Background(Surface).Padding(0, 1)
	StatusBarActiveStyle = bold(Play).Background(Surface).Padding(0, 1)

	InputPromptStyle  = bold(Accent)
	InputFocusedStyle = bold(Like)
	ButtonStyle       = fg(Text).Background(Surface).Padding(0, 2)
	ButtonActiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#2e3440"}).
				Background(Accent).
				Bold(true).
				Padding(0, 2)

	ListItemStyle         = fg(Text).PaddingLeft(2)
	ListItemSelectedStyle = bold(Like).
				PaddingLeft(1).
				Border(lipgloss.ThickBorder(), false, false, false, true).
				BorderForeground(Accent)
	ListItemDescStyle = fg(Dim)
	CardStyle         = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Accent).
				Padding(0, 1)

	LikedStyle   = bold(Like)
	SavedStyle   = bold(Save)
	PlayingStyle = bold(Play)
	MutedStyle   = fg(Dim)

	InfoStyle    = bold(Link)
	SuccessStyle = bold(Play)
	WarningStyle = bold(Warn)
	ErrorStyle   = bold(Danger)
	HelpStyle    = fg(Dim).Italic(true)
	SpinnerStyle = fg(Accent)

	progressDone = fg(Play)
	progressLeft = fg(Surface)
)

// Truncate shortens s to n runes, marking the cut with an ellipsis
func Truncate(s string, n int) string {
	r := []rune(s)
	switch {
	case len(r) <= n:
		return s
	case n < 1:
		return ""
	}
	return string(r[:n-1]) + "…"
}

// RenderProgressBar draws progress in [0,1] as a bar of width cells
func RenderProgressBar(progress float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(float64(width)*progress + 0.5)
	filled = max(0, min(width, filled))
	return progressDone.Render(strings.Repeat("━", filled)) +
		progressLeft.Render(strings.Repeat("─", width-filled))
}
