package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"mediahub/internal/tui/styles"
)

// Spinner shows a loading message next to an animated glyph
type Spinner struct {
	spinner spinner.Model
	message string
}

// NewSpinner creates a spinner with message
func NewSpinner(message string) Spinner {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = styles.SpinnerStyle
	return Spinner{spinner: s, message: message}
}

// Tick starts the animation
func (s Spinner) Tick() tea.Cmd {
	return s.spinner.Tick
}

// SetMessage replaces the message
func (s *Spinner) SetMessage(msg string) {
	s.message = msg
}

// Update advances the animation for spinner ticks
func (s *Spinner) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

func (s Spinner) View() string {
	return s.spinner.View() + " " + styles.InfoStyle.Render(s.message)
}
