package components

import (
	"errors"

	"mediahub/internal/tui/styles"
	"mediahub/pkg/models"
)

// ErrorBanner shows the last failed action until dismissed
type ErrorBanner struct {
	action string
	err    error
}

// Set records err for action. A nil err clears the banner.
func (e *ErrorBanner) Set(action string, err error) {
	e.action = action
	e.err = err
}

// Clear hides the banner
func (e *ErrorBanner) Clear() {
	e.action = ""
	e.err = nil
}

// HasError reports whether the banner is shown
func (e ErrorBanner) HasError() bool {
	return e.err != nil
}

// View renders the banner, or nothing when there is no error
func (e ErrorBanner) View() string {
	if e.err == nil {
		return ""
	}
	if errors.Is(e.err, models.ErrSessionExpired) {
		return styles.WarningStyle.Render("⚠ Session expired, sign in again")
	}
	msg := e.err.Error()
	if e.action != "" {
		msg = e.action + ": " + msg
	}
	return styles.ErrorStyle.Render("⚠ "+styles.Truncate(msg, 100)) + " " +
		styles.HelpStyle.Render("(esc to dismiss)")
}
