package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"mediahub/internal/tui/components"
	"mediahub/internal/tui/styles"
	"mediahub/pkg/models"
	"mediahub/pkg/utils"
)

// Authenticator signs a user in and stores the issued token
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
}

// AuthSuccessMsg is sent when login succeeds
type AuthSuccessMsg struct {
	Username string
	UserID   string
	Token    string
}

// AuthErrorMsg is sent when login fails
type AuthErrorMsg struct {
	Err error
}

const (
	fieldUsername = iota
	fieldPassword
	fieldSubmit
	fieldCount
)

// AuthModel is the login form
type AuthModel struct {
	auth Authenticator

	usernameInput textinput.Model
	passwordInput textinput.Model

	focusIndex int
	loading    bool
	spinner    components.Spinner
	err        error
	notice     string

	width  int
	height int
}

// NewAuthModel creates the login form
func NewAuthModel(auth Authenticator) AuthModel {
	usernameInput := textinput.New()
	usernameInput.Placeholder = "Username"
	usernameInput.CharLimit = 50
	usernameInput.Width = 30
	usernameInput.Focus()

	passwordInput := textinput.New()
	passwordInput.Placeholder = "Password"
	passwordInput.CharLimit = 100
	passwordInput.Width = 30
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.EchoCharacter = '•'

	return AuthModel{
		auth:          auth,
		usernameInput: usernameInput,
		passwordInput: passwordInput,
		spinner:       components.NewSpinner("Signing in..."),
	}
}

func (m AuthModel) Init() tea.Cmd {
	return textinput.Blink
}

// Expired resets the form after the session was rejected
func (m AuthModel) Expired() AuthModel {
	m.passwordInput.Reset()
	m.loading = false
	m.err = nil
	m.notice = "Your session expired. Sign in again to keep your likes and saves in sync."
	return m.focus(fieldPassword)
}

// Update handles messages
func (m AuthModel) Update(msg tea.Msg) (AuthModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("tab", "down"))):
			return m.focus((m.focusIndex + 1) % fieldCount), nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("shift+tab", "up"))):
			return m.focus((m.focusIndex + fieldCount - 1) % fieldCount), nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if m.focusIndex == fieldUsername {
				return m.focus(fieldPassword), nil
			}
			return m.submit()
		}

	case AuthSuccessMsg:
		m.loading = false
		m.err = nil
		m.notice = ""
		m.passwordInput.Reset()
		return m, nil

	case AuthErrorMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focusIndex {
	case fieldUsername:
		m.usernameInput, cmd = m.usernameInput.Update(msg)
	case fieldPassword:
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	default:
		if m.loading {
			cmd = m.spinner.Update(msg)
		}
	}
	return m, cmd
}

func (m AuthModel) focus(i int) AuthModel {
	m.focusIndex = i
	m.usernameInput.Blur()
	m.passwordInput.Blur()
	switch i {
	case fieldUsername:
		m.usernameInput.Focus()
	case fieldPassword:
		m.passwordInput.Focus()
	}
	return m
}

func (m AuthModel) submit() (AuthModel, tea.Cmd) {
	username := strings.TrimSpace(m.usernameInput.Value())
	password := m.passwordInput.Value()
	if username == "" || password == "" {
		m.err = fmt.Errorf("username and password are required")
		return m, nil
	}

	m.loading = true
	m.err = nil
	m.focusIndex = fieldSubmit
	m.usernameInput.Blur()
	m.passwordInput.Blur()

	auth := m.auth
	return m, tea.Batch(m.spinner.Tick(), func() tea.Msg {
		ctx, cancel := utils.WithTimeout(context.Background())
		defer cancel()
		resp, err := auth.Login(ctx, username, password)
		if err != nil {
			return AuthErrorMsg{Err: err}
		}
		return AuthSuccessMsg{Username: resp.User.Username, UserID: resp.User.ID, Token: resp.Token}
	})
}

// View renders the login form
func (m AuthModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("🔐 Login"))
	b.WriteString("\n\n")
	if m.notice != "" {
		b.WriteString(styles.WarningStyle.Render(m.notice))
		b.WriteString("\n\n")
	}

	var form strings.Builder
	form.WriteString(renderField("Username", m.usernameInput.View(), m.focusIndex == fieldUsername))
	form.WriteString("\n")
	form.WriteString(renderField("Password", m.passwordInput.View(), m.focusIndex == fieldPassword))
	form.WriteString("\n\n")

	submit := styles.ButtonStyle
	if m.focusIndex == fieldSubmit {
		submit = styles.ButtonActiveStyle
	}
	form.WriteString(submit.Render("  Login  "))
	b.WriteString(styles.CardStyle.Render(form.String()))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View())
	case m.err != nil:
		b.WriteString(styles.ErrorStyle.Render("✗ " + m.err.Error()))
	default:
		b.WriteString(styles.HelpStyle.Render("tab next field • enter sign in • ctrl+c quit"))
	}
	return b.String()
}

func renderField(label, input string, focused bool) string {
	prompt := styles.InputPromptStyle
	if focused {
		prompt = styles.InputFocusedStyle
	}
	return prompt.Render(fmt.Sprintf("%-9s", label+":")) + " " + input
}
