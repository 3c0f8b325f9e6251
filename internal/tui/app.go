// Package tui is the terminal feed: content rows with live interaction
// stats, exclusive playback and a comments pane.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"mediahub/internal/client/session"
	"mediahub/internal/interaction"
	"mediahub/internal/media"
	"mediahub/internal/tui/focus"
	"mediahub/internal/tui/styles"
	"mediahub/internal/tui/views"
	"mediahub/pkg/logger"
	"mediahub/pkg/models"
)

// View represents different screens in the TUI
type View int

const (
	ViewAuth View = iota
	ViewFeed
	ViewComments
)

func (v View) String() string {
	switch v {
	case ViewFeed:
		return "Feed"
	case ViewComments:
		return "Comments"
	default:
		return "Login"
	}
}

// SessionStore persists the signed-in user between runs
type SessionStore interface {
	Save(ctx context.Context, sess session.Session) error
}

// Options are the collaborators of the root model
type Options struct {
	Service     *interaction.Service
	Coordinator *media.Coordinator
	Auth        views.Authenticator
	Sessions    SessionStore
	Feed        []models.ContentKey
	// Username is set when a stored session exists; the login screen is skipped
	Username string
	Logger   *logrus.Entry
}

// Model is the root Bubble Tea model
type Model struct {
	coord    *media.Coordinator
	sessions SessionStore
	log      *logrus.Entry

	focusManager *focus.Manager
	keys         KeyMap
	help         help.Model

	currentView View
	feedStarted bool
	username    string

	width  int
	height int

	authModel     views.AuthModel
	feedModel     views.FeedModel
	commentsModel views.CommentsModel
}

// New creates the TUI application
func New(opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = logger.Component("tui")
	}

	m := &Model{
		coord:         opts.Coordinator,
		sessions:      opts.Sessions,
		log:           log,
		focusManager:  focus.NewManager(),
		keys:          DefaultKeyMap(),
		help:          help.New(),
		currentView:   ViewAuth,
		username:      opts.Username,
		authModel:     views.NewAuthModel(opts.Auth),
		feedModel:     views.NewFeedModel(opts.Service, opts.Coordinator, opts.Feed),
		commentsModel: views.NewCommentsModel(opts.Service),
	}
	if opts.Username != "" {
		m.currentView = ViewFeed
		m.feedStarted = true
	}
	return m
}

// Init starts on the feed when a session exists, otherwise on the login form
func (m Model) Init() tea.Cmd {
	if m.currentView == ViewFeed {
		return m.feedModel.Init()
	}
	return m.authModel.Init()
}

// CurrentView returns the screen being shown
func (m Model) CurrentView() View {
	return m.currentView
}

// typing reports whether a text field of the current screen has focus
func (m Model) typing() bool {
	switch m.currentView {
	case ViewAuth:
		return true
	case ViewComments:
		return m.commentsModel.Composing()
	}
	return false
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		m.focusManager.Follow(m.typing())
		if m.keys.ShouldHandleKey(m.focusManager.Mode(), msg) {
			switch {
			case key.Matches(msg, m.keys.Quit):
				m.coord.StopAll()
				m.feedModel.Close()
				return m, tea.Quit
			case key.Matches(msg, m.keys.Help):
				m.help.ShowAll = !m.help.ShowAll
				return m, nil
			}
		}
		return m.updateCurrentView(msg)

	case views.AuthSuccessMsg:
		m.username = msg.Username
		if m.sessions != nil {
			sess := session.Session{Username: msg.Username, UserID: msg.UserID, Token: msg.Token}
			if err := m.sessions.Save(context.Background(), sess); err != nil {
				m.log.WithError(err).Warn("failed to persist session")
			}
		}
		m.authModel, _ = m.authModel.Update(msg)
		m.currentView = ViewFeed
		if !m.feedStarted {
			m.feedStarted = true
			return m, m.feedModel.Init()
		}
		return m, m.feedModel.RefreshAfterLogin()

	case views.SessionExpiredMsg:
		m.log.Info("session expired, returning to login")
		m.coord.StopAll()
		m.currentView = ViewAuth
		m.authModel = m.authModel.Expired()
		return m, m.authModel.Init()

	case views.OpenCommentsMsg:
		m.currentView = ViewComments
		var cmd tea.Cmd
		m.commentsModel, cmd = m.commentsModel.Open(msg.Key)
		return m, cmd

	case views.CloseCommentsMsg:
		m.currentView = ViewFeed
		return m, nil
	}

	return m.broadcast(msg)
}

// updateCurrentView routes key presses to the active screen
func (m Model) updateCurrentView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewAuth:
		m.authModel, cmd = m.authModel.Update(msg)
	case ViewFeed:
		m.feedModel, cmd = m.feedModel.Update(msg)
	case ViewComments:
		m.commentsModel, cmd = m.commentsModel.Update(msg)
	}
	return m, cmd
}

// broadcast hands every other message to all screens so background work
// (playback ticks, pending requests) completes off-screen
func (m Model) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var authCmd, feedCmd, commentsCmd tea.Cmd
	m.authModel, authCmd = m.authModel.Update(msg)
	m.feedModel, feedCmd = m.feedModel.Update(msg)
	m.commentsModel, commentsCmd = m.commentsModel.Update(msg)
	return m, tea.Batch(authCmd, feedCmd, commentsCmd)
}

// View renders the UI
func (m Model) View() string {
	var content string
	switch m.currentView {
	case ViewAuth:
		content = m.authModel.View()
	case ViewFeed:
		content = m.feedModel.View()
	case ViewComments:
		content = m.commentsModel.View()
	}

	if m.currentView == ViewAuth {
		return styles.AppStyle.Render(content)
	}
	return styles.AppStyle.Render(content + "\n\n" + m.renderStatusBar() + "\n" + m.help.View(m.keys))
}

// renderStatusBar renders the bottom status bar
func (m Model) renderStatusBar() string {
	left := styles.StatusBarActiveStyle.Render("● " + m.currentView.String())

	playing := "nothing playing"
	if k, _, ok := m.coord.Current(); ok {
		playing = "▶ " + k
	}
	right := styles.StatusBarStyle.Render(playing + " | " + m.username)

	spacing := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if spacing < 1 {
		spacing = 1
	}
	return left + strings.Repeat(" ", spacing) + right
}
