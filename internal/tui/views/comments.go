package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"mediahub/internal/interaction"
	"mediahub/internal/tui/components"
	"mediahub/internal/tui/styles"
	"mediahub/pkg/models"
	"mediahub/pkg/utils"
)

type commentsLoadedMsg struct {
	contentID string
	err       error
}

type commentPostedMsg struct {
	contentID string
	comment   *models.Comment
	err       error
}

type commentLikedMsg struct {
	contentID string
	err       error
}

// CloseCommentsMsg returns to the feed
type CloseCommentsMsg struct{}

// commentRow is a comment flattened for display. Replies carry their
// top-level parent.
type commentRow struct {
	comment models.Comment
	root    string
	depth   int
}

// CommentsModel is the comment thread of one content item
type CommentsModel struct {
	svc *interaction.Service
	key models.ContentKey

	input     textinput.Model
	composing bool
	replyTo   string

	cursor  int
	loading bool
	spinner components.Spinner
	status  string
	err     components.ErrorBanner

	width  int
	height int
}

// NewCommentsModel creates an empty comments pane
func NewCommentsModel(svc *interaction.Service) CommentsModel {
	input := textinput.New()
	input.Placeholder = "Write a comment..."
	input.CharLimit = models.MaxCommentLength
	input.Width = 60

	return CommentsModel{
		svc:     svc,
		input:   input,
		spinner: components.NewSpinner("Loading comments..."),
	}
}

// Open shows the thread of key and loads its first page
func (m CommentsModel) Open(key models.ContentKey) (CommentsModel, tea.Cmd) {
	m.key = key
	m.cursor = 0
	m.composing = false
	m.replyTo = ""
	m.status = ""
	m.err.Clear()
	m.input.Reset()
	m.input.Blur()
	m.loading = true

	svc := m.svc
	id := key.ID
	return m, tea.Batch(m.spinner.Tick(), func() tea.Msg {
		ctx, cancel := utils.WithTimeout(context.Background())
		defer cancel()
		return commentsLoadedMsg{contentID: id, err: svc.LoadComments(ctx, id, 1)}
	})
}

// Composing reports whether the text field has focus
func (m CommentsModel) Composing() bool {
	return m.composing
}

func (m CommentsModel) rows() []commentRow {
	var rows []commentRow
	for _, c := range m.svc.Comments(m.key.ID) {
		rows = append(rows, commentRow{comment: c, root: c.ID})
		for _, r := range c.Replies {
			rows = append(rows, commentRow{comment: r, root: c.ID, depth: 1})
		}
	}
	return rows
}

// Update handles messages
func (m CommentsModel) Update(msg tea.Msg) (CommentsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.composing {
			return m.updateCompose(msg)
		}
		return m.handleKey(msg)

	case commentsLoadedMsg:
		if msg.contentID != m.key.ID {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			cmd := m.fail("load comments", msg.err)
			return m, cmd
		}
		return m, nil

	case commentPostedMsg:
		if msg.err != nil {
			cmd := m.fail("post comment", msg.err)
			return m, cmd
		}
		m.status = styles.SuccessStyle.Render("✓ Comment posted")
		return m, nil

	case commentLikedMsg:
		if msg.err != nil {
			cmd := m.fail("like comment", msg.err)
			return m, cmd
		}
		return m, nil
	}

	if m.loading {
		cmd := m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m CommentsModel) handleKey(msg tea.KeyMsg) (CommentsModel, tea.Cmd) {
	rows := m.rows()
	svc := m.svc
	contentID := m.key.ID

	switch msg.String() {
	case "esc":
		if m.err.HasError() {
			m.err.Clear()
			return m, nil
		}
		return m, func() tea.Msg { return CloseCommentsMsg{} }

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(rows)-1 {
			m.cursor++
		}

	case "w":
		return m.startCompose("")

	case "enter":
		if m.cursor < len(rows) {
			return m.startCompose(rows[m.cursor].root)
		}

	case "l":
		if m.cursor >= len(rows) {
			return m, nil
		}
		commentID := rows[m.cursor].comment.ID
		return m, func() tea.Msg {
			ctx, cancel := utils.WithTimeout(context.Background())
			defer cancel()
			return commentLikedMsg{contentID: contentID, err: svc.ToggleCommentLike(ctx, commentID, contentID)}
		}

	case "n":
		if !svc.HasMoreComments(contentID) {
			m.status = styles.MutedStyle.Render("No more comments")
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick(), func() tea.Msg {
			ctx, cancel := utils.WithTimeout(context.Background())
			defer cancel()
			return commentsLoadedMsg{contentID: contentID, err: svc.LoadMoreComments(ctx, contentID)}
		})
	}
	return m, nil
}

func (m CommentsModel) startCompose(replyTo string) (CommentsModel, tea.Cmd) {
	m.composing = true
	m.replyTo = replyTo
	m.input.Placeholder = "Write a comment..."
	if replyTo != "" {
		m.input.Placeholder = "Write a reply..."
	}
	cmd := m.input.Focus()
	return m, cmd
}

func (m CommentsModel) updateCompose(msg tea.KeyMsg) (CommentsModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.composing = false
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		text := m.input.Value()
		parentID := m.replyTo
		contentID := m.key.ID
		svc := m.svc

		m.composing = false
		m.input.Reset()
		m.input.Blur()
		return m, func() tea.Msg {
			ctx, cancel := utils.WithTimeout(context.Background())
			defer cancel()
			c, err := svc.AddComment(ctx, contentID, text, parentID)
			return commentPostedMsg{contentID: contentID, comment: c, err: err}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *CommentsModel) fail(action string, err error) tea.Cmd {
	m.err.Set(action, err)
	if errors.Is(err, models.ErrSessionExpired) {
		return func() tea.Msg { return SessionExpiredMsg{} }
	}
	return nil
}

// View renders the thread
func (m CommentsModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("💬 Comments"))
	b.WriteString(" " + styles.SubtitleStyle.Render(m.key.String()))
	if m.loading {
		b.WriteString("  " + m.spinner.View())
	}
	b.WriteString("\n\n")

	rows := m.rows()
	if len(rows) == 0 && !m.loading {
		b.WriteString(styles.HelpStyle.Render("No comments yet. Press w to write one."))
		b.WriteString("\n")
	}

	for i, r := range rows {
		c := r.comment
		heart := "♡"
		if c.Liked {
			heart = styles.LikedStyle.Render("♥")
		}
		header := fmt.Sprintf("%s  %s  %s %d",
			styles.InfoStyle.Render(c.Username),
			styles.ListItemDescStyle.Render(utils.TimeAgo(c.CreatedAt)),
			heart, c.Likes)
		body := header + "\n" + styles.Truncate(c.Text, 200)
		if r.depth > 0 {
			body = indent(body, "    ")
		}
		if i == m.cursor {
			b.WriteString(styles.ListItemSelectedStyle.Render(body))
		} else {
			b.WriteString(styles.ListItemStyle.Render(body))
		}
		b.WriteString("\n")
	}

	if m.svc.HasMoreComments(m.key.ID) {
		b.WriteString(styles.HelpStyle.Render("n load more"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.composing {
		label := "Comment"
		if m.replyTo != "" {
			label = "Reply"
		}
		b.WriteString(styles.InputFocusedStyle.Render(label+": ") + m.input.View())
		b.WriteString("\n")
		b.WriteString(styles.HelpStyle.Render("enter post • esc cancel"))
		return b.String()
	}

	if m.err.HasError() {
		b.WriteString(m.err.View())
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(styles.HelpStyle.Render("w write • enter reply • l like • esc back"))
	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}
