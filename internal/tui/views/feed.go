package views

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"mediahub/internal/interaction"
	"mediahub/internal/media"
	"mediahub/internal/tui/components"
	"mediahub/internal/tui/player"
	"mediahub/internal/tui/styles"
	"mediahub/pkg/models"
	"mediahub/pkg/utils"
)

const playbackStep = 250 * time.Millisecond

// FeedItem is one row of the feed. Kind is empty for items with nothing to play.
type FeedItem struct {
	Key    models.ContentKey
	Kind   media.Kind
	Player *media.Player
	engine *player.Engine
}

// FeedKeyMap holds the bindings of the feed screen
type FeedKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Like     key.Binding
	Save     key.Binding
	Share    key.Binding
	Play     key.Binding
	Mute     key.Binding
	Comments key.Binding
	Refresh  key.Binding
	Dismiss  key.Binding
}

// DefaultFeedKeyMap returns the feed bindings
func DefaultFeedKeyMap() FeedKeyMap {
	return FeedKeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Like:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		Save:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Share:    key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "share")),
		Play:     key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p/space", "play")),
		Mute:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		Comments: key.NewBinding(key.WithKeys("c", "enter"), key.WithHelp("c", "comments")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Dismiss:  key.NewBinding(key.WithKeys("esc")),
	}
}

// Messages

type statsLoadedMsg struct{ err error }

type likeDoneMsg struct {
	key models.ContentKey
	res interaction.LikeResult
	err error
}

type saveDoneMsg struct {
	key models.ContentKey
	res interaction.SaveResult
	err error
}

type shareDoneMsg struct {
	key models.ContentKey
	err error
}

type viewRecordedMsg struct {
	key models.ContentKey
	err error
}

type playbackTickMsg time.Time

// OpenCommentsMsg asks the root model to show the comments of Key
type OpenCommentsMsg struct {
	Key models.ContentKey
}

// SessionExpiredMsg is sent when the backend rejected the session for good
type SessionExpiredMsg struct{}

type pendingView struct {
	key  models.ContentKey
	view models.ViewRequest
}

// viewQueue collects view reports raised by players during a tick
type viewQueue struct {
	mu    sync.Mutex
	items []pendingView
}

func (q *viewQueue) push(key models.ContentKey) media.ViewFunc {
	return func(v models.ViewRequest) {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.items = append(q.items, pendingView{key: key, view: v})
	}
}

func (q *viewQueue) drain() []pendingView {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// FeedModel lists content with live stats and playback controls
type FeedModel struct {
	svc   *interaction.Service
	coord *media.Coordinator
	items []*FeedItem
	keys  FeedKeyMap

	cursor  int
	step    time.Duration
	views   *viewQueue
	spinner components.Spinner
	loading bool
	status  string
	err     components.ErrorBanner

	width  int
	height int
}

// PlaybackKind maps a content type to the player registry it uses
func PlaybackKind(t models.ContentType) media.Kind {
	switch t {
	case models.ContentTypeVideo, models.ContentTypeMedia:
		return media.KindVideo
	case models.ContentTypeTrack:
		return media.KindAudio
	default:
		return ""
	}
}

// NewFeedModel builds the feed for keys and loads a player for every
// playable item
func NewFeedModel(svc *interaction.Service, coord *media.Coordinator, keys []models.ContentKey) FeedModel {
	m := FeedModel{
		svc:     svc,
		coord:   coord,
		keys:    DefaultFeedKeyMap(),
		step:    playbackStep,
		views:   &viewQueue{},
		spinner: components.NewSpinner("Loading stats..."),
	}

	for _, k := range keys {
		item := &FeedItem{Key: k, Kind: PlaybackKind(k.Type)}
		if item.Kind != "" {
			item.engine = player.NewEngine()
			item.Player = media.NewPlayer(coord, k, item.Kind, item.engine, media.OnView(m.views.push(k)))
			if err := item.Player.Load(context.Background(), k.String()); err != nil {
				m.err.Set("load "+k.String(), err)
			}
		}
		m.items = append(m.items, item)
	}
	return m
}

// Init hydrates the feed and starts the playback clock
func (m FeedModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick(), m.hydrate(), tickPlayback(m.step))
}

// RefreshAfterLogin re-fetches every cached item with the new user's flags
func (m FeedModel) RefreshAfterLogin() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := utils.WithLongTimeout(context.Background())
		defer cancel()
		return statsLoadedMsg{err: svc.RefreshAllStatsAfterLogin(ctx)}
	}
}

// Items returns the feed rows
func (m FeedModel) Items() []*FeedItem {
	return m.items
}

// Selected returns the row under the cursor
func (m FeedModel) Selected() (*FeedItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil, false
	}
	return m.items[m.cursor], true
}

// Close releases every player
func (m FeedModel) Close() {
	for _, it := range m.items {
		if it.Player != nil {
			it.Player.Close()
		}
	}
}

// hydrate batch-loads stats per content type
func (m FeedModel) hydrate() tea.Cmd {
	byType := make(map[models.ContentType][]string)
	for _, it := range m.items {
		byType[it.Key.Type] = append(byType[it.Key.Type], it.Key.ID)
	}
	types := make([]models.ContentType, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := utils.WithLongTimeout(context.Background())
		defer cancel()
		for _, t := range types {
			if err := svc.LoadBatchContentStats(ctx, byType[t], t); err != nil {
				return statsLoadedMsg{err: err}
			}
		}
		return statsLoadedMsg{}
	}
}

func tickPlayback(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return playbackTickMsg(t)
	})
}

// Update handles messages
func (m FeedModel) Update(msg tea.Msg) (FeedModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case statsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			cmd := m.fail("load stats", msg.err)
			return m, cmd
		}
		return m, nil

	case likeDoneMsg:
		if msg.err != nil {
			cmd := m.fail("like", msg.err)
			return m, cmd
		}
		switch {
		case msg.res.RolledBack:
			m.status = styles.WarningStyle.Render("Like failed for " + msg.key.String() + ", reverted")
		case msg.res.Liked:
			m.status = styles.LikedStyle.Render("♥ Liked " + msg.key.String())
		default:
			m.status = "Unliked " + msg.key.String()
		}
		return m, nil

	case saveDoneMsg:
		if msg.err != nil {
			cmd := m.fail("save", msg.err)
			return m, cmd
		}
		switch {
		case msg.res.RolledBack:
			m.status = styles.WarningStyle.Render("Save failed for " + msg.key.String() + ", reverted")
		case msg.res.Saved:
			m.status = styles.SavedStyle.Render("★ Saved " + msg.key.String())
		default:
			m.status = "Removed " + msg.key.String() + " from saved"
		}
		return m, nil

	case shareDoneMsg:
		if msg.err != nil {
			cmd := m.fail("share", msg.err)
			return m, cmd
		}
		m.status = styles.SuccessStyle.Render("↗ Shared " + msg.key.String())
		return m, nil

	case viewRecordedMsg:
		if msg.err != nil {
			cmd := m.fail("view", msg.err)
			return m, cmd
		}
		return m, nil

	case playbackTickMsg:
		cmds := m.advancePlayback()
		cmds = append(cmds, tickPlayback(m.step))
		return m, tea.Batch(cmds...)
	}

	if m.loading {
		cmd := m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m FeedModel) handleKey(msg tea.KeyMsg) (FeedModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		m.err.Clear()
		return m, tea.Batch(m.spinner.Tick(), m.hydrate())

	case key.Matches(msg, m.keys.Dismiss):
		m.err.Clear()
		m.status = ""
		return m, nil
	}

	item, ok := m.Selected()
	if !ok {
		return m, nil
	}
	k := item.Key
	svc := m.svc

	switch {
	case key.Matches(msg, m.keys.Like):
		return m, func() tea.Msg {
			ctx, cancel := utils.WithTimeout(context.Background())
			defer cancel()
			res, err := svc.ToggleLike(ctx, k.ID, k.Type)
			return likeDoneMsg{key: k, res: res, err: err}
		}

	case key.Matches(msg, m.keys.Save):
		return m, func() tea.Msg {
			ctx, cancel := utils.WithTimeout(context.Background())
			defer cancel()
			res, err := svc.ToggleSave(ctx, k.ID, k.Type, nil)
			return saveDoneMsg{key: k, res: res, err: err}
		}

	case key.Matches(msg, m.keys.Share):
		return m, func() tea.Msg {
			ctx, cancel := utils.WithTimeout(context.Background())
			defer cancel()
			return shareDoneMsg{key: k, err: svc.RecordShare(ctx, k.ID, k.Type)}
		}

	case key.Matches(msg, m.keys.Play):
		if item.Player == nil {
			m.status = styles.MutedStyle.Render("Nothing to play for " + k.String())
			return m, nil
		}
		item.Player.Play()
		return m, nil

	case key.Matches(msg, m.keys.Mute):
		if item.Player == nil {
			return m, nil
		}
		if err := item.Player.SetMuted(!item.Player.State().IsMuted); err != nil {
			m.err.Set("mute", err)
		}
		return m, nil

	case key.Matches(msg, m.keys.Comments):
		return m, func() tea.Msg { return OpenCommentsMsg{Key: k} }
	}
	return m, nil
}

// advancePlayback moves every playing engine one step and returns the view
// reports the players raised
func (m FeedModel) advancePlayback() []tea.Cmd {
	for _, it := range m.items {
		if it.Player == nil || !it.Player.State().IsPlaying {
			continue
		}
		pos, done := it.engine.Advance(m.step)
		if done {
			it.Player.Complete()
		} else {
			it.Player.Progress(pos)
		}
	}

	var cmds []tea.Cmd
	svc := m.svc
	for _, pv := range m.views.drain() {
		pv := pv
		cmds = append(cmds, func() tea.Msg {
			ctx, cancel := utils.WithTimeout(context.Background())
			defer cancel()
			err := svc.RecordView(ctx, pv.key.ID, pv.key.Type, pv.view)
			return viewRecordedMsg{key: pv.key, err: err}
		})
	}
	return cmds
}

// fail shows err and escalates an expired session to the root model
func (m *FeedModel) fail(action string, err error) tea.Cmd {
	m.err.Set(action, err)
	if errors.Is(err, models.ErrSessionExpired) {
		return func() tea.Msg { return SessionExpiredMsg{} }
	}
	return nil
}

// View renders the feed
func (m FeedModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("📺 Feed"))
	if m.loading {
		b.WriteString("  " + m.spinner.View())
	}
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(styles.HelpStyle.Render("No content configured. Add keys under feed: in the config file."))
		b.WriteString("\n")
	}

	for i, it := range m.items {
		row := m.renderRow(it)
		if i == m.cursor {
			b.WriteString(styles.ListItemSelectedStyle.Render(row))
		} else {
			b.WriteString(styles.ListItemStyle.Render(row))
		}
		b.WriteString("\n")
	}

	if m.err.HasError() {
		b.WriteString("\n" + m.err.View())
	} else if m.status != "" {
		b.WriteString("\n" + m.status)
	}
	return b.String()
}

func (m FeedModel) renderRow(it *FeedItem) string {
	st, _ := m.svc.Store().Get(it.Key)
	store := m.svc.Store()

	like := "♡"
	if st.UserInteractions.Liked {
		like = styles.LikedStyle.Render("♥")
	}
	save := "☆"
	if st.UserInteractions.Saved {
		save = styles.SavedStyle.Render("★")
	}
	pending := ""
	if store.IsLoading(it.Key, interaction.OpLike) || store.IsLoading(it.Key, interaction.OpSave) {
		pending = styles.MutedStyle.Render(" …")
	}

	title := fmt.Sprintf("%-24s", styles.Truncate(it.Key.String(), 24))
	line := fmt.Sprintf("%s  %s %d  %s %d  ↗ %d  👁 %d  💬 %d%s",
		title, like, st.Likes, save, st.Saves, st.Shares, st.Views, st.Comments, pending)

	if it.Player == nil {
		return line
	}

	ps := it.Player.State()
	icon := "▷"
	if ps.IsPlaying {
		icon = styles.PlayingStyle.Render("▶")
	}
	playback := fmt.Sprintf("%s %s %s / %s", icon, styles.RenderProgressBar(ps.Progress, 20),
		formatClock(ps.Position), formatClock(ps.Duration))
	if ps.IsMuted {
		playback += styles.MutedStyle.Render(" (muted)")
	}
	if ps.Err != nil {
		playback += " " + styles.ErrorStyle.Render(ps.Err.Error())
	}
	return line + "\n   " + playback
}

func formatClock(d time.Duration) string {
	s := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
