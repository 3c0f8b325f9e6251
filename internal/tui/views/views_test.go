package views

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"mediahub/internal/client/api"
	"mediahub/internal/config"
	"mediahub/internal/devserver"
	"mediahub/internal/interaction"
	"mediahub/internal/media"
	"mediahub/pkg/logger"
	"mediahub/pkg/models"
)

type stack struct {
	server *devserver.Server
	client *api.Client
	svc    *interaction.Service
}

func newStack(t *testing.T) *stack {
	t.Helper()
	srv, err := devserver.New(config.DevServerConfig{
		JWTSecret: "tui-secret",
		JWTIssuer: "mediahub-tui-test",
		JWTExpiry: time.Minute,
		Users:     map[string]string{"alice": "alice-pw"},
	}, devserver.WithBcryptCost(bcrypt.MinCost), devserver.WithLogger(logger.Discard()))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client := api.NewClient(ts.URL+"/api/v1",
		api.WithHTTPClient(ts.Client()),
		api.WithLogger(logger.Discard()),
		api.WithRetry(1, time.Millisecond, time.Millisecond),
	)
	return &stack{
		server: srv,
		client: client,
		svc:    interaction.NewService(interaction.NewStore(), client, interaction.WithLogger(logger.Discard())),
	}
}

func (s *stack) login(t *testing.T) {
	t.Helper()
	_, err := s.client.Login(context.Background(), "alice", "alice-pw")
	require.NoError(t, err)
}

func press(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd, unpacking one level of tea.Batch
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		if c != nil {
			out = append(out, c())
		}
	}
	return out
}

func newFeed(t *testing.T, s *stack, coord *media.Coordinator, keys ...models.ContentKey) FeedModel {
	t.Helper()
	m := NewFeedModel(s.svc, coord, keys)
	t.Cleanup(m.Close)
	return m
}

func TestFeedHydratesAndLikes(t *testing.T) {
	s := newStack(t)
	v1 := models.MakeKey("v1", models.ContentTypeVideo)
	s.server.Interactions().Seed(v1, 4, 1, 0, 0)
	s.login(t)

	m := newFeed(t, s, media.NewCoordinator(), v1, models.MakeKey("p1", models.ContentTypePost))
	m, _ = m.Update(m.hydrate()())

	st, ok := s.svc.Store().Get(v1)
	require.True(t, ok)
	assert.Equal(t, 4, st.Likes)
	assert.Contains(t, m.View(), "video:v1")
	assert.Contains(t, m.View(), "post:p1")

	m, cmd := m.Update(press("l"))
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())

	st, _ = s.svc.Store().Get(v1)
	assert.Equal(t, 5, st.Likes)
	assert.True(t, st.UserInteractions.Liked)
	assert.Contains(t, m.View(), "Liked video:v1")

	m, cmd = m.Update(press("s"))
	m, _ = m.Update(cmd())
	st, _ = s.svc.Store().Get(v1)
	assert.Equal(t, 2, st.Saves)
	assert.True(t, st.UserInteractions.Saved)
	assert.Contains(t, m.View(), "Saved video:v1")

	m, cmd = m.Update(press("S"))
	m, _ = m.Update(cmd())
	st, _ = s.svc.Store().Get(v1)
	assert.Equal(t, 1, st.Shares)
}

func TestFeedPlaybackIsExclusive(t *testing.T) {
	s := newStack(t)
	coord := media.NewCoordinator()
	m := newFeed(t, s, coord,
		models.MakeKey("a", models.ContentTypeVideo),
		models.MakeKey("b", models.ContentTypeTrack),
		models.MakeKey("c", models.ContentTypePost),
	)
	items := m.Items()
	require.Nil(t, items[2].Player)

	m, _ = m.Update(press("p"))
	assert.True(t, items[0].Player.State().IsPlaying)

	m, _ = m.Update(press("j"))
	m, _ = m.Update(press("p"))
	assert.False(t, items[0].Player.State().IsPlaying)
	assert.True(t, items[1].Player.State().IsPlaying)

	cur, kind, ok := coord.Current()
	require.True(t, ok)
	assert.Equal(t, "track:b", cur)
	assert.Equal(t, media.KindAudio, kind)

	m, _ = m.Update(press("j"))
	m, _ = m.Update(press("p"))
	assert.Contains(t, m.View(), "Nothing to play for post:c")
	assert.True(t, items[1].Player.State().IsPlaying)

	m, _ = m.Update(press("k"))
	m, _ = m.Update(press("m"))
	assert.True(t, items[1].Player.State().IsMuted)

	// pressing play on the playing item pauses it
	m, _ = m.Update(press("p"))
	assert.False(t, items[1].Player.State().IsPlaying)
	_, _, ok = coord.Current()
	assert.False(t, ok)
}

func TestFeedReportsOneViewPerPlayback(t *testing.T) {
	s := newStack(t)
	v1 := models.MakeKey("v1", models.ContentTypeVideo)
	s.login(t)

	m := newFeed(t, s, media.NewCoordinator(), v1)
	m.step = time.Hour
	m, _ = m.Update(press("p"))

	cmds := m.advancePlayback()
	require.Len(t, cmds, 1)
	m, _ = m.Update(cmds[0]())

	ps := m.Items()[0].Player.State()
	assert.False(t, ps.IsPlaying)
	assert.Equal(t, 1.0, ps.Progress)

	st, ok := s.svc.Store().Get(v1)
	require.True(t, ok)
	assert.Equal(t, 1, st.Views)
	assert.True(t, st.UserInteractions.Viewed)

	assert.Empty(t, m.advancePlayback())
}

func TestFeedEscalatesExpiredSession(t *testing.T) {
	s := newStack(t)
	v1 := models.MakeKey("v1", models.ContentTypeVideo)
	m := newFeed(t, s, media.NewCoordinator(), v1)

	m, cmd := m.Update(press("l"))
	m, cmd = m.Update(cmd())
	require.NotNil(t, cmd)
	assert.Equal(t, SessionExpiredMsg{}, cmd())
	assert.Contains(t, m.View(), "Session expired")

	st, _ := s.svc.Store().Get(v1)
	assert.False(t, st.UserInteractions.Liked)
}

func TestFeedOpensComments(t *testing.T) {
	s := newStack(t)
	p1 := models.MakeKey("p1", models.ContentTypePost)
	m := newFeed(t, s, media.NewCoordinator(), p1)

	_, cmd := m.Update(press("c"))
	require.NotNil(t, cmd)
	assert.Equal(t, OpenCommentsMsg{Key: p1}, cmd())
}

func TestCommentsComposeReplyAndLike(t *testing.T) {
	s := newStack(t)
	s.login(t)
	p1 := models.MakeKey("p1", models.ContentTypePost)

	c, cmd := NewCommentsModel(s.svc).Open(p1)
	for _, msg := range run(cmd) {
		c, _ = c.Update(msg)
	}
	assert.Contains(t, c.View(), "No comments yet")

	c, _ = c.Update(press("w"))
	require.True(t, c.Composing())
	c, _ = c.Update(press("hello there"))
	c, cmd = c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, c.Composing())
	c, _ = c.Update(cmd())

	comments := s.svc.Comments("p1")
	require.Len(t, comments, 1)
	assert.Equal(t, "hello there", comments[0].Text)
	assert.Contains(t, c.View(), "Comment posted")

	// enter replies to the selected comment
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, c.Composing())
	c, _ = c.Update(press("me too"))
	c, cmd = c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	c, _ = c.Update(cmd())

	comments = s.svc.Comments("p1")
	require.Len(t, comments, 1)
	require.Len(t, comments[0].Replies, 1)
	assert.Equal(t, "me too", comments[0].Replies[0].Text)

	c, cmd = c.Update(press("l"))
	c, _ = c.Update(cmd())
	comments = s.svc.Comments("p1")
	assert.True(t, comments[0].Liked)
	assert.Equal(t, 1, comments[0].Likes)

	_, cmd = c.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CloseCommentsMsg{}, cmd())
}

func TestCommentsRejectBlankText(t *testing.T) {
	s := newStack(t)
	s.login(t)

	c, _ := NewCommentsModel(s.svc).Open(models.MakeKey("p1", models.ContentTypePost))
	c, _ = c.Update(press("w"))
	c, _ = c.Update(press("   "))
	c, cmd := c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	c, _ = c.Update(cmd())

	assert.Empty(t, s.svc.Comments("p1"))
	assert.Contains(t, c.View(), "post comment")
}

type stubAuth struct {
	resp *models.LoginResponse
	err  error
	got  [2]string
}

func (a *stubAuth) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	a.got = [2]string{username, password}
	return a.resp, a.err
}

func TestAuthSubmit(t *testing.T) {
	auth := &stubAuth{resp: &models.LoginResponse{
		Token: "tok",
		User:  models.UserProfile{ID: "u1", Username: "alice"},
	}}
	m := NewAuthModel(auth)

	// enter on the username field moves to the password
	m, _ = m.Update(press("alice"))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	m, _ = m.Update(press("secret"))
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Signing in")

	var success *AuthSuccessMsg
	for _, msg := range run(cmd) {
		if s, ok := msg.(AuthSuccessMsg); ok {
			success = &s
		}
	}
	require.NotNil(t, success)
	assert.Equal(t, AuthSuccessMsg{Username: "alice", UserID: "u1", Token: "tok"}, *success)
	assert.Equal(t, [2]string{"alice", "secret"}, auth.got)
}

func TestAuthRequiresBothFields(t *testing.T) {
	m := NewAuthModel(&stubAuth{})
	m, _ = m.Update(press("alice"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "username and password are required")
}

func TestAuthShowsError(t *testing.T) {
	m := NewAuthModel(&stubAuth{})
	m, _ = m.Update(AuthErrorMsg{Err: models.ErrInvalidCredentials})
	assert.Contains(t, m.View(), models.ErrInvalidCredentials.Error())
}
