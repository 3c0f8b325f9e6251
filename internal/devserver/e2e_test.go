package devserver_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"mediahub/internal/client/api"
	"mediahub/internal/client/session"
	"mediahub/internal/config"
	"mediahub/internal/devserver"
	"mediahub/internal/interaction"
	"mediahub/pkg/logger"
	"mediahub/pkg/models"
)

type harness struct {
	server *devserver.Server
	client *api.Client
	svc    *interaction.Service

	mu     sync.Mutex
	offset time.Duration
}

func (h *harness) now() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return time.Now().Add(h.offset)
}

func (h *harness) shift(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.offset = d
}

func newHarness(t *testing.T, clientOpts ...api.Option) *harness {
	t.Helper()
	h := &harness{}

	srv, err := devserver.New(config.DevServerConfig{
		JWTSecret:     "e2e-secret",
		JWTIssuer:     "mediahub-e2e",
		JWTExpiry:     time.Minute,
		RefreshWindow: time.Hour,
		Users:         map[string]string{"alice": "alice-pw"},
	}, devserver.WithBcryptCost(bcrypt.MinCost), devserver.WithLogger(logger.Discard()), devserver.WithClock(h.now))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	opts := append([]api.Option{
		api.WithHTTPClient(ts.Client()),
		api.WithLogger(logger.Discard()),
		api.WithRetry(2, time.Millisecond, 5*time.Millisecond),
	}, clientOpts...)

	h.server = srv
	h.client = api.NewClient(ts.URL+"/api/v1", opts...)
	h.svc = interaction.NewService(interaction.NewStore(), h.client, interaction.WithLogger(logger.Discard()))
	return h
}

func TestEndToEndLikeSaveAndHydrate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.server.Interactions().Seed(models.MakeKey("v1", models.ContentTypeVideo), 5, 0, 0, 0)

	_, err := h.client.Login(ctx, "alice", "alice-pw")
	require.NoError(t, err)

	require.NoError(t, h.svc.LoadContentStats(ctx, "v1", models.ContentTypeVideo))
	st, ok := h.svc.Stats("v1")
	require.True(t, ok)
	assert.Equal(t, 5, st.Likes)

	res, err := h.svc.ToggleLike(ctx, "v1", models.ContentTypeVideo)
	require.NoError(t, err)
	assert.False(t, res.RolledBack)
	assert.True(t, res.Liked)
	assert.Equal(t, 6, res.TotalLikes)

	saved, err := h.svc.ToggleSave(ctx, "v1", models.ContentTypeVideo, nil)
	require.NoError(t, err)
	assert.True(t, saved.Saved)
	require.Len(t, h.svc.SavedContent(), 1)
	assert.Equal(t, "v1", h.svc.SavedContent()[0].ContentID)

	require.NoError(t, h.svc.RecordShare(ctx, "v1", models.ContentTypeVideo))
	require.NoError(t, h.svc.RecordView(ctx, "v1", models.ContentTypeVideo, models.ViewRequest{DurationMs: 1000, ProgressPct: 0.75}))

	st, _ = h.svc.Stats("v1")
	assert.Equal(t, 1, st.Shares)
	assert.Equal(t, 1, st.Views)
	assert.True(t, st.UserInteractions.Liked)
	assert.True(t, st.UserInteractions.Saved)
}

func TestEndToEndBatchAfterLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.server.Interactions().Seed(models.MakeKey("a", models.ContentTypePost), 3, 1, 0, 0)
	h.server.Interactions().Seed(models.MakeKey("b", models.ContentTypePost), 7, 0, 0, 0)

	require.NoError(t, h.svc.LoadBatchContentStats(ctx, []string{"a", "b"}, models.ContentTypePost))
	a, _ := h.svc.Stats("a")
	b, _ := h.svc.Stats("b")
	assert.Equal(t, 3, a.Likes)
	assert.Equal(t, 7, b.Likes)
	assert.False(t, a.UserInteractions.Liked)

	_, err := h.client.Login(ctx, "alice", "alice-pw")
	require.NoError(t, err)
	_, err = h.client.ToggleLike(ctx, models.MakeKey("a", models.ContentTypePost))
	require.NoError(t, err)

	require.NoError(t, h.svc.RefreshAllStatsAfterLogin(ctx))
	a, _ = h.svc.Stats("a")
	assert.Equal(t, 4, a.Likes)
	assert.True(t, a.UserInteractions.Liked)
}

func TestEndToEndExpiredTokenRefreshesTransparently(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.shift(-10 * time.Minute)
	_, err := h.client.Login(ctx, "alice", "alice-pw")
	require.NoError(t, err)
	stale, err := h.client.Tokens().Token(ctx)
	require.NoError(t, err)
	h.shift(0)

	res, err := h.svc.ToggleLike(ctx, "v9", models.ContentTypeVideo)
	require.NoError(t, err)
	assert.False(t, res.RolledBack)
	assert.True(t, res.Liked)

	fresh, err := h.client.Tokens().Token(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, stale, fresh)
}

func TestEndToEndSessionExpiry(t *testing.T) {
	var expired bool
	h := newHarness(t, api.WithSessionExpiredHook(func() { expired = true }))
	ctx := context.Background()

	h.shift(-2 * time.Hour)
	_, err := h.client.Login(ctx, "alice", "alice-pw")
	require.NoError(t, err)
	h.shift(0)

	_, err = h.svc.ToggleLike(ctx, "v1", models.ContentTypeVideo)
	assert.ErrorIs(t, err, models.ErrSessionExpired)
	assert.True(t, expired)

	st, _ := h.svc.Stats("v1")
	assert.False(t, st.UserInteractions.Liked)
	assert.Equal(t, 0, st.Likes)

	_, err = h.client.Tokens().Token(ctx)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestEndToEndComments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.client.Login(ctx, "alice", "alice-pw")
	require.NoError(t, err)

	top, err := h.svc.AddComment(ctx, "post1", "hello", "")
	require.NoError(t, err)
	_, err = h.svc.AddComment(ctx, "post1", "a reply", top.ID)
	require.NoError(t, err)

	require.NoError(t, h.svc.LoadComments(ctx, "post1", 1))
	comments := h.svc.Comments("post1")
	require.Len(t, comments, 1)
	require.Len(t, comments[0].Replies, 1)
	assert.False(t, h.svc.HasMoreComments("post1"))

	require.NoError(t, h.svc.ToggleCommentLike(ctx, top.ID, "post1"))
	comments = h.svc.Comments("post1")
	assert.Equal(t, 1, comments[0].Likes)
	assert.True(t, comments[0].Liked)
}
