package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediahub/internal/client/session"
	"mediahub/pkg/logger"
	"mediahub/pkg/models"
)

func writeEnvelope(w http.ResponseWriter, status int, resp models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestClient(t *testing.T, srv *httptest.Server, token string, opts ...Option) (*Client, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(token)
	base := []Option{
		WithTokenStore(store),
		WithLogger(logger.Discard()),
		WithRetry(3, time.Millisecond, 5*time.Millisecond),
		WithRequestTimeout(2 * time.Second),
	}
	return NewClient(srv.URL, append(base, opts...)...), store
}

// tokenServer accepts only the bearer token it last issued
type tokenServer struct {
	mu       sync.Mutex
	current  string
	refreshN int32
	hits     int32
	delay    time.Duration
}

func (s *tokenServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&s.refreshN, 1)
		time.Sleep(s.delay)
		s.mu.Lock()
		s.current = "fresh-" + string(rune('0'+n))
		tok := s.current
		s.mu.Unlock()
		writeEnvelope(w, http.StatusOK, models.OK(models.RefreshResponse{Token: tok}))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.hits, 1)
		s.mu.Lock()
		want := "Bearer " + s.current
		s.mu.Unlock()
		if r.Header.Get("Authorization") != want {
			writeEnvelope(w, http.StatusUnauthorized, models.Fail(models.ErrCodeTokenExpired, "token expired"))
			return
		}
		writeEnvelope(w, http.StatusOK, models.OK(models.LikeResponse{Liked: true, TotalLikes: 1}))
	})
	return mux
}

func TestDoDecodesEnvelope(t *testing.T) {
	var gotRequestID, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get(RequestIDHeader)
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/interactions/post/p1/like", r.URL.Path)
		writeEnvelope(w, http.StatusOK, models.OK(models.LikeResponse{Liked: true, TotalLikes: 8}))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv, "tok")
	resp, err := client.ToggleLike(context.Background(), models.MakeKey("p1", models.ContentTypePost))

	require.NoError(t, err)
	assert.Equal(t, &models.LikeResponse{Liked: true, TotalLikes: 8}, resp)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestDegenerateKeyUsesDefaultType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/interactions/media/legacy/metadata", r.URL.Path)
		writeEnvelope(w, http.StatusOK, models.OK(models.PayloadFromStats(models.NewContentStats("legacy"))))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv, "tok")
	stats, err := client.GetContentStats(context.Background(), models.ContentKey{ID: "legacy"})
	require.NoError(t, err)
	assert.Equal(t, "legacy", stats.ContentID)
}

func TestServerErrorMessageSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, models.Fail(models.ErrCodeValidation, "comment text is too long"))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv, "tok")
	_, err := client.CreateComment(context.Background(), "p1", "x", "")

	require.Error(t, err)
	var httpErr *models.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, "comment text is too long", httpErr.Message)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestStatusWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>boom</html>", http.StatusNotFound)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv, "tok")
	_, err := client.GetSavedContent(context.Background())

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorContains(t, err, "Not Found")
}

func TestConcurrentAuthFailuresShareOneRefresh(t *testing.T) {
	ts := &tokenServer{current: "valid-but-unused", delay: 50 * time.Millisecond}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	client, store := newTestClient(t, srv, "stale")

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.ToggleLike(context.Background(), models.MakeKey("p1", models.ContentTypePost))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&ts.refreshN))

	token, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-1", token)
}

func TestRetriesOnlyOnceAfterRefresh(t *testing.T) {
	var refreshes, hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			atomic.AddInt32(&refreshes, 1)
			writeEnvelope(w, http.StatusOK, models.OK(models.RefreshResponse{Token: "new"}))
			return
		}
		atomic.AddInt32(&hits, 1)
		writeEnvelope(w, http.StatusUnauthorized, models.Fail(models.ErrCodeUnauthorized, "nope"))
	}))
	defer srv.Close()

	expired := 0
	client, store := newTestClient(t, srv, "old", WithSessionExpiredHook(func() { expired++ }))
	_, err := client.ToggleSave(context.Background(), models.MakeKey("p1", models.ContentTypePost))

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.ErrorIs(t, err, models.ErrSessionExpired, "a rejected retry after refresh is terminal")
	assert.Equal(t, int32(1), refreshes)
	assert.Equal(t, int32(2), hits)
	assert.Equal(t, 1, expired)

	token, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestRefreshFailureExpiresSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			writeEnvelope(w, http.StatusUnauthorized, models.Fail(models.ErrCodeUnauthorized, "refresh window passed"))
			return
		}
		writeEnvelope(w, http.StatusUnauthorized, models.Fail(models.ErrCodeTokenExpired, "token expired"))
	}))
	defer srv.Close()

	var expired int32
	client, store := newTestClient(t, srv, "old", WithSessionExpiredHook(func() {
		atomic.AddInt32(&expired, 1)
	}))

	_, err := client.ToggleLike(context.Background(), models.MakeKey("p1", models.ContentTypePost))

	assert.ErrorIs(t, err, models.ErrSessionExpired)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Equal(t, int32(1), expired)

	_, err = store.Token(context.Background())
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestAuthFailureWithoutTokenIsSessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusUnauthorized, models.Fail(models.ErrCodeUnauthorized, "login required"))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv, "")
	_, err := client.GetSavedContent(context.Background())

	assert.ErrorIs(t, err, models.ErrSessionExpired)
}

func TestTransientStatusIsRetried(t *testing.T) {
	var hits int32
	var ids sync.Map
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids.Store(r.Header.Get(RequestIDHeader), true)
		if atomic.AddInt32(&hits, 1) < 3 {
			writeEnvelope(w, http.StatusServiceUnavailable, models.Fail(models.ErrCodeInternal, "warming up"))
			return
		}
		writeEnvelope(w, http.StatusOK, models.OK(models.ShareResponse{TotalShares: 4}))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv, "tok")
	resp, err := client.RecordShare(context.Background(), models.MakeKey("p1", models.ContentTypePost))

	require.NoError(t, err)
	assert.Equal(t, 4, resp.TotalShares)
	assert.Equal(t, int32(3), hits)

	distinct := 0
	ids.Range(func(_, _ interface{}) bool { distinct++; return true })
	assert.Equal(t, 1, distinct, "all attempts share a request id")
}

func TestTransientExhaustion(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeEnvelope(w, http.StatusBadGateway, models.Fail(models.ErrCodeInternal, "upstream"))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv, "tok", WithRetry(2, time.Millisecond, time.Millisecond))
	_, err := client.RecordShare(context.Background(), models.MakeKey("p1", models.ContentTypePost))

	assert.ErrorIs(t, err, models.ErrTransient)
	assert.Equal(t, int32(2), hits)
}

func TestEachAttemptHasItsOwnTimeout(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		writeEnvelope(w, http.StatusOK, models.OK(models.ViewResponse{TotalViews: 11}))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv, "tok", WithRequestTimeout(100*time.Millisecond))
	resp, err := client.RecordView(context.Background(), models.MakeKey("v1", models.ContentTypeVideo), models.ViewRequest{ProgressPct: 1, IsComplete: true})

	require.NoError(t, err)
	assert.Equal(t, 11, resp.TotalViews)
	assert.Equal(t, int32(2), hits)
}

func TestCanceledContextIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeEnvelope(w, http.StatusServiceUnavailable, models.Fail(models.ErrCodeInternal, "down"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client, _ := newTestClient(t, srv, "tok")
	_, err := client.RecordShare(ctx, models.MakeKey("p1", models.ContentTypePost))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), hits)
}

func TestIdenticalGetsAreDeduplicated(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		likes := 3
		writeEnvelope(w, http.StatusOK, models.OK(models.StatsPayload{ContentID: "p1", Likes: &likes}))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv, "tok")
	key := models.MakeKey("p1", models.ContentTypePost)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*models.StatsPayload, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = client.GetContentStats(context.Background(), key)
		}(i)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, 3, *r.Likes)
	}
	// each caller decodes its own copy
	*results[0].Likes = 99
	assert.Equal(t, 3, *results[1].Likes)
}

func TestSharedGetSurvivesFirstCallerCancel(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		likes := 7
		writeEnvelope(w, http.StatusOK, models.OK(models.StatsPayload{ContentID: "p1", Likes: &likes}))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv, "tok")
	key := models.MakeKey("p1", models.ContentTypePost)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := client.GetContentStats(firstCtx, key)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		stats *models.StatsPayload
		err   error
	}
	second := make(chan result, 1)
	go func() {
		st, err := client.GetContentStats(context.Background(), key)
		second <- result{st, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, 7, *res.stats.Likes)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSharedRefreshSurvivesFirstCallerCancel(t *testing.T) {
	ts := &tokenServer{current: "valid-but-unused", delay: 100 * time.Millisecond}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	client, store := newTestClient(t, srv, "stale")

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := client.RefreshToken(firstCtx)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&ts.refreshN) == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan error, 1)
	go func() {
		_, err := client.RefreshToken(context.Background())
		second <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancelFirst()

	assert.ErrorIs(t, <-firstErr, context.Canceled)
	require.NoError(t, <-second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ts.refreshN))

	token, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-1", token)
}

func TestProactiveRefreshBeforeExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	expiring, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Second)),
	}).SignedString([]byte("test"))
	require.NoError(t, err)

	ts := &tokenServer{current: "unused"}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	client, _ := newTestClient(t, srv, expiring,
		WithTokenRefreshSkew(30*time.Second),
		WithClock(func() time.Time { return now }),
	)

	_, err = client.ToggleLike(context.Background(), models.MakeKey("p1", models.ContentTypePost))
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&ts.refreshN))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ts.hits), "request goes out with the refreshed token")
}

func TestExpiresWithin(t *testing.T) {
	now := time.Now()
	sign := func(exp time.Time) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		}).SignedString([]byte("k"))
		require.NoError(t, err)
		return s
	}

	assert.True(t, expiresWithin(sign(now.Add(time.Second)), 30*time.Second, now))
	assert.False(t, expiresWithin(sign(now.Add(time.Hour)), 30*time.Second, now))
	assert.False(t, expiresWithin("opaque-token", 30*time.Second, now))
}

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret" {
			writeEnvelope(w, http.StatusUnauthorized, models.Fail(models.ErrCodeUnauthorized, "invalid username or password"))
			return
		}
		writeEnvelope(w, http.StatusOK, models.OK(models.LoginResponse{
			Token: "issued",
			User:  models.UserProfile{ID: "u1", Username: req.Username},
		}))
	}))
	defer srv.Close()

	var expired int32
	client, store := newTestClient(t, srv, "", WithSessionExpiredHook(func() { atomic.AddInt32(&expired, 1) }))

	_, err := client.Login(context.Background(), "demo", "wrong")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.NotErrorIs(t, err, models.ErrSessionExpired)

	resp, err := client.Login(context.Background(), "demo", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)

	token, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "issued", token)
	assert.Equal(t, int32(0), expired)

	require.NoError(t, client.Logout(context.Background()))
	_, err = store.Token(context.Background())
	assert.ErrorIs(t, err, session.ErrNoSession)
}
