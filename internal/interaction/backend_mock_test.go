package interaction

import (
	"context"
	"errors"
	"sync"
	"time"

	"mediahub/pkg/models"
)

var errBackend = errors.New("backend unavailable")

// BackendMock is a func-field fake of Backend. Unset funcs fail with errBackend.
type BackendMock struct {
	ToggleLikeFunc           func(ctx context.Context, key models.ContentKey) (*models.LikeResponse, error)
	ToggleSaveFunc           func(ctx context.Context, key models.ContentKey) (*models.SaveResponse, error)
	RecordShareFunc          func(ctx context.Context, key models.ContentKey) (*models.ShareResponse, error)
	RecordViewFunc           func(ctx context.Context, key models.ContentKey, view models.ViewRequest) (*models.ViewResponse, error)
	GetContentStatsFunc      func(ctx context.Context, key models.ContentKey) (*models.StatsPayload, error)
	GetBatchContentStatsFunc func(ctx context.Context, contentType models.ContentType, ids []string) (map[string]models.StatsPayload, error)
	GetSavedContentFunc      func(ctx context.Context) ([]models.SavedItem, error)
	ListCommentsFunc         func(ctx context.Context, contentID string, page, limit int) (*models.CommentPage, error)
	CreateCommentFunc        func(ctx context.Context, contentID, text, parentID string) (*models.Comment, error)
	ToggleCommentLikeFunc    func(ctx context.Context, commentID string) (*models.CommentLikeResponse, error)

	mu    sync.Mutex
	calls map[string][]interface{}
}

func (m *BackendMock) record(method string, arg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string][]interface{})
	}
	m.calls[method] = append(m.calls[method], arg)
}

// Calls returns the recorded arguments of method
func (m *BackendMock) Calls(method string) []interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]interface{}(nil), m.calls[method]...)
}

func (m *BackendMock) ToggleLike(ctx context.Context, key models.ContentKey) (*models.LikeResponse, error) {
	m.record("ToggleLike", key)
	if m.ToggleLikeFunc == nil {
		return nil, errBackend
	}
	return m.ToggleLikeFunc(ctx, key)
}

func (m *BackendMock) ToggleSave(ctx context.Context, key models.ContentKey) (*models.SaveResponse, error) {
	m.record("ToggleSave", key)
	if m.ToggleSaveFunc == nil {
		return nil, errBackend
	}
	return m.ToggleSaveFunc(ctx, key)
}

func (m *BackendMock) RecordShare(ctx context.Context, key models.ContentKey) (*models.ShareResponse, error) {
	m.record("RecordShare", key)
	if m.RecordShareFunc == nil {
		return nil, errBackend
	}
	return m.RecordShareFunc(ctx, key)
}

func (m *BackendMock) RecordView(ctx context.Context, key models.ContentKey, view models.ViewRequest) (*models.ViewResponse, error) {
	m.record("RecordView", key)
	if m.RecordViewFunc == nil {
		return nil, errBackend
	}
	return m.RecordViewFunc(ctx, key, view)
}

func (m *BackendMock) GetContentStats(ctx context.Context, key models.ContentKey) (*models.StatsPayload, error) {
	m.record("GetContentStats", key)
	if m.GetContentStatsFunc == nil {
		return nil, errBackend
	}
	return m.GetContentStatsFunc(ctx, key)
}

func (m *BackendMock) GetBatchContentStats(ctx context.Context, contentType models.ContentType, ids []string) (map[string]models.StatsPayload, error) {
	m.record("GetBatchContentStats", ids)
	if m.GetBatchContentStatsFunc == nil {
		return nil, errBackend
	}
	return m.GetBatchContentStatsFunc(ctx, contentType, ids)
}

func (m *BackendMock) GetSavedContent(ctx context.Context) ([]models.SavedItem, error) {
	m.record("GetSavedContent", nil)
	if m.GetSavedContentFunc == nil {
		return nil, errBackend
	}
	return m.GetSavedContentFunc(ctx)
}

func (m *BackendMock) ListComments(ctx context.Context, contentID string, page, limit int) (*models.CommentPage, error) {
	m.record("ListComments", page)
	if m.ListCommentsFunc == nil {
		return nil, errBackend
	}
	return m.ListCommentsFunc(ctx, contentID, page, limit)
}

func (m *BackendMock) CreateComment(ctx context.Context, contentID, text, parentID string) (*models.Comment, error) {
	m.record("CreateComment", text)
	if m.CreateCommentFunc == nil {
		return nil, errBackend
	}
	return m.CreateCommentFunc(ctx, contentID, text, parentID)
}

func (m *BackendMock) ToggleCommentLike(ctx context.Context, commentID string) (*models.CommentLikeResponse, error) {
	m.record("ToggleCommentLike", commentID)
	if m.ToggleCommentLikeFunc == nil {
		return nil, errBackend
	}
	return m.ToggleCommentLikeFunc(ctx, commentID)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func statsPayload(id string, likes int, liked bool) *models.StatsPayload {
	return &models.StatsPayload{
		ContentID:        id,
		Likes:            intPtr(likes),
		UserInteractions: &models.InteractionsPayload{Liked: boolPtr(liked)},
	}
}
