package interaction

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediahub/pkg/models"
)

func pageOf(hasMore bool, total int, ids ...string) *models.CommentPage {
	page := &models.CommentPage{TotalComments: total, HasMore: hasMore}
	for _, id := range ids {
		page.Comments = append(page.Comments, models.Comment{ID: id, ContentID: "p1", Text: "comment " + id})
	}
	return page
}

func TestLoadCommentsReplacesAndAppends(t *testing.T) {
	backend := &BackendMock{
		ListCommentsFunc: func(ctx context.Context, contentID string, page, limit int) (*models.CommentPage, error) {
			assert.Equal(t, 2, limit)
			if page == 1 {
				return pageOf(true, 3, "c1", "c2"), nil
			}
			return pageOf(false, 3, "c3"), nil
		},
	}
	svc := newTestService(backend, newFakeClock(), WithCommentPageSize(2))
	ctx := context.Background()

	require.NoError(t, svc.LoadComments(ctx, "p1", 1))
	assert.True(t, svc.HasMoreComments("p1"))
	assert.Len(t, svc.Comments("p1"), 2)

	require.NoError(t, svc.LoadMoreComments(ctx, "p1"))
	assert.False(t, svc.HasMoreComments("p1"))
	assert.Len(t, svc.Comments("p1"), 3)

	st, ok := svc.Stats("p1")
	require.True(t, ok)
	assert.Equal(t, 3, st.Comments)

	// nothing further to load
	require.NoError(t, svc.LoadMoreComments(ctx, "p1"))
	assert.Len(t, backend.Calls("ListComments"), 2)

	require.NoError(t, svc.LoadComments(ctx, "p1", 1))
	assert.Len(t, svc.Comments("p1"), 2, "page 1 replaces")
}

func TestAddCommentValidation(t *testing.T) {
	backend := &BackendMock{}
	svc := newTestService(backend, newFakeClock())
	ctx := context.Background()

	_, err := svc.AddComment(ctx, "p1", "   ", "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.AddComment(ctx, "p1", strings.Repeat("a", models.MaxCommentLength+1), "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	assert.Empty(t, backend.Calls("CreateComment"))
}

func TestAddCommentPrependsAndCountsLocally(t *testing.T) {
	backend := &BackendMock{
		ListCommentsFunc: func(ctx context.Context, contentID string, page, limit int) (*models.CommentPage, error) {
			return pageOf(false, 2, "c1", "c2"), nil
		},
		CreateCommentFunc: func(ctx context.Context, contentID, text, parentID string) (*models.Comment, error) {
			assert.Equal(t, "hello", text, "text is trimmed")
			return &models.Comment{ID: "new", ContentID: contentID, Text: text}, nil
		},
	}
	svc := newTestService(backend, newFakeClock())
	ctx := context.Background()
	require.NoError(t, svc.LoadComments(ctx, "p1", 1))

	created, err := svc.AddComment(ctx, "p1", "  hello  ", "")
	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)

	comments := svc.Comments("p1")
	require.Len(t, comments, 3)
	assert.Equal(t, "new", comments[0].ID)

	st, _ := svc.Stats("p1")
	assert.Equal(t, 3, st.Comments)
}

func TestAddCommentWithMorePagesIncrementsCount(t *testing.T) {
	backend := &BackendMock{
		ListCommentsFunc: func(ctx context.Context, contentID string, page, limit int) (*models.CommentPage, error) {
			return pageOf(true, 57, "c1", "c2"), nil
		},
		CreateCommentFunc: func(ctx context.Context, contentID, text, parentID string) (*models.Comment, error) {
			return &models.Comment{ID: "new", Text: text}, nil
		},
	}
	svc := newTestService(backend, newFakeClock())
	ctx := context.Background()
	require.NoError(t, svc.LoadComments(ctx, "p1", 1))

	_, err := svc.AddComment(ctx, "p1", "hi", "")
	require.NoError(t, err)

	st, _ := svc.Stats("p1")
	assert.Equal(t, 58, st.Comments)
}

func TestAddCommentKeepsHydratedCountWhenThreadNotLoaded(t *testing.T) {
	total := 42
	backend := &BackendMock{
		GetContentStatsFunc: func(ctx context.Context, key models.ContentKey) (*models.StatsPayload, error) {
			return &models.StatsPayload{ContentID: key.ID, Comments: &total}, nil
		},
		CreateCommentFunc: func(ctx context.Context, contentID, text, parentID string) (*models.Comment, error) {
			return &models.Comment{ID: "new", ParentID: parentID, Text: text}, nil
		},
	}
	svc := newTestService(backend, newFakeClock())
	ctx := context.Background()
	require.NoError(t, svc.LoadContentStats(ctx, "p1", models.ContentTypePost))

	_, err := svc.AddComment(ctx, "p1", "hello", "")
	require.NoError(t, err)
	st, _ := svc.Stats("p1")
	assert.Equal(t, 43, st.Comments)

	// reply to a parent that is not loaded still counts
	_, err = svc.AddComment(ctx, "p1", "reply", "c-unknown")
	require.NoError(t, err)
	st, _ = svc.Stats("p1")
	assert.Equal(t, 44, st.Comments)
	assert.Len(t, svc.Comments("p1"), 1)
}

func TestAddReplyAttachesToNestedParent(t *testing.T) {
	backend := &BackendMock{
		ListCommentsFunc: func(ctx context.Context, contentID string, page, limit int) (*models.CommentPage, error) {
			return &models.CommentPage{
				TotalComments: 2,
				Comments: []models.Comment{
					{ID: "c1", Replies: []models.Comment{{ID: "r1", ParentID: "c1"}}},
				},
			}, nil
		},
		CreateCommentFunc: func(ctx context.Context, contentID, text, parentID string) (*models.Comment, error) {
			return &models.Comment{ID: "r2", ParentID: parentID, Text: text}, nil
		},
	}
	svc := newTestService(backend, newFakeClock())
	ctx := context.Background()
	require.NoError(t, svc.LoadComments(ctx, "p1", 1))

	_, err := svc.AddComment(ctx, "p1", "reply", "c1")
	require.NoError(t, err)

	comments := svc.Comments("p1")
	require.Len(t, comments, 1)
	require.Len(t, comments[0].Replies, 2)
	assert.Equal(t, "r2", comments[0].Replies[1].ID)

	st, _ := svc.Stats("p1")
	assert.Equal(t, 3, st.Comments)
}

func TestAddCommentServerErrorPropagates(t *testing.T) {
	backend := &BackendMock{
		CreateCommentFunc: func(ctx context.Context, contentID, text, parentID string) (*models.Comment, error) {
			return nil, models.NewHTTPError(400, models.ErrCodeValidation, "comments are closed")
		},
	}
	svc := newTestService(backend, newFakeClock())

	_, err := svc.AddComment(context.Background(), "p1", "late", "")
	assert.ErrorContains(t, err, "comments are closed")
	assert.Empty(t, svc.Comments("p1"))
}

func TestToggleCommentLikeUsesServerCount(t *testing.T) {
	backend := &BackendMock{
		ListCommentsFunc: func(ctx context.Context, contentID string, page, limit int) (*models.CommentPage, error) {
			return &models.CommentPage{
				Comments: []models.Comment{
					{ID: "c1", Likes: 1, Replies: []models.Comment{{ID: "r1", Likes: 0}}},
				},
			}, nil
		},
		ToggleCommentLikeFunc: func(ctx context.Context, commentID string) (*models.CommentLikeResponse, error) {
			return &models.CommentLikeResponse{CommentID: commentID, Likes: 6, Liked: true}, nil
		},
	}
	svc := newTestService(backend, newFakeClock())
	ctx := context.Background()
	require.NoError(t, svc.LoadComments(ctx, "p1", 1))

	require.NoError(t, svc.ToggleCommentLike(ctx, "r1", "p1"))

	comments := svc.Comments("p1")
	assert.Equal(t, 1, comments[0].Likes)
	assert.Equal(t, 6, comments[0].Replies[0].Likes)
	assert.True(t, comments[0].Replies[0].Liked)
}

func TestCommentsReturnsCopy(t *testing.T) {
	backend := &BackendMock{
		ListCommentsFunc: func(ctx context.Context, contentID string, page, limit int) (*models.CommentPage, error) {
			return &models.CommentPage{Comments: []models.Comment{{ID: "c1", Replies: []models.Comment{{ID: "r1"}}}}}, nil
		},
	}
	svc := newTestService(backend, newFakeClock())
	require.NoError(t, svc.LoadComments(context.Background(), "p1", 1))

	got := svc.Comments("p1")
	got[0].Replies[0].Text = "mutated"

	assert.Empty(t, svc.Comments("p1")[0].Replies[0].Text)
}
