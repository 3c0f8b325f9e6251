package devserver

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"mediahub/pkg/models"
)

// CommentService manages comment threads per content id
type CommentService interface {
	Create(ctx context.Context, user *models.User, contentID string, req models.CreateCommentRequest) (*models.Comment, error)
	List(ctx context.Context, userID, contentID string, page, limit int) (*models.CommentPage, error)
	ToggleLike(ctx context.Context, userID, commentID string) (*models.CommentLikeResponse, error)
}

type commentService struct {
	store *memoryStore
}

func newCommentService(store *memoryStore) *commentService {
	return &commentService{store: store}
}

// Create creates a comment. Replies to a reply attach to the top-level
// comment, so threads stay one level deep.
func (s *commentService) Create(ctx context.Context, user *models.User, contentID string, req models.CreateCommentRequest) (*models.Comment, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", models.ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > models.MaxCommentLength {
		return nil, fmt.Errorf("%w: text exceeds maximum length of %d characters", models.ErrInvalidInput, models.MaxCommentLength)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	parentID := req.ParentID
	if parentID != "" {
		parent, ok := s.store.comments[parentID]
		if !ok || parent.comment.ContentID != contentID {
			return nil, fmt.Errorf("%w: parent comment %s", models.ErrNotFound, parentID)
		}
		if parent.comment.ParentID != "" {
			parentID = parent.comment.ParentID
		}
	}

	rec := &commentRecord{
		comment: models.Comment{
			ID:        uuid.New().String(),
			ContentID: contentID,
			ParentID:  parentID,
			UserID:    user.ID,
			Username:  user.Username,
			Text:      text,
			CreatedAt: s.store.now(),
		},
		likedBy: make(map[string]bool),
	}
	s.store.comments[rec.comment.ID] = rec
	if parentID == "" {
		s.store.topLevel[contentID] = append(s.store.topLevel[contentID], rec.comment.ID)
	} else {
		parent := s.store.comments[parentID]
		parent.replies = append(parent.replies, rec.comment.ID)
	}
	s.store.counts[contentID]++

	out := rec.comment
	return &out, nil
}

// List returns top-level comments newest first, each with its replies oldest first
func (s *commentService) List(ctx context.Context, userID, contentID string, page, limit int) (*models.CommentPage, error) {
	if limit <= 0 || limit > 100 {
		limit = models.DefaultCommentPageSize
	}
	if page < 1 {
		page = 1
	}

	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	ids := s.store.topLevel[contentID]
	offset := (page - 1) * limit

	comments := make([]models.Comment, 0, limit)
	for i := len(ids) - 1 - offset; i >= 0 && len(comments) < limit; i-- {
		rec := s.store.comments[ids[i]]
		c := s.viewLocked(rec, userID)
		for _, rid := range rec.replies {
			c.Replies = append(c.Replies, s.viewLocked(s.store.comments[rid], userID))
		}
		comments = append(comments, c)
	}

	return &models.CommentPage{
		Comments:      comments,
		TotalComments: s.store.counts[contentID],
		HasMore:       offset+limit < len(ids),
		Page:          page,
	}, nil
}

func (s *commentService) viewLocked(rec *commentRecord, userID string) models.Comment {
	c := rec.comment
	c.Likes = len(rec.likedBy)
	c.Liked = rec.likedBy[userID]
	c.Replies = nil
	return c
}

func (s *commentService) ToggleLike(ctx context.Context, userID, commentID string) (*models.CommentLikeResponse, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	rec, ok := s.store.comments[commentID]
	if !ok {
		return nil, fmt.Errorf("%w: comment %s", models.ErrNotFound, commentID)
	}
	if rec.likedBy[userID] {
		delete(rec.likedBy, userID)
	} else {
		rec.likedBy[userID] = true
	}
	return &models.CommentLikeResponse{
		CommentID: commentID,
		Likes:     len(rec.likedBy),
		Liked:     rec.likedBy[userID],
	}, nil
}
