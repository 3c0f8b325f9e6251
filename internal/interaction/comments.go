package interaction

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"mediahub/pkg/models"
)

type commentThread struct {
	comments []models.Comment
	page     int
	hasMore  bool
	total    int
}

func (s *Store) threadLocked(contentID string) *commentThread {
	t, ok := s.comments[contentID]
	if !ok {
		t = &commentThread{}
		s.comments[contentID] = t
	}
	return t
}

// LoadComments fetches a page of comments. Page 1 replaces the cached list,
// later pages append. The item's comment count follows the server total.
func (s *Service) LoadComments(ctx context.Context, contentID string, page int) error {
	if page < 1 {
		page = 1
	}
	key := s.store.Resolve(contentID)
	s.store.SetLoading(key, OpComments, true)
	defer s.store.SetLoading(key, OpComments, false)

	resp, err := s.backend.ListComments(ctx, contentID, page, s.commentPageSize)
	if err != nil {
		return fmt.Errorf("failed to load comments: %w", err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	t := s.store.threadLocked(contentID)
	if page == 1 {
		t.comments = append([]models.Comment(nil), resp.Comments...)
	} else {
		t.comments = append(t.comments, resp.Comments...)
	}
	t.page = page
	t.hasMore = resp.HasMore
	t.total = resp.TotalComments

	st := s.store.slotLocked(s.store.resolveLocked(contentID))
	st.Comments = nonNegative(resp.TotalComments)
	return nil
}

// LoadMoreComments fetches the page after the last loaded one, if any
func (s *Service) LoadMoreComments(ctx context.Context, contentID string) error {
	s.store.mu.Lock()
	t, ok := s.store.comments[contentID]
	next := 1
	if ok {
		if !t.hasMore {
			s.store.mu.Unlock()
			return nil
		}
		next = t.page + 1
	}
	s.store.mu.Unlock()

	return s.LoadComments(ctx, contentID, next)
}

// Comments returns a copy of the cached comment list
func (s *Service) Comments(contentID string) []models.Comment {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	t, ok := s.store.comments[contentID]
	if !ok {
		return nil
	}
	return copyComments(t.comments)
}

// HasMoreComments reports whether the server has pages beyond those loaded
func (s *Service) HasMoreComments(contentID string) bool {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	t, ok := s.store.comments[contentID]
	return ok && t.hasMore
}

// AddComment posts a comment, or a reply when parentID is set. The created
// comment is inserted locally: replies under their parent, top-level
// comments first.
func (s *Service) AddComment(ctx context.Context, contentID, text, parentID string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", models.ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > models.MaxCommentLength {
		return nil, fmt.Errorf("%w: comment exceeds %d characters", models.ErrInvalidInput, models.MaxCommentLength)
	}

	created, err := s.backend.CreateComment(ctx, contentID, text, parentID)
	if err != nil {
		return nil, err
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	t := s.store.threadLocked(contentID)
	if parentID != "" {
		if !attachReply(t.comments, parentID, *created) {
			s.log.WithField("parent_id", parentID).Debug("reply parent not loaded, skipping local insert")
		}
	} else {
		t.comments = append([]models.Comment{*created}, t.comments...)
	}

	// the hydrated total may exceed what is loaded locally; never count down
	st := s.store.slotLocked(s.store.resolveLocked(contentID))
	st.Comments = max(st.Comments+1, countComments(t.comments))
	t.total = st.Comments

	out := *created
	return &out, nil
}

// ToggleCommentLike likes or unlikes a comment. The matched comment's like
// count is taken from the server answer; there is no optimistic update.
func (s *Service) ToggleCommentLike(ctx context.Context, commentID, contentID string) error {
	resp, err := s.backend.ToggleCommentLike(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to like comment: %w", err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	t, ok := s.store.comments[contentID]
	if !ok {
		return nil
	}
	updateComment(t.comments, commentID, func(c *models.Comment) {
		c.Likes = nonNegative(resp.Likes)
		c.Liked = resp.Liked
	})
	return nil
}

// attachReply appends reply to the comment with parentID, searching replies too
func attachReply(comments []models.Comment, parentID string, reply models.Comment) bool {
	return updateComment(comments, parentID, func(c *models.Comment) {
		c.Replies = append(c.Replies, reply)
	})
}

func updateComment(comments []models.Comment, id string, fn func(*models.Comment)) bool {
	for i := range comments {
		if comments[i].ID == id {
			fn(&comments[i])
			return true
		}
		if updateComment(comments[i].Replies, id, fn) {
			return true
		}
	}
	return false
}

func countComments(comments []models.Comment) int {
	n := len(comments)
	for _, c := range comments {
		n += countComments(c.Replies)
	}
	return n
}

func copyComments(in []models.Comment) []models.Comment {
	if in == nil {
		return nil
	}
	out := make([]models.Comment, len(in))
	for i, c := range in {
		out[i] = c
		out[i].Replies = copyComments(c.Replies)
	}
	return out
}
