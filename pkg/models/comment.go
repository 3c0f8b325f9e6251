package models

import (
	"time"
)

// Comment is a comment on a content item. Top-level comments carry their
// replies; replies do not nest further on the wire.
type Comment struct {
	ID        string    `json:"id"`
	ContentID string    `json:"contentId"`
	ParentID  string    `json:"parentId,omitempty"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Likes     int       `json:"likes"`
	Liked     bool      `json:"liked,omitempty"`
	Replies   []Comment `json:"replies,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateCommentRequest creates a top-level comment or, with ParentID, a reply
type CreateCommentRequest struct {
	Text     string `json:"text"`
	ParentID string `json:"parentId,omitempty"`
}

// CommentPage is one page of a content item's comments
type CommentPage struct {
	Comments      []Comment `json:"comments"`
	TotalComments int       `json:"totalComments"`
	HasMore       bool      `json:"hasMore"`
	Page          int       `json:"page"`
}

// CommentLikeResponse is returned by the comment like toggle
type CommentLikeResponse struct {
	CommentID string `json:"commentId"`
	Likes     int    `json:"likes"`
	Liked     bool   `json:"liked"`
}

const (
	MaxCommentLength       = 5000
	DefaultCommentPageSize = 20
)
