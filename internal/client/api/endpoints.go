package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"mediahub/pkg/models"
)

func interactionPath(key models.ContentKey, action string) string {
	return fmt.Sprintf("/interactions/%s/%s/%s",
		url.PathEscape(string(key.WireType())), url.PathEscape(key.ID), action)
}

// Auth endpoints

// Login authenticates a user and stores the issued token
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	body := models.LoginRequest{
		Username: username,
		Password: password,
	}

	var loginResp models.LoginResponse
	if err := c.send(ctx, request{method: http.MethodPost, path: "/auth/login", body: body, noAuth: true}, &loginResp); err != nil {
		return nil, err
	}

	if err := c.tokens.SetToken(ctx, loginResp.Token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	return &loginResp, nil
}

// Logout forgets the stored token. The backend keeps no server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.tokens.Clear(ctx)
}

// Interaction endpoints

// ToggleLike flips the user's like on a content item
func (c *Client) ToggleLike(ctx context.Context, key models.ContentKey) (*models.LikeResponse, error) {
	var resp models.LikeResponse
	if err := c.Do(ctx, http.MethodPost, interactionPath(key, "like"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ToggleSave flips the user's save on a content item
func (c *Client) ToggleSave(ctx context.Context, key models.ContentKey) (*models.SaveResponse, error) {
	var resp models.SaveResponse
	if err := c.Do(ctx, http.MethodPost, interactionPath(key, "save"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordShare registers a share of a content item
func (c *Client) RecordShare(ctx context.Context, key models.ContentKey) (*models.ShareResponse, error) {
	var resp models.ShareResponse
	if err := c.Do(ctx, http.MethodPost, interactionPath(key, "share"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordView registers a playback or read of a content item
func (c *Client) RecordView(ctx context.Context, key models.ContentKey, view models.ViewRequest) (*models.ViewResponse, error) {
	var resp models.ViewResponse
	if err := c.Do(ctx, http.MethodPost, interactionPath(key, "view"), view, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetContentStats retrieves counters and user flags for one content item
func (c *Client) GetContentStats(ctx context.Context, key models.ContentKey) (*models.StatsPayload, error) {
	var stats models.StatsPayload
	if err := c.Do(ctx, http.MethodGet, interactionPath(key, "metadata"), nil, &stats); err != nil {
		return nil, err
	}
	if stats.ContentID == "" {
		stats.ContentID = key.ID
	}
	return &stats, nil
}

// GetBatchContentStats retrieves stats for several items of one type, keyed by content id
func (c *Client) GetBatchContentStats(ctx context.Context, contentType models.ContentType, ids []string) (map[string]models.StatsPayload, error) {
	if contentType == "" {
		contentType = models.DefaultContentType
	}
	path := fmt.Sprintf("/interactions/%s/metadata", url.PathEscape(string(contentType)))

	result := make(map[string]models.StatsPayload)
	if err := c.Do(ctx, http.MethodPost, path, models.BatchStatsRequest{ContentIDs: ids}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetSavedContent lists the user's saved items
func (c *Client) GetSavedContent(ctx context.Context) ([]models.SavedItem, error) {
	var items []models.SavedItem
	if err := c.Do(ctx, http.MethodGet, "/users/me/saved", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Comment endpoints

// ListComments retrieves one page of comments for a content item
func (c *Client) ListComments(ctx context.Context, contentID string, page, limit int) (*models.CommentPage, error) {
	path := fmt.Sprintf("/comments/%s?page=%d&limit=%d", url.PathEscape(contentID), page, limit)

	var result models.CommentPage
	if err := c.Do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	if result.Page == 0 {
		result.Page = page
	}
	return &result, nil
}

// CreateComment posts a comment, or a reply when parentID is set
func (c *Client) CreateComment(ctx context.Context, contentID, text, parentID string) (*models.Comment, error) {
	body := models.CreateCommentRequest{
		Text:     text,
		ParentID: parentID,
	}

	var comment models.Comment
	if err := c.Do(ctx, http.MethodPost, "/comments/"+url.PathEscape(contentID), body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// ToggleCommentLike flips the user's like on a comment
func (c *Client) ToggleCommentLike(ctx context.Context, commentID string) (*models.CommentLikeResponse, error) {
	var resp models.CommentLikeResponse
	path := fmt.Sprintf("/comments/%s/like", url.PathEscape(commentID))
	if err := c.Do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
