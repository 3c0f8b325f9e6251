package models

// UserInteractions is the current user's relationship with a content item
type UserInteractions struct {
	Liked  bool `json:"liked"`
	Saved  bool `json:"saved"`
	Shared bool `json:"shared"`
	Viewed bool `json:"viewed"`
}

// ContentStats holds aggregate counters plus the current user's flags
type ContentStats struct {
	ContentID        string           `json:"contentId"`
	Likes            int              `json:"likes"`
	Saves            int              `json:"saves"`
	Shares           int              `json:"shares"`
	Views            int              `json:"views"`
	Comments         int              `json:"comments"`
	UserInteractions UserInteractions `json:"userInteractions"`
}

// NewContentStats returns the zero record for a content id
func NewContentStats(contentID string) ContentStats {
	return ContentStats{ContentID: contentID}
}

// StatsPayload is ContentStats as returned by the metadata endpoints.
// Fields the server omitted stay nil so a merge can keep the cached value.
type StatsPayload struct {
	ContentID        string               `json:"contentId"`
	Likes            *int                 `json:"likes,omitempty"`
	Saves            *int                 `json:"saves,omitempty"`
	Shares           *int                 `json:"shares,omitempty"`
	Views            *int                 `json:"views,omitempty"`
	Comments         *int                 `json:"comments,omitempty"`
	UserInteractions *InteractionsPayload `json:"userInteractions,omitempty"`
}

// InteractionsPayload mirrors UserInteractions with optional fields
type InteractionsPayload struct {
	Liked  *bool `json:"liked,omitempty"`
	Saved  *bool `json:"saved,omitempty"`
	Shared *bool `json:"shared,omitempty"`
	Viewed *bool `json:"viewed,omitempty"`
}

// PayloadFromStats converts a full record into a payload with every field set
func PayloadFromStats(s ContentStats) StatsPayload {
	likes, saves, shares, views, comments := s.Likes, s.Saves, s.Shares, s.Views, s.Comments
	liked, saved, shared, viewed := s.UserInteractions.Liked, s.UserInteractions.Saved, s.UserInteractions.Shared, s.UserInteractions.Viewed
	return StatsPayload{
		ContentID: s.ContentID,
		Likes:     &likes,
		Saves:     &saves,
		Shares:    &shares,
		Views:     &views,
		Comments:  &comments,
		UserInteractions: &InteractionsPayload{
			Liked:  &liked,
			Saved:  &saved,
			Shared: &shared,
			Viewed: &viewed,
		},
	}
}

// LikeResponse is returned by the like toggle endpoint
type LikeResponse struct {
	Liked      bool `json:"liked"`
	TotalLikes int  `json:"totalLikes"`
}

// SaveResponse is returned by the save toggle endpoint
type SaveResponse struct {
	Saved      bool `json:"saved"`
	TotalSaves int  `json:"totalSaves"`
}

// ShareResponse is returned by the share endpoint
type ShareResponse struct {
	TotalShares int `json:"totalShares"`
}

// ViewRequest describes one playback or read of a content item
type ViewRequest struct {
	DurationMs  int64   `json:"durationMs"`
	ProgressPct float64 `json:"progressPct"`
	IsComplete  bool    `json:"isComplete"`
}

// ViewResponse is returned by the view endpoint
type ViewResponse struct {
	TotalViews int `json:"totalViews"`
}

// BatchStatsRequest asks for metadata of several items of one type
type BatchStatsRequest struct {
	ContentIDs []string `json:"contentIds"`
}

// SavedItem is one entry of the user's saved-content collection
type SavedItem struct {
	ContentType ContentType `json:"contentType"`
	ContentID   string      `json:"contentId"`
	SavedAt     int64       `json:"savedAt"`
}
