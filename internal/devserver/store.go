package devserver

import (
	"sync"
	"time"

	"mediahub/pkg/models"
)

// contentRecord holds the server-side state of one content item
type contentRecord struct {
	likedBy  map[string]bool
	savedBy  map[string]int64 // user id -> saved at (unix ms)
	sharedBy map[string]bool
	viewedBy map[string]bool
	shares   int
	views    int
	// base counters let a seeded item start with non-zero totals
	baseLikes int
	baseSaves int
}

func newContentRecord() *contentRecord {
	return &contentRecord{
		likedBy:  make(map[string]bool),
		savedBy:  make(map[string]int64),
		sharedBy: make(map[string]bool),
		viewedBy: make(map[string]bool),
	}
}

// commentRecord is a stored comment plus who liked it
type commentRecord struct {
	comment models.Comment
	likedBy map[string]bool
	replies []string
}

// memoryStore is the dev backend's whole state
type memoryStore struct {
	mu         sync.RWMutex
	users      map[string]*models.User // by id
	byUsername map[string]string       // username -> id
	content    map[models.ContentKey]*contentRecord
	comments   map[string]*commentRecord // by comment id
	topLevel   map[string][]string       // content id -> top-level comment ids, oldest first
	counts     map[string]int            // content id -> comments including replies
	now        func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:      make(map[string]*models.User),
		byUsername: make(map[string]string),
		content:    make(map[models.ContentKey]*contentRecord),
		comments:   make(map[string]*commentRecord),
		topLevel:   make(map[string][]string),
		counts:     make(map[string]int),
		now:        time.Now,
	}
}

func (m *memoryStore) recordLocked(key models.ContentKey) *contentRecord {
	r, ok := m.content[key]
	if !ok {
		r = newContentRecord()
		m.content[key] = r
	}
	return r
}

// statsLocked builds the metadata view of an item for userID
func (m *memoryStore) statsLocked(key models.ContentKey, userID string) models.ContentStats {
	st := models.NewContentStats(key.ID)
	st.Comments = m.counts[key.ID]
	r, ok := m.content[key]
	if !ok {
		return st
	}
	st.Likes = r.baseLikes + len(r.likedBy)
	st.Saves = r.baseSaves + len(r.savedBy)
	st.Shares = r.shares
	st.Views = r.views
	if userID != "" {
		st.UserInteractions = models.UserInteractions{
			Liked:  r.likedBy[userID],
			Saved:  r.savedBy[userID] != 0,
			Shared: r.sharedBy[userID],
			Viewed: r.viewedBy[userID],
		}
	}
	return st
}
