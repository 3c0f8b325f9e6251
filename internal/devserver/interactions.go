package devserver

import (
	"context"
	"sort"

	"mediahub/pkg/models"
)

// InteractionService keeps likes, saves, shares and views per content item
type InteractionService interface {
	ToggleLike(ctx context.Context, userID string, key models.ContentKey) (*models.LikeResponse, error)
	ToggleSave(ctx context.Context, userID string, key models.ContentKey) (*models.SaveResponse, error)
	Share(ctx context.Context, userID string, key models.ContentKey) (*models.ShareResponse, error)
	View(ctx context.Context, userID string, key models.ContentKey, view models.ViewRequest) (*models.ViewResponse, error)
	Stats(ctx context.Context, userID string, key models.ContentKey) (*models.ContentStats, error)
	BatchStats(ctx context.Context, userID string, contentType models.ContentType, ids []string) (map[string]models.ContentStats, error)
	Saved(ctx context.Context, userID string) ([]models.SavedItem, error)
	Seed(key models.ContentKey, likes, saves, shares, views int)
}

type interactionService struct {
	store *memoryStore
}

func newInteractionService(store *memoryStore) *interactionService {
	return &interactionService{store: store}
}

func (s *interactionService) ToggleLike(ctx context.Context, userID string, key models.ContentKey) (*models.LikeResponse, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	r := s.store.recordLocked(key)
	if r.likedBy[userID] {
		delete(r.likedBy, userID)
	} else {
		r.likedBy[userID] = true
	}
	return &models.LikeResponse{
		Liked:      r.likedBy[userID],
		TotalLikes: r.baseLikes + len(r.likedBy),
	}, nil
}

func (s *interactionService) ToggleSave(ctx context.Context, userID string, key models.ContentKey) (*models.SaveResponse, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	r := s.store.recordLocked(key)
	saved := r.savedBy[userID] == 0
	if saved {
		r.savedBy[userID] = s.store.now().UnixMilli()
	} else {
		delete(r.savedBy, userID)
	}
	return &models.SaveResponse{
		Saved:      saved,
		TotalSaves: r.baseSaves + len(r.savedBy),
	}, nil
}

// Share counts every share; the shared flag is per user
func (s *interactionService) Share(ctx context.Context, userID string, key models.ContentKey) (*models.ShareResponse, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	r := s.store.recordLocked(key)
	r.shares++
	r.sharedBy[userID] = true
	return &models.ShareResponse{TotalShares: r.shares}, nil
}

func (s *interactionService) View(ctx context.Context, userID string, key models.ContentKey, view models.ViewRequest) (*models.ViewResponse, error) {
	if view.ProgressPct < 0 || view.ProgressPct > 1 || view.DurationMs < 0 {
		return nil, models.ErrInvalidInput
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	r := s.store.recordLocked(key)
	r.views++
	r.viewedBy[userID] = true
	return &models.ViewResponse{TotalViews: r.views}, nil
}

func (s *interactionService) Stats(ctx context.Context, userID string, key models.ContentKey) (*models.ContentStats, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	st := s.store.statsLocked(key, userID)
	return &st, nil
}

func (s *interactionService) BatchStats(ctx context.Context, userID string, contentType models.ContentType, ids []string) (map[string]models.ContentStats, error) {
	if len(ids) > 100 {
		return nil, models.ErrInvalidInput
	}

	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	out := make(map[string]models.ContentStats, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		out[id] = s.store.statsLocked(models.MakeKey(id, contentType), userID)
	}
	return out, nil
}

// Saved lists the user's saved items, most recent first
func (s *interactionService) Saved(ctx context.Context, userID string) ([]models.SavedItem, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	items := make([]models.SavedItem, 0)
	for key, r := range s.store.content {
		if at, ok := r.savedBy[userID]; ok {
			items = append(items, models.SavedItem{ContentType: key.Type, ContentID: key.ID, SavedAt: at})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SavedAt != items[j].SavedAt {
			return items[i].SavedAt > items[j].SavedAt
		}
		return items[i].ContentID < items[j].ContentID
	})
	return items, nil
}

// Seed gives an item starting totals, for demos and tests
func (s *interactionService) Seed(key models.ContentKey, likes, saves, shares, views int) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	r := s.store.recordLocked(key)
	r.baseLikes = likes
	r.baseSaves = saves
	r.shares = shares
	r.views = views
}
