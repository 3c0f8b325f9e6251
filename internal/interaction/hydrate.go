package interaction

import (
	"context"

	"golang.org/x/sync/errgroup"

	"mediahub/pkg/logger"
	"mediahub/pkg/models"
)

// fetchMark is the mutation sequence observed when a fetch started
type fetchMark struct {
	like uint64
	save uint64
}

func (s *Service) markFetch(key models.ContentKey) fetchMark {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return fetchMark{
		like: s.store.mutationSeqLocked(key, KindLike),
		save: s.store.mutationSeqLocked(key, KindSave),
	}
}

// LoadContentStats fetches one item's stats and merges them into the cache.
// A failed fetch keeps the cached entry, or creates a zero record. Only an
// expired session is returned as an error.
func (s *Service) LoadContentStats(ctx context.Context, contentID string, contentType models.ContentType) error {
	key := s.store.Register(models.MakeKey(contentID, contentType))
	s.store.SetLoading(key, OpStats, true)
	defer s.store.SetLoading(key, OpStats, false)

	mark := s.markFetch(key)
	payload, err := s.backend.GetContentStats(ctx, key)
	if err != nil {
		s.store.Update(key, func(*models.ContentStats) {})
		s.log.WithField("key", key.String()).WithError(err).Warn("failed to load stats")
		return sessionError(err)
	}

	s.merge(key, *payload, mark)
	return nil
}

// LoadBatchContentStats hydrates several items of one type with a single
// request. When the batch call fails or comes back empty every item is
// loaded individually; items missing from a partial answer are too.
func (s *Service) LoadBatchContentStats(ctx context.Context, contentIDs []string, contentType models.ContentType) error {
	if len(contentIDs) == 0 {
		return nil
	}

	keys := make(map[string]models.ContentKey, len(contentIDs))
	marks := make(map[string]fetchMark, len(contentIDs))
	for _, id := range contentIDs {
		key := s.store.Register(models.MakeKey(id, contentType))
		keys[id] = key
		marks[id] = s.markFetch(key)
		s.store.SetLoading(key, OpStats, true)
	}
	clearFlags := func() {
		for _, key := range keys {
			s.store.SetLoading(key, OpStats, false)
		}
	}

	result, err := s.backend.GetBatchContentStats(ctx, contentType, contentIDs)
	if err != nil || len(result) == 0 {
		clearFlags()
		if err := sessionError(err); err != nil {
			return err
		}
		s.log.WithFields(logger.Fields{
			"type":  contentType,
			"count": len(contentIDs),
		}).WithError(err).Info("batch stats unavailable, loading individually")
		return s.loadEach(ctx, contentIDs, contentType)
	}

	var missing []string
	for _, id := range contentIDs {
		payload, ok := result[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		s.merge(keys[id], payload, marks[id])
	}
	clearFlags()

	if len(missing) > 0 {
		s.log.WithField("missing", len(missing)).Debug("batch stats incomplete, loading the rest individually")
		return s.loadEach(ctx, missing, contentType)
	}
	return nil
}

func (s *Service) loadEach(ctx context.Context, contentIDs []string, contentType models.ContentType) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fallbackWorkers)
	for _, id := range contentIDs {
		id := id
		g.Go(func() error {
			return s.LoadContentStats(gctx, id, contentType)
		})
	}
	return g.Wait()
}

// RefreshAllStatsAfterLogin forgets the previous session's mutation markers
// and re-hydrates every cached item, batched per content type.
func (s *Service) RefreshAllStatsAfterLogin(ctx context.Context) error {
	s.store.clearMutations()

	byType := make(map[models.ContentType][]string)
	var order []models.ContentType
	for _, key := range s.store.Keys() {
		if _, ok := byType[key.Type]; !ok {
			order = append(order, key.Type)
		}
		byType[key.Type] = append(byType[key.Type], key.ID)
	}

	for _, typ := range order {
		if err := s.LoadBatchContentStats(ctx, byType[typ], typ); err != nil {
			return err
		}
	}

	s.refreshSaved(ctx)
	return nil
}

// merge folds server stats into the slot. Like and save dimensions that were
// mutated recently, are mid-flight, or changed since the fetch started keep
// the larger count and either flag; otherwise the server wins. Fields the
// server omitted keep their cached value.
func (s *Service) merge(key models.ContentKey, p models.StatsPayload, mark fetchMark) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	now := s.now()
	st := s.store.slotLocked(key)
	ui := p.UserInteractions
	if ui == nil {
		ui = &models.InteractionsPayload{}
	}

	likeGuarded := s.store.guardedLocked(key, KindLike, mark.like, now, s.guardWindow)
	saveGuarded := s.store.guardedLocked(key, KindSave, mark.save, now, s.guardWindow)

	st.Likes = mergeCount(st.Likes, p.Likes, likeGuarded)
	st.UserInteractions.Liked = mergeFlag(st.UserInteractions.Liked, ui.Liked, likeGuarded)
	st.Saves = mergeCount(st.Saves, p.Saves, saveGuarded)
	st.UserInteractions.Saved = mergeFlag(st.UserInteractions.Saved, ui.Saved, saveGuarded)

	st.Shares = mergeCount(st.Shares, p.Shares, false)
	st.Views = mergeCount(st.Views, p.Views, false)
	st.Comments = mergeCount(st.Comments, p.Comments, false)
	st.UserInteractions.Shared = mergeFlag(st.UserInteractions.Shared, ui.Shared, false)
	st.UserInteractions.Viewed = mergeFlag(st.UserInteractions.Viewed, ui.Viewed, false)

	clampStats(st)

	if likeGuarded || saveGuarded {
		s.log.WithFields(logger.Fields{
			"key":  key.String(),
			"like": likeGuarded,
			"save": saveGuarded,
		}).Debug("merge guarded by recent mutation")
	}
}

func mergeCount(existing int, server *int, guarded bool) int {
	if server == nil {
		return existing
	}
	if guarded && existing > *server {
		return existing
	}
	return *server
}

func mergeFlag(existing bool, server *bool, guarded bool) bool {
	if server == nil {
		return existing
	}
	if guarded {
		return existing || *server
	}
	return *server
}
