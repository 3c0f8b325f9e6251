package interaction

import (
	"context"
	"errors"

	"mediahub/pkg/logger"
	"mediahub/pkg/models"
)

// LikeResult is the like state after a toggle settled
type LikeResult struct {
	Liked      bool
	TotalLikes int
	RolledBack bool
}

// SaveResult is the save state after a toggle settled
type SaveResult struct {
	Saved      bool
	TotalSaves int
	RolledBack bool
}

// SaveSeed carries values a screen already knows about an item. They are
// used only when the cache has no entry for it yet.
type SaveSeed struct {
	Likes    *int
	Saves    *int
	Shares   *int
	Views    *int
	Comments *int
	Liked    *bool
	Saved    *bool
	Shared   *bool
	Viewed   *bool
}

func (seed *SaveSeed) apply(st *models.ContentStats) {
	if seed == nil {
		return
	}
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setBool := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	setInt(&st.Likes, seed.Likes)
	setInt(&st.Saves, seed.Saves)
	setInt(&st.Shares, seed.Shares)
	setInt(&st.Views, seed.Views)
	setInt(&st.Comments, seed.Comments)
	setBool(&st.UserInteractions.Liked, seed.Liked)
	setBool(&st.UserInteractions.Saved, seed.Saved)
	setBool(&st.UserInteractions.Shared, seed.Shared)
	setBool(&st.UserInteractions.Viewed, seed.Viewed)
}

// toggleState is one flag/count pair of a toggleable dimension
type toggleState struct {
	on    bool
	count int
}

type dimension struct {
	kind MutationKind
	op   Operation
	get  func(*models.ContentStats) toggleState
	set  func(*models.ContentStats, toggleState)
}

var likeDimension = dimension{
	kind: KindLike,
	op:   OpLike,
	get: func(st *models.ContentStats) toggleState {
		return toggleState{on: st.UserInteractions.Liked, count: st.Likes}
	},
	set: func(st *models.ContentStats, v toggleState) {
		st.UserInteractions.Liked = v.on
		st.Likes = nonNegative(v.count)
	},
}

var saveDimension = dimension{
	kind: KindSave,
	op:   OpSave,
	get: func(st *models.ContentStats) toggleState {
		return toggleState{on: st.UserInteractions.Saved, count: st.Saves}
	},
	set: func(st *models.ContentStats, v toggleState) {
		st.UserInteractions.Saved = v.on
		st.Saves = nonNegative(v.count)
	},
}

func flip(v toggleState) toggleState {
	if v.on {
		return toggleState{on: false, count: nonNegative(v.count - 1)}
	}
	return toggleState{on: true, count: v.count + 1}
}

// ToggleLike flips the like state optimistically, then reconciles with the
// server answer or rolls back. Backend failures never escape; only an expired
// session is returned as an error.
func (s *Service) ToggleLike(ctx context.Context, contentID string, contentType models.ContentType) (LikeResult, error) {
	key := s.store.Register(models.MakeKey(contentID, contentType))

	state, rolledBack, err := s.toggle(ctx, key, likeDimension, nil, func(ctx context.Context) (toggleState, error) {
		resp, err := s.backend.ToggleLike(ctx, key)
		if err != nil {
			return toggleState{}, err
		}
		return toggleState{on: resp.Liked, count: resp.TotalLikes}, nil
	})

	return LikeResult{Liked: state.on, TotalLikes: state.count, RolledBack: rolledBack}, err
}

// ToggleSave flips the save state the same way ToggleLike does. seed, when
// given, initializes an item the cache has not seen yet. A successful toggle
// refreshes the saved-content list.
func (s *Service) ToggleSave(ctx context.Context, contentID string, contentType models.ContentType, seed *SaveSeed) (SaveResult, error) {
	key := s.store.Register(models.MakeKey(contentID, contentType))

	state, rolledBack, err := s.toggle(ctx, key, saveDimension, seed, func(ctx context.Context) (toggleState, error) {
		resp, err := s.backend.ToggleSave(ctx, key)
		if err != nil {
			return toggleState{}, err
		}
		return toggleState{on: resp.Saved, count: resp.TotalSaves}, nil
	})
	if err == nil && !rolledBack {
		s.refreshSaved(ctx)
	}

	return SaveResult{Saved: state.on, TotalSaves: state.count, RolledBack: rolledBack}, err
}

func (s *Service) toggle(ctx context.Context, key models.ContentKey, dim dimension, seed *SaveSeed,
	remote func(context.Context) (toggleState, error)) (toggleState, bool, error) {

	s.store.mu.Lock()
	st, existed := s.store.stats[key]
	if !existed {
		st = s.store.slotLocked(key)
		seed.apply(st)
		clampStats(st)
	}
	before := dim.get(st)
	optimistic := flip(before)
	dim.set(st, optimistic)
	s.store.beginMutationLocked(key, dim.kind, s.now())
	s.store.loading[loadingKey{key: key, op: dim.op}] = true
	s.store.mu.Unlock()

	log := s.log.WithFields(logger.Fields{"key": key.String(), "kind": dim.kind})
	log.WithFields(logger.Fields{"on": optimistic.on, "count": optimistic.count}).Debug("optimistic toggle")

	server, err := remote(ctx)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	delete(s.store.loading, loadingKey{key: key, op: dim.op})
	st = s.store.slotLocked(key)

	if err == nil {
		dim.set(st, server)
		s.store.endMutationLocked(key, dim.kind, PhaseReconciled)
		return dim.get(st), false, nil
	}

	current := dim.get(st)
	if current == optimistic {
		dim.set(st, before)
	} else {
		// superseded by a concurrent write; undo only this call's delta
		delta := optimistic.count - before.count
		dim.set(st, toggleState{on: !current.on, count: current.count - delta})
	}
	s.store.endMutationLocked(key, dim.kind, PhaseRolledBack)

	if errors.Is(err, models.ErrSessionExpired) {
		log.WithError(err).Warn("toggle rolled back, session expired")
		return dim.get(st), true, err
	}
	log.WithError(err).Warn("toggle rolled back")
	return dim.get(st), true, nil
}

// RecordShare registers a share. There is no optimistic update; on success
// the share count and shared flag follow the server.
func (s *Service) RecordShare(ctx context.Context, contentID string, contentType models.ContentType) error {
	key := s.store.Register(models.MakeKey(contentID, contentType))
	s.store.SetLoading(key, OpShare, true)
	defer s.store.SetLoading(key, OpShare, false)

	resp, err := s.backend.RecordShare(ctx, key)
	if err != nil {
		s.log.WithField("key", key.String()).WithError(err).Warn("failed to record share")
		return sessionError(err)
	}

	s.store.Update(key, func(st *models.ContentStats) {
		st.Shares = resp.TotalShares
		st.UserInteractions.Shared = true
	})
	return nil
}

// RecordView registers a playback or read. There is no optimistic update;
// on success the view count and viewed flag follow the server.
func (s *Service) RecordView(ctx context.Context, contentID string, contentType models.ContentType, view models.ViewRequest) error {
	key := s.store.Register(models.MakeKey(contentID, contentType))
	s.store.SetLoading(key, OpView, true)
	defer s.store.SetLoading(key, OpView, false)

	resp, err := s.backend.RecordView(ctx, key, view)
	if err != nil {
		s.log.WithField("key", key.String()).WithError(err).Warn("failed to record view")
		return sessionError(err)
	}

	s.store.Update(key, func(st *models.ContentStats) {
		st.Views = resp.TotalViews
		st.UserInteractions.Viewed = true
	})
	return nil
}

func (s *Service) refreshSaved(ctx context.Context) {
	items, err := s.backend.GetSavedContent(ctx)
	if err != nil {
		s.log.WithError(err).Warn("failed to refresh saved content")
		return
	}
	s.store.setSaved(items)
}
