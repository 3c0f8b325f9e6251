package interaction

import (
	"sort"
	"sync"

	"mediahub/pkg/models"
)

// Operation names a loading flag
type Operation string

const (
	OpStats    Operation = "stats"
	OpLike     Operation = "like"
	OpSave     Operation = "save"
	OpShare    Operation = "share"
	OpView     Operation = "view"
	OpComments Operation = "comments"
)

type loadingKey struct {
	key models.ContentKey
	op  Operation
}

// Store is the shared in-memory interaction cache. It holds one stats slot
// per canonical key, the id alias map, loading flags, mutation markers and
// comment threads. All access goes through its lock; network calls never
// happen while it is held.
type Store struct {
	mu        sync.Mutex
	stats     map[models.ContentKey]*models.ContentStats
	aliases   map[string]models.ContentKey
	loading   map[loadingKey]bool
	mutations map[mutationKey]*mutationState
	comments  map[string]*commentThread
	saved     []models.SavedItem
}

// NewStore creates an empty cache
func NewStore() *Store {
	return &Store{
		stats:     make(map[models.ContentKey]*models.ContentStats),
		aliases:   make(map[string]models.ContentKey),
		loading:   make(map[loadingKey]bool),
		mutations: make(map[mutationKey]*mutationState),
		comments:  make(map[string]*commentThread),
	}
}

// Resolve maps a bare content id to its canonical key. Ids never registered
// resolve to the degenerate key.
func (s *Store) Resolve(contentID string) models.ContentKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(contentID)
}

func (s *Store) resolveLocked(contentID string) models.ContentKey {
	if key, ok := s.aliases[contentID]; ok {
		return key
	}
	return models.ContentKey{ID: contentID}
}

// Register records id -> key so later bare-id lookups land on the same slot.
// A degenerate key resolves through the alias map instead. Stats cached under
// the degenerate key move to the canonical slot.
func (s *Store) Register(key models.ContentKey) models.ContentKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerLocked(key)
}

func (s *Store) registerLocked(key models.ContentKey) models.ContentKey {
	if !key.IsCanonical() {
		return s.resolveLocked(key.ID)
	}

	s.aliases[key.ID] = key

	degenerate := models.ContentKey{ID: key.ID}
	if st, ok := s.stats[degenerate]; ok {
		if _, exists := s.stats[key]; !exists {
			s.stats[key] = st
		}
		delete(s.stats, degenerate)
	}
	return key
}

// Get returns a copy of the stats cached under key
func (s *Store) Get(key models.ContentKey) (models.ContentStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[key]
	if !ok {
		return models.ContentStats{}, false
	}
	return *st, true
}

// Lookup resolves a bare id and returns its stats
func (s *Store) Lookup(contentID string) (models.ContentStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[s.resolveLocked(contentID)]
	if !ok {
		return models.ContentStats{}, false
	}
	return *st, true
}

// Put replaces the slot for key
func (s *Store) Put(key models.ContentKey, stats models.ContentStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clampStats(&stats)
	s.stats[key] = &stats
}

// Update applies fn to the slot for key, creating a zero record first when absent
func (s *Store) Update(key models.ContentKey, fn func(*models.ContentStats)) models.ContentStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.slotLocked(key)
	fn(st)
	clampStats(st)
	return *st
}

func (s *Store) slotLocked(key models.ContentKey) *models.ContentStats {
	st, ok := s.stats[key]
	if !ok {
		fresh := models.NewContentStats(key.ID)
		st = &fresh
		s.stats[key] = st
	}
	return st
}

// Keys returns every key with cached stats, in string order
func (s *Store) Keys() []models.ContentKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]models.ContentKey, 0, len(s.stats))
	for k := range s.stats {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// SetLoading sets or clears the loading flag for (key, op)
func (s *Store) SetLoading(key models.ContentKey, op Operation, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lk := loadingKey{key: key, op: op}
	if on {
		s.loading[lk] = true
		return
	}
	delete(s.loading, lk)
}

// IsLoading reports the loading flag for (key, op)
func (s *Store) IsLoading(key models.ContentKey, op Operation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading[loadingKey{key: key, op: op}]
}

// SavedContent returns the last fetched saved-content list
func (s *Store) SavedContent() []models.SavedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SavedItem, len(s.saved))
	copy(out, s.saved)
	return out
}

func (s *Store) setSaved(items []models.SavedItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = items
}

// Clear drops everything. Used on logout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = make(map[models.ContentKey]*models.ContentStats)
	s.aliases = make(map[string]models.ContentKey)
	s.loading = make(map[loadingKey]bool)
	s.mutations = make(map[mutationKey]*mutationState)
	s.comments = make(map[string]*commentThread)
	s.saved = nil
}

func clampStats(st *models.ContentStats) {
	st.Likes = nonNegative(st.Likes)
	st.Saves = nonNegative(st.Saves)
	st.Shares = nonNegative(st.Shares)
	st.Views = nonNegative(st.Views)
	st.Comments = nonNegative(st.Comments)
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
