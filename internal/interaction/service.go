// Package interaction is the client-side interaction cache: content stats with
// optimistic like/save mutations, server reconciliation, hydration and comments.
package interaction

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"mediahub/pkg/logger"
	"mediahub/pkg/models"
)

// DefaultGuardWindow is how long after a mutation server data may not
// override the locally toggled like/save state
const DefaultGuardWindow = 3 * time.Second

// Backend is the remote interaction API
type Backend interface {
	ToggleLike(ctx context.Context, key models.ContentKey) (*models.LikeResponse, error)
	ToggleSave(ctx context.Context, key models.ContentKey) (*models.SaveResponse, error)
	RecordShare(ctx context.Context, key models.ContentKey) (*models.ShareResponse, error)
	RecordView(ctx context.Context, key models.ContentKey, view models.ViewRequest) (*models.ViewResponse, error)
	GetContentStats(ctx context.Context, key models.ContentKey) (*models.StatsPayload, error)
	GetBatchContentStats(ctx context.Context, contentType models.ContentType, ids []string) (map[string]models.StatsPayload, error)
	GetSavedContent(ctx context.Context) ([]models.SavedItem, error)
	ListComments(ctx context.Context, contentID string, page, limit int) (*models.CommentPage, error)
	CreateComment(ctx context.Context, contentID, text, parentID string) (*models.Comment, error)
	ToggleCommentLike(ctx context.Context, commentID string) (*models.CommentLikeResponse, error)
}

// Service runs interaction operations against a Store and a Backend
type Service struct {
	store           *Store
	backend         Backend
	log             *logrus.Entry
	now             func() time.Time
	guardWindow     time.Duration
	commentPageSize int
	fallbackWorkers int
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithGuardWindow sets the recency guard window
func WithGuardWindow(d time.Duration) Option {
	return func(s *Service) { s.guardWindow = d }
}

// WithLogger sets the service logger
func WithLogger(l *logrus.Entry) Option {
	return func(s *Service) { s.log = l }
}

// WithCommentPageSize sets how many comments a page load asks for
func WithCommentPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.commentPageSize = n
		}
	}
}

// WithFallbackWorkers bounds concurrent single-item loads when a batch falls back
func WithFallbackWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fallbackWorkers = n
		}
	}
}

// NewService creates a Service over store and backend
func NewService(store *Store, backend Backend, opts ...Option) *Service {
	s := &Service{
		store:           store,
		backend:         backend,
		log:             logger.Component("interaction"),
		now:             time.Now,
		guardWindow:     DefaultGuardWindow,
		commentPageSize: models.DefaultCommentPageSize,
		fallbackWorkers: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying cache
func (s *Service) Store() *Store {
	return s.store
}

// Stats returns the cached stats for a bare id
func (s *Service) Stats(contentID string) (models.ContentStats, bool) {
	return s.store.Lookup(contentID)
}

// IsLoading reports whether op is running for the item
func (s *Service) IsLoading(contentID string, op Operation) bool {
	return s.store.IsLoading(s.store.Resolve(contentID), op)
}

// MutationPhase reports the lifecycle phase of the item's like or save state
func (s *Service) MutationPhase(contentID string, kind MutationKind) Phase {
	key := s.store.Resolve(contentID)
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return s.store.phaseLocked(key, kind, s.now(), s.guardWindow)
}

// Keys lists every cached key
func (s *Service) Keys() []models.ContentKey {
	return s.store.Keys()
}

// SavedContent returns the saved-content list fetched after the last save toggle
func (s *Service) SavedContent() []models.SavedItem {
	return s.store.SavedContent()
}

// Clear resets the whole cache
func (s *Service) Clear() {
	s.store.Clear()
}

// sessionError passes through only the error callers must act on
func sessionError(err error) error {
	if errors.Is(err, models.ErrSessionExpired) {
		return err
	}
	return nil
}
