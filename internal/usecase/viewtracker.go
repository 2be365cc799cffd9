package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/platform/logger"
)

// TrackerConfig holds configuration for the view tracker.
type TrackerConfig struct {
	Retention        time.Duration
	WarningThreshold int
}

// ViewTrackerService maintains a per-product rolling-window view counter
// used to raise impulse-purchase warnings. Entries whose last view falls
// outside the retention window are purged lazily on every access; there is
// no background sweep.
type ViewTrackerService struct {
	store     domain.Store
	log       *logger.Logger
	retention time.Duration
	threshold int
	now       func() time.Time
	mu        sync.Mutex
}

// NewViewTrackerService creates a view tracker with the given configuration,
// falling back to a 7-day window and a threshold of 3 views.
func NewViewTrackerService(store domain.Store, log *logger.Logger, config TrackerConfig) *ViewTrackerService {
	retention := config.Retention
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	threshold := config.WarningThreshold
	if threshold <= 0 {
		threshold = 3
	}
	return &ViewTrackerService{
		store:     store,
		log:       log.With("service", "viewtracker"),
		retention: retention,
		threshold: threshold,
		now:       time.Now,
	}
}

// ViewRequest identifies a viewed product and its display payload.
type ViewRequest struct {
	ProductID string                 `json:"productId"`
	Info      domain.ViewProductInfo `json:"info"`
}

// RecordView counts one view of a product, refreshes its window, and reports
// whether the impulse warning should be shown. The updated map is flushed
// before returning; a flush failure is logged and the in-memory result is
// still returned.
func (s *ViewTrackerService) RecordView(ctx context.Context, req ViewRequest) (domain.ViewResult, error) {
	if req.ProductID == "" {
		return domain.ViewResult{}, domain.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tracker, err := s.loadAndPurge(ctx)
	if err != nil {
		return domain.ViewResult{}, err
	}

	now := s.now()
	entry, ok := tracker[req.ProductID]
	if !ok {
		entry = &domain.ViewEntry{
			FirstViewed: now,
			ProductInfo: req.Info,
		}
		tracker[req.ProductID] = entry
	}
	entry.Count++
	entry.LastViewed = now

	if err := saveKey(ctx, s.store, domain.KeyViewTracker, tracker); err != nil {
		// Best-effort persistence: the caller still gets the in-memory count.
		s.log.Warn("failed to persist view tracker", "error", err)
	}

	s.log.Debug("product view recorded", "productId", req.ProductID, "count", entry.Count)

	info := entry.ProductInfo
	return domain.ViewResult{
		ViewCount:   entry.Count,
		ShowWarning: entry.Count >= s.threshold,
		ProductInfo: &info,
	}, nil
}

// ViewCount reports the current windowed view count for a product without
// recording a view.
func (s *ViewTrackerService) ViewCount(ctx context.Context, productID string) (domain.ViewResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracker, err := s.loadAndPurge(ctx)
	if err != nil {
		return domain.ViewResult{}, err
	}

	count := 0
	if entry, ok := tracker[productID]; ok {
		count = entry.Count
	}
	return domain.ViewResult{
		ViewCount:   count,
		ShowWarning: count >= s.threshold,
	}, nil
}

// Clear discards the entire tracker map.
func (s *ViewTrackerService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Remove(ctx, []string{domain.KeyViewTracker}); err != nil {
		return err
	}
	return nil
}

// loadAndPurge loads the persisted map and drops entries whose last view is
// older than the retention window. The map size is bounded by distinct
// products viewed within the window, so a full scan is fine.
func (s *ViewTrackerService) loadAndPurge(ctx context.Context) (map[string]*domain.ViewEntry, error) {
	tracker := make(map[string]*domain.ViewEntry)
	if _, err := loadKey(ctx, s.store, domain.KeyViewTracker, &tracker); err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-s.retention)
	for id, entry := range tracker {
		if entry.LastViewed.Before(cutoff) {
			delete(tracker, id)
		}
	}
	return tracker, nil
}
