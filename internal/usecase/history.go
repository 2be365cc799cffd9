package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/platform/logger"
)

// maxViewedItems caps the persisted view history, most recent first.
const maxViewedItems = 50

// HistoryService owns the view-history list and the aggregate impact
// counters. Flushes for history and eco-choice tracking are best effort;
// search completion counters are flushed strictly because downstream totals
// would desync otherwise.
type HistoryService struct {
	store domain.Store
	bus   domain.Publisher
	log   *logger.Logger
	now   func() time.Time
	mu    sync.Mutex
}

// NewHistoryService creates the history/impact service.
func NewHistoryService(store domain.Store, bus domain.Publisher, log *logger.Logger) *HistoryService {
	return &HistoryService{
		store: store,
		bus:   bus,
		log:   log.With("service", "history"),
		now:   time.Now,
	}
}

// AddViewedItem prepends a product to the view history, trims it to the cap,
// persists it, and broadcasts an item-viewed event.
func (h *HistoryService) AddViewedItem(ctx context.Context, product *domain.SourceProduct) (domain.ViewedItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	items, err := h.loadItems(ctx)
	if err != nil {
		return domain.ViewedItem{}, err
	}

	name := product.Name
	if name == "" {
		name = "Unknown Product"
	}
	item := domain.ViewedItem{
		ID:         "item_" + uuid.NewString(),
		Name:       name,
		ImageURL:   product.ImageSource,
		Price:      product.Price,
		Platform:   product.Platform,
		ProductURL: product.PageURL,
		ViewedAt:   h.now(),
	}

	items = append([]domain.ViewedItem{item}, items...)
	if len(items) > maxViewedItems {
		items = items[:maxViewedItems]
	}

	if err := saveKey(ctx, h.store, domain.KeyItemsViewed, items); err != nil {
		return domain.ViewedItem{}, err
	}

	h.bus.Publish(domain.Event{Type: domain.EventItemViewedAdded, Payload: item})
	return item, nil
}

// Items returns the view history, most recent first.
func (h *HistoryService) Items(ctx context.Context) ([]domain.ViewedItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadItems(ctx)
}

// RemoveItem deletes one history entry by ID.
func (h *HistoryService) RemoveItem(ctx context.Context, itemID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	items, err := h.loadItems(ctx)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, item := range items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	return saveKey(ctx, h.store, domain.KeyItemsViewed, kept)
}

// ClearItems empties the view history.
func (h *HistoryService) ClearItems(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return saveKey(ctx, h.store, domain.KeyItemsViewed, []domain.ViewedItem{})
}

// Stats returns the aggregate impact counters.
func (h *HistoryService) Stats(ctx context.Context) (domain.ImpactStats, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadStats(ctx)
}

// TrackEcoChoice increments the eco-choice counter. The flush is best
// effort: a storage failure is logged and the updated counters are still
// returned.
func (h *HistoryService) TrackEcoChoice(ctx context.Context) (domain.ImpactStats, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats, err := h.loadStats(ctx)
	if err != nil {
		return domain.ImpactStats{}, err
	}
	stats.EcoChoices++
	if err := saveKey(ctx, h.store, domain.KeyImpactStats, stats); err != nil {
		h.log.Warn("failed to persist impact stats", "error", err)
	}
	return stats, nil
}

// RecordSearch bumps the search counters for a completed run. Unlike the
// other mutations this flush is strict: a failure aborts the run so the
// persisted totals never drift from returned recommendations.
func (h *HistoryService) RecordSearch(ctx context.Context, co2Savings, moneySaved float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats, err := h.loadStats(ctx)
	if err != nil {
		return err
	}
	stats.TotalSearches++
	stats.TotalCO2 += co2Savings
	stats.TotalSaved += moneySaved
	return saveKey(ctx, h.store, domain.KeyImpactStats, stats)
}

func (h *HistoryService) loadItems(ctx context.Context) ([]domain.ViewedItem, error) {
	var items []domain.ViewedItem
	if _, err := loadKey(ctx, h.store, domain.KeyItemsViewed, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (h *HistoryService) loadStats(ctx context.Context) (domain.ImpactStats, error) {
	var stats domain.ImpactStats
	if _, err := loadKey(ctx, h.store, domain.KeyImpactStats, &stats); err != nil {
		return domain.ImpactStats{}, err
	}
	return stats, nil
}
