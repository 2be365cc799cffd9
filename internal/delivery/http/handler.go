package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/swytch/backend/internal/infrastructure/bus"
	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/platform/logger"
	"github.com/swytch/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analysis *usecase.AnalysisService
	tracker  *usecase.ViewTrackerService
	history  *usecase.HistoryService
	events   *bus.Bus
	log      *logger.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	analysis *usecase.AnalysisService,
	tracker *usecase.ViewTrackerService,
	history *usecase.HistoryService,
	events *bus.Bus,
	log *logger.Logger,
) *Handler {
	return &Handler{
		analysis: analysis,
		tracker:  tracker,
		history:  history,
		events:   events,
		log:      log.With("component", "http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "swytch-backend",
		"version": "1.0.0",
	})
}

// FindAlternatives starts an analysis run for the posted source product.
func (h *Handler) FindAlternatives(c *gin.Context) {
	var product domain.SourceProduct
	if err := c.ShouldBindJSON(&product); err != nil {
		respondError(c, domain.ErrInvalidRequest)
		return
	}

	recommendation, err := h.analysis.FindAlternatives(c.Request.Context(), &product)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"recommendation": recommendation,
	})
}

// RetryAnalysis re-runs the last analysis.
func (h *Handler) RetryAnalysis(c *gin.Context) {
	recommendation, err := h.analysis.Retry(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"recommendation": recommendation,
	})
}

// GetState returns a snapshot of the analysis state machine.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"state":   h.analysis.State(),
	})
}

// GetPreferences returns the active user preferences.
func (h *Handler) GetPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"preferences": h.analysis.Preferences(),
	})
}

// UpdatePreferences merges a partial preferences update.
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var patch domain.PreferencesPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, domain.ErrInvalidRequest)
		return
	}

	merged, err := h.analysis.UpdatePreferences(c.Request.Context(), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"preferences": merged,
	})
}

type trackViewRequest struct {
	ProductID   string                 `json:"productId" binding:"required"`
	ProductInfo domain.ViewProductInfo `json:"productInfo"`
}

// TrackProductView records one view of a product and reports whether the
// impulse warning should be shown.
func (h *Handler) TrackProductView(c *gin.Context) {
	var req trackViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrInvalidRequest)
		return
	}

	result, err := h.tracker.RecordView(c.Request.Context(), usecase.ViewRequest{
		ProductID: req.ProductID,
		Info:      req.ProductInfo,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"viewCount":   result.ViewCount,
		"showWarning": result.ShowWarning,
		"productInfo": result.ProductInfo,
	})
}

// GetProductViewCount returns the current view count for a product without
// recording a view.
func (h *Handler) GetProductViewCount(c *gin.Context) {
	result, err := h.tracker.ViewCount(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"viewCount":   result.ViewCount,
		"showWarning": result.ShowWarning,
	})
}

// ClearViewTracker drops all per-product view counters.
func (h *Handler) ClearViewTracker(c *gin.Context) {
	if err := h.tracker.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetItemsViewed returns the most-recent-first view history.
func (h *Handler) GetItemsViewed(c *gin.Context) {
	items, err := h.history.Items(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"items":   items,
	})
}

// RemoveItemViewed deletes one history entry by ID.
func (h *Handler) RemoveItemViewed(c *gin.Context) {
	if err := h.history.RemoveItem(c.Request.Context(), c.Param("itemId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ClearItemsViewed drops the whole view history.
func (h *Handler) ClearItemsViewed(c *gin.Context) {
	if err := h.history.ClearItems(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetImpactStats returns the aggregate impact counters.
func (h *Handler) GetImpactStats(c *gin.Context) {
	stats, err := h.history.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

// TrackEcoChoice increments the eco-choice counter.
func (h *Handler) TrackEcoChoice(c *gin.Context) {
	stats, err := h.history.TrackEcoChoice(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

// StreamEvents pushes analysis events to the client over SSE. Delivery is at
// most once; clients resynchronize through GetState after reconnecting.
func (h *Handler) StreamEvents(c *gin.Context) {
	ch, cancel := h.events.Subscribe()
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	// Flush headers right away so clients see the stream open before the
	// first event is published.
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Type), event.Payload)
			return true
		case <-clientGone:
			return false
		}
	})
}

// respondError maps the error taxonomy to HTTP statuses and the shared
// error body shape.
func respondError(c *gin.Context, err error) {
	info := domain.NewErrorInfo(err)
	c.JSON(statusFor(err), gin.H{
		"success":   false,
		"error":     info,
		"retryable": domain.Retryable(info.Code),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAnalysisInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoImage), errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrImageAnalysis), errors.Is(err, domain.ErrSearchFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrNoAlternativesFound), errors.Is(err, domain.ErrNothingToRetry):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
