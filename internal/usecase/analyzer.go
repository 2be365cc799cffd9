package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/platform/logger"
)

// Stage labels published as progress events, in stage order.
const (
	stageHistory = "Saving to history..."
	stageVision  = "Analyzing image with AI vision..."
	stageSearch  = "Finding visually similar products..."
	stageRanking = "Ranking sustainable alternatives..."
)

// AnalysisConfig holds configuration for the analysis service.
type AnalysisConfig struct {
	StageTimeout    time.Duration
	MaxAlternatives int
}

// AnalysisService sequences one analysis run at a time: record history,
// build a vision profile, search candidates, filter, rank, and assemble the
// recommendation. Runs are single-flight; a request arriving while a run is
// active is rejected, never queued. All mutable run state lives behind one
// mutex so state snapshots are consistent at any point of the sequence.
type AnalysisService struct {
	vision    domain.VisionService
	search    domain.SearchService
	store     domain.Store
	bus       domain.Publisher
	history   *HistoryService
	assembler *Assembler
	log       *logger.Logger

	stageTimeout    time.Duration
	maxAlternatives int

	mu             sync.Mutex
	analyzing      bool
	loadingMessage string
	current        *domain.SourceProduct
	recommendation *domain.Recommendation
	lastErr        *domain.ErrorInfo
	prefs          domain.UserPreferences
}

// NewAnalysisService wires the analysis pipeline with its injected
// capabilities. Preferences start at defaults; call Restore to rehydrate
// them from storage.
func NewAnalysisService(
	vision domain.VisionService,
	search domain.SearchService,
	store domain.Store,
	bus domain.Publisher,
	history *HistoryService,
	assembler *Assembler,
	log *logger.Logger,
	config AnalysisConfig,
) *AnalysisService {
	stageTimeout := config.StageTimeout
	if stageTimeout <= 0 {
		stageTimeout = 30 * time.Second
	}
	maxAlternatives := config.MaxAlternatives
	if maxAlternatives <= 0 {
		maxAlternatives = 8
	}

	return &AnalysisService{
		vision:          vision,
		search:          search,
		store:           store,
		bus:             bus,
		history:         history,
		assembler:       assembler,
		log:             log.With("service", "analysis"),
		stageTimeout:    stageTimeout,
		maxAlternatives: maxAlternatives,
		prefs:           domain.DefaultPreferences(),
	}
}

// Restore rehydrates persisted preferences after a restart. Missing storage
// state leaves the defaults in place.
func (s *AnalysisService) Restore(ctx context.Context) error {
	var prefs domain.UserPreferences
	ok, err := loadKey(ctx, s.store, domain.KeyPreferences, &prefs)
	if err != nil {
		return err
	}
	if ok {
		s.mu.Lock()
		s.prefs = prefs
		s.mu.Unlock()
	}
	return nil
}

// FindAlternatives runs the full analysis pipeline for a source product.
// Returns ErrAnalysisInProgress when a run is active (without touching the
// recorded product) and ErrNoImage before any stage runs when the product
// has no image reference.
func (s *AnalysisService) FindAlternatives(ctx context.Context, product *domain.SourceProduct) (*domain.Recommendation, error) {
	if product == nil {
		return nil, domain.ErrInvalidRequest
	}

	s.mu.Lock()
	if s.analyzing {
		s.mu.Unlock()
		return nil, domain.ErrAnalysisInProgress
	}
	if product.ImageSource == "" {
		s.mu.Unlock()
		return nil, domain.ErrNoImage
	}
	s.analyzing = true
	s.current = product
	s.lastErr = nil
	s.recommendation = nil
	prefs := s.prefs
	s.mu.Unlock()

	s.bus.Publish(domain.Event{Type: domain.EventAnalysisStarted, Payload: product})
	s.log.Info("analysis started", "productId", product.ProductID, "platform", product.Platform)

	recommendation, err := s.run(ctx, product, prefs)

	s.mu.Lock()
	s.analyzing = false
	s.loadingMessage = ""
	if err != nil {
		s.lastErr = domain.NewErrorInfo(err)
		errInfo := *s.lastErr
		s.mu.Unlock()
		s.bus.Publish(domain.Event{Type: domain.EventAnalysisError, Payload: errInfo})
		s.log.Warn("analysis failed", "code", errInfo.Code, "error", err)
		return nil, err
	}
	s.recommendation = recommendation
	s.mu.Unlock()

	s.bus.Publish(domain.Event{Type: domain.EventAnalysisComplete, Payload: recommendation})
	s.log.Info("analysis complete",
		"alternatives", len(recommendation.Alternatives),
		"potentialSavings", recommendation.PotentialSavings)
	return recommendation, nil
}

// Retry re-runs the analysis for the last recorded source product.
func (s *AnalysisService) Retry(ctx context.Context) (*domain.Recommendation, error) {
	s.mu.Lock()
	if s.analyzing {
		s.mu.Unlock()
		return nil, domain.ErrAnalysisInProgress
	}
	if s.current == nil {
		s.mu.Unlock()
		return nil, domain.ErrNothingToRetry
	}
	product := *s.current
	s.mu.Unlock()

	return s.FindAlternatives(ctx, &product)
}

// State returns a consistent snapshot of the run state. Snapshots carry no
// credentials.
func (s *AnalysisService) State() domain.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := domain.RunState{
		IsAnalyzing:    s.analyzing,
		LoadingMessage: s.loadingMessage,
		Preferences:    s.prefs,
	}
	if s.current != nil {
		product := *s.current
		state.CurrentProduct = &product
	}
	if s.recommendation != nil {
		recommendation := *s.recommendation
		state.Recommendation = &recommendation
	}
	if s.lastErr != nil {
		errInfo := *s.lastErr
		state.Error = &errInfo
	}
	return state
}

// Preferences returns the active user preferences.
func (s *AnalysisService) Preferences() domain.UserPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// UpdatePreferences merges a partial update into the active preferences and
// flushes them before responding.
func (s *AnalysisService) UpdatePreferences(ctx context.Context, patch domain.PreferencesPatch) (domain.UserPreferences, error) {
	if patch.Priority != nil && !patch.Priority.Valid() {
		return domain.UserPreferences{}, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidRequest, *patch.Priority)
	}
	if patch.MaxBudget != nil && *patch.MaxBudget < 0 {
		return domain.UserPreferences{}, fmt.Errorf("%w: negative budget", domain.ErrInvalidRequest)
	}
	if patch.MinRating != nil && (*patch.MinRating < 0 || *patch.MinRating > 5) {
		return domain.UserPreferences{}, fmt.Errorf("%w: rating must be within [0,5]", domain.ErrInvalidRequest)
	}

	s.mu.Lock()
	merged := patch.Apply(s.prefs)
	s.prefs = merged
	s.mu.Unlock()

	if err := saveKey(ctx, s.store, domain.KeyPreferences, merged); err != nil {
		return domain.UserPreferences{}, err
	}
	return merged, nil
}

// run executes the stage sequence for one analysis. Each stage is preceded
// by a progress event; external calls are bounded by the stage timeout.
func (s *AnalysisService) run(ctx context.Context, product *domain.SourceProduct, prefs domain.UserPreferences) (*domain.Recommendation, error) {
	s.progress(stageHistory)
	if _, err := s.history.AddViewedItem(ctx, product); err != nil {
		// View history is best effort; the run proceeds without it.
		s.log.Warn("failed to record view history", "error", err)
	}

	s.progress(stageVision)
	visionCtx, cancelVision := context.WithTimeout(ctx, s.stageTimeout)
	profile, err := s.vision.AnalyzeImage(visionCtx, product.ImageSource)
	cancelVision()
	if err != nil {
		if errors.Is(err, domain.ErrImageAnalysis) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrImageAnalysis, err)
	}

	s.progress(stageSearch)
	searchCtx, cancelSearch := context.WithTimeout(ctx, s.stageTimeout)
	candidates, err := s.search.FindSimilar(searchCtx, profile, product)
	cancelSearch()
	if err != nil {
		if errors.Is(err, domain.ErrSearchFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchFailed, err)
	}

	filtered := FilterCandidates(candidates, prefs, product)
	if len(filtered) == 0 {
		return nil, domain.ErrNoAlternativesFound
	}

	s.progress(stageRanking)
	ranked := RankAlternatives(filtered, prefs)
	if len(ranked) > s.maxAlternatives {
		ranked = ranked[:s.maxAlternatives]
	}
	recommendation := s.assembler.Build(product, ranked, profile)

	// Aggregate counters must land before the result is returned; a failure
	// here fails the run so persisted totals match returned recommendations.
	if err := s.history.RecordSearch(ctx, recommendation.TotalCO2Savings, recommendation.PotentialSavings); err != nil {
		return nil, err
	}

	return recommendation, nil
}

func (s *AnalysisService) progress(message string) {
	s.mu.Lock()
	s.loadingMessage = message
	s.mu.Unlock()
	s.bus.Publish(domain.Event{
		Type:    domain.EventAnalysisProgress,
		Payload: domain.ProgressPayload{Message: message},
	})
}
