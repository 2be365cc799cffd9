package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/platform/logger"
)

type fakeVision struct {
	fn func(ctx context.Context, imageURL string) (*domain.VisionProfile, error)
}

func (f *fakeVision) AnalyzeImage(ctx context.Context, imageURL string) (*domain.VisionProfile, error) {
	return f.fn(ctx, imageURL)
}

type fakeSearch struct {
	fn func(ctx context.Context, profile *domain.VisionProfile, source *domain.SourceProduct) ([]domain.AlternativeProduct, error)
}

func (f *fakeSearch) FindSimilar(ctx context.Context, profile *domain.VisionProfile, source *domain.SourceProduct) ([]domain.AlternativeProduct, error) {
	return f.fn(ctx, profile, source)
}

func okVision() *fakeVision {
	return &fakeVision{fn: func(ctx context.Context, imageURL string) (*domain.VisionProfile, error) {
		return testProfile(), nil
	}}
}

func candidateSet() []domain.AlternativeProduct {
	return []domain.AlternativeProduct{
		{ID: "w1", Name: "Sustainable Sneakers", Price: 75, Platform: "walmart", CO2Savings: 3.0, IsEcoFriendly: true, Rating: 4.5, VisualSimilarity: 0.9},
		{ID: "t1", Name: "Budget Sneakers", Price: 35, Platform: "target", CO2Savings: 0.5, Rating: 4.1, VisualSimilarity: 0.8},
		{ID: "e1", Name: "Refurbished Sneakers", Price: 50, Platform: "ebay", CO2Savings: 2.0, IsEcoFriendly: true, Rating: 4.3, VisualSimilarity: 0.85},
	}
}

func okSearch() *fakeSearch {
	return &fakeSearch{fn: func(ctx context.Context, profile *domain.VisionProfile, source *domain.SourceProduct) ([]domain.AlternativeProduct, error) {
		return candidateSet(), nil
	}}
}

type analysisFixture struct {
	service *AnalysisService
	store   *fakeStore
	bus     *capturingBus
	history *HistoryService
}

func newAnalysisFixture(vision domain.VisionService, search domain.SearchService, config AnalysisConfig) *analysisFixture {
	store := newFakeStore()
	bus := &capturingBus{}
	log := logger.NewNop()
	history := NewHistoryService(store, bus, log)
	assembler := NewAssembler(rand.New(rand.NewSource(7)))
	service := NewAnalysisService(vision, search, store, bus, history, assembler, log, config)
	return &analysisFixture{service: service, store: store, bus: bus, history: history}
}

func sourceSneaker() *domain.SourceProduct {
	return &domain.SourceProduct{
		ImageSource: "https://images.example.com/sneaker.jpg",
		Name:        "Runner Pro",
		Price:       100,
		Platform:    "amazon",
		ProductID:   "B0TEST",
	}
}

func TestFindAlternatives(t *testing.T) {
	ctx := context.Background()

	t.Run("successful run produces a ranked recommendation", func(t *testing.T) {
		f := newAnalysisFixture(okVision(), okSearch(), AnalysisConfig{})
		rec, err := f.service.FindAlternatives(ctx, sourceSneaker())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rec.Alternatives) != 3 {
			t.Fatalf("expected 3 alternatives, got %d", len(rec.Alternatives))
		}
		for _, alt := range rec.Alternatives {
			if alt.Platform == "amazon" {
				t.Errorf("source platform %q leaked into results", alt.Platform)
			}
		}
		if rec.PotentialSavings < 0 {
			t.Errorf("negative savings %.2f", rec.PotentialSavings)
		}
	})

	t.Run("event sequence is started, per-stage progress, complete", func(t *testing.T) {
		f := newAnalysisFixture(okVision(), okSearch(), AnalysisConfig{})
		if _, err := f.service.FindAlternatives(ctx, sourceSneaker()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		types := f.bus.typesSeen()
		want := []domain.EventType{
			domain.EventAnalysisStarted,
			domain.EventAnalysisProgress, // history
			domain.EventItemViewedAdded,
			domain.EventAnalysisProgress, // vision
			domain.EventAnalysisProgress, // search
			domain.EventAnalysisProgress, // ranking
			domain.EventAnalysisComplete,
		}
		if len(types) != len(want) {
			t.Fatalf("expected %d events, got %v", len(want), types)
		}
		for i, wt := range want {
			if types[i] != wt {
				t.Errorf("event %d: expected %s, got %s", i, wt, types[i])
			}
		}
	})

	t.Run("completed run returns to idle with the result retained", func(t *testing.T) {
		f := newAnalysisFixture(okVision(), okSearch(), AnalysisConfig{})
		if _, err := f.service.FindAlternatives(ctx, sourceSneaker()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		state := f.service.State()
		if state.IsAnalyzing {
			t.Error("still analyzing after completion")
		}
		if state.Recommendation == nil {
			t.Error("recommendation missing from state")
		}
		if state.Error != nil {
			t.Errorf("unexpected error in state: %+v", state.Error)
		}
		if state.CurrentProduct == nil || state.CurrentProduct.ProductID != "B0TEST" {
			t.Error("current product not recorded")
		}
	})

	t.Run("impact counters persist on completion", func(t *testing.T) {
		f := newAnalysisFixture(okVision(), okSearch(), AnalysisConfig{})
		rec, err := f.service.FindAlternatives(ctx, sourceSneaker())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		stats, err := f.history.Stats(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats.TotalSearches != 1 {
			t.Errorf("expected 1 search, got %d", stats.TotalSearches)
		}
		if stats.TotalCO2 != rec.TotalCO2Savings {
			t.Errorf("CO2 counter %v != recommendation %v", stats.TotalCO2, rec.TotalCO2Savings)
		}
	})

	t.Run("missing image fails fast without running stages", func(t *testing.T) {
		visionCalled := false
		vision := &fakeVision{fn: func(ctx context.Context, imageURL string) (*domain.VisionProfile, error) {
			visionCalled = true
			return testProfile(), nil
		}}
		f := newAnalysisFixture(vision, okSearch(), AnalysisConfig{})

		_, err := f.service.FindAlternatives(ctx, &domain.SourceProduct{ProductID: "p"})
		if !errors.Is(err, domain.ErrNoImage) {
			t.Fatalf("expected no-image error, got %v", err)
		}
		if visionCalled {
			t.Error("vision stage ran despite missing image")
		}
		if len(f.bus.all()) != 0 {
			t.Errorf("events published for a rejected request: %v", f.bus.typesSeen())
		}
	})

	t.Run("concurrent request is rejected busy and does not replace the product", func(t *testing.T) {
		release := make(chan struct{})
		entered := make(chan struct{})
		vision := &fakeVision{fn: func(ctx context.Context, imageURL string) (*domain.VisionProfile, error) {
			close(entered)
			<-release
			return testProfile(), nil
		}}
		f := newAnalysisFixture(vision, okSearch(), AnalysisConfig{})

		done := make(chan error, 1)
		go func() {
			_, err := f.service.FindAlternatives(ctx, sourceSneaker())
			done <- err
		}()
		<-entered

		intruder := &domain.SourceProduct{ImageSource: "x.jpg", ProductID: "intruder"}
		_, err := f.service.FindAlternatives(ctx, intruder)
		if !errors.Is(err, domain.ErrAnalysisInProgress) {
			t.Fatalf("expected busy error, got %v", err)
		}
		if got := f.service.State().CurrentProduct.ProductID; got != "B0TEST" {
			t.Errorf("busy request replaced current product with %q", got)
		}

		close(release)
		if err := <-done; err != nil {
			t.Fatalf("first run failed: %v", err)
		}
	})

	t.Run("vision failure surfaces as image analysis error", func(t *testing.T) {
		vision := &fakeVision{fn: func(ctx context.Context, imageURL string) (*domain.VisionProfile, error) {
			return nil, errors.New("model unavailable")
		}}
		f := newAnalysisFixture(vision, okSearch(), AnalysisConfig{})

		_, err := f.service.FindAlternatives(ctx, sourceSneaker())
		if !errors.Is(err, domain.ErrImageAnalysis) {
			t.Fatalf("expected image analysis error, got %v", err)
		}

		state := f.service.State()
		if state.IsAnalyzing {
			t.Error("still analyzing after failure")
		}
		if state.Error == nil || state.Error.Code != domain.CodeImageAnalysis {
			t.Errorf("unexpected state error: %+v", state.Error)
		}

		types := f.bus.typesSeen()
		if types[len(types)-1] != domain.EventAnalysisError {
			t.Errorf("terminal event is %s, want %s", types[len(types)-1], domain.EventAnalysisError)
		}
	})

	t.Run("search failure surfaces as search error", func(t *testing.T) {
		search := &fakeSearch{fn: func(ctx context.Context, profile *domain.VisionProfile, source *domain.SourceProduct) ([]domain.AlternativeProduct, error) {
			return nil, errors.New("index offline")
		}}
		f := newAnalysisFixture(okVision(), search, AnalysisConfig{})

		_, err := f.service.FindAlternatives(ctx, sourceSneaker())
		if !errors.Is(err, domain.ErrSearchFailed) {
			t.Fatalf("expected search error, got %v", err)
		}
	})

	t.Run("empty filtered set fails with no alternatives", func(t *testing.T) {
		search := &fakeSearch{fn: func(ctx context.Context, profile *domain.VisionProfile, source *domain.SourceProduct) ([]domain.AlternativeProduct, error) {
			// All candidates share the source platform, so filtering empties the set.
			return []domain.AlternativeProduct{
				{ID: "a", Platform: "amazon", Price: 10},
				{ID: "b", Platform: "Amazon", Price: 20},
			}, nil
		}}
		f := newAnalysisFixture(okVision(), search, AnalysisConfig{})

		_, err := f.service.FindAlternatives(ctx, sourceSneaker())
		if !errors.Is(err, domain.ErrNoAlternativesFound) {
			t.Fatalf("expected no-alternatives error, got %v", err)
		}
	})

	t.Run("failed run does not block the next one", func(t *testing.T) {
		failNext := true
		vision := &fakeVision{fn: func(ctx context.Context, imageURL string) (*domain.VisionProfile, error) {
			if failNext {
				failNext = false
				return nil, errors.New("cold start")
			}
			return testProfile(), nil
		}}
		f := newAnalysisFixture(vision, okSearch(), AnalysisConfig{})

		if _, err := f.service.FindAlternatives(ctx, sourceSneaker()); err == nil {
			t.Fatal("expected first run to fail")
		}
		if _, err := f.service.FindAlternatives(ctx, sourceSneaker()); err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		if state := f.service.State(); state.Error != nil {
			t.Errorf("stale error in state after successful run: %+v", state.Error)
		}
	})

	t.Run("alternatives are capped after ranking", func(t *testing.T) {
		search := &fakeSearch{fn: func(ctx context.Context, profile *domain.VisionProfile, source *domain.SourceProduct) ([]domain.AlternativeProduct, error) {
			var alts []domain.AlternativeProduct
			for i := 0; i < 6; i++ {
				alts = append(alts, domain.AlternativeProduct{
					ID:       fmt.Sprintf("alt-%d", i),
					Price:    float64(10 * (6 - i)),
					Platform: "target",
				})
			}
			return alts, nil
		}}
		f := newAnalysisFixture(okVision(), search, AnalysisConfig{MaxAlternatives: 2})
		patch := domain.PreferencesPatch{Priority: priorityPtr(domain.PrioritySaveMoney)}
		if _, err := f.service.UpdatePreferences(ctx, patch); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec, err := f.service.FindAlternatives(ctx, sourceSneaker())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rec.Alternatives) != 2 {
			t.Fatalf("expected 2 alternatives, got %d", len(rec.Alternatives))
		}
		// Cap keeps the best-ranked entries, here the two cheapest.
		if rec.Alternatives[0].Price != 10 || rec.Alternatives[1].Price != 20 {
			t.Errorf("cap dropped the wrong entries: %+v", rec.Alternatives)
		}
	})

	t.Run("storage failure at completion fails the run", func(t *testing.T) {
		f := newAnalysisFixture(okVision(), okSearch(), AnalysisConfig{})
		f.store.setErr = fmt.Errorf("%w: write refused", domain.ErrStorage)

		_, err := f.service.FindAlternatives(ctx, sourceSneaker())
		if !errors.Is(err, domain.ErrStorage) {
			t.Fatalf("expected storage error, got %v", err)
		}
		if state := f.service.State(); state.Error == nil || state.Error.Code != domain.CodeStorage {
			t.Errorf("unexpected state error: %+v", f.service.State().Error)
		}
	})
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retry without history is rejected and leaves state untouched", func(t *testing.T) {
		f := newAnalysisFixture(okVision(), okSearch(), AnalysisConfig{})
		before := f.service.State()

		_, err := f.service.Retry(ctx)
		if !errors.Is(err, domain.ErrNothingToRetry) {
			t.Fatalf("expected nothing-to-retry error, got %v", err)
		}

		after := f.service.State()
		if after.IsAnalyzing != before.IsAnalyzing || after.CurrentProduct != nil || after.Error != nil {
			t.Errorf("state mutated by rejected retry: %+v", after)
		}
	})

	t.Run("retry re-runs the last recorded product", func(t *testing.T) {
		var lastImage string
		vision := &fakeVision{fn: func(ctx context.Context, imageURL string) (*domain.VisionProfile, error) {
			lastImage = imageURL
			return testProfile(), nil
		}}
		f := newAnalysisFixture(vision, okSearch(), AnalysisConfig{})

		if _, err := f.service.FindAlternatives(ctx, sourceSneaker()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lastImage = ""
		if _, err := f.service.Retry(ctx); err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		if lastImage != sourceSneaker().ImageSource {
			t.Errorf("retry analyzed %q instead of the recorded product", lastImage)
		}
	})

	t.Run("retry works after a failed run", func(t *testing.T) {
		failNext := true
		vision := &fakeVision{fn: func(ctx context.Context, imageURL string) (*domain.VisionProfile, error) {
			if failNext {
				failNext = false
				return nil, errors.New("timeout")
			}
			return testProfile(), nil
		}}
		f := newAnalysisFixture(vision, okSearch(), AnalysisConfig{})

		if _, err := f.service.FindAlternatives(ctx, sourceSneaker()); err == nil {
			t.Fatal("expected first run to fail")
		}
		rec, err := f.service.Retry(ctx)
		if err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		if len(rec.Alternatives) == 0 {
			t.Error("retry produced no alternatives")
		}
	})
}

func TestUpdatePreferences(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update leaves other fields intact", func(t *testing.T) {
		f := newAnalysisFixture(okVision(), okSearch(), AnalysisConfig{})
		budget := 75.0
		merged, err := f.service.UpdatePreferences(ctx, domain.PreferencesPatch{MaxBudget: &budget})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if merged.MaxBudget != 75 {
			t.Errorf("budget not applied: %+v", merged)
		}
		if merged.Priority != domain.PriorityEcoFriendly {
			t.Errorf("default priority lost: %q", merged.Priority)
		}
	})

	t.Run("update is flushed before responding", func(t *testing.T) {
		f := newAnalysisFixture(okVision(), okSearch(), AnalysisConfig{})
		patch := domain.PreferencesPatch{Priority: priorityPtr(domain.PrioritySaveMoney)}
		if _, err := f.service.UpdatePreferences(ctx, patch); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var persisted domain.UserPreferences
		if !f.store.decode(domain.KeyPreferences, &persisted) {
			t.Fatal("preferences not persisted")
		}
		if persisted.Priority != domain.PrioritySaveMoney {
			t.Errorf("persisted priority %q", persisted.Priority)
		}
	})

	t.Run("unknown priority rejected", func(t *testing.T) {
		f := newAnalysisFixture(okVision(), okSearch(), AnalysisConfig{})
		patch := domain.PreferencesPatch{Priority: priorityPtr("cheapest_and_best")}
		if _, err := f.service.UpdatePreferences(ctx, patch); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Fatalf("expected invalid request, got %v", err)
		}
	})

	t.Run("negative budget rejected", func(t *testing.T) {
		f := newAnalysisFixture(okVision(), okSearch(), AnalysisConfig{})
		budget := -5.0
		if _, err := f.service.UpdatePreferences(ctx, domain.PreferencesPatch{MaxBudget: &budget}); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Fatalf("expected invalid request, got %v", err)
		}
	})

	t.Run("active preferences drive the next run", func(t *testing.T) {
		f := newAnalysisFixture(okVision(), okSearch(), AnalysisConfig{})
		patch := domain.PreferencesPatch{Priority: priorityPtr(domain.PrioritySaveMoney)}
		if _, err := f.service.UpdatePreferences(ctx, patch); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec, err := f.service.FindAlternatives(ctx, sourceSneaker())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := 1; i < len(rec.Alternatives); i++ {
			if rec.Alternatives[i-1].Price > rec.Alternatives[i].Price {
				t.Errorf("position %d not ordered by price", i)
			}
		}
	})
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("rehydrates persisted preferences", func(t *testing.T) {
		store := newFakeStore()
		saved := domain.UserPreferences{Priority: domain.PriorityQuality, MaxBudget: 200}
		if err := store.Set(ctx, map[string]any{domain.KeyPreferences: saved}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		bus := &capturingBus{}
		log := logger.NewNop()
		service := NewAnalysisService(okVision(), okSearch(), store, bus,
			NewHistoryService(store, bus, log), NewAssembler(rand.New(rand.NewSource(1))), log, AnalysisConfig{})

		if err := service.Restore(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := service.Preferences(); got.Priority != domain.PriorityQuality || got.MaxBudget != 200 {
			t.Errorf("preferences not restored: %+v", got)
		}
	})

	t.Run("missing state keeps defaults", func(t *testing.T) {
		f := newAnalysisFixture(okVision(), okSearch(), AnalysisConfig{})
		if err := f.service.Restore(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.service.Preferences(); got != domain.DefaultPreferences() {
			t.Errorf("defaults lost: %+v", got)
		}
	})
}

func TestStateSnapshot(t *testing.T) {
	t.Run("snapshot copies are independent", func(t *testing.T) {
		f := newAnalysisFixture(okVision(), okSearch(), AnalysisConfig{})
		if _, err := f.service.FindAlternatives(context.Background(), sourceSneaker()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		snapshot := f.service.State()
		snapshot.CurrentProduct.ProductID = "tampered"
		if f.service.State().CurrentProduct.ProductID != "B0TEST" {
			t.Error("mutating a snapshot leaked into service state")
		}
	})
}

func priorityPtr(p domain.Priority) *domain.Priority {
	return &p
}
