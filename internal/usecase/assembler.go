package usecase

import (
	"math/rand"
	"sync"
	"time"

	"github.com/swytch/backend/internal/domain"
)

// analysisMethod labels the pipeline variant that produced a recommendation.
const analysisMethod = "visual_similarity"

// dissuasionMessages are reflective prompts shown to slow down impulse
// purchases; one is drawn uniformly at random per recommendation.
var dissuasionMessages = []string{
	"🌍 Before buying, ask yourself: Do I really need this, or do I just want it?",
	"🌱 Every purchase has an environmental impact. Is this one worth it?",
	"💭 Sleep on it! 70% of impulse purchases are regretted within a week.",
	"♻️ Could you borrow, rent, or buy this second-hand instead?",
	"🎯 Think about the \"cost per use\" - will you use this enough?",
	"💚 Consider: Does this align with your sustainability goals?",
	"⏰ The 24-hour rule: If you still want it tomorrow, it might be worth it.",
}

// Assembler combines ranked alternatives with aggregate metrics into a final
// Recommendation.
type Assembler struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewAssembler creates an assembler drawing dissuasion messages from the
// given randomness source.
func NewAssembler(rng *rand.Rand) *Assembler {
	return &Assembler{rng: rng, now: time.Now}
}

// Build produces the recommendation for a completed run. The caller
// guarantees ranked is non-empty; an empty run is failed upstream instead.
func (a *Assembler) Build(
	source *domain.SourceProduct,
	ranked []domain.AlternativeProduct,
	profile *domain.VisionProfile,
) *domain.Recommendation {
	potentialSavings := 0.0
	totalCO2 := 0.0
	if len(ranked) > 0 {
		if source.Price > 0 {
			if diff := source.Price - ranked[0].Price; diff > 0 {
				potentialSavings = diff
			}
		}
		for _, alt := range ranked {
			totalCO2 += alt.CO2Savings
		}
		totalCO2 /= float64(len(ranked))
	}

	return &domain.Recommendation{
		Alternatives:  ranked,
		SourceProduct: *source,
		ImageAnalysis: domain.ImageAnalysisSummary{
			Category:   profile.Category,
			SearchTags: profile.SearchTags,
		},
		PotentialSavings:  potentialSavings,
		TotalCO2Savings:   totalCO2,
		DissuasionMessage: a.dissuasionMessage(),
		Metadata: domain.RecommendationMetadata{
			SearchTime:     a.now(),
			TotalResults:   len(ranked),
			AnalysisMethod: analysisMethod,
		},
	}
}

func (a *Assembler) dissuasionMessage() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return dissuasionMessages[a.rng.Intn(len(dissuasionMessages))]
}
