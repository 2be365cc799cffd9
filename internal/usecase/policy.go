package usecase

import (
	"sort"
	"strings"

	"github.com/swytch/backend/internal/domain"
)

// Scoring constants for the balanced comparator.
const (
	ecoScoreBoost     = 1.5  // eco-flagged items score 50% higher
	defaultRating     = 3.0  // rating assumed when a candidate has none
	defaultSimilarity = 0.5  // similarity assumed when a candidate has none
	minPriceDenom     = 0.01 // floor for the price divisor, keeps free items finite
)

// FilterCandidates applies the user's hard constraints to a candidate set:
// budget cap, minimum rating, and exclusion of the source product's own
// marketplace (case-insensitive). Order is preserved.
func FilterCandidates(
	alts []domain.AlternativeProduct,
	prefs domain.UserPreferences,
	source *domain.SourceProduct,
) []domain.AlternativeProduct {
	sourcePlatform := ""
	if source != nil {
		sourcePlatform = strings.ToLower(source.Platform)
	}

	filtered := make([]domain.AlternativeProduct, 0, len(alts))
	for _, alt := range alts {
		if prefs.MaxBudget > 0 && alt.Price > prefs.MaxBudget {
			continue
		}
		if prefs.MinRating > 0 && alt.Rating < prefs.MinRating {
			continue
		}
		if sourcePlatform != "" && strings.ToLower(alt.Platform) == sourcePlatform {
			continue
		}
		filtered = append(filtered, alt)
	}
	return filtered
}

// RankAlternatives orders alternatives according to the preference priority.
// Sorting is stable: ties retain generator order. The input slice is not
// modified.
func RankAlternatives(alts []domain.AlternativeProduct, prefs domain.UserPreferences) []domain.AlternativeProduct {
	sorted := make([]domain.AlternativeProduct, len(alts))
	copy(sorted, alts)

	switch prefs.Priority {
	case domain.PriorityEcoFriendly:
		sort.SliceStable(sorted, func(i, j int) bool {
			a, b := sorted[i], sorted[j]
			if a.IsEcoFriendly != b.IsEcoFriendly {
				return a.IsEcoFriendly
			}
			return a.CO2Savings > b.CO2Savings
		})
	case domain.PrioritySaveMoney:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Price < sorted[j].Price
		})
	case domain.PriorityQuality:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Rating > sorted[j].Rating
		})
	default: // balanced
		sort.SliceStable(sorted, func(i, j int) bool {
			return balancedScore(sorted[i]) > balancedScore(sorted[j])
		})
	}

	return sorted
}

// balancedScore combines value for money, eco status, and visual similarity
// into a single desirability score.
func balancedScore(alt domain.AlternativeProduct) float64 {
	rating := alt.Rating
	if rating == 0 {
		rating = defaultRating
	}
	similarity := alt.VisualSimilarity
	if similarity == 0 {
		similarity = defaultSimilarity
	}
	price := alt.Price
	if price < minPriceDenom {
		price = minPriceDenom
	}
	score := rating / price
	if alt.IsEcoFriendly {
		score *= ecoScoreBoost
	}
	return score * similarity
}
