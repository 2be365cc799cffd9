package domain

import (
	"context"
	"encoding/json"
)

// Logical keys of the persisted state layout.
const (
	KeyPreferences = "preferences"
	KeyItemsViewed = "itemsViewed"
	KeyImpactStats = "impactStats"
	KeyViewTracker = "productViewTracker"
)

// Store is the injected key-value persistence capability. Implementations
// must be safe for concurrent use. Get omits missing keys from the result
// map rather than failing.
type Store interface {
	Get(ctx context.Context, keys []string) (map[string]json.RawMessage, error)
	Set(ctx context.Context, items map[string]any) error
	Remove(ctx context.Context, keys []string) error
}

// VisionService turns an image reference into a structured feature profile.
// The default implementation is a rule-based stub; production deployments
// substitute a real model behind the same contract.
type VisionService interface {
	AnalyzeImage(ctx context.Context, imageURL string) (*VisionProfile, error)
}

// SearchService produces candidate alternatives for a vision profile.
// Results are unfiltered; preference filtering is applied by the caller.
type SearchService interface {
	FindSimilar(ctx context.Context, profile *VisionProfile, source *SourceProduct) ([]AlternativeProduct, error)
}
