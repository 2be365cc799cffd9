package domain

import "time"

// SourceProduct is the product the shopper is currently viewing, captured
// from a marketplace page by the extension's content script. Immutable once
// handed to an analysis run.
type SourceProduct struct {
	ImageSource string  `json:"imageSource"`
	Name        string  `json:"name,omitempty"`
	Price       float64 `json:"price,omitempty"`
	PageURL     string  `json:"pageUrl"`
	Platform    string  `json:"platform,omitempty"`
	ProductID   string  `json:"productId"`
	Category    string  `json:"category,omitempty"`
}

// AlternativeProduct is a candidate substitute proposed as more sustainable
// and/or cheaper than the source product. Generated fresh per run; only ever
// persisted as part of a Recommendation.
type AlternativeProduct struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Price            float64         `json:"price"`
	Currency         string          `json:"currency"`
	ImageURL         string          `json:"imageUrl"`
	ProductURL       string          `json:"productUrl"`
	Platform         string          `json:"platform"`
	PlatformName     string          `json:"platformName"`
	Rating           float64         `json:"rating,omitempty"`
	ReviewCount      int             `json:"reviewCount,omitempty"`
	VisualSimilarity float64         `json:"visualSimilarity"`
	MatchReasons     []string        `json:"matchReasons"`
	CO2Savings       float64         `json:"co2Savings"`
	IsEcoFriendly    bool            `json:"isEcoFriendly"`
	EcoLabel         string          `json:"ecoLabel,omitempty"`
	EcoDetails       string          `json:"ecoDetails,omitempty"`
	Blurb            string          `json:"blurb,omitempty"`
	MatchedFeatures  MatchedFeatures `json:"matchedFeatures"`
}

// MatchedFeatures summarizes why an alternative visually matches the source.
type MatchedFeatures struct {
	Category string `json:"category,omitempty"`
	Type     string `json:"type,omitempty"`
	Material string `json:"material,omitempty"`
	Style    string `json:"style,omitempty"`
}

// ImageAnalysisSummary is the slice of the vision profile carried on a
// Recommendation for display purposes.
type ImageAnalysisSummary struct {
	Category   Category `json:"category"`
	SearchTags []string `json:"searchTags"`
}

// RecommendationMetadata describes how and when a recommendation was built.
type RecommendationMetadata struct {
	SearchTime     time.Time `json:"searchTime"`
	TotalResults   int       `json:"totalResults"`
	AnalysisMethod string    `json:"analysisMethod"`
}

// Recommendation is the final, ranked result of one analysis run.
// Alternatives are ordered by the preference policy active at assembly time.
type Recommendation struct {
	Alternatives      []AlternativeProduct   `json:"alternatives"`
	SourceProduct     SourceProduct          `json:"sourceProduct"`
	ImageAnalysis     ImageAnalysisSummary   `json:"imageAnalysis"`
	PotentialSavings  float64                `json:"potentialSavings"`
	TotalCO2Savings   float64                `json:"totalCO2Savings"`
	DissuasionMessage string                 `json:"dissuasionMessage"`
	Metadata          RecommendationMetadata `json:"metadata"`
}
