package domain

import "time"

// ErrorInfo is the caller-facing form of a failed analysis stage.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunState is a point-in-time snapshot of the analysis state machine.
// Snapshots never carry credentials or tokens.
type RunState struct {
	IsAnalyzing    bool            `json:"isAnalyzing"`
	LoadingMessage string          `json:"loadingMessage,omitempty"`
	CurrentProduct *SourceProduct  `json:"currentProduct,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Error          *ErrorInfo      `json:"error,omitempty"`
	Preferences    UserPreferences `json:"preferences"`
}

// ImpactStats are the aggregate counters accumulated across analysis runs.
type ImpactStats struct {
	TotalCO2      float64 `json:"totalCO2"`
	TotalSearches int     `json:"totalSearches"`
	EcoChoices    int     `json:"ecoChoices"`
	TotalSaved    float64 `json:"totalSaved"`
}

// ViewedItem is one entry of the most-recent-first view history.
type ViewedItem struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	Price      float64   `json:"price,omitempty"`
	Platform   string    `json:"platform,omitempty"`
	ProductURL string    `json:"productUrl,omitempty"`
	ViewedAt   time.Time `json:"viewedAt"`
}

// ViewProductInfo is the display payload remembered for a tracked product.
type ViewProductInfo struct {
	Name     string  `json:"name,omitempty"`
	Price    float64 `json:"price,omitempty"`
	ImageURL string  `json:"imageUrl,omitempty"`
	URL      string  `json:"url,omitempty"`
	Category string  `json:"category,omitempty"`
}

// ViewEntry is the rolling view counter kept per product.
type ViewEntry struct {
	Count       int             `json:"count"`
	FirstViewed time.Time       `json:"firstViewed"`
	LastViewed  time.Time       `json:"lastViewed"`
	ProductInfo ViewProductInfo `json:"productInfo"`
}

// ViewResult is the outcome of recording or querying a product view.
type ViewResult struct {
	ViewCount   int              `json:"viewCount"`
	ShowWarning bool             `json:"showWarning"`
	ProductInfo *ViewProductInfo `json:"productInfo,omitempty"`
}
