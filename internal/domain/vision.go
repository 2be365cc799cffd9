package domain

// EmbeddingSize is the fixed length of the visual embedding vector used for
// downstream similarity math.
const EmbeddingSize = 128

// Category is a three-level product classification with a confidence score
// in [0,1].
type Category struct {
	Primary    string  `json:"primary"`
	Secondary  string  `json:"secondary"`
	Tertiary   string  `json:"tertiary"`
	Confidence float64 `json:"confidence"`
}

// Name returns the most specific non-empty level of the category.
func (c Category) Name() string {
	if c.Tertiary != "" {
		return c.Tertiary
	}
	if c.Secondary != "" {
		return c.Secondary
	}
	return c.Primary
}

// VisualFeatures describes the look of the analyzed image.
type VisualFeatures struct {
	DominantColors []string `json:"dominantColors"`
	ColorScheme    string   `json:"colorScheme"` // "dark" or "light"
	Style          string   `json:"style,omitempty"`
	Texture        string   `json:"texture,omitempty"`
}

// Attributes are the product properties recognized from the image.
type Attributes struct {
	Type     string   `json:"type"`
	Material string   `json:"material,omitempty"`
	Features []string `json:"features,omitempty"`
}

// PriceRange is an estimated price band for the analyzed product.
type PriceRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// VisionProfile is the structured feature profile produced by analyzing a
// source product's image. Created once per analysis run and treated as
// read-only input by the candidate search.
type VisionProfile struct {
	Category            Category       `json:"category"`
	VisualFeatures      VisualFeatures `json:"visualFeatures"`
	Attributes          Attributes     `json:"attributes"`
	SearchTags          []string       `json:"searchTags"`
	VisualEmbedding     []float64      `json:"visualEmbedding"`
	EstimatedPriceRange PriceRange     `json:"estimatedPriceRange"`
	OverallConfidence   float64        `json:"overallConfidence"`
}
