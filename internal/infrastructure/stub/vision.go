// Package stub provides deterministic in-process implementations of the
// vision and search capabilities. They stand in for the hosted analysis
// backend in development and tests, producing plausible profiles and
// candidates from simple keyword heuristics.
package stub

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"github.com/swytch/backend/internal/domain"
)

type visionRule struct {
	keywords []string
	category domain.Category
	attrs    domain.Attributes
	style    string
	tags     []string
	colors   []string
}

// Rules are checked in order; the first keyword hit wins, so more specific
// product types sit above broader ones.
var visionRules = []visionRule{
	{
		keywords: []string{"dress", "wedding", "gown", "bride"},
		category: domain.Category{Primary: "Fashion", Secondary: "Clothing", Tertiary: "Dress", Confidence: 0.94},
		attrs:    domain.Attributes{Type: "dress", Material: "fabric/lace", Features: []string{"formal", "elegant", "feminine"}},
		style:    "vintage",
		tags:     []string{"sustainable dress", "eco-friendly wedding dress", "vintage dress", "secondhand bridal", "organic cotton dress"},
		colors:   []string{"#ffffff", "#f5f5dc", "#faf0e6"},
	},
	{
		keywords: []string{"shirt", "tshirt", "top", "blouse"},
		category: domain.Category{Primary: "Fashion", Secondary: "Clothing", Tertiary: "Top", Confidence: 0.91},
		attrs:    domain.Attributes{Type: "shirt/top", Material: "cotton/polyester", Features: []string{"casual", "everyday"}},
		tags:     []string{"organic cotton shirt", "sustainable top", "eco-friendly shirt", "recycled fabric top"},
		colors:   []string{"#ffffff", "#1a1a1a", "#3b82f6"},
	},
	{
		keywords: []string{"pant", "jean", "trouser"},
		category: domain.Category{Primary: "Fashion", Secondary: "Clothing", Tertiary: "Pants", Confidence: 0.90},
		attrs:    domain.Attributes{Type: "pants", Material: "denim/cotton", Features: []string{"casual", "everyday"}},
		tags:     []string{"sustainable jeans", "organic cotton pants", "eco-friendly denim", "recycled pants"},
		colors:   []string{"#1e3a5f", "#1a1a1a", "#4b5563"},
	},
	{
		keywords: []string{"jacket", "coat", "sweater", "hoodie"},
		category: domain.Category{Primary: "Fashion", Secondary: "Clothing", Tertiary: "Outerwear", Confidence: 0.89},
		attrs:    domain.Attributes{Type: "outerwear", Material: "cotton/polyester/wool", Features: []string{"warm", "layering"}},
		tags:     []string{"sustainable jacket", "eco-friendly coat", "organic sweater", "recycled outerwear"},
		colors:   []string{"#1f2937", "#4b5563", "#059669"},
	},
	{
		keywords: []string{"shoe", "sneaker", "nike", "adidas", "boot"},
		category: domain.Category{Primary: "Fashion", Secondary: "Footwear", Tertiary: "Shoes", Confidence: 0.92},
		attrs:    domain.Attributes{Type: "shoes", Material: "mesh/synthetic/leather", Features: []string{"cushioned", "comfortable"}},
		tags:     []string{"sustainable sneakers", "eco-friendly shoes", "vegan footwear", "recycled material shoes"},
		colors:   []string{"#1a1a1a", "#ffffff", "#e63946"},
	},
	{
		keywords: []string{"phone", "iphone", "samsung", "pixel", "mobile"},
		category: domain.Category{Primary: "Electronics", Secondary: "Mobile", Tertiary: "Smartphone", Confidence: 0.95},
		attrs:    domain.Attributes{Type: "smartphone", Material: "glass/aluminum", Features: []string{"touchscreen", "camera", "wireless"}},
		tags:     []string{"refurbished phone", "sustainable smartphone", "eco-friendly phone case", "recycled phone"},
		colors:   []string{"#1a1a1a", "#374151", "#6b7280"},
	},
	{
		keywords: []string{"laptop", "macbook", "notebook", "computer"},
		category: domain.Category{Primary: "Electronics", Secondary: "Computers", Tertiary: "Laptop", Confidence: 0.94},
		attrs:    domain.Attributes{Type: "laptop computer", Material: "aluminum/plastic", Features: []string{"portable", "keyboard", "display"}},
		tags:     []string{"refurbished laptop", "sustainable computer", "eco-friendly laptop", "energy efficient computer"},
		colors:   []string{"#374151", "#9ca3af", "#d1d5db"},
	},
	{
		keywords: []string{"headphone", "earbud", "airpod", "audio"},
		category: domain.Category{Primary: "Electronics", Secondary: "Audio", Tertiary: "Wireless Earbuds", Confidence: 0.93},
		attrs:    domain.Attributes{Type: "true wireless earbuds", Material: "plastic", Features: []string{"bluetooth", "charging case", "in-ear"}},
		tags:     []string{"sustainable earbuds", "eco-friendly headphones", "refurbished audio", "recycled material earbuds"},
		colors:   []string{"#ffffff", "#1a1a1a", "#3b82f6"},
	},
	{
		keywords: []string{"watch", "smartwatch"},
		category: domain.Category{Primary: "Electronics", Secondary: "Wearables", Tertiary: "Smartwatch", Confidence: 0.91},
		attrs:    domain.Attributes{Type: "smartwatch", Material: "aluminum/silicone", Features: []string{"fitness tracking", "notifications", "touchscreen"}},
		tags:     []string{"refurbished smartwatch", "sustainable wearable", "eco-friendly watch band"},
		colors:   []string{"#1f2937", "#374151", "#22c55e"},
	},
	{
		keywords: []string{"bag", "backpack", "purse", "handbag"},
		category: domain.Category{Primary: "Fashion", Secondary: "Bags", Tertiary: "Bag", Confidence: 0.89},
		attrs:    domain.Attributes{Type: "bag", Material: "nylon/polyester/canvas", Features: []string{"multiple compartments", "durable"}},
		tags:     []string{"sustainable bag", "eco-friendly backpack", "recycled material bag", "vegan leather bag"},
		colors:   []string{"#1f2937", "#4b5563", "#059669"},
	},
	{
		keywords: []string{"chair", "sofa", "furniture", "desk", "table"},
		category: domain.Category{Primary: "Home", Secondary: "Furniture", Tertiary: "Furniture", Confidence: 0.88},
		attrs:    domain.Attributes{Type: "furniture", Material: "wood/metal/fabric", Features: []string{"home decor", "functional"}},
		tags:     []string{"sustainable furniture", "eco-friendly home", "reclaimed wood furniture", "secondhand furniture"},
		colors:   []string{"#8b4513", "#d2691e", "#f5f5dc"},
	},
	{
		keywords: []string{"makeup", "cosmetic", "beauty", "skincare"},
		category: domain.Category{Primary: "Beauty", Secondary: "Cosmetics", Tertiary: "Beauty Product", Confidence: 0.87},
		attrs:    domain.Attributes{Type: "beauty product", Material: "various", Features: []string{"personal care", "cosmetic"}},
		tags:     []string{"sustainable beauty", "eco-friendly cosmetics", "organic skincare", "cruelty-free makeup"},
		colors:   []string{"#ffc0cb", "#ff69b4", "#ffffff"},
	},
}

var fallbackRule = visionRule{
	category: domain.Category{Primary: "Fashion", Secondary: "Clothing", Tertiary: "Apparel", Confidence: 0.80},
	attrs:    domain.Attributes{Type: "apparel", Material: "fabric", Features: []string{"general use"}},
	tags:     []string{"sustainable alternative", "eco-friendly option", "secondhand", "recycled material"},
	colors:   []string{"#6b7280", "#9ca3af", "#d1d5db"},
}

// VisionService classifies products by matching keywords in the image
// reference against an ordered rule table.
type VisionService struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewVisionService builds a stub vision service. The random source feeds the
// embedding vector only; pass a seeded source for reproducible output.
func NewVisionService(rng *rand.Rand) *VisionService {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &VisionService{rng: rng}
}

// AnalyzeImage produces a feature profile for the given image reference.
func (v *VisionService) AnalyzeImage(ctx context.Context, imageURL string) (*domain.VisionProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rule := matchRule(imageURL)

	style := rule.style
	if style == "" {
		style = "modern"
	}

	return &domain.VisionProfile{
		Category: rule.category,
		VisualFeatures: domain.VisualFeatures{
			DominantColors: append([]string(nil), rule.colors...),
			ColorScheme:    colorScheme(rule.colors[0]),
			Style:          style,
			Texture:        rule.attrs.Material,
		},
		Attributes:          rule.attrs,
		SearchTags:          append([]string(nil), rule.tags...),
		VisualEmbedding:     v.embedding(),
		EstimatedPriceRange: domain.PriceRange{Min: 20, Max: 200, Currency: "USD"},
		OverallConfidence:   rule.category.Confidence,
	}, nil
}

func matchRule(imageURL string) visionRule {
	url := strings.ToLower(imageURL)
	for _, rule := range visionRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(url, keyword) {
				return rule
			}
		}
	}
	return fallbackRule
}

// colorScheme mirrors the original heuristic: hex values below #40 on the
// first channel read as dark.
func colorScheme(primary string) string {
	if strings.HasPrefix(primary, "#1") || strings.HasPrefix(primary, "#2") || strings.HasPrefix(primary, "#3") {
		return "dark"
	}
	return "light"
}

func (v *VisionService) embedding() []float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	vec := make([]float64, domain.EmbeddingSize)
	for i := range vec {
		vec[i] = v.rng.Float64()
	}
	return vec
}
