package stub

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/swytch/backend/internal/domain"
)

const (
	minSimilarity = 0.6
	maxSimilarity = 0.98
	ecoSimilarityBonus = 0.02
)

type platform struct {
	id      string
	name    string
	baseURL string
}

var platforms = []platform{
	{id: "amazon", name: "Amazon", baseURL: "https://amazon.com/dp/"},
	{id: "walmart", name: "Walmart", baseURL: "https://walmart.com/ip/"},
	{id: "target", name: "Target", baseURL: "https://target.com/p/"},
	{id: "ebay", name: "eBay", baseURL: "https://ebay.com/itm/"},
	{id: "bestbuy", name: "Best Buy", baseURL: "https://bestbuy.com/site/"},
}

type ecoLabel struct {
	label  string
	detail string
}

var ecoLabels = []ecoLabel{
	{"Climate Pledge Friendly", "Carbon-neutral shipping, sustainable materials"},
	{"Certified Refurbished", "Extends product lifecycle, reduces e-waste"},
	{"Recycled Materials", "Made with 80%+ recycled content"},
	{"Energy Star", "Energy efficient, reduces power consumption"},
	{"Fair Trade Certified", "Ethical production, fair wages"},
	{"Ocean Plastic", "Made from recycled ocean plastic"},
}

type productTemplate struct {
	name            string
	priceMultiplier float64
	eco             bool
	material        string
	blurb           string
}

type templatePool struct {
	keywords  []string
	templates []productTemplate
}

var templatePools = []templatePool{
	{
		keywords: []string{"earbud", "headphone", "audio"},
		templates: []productTemplate{
			{"Eco-Certified Wireless Earbuds - Recycled Plastic", 0.7, true, "", "Made from 100% recycled ocean plastic, same audio quality"},
			{"Refurbished Premium TWS Earbuds - Like New", 0.45, true, "", "Certified refurbished, 1-year warranty, reduces e-waste"},
			{"Sustainable Bluetooth Earphones - Carbon Neutral", 0.8, true, "", "Carbon neutral production, biodegradable packaging"},
			{"Budget Wireless Earbuds - Great Value", 0.35, false, "", "Affordable alternative with similar features"},
			{"Premium Noise-Canceling TWS - Eco Edition", 1.1, true, "", "Top-tier audio with sustainable materials"},
		},
	},
	{
		keywords: []string{"phone", "smartphone", "mobile"},
		templates: []productTemplate{
			{"Certified Refurbished Smartphone - Grade A", 0.55, true, "", "Like-new condition, 1-year warranty, saves 80% CO₂"},
			{"Pre-owned Premium Phone - Excellent Condition", 0.45, true, "", "Thoroughly tested, extends device lifecycle"},
			{"Eco-Friendly Smartphone - Modular Design", 0.85, true, "", "Repairable, upgradeable, reduces e-waste"},
			{"Budget Android Phone - Similar Specs", 0.4, false, "", "Great value alternative with comparable features"},
			{"Renewed Flagship Phone - 1 Year Warranty", 0.6, true, "", "Factory renewed, full warranty coverage"},
		},
	},
	{
		keywords: []string{"laptop", "notebook", "computer"},
		templates: []productTemplate{
			{"Certified Refurbished Laptop - Enterprise Grade", 0.5, true, "", "Business-class quality, tested & certified"},
			{"Energy Star Certified Laptop - Low Power", 0.85, true, "", "Uses 30% less energy, same performance"},
			{"Pre-owned MacBook/ThinkPad - Excellent", 0.55, true, "", "Premium quality, significantly reduced CO₂"},
			{"Eco-Friendly Chromebook - Recycled Aluminum", 0.4, true, "", "Sustainable materials, perfect for daily tasks"},
			{"Budget Laptop - Similar Performance", 0.45, false, "", "Affordable option with comparable specs"},
		},
	},
	{
		keywords: []string{"sneaker", "shoe", "footwear"},
		templates: []productTemplate{
			{"Sustainable Running Shoes - Recycled Materials", 0.75, true, "recycled polyester", "Made from recycled bottles, same comfort"},
			{"Eco-Friendly Athletic Shoes - Plant-Based", 0.85, true, "plant-based", "Vegan materials, carbon-negative production"},
			{"Pre-owned Designer Sneakers - Like New", 0.5, true, "", "Authenticated, extends product lifecycle"},
			{"Budget Sports Shoes - Great Value", 0.35, false, "", "Similar style and comfort at lower price"},
			{"Ocean Plastic Sneakers - Certified", 0.9, true, "ocean plastic", "Each pair removes 11 plastic bottles from ocean"},
		},
	},
	{
		keywords: []string{"watch", "smartwatch", "wearable"},
		templates: []productTemplate{
			{"Refurbished Smartwatch - Certified", 0.55, true, "", "Like-new condition, full warranty"},
			{"Eco-Friendly Fitness Tracker - Solar Powered", 0.7, true, "", "Solar charging, no battery waste"},
			{"Pre-owned Premium Watch - Authenticated", 0.6, true, "", "Verified authentic, extends lifecycle"},
			{"Budget Fitness Band - Similar Features", 0.3, false, "", "Same core features at lower cost"},
			{"Sustainable Smartwatch - Recycled Aluminum", 0.85, true, "", "Made with 100% recycled aluminum case"},
		},
	},
	{
		keywords: []string{"bag", "backpack"},
		templates: []productTemplate{
			{"Sustainable Backpack - Recycled PET", 0.7, true, "recycled PET", "Made from 20 recycled bottles"},
			{"Eco-Friendly Daypack - Organic Cotton", 0.8, true, "organic cotton", "Organic, fair trade certified"},
			{"Upcycled Designer Bag - Pre-owned", 0.5, true, "", "Authenticated luxury, circular fashion"},
			{"Budget Backpack - Similar Style", 0.35, false, "", "Similar design at better price"},
			{"Ocean Plastic Bag - Certified", 0.85, true, "ocean plastic", "Made from recovered ocean waste"},
		},
	},
	{
		keywords: []string{"dress", "gown", "bridal", "wedding"},
		templates: []productTemplate{
			{"Vintage Lace Wedding Dress - Pre-owned", 0.35, true, "lace/silk", "Beautiful pre-loved gown, professionally cleaned"},
			{"Sustainable Bridal Gown - Organic Silk", 0.85, true, "organic silk", "Eco-friendly luxury, GOTS certified organic"},
			{"Rental Designer Wedding Dress", 0.25, true, "", "Rent the runway, reduce waste, save 70%"},
			{"Upcycled Vintage Bridal - Redesigned", 0.55, true, "upcycled vintage", "Unique vintage pieces redesigned for modern brides"},
			{"Eco-Conscious Wedding Gown - Recycled Lace", 0.75, true, "recycled lace", "Made from deadstock fabrics, zero-waste pattern"},
		},
	},
	{
		keywords: []string{"clothing", "apparel", "top", "shirt", "pants", "outerwear"},
		templates: []productTemplate{
			{"Organic Cotton Essential - Fair Trade", 0.7, true, "organic cotton", "GOTS certified organic, fair trade production"},
			{"Secondhand Designer - Like New", 0.4, true, "", "Pre-loved quality, extends garment life by years"},
			{"Recycled Fabric Basics - Eco Line", 0.65, true, "recycled polyester", "Made from 12 recycled plastic bottles"},
			{"Vintage Thrift Find - Unique Style", 0.25, true, "", "One-of-a-kind vintage, circular fashion"},
			{"Sustainable Fashion Brand - B Corp", 0.9, true, "sustainable blend", "B Corp certified, living wage guarantee"},
		},
	},
}

// SearchService fabricates visually similar candidates from per-category
// template pools. Candidate order is by visual similarity descending, so a
// ranking pass downstream always starts from the same baseline.
type SearchService struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSearchService builds a stub search service. A seeded random source
// makes the generated prices, ratings, and similarities reproducible.
func NewSearchService(rng *rand.Rand) *SearchService {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &SearchService{rng: rng, now: time.Now}
}

// FindSimilar generates one candidate per template for the profile's
// category.
func (s *SearchService) FindSimilar(ctx context.Context, profile *domain.VisionProfile, source *domain.SourceProduct) ([]domain.AlternativeProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	categoryName := profile.Category.Name()
	basePrice := source.Price
	if basePrice <= 0 {
		basePrice = profile.EstimatedPriceRange.Max
	}
	if basePrice <= 0 {
		basePrice = 100
	}

	templates := templatesFor(categoryName)

	s.mu.Lock()
	defer s.mu.Unlock()

	nowMillis := s.now().UnixMilli()
	products := make([]domain.AlternativeProduct, 0, len(templates))
	for i, tpl := range templates {
		p := platforms[i%len(platforms)]

		multiplier := tpl.priceMultiplier
		if multiplier == 0 {
			multiplier = 0.5 + s.rng.Float64()*0.6
		}
		price := math.Round(basePrice*multiplier*100) / 100

		isEco := tpl.eco && (i < 3 || s.rng.Float64() > 0.3)
		var label, detail string
		if isEco {
			eco := ecoLabels[i%len(ecoLabels)]
			label, detail = eco.label, eco.detail
		}

		co2 := 0.5
		if isEco {
			co2 = 1.5 + s.rng.Float64()*4
		}

		similarity := 0.75 + s.rng.Float64()*0.2
		if tpl.eco {
			similarity += ecoSimilarityBonus
		}
		similarity = math.Min(maxSimilarity, math.Max(minSimilarity, similarity))

		material := tpl.material
		if material == "" {
			material = profile.Attributes.Material
		}

		seed := strings.ReplaceAll(categoryName, " ", "")
		products = append(products, domain.AlternativeProduct{
			ID:               fmt.Sprintf("%s-visual-%d-%d", p.id, nowMillis, i),
			Name:             tpl.name,
			Price:            price,
			Currency:         "$",
			ImageURL:         fmt.Sprintf("https://picsum.photos/seed/%s%d/300/300", seed, i),
			ProductURL:       fmt.Sprintf("%sB0EXAMPLE%d", p.baseURL, i),
			Platform:         p.id,
			PlatformName:     p.name,
			Rating:           4.0 + s.rng.Float64()*0.9,
			ReviewCount:      100 + s.rng.Intn(10000),
			VisualSimilarity: similarity,
			MatchReasons:     matchReasons(tpl, profile),
			CO2Savings:       co2,
			IsEcoFriendly:    isEco,
			EcoLabel:         label,
			EcoDetails:       detail,
			Blurb:            tpl.blurb,
			MatchedFeatures: domain.MatchedFeatures{
				Category: fallbackName(profile.Category.Tertiary, profile.Category.Secondary),
				Type:     profile.Attributes.Type,
				Material: material,
				Style:    profile.VisualFeatures.Style,
			},
		})
	}

	sortBySimilarity(products)
	return products, nil
}

func templatesFor(categoryName string) []productTemplate {
	category := strings.ToLower(categoryName)
	for _, pool := range templatePools {
		for _, keyword := range pool.keywords {
			if strings.Contains(category, keyword) {
				return pool.templates
			}
		}
	}
	return genericTemplates(categoryName)
}

func genericTemplates(categoryName string) []productTemplate {
	return []productTemplate{
		{fmt.Sprintf("Eco-Friendly %s - Sustainable Choice", categoryName), 0.75, true, "", "Environmentally responsible alternative"},
		{fmt.Sprintf("Refurbished %s - Certified", categoryName), 0.5, true, "", "Tested and certified, like-new condition"},
		{fmt.Sprintf("Pre-owned %s - Excellent Condition", categoryName), 0.45, true, "", "Extends product lifecycle, reduces waste"},
		{fmt.Sprintf("Budget %s - Great Value", categoryName), 0.4, false, "", "Affordable alternative with similar features"},
		{fmt.Sprintf("Premium %s - Eco Edition", categoryName), 0.95, true, "", "High quality with sustainability focus"},
	}
}

// matchReasons lists up to three reasons, most specific first.
func matchReasons(tpl productTemplate, profile *domain.VisionProfile) []string {
	reasons := []string{
		fmt.Sprintf("Same category: %s", fallbackName(profile.Category.Tertiary, profile.Category.Secondary)),
	}
	if profile.Attributes.Type != "" {
		reasons = append(reasons, fmt.Sprintf("Similar type: %s", profile.Attributes.Type))
	}
	if profile.VisualFeatures.Style != "" {
		reasons = append(reasons, fmt.Sprintf("Matching style: %s", profile.VisualFeatures.Style))
	}
	if tpl.material != "" || profile.Attributes.Material != "" {
		reasons = append(reasons, "Compatible material")
	}
	if tpl.eco {
		reasons = append(reasons, "Eco-friendly alternative")
	}
	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	return reasons
}

func fallbackName(primary, secondary string) string {
	if primary != "" {
		return primary
	}
	return secondary
}

func sortBySimilarity(products []domain.AlternativeProduct) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].VisualSimilarity > products[j].VisualSimilarity
	})
}
