package models

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Rank orders risk tiers so they can be compared.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	default:
		return 2
	}
}

type TokenView struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Symbol         string    `json:"symbol"`
	Price          string    `json:"price"`
	PriceChange    string    `json:"priceChange"`
	PriceChange1h  string    `json:"priceChange1h,omitempty"`
	PriceChange24h string    `json:"priceChange24h,omitempty"`
	PriceChange7d  string    `json:"priceChange7d,omitempty"`
	Volume         string    `json:"volume"`
	MarketCap      string    `json:"marketCap"`
	MarketCapRank  int       `json:"marketCapRank"`
	LogoURL        string    `json:"logoUrl"`
	LastUpdated    string    `json:"lastUpdated"`
	Trending       bool      `json:"trending"`
	RiskLevel      RiskLevel `json:"riskLevel"`
}

type NftView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	ImageURL       string `json:"imageUrl"`
	FloorPrice     string `json:"floorPrice"`
	PriceChange    string `json:"priceChange"`
	CurrencySymbol string `json:"currencySymbol"`
	URL            string `json:"url"`
}

type CategoryView struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	MarketCapChange string   `json:"marketCapChange"`
	TopCoins        []string `json:"topCoins"`
	Volume          string   `json:"volume"`
}

type InsightsView struct {
	MarketSummary  string   `json:"marketSummary"`
	TopTrends      []string `json:"topTrends"`
	RiskAssessment string   `json:"riskAssessment"`
	Prediction     string   `json:"prediction"`
	Timestamp      string   `json:"timestamp"`
}

type FeatureData struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Icon        string   `json:"icon" yaml:"icon"`
	Details     []string `json:"details" yaml:"details"`
}

type BackgroundEffects struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Type    string `json:"type" yaml:"type"`
}

type HeroData struct {
	Title             string            `json:"title" yaml:"title"`
	Subtitle          string            `json:"subtitle" yaml:"subtitle"`
	BackgroundEffects BackgroundEffects `json:"backgroundEffects" yaml:"backgroundEffects"`
}

type DepStatus struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type HealthResponse struct {
	Ok          bool                 `json:"ok"`
	TsISO       string               `json:"tsISO"`
	Service     string               `json:"service"`
	Version     string               `json:"version"`
	Deps        []string             `json:"deps"`
	DepsStatus  map[string]DepStatus `json:"deps_status"`
	DataMissing []string             `json:"data_missing"`
	Features    map[string]bool      `json:"features"`
}
