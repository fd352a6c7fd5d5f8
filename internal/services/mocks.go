package services

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"shojo-terminal/backend-go/internal/models"
)

var mockTokenPool = []struct {
	Symbol string
	Name   string
}{
	{"BTC", "Bitcoin"},
	{"ETH", "Ethereum"},
	{"SOL", "Solana"},
	{"BNB", "Binance Coin"},
	{"XRP", "Ripple"},
	{"ADA", "Cardano"},
	{"DOGE", "Dogecoin"},
	{"SHIB", "Shiba Inu"},
	{"AVAX", "Avalanche"},
	{"DOT", "Polkadot"},
	{"LINK", "Chainlink"},
	{"MATIC", "Polygon"},
	{"UNI", "Uniswap"},
	{"ATOM", "Cosmos"},
	{"LTC", "Litecoin"},
}

var mockNftPool = []struct {
	Name   string
	Symbol string
}{
	{"Bored Ape Yacht Club", "BAYC"},
	{"CryptoPunks", "PUNK"},
	{"Azuki", "AZUKI"},
	{"Doodles", "DOODLE"},
	{"CloneX", "CLONEX"},
	{"Moonbirds", "MOONBIRD"},
	{"Pudgy Penguins", "PUDGY"},
}

var mockCategoryPool = []struct {
	Name   string
	Volume float64
}{
	{"DeFi", 2_500_000_000},
	{"Gaming", 1_800_000_000},
	{"Layer 1", 3_200_000_000},
	{"Meme", 1_200_000_000},
	{"NFT", 900_000_000},
	{"AI", 1_500_000_000},
	{"Metaverse", 800_000_000},
}

var mockCategoryCoins = []string{
	"/images/tokens/btc.png",
	"/images/tokens/eth.png",
	"/images/tokens/sol.png",
}

// MockGenerator builds placeholder datasets for when no real data exists.
// A fixed seed makes its output reproducible.
type MockGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewMockGenerator seeds from the clock when seed is zero.
func NewMockGenerator(seed int64) *MockGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &MockGenerator{rnd: rand.New(rand.NewSource(seed)), now: time.Now}
}

func (g *MockGenerator) Tokens(limit int) []models.TokenView {
	n := clampCount(limit, len(mockTokenPool))
	out := make([]models.TokenView, 0, n)

	g.mu.Lock()
	defer g.mu.Unlock()
	now := isoTime(g.now())
	for i := 0; i < n; i++ {
		entry := mockTokenPool[i]
		scale := 5000.0
		if i == 0 {
			scale = 50000
		}
		price := g.rnd.Float64() * scale
		change := FormatPercent(g.rnd.Float64()*10 - 5)
		volume := g.rnd.Float64() * 1e9
		marketCap := g.rnd.Float64() * 1e12

		risk := models.RiskHigh
		switch {
		case i < 3:
			risk = models.RiskLow
		case i < 7:
			risk = models.RiskMedium
		}

		lower := strings.ToLower(entry.Symbol)
		out = append(out, models.TokenView{
			ID:             "mock-" + lower,
			Name:           entry.Name,
			Symbol:         entry.Symbol,
			Price:          "$" + localeNumber(price, 0, 2),
			PriceChange:    change,
			PriceChange24h: change,
			Volume:         FormatCurrency(volume),
			MarketCap:      FormatCurrency(marketCap),
			MarketCapRank:  i + 1,
			LogoURL:        "/images/tokens/" + lower + ".png",
			LastUpdated:    now,
			Trending:       true,
			RiskLevel:      risk,
		})
	}
	return out
}

func (g *MockGenerator) NFTs(limit int) []models.NftView {
	n := clampCount(limit, len(mockNftPool))
	out := make([]models.NftView, 0, n)

	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < n; i++ {
		entry := mockNftPool[i]
		floor := g.rnd.Float64()*10 + 0.5
		change := g.rnd.Float64()*20 - 10
		out = append(out, models.NftView{
			ID:             "mock-" + strings.ToLower(entry.Symbol),
			Name:           entry.Name,
			Symbol:         entry.Symbol,
			ImageURL:       Placeholder(40, 40, entry.Symbol),
			FloorPrice:     FormatFixed(floor, 4),
			PriceChange:    FormatPercent(change),
			CurrencySymbol: "ETH",
			URL:            "https://opensea.io/collection/" + slug(entry.Name),
		})
	}
	return out
}

func (g *MockGenerator) Categories(limit int) []models.CategoryView {
	n := clampCount(limit, len(mockCategoryPool))
	out := make([]models.CategoryView, 0, n)

	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < n; i++ {
		entry := mockCategoryPool[i]
		change := g.rnd.Float64()*20 - 10
		volume := entry.Volume * (0.8 + g.rnd.Float64()*0.4)
		out = append(out, models.CategoryView{
			ID:              "mock-" + slug(entry.Name),
			Name:            entry.Name,
			MarketCapChange: FormatPercent(change),
			TopCoins:        append([]string(nil), mockCategoryCoins...),
			Volume:          FormatCurrency(volume),
		})
	}
	return out
}

func clampCount(limit int, pool int) int {
	if limit < 0 {
		return 0
	}
	if limit > pool {
		return pool
	}
	return limit
}

func slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
