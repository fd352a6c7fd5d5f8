package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"shojo-terminal/backend-go/internal/models"
)

const trendingFixture = `{
  "coins": [
    {"item": {"id": "pepe", "name": "Pepe", "symbol": "pepe", "market_cap_rank": 35, "large": "https://img.test/pepe.png", "price_btc": 0.0000001,
      "data": {"price": "$0.00001234", "price_change_percentage_24h": {"usd": 12.5}, "market_cap": "$5,000,000,000", "total_volume": "$800,000,000"}}},
    {"item": {"id": "newcoin", "name": "New Coin", "symbol": "new", "market_cap_rank": null, "price_btc": 0.0001}},
    {"item": {"id": "bitcoin", "name": "Bitcoin", "symbol": "btc", "market_cap_rank": 1, "small": "https://img.test/btc.png"}},
    {"item": {"id": "rankonly", "name": "Rank Only", "symbol": "rko", "market_cap_rank": 50}}
  ],
  "nfts": [
    {"id": "pudgy", "name": "Pudgy", "symbol": "PPG", "thumb": "https://img.test/p.png", "floor_price_in_native_currency": 12.3456789, "floor_price_24h_percentage_change": -4.2, "native_currency_symbol": "eth"},
    {"name": "No Id"}
  ],
  "categories": [
    {"id": 1, "name": "Meme", "market_cap_change_24h": 5.5, "top_3_coins": ["a.png", "b.png", "c.png", "d.png"], "volume_24h": 1234567},
    {"name": "Nested", "data": {"market_cap_change_percentage_24h": -2, "total_volume": 2500000000}}
  ]
}`

const listingFixture = `[
  {"id": "bitcoin", "symbol": "btc", "name": "Bitcoin", "image": "https://img.test/btc-large.png", "current_price": 65000, "market_cap": 1200000000000,
   "market_cap_rank": 1, "total_volume": 30000000000, "price_change_percentage_24h": -1.5,
   "price_change_percentage_1h_in_currency": 0.2, "price_change_percentage_7d_in_currency": 3.1, "last_updated": "2024-05-01T00:00:00.000Z"}
]`

const topMarketsFixture = `[
  {"id": "bitcoin", "symbol": "btc", "name": "Bitcoin", "current_price": 65000, "market_cap": 1200000000000, "market_cap_rank": 1, "total_volume": 30000000000, "price_change_percentage_24h": 2},
  {"id": "ethereum", "symbol": "eth", "name": "Ethereum", "current_price": 3200, "market_cap": 400000000000, "market_cap_rank": 2, "total_volume": 15000000000, "price_change_percentage_24h": -1},
  {"id": "small", "symbol": "small", "name": "Small Coin", "current_price": 0.02, "market_cap": 50000000, "market_cap_rank": 300, "total_volume": 1000000, "price_change_percentage_24h": 30}
]`

const globalFixture = `{"data": {"total_market_cap": {"usd": 2500000000000}, "total_volume": {"usd": 90000000000},
  "market_cap_percentage": {"btc": 52.123, "eth": 17.5}, "market_cap_change_percentage_24h_usd": 1.25}}`

type upstream struct {
	mu       sync.Mutex
	routes   map[string]func(w http.ResponseWriter, r *http.Request)
	hits     map[string]int
	fallback int
}

func marketsHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("ids") != "" {
		_, _ = w.Write([]byte(listingFixture))
		return
	}
	_, _ = w.Write([]byte(topMarketsFixture))
}

func newUpstream() *upstream {
	return &upstream{
		routes: map[string]func(w http.ResponseWriter, r *http.Request){
			"/search/trending":  respond(trendingFixture),
			"/coins/markets":    marketsHandler,
			"/global":           respond(globalFixture),
			"/coins/categories": respond(`[]`),
			"/ping":             respond(`{"gecko_says":"(V3) To the Moon!"}`),
		},
		hits:     map[string]int{},
		fallback: http.StatusNotFound,
	}
}

func respond(body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

func status(code int) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

func (u *upstream) set(path string, h func(w http.ResponseWriter, r *http.Request)) {
	u.mu.Lock()
	u.routes[path] = h
	u.mu.Unlock()
}

func (u *upstream) count(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.hits[r.URL.Path]++
	h := u.routes[r.URL.Path]
	u.mu.Unlock()
	if h == nil {
		w.WriteHeader(u.fallback)
		return
	}
	h(w, r)
}

func newTestService(t *testing.T, up *upstream) (*MarketService, *fakeClock) {
	t.Helper()
	c, srv, clock := newTestClient(t, up)
	svc := NewMarketService(testConfig(srv.URL), c, NewMockGenerator(7), nil, zerolog.Nop())
	svc.now = clock.Now
	return svc, clock
}

func TestTrendingTokensMergesListings(t *testing.T) {
	up := newUpstream()
	svc, _ := newTestService(t, up)

	tokens, meta := svc.TrendingTokens(context.Background(), 10)
	if meta.Source != SourceLive {
		t.Fatalf("expected live data, got %+v", meta)
	}
	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens (never padded), got %d", len(tokens))
	}
	ids := []string{tokens[0].ID, tokens[1].ID, tokens[2].ID, tokens[3].ID}
	if strings.Join(ids, ",") != "pepe,newcoin,bitcoin,rankonly" {
		t.Fatalf("input order not preserved: %v", ids)
	}

	pepe := tokens[0]
	if pepe.Price != "$0.00001234" || pepe.PriceChange != "+12.50%" || pepe.MarketCap != "$5.00B" || pepe.Volume != "$800.00M" {
		t.Fatalf("unexpected pepe %+v", pepe)
	}
	if pepe.Symbol != "PEPE" || pepe.RiskLevel != models.RiskMedium || !pepe.Trending || pepe.LogoURL != "https://img.test/pepe.png" {
		t.Fatalf("unexpected pepe metadata %+v", pepe)
	}

	fresh := tokens[1]
	if fresh.Price != "$6.5" {
		t.Fatalf("expected price from price_btc x remembered btc price, got %q", fresh.Price)
	}
	if fresh.Volume != "N/A" || fresh.MarketCap != "N/A" || fresh.PriceChange != "0%" {
		t.Fatalf("expected missing figures, got %+v", fresh)
	}
	if fresh.MarketCapRank != unknownRank || fresh.RiskLevel != models.RiskHigh {
		t.Fatalf("expected unknown rank to be high risk, got %+v", fresh)
	}
	if fresh.LogoURL != "/placeholder.svg?height=40&width=40&text=n" {
		t.Fatalf("unexpected placeholder %q", fresh.LogoURL)
	}

	btc := tokens[2]
	if btc.Price != "$65,000.00" || btc.PriceChange != "-1.50%" || btc.Volume != "$30.00B" {
		t.Fatalf("unexpected bitcoin %+v", btc)
	}
	if btc.PriceChange1h != "+0.20%" || btc.PriceChange7d != "+3.10%" || btc.LastUpdated != "2024-05-01T00:00:00.000Z" {
		t.Fatalf("expected listing backfill on bitcoin, got %+v", btc)
	}
	if btc.RiskLevel != models.RiskLow || btc.LogoURL != "https://img.test/btc.png" {
		t.Fatalf("unexpected bitcoin metadata %+v", btc)
	}

	est := tokens[3]
	if est.Volume != "$200.00B" || est.MarketCap != "$2000.00B" {
		t.Fatalf("expected rank estimates, got %+v", est)
	}
}

func TestTrendingTokensTruncatesAndSkipsZeroLimit(t *testing.T) {
	up := newUpstream()
	svc, _ := newTestService(t, up)

	tokens, _ := svc.TrendingTokens(context.Background(), 2)
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
	calls := up.count("/search/trending")

	empty, meta := svc.TrendingTokens(context.Background(), 0)
	if len(empty) != 0 || empty == nil || meta.Source != SourceEmpty {
		t.Fatalf("expected empty non-nil result, got %v %+v", empty, meta)
	}
	if up.count("/search/trending") != calls {
		t.Fatalf("limit 0 must not call upstream")
	}
}

func TestTrendingTokensToleratesBackfillFailure(t *testing.T) {
	up := newUpstream()
	up.set("/coins/markets", status(http.StatusInternalServerError))
	svc, _ := newTestService(t, up)

	tokens, meta := svc.TrendingTokens(context.Background(), 3)
	if meta.Source != SourceLive || len(tokens) != 3 {
		t.Fatalf("expected live tokens, got %d %+v", len(tokens), meta)
	}
	if tokens[1].Price != "$6" {
		t.Fatalf("expected default btc price, got %q", tokens[1].Price)
	}
	if tokens[2].Price != "N/A" || tokens[2].Volume != "$10000.00B" {
		t.Fatalf("unexpected bitcoin without listing %+v", tokens[2])
	}
}

func TestTrendingTokensFallsBackToMocks(t *testing.T) {
	up := newUpstream()
	up.set("/search/trending", status(http.StatusInternalServerError))
	svc, _ := newTestService(t, up)

	tokens, meta := svc.TrendingTokens(context.Background(), 5)
	if meta.Source != SourceMock || meta.Err == "" {
		t.Fatalf("expected mock meta, got %+v", meta)
	}
	if len(tokens) != 5 {
		t.Fatalf("expected 5 mock tokens, got %d", len(tokens))
	}
	for _, tok := range tokens {
		if !strings.HasPrefix(tok.ID, "mock-") {
			t.Fatalf("expected mock id, got %q", tok.ID)
		}
	}
}

func TestTrendingNFTs(t *testing.T) {
	up := newUpstream()
	svc, _ := newTestService(t, up)

	nfts, meta := svc.TrendingNFTs(context.Background(), 7)
	if meta.Source != SourceLive || len(nfts) != 2 {
		t.Fatalf("unexpected result %d %+v", len(nfts), meta)
	}
	p := nfts[0]
	if p.FloorPrice != "12.3457" || p.PriceChange != "-4.20%" || p.CurrencySymbol != "ETH" || p.URL != "#" {
		t.Fatalf("unexpected nft %+v", p)
	}
	n := nfts[1]
	if !strings.HasPrefix(n.ID, "nft-") || len(n.ID) != len("nft-")+7 {
		t.Fatalf("expected generated id, got %q", n.ID)
	}
	if n.FloorPrice != "N/A" || n.PriceChange != "0%" || n.Symbol != "NFT" || n.ImageURL != "/placeholder.svg?height=40&width=40&text=NFT" {
		t.Fatalf("unexpected defaults %+v", n)
	}
}

func TestTrendingNFTsRateLimitedWithoutCache(t *testing.T) {
	up := newUpstream()
	up.set("/search/trending", status(http.StatusTooManyRequests))
	svc, _ := newTestService(t, up)

	nfts, meta := svc.TrendingNFTs(context.Background(), 3)
	if meta.Source != SourceMock {
		t.Fatalf("expected mocks, got %+v", meta)
	}
	if len(nfts) != 3 {
		t.Fatalf("expected 3 nfts, got %d", len(nfts))
	}
	for _, n := range nfts {
		if n.CurrencySymbol != "ETH" || !strings.HasPrefix(n.ID, "mock-") {
			t.Fatalf("unexpected mock nft %+v", n)
		}
	}
}

func TestTrendingNFTsServeExpiredPayloadOnServerError(t *testing.T) {
	up := newUpstream()
	svc, clock := newTestService(t, up)
	if _, meta := svc.TrendingNFTs(context.Background(), 7); meta.Source != SourceLive {
		t.Fatalf("expected live data, got %+v", meta)
	}

	clock.Advance(11 * time.Minute)
	up.set("/search/trending", status(http.StatusServiceUnavailable))
	nfts, meta := svc.TrendingNFTs(context.Background(), 7)
	if meta.Source != SourceLive || len(nfts) != 2 || strings.HasPrefix(nfts[0].ID, "mock-") {
		t.Fatalf("expected the expired payload, got %+v %+v", nfts, meta)
	}
}

func TestTrendingNFTsMalformedPayloadKeepsGoodEntry(t *testing.T) {
	up := newUpstream()
	svc, clock := newTestService(t, up)
	if _, meta := svc.TrendingNFTs(context.Background(), 7); meta.Source != SourceLive {
		t.Fatalf("expected live data, got %+v", meta)
	}

	clock.Advance(11 * time.Minute)
	up.set("/search/trending", respond(`{"nfts":"oops"}`))
	nfts, meta := svc.TrendingNFTs(context.Background(), 7)
	if meta.Source != SourceLive || len(nfts) != 2 {
		t.Fatalf("expected the previous payload, got %+v %+v", nfts, meta)
	}

	up.set("/search/trending", respond(trendingFixture))
	clock.Advance(time.Minute)
	before := up.count("/search/trending")
	if _, meta := svc.TrendingNFTs(context.Background(), 7); meta.Source != SourceLive {
		t.Fatalf("expected recovery, got %+v", meta)
	}
	if up.count("/search/trending") != before+1 {
		t.Fatalf("malformed payload must not be cached as fresh")
	}
}

func TestTrendingCategories(t *testing.T) {
	up := newUpstream()
	svc, _ := newTestService(t, up)

	cats, meta := svc.TrendingCategories(context.Background(), 5)
	if meta.Source != SourceLive || len(cats) != 2 {
		t.Fatalf("unexpected result %d %+v", len(cats), meta)
	}
	meme := cats[0]
	if meme.ID != "1" || meme.MarketCapChange != "+5.50%" || meme.Volume != "$1.23M" || len(meme.TopCoins) != 3 {
		t.Fatalf("unexpected category %+v", meme)
	}
	nested := cats[1]
	if nested.MarketCapChange != "-2.00%" || nested.Volume != "$2.50B" || !strings.HasPrefix(nested.ID, "category-") {
		t.Fatalf("expected nested data to be read, got %+v", nested)
	}
	if nested.TopCoins == nil {
		t.Fatalf("topCoins must encode as an array")
	}
}

func TestTrendingCategoriesUsesListingFallback(t *testing.T) {
	up := newUpstream()
	up.set("/search/trending", respond(`{"coins": []}`))
	up.set("/coins/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("order") != "market_cap_desc" {
			t.Errorf("unexpected order %q", r.URL.Query().Get("order"))
		}
		_, _ = w.Write([]byte(`[{"id": "layer-1", "name": "Layer 1", "market_cap_change_24h": 1.2, "volume_24h": 5000000000}]`))
	})
	svc, _ := newTestService(t, up)

	cats, meta := svc.TrendingCategories(context.Background(), 5)
	if meta.Source != SourceLive || len(cats) != 1 || cats[0].ID != "layer-1" || cats[0].Volume != "$5.00B" {
		t.Fatalf("unexpected fallback result %+v %+v", cats, meta)
	}
}

func TestTrendingCategoriesFallsBackToMocks(t *testing.T) {
	up := newUpstream()
	up.set("/search/trending", status(http.StatusBadGateway))
	svc, _ := newTestService(t, up)

	cats, meta := svc.TrendingCategories(context.Background(), 4)
	if meta.Source != SourceMock || len(cats) != 4 {
		t.Fatalf("expected 4 mock categories, got %d %+v", len(cats), meta)
	}
	if up.count("/coins/categories") != 1 {
		t.Fatalf("expected listing fallback to be tried")
	}
}

func TestInsightsTemplates(t *testing.T) {
	up := newUpstream()
	svc, _ := newTestService(t, up)

	view, meta := svc.Insights(context.Background())
	if meta.Source != SourceLive {
		t.Fatalf("expected live insights, got %+v", meta)
	}
	wantSummary := "The global crypto market is currently bullish with a total market cap of $2500.00B (+1.25% in 24h). Total volume is $90.00B. BTC dominance is at 52.12% and ETH at 17.50%."
	if view.MarketSummary != wantSummary {
		t.Fatalf("unexpected summary:\n%s", view.MarketSummary)
	}
	wantTrends := []string{
		"2 out of top 3 coins are showing positive price movement in the last 24 hours.",
		"Small Coin (SMALL) is the top gainer with +30.00% in 24h.",
		"Pepe (PEPE) is currently the most searched token on CoinGecko.",
		"Meme is the most trending category with +5.50% change.",
	}
	if len(view.TopTrends) != len(wantTrends) {
		t.Fatalf("unexpected trends %v", view.TopTrends)
	}
	for i := range wantTrends {
		if view.TopTrends[i] != wantTrends[i] {
			t.Fatalf("trend %d = %q, want %q", i, view.TopTrends[i], wantTrends[i])
		}
	}
	if !strings.HasPrefix(view.RiskAssessment, "Market risk is moderate") {
		t.Fatalf("unexpected risk assessment %q", view.RiskAssessment)
	}
	if !strings.Contains(view.Prediction, "especially in the Meme sector") {
		t.Fatalf("unexpected prediction %q", view.Prediction)
	}
	if view.Timestamp == "" {
		t.Fatalf("expected timestamp")
	}
}

func TestInsightsFallbackWhenGlobalFails(t *testing.T) {
	up := newUpstream()
	up.set("/global", status(http.StatusInternalServerError))
	svc, _ := newTestService(t, up)

	view, meta := svc.Insights(context.Background())
	if meta.Source != SourceFallback {
		t.Fatalf("expected fallback, got %+v", meta)
	}
	want := FallbackInsights(view.Timestamp)
	if view.MarketSummary != want.MarketSummary || view.Prediction != want.Prediction || len(view.TopTrends) != 3 {
		t.Fatalf("unexpected fallback %+v", view)
	}
	if view.Timestamp == "" {
		t.Fatalf("fallback must carry a timestamp")
	}
}

type stubNarrator struct {
	text  string
	err   error
	calls atomic.Int32
	facts InsightFacts
}

func (s *stubNarrator) Predict(ctx context.Context, facts InsightFacts) (string, error) {
	s.calls.Add(1)
	s.facts = facts
	return s.text, s.err
}

func TestInsightsNarrator(t *testing.T) {
	up := newUpstream()
	svc, _ := newTestService(t, up)

	n := &stubNarrator{text: "Momentum favours large caps."}
	svc.narrator = n
	view, _ := svc.Insights(context.Background())
	if view.Prediction != "Momentum favours large caps." {
		t.Fatalf("expected narrated prediction, got %q", view.Prediction)
	}
	if len(n.facts.Losers) == 0 || n.facts.Losers[0].Symbol != "ETH" {
		t.Fatalf("expected losers to reach the narrator, got %+v", n.facts.Losers)
	}

	svc.narrator = &stubNarrator{err: errors.New("quota")}
	view, _ = svc.Insights(context.Background())
	if !strings.HasPrefix(view.Prediction, "Short-term market outlook appears positive") {
		t.Fatalf("expected template prediction on narrator error, got %q", view.Prediction)
	}
}
