package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"shojo-terminal/backend-go/internal/config"
	"shojo-terminal/backend-go/internal/models"
)

const (
	SourceLive     = "live"
	SourceMock     = "mock"
	SourceFallback = "fallback"
	SourceEmpty    = "empty"
)

const (
	btcPriceKey      = "btc_usd"
	btcPriceTTL      = 2 * time.Minute
	defaultBTCPrice  = 60000.0
	insightsTopCoins = 20
)

// SnapshotMeta describes where a library result came from.
type SnapshotMeta struct {
	Source    string
	Err       string
	FetchedAt string
}

// Degraded reports whether the result was synthesized instead of fetched.
func (m SnapshotMeta) Degraded() bool {
	return m.Source == SourceMock || m.Source == SourceFallback
}

type MarketService struct {
	client      *CoinGeckoClient
	mocks       *MockGenerator
	narrator    Narrator
	priceTTL    time.Duration
	trendingTTL time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

func NewMarketService(cfg config.Config, client *CoinGeckoClient, mocks *MockGenerator, narrator Narrator, log zerolog.Logger) *MarketService {
	if mocks == nil {
		mocks = NewMockGenerator(cfg.MockSeed)
	}
	return &MarketService{
		client:      client,
		mocks:       mocks,
		narrator:    narrator,
		priceTTL:    cfg.CacheTTLPrice,
		trendingTTL: cfg.CacheTTLTrending,
		log:         log.With().Str("component", "market").Logger(),
		now:         time.Now,
	}
}

// Ping proxies the upstream health check.
func (s *MarketService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// TrendingTokens never fails: upstream trouble yields mock tokens.
func (s *MarketService) TrendingTokens(ctx context.Context, limit int) ([]models.TokenView, SnapshotMeta) {
	if limit <= 0 {
		return []models.TokenView{}, SnapshotMeta{Source: SourceEmpty}
	}
	tokens, err := s.liveTokens(ctx, limit)
	if err != nil {
		s.log.Warn().Err(err).Int("limit", limit).Msg("trending tokens unavailable, using mock data")
		return s.mocks.Tokens(limit), SnapshotMeta{Source: SourceMock, Err: err.Error()}
	}
	return tokens, s.liveMeta()
}

func (s *MarketService) TrendingNFTs(ctx context.Context, limit int) ([]models.NftView, SnapshotMeta) {
	if limit <= 0 {
		return []models.NftView{}, SnapshotMeta{Source: SourceEmpty}
	}
	payload, err := s.trending(ctx, s.trendingTTL)
	if err == nil && payload.NFTs == nil {
		err = invalidShape("search/trending", "missing nfts")
	}
	if err != nil {
		s.log.Warn().Err(err).Int("limit", limit).Msg("trending nfts unavailable, using mock data")
		return s.mocks.NFTs(limit), SnapshotMeta{Source: SourceMock, Err: err.Error()}
	}

	items := payload.NFTs
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]models.NftView, 0, len(items))
	for _, n := range items {
		out = append(out, normalizeNFT(n))
	}
	return out, s.liveMeta()
}

// TrendingCategories tries the trending payload, then the full category
// listing, then mocks.
func (s *MarketService) TrendingCategories(ctx context.Context, limit int) ([]models.CategoryView, SnapshotMeta) {
	if limit <= 0 {
		return []models.CategoryView{}, SnapshotMeta{Source: SourceEmpty}
	}
	payload, err := s.trending(ctx, s.trendingTTL)
	if err == nil && payload.Categories == nil {
		err = invalidShape("search/trending", "missing categories")
	}
	if err == nil {
		return normalizeCategories(payload.Categories, limit), s.liveMeta()
	}
	s.log.Warn().Err(err).Msg("trending categories unavailable, trying category listing")

	var listing []CategoryRecord
	lerr := s.client.Fetch(ctx, "coins/categories", Query{{"order", "market_cap_desc"}}, s.trendingTTL, &listing)
	if lerr == nil && len(listing) > 0 {
		return normalizeCategories(listing, limit), s.liveMeta()
	}
	if lerr != nil {
		s.log.Warn().Err(lerr).Msg("category listing unavailable, using mock data")
	}
	return s.mocks.Categories(limit), SnapshotMeta{Source: SourceMock, Err: err.Error()}
}

func normalizeCategories(records []CategoryRecord, limit int) []models.CategoryView {
	if len(records) > limit {
		records = records[:limit]
	}
	out := make([]models.CategoryView, 0, len(records))
	for _, c := range records {
		out = append(out, normalizeCategory(c))
	}
	return out
}

func (s *MarketService) liveTokens(ctx context.Context, limit int) ([]models.TokenView, error) {
	payload, err := s.trending(ctx, s.priceTTL)
	if err != nil {
		return nil, err
	}
	if payload.Coins == nil {
		return nil, invalidShape("search/trending", "missing coins")
	}

	items := payload.Coins
	if len(items) > limit {
		items = items[:limit]
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.Item.ID != "" {
			ids = append(ids, it.Item.ID)
		}
	}

	listings := map[string]MarketCoin{}
	if len(ids) > 0 {
		var markets []MarketCoin
		if err := s.client.Fetch(ctx, "coins/markets", marketsQuery(ids, 100), s.priceTTL, &markets); err != nil {
			s.log.Warn().Err(err).Msg("market backfill failed")
		} else {
			listings = indexMarkets(markets)
			s.rememberBTC(ctx, markets)
		}
	}

	btc := s.btcPrice(ctx)
	now := s.now()
	out := make([]models.TokenView, 0, len(items))
	for _, it := range items {
		out = append(out, normalizeTrendingCoin(it.Item, listings[it.Item.ID], btc, now))
	}
	return out, nil
}

func (s *MarketService) trending(ctx context.Context, ttl time.Duration) (TrendingPayload, error) {
	var payload TrendingPayload
	err := s.client.Fetch(ctx, "search/trending", nil, ttl, &payload)
	return payload, err
}

func (s *MarketService) topMarkets(ctx context.Context) ([]MarketCoin, error) {
	var markets []MarketCoin
	if err := s.client.Fetch(ctx, "coins/markets", marketsQuery(nil, insightsTopCoins), s.priceTTL, &markets); err != nil {
		return nil, err
	}
	if markets == nil {
		return nil, invalidShape("coins/markets", "expected an array")
	}
	s.rememberBTC(ctx, markets)
	return markets, nil
}

func (s *MarketService) rememberBTC(ctx context.Context, markets []MarketCoin) {
	for _, m := range markets {
		if m.ID == "bitcoin" && m.CurrentPrice.Truthy() {
			s.client.Remember(ctx, btcPriceKey, m.CurrentPrice.Value)
			return
		}
	}
}

func (s *MarketService) btcPrice(ctx context.Context) float64 {
	var v float64
	if s.client.Recall(ctx, btcPriceKey, btcPriceTTL, &v) && v > 0 {
		return v
	}
	return defaultBTCPrice
}

func (s *MarketService) liveMeta() SnapshotMeta {
	return SnapshotMeta{Source: SourceLive, FetchedAt: isoTime(s.now())}
}

func marketsQuery(ids []string, perPage int) Query {
	q := Query{{"vs_currency", "usd"}}
	if len(ids) > 0 {
		q = append(q, Param{"ids", strings.Join(ids, ",")})
	}
	return append(q,
		Param{"order", "market_cap_desc"},
		Param{"per_page", strconv.Itoa(perPage)},
		Param{"page", "1"},
		Param{"sparkline", "false"},
		Param{"price_change_percentage", "1h,24h,7d"},
	)
}
