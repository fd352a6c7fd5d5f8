package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"shojo-terminal/backend-go/internal/models"
)

const insightsMovers = 5

// FallbackInsights is served whenever market data cannot be assembled.
func FallbackInsights(timestamp string) models.InsightsView {
	return models.InsightsView{
		MarketSummary: "Market analysis temporarily unavailable. Please check back later for updated insights.",
		TopTrends: []string{
			"Data collection in progress for trend analysis.",
			"Check individual token metrics for the latest performance data.",
			"Market conditions are constantly changing, always do your own research.",
		},
		RiskAssessment: "Risk assessment requires current market data. Please refresh or try again later.",
		Prediction:     "Predictions will resume when sufficient market data is available.",
		Timestamp:      timestamp,
	}
}

// InsightFacts are the computed figures behind an insights summary.
type InsightFacts struct {
	Sentiment       string
	TotalMarketCap  float64
	MarketCapChange float64
	TotalVolume     float64
	BTCDominance    float64
	ETHDominance    float64
	Positive        int
	HighRisk        int
	Tokens          []models.TokenView
	Gainers         []models.TokenView
	Losers          []models.TokenView
	TopCategory     string
}

// Insights builds the templated market summary. Any upstream failure yields
// the fallback bundle.
func (s *MarketService) Insights(ctx context.Context) (models.InsightsView, SnapshotMeta) {
	ts := isoTime(s.now())

	var global GlobalPayload
	if err := s.client.Fetch(ctx, "global", nil, s.priceTTL, &global); err != nil {
		return s.insightsFallback(ts, err)
	}
	markets, err := s.topMarkets(ctx)
	if err != nil {
		return s.insightsFallback(ts, err)
	}
	trending, err := s.trending(ctx, s.trendingTTL)
	if err != nil {
		return s.insightsFallback(ts, err)
	}

	facts := computeFacts(global, markets, trending, s.now())
	view := renderInsights(facts, trending)
	view.Timestamp = ts

	if s.narrator != nil {
		if text, err := s.narrator.Predict(ctx, facts); err != nil {
			s.log.Warn().Err(err).Msg("narrator failed, keeping template prediction")
		} else {
			view.Prediction = text
		}
	}
	return view, SnapshotMeta{Source: SourceLive, FetchedAt: ts}
}

func (s *MarketService) insightsFallback(ts string, err error) (models.InsightsView, SnapshotMeta) {
	s.log.Warn().Err(err).Msg("insights unavailable, using fallback text")
	return FallbackInsights(ts), SnapshotMeta{Source: SourceFallback, Err: err.Error()}
}

func computeFacts(global GlobalPayload, markets []MarketCoin, trending TrendingPayload, now time.Time) InsightFacts {
	var f InsightFacts
	if g := global.Data; g != nil {
		f.TotalMarketCap = g.TotalMarketCap["usd"]
		f.TotalVolume = g.TotalVolume["usd"]
		f.BTCDominance = g.MarketCapPercentage["btc"]
		f.ETHDominance = g.MarketCapPercentage["eth"]
		if g.MarketCapChangePercentage24hUSD.Valid {
			f.MarketCapChange = g.MarketCapChangePercentage24hUSD.Value
		}
	}
	f.Sentiment = "bearish"
	if f.MarketCapChange > 0 {
		f.Sentiment = "bullish"
	}

	f.Tokens = make([]models.TokenView, 0, len(markets))
	for _, m := range markets {
		f.Tokens = append(f.Tokens, normalizeMarketCoin(m, false, now))
	}
	for _, t := range f.Tokens {
		if v, ok := ParsePercent(t.PriceChange); ok && v > 0 {
			f.Positive++
		}
		if t.RiskLevel == models.RiskHigh {
			f.HighRisk++
		}
	}
	f.Gainers = topMovers(f.Tokens, true)
	f.Losers = topMovers(f.Tokens, false)
	if len(trending.Categories) > 0 {
		f.TopCategory = trending.Categories[0].Name
	}
	return f
}

func renderInsights(f InsightFacts, trending TrendingPayload) models.InsightsView {
	summary := fmt.Sprintf(
		"The global crypto market is currently %s with a total market cap of %s (%s in 24h). Total volume is %s. BTC dominance is at %s%% and ETH at %s%%.",
		f.Sentiment,
		FormatCurrency(f.TotalMarketCap),
		FormatPercent(f.MarketCapChange),
		FormatCurrency(f.TotalVolume),
		FormatFixed(f.BTCDominance, 2),
		FormatFixed(f.ETHDominance, 2),
	)

	trends := make([]string, 0, 4)
	trends = append(trends, fmt.Sprintf("%d out of top %d coins are showing positive price movement in the last 24 hours.", f.Positive, len(f.Tokens)))

	if len(f.Gainers) > 0 {
		g := f.Gainers[0]
		trends = append(trends, fmt.Sprintf("%s (%s) is the top gainer with %s in 24h.", nonEmpty(g.Name, "Unknown"), nonEmpty(g.Symbol, "?"), nonEmpty(g.PriceChange, "?")))
	} else {
		trends = append(trends, "No significant gainers in the last 24 hours.")
	}

	if len(trending.Coins) > 0 {
		c := trending.Coins[0].Item
		trends = append(trends, fmt.Sprintf("%s (%s) is currently the most searched token on CoinGecko.", nonEmpty(c.Name, "Unknown"), strings.ToUpper(nonEmpty(c.Symbol, "?"))))
	} else {
		trends = append(trends, "Trending data is currently unavailable.")
	}

	if len(trending.Categories) > 0 && trending.Categories[0].MarketCapChange24h.Valid {
		c := trending.Categories[0]
		trends = append(trends, fmt.Sprintf("%s is the most trending category with %s change.", nonEmpty(c.Name, "Unknown"), FormatPercent(c.MarketCapChange24h.Value)))
	} else {
		trends = append(trends, "Category trend data is currently unavailable.")
	}

	risk := "Market risk is moderate with most tokens showing stable metrics. Always conduct your own research before trading."
	if float64(f.HighRisk) > float64(len(f.Tokens))/3 {
		risk = fmt.Sprintf("Market risk is elevated with %d high-risk tokens detected among the top %d. Exercise caution when trading.", f.HighRisk, len(f.Tokens))
	}

	prediction := "Short-term market outlook suggests caution with potential consolidation before next directional move."
	if f.Sentiment == "bullish" {
		prediction = fmt.Sprintf("Short-term market outlook appears positive with continued momentum likely for top trending tokens, especially in the %s sector.", nonEmpty(f.TopCategory, "DeFi"))
	}

	return models.InsightsView{
		MarketSummary:  summary,
		TopTrends:      trends,
		RiskAssessment: risk,
		Prediction:     prediction,
	}
}

func topMovers(tokens []models.TokenView, gainers bool) []models.TokenView {
	sorted := append([]models.TokenView(nil), tokens...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := changeOf(sorted[i]), changeOf(sorted[j])
		if gainers {
			return a > b
		}
		return a < b
	})
	if len(sorted) > insightsMovers {
		sorted = sorted[:insightsMovers]
	}
	return sorted
}

func changeOf(t models.TokenView) float64 {
	v, ok := ParsePercent(t.PriceChange)
	if !ok {
		return 0
	}
	return v
}
