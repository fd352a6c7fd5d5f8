package services

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"shojo-terminal/backend-go/internal/models"
)

const maxTopCoins = 3

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func generatedID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
}

func indexMarkets(coins []MarketCoin) map[string]MarketCoin {
	out := make(map[string]MarketCoin, len(coins))
	for _, c := range coins {
		if c.ID == "" {
			continue
		}
		out[c.ID] = c
	}
	return out
}

func positiveRank(r *int) int {
	if r == nil || *r <= 0 {
		return 0
	}
	return *r
}

// normalizeTrendingCoin merges a trending entry with its market listing, if any.
func normalizeTrendingCoin(coin TrendingCoin, listing MarketCoin, btcPrice float64, now time.Time) models.TokenView {
	var data TrendingCoinData
	if coin.Data != nil {
		data = *coin.Data
	}
	trendingRank := positiveRank(coin.MarketCapRank)
	estimable := trendingRank > 0 && trendingRank <= 200

	price := notAvailable
	switch {
	case data.Price.Truthy():
		price = FormatPrice(data.Price.Value)
	case listing.CurrentPrice.Truthy():
		price = FormatPrice(listing.CurrentPrice.Value)
	case coin.PriceBTC.Valid:
		price = "$" + localeNumber(coin.PriceBTC.Value*btcPrice, 0, 2)
	}

	change := "0%"
	switch {
	case data.PriceChangePercentage24h.Truthy():
		change = FormatPercent(data.PriceChangePercentage24h.Value)
	case listing.PriceChangePercentage24h.Truthy():
		change = FormatPercent(listing.PriceChangePercentage24h.Value)
	}

	volume := notAvailable
	switch {
	case data.TotalVolume.Truthy():
		volume = FormatCurrency(data.TotalVolume.Value)
	case listing.TotalVolume.Truthy():
		volume = FormatCurrency(listing.TotalVolume.Value)
	case estimable:
		volume = FormatCurrency(1e13 / float64(trendingRank))
	}

	marketCap := notAvailable
	switch {
	case data.MarketCap.Truthy():
		marketCap = FormatCurrency(data.MarketCap.Value)
	case listing.MarketCap.Truthy():
		marketCap = FormatCurrency(listing.MarketCap.Value)
	case estimable:
		marketCap = FormatCurrency(1e14 / float64(trendingRank))
	}

	rank := trendingRank
	if rank == 0 {
		rank = positiveRank(listing.MarketCapRank)
	}
	if rank == 0 {
		rank = unknownRank
	}

	lastUpdated := listing.LastUpdated
	if lastUpdated == "" {
		lastUpdated = isoTime(now)
	}

	logo := firstImage(coin.Large, coin.Small, coin.Thumb)
	if logo == "" {
		logo = Placeholder(40, 40, initial(coin.Symbol))
	}

	return models.TokenView{
		ID:             coin.ID,
		Name:           nonEmpty(coin.Name, "Unknown"),
		Symbol:         strings.ToUpper(nonEmpty(coin.Symbol, "???")),
		Price:          price,
		PriceChange:    change,
		PriceChange1h:  optionalPercent(listing.PriceChangePercentage1hInCurrency),
		PriceChange24h: change,
		PriceChange7d:  optionalPercent(listing.PriceChangePercentage7dInCurrency),
		Volume:         volume,
		MarketCap:      marketCap,
		MarketCapRank:  rank,
		LogoURL:        logo,
		LastUpdated:    lastUpdated,
		Trending:       true,
		RiskLevel:      RiskFromRank(rank),
	}
}

func normalizeMarketCoin(coin MarketCoin, trending bool, now time.Time) models.TokenView {
	price := notAvailable
	if coin.CurrentPrice.Valid {
		price = FormatPrice(coin.CurrentPrice.Value)
	}
	change := percentOr(coin.PriceChangePercentage24h, "0%")

	rank := positiveRank(coin.MarketCapRank)
	if rank == 0 {
		rank = unknownRank
	}
	logo := coin.Image
	if logo == "" {
		logo = Placeholder(40, 40, initial(coin.Symbol))
	}
	lastUpdated := coin.LastUpdated
	if lastUpdated == "" {
		lastUpdated = isoTime(now)
	}

	return models.TokenView{
		ID:             coin.ID,
		Name:           nonEmpty(coin.Name, "Unknown"),
		Symbol:         strings.ToUpper(nonEmpty(coin.Symbol, "???")),
		Price:          price,
		PriceChange:    change,
		PriceChange1h:  optionalPercent(coin.PriceChangePercentage1hInCurrency),
		PriceChange24h: change,
		PriceChange7d:  optionalPercent(coin.PriceChangePercentage7dInCurrency),
		Volume:         currencyOr(coin.TotalVolume, notAvailable),
		MarketCap:      currencyOr(coin.MarketCap, notAvailable),
		MarketCapRank:  rank,
		LogoURL:        logo,
		LastUpdated:    lastUpdated,
		Trending:       trending,
		RiskLevel:      ListingRisk(coin.MarketCap, coin.MarketCapRank, coin.PriceChangePercentage24h),
	}
}

func normalizeNFT(nft TrendingNFT) models.NftView {
	id := string(nft.ID)
	if id == "" {
		id = generatedID("nft")
	}
	floor := notAvailable
	if nft.FloorPriceInNativeCurrency.Valid {
		floor = FormatFixed(nft.FloorPriceInNativeCurrency.Value, 4)
	}
	image := nft.Thumb
	if image == "" {
		image = Placeholder(40, 40, "NFT")
	}
	return models.NftView{
		ID:             id,
		Name:           nonEmpty(nft.Name, "Unknown NFT"),
		Symbol:         nonEmpty(nft.Symbol, "NFT"),
		ImageURL:       image,
		FloorPrice:     floor,
		PriceChange:    percentOr(nft.FloorPrice24hPercentageChange, "0%"),
		CurrencySymbol: strings.ToUpper(nonEmpty(nft.NativeCurrencySymbol, "ETH")),
		URL:            nonEmpty(nft.URL, "#"),
	}
}

func normalizeCategory(c CategoryRecord) models.CategoryView {
	id := string(c.ID)
	if id == "" {
		id = generatedID("category")
	}

	change := c.MarketCapChange24h
	volume := c.Volume24h
	if c.Data != nil {
		if !change.Valid {
			change = c.Data.MarketCapChangePercentage24h
		}
		if !volume.Valid {
			volume = c.Data.TotalVolume
		}
	}

	top := make([]string, 0, maxTopCoins)
	for _, img := range c.Top3Coins {
		if len(top) == maxTopCoins {
			break
		}
		top = append(top, ImageWithFallback(img, 40, 40))
	}

	return models.CategoryView{
		ID:              id,
		Name:            nonEmpty(c.Name, "Unknown Category"),
		MarketCapChange: percentOr(change, "0%"),
		TopCoins:        top,
		Volume:          currencyOr(volume, notAvailable),
	}
}

func optionalPercent(v NullFloat) string {
	if !v.Valid {
		return ""
	}
	return FormatPercent(v.Value)
}

func nonEmpty(v string, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func initial(symbol string) string {
	if symbol == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(symbol)
	return string(r)
}
