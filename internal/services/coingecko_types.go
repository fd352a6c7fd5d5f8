package services

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NullFloat accepts JSON numbers, numeric strings such as "$1,234.5", null,
// and {"usd": x} objects.
type NullFloat struct {
	Value float64
	Valid bool
}

func Float(v float64) NullFloat { return NullFloat{Value: v, Valid: true} }

func (n *NullFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = NullFloat{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, ok := parseLooseNumber(s)
		*n = NullFloat{Value: f, Valid: ok}
		return nil
	case '{':
		var m map[string]NullFloat
		if err := json.Unmarshal(b, &m); err != nil {
			return err
		}
		*n = m["usd"]
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = NullFloat{Value: f, Valid: true}
	return nil
}

// Truthy is true for a present, non-zero, finite value.
func (n NullFloat) Truthy() bool {
	return n.Valid && n.Value != 0 && !math.IsNaN(n.Value) && !math.IsInf(n.Value, 0)
}

func parseLooseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// FlexString accepts ids sent either as strings or as numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// StringList decodes string arrays and treats anything else as empty.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		*l = nil
		return nil
	}
	*l = items
	return nil
}

type TrendingPayload struct {
	Coins      []TrendingCoinItem `json:"coins"`
	NFTs       []TrendingNFT      `json:"nfts"`
	Categories []CategoryRecord   `json:"categories"`
}

type TrendingCoinItem struct {
	Item TrendingCoin `json:"item"`
}

type TrendingCoin struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Symbol        string            `json:"symbol"`
	MarketCapRank *int              `json:"market_cap_rank"`
	Thumb         string            `json:"thumb"`
	Small         string            `json:"small"`
	Large         string            `json:"large"`
	Slug          string            `json:"slug"`
	PriceBTC      NullFloat         `json:"price_btc"`
	Score         int               `json:"score"`
	Data          *TrendingCoinData `json:"data"`
}

type TrendingCoinData struct {
	Price                    NullFloat `json:"price"`
	PriceBTC                 NullFloat `json:"price_btc"`
	PriceChangePercentage24h NullFloat `json:"price_change_percentage_24h"`
	MarketCap                NullFloat `json:"market_cap"`
	TotalVolume              NullFloat `json:"total_volume"`
}

type TrendingNFT struct {
	ID                            FlexString `json:"id"`
	Name                          string     `json:"name"`
	Symbol                        string     `json:"symbol"`
	Thumb                         string     `json:"thumb"`
	FloorPriceInNativeCurrency    NullFloat  `json:"floor_price_in_native_currency"`
	FloorPrice24hPercentageChange NullFloat  `json:"floor_price_24h_percentage_change"`
	NativeCurrencySymbol          string     `json:"native_currency_symbol"`
	URL                           string     `json:"url"`
}

// CategoryRecord covers both trending categories and coins/categories rows.
type CategoryRecord struct {
	ID                 FlexString    `json:"id"`
	Name               string        `json:"name"`
	MarketCapChange24h NullFloat     `json:"market_cap_change_24h"`
	Top3Coins          StringList    `json:"top_3_coins"`
	Volume24h          NullFloat     `json:"volume_24h"`
	Data               *CategoryData `json:"data"`
}

type CategoryData struct {
	MarketCapChangePercentage24h NullFloat `json:"market_cap_change_percentage_24h"`
	TotalVolume                  NullFloat `json:"total_volume"`
}

type MarketCoin struct {
	ID                                 string    `json:"id"`
	Symbol                             string    `json:"symbol"`
	Name                               string    `json:"name"`
	Image                              string    `json:"image"`
	CurrentPrice                       NullFloat `json:"current_price"`
	MarketCap                          NullFloat `json:"market_cap"`
	MarketCapRank                      *int      `json:"market_cap_rank"`
	TotalVolume                        NullFloat `json:"total_volume"`
	PriceChangePercentage24h           NullFloat `json:"price_change_percentage_24h"`
	PriceChangePercentage1hInCurrency  NullFloat `json:"price_change_percentage_1h_in_currency"`
	PriceChangePercentage24hInCurrency NullFloat `json:"price_change_percentage_24h_in_currency"`
	PriceChangePercentage7dInCurrency  NullFloat `json:"price_change_percentage_7d_in_currency"`
	LastUpdated                        string    `json:"last_updated"`
}

type GlobalPayload struct {
	Data *GlobalData `json:"data"`
}

type GlobalData struct {
	TotalMarketCap                  map[string]float64 `json:"total_market_cap"`
	TotalVolume                     map[string]float64 `json:"total_volume"`
	MarketCapPercentage             map[string]float64 `json:"market_cap_percentage"`
	MarketCapChangePercentage24hUSD NullFloat          `json:"market_cap_change_percentage_24h_usd"`
}
