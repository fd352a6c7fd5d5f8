package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string
	CoinGeckoBaseURL   string
	UserAgent          string
	RedisURL           string
	CacheRetention     time.Duration
	CacheTTLPrice      time.Duration
	CacheTTLTrending   time.Duration
	RouteTTLTokens     time.Duration
	RouteTTLNfts       time.Duration
	RouteTTLCategories time.Duration
	RouteTTLInsights   time.Duration
	RequestTimeout     time.Duration
	MinRequestInterval time.Duration
	RateLimitPerMin    int
	SimulateLatency    bool
	MockSeed           int64
	StreamInterval     time.Duration
	LogLevel           string
	LogPretty          bool
	OpenAISummary      bool
	OpenAIKey          string
	OpenAIModel        string
}

func Load() Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	return Config{
		Port:               v.GetString("PORT"),
		CoinGeckoBaseURL:   v.GetString("COINGECKO_BASE_URL"),
		UserAgent:          v.GetString("COINGECKO_USER_AGENT"),
		RedisURL:           v.GetString("REDIS_URL"),
		CacheRetention:     seconds(v, "CACHE_RETENTION"),
		CacheTTLPrice:      seconds(v, "CACHE_TTL_PRICE"),
		CacheTTLTrending:   seconds(v, "CACHE_TTL_TRENDING"),
		RouteTTLTokens:     seconds(v, "ROUTE_TTL_TOKENS"),
		RouteTTLNfts:       seconds(v, "ROUTE_TTL_NFTS"),
		RouteTTLCategories: seconds(v, "ROUTE_TTL_CATEGORIES"),
		RouteTTLInsights:   seconds(v, "ROUTE_TTL_INSIGHTS"),
		RequestTimeout:     seconds(v, "REQUEST_TIMEOUT"),
		MinRequestInterval: time.Duration(v.GetInt("COINGECKO_MIN_INTERVAL_MS")) * time.Millisecond,
		RateLimitPerMin:    v.GetInt("RATE_LIMIT_PER_MIN"),
		SimulateLatency:    v.GetBool("SIMULATE_LATENCY"),
		MockSeed:           v.GetInt64("MOCK_SEED"),
		StreamInterval:     seconds(v, "STREAM_INTERVAL"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogPretty:          v.GetBool("LOG_PRETTY"),
		OpenAISummary:      v.GetBool("ENABLE_OPENAI_SUMMARY"),
		OpenAIKey:          v.GetString("OPENAI_API_KEY"),
		OpenAIModel:        v.GetString("OPENAI_MODEL"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("CONFIG_FILE", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3")
	v.SetDefault("COINGECKO_USER_AGENT", "Shojo-Market-Terminal/1.0")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_RETENTION", 0)
	v.SetDefault("CACHE_TTL_PRICE", 120)
	v.SetDefault("CACHE_TTL_TRENDING", 600)
	v.SetDefault("ROUTE_TTL_TOKENS", 120)
	v.SetDefault("ROUTE_TTL_NFTS", 600)
	v.SetDefault("ROUTE_TTL_CATEGORIES", 300)
	v.SetDefault("ROUTE_TTL_INSIGHTS", 120)
	v.SetDefault("REQUEST_TIMEOUT", 12)
	v.SetDefault("COINGECKO_MIN_INTERVAL_MS", 1500)
	v.SetDefault("RATE_LIMIT_PER_MIN", 120)
	v.SetDefault("SIMULATE_LATENCY", false)
	v.SetDefault("MOCK_SEED", 0)
	v.SetDefault("STREAM_INTERVAL", 120)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("ENABLE_OPENAI_SUMMARY", false)
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
}

// seconds reads an integer number of seconds; negative values fall back to zero.
func seconds(v *viper.Viper, key string) time.Duration {
	n := v.GetInt(key)
	if n < 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

// SummaryEnabled reports whether the LLM narrator can run.
func (c Config) SummaryEnabled() bool {
	return c.OpenAISummary && c.OpenAIKey != ""
}
