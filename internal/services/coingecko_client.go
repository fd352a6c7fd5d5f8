package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shojo-terminal/backend-go/internal/config"
)

const (
	maxPayloadBytes = 8 << 20
	maxBackoff      = 2 * time.Minute
)

type Param struct {
	Key   string
	Value string
}

// Query keeps parameters in insertion order so request signatures are stable.
type Query []Param

func (q Query) Encode() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// Signature identifies a request in the response cache.
func Signature(endpoint string, q Query) string {
	return endpoint + "?" + q.Encode()
}

type cacheEntry struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Payload   json.RawMessage `json:"payload"`
}

type CoinGeckoClient struct {
	baseURL     string
	userAgent   string
	hc          *http.Client
	cache       Cache
	retention   time.Duration
	minInterval time.Duration
	log         zerolog.Logger

	mu           sync.Mutex
	lastRequest  time.Time
	backoffUntil time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewCoinGeckoClient(cfg config.Config, cache Cache, log zerolog.Logger) *CoinGeckoClient {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &CoinGeckoClient{
		baseURL:     strings.TrimRight(cfg.CoinGeckoBaseURL, "/"),
		userAgent:   cfg.UserAgent,
		hc:          &http.Client{Timeout: cfg.RequestTimeout},
		cache:       cache,
		retention:   cfg.CacheRetention,
		minInterval: cfg.MinRequestInterval,
		log:         log.With().Str("component", "coingecko").Logger(),
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// Fetch decodes the payload for endpoint into out. A cache entry younger than
// ttl is served without an outbound call; older entries back up failed calls.
func (c *CoinGeckoClient) Fetch(ctx context.Context, endpoint string, q Query, ttl time.Duration, out any) error {
	sig := Signature(endpoint, q)
	key := "cg:v1:" + sig
	entry, cached := c.lookup(ctx, key)
	if cached && c.now().Sub(entry.FetchedAt) < ttl {
		return decodePayload(endpoint, entry.Payload, out)
	}

	if err := c.backoffError(); err != nil {
		if cached {
			return decodePayload(endpoint, entry.Payload, out)
		}
		return err
	}
	if err := c.wait(ctx); err != nil {
		return c.staleOr(endpoint, entry, cached, &NetworkError{Endpoint: endpoint, Err: err}, out)
	}
	fetchedAt := c.now()
	payload, err := c.get(ctx, endpoint, q)
	if err != nil {
		var upErr *UpstreamError
		if errors.As(err, &upErr) {
			c.log.Warn().Str("endpoint", endpoint).Int("status", upErr.Status).Str("body", upErr.Body).Msg("coingecko api error")
			if upErr.RateLimited() {
				c.setBackoff(upErr.RetryAfter)
			}
			if upErr.RateLimited() && cached {
				c.log.Info().Str("endpoint", endpoint).Msg("rate limited, serving cached payload")
				return decodePayload(endpoint, entry.Payload, out)
			}
		}
		return c.staleOr(endpoint, entry, cached, err, out)
	}

	// Payloads that do not decode never replace a good entry.
	if err := decodePayload(endpoint, payload, out); err != nil {
		return c.staleOr(endpoint, entry, cached, err, out)
	}
	c.store(ctx, key, cacheEntry{FetchedAt: fetchedAt, Payload: payload})
	return nil
}

// Ping checks that the upstream answers at all.
func (c *CoinGeckoClient) Ping(ctx context.Context) error {
	if err := c.backoffError(); err != nil {
		return err
	}
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err := c.get(ctx, "ping", nil)
	return err
}

// Remember stores a derived value next to the response cache.
func (c *CoinGeckoClient) Remember(ctx context.Context, name string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.store(ctx, "cg:v1:value:"+name, cacheEntry{FetchedAt: c.now(), Payload: b})
}

// Recall loads a value stored with Remember if it is younger than ttl.
func (c *CoinGeckoClient) Recall(ctx context.Context, name string, ttl time.Duration, out any) bool {
	entry, ok := c.lookup(ctx, "cg:v1:value:"+name)
	if !ok || c.now().Sub(entry.FetchedAt) >= ttl {
		return false
	}
	return json.Unmarshal(entry.Payload, out) == nil
}

func (c *CoinGeckoClient) staleOr(endpoint string, entry cacheEntry, cached bool, err error, out any) error {
	if !cached {
		return err
	}
	c.log.Warn().Err(err).Str("endpoint", endpoint).
		Dur("age", c.now().Sub(entry.FetchedAt)).
		Msg("using expired cached data")
	resetOut(out)
	return decodePayload(endpoint, entry.Payload, out)
}

// backoff returns the end of the current Retry-After window, or zero.
func (c *CoinGeckoClient) backoff() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backoffUntil.IsZero() || !c.now().Before(c.backoffUntil) {
		return time.Time{}
	}
	return c.backoffUntil
}

// backoffError is a synthetic 429 while a Retry-After window is open.
func (c *CoinGeckoClient) backoffError() error {
	until := c.backoff()
	if until.IsZero() {
		return nil
	}
	return &UpstreamError{Status: http.StatusTooManyRequests, Body: "backing off until " + until.UTC().Format(time.RFC3339)}
}

func (c *CoinGeckoClient) setBackoff(d time.Duration) {
	if d <= 0 {
		return
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	until := c.now().Add(d)
	if until.After(c.backoffUntil) {
		c.backoffUntil = until
	}
}

func (c *CoinGeckoClient) wait(ctx context.Context) error {
	if c.minInterval <= 0 {
		return nil
	}
	c.mu.Lock()
	now := c.now()
	next := c.lastRequest.Add(c.minInterval)
	var delay time.Duration
	if now.Before(next) {
		delay = next.Sub(now)
	} else {
		next = now
	}
	c.lastRequest = next
	c.mu.Unlock()

	if delay <= 0 {
		return nil
	}
	return c.sleep(ctx, delay)
}

func (c *CoinGeckoClient) get(ctx context.Context, endpoint string, q Query) (json.RawMessage, error) {
	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &UpstreamError{Status: res.StatusCode, Body: string(body), RetryAfter: retryAfter(res.Header)}
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxPayloadBytes))
	if err != nil {
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	if !json.Valid(body) {
		return nil, invalidShape(endpoint, "body is not json")
	}
	return json.RawMessage(body), nil
}

func (c *CoinGeckoClient) lookup(ctx context.Context, key string) (cacheEntry, bool) {
	b, ok := c.cache.Get(ctx, key)
	if !ok {
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := UnmarshalCache(b, &entry); err != nil || len(entry.Payload) == 0 {
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *CoinGeckoClient) store(ctx context.Context, key string, entry cacheEntry) {
	b, err := MarshalCache(entry)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, b, c.retention); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func decodePayload(endpoint string, payload json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &NormalizationError{Endpoint: endpoint, Reason: "unexpected payload shape", Err: err}
	}
	return nil
}

// resetOut clears whatever a failed decode left behind in out.
func resetOut(out any) {
	v := reflect.ValueOf(out)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().SetZero()
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limit wait: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
