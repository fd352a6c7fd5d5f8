package services

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// UpstreamError is a non-2xx answer from CoinGecko.
type UpstreamError struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("coingecko api: %d", e.Status)
}

// RateLimited reports a 429 from the upstream.
func (e *UpstreamError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// NetworkError wraps a transport failure for one endpoint.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("coingecko %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NormalizationError means the payload did not have the expected shape.
type NormalizationError struct {
	Endpoint string
	Reason   string
	Err      error
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("coingecko %s: %s: %v", e.Endpoint, e.Reason, e.Err)
	}
	return fmt.Sprintf("coingecko %s: %s", e.Endpoint, e.Reason)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

func invalidShape(endpoint string, reason string) error {
	return &NormalizationError{Endpoint: endpoint, Reason: reason}
}

// IsRateLimited reports whether err carries an upstream 429.
func IsRateLimited(err error) bool {
	var upErr *UpstreamError
	return errors.As(err, &upErr) && upErr.RateLimited()
}
