package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"shojo-terminal/backend-go/internal/services"
)

// upstreamReason condenses an upstream failure into a stable short code.
func upstreamReason(err error) string {
	if err == nil {
		return ""
	}
	var upErr *services.UpstreamError
	if errors.As(err, &upErr) {
		if upErr.Status == http.StatusTooManyRequests {
			return "upstream_rate_limited"
		}
		if upErr.Status == http.StatusRequestTimeout || upErr.Status == http.StatusGatewayTimeout {
			return "upstream_timeout"
		}
		return fmt.Sprintf("upstream_status_%d", upErr.Status)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "upstream_timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "upstream_timeout"
	}
	var normErr *services.NormalizationError
	if errors.As(err, &normErr) {
		return "upstream_invalid_payload"
	}
	return "upstream_unreachable"
}
