package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"
)

// maxResponseBytes bounds catalog response bodies so a misbehaving endpoint
// cannot exhaust memory.
const maxResponseBytes = 10 * 1024 * 1024

// FetchJSON performs a GET against url and returns the response body. The
// limiter, when non-nil, gates the request; headers are applied verbatim.
func FetchJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, url string, headers map[string]string) ([]byte, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}
	return body, nil
}

// NewLimiter builds a rate limiter from the config, or nil when limiting is
// disabled.
func NewLimiter(cfg Config) *rate.Limiter {
	if cfg.RateLimit <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
}
