package checks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"pagewatch/internal/config"
)

// maxDrainBytes bounds how much of a response body is read before closing.
const maxDrainBytes = 64 << 10

// Checker probes a URL.
type Checker interface {
	Check(ctx context.Context, url string) Result
}

// HTTPChecker probes pages with a single GET request.
type HTTPChecker struct {
	client    *http.Client
	userAgent string
}

// NewHTTPChecker creates a new HTTP checker.
//
// Parameters:
//   - cfg: HTTP check settings (timeout, redirect policy, user agent)
//
// Returns:
//   - *HTTPChecker: checker safe for concurrent use
func NewHTTPChecker(cfg config.HTTPCheckConfig) *HTTPChecker {
	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}

	// A nil CheckRedirect keeps the default policy of up to 10 redirects
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &HTTPChecker{
		client:    client,
		userAgent: cfg.UserAgent,
	}
}

// Check issues one GET to url and classifies the outcome.
//
// The elapsed time covers sending the request until the response headers
// arrive. Any transport failure (DNS, connection, TLS, timeout, cancelled
// ctx, malformed URL) yields a down result without code or latency. The
// body is drained up to a fixed limit and closed, outside the measured time.
//
// Parameters:
//   - ctx: Context for cancellation
//   - url: absolute http or https URL
//
// Returns:
//   - Result: classified probe outcome
func (h *HTTPChecker) Check(ctx context.Context, url string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FailureResult(fmt.Errorf("failed to create request: %w", err))
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return FailureResult(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	return ResponseResult(resp.StatusCode, elapsed)
}
