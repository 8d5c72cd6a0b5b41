// Package ea provides the HTTP client for the EA Pro Clubs NHL API.
//
// The upstream API is flaky: it routinely answers 200 with an empty JSON
// object (or a non-JSON body) when it cannot serve a request, and it
// intermittently returns 5xx. The client retries those outcomes with linear
// backoff and degrades to an empty payload once the attempt budget is spent,
// so a failed fetch surfaces as "no data" rather than an error the caller has
// to unwind.
package ea

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Fixed identifying headers the EA API expects on every request.
const (
	refererHeader = "https://www.ea.com"
	userAgent     = "nhl-proclubs-scraper/1.0"
)

// retryableStatuses are transient HTTP statuses worth another attempt.
var retryableStatuses = map[int]bool{
	http.StatusRequestTimeout:      true, // 408
	http.StatusTooManyRequests:     true, // 429
	http.StatusInternalServerError: true, // 500
	http.StatusBadGateway:          true, // 502
	http.StatusServiceUnavailable:  true, // 503
	http.StatusGatewayTimeout:      true, // 504
}

// Client is the shared HTTP client for all EA Pro Clubs endpoints.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxAttempts int
	baseBackoff time.Duration
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates an EA API client with rate limiting and bounded retries.
func NewClient(baseURL string, maxAttempts int, baseBackoff, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		limiter:     rate.NewLimiter(rate.Limit(1), 1),
		logger:      logger,
	}
}

// get performs a GET against an EA endpoint with retries and linear backoff.
//
// Outcome classification per attempt:
//   - 200 with parseable, non-empty JSON: success, returned immediately.
//   - 200 with an empty JSON object, or a non-JSON body: soft failure, retried.
//   - 408/429/500/502/503/504: retried.
//   - any other status: fatal, remaining attempts are skipped.
//   - network error: retried.
//
// Fatal and exhausted outcomes both return a nil payload; callers must treat
// that as "no data", not as a confirmed empty response.
func (c *Client) get(ctx context.Context, path string, params url.Values) json.RawMessage {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			c.logger.Warn("rate limit wait aborted", "url", fullURL, "error", err)
			return nil
		}

		c.logger.Info("requesting EA endpoint",
			"url", fullURL, "attempt", attempt, "max_attempts", c.maxAttempts)

		payload, outcome := c.attempt(ctx, fullURL)
		switch outcome {
		case outcomeSuccess:
			return payload
		case outcomeFatal:
			return nil
		}

		// outcomeRetry: linear backoff before the next attempt.
		if attempt == c.maxAttempts {
			break
		}
		backoff := c.baseBackoff * time.Duration(attempt)
		c.logger.Info("backing off before retry", "url", fullURL, "sleep", backoff)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.logger.Warn("context cancelled during backoff", "url", fullURL)
			return nil
		case <-timer.C:
		}
	}

	c.logger.Error("max attempts reached, returning empty payload", "url", fullURL)
	return nil
}

type attemptOutcome int

const (
	outcomeSuccess attemptOutcome = iota
	outcomeRetry
	outcomeFatal
)

// attempt issues one GET and classifies the response.
func (c *Client) attempt(ctx context.Context, fullURL string) (json.RawMessage, attemptOutcome) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		c.logger.Error("build request", "url", fullURL, "error", err)
		return nil, outcomeFatal
	}
	req.Header.Set("Referer", refererHeader)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "url", fullURL, "outcome", "network_error", "error", err)
		return nil, outcomeRetry
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
	if err != nil {
		c.logger.Warn("read response body", "url", fullURL, "outcome", "network_error", "error", err)
		return nil, outcomeRetry
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if !validJSON(body) {
			c.logger.Warn("200 OK but body was not JSON", "url", fullURL, "outcome", "soft_failure")
			return nil, outcomeRetry
		}
		if emptyObject(body) {
			// EA signals transient unavailability with 200 {}.
			c.logger.Warn("200 OK but empty JSON", "url", fullURL, "outcome", "soft_failure")
			return nil, outcomeRetry
		}
		return json.RawMessage(body), outcomeSuccess

	case retryableStatuses[resp.StatusCode]:
		c.logger.Warn("retryable HTTP status", "url", fullURL, "status", resp.StatusCode, "outcome", "retry")
		return nil, outcomeRetry

	default:
		c.logger.Error("fatal HTTP status", "url", fullURL, "status", resp.StatusCode,
			"outcome", "fatal", "body", truncate(body, 300))
		return nil, outcomeFatal
	}
}

func validJSON(body []byte) bool {
	return json.Valid(body) && len(body) > 0
}

// emptyObject reports whether the body decodes to a JSON object with no keys.
func emptyObject(body []byte) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return false
	}
	return len(m) == 0
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
