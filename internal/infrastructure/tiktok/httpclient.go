package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"tiktok-analytics-layer/internal/domain"
	"tiktok-analytics-layer/internal/infrastructure/metrics"
)

// HTTPError is a non-2xx response from the platform before envelope decoding.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether the status is worth retrying. Client errors are
// deterministic and fail immediately.
func (e *HTTPError) Transient() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// RetryConfig controls the retry loop of the client. MaxRetries is the total
// number of attempts, not the number of retries after the first.
type RetryConfig struct {
	MaxRetries  int
	BackoffBase time.Duration
	Timeout     time.Duration
}

// DefaultRetryConfig returns the production retry policy: three attempts,
// exponential backoff starting at one second, 25s per attempt.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  3,
		BackoffBase: time.Second,
		Timeout:     25 * time.Second,
	}
}

// Client wraps an *http.Client with the retry, timeout, and rate-limit policy
// shared by both platform clients. It is safe for concurrent use.
type Client struct {
	http     *http.Client
	cfg      RetryConfig
	limiter  *rate.Limiter
	platform string
	logger   zerolog.Logger
}

// NewClient builds a policy-wrapped client. A nil http.Client falls back to
// http.DefaultClient; a nil limiter disables rate limiting.
func NewClient(h *http.Client, logger zerolog.Logger, cfg RetryConfig, limiter *rate.Limiter, platform string) *Client {
	if h == nil {
		h = http.DefaultClient
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	return &Client{
		http:     h,
		cfg:      cfg,
		limiter:  limiter,
		platform: platform,
		logger:   logger.With().Str("platform", platform).Logger(),
	}
}

// DoJSON issues the request with retries and decodes the response body into
// out. body, when non-nil, is JSON-encoded and sent with a JSON content type.
// Transient failures (timeouts, connection errors, 5xx) are retried with
// exponential backoff until the attempt budget runs out, at which point the
// last error is wrapped in domain.ErrRetriesExhausted. Non-retryable failures
// (4xx, malformed response bodies, context cancellation) return immediately.
func (c *Client) DoJSON(ctx context.Context, method, rawURL string, header http.Header, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.cfg.BackoffBase << (attempt - 1)
			c.logger.Warn().
				Int("attempt", attempt+1).
				Dur("backoff", delay).
				Err(lastErr).
				Msg("retrying request")
			metrics.PlatformRetries.WithLabelValues(c.platform).Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		err := c.doOnce(ctx, method, rawURL, header, payload, out)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrRetriesExhausted, lastErr)
}

func (c *Client) doOnce(ctx context.Context, method, rawURL string, header http.Header, payload []byte, out any) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &HTTPError{StatusCode: resp.StatusCode, Body: truncate(raw, 512)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// retryable classifies an attempt error. Only transport-level failures and
// server errors qualify; everything else is deterministic.
func retryable(err error) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Transient()
	}
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	// Per-attempt deadline counts as transient; the parent context check in
	// the loop separates caller cancellation from attempt timeout.
	return errors.Is(err, context.DeadlineExceeded)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
