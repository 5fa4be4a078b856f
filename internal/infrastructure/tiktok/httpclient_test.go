package tiktok

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiktok-analytics-layer/internal/domain"
)

func testClient(t *testing.T, cfg RetryConfig) *Client {
	t.Helper()
	return NewClient(&http.Client{}, zerolog.Nop(), cfg, nil, "test")
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 3, BackoffBase: 5 * time.Millisecond, Timeout: time.Second}
}

func TestDoJSONRetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"code":0,"message":"success"}`))
	}))
	defer srv.Close()

	c := testClient(t, fastRetry())

	var env Envelope
	err := c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, &env)

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 0, env.Code)
}

func TestDoJSONClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := testClient(t, fastRetry())

	err := c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.StatusCode)
	assert.False(t, he.Transient())
}

func TestDoJSONExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(t, fastRetry())

	err := c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetriesExhausted)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoJSONBackoffIncreases(t *testing.T) {
	var stamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stamps = append(stamps, time.Now())
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := RetryConfig{MaxRetries: 3, BackoffBase: 20 * time.Millisecond, Timeout: time.Second}
	c := testClient(t, cfg)

	_ = c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)

	require.Len(t, stamps, 3)
	first := stamps[1].Sub(stamps[0])
	second := stamps[2].Sub(stamps[1])
	assert.GreaterOrEqual(t, first, 20*time.Millisecond)
	assert.GreaterOrEqual(t, second, 40*time.Millisecond)
}

func TestDoJSONSendsBodyAndHeaders(t *testing.T) {
	var (
		gotContentType string
		gotToken       string
		gotBody        []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotToken = r.Header.Get("Access-Token")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = buf
		w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	c := testClient(t, fastRetry())

	header := http.Header{}
	header.Set("Access-Token", "tok")
	err := c.DoJSON(context.Background(), http.MethodPost, srv.URL, header, map[string]string{"k": "v"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "tok", gotToken)
	assert.JSONEq(t, `{"k":"v"}`, string(gotBody))
}

func TestDoJSONAttemptTimeoutIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// Outlive the per-attempt timeout so every attempt deadlines.
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := RetryConfig{MaxRetries: 2, BackoffBase: 5 * time.Millisecond, Timeout: 30 * time.Millisecond}
	c := testClient(t, cfg)

	err := c.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetriesExhausted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoJSONCallerCancelMidFlightIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := testClient(t, RetryConfig{MaxRetries: 5, BackoffBase: 5 * time.Millisecond, Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := c.DoJSON(ctx, http.MethodGet, srv.URL, nil, nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDoJSONCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(t, RetryConfig{MaxRetries: 5, BackoffBase: 50 * time.Millisecond, Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.DoJSON(ctx, http.MethodGet, srv.URL, nil, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
