// Package metrics exposes the Prometheus collectors shared across the
// integration layer. Collectors are registered once on the default registry
// and served from /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlatformRequests counts outbound TikTok API calls by platform,
	// operation, and outcome (success, platform_error, transport_error).
	PlatformRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiktok_platform_requests_total",
		Help: "Outbound TikTok API calls.",
	}, []string{"platform", "operation", "outcome"})

	// PlatformRetries counts retried attempts inside the HTTP client.
	PlatformRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiktok_platform_retries_total",
		Help: "Retried outbound TikTok API attempts.",
	}, []string{"platform"})

	// Syncs counts integration sync outcomes.
	Syncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "integration_syncs_total",
		Help: "Integration sync runs by outcome.",
	}, []string{"integration", "status"})

	// SyncDuration observes how long a full integration sync takes.
	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "integration_sync_duration_seconds",
		Help:    "Duration of integration sync runs.",
		Buckets: prometheus.DefBuckets,
	}, []string{"integration"})
)

const (
	OutcomeSuccess        = "success"
	OutcomePlatformError  = "platform_error"
	OutcomeTransportError = "transport_error"
)
