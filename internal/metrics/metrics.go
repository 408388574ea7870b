// Package metrics registers the Prometheus collectors shared across the
// daemon and exposes the scrape handler mounted on the HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// StageAttempts counts stage executions by stage and outcome
	// (success, retry, failed, claim_lost).
	StageAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "callaudit",
		Name:      "stage_attempts_total",
		Help:      "Stage executions partitioned by stage and outcome.",
	}, []string{"stage", "outcome"})

	// StageDuration observes wall-clock stage execution time.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "callaudit",
		Name:      "stage_duration_seconds",
		Help:      "Stage execution duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12),
	}, []string{"stage"})

	// StaleClaimsReclaimed counts processing claims returned to pending by
	// the stale-claim reclaimer.
	StaleClaimsReclaimed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "callaudit",
		Name:      "stale_claims_reclaimed_total",
		Help:      "Stage claims reclaimed after their worker went silent.",
	}, []string{"stage"})

	// WebhookRequests counts ingestion webhook deliveries by result
	// (accepted, duplicate, rejected, invalid).
	WebhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "callaudit",
		Name:      "webhook_requests_total",
		Help:      "Webhook deliveries partitioned by result.",
	}, []string{"result"})

	// AlertsSent counts warning alert emails successfully delivered.
	AlertsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "callaudit",
		Name:      "alerts_sent_total",
		Help:      "Warning alert emails delivered.",
	})
)

// Handler returns the HTTP handler serving the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
