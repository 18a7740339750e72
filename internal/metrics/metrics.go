// Package metrics provides Prometheus instrumentation for the duochat
// service. It exposes counters for action throughput and failure modes and
// histograms for request latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActionsTotal counts processed actions and queries, labeled by
	// operation ("register", "send", "list_chats", ...) and outcome
	// ("ok", "invalid", "error").
	ActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "duochat_actions_total",
		Help: "Total number of chat actions and queries processed",
	}, []string{"action", "outcome"})

	// RequestLatency records end-to-end request handling latency in seconds.
	RequestLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "duochat_request_latency_seconds",
		Help:    "Request handling latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	// ChatListPartnerFailures counts partners whose summary degraded to
	// zero values during chat-list aggregation (timeouts, store errors).
	ChatListPartnerFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duochat_chatlist_partner_failures_total",
		Help: "Partner summaries degraded during chat list aggregation",
	})

	// StoreErrors counts errors returned by the key-value backend, labeled
	// by the store that saw them.
	StoreErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "duochat_store_errors_total",
		Help: "Errors returned by the key-value backend",
	}, []string{"store"})

	// RateLimited counts requests rejected by the rate limiter, labeled by
	// rule.
	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "duochat_rate_limited_total",
		Help: "Requests rejected by rate limiting",
	}, []string{"rule"})
)

func init() {
	prometheus.MustRegister(
		ActionsTotal,
		RequestLatency,
		ChatListPartnerFailures,
		StoreErrors,
		RateLimited,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
