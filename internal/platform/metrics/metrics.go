// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts served requests by route pattern, method and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffdesk",
		Name:      "http_requests_total",
		Help:      "HTTP requests served.",
	}, []string{"route", "method", "status"})

	// HTTPDuration observes request latency by route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "staffdesk",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	// LoginAttempts counts login outcomes: success, invalid, inactive, rate_limited.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffdesk",
		Name:      "login_attempts_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})

	// RateLimitRejections counts rejected checks per bucket.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffdesk",
		Name:      "rate_limit_rejections_total",
		Help:      "Requests rejected by the sliding-window limiter.",
	}, []string{"bucket"})

	// RateLimitStoreErrors counts checks admitted because the store failed.
	RateLimitStoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffdesk",
		Name:      "rate_limit_store_errors_total",
		Help:      "Limiter store failures (request admitted).",
	}, []string{"bucket"})

	// CSRFFailures counts rejected state-changing requests.
	CSRFFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "staffdesk",
		Name:      "csrf_failures_total",
		Help:      "Requests rejected by CSRF validation.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
