// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ecofy",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ecofy",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	ProductReports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ecofy",
		Name:      "product_reports_total",
		Help:      "Accepted product reports by reason.",
	}, []string{"reason"})

	ProductRemovals = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ecofy",
		Name:      "product_removals_total",
		Help:      "Products removed after repeated reports.",
	})

	SellerBans = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ecofy",
		Name:      "seller_bans_total",
		Help:      "Upload bans granted to sellers.",
	})

	OTPMails = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ecofy",
		Name:      "otp_mails_total",
		Help:      "Password reset mails by outcome.",
	}, []string{"outcome"})
)
