// Package metrics registers the bot's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PostsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "waribiz_posts_published_total",
		Help: "Successful Facebook publishes.",
	})
	PostsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "waribiz_posts_failed_total",
		Help: "Failed Facebook publishes.",
	})
	GenerationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "waribiz_generation_failures_total",
		Help: "Failed message generations.",
	})
	TicksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "waribiz_ticks_dropped_total",
		Help: "Auto-post ticks dropped because the previous one was still running.",
	})
	ExpiryAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "waribiz_token_expiry_alerts_total",
		Help: "Token expiry notifications sent to users.",
	})
)
