// Package metrics provides Prometheus counters for the tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TransitionsApplied counts lifecycle transitions by operation.
var TransitionsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "serptrack",
	Name:      "transitions_applied_total",
	Help:      "Total lifecycle transitions applied.",
}, []string{"op"})

// RecommendationsServed counts recommendations by resulting action.
var RecommendationsServed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "serptrack",
	Name:      "recommendations_served_total",
	Help:      "Total recommendations computed, by action.",
}, []string{"action"})

// StatRefreshes counts Search Console snapshot pulls.
var StatRefreshes = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "serptrack",
	Name:      "stat_refreshes_total",
	Help:      "Total stat snapshots fetched from the metrics source.",
})

// StatRefreshFailures counts pulls that returned no fresh data.
var StatRefreshFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "serptrack",
	Name:      "stat_refresh_failures_total",
	Help:      "Total stat fetches that failed (treated as no fresh data).",
})

// RecrawlFailures counts best-effort recrawl requests that failed.
var RecrawlFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "serptrack",
	Name:      "recrawl_failures_total",
	Help:      "Total recrawl requests that failed (non-fatal).",
})
