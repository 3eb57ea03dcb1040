// Package metrics provides Prometheus metrics for the Sneaker Tracker application.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kicks_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kicks_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Engine Metrics
	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kicks_aggregation_duration_seconds",
			Help:    "Time taken to aggregate a portfolio snapshot",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	PipelineItems = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kicks_pipeline_items",
			Help:    "Number of items entering and leaving the filter/sort pipeline",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"stage"}, // "in", "out"
	)

	MalformedRulesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kicks_malformed_rules_total",
			Help: "Smart rules rejected as malformed",
		},
		[]string{"source"}, // "create", "update", "query", "stored"
	)

	UnavailableMembershipsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kicks_unavailable_memberships_total",
			Help: "Smart collection resolutions that failed because items could not be fetched",
		},
	)

	RuleCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kicks_rule_cache_hits_total",
			Help: "Parsed smart rule cache hit count",
		},
	)

	RuleCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kicks_rule_cache_misses_total",
			Help: "Parsed smart rule cache miss count",
		},
	)

	// Record Store Metrics
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kicks_fetch_requests_total",
			Help: "Record fetches by operation and result",
		},
		[]string{"op", "result"}, // result: "success" or "failed"
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kicks_fetch_duration_seconds",
			Help:    "Record fetch latency including rate limiter wait",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"op"},
	)

	// Portfolio Metrics, refreshed by the valuation worker
	PortfolioItemsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kicks_portfolio_items_total",
			Help: "Number of items held per owner",
		},
		[]string{"owner"},
	)

	PortfolioValueUSD = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kicks_portfolio_value_usd",
			Help: "Total current value of the portfolio in USD per owner",
		},
		[]string{"owner"},
	)

	PortfolioGainPercent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kicks_portfolio_gain_percent",
			Help: "Portfolio gain over cost basis in percent per owner",
		},
		[]string{"owner"},
	)

	ValuationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kicks_valuation_runs_total",
			Help: "Valuation worker runs by result",
		},
		[]string{"result"},
	)

	CatalogEntriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kicks_catalog_entries_total",
			Help: "Number of catalog entries in the database",
		},
	)
)
