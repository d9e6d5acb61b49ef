package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsApplied counts canonical events applied per source
	EventsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_events_applied_total",
			Help: "Total number of canonical events applied to the state",
		},
		[]string{"chain", "operator"},
	)

	// ChunksApplied counts committed scrape chunks
	ChunksApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_chunks_applied_total",
			Help: "Total number of event pages applied and committed",
		},
		[]string{"chain", "operator"},
	)

	// FetchErrors counts failed page fetch attempts, retried ones included
	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_fetch_errors_total",
			Help: "Total number of failed upstream fetch attempts",
		},
		[]string{"chain", "operator"},
	)

	// ScrapeAborts counts cycles aborted after exhausting retries
	ScrapeAborts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_scrape_aborts_total",
			Help: "Total number of scrape cycles aborted after retries",
		},
		[]string{"chain", "operator"},
	)

	// LastObservedEvent tracks the highest upstream event index known
	LastObservedEvent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mirror_last_observed_event",
			Help: "Highest upstream event index known to exist",
		},
		[]string{"chain", "operator"},
	)

	// LastScrapedEvent tracks the scrape cursor
	LastScrapedEvent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mirror_last_scraped_event",
			Help: "Highest upstream event index applied locally",
		},
		[]string{"chain", "operator"},
	)

	// FetchLatency tracks upstream page fetch latency
	FetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mirror_fetch_latency_seconds",
			Help:    "Upstream event page fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain", "operator"},
	)

	// SweptRecords counts unverified records deleted by the sweeper
	SweptRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_swept_records_total",
			Help: "Total number of unverified records deleted",
		},
		[]string{"direction"},
	)

	// TaskSkips counts scheduled runs skipped because the previous one was
	// still running
	TaskSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_task_skips_total",
			Help: "Total number of scheduled runs skipped by the task guard",
		},
		[]string{"task"},
	)

	// TokenValidationErrors counts best-effort token metadata failures
	TokenValidationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_token_validation_errors_total",
			Help: "Total number of token metadata fetch or validation failures",
		},
		[]string{"kind"},
	)
)
