// Package metrics provides Prometheus metrics for the Fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal tracks total duplicate scans by status
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "detection",
			Name:      "scans_total",
			Help:      "Total number of duplicate scans by status",
		},
		[]string{"tenant_id", "status"},
	)

	// ScanDuration tracks duplicate scan duration in seconds
	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "detection",
			Name:      "scan_duration_seconds",
			Help:      "Duration of duplicate scans in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"tenant_id"},
	)

	// GroupsFound tracks duplicate groups found per scan by match type
	GroupsFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "detection",
			Name:      "groups_found_total",
			Help:      "Total number of duplicate groups found by match type",
		},
		[]string{"tenant_id", "match_type"},
	)

	// ScansInFlight tracks scans currently running
	ScansInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fern",
			Subsystem: "detection",
			Name:      "scans_in_flight",
			Help:      "Number of duplicate scans currently running",
		},
	)

	// MergesTotal tracks executed merges by status
	MergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "merging",
			Name:      "merges_total",
			Help:      "Total number of executed merges by status",
		},
		[]string{"tenant_id", "status"},
	)

	// ContactsMerged tracks source contacts absorbed by merges
	ContactsMerged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "merging",
			Name:      "contacts_merged_total",
			Help:      "Total number of source contacts absorbed by merges",
		},
		[]string{"tenant_id"},
	)

	// ChangeFeedMessages tracks change-feed messages consumed by outcome
	ChangeFeedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "consumer",
			Name:      "change_feed_messages_total",
			Help:      "Total number of change-feed messages consumed by outcome",
		},
		[]string{"outcome"},
	)
)
