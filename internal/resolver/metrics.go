package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolutionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quire_resolutions_total",
			Help: "Number of resolution runs started.",
		},
	)
	resolutionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quire_resolution_failures_total",
			Help: "Number of failed resolution runs by reason.",
		},
		[]string{"reason"},
	)

	conflictsDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quire_conflicts_detected_total",
			Help: "Number of distinct conflicts detected, by conflict type.",
		},
		[]string{"type"},
	)

	resolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quire_resolution_duration_seconds",
			Help:    "Time taken by a full resolution run.",
			Buckets: prometheus.DefBuckets,
		},
	)
	resolutionIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quire_resolution_iterations",
			Help:    "Planner iterations consumed per resolution run.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)
)

const (
	failureNotFound     = "package-not-found"
	failureUnresolvable = "unresolvable-conflict"
	failureCycle        = "circular-dependency"
	failureCanceled     = "canceled"
	failureProvider     = "provider"
)
