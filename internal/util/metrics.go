package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RemoteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "komal_remote_requests_total",
		Help: "Total number of requests sent to the Komal API",
	}, []string{"op", "outcome"})

	RemoteRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "komal_remote_request_latency_seconds",
		Help:    "Latency of Komal API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mutations_total",
		Help: "Total number of dispatched mutations",
	}, []string{"entity", "verb", "outcome"})

	MutationsRejectedInFlight = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mutations_rejected_in_flight_total",
		Help: "Mutations refused because an identical one was still running",
	}, []string{"entity", "verb"})

	ListRecomputationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "list_recomputations_total",
		Help: "Total number of derived list recomputations",
	}, []string{"screen"})

	StaleResponsesDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stale_responses_discarded_total",
		Help: "Load responses dropped because a newer load had started",
	}, []string{"screen"})

	CleanupDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleanup_deleted_total",
		Help: "Records removed by confirmed cleanups",
	}, []string{"entity"})

	ReorderRollbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reorder_rollbacks_total",
		Help: "Optimistic reorders restored after a failed save",
	}, []string{"entity"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_sessions",
		Help: "Number of open UI sessions",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
