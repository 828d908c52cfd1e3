package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	labelCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "org",
		Subsystem: "labels_cache",
		Name:      "requests_total",
		Help:      "Total number of label cache lookups broken down by backend and hit/miss.",
	}, []string{"backend", "result"})

	labelCacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "org",
		Subsystem: "labels_cache",
		Name:      "invalidate_total",
		Help:      "Total number of label cache invalidations broken down by reason.",
	}, []string{"reason"})

	hierarchyIncidents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "org",
		Subsystem: "hierarchy",
		Name:      "incidents_total",
		Help:      "Total number of corrupt hierarchy walks broken down by operation.",
	}, []string{"operation"})
)

func recordLabelCacheRequest(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	labelCacheRequests.WithLabelValues(backend, result).Inc()
}

func recordLabelCacheInvalidate(reason string) {
	if reason == "" {
		reason = "manual"
	}
	labelCacheInvalidations.WithLabelValues(reason).Inc()
}

func recordHierarchyIncident(op string) {
	if op == "" {
		op = "unknown"
	}
	hierarchyIncidents.WithLabelValues(op).Inc()
}
