// Package metrics holds the Prometheus instruments for the record domain.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all record-domain counters.
type Metrics struct {
	RecordsCreated     prometheus.Counter
	Transitions        *prometheus.CounterVec
	InvalidTransitions prometheus.Counter
	Assignments        prometheus.Counter
	RecordsDeleted     prometheus.Counter
	DeletionFailures   *prometheus.CounterVec
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
}

// New creates and registers all record-domain metrics.
func New() *Metrics {
	return &Metrics{
		RecordsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nonconf_records_created_total",
			Help: "Total number of non-conformance records created",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nonconf_transitions_total",
			Help: "Total number of successful workflow transitions",
		}, []string{"to_status"}),
		InvalidTransitions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nonconf_invalid_transitions_total",
			Help: "Total number of rejected workflow transitions",
		}),
		Assignments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nonconf_assignments_total",
			Help: "Total number of record assignments",
		}),
		RecordsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nonconf_records_deleted_total",
			Help: "Total number of records fully deleted with their dependents",
		}),
		DeletionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nonconf_deletion_failures_total",
			Help: "Total number of cascading deletions aborted, by failed stage",
		}, []string{"stage"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nonconf_list_cache_hits_total",
			Help: "Total number of record list reads served from cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nonconf_list_cache_misses_total",
			Help: "Total number of record list reads that went to the store",
		}),
	}
}
