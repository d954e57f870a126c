// Package metrics exposes the Prometheus collectors of the reference data API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Mutations counts committed audited mutations.
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refdata_mutations_total",
		Help: "Committed audited mutations by entity and action.",
	}, []string{"entity", "action"})

	// MutationAborts counts transactions that were rolled back.
	MutationAborts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refdata_mutation_aborts_total",
		Help: "Aborted mutation transactions by entity and operation.",
	}, []string{"entity", "op"})

	// BulkRows counts imported rows by outcome.
	BulkRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refdata_bulk_rows_total",
		Help: "Bulk import rows by entity and result.",
	}, []string{"entity", "result"})

	// RequestDuration observes HTTP latency by route template.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "refdata_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
