package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/satishbabariya/docql/query/ast"
)

var (
	// OperationsTotal counts store operations by backend, operation and status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docql_store_operations_total",
			Help: "Total number of store operations",
		},
		[]string{"backend", "operation", "status"},
	)
	// OperationDuration is the latency of store operations.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docql_store_operation_duration_seconds",
			Help:    "Store operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)
	// DocumentsReturned counts documents returned by Find.
	DocumentsReturned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docql_store_documents_returned_total",
			Help: "Total number of documents returned by find",
		},
		[]string{"backend", "collection"},
	)
)

// instrumented wraps a Persistence with Prometheus metrics.
type instrumented struct {
	next    Persistence
	backend string
}

// Instrument records metrics for every call to p under the backend label.
func Instrument(p Persistence, backend string) Persistence {
	return &instrumented{next: p, backend: backend}
}

func (i *instrumented) Find(ctx context.Context, collection string, q *ast.Query) ([]json.RawMessage, error) {
	start := time.Now()
	docs, err := i.next.Find(ctx, collection, q)
	i.observe("find", start, err)
	if err == nil {
		DocumentsReturned.WithLabelValues(i.backend, collection).Add(float64(len(docs)))
	}
	return docs, err
}

func (i *instrumented) Insert(ctx context.Context, collection string, doc json.RawMessage) (string, error) {
	start := time.Now()
	id, err := i.next.Insert(ctx, collection, doc)
	i.observe("insert", start, err)
	return id, err
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	OperationsTotal.WithLabelValues(i.backend, op, status).Inc()
	OperationDuration.WithLabelValues(i.backend, op).Observe(time.Since(start).Seconds())
}
