// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: 6a1d3f5b-7c9e-4b2d-8f0a-2c4e6a8b0d1f

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	libraryOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookshelf",
		Name:      "library_operations_total",
		Help:      "Total number of library operations by operation and outcome",
	}, []string{"operation", "outcome"})
	libraryOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bookshelf",
		Name:      "library_operation_duration_seconds",
		Help:      "Histogram of library operation durations in seconds by operation",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2.5, 12), // ~0.5ms up to ~30s, lookups included
	}, []string{"operation"})
	booksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bookshelf",
		Name:      "books_total",
		Help:      "Current number of books in the library",
	})
	metadataLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookshelf",
		Name:      "metadata_lookups_total",
		Help:      "Total number of ISBN metadata lookups by outcome",
	}, []string{"outcome"})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(libraryOperations, libraryOperationDuration, booksGauge, metadataLookups)
	})
}

// ObserveLibraryOperation records the outcome and duration of a store operation.
func ObserveLibraryOperation(operation, outcome string, d time.Duration) {
	libraryOperations.WithLabelValues(operation, outcome).Inc()
	libraryOperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncLookup counts a metadata lookup by outcome.
func IncLookup(outcome string) { metadataLookups.WithLabelValues(outcome).Inc() }

// SetBooks sets the current collection size.
func SetBooks(n int) { booksGauge.Set(float64(n)) }
