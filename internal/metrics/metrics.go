// Package metrics provides the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// DocumentsTotal counts processed uploads by outcome: counted,
	// invalid_type, parse_error, or rejected (intake failures).
	DocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordcount_documents_total",
			Help: "Total number of uploaded documents by outcome",
		},
		[]string{"outcome"},
	)

	// PagesTotal counts PDF pages processed across all documents.
	PagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wordcount_pages_total",
			Help: "Total number of PDF pages processed",
		},
	)

	// WordsTotal counts Devanagari words found across all documents.
	WordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wordcount_words_total",
			Help: "Total number of Devanagari words counted",
		},
	)
)
