package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScansRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scans_recorded_total",
		Help: "Total number of scan events appended to the ledger",
	})

	ScansRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scans_rejected_total",
		Help: "Total number of scan submissions rejected at validation",
	}, []string{"reason"})

	ScansDedupedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scans_deduped_total",
		Help: "Total number of scan submissions dropped as duplicate retries",
	})

	ReportsComputedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reports_computed_total",
		Help: "Total number of reconciliation reports computed",
	})

	ReportComputeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "report_compute_latency_seconds",
		Help:    "Latency of reconciliation report computation including snapshot reads",
		Buckets: prometheus.DefBuckets,
	})

	SessionsClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sessions_closed_total",
		Help: "Total number of count sessions closed",
	})

	ItemEditsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "item_edits_rejected_total",
		Help: "Total number of invoice item edits rejected",
	}, []string{"reason"})

	ItemsImportedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "items_imported_total",
		Help: "Total number of invoice items imported",
	})

	StorageFaultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_faults_total",
		Help: "Total number of storage collaborator failures",
	}, []string{"operation"})

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
