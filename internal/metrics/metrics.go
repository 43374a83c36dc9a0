// Package metrics exposes Prometheus collectors for the report engine.
package metrics

import (
	"errors"
	"time"

	"cruce-web/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cruce_query_duration_seconds",
			Help:    "Duration of report queries in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"instance", "mode"},
	)

	QueryRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cruce_query_rows_total",
			Help: "Rows returned by report queries",
		},
		[]string{"instance"},
	)

	QueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cruce_query_errors_total",
			Help: "Failed report operations by error kind",
		},
		[]string{"kind"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cruce_cache_lookups_total",
			Help: "Imported table cache lookups",
		},
		[]string{"result"},
	)

	ExportJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cruce_export_jobs_total",
			Help: "Export jobs by format and final status",
		},
		[]string{"format", "status"},
	)
)

// ObserveQuery records duration and row count of one query.
func ObserveQuery(instance, mode string, start time.Time, rows int) {
	QueryDuration.WithLabelValues(instance, mode).Observe(time.Since(start).Seconds())
	QueryRows.WithLabelValues(instance).Add(float64(rows))
}

// ObserveError counts err under its taxonomy kind.
func ObserveError(err error) {
	QueryErrors.WithLabelValues(ErrorKind(err)).Inc()
}

// ErrorKind names the taxonomy bucket of err.
func ErrorKind(err error) string {
	var (
		cfgErr    *models.ConfigError
		connErr   *models.ConnectionError
		queryErr  *models.QueryError
		filterErr *models.FilterValidationError
	)
	switch {
	case errors.As(err, &filterErr):
		return "filter"
	case errors.As(err, &cfgErr):
		return "config"
	case errors.As(err, &connErr):
		return "connection"
	case errors.As(err, &queryErr):
		return "query"
	default:
		return "other"
	}
}
