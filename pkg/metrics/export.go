package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ExportMetrics records per-category progress of an archive export run.
type ExportMetrics struct {
	pages       *prometheus.CounterVec
	records     *prometheus.CounterVec
	truncations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess prometheus.Gauge
}

// NewExportMetrics registers the export metrics on the provided registerer.
func NewExportMetrics(reg prometheus.Registerer) *ExportMetrics {
	if reg == nil {
		return &ExportMetrics{}
	}
	pages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_export_pages_total",
		Help: "Archive pages fetched.",
	}, []string{"category"})
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_export_records_written_total",
		Help: "Records written to CSV.",
	}, []string{"category"})
	truncations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_export_truncated_fetches_total",
		Help: "Store fetches that stopped before the archive was exhausted.",
	}, []string{"category", "reason"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "archive_export_category_duration_seconds",
		Help:    "Time spent exporting one category across all stores.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"category"})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "archive_export_last_success_timestamp_seconds",
		Help: "Unix time of the last run that finished without fatal errors.",
	})
	reg.MustRegister(pages, records, truncations, duration, lastSuccess)
	return &ExportMetrics{
		pages:       pages,
		records:     records,
		truncations: truncations,
		duration:    duration,
		lastSuccess: lastSuccess,
	}
}

// IncPages counts fetched pages for the category.
func (m *ExportMetrics) IncPages(category string, n int) {
	if m == nil || m.pages == nil || n <= 0 {
		return
	}
	m.pages.WithLabelValues(normalizeLabel(category)).Add(float64(n))
}

// AddRecords counts rows written for the category.
func (m *ExportMetrics) AddRecords(category string, n int) {
	if m == nil || m.records == nil || n <= 0 {
		return
	}
	m.records.WithLabelValues(normalizeLabel(category)).Add(float64(n))
}

// IncTruncated counts a store fetch that ended early.
func (m *ExportMetrics) IncTruncated(category, reason string) {
	if m == nil || m.truncations == nil {
		return
	}
	m.truncations.WithLabelValues(normalizeLabel(category), normalizeLabel(reason)).Inc()
}

// ObserveDuration records the wall time of a category export.
func (m *ExportMetrics) ObserveDuration(category string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(category)).Observe(d.Seconds())
}

// MarkSuccess stamps the completion time of a successful run.
func (m *ExportMetrics) MarkSuccess(at time.Time) {
	if m == nil || m.lastSuccess == nil {
		return
	}
	m.lastSuccess.Set(float64(at.Unix()))
}

// WriteTextfile dumps the gathered metrics for the node-exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" || g == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
