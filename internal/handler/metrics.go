package handler

import (
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/asimzz/text-summarization-system/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus text exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeLabeled(w, "summarizer_registrations_total", "status", snap.Registrations)
	writeLabeled(w, "summarizer_logins_total", "status", snap.Logins)
	writeLabeled(w, "summarizer_token_validations_total", "result", snap.TokenValidations)
	writeLabeled(w, "summarizer_summarize_requests_total", "status", snap.Summaries)

	writeMetric(w, "summarizer_summarize_duration_seconds_count %d\n", snap.SummarizeDurationCount)
	writeMetric(w, "summarizer_summarize_duration_seconds_sum %.6f\n", seconds(snap.SummarizeDurationTotalNs))
	writeMetric(w, "summarizer_user_cache_hits_total %d\n", snap.UserCacheHits)
	writeMetric(w, "summarizer_user_cache_misses_total %d\n", snap.UserCacheMisses)

	writeLabeled(w, "summarizer_request_logs_published_total", "status", snap.RequestLogsPublished)
	writeLabeled(w, "summarizer_request_logs_processed_total", "status", snap.RequestLogsProcessed)
	writeMetric(w, "summarizer_request_log_batches_total %d\n", snap.RequestLogBatchCount)
	writeMetric(w, "summarizer_request_log_batch_size_sum %d\n", snap.RequestLogBatchSizeTotal)
	writeMetric(w, "summarizer_request_log_batch_duration_seconds_sum %.6f\n", seconds(snap.RequestLogBatchDurationTotalNs))
	writeMetric(w, "summarizer_request_log_queue_depth %d\n", snap.RequestLogQueueDepth)
	writeMetric(w, "summarizer_request_log_ingest_lag_seconds_count %d\n", snap.RequestLogIngestLagCount)
	writeMetric(w, "summarizer_request_log_ingest_lag_seconds_sum %.6f\n", seconds(snap.RequestLogIngestLagTotalNs))
}

// writeLabeled emits one line per label value, sorted for stable output.
func writeLabeled(w io.Writer, name, label string, counts map[string]uint64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, k, counts[k])
	}
}

func writeMetric(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func seconds(ns int64) float64 {
	return float64(ns) / 1e9
}
