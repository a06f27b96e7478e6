// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncRegistration(status string) // status: "success", "duplicate", "invalid", "failed"
	IncLogin(status string)        // status: "success", "failed"

	// Bearer token metrics
	IncTokenValidation(result string) // result: "valid", "expired", "invalid", "missing"

	// Summarization metrics
	IncSummarize(status string) // status: "success", "upstream_error", "log_error", "user_not_found"
	ObserveSummarizeDuration(duration time.Duration)
	IncUserCacheHit()
	IncUserCacheMiss()

	// Request log pipeline metrics
	IncRequestLogPublished(status string) // status: "success" or "dropped"
	IncRequestLogProcessed(status string) // status: "success", "failed", "dead_lettered"
	ObserveRequestLogBatchSize(size int)
	ObserveRequestLogBatchDuration(duration time.Duration)
	SetRequestLogQueueDepth(depth int64)
	ObserveRequestLogIngestLag(lag time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
