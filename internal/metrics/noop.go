package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncRegistration(status string)                   {}
func (n *NoopRecorder) IncLogin(status string)                          {}
func (n *NoopRecorder) IncTokenValidation(result string)                {}
func (n *NoopRecorder) IncSummarize(status string)                      {}
func (n *NoopRecorder) ObserveSummarizeDuration(duration time.Duration) {}
func (n *NoopRecorder) IncUserCacheHit()                                {}
func (n *NoopRecorder) IncUserCacheMiss()                               {}
func (n *NoopRecorder) IncRequestLogPublished(status string)            {}
func (n *NoopRecorder) IncRequestLogProcessed(status string)            {}
func (n *NoopRecorder) ObserveRequestLogBatchSize(size int)             {}
func (n *NoopRecorder) ObserveRequestLogBatchDuration(d time.Duration)  {}
func (n *NoopRecorder) SetRequestLogQueueDepth(depth int64)             {}
func (n *NoopRecorder) ObserveRequestLogIngestLag(lag time.Duration)    {}
