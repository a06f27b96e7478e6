package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
// Labeled counters are keyed by their status/result label.
type Snapshot struct {
	Registrations    map[string]uint64
	Logins           map[string]uint64
	TokenValidations map[string]uint64
	Summaries        map[string]uint64

	SummarizeDurationCount   uint64
	SummarizeDurationTotalNs int64
	UserCacheHits            uint64
	UserCacheMisses          uint64

	RequestLogsPublished           map[string]uint64
	RequestLogsProcessed           map[string]uint64
	RequestLogBatchCount           uint64
	RequestLogBatchSizeTotal       uint64
	RequestLogBatchDurationTotalNs int64
	RequestLogQueueDepth           int64
	RequestLogIngestLagCount       uint64
	RequestLogIngestLagTotalNs     int64
}

// labeledCounter is a small concurrent map of label -> count.
type labeledCounter struct {
	mu     sync.Mutex
	counts map[string]uint64
}

func (c *labeledCounter) inc(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]uint64)
	}
	c.counts[label]++
}

func (c *labeledCounter) snapshot() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// InMemoryRecorder stores metrics in memory. It backs /metrics and tests.
type InMemoryRecorder struct {
	registrations    labeledCounter
	logins           labeledCounter
	tokenValidations labeledCounter
	summaries        labeledCounter

	summarizeDurationCount   uint64
	summarizeDurationTotalNs int64
	userCacheHits            uint64
	userCacheMisses          uint64

	requestLogsPublished           labeledCounter
	requestLogsProcessed           labeledCounter
	requestLogBatchCount           uint64
	requestLogBatchSizeTotal       uint64
	requestLogBatchDurationTotalNs int64
	requestLogQueueDepth           int64
	requestLogIngestLagCount       uint64
	requestLogIngestLagTotalNs     int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		Registrations:    m.registrations.snapshot(),
		Logins:           m.logins.snapshot(),
		TokenValidations: m.tokenValidations.snapshot(),
		Summaries:        m.summaries.snapshot(),

		SummarizeDurationCount:   atomic.LoadUint64(&m.summarizeDurationCount),
		SummarizeDurationTotalNs: atomic.LoadInt64(&m.summarizeDurationTotalNs),
		UserCacheHits:            atomic.LoadUint64(&m.userCacheHits),
		UserCacheMisses:          atomic.LoadUint64(&m.userCacheMisses),

		RequestLogsPublished:           m.requestLogsPublished.snapshot(),
		RequestLogsProcessed:           m.requestLogsProcessed.snapshot(),
		RequestLogBatchCount:           atomic.LoadUint64(&m.requestLogBatchCount),
		RequestLogBatchSizeTotal:       atomic.LoadUint64(&m.requestLogBatchSizeTotal),
		RequestLogBatchDurationTotalNs: atomic.LoadInt64(&m.requestLogBatchDurationTotalNs),
		RequestLogQueueDepth:           atomic.LoadInt64(&m.requestLogQueueDepth),
		RequestLogIngestLagCount:       atomic.LoadUint64(&m.requestLogIngestLagCount),
		RequestLogIngestLagTotalNs:     atomic.LoadInt64(&m.requestLogIngestLagTotalNs),
	}
}

// IncRegistration increments the registration counter for status.
func (m *InMemoryRecorder) IncRegistration(status string) {
	m.registrations.inc(status)
}

// IncLogin increments the login counter for status.
func (m *InMemoryRecorder) IncLogin(status string) {
	m.logins.inc(status)
}

// IncTokenValidation increments the token validation counter for result.
func (m *InMemoryRecorder) IncTokenValidation(result string) {
	m.tokenValidations.inc(result)
}

// IncSummarize increments the summarize counter for status.
func (m *InMemoryRecorder) IncSummarize(status string) {
	m.summaries.inc(status)
}

// ObserveSummarizeDuration records model call duration.
func (m *InMemoryRecorder) ObserveSummarizeDuration(duration time.Duration) {
	atomic.AddUint64(&m.summarizeDurationCount, 1)
	atomic.AddInt64(&m.summarizeDurationTotalNs, duration.Nanoseconds())
}

// IncUserCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncUserCacheHit() {
	atomic.AddUint64(&m.userCacheHits, 1)
}

// IncUserCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncUserCacheMiss() {
	atomic.AddUint64(&m.userCacheMisses, 1)
}

// IncRequestLogPublished increments the stream publish counter for status.
func (m *InMemoryRecorder) IncRequestLogPublished(status string) {
	m.requestLogsPublished.inc(status)
}

// IncRequestLogProcessed increments the worker outcome counter for status.
func (m *InMemoryRecorder) IncRequestLogProcessed(status string) {
	m.requestLogsProcessed.inc(status)
}

// ObserveRequestLogBatchSize records a persisted batch.
func (m *InMemoryRecorder) ObserveRequestLogBatchSize(size int) {
	atomic.AddUint64(&m.requestLogBatchCount, 1)
	if size > 0 {
		atomic.AddUint64(&m.requestLogBatchSizeTotal, uint64(size))
	}
}

// ObserveRequestLogBatchDuration records how long a batch insert took.
func (m *InMemoryRecorder) ObserveRequestLogBatchDuration(duration time.Duration) {
	atomic.AddInt64(&m.requestLogBatchDurationTotalNs, duration.Nanoseconds())
}

// SetRequestLogQueueDepth stores the latest pending+lag count.
func (m *InMemoryRecorder) SetRequestLogQueueDepth(depth int64) {
	atomic.StoreInt64(&m.requestLogQueueDepth, depth)
}

// ObserveRequestLogIngestLag records time between the request and persistence.
func (m *InMemoryRecorder) ObserveRequestLogIngestLag(lag time.Duration) {
	atomic.AddUint64(&m.requestLogIngestLagCount, 1)
	atomic.AddInt64(&m.requestLogIngestLagTotalNs, lag.Nanoseconds())
}
