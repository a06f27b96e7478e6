package requestlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/asimzz/text-summarization-system/internal/metrics"
	"github.com/asimzz/text-summarization-system/internal/model"
)

const (
	// StreamKey is the Redis stream for request logs.
	StreamKey = "stream:request_logs"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:request_logs:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 500 * time.Millisecond
)

// AsyncStore enqueues request logs to a Redis stream without blocking the caller.
// The Worker persists them.
type AsyncStore struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
	timeout time.Duration

	inflight sync.WaitGroup
}

// NewAsyncStore creates a stream-backed request log store.
func NewAsyncStore(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *AsyncStore {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AsyncStore{
		redis:   client,
		logger:  logger.With("component", "requestlog.publisher"),
		metrics: recorder,
		timeout: PublishTimeout,
	}
}

// Publish adds a request log to the stream synchronously.
func (s *AsyncStore) Publish(ctx context.Context, entry *model.RequestLog) (string, error) {
	data, err := json.Marshal(NewPayload(entry))
	if err != nil {
		return "", fmt.Errorf("marshal request log: %w", err)
	}
	return s.publishPayload(ctx, data)
}

func (s *AsyncStore) publishPayload(ctx context.Context, data []byte) (string, error) {
	result, err := s.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// Append publishes entry in the background and returns immediately.
// Only an unencodable entry is reported to the caller; publish failures
// are logged and counted as dropped.
func (s *AsyncStore) Append(_ context.Context, entry *model.RequestLog) error {
	data, err := json.Marshal(NewPayload(entry))
	if err != nil {
		s.metrics.IncRequestLogPublished("dropped")
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	id, username := entry.ID, entry.Username
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		streamID, err := s.publishPayload(ctx, data)
		if err != nil {
			s.logger.Warn("failed to publish request log",
				"request_log_id", id,
				"username", username,
				"error", err,
			)
			s.metrics.IncRequestLogPublished("dropped")
			return
		}

		s.logger.Debug("request log published",
			"request_log_id", id,
			"stream_id", streamID,
		)
		s.metrics.IncRequestLogPublished("success")
	}()

	return nil
}

// Shutdown waits for in-flight publishes to finish.
func (s *AsyncStore) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
