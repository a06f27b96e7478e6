package requestlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/asimzz/text-summarization-system/internal/metrics"
	"github.com/asimzz/text-summarization-system/internal/model"
)

// ConsumerGroup is the consumer group every API instance joins on StreamKey.
const ConsumerGroup = "request_log_writers"

const (
	defaultBatchSize    = 100
	defaultBlockTimeout = 5 * time.Second
	defaultMaxAttempts  = 3
	defaultRetryBackoff = time.Second
	defaultClaimEvery   = 10 * time.Second
	defaultClaimIdle    = 30 * time.Second
	defaultDepthEvery   = 5 * time.Second

	deadLetterMaxLen = 10000
)

// WorkerConfig tunes the stream consumer. Zero fields take defaults.
type WorkerConfig struct {
	ConsumerID   string
	BatchSize    int
	BlockTimeout time.Duration
	// MaxAttempts bounds inserts per batch; RetryBackoff doubles between them.
	MaxAttempts  int
	RetryBackoff time.Duration
	// Entries pending longer than ClaimIdle are taken over every ClaimEvery.
	ClaimEvery time.Duration
	ClaimIdle  time.Duration
	DepthEvery time.Duration
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.ConsumerID == "" {
		c.ConsumerID = NewConsumerID()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.BlockTimeout <= 0 {
		c.BlockTimeout = defaultBlockTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	if c.ClaimEvery <= 0 {
		c.ClaimEvery = defaultClaimEvery
	}
	if c.ClaimIdle <= 0 {
		c.ClaimIdle = defaultClaimIdle
	}
	if c.DepthEvery <= 0 {
		c.DepthEvery = defaultDepthEvery
	}
	return c
}

// NewConsumerID names this process within the consumer group.
func NewConsumerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "api"
	}
	return host + "-" + strings.ToLower(ulid.Make().String())
}

// BatchInserter persists batches of request logs idempotently.
type BatchInserter interface {
	BulkInsertRequestLogs(ctx context.Context, entries []*model.RequestLog) error
}

// Worker drains StreamKey into Postgres for the async request log mode.
// Entries are acknowledged only after they are stored; undecodable ones
// go to DeadLetterStreamKey.
type Worker struct {
	client  *redis.Client
	repo    BatchInserter
	cfg     WorkerConfig
	logger  *slog.Logger
	metrics metrics.Recorder

	claimCursor string
	nextClaim   time.Time
	nextDepth   time.Time

	running  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewWorker creates a request log worker.
func NewWorker(client *redis.Client, repo BatchInserter, logger *slog.Logger, recorder metrics.Recorder, cfg WorkerConfig) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	cfg = cfg.withDefaults()
	return &Worker{
		client:      client,
		repo:        repo,
		cfg:         cfg,
		logger:      logger.With("component", "requestlog.worker", "consumer_id", cfg.ConsumerID),
		metrics:     recorder,
		claimCursor: "0-0",
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Run consumes the stream until ctx is cancelled or Shutdown is called.
// It only returns an error when the consumer group cannot be created.
func (w *Worker) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return errors.New("request log worker already running")
	}
	defer close(w.done)

	select {
	case <-w.stop:
		return nil
	default:
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := w.client.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return fmt.Errorf("create consumer group: %w", err)
	}

	w.logger.Info("request log worker started", "batch_size", w.cfg.BatchSize)
	for ctx.Err() == nil {
		if err := w.step(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("request log step failed", "error", err)
			sleepCtx(ctx, time.Second)
		}
	}
	w.logger.Info("request log worker stopped")
	return nil
}

// Shutdown stops Run and waits for it to return. An insert cut short is
// left pending and reclaimed later.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.stop) })
	if !w.running.Load() {
		return nil
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn("request log worker shutdown timed out")
		return ctx.Err()
	}
}

// step fetches one batch, stores what decodes and acknowledges the rest.
func (w *Worker) step(ctx context.Context) error {
	w.refreshDepth(ctx)

	messages, err := w.fetch(ctx)
	if err != nil || len(messages) == 0 {
		return err
	}

	entries, ids := w.decode(ctx, messages)
	if len(entries) > 0 {
		if err := w.persist(ctx, entries); err != nil {
			return err
		}
	}
	return w.ack(ctx, ids)
}

// fetch prefers stale pending entries when a claim is due, then new ones.
func (w *Worker) fetch(ctx context.Context) ([]redis.XMessage, error) {
	if now := time.Now(); !now.Before(w.nextClaim) {
		w.nextClaim = now.Add(w.cfg.ClaimEvery)
		claimed, err := w.claimStale(ctx)
		if err != nil {
			w.logger.Warn("failed to claim stale request logs", "error", err)
		} else if len(claimed) > 0 {
			w.logger.Info("claimed stale request logs", "count", len(claimed))
			return claimed, nil
		}
	}

	streams, err := w.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.cfg.ConsumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(w.cfg.BatchSize),
		Block:    w.cfg.BlockTimeout,
	}).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("xreadgroup: %w", err)
	case len(streams) == 0:
		return nil, nil
	}
	return streams[0].Messages, nil
}

func (w *Worker) claimStale(ctx context.Context) ([]redis.XMessage, error) {
	messages, cursor, err := w.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroup,
		Consumer: w.cfg.ConsumerID,
		MinIdle:  w.cfg.ClaimIdle,
		Start:    w.claimCursor,
		Count:    int64(w.cfg.BatchSize),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	if cursor != "" {
		w.claimCursor = cursor
	}
	return messages, nil
}

func (w *Worker) refreshDepth(ctx context.Context) {
	now := time.Now()
	if now.Before(w.nextDepth) {
		return
	}
	w.nextDepth = now.Add(w.cfg.DepthEvery)

	groups, err := w.client.XInfoGroups(ctx, StreamKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			w.logger.Warn("failed to read request log backlog", "error", err)
		}
		return
	}
	for _, g := range groups {
		if g.Name == ConsumerGroup {
			w.metrics.SetRequestLogQueueDepth(g.Pending + g.Lag)
			return
		}
	}
}

// decode returns the storable entries and the ids of every message,
// dead-lettered ones included, so all of them get acknowledged.
func (w *Worker) decode(ctx context.Context, messages []redis.XMessage) ([]*model.RequestLog, []string) {
	entries := make([]*model.RequestLog, 0, len(messages))
	ids := make([]string, 0, len(messages))

	for _, msg := range messages {
		ids = append(ids, msg.ID)
		entry, bad := decodeMessage(msg)
		if bad != nil {
			w.deadLetter(ctx, msg, bad)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, ids
}

// poison explains why a stream message cannot become a request log.
type poison struct {
	reason string
	detail string
}

func decodeMessage(msg redis.XMessage) (*model.RequestLog, *poison) {
	raw, ok := msg.Values["payload"].(string)
	if !ok {
		return nil, &poison{"invalid_format", "payload field missing or not a string"}
	}

	var payload Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &poison{"unmarshal_error", err.Error()}
	}
	if err := ValidatePayload(payload); err != nil {
		return nil, &poison{"validation_error", err.Error()}
	}
	return payload.RequestLog(), nil
}

func (w *Worker) deadLetter(ctx context.Context, msg redis.XMessage, bad *poison) {
	w.logger.Warn("dead-lettering request log",
		"message_id", msg.ID,
		"reason", bad.reason,
		"detail", bad.detail,
	)

	err := w.client.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: deadLetterMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"source_id":     msg.ID,
			"source_stream": StreamKey,
			"reason":        bad.reason,
			"detail":        bad.detail,
			"payload":       msg.Values["payload"],
			"failed_at":     time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		w.logger.Error("failed to dead-letter request log", "message_id", msg.ID, "error", err)
	}
	w.metrics.IncRequestLogProcessed("dead_lettered")
}

// persist inserts entries, retrying with doubling backoff. On final failure
// the batch stays pending for a later claim.
func (w *Worker) persist(ctx context.Context, entries []*model.RequestLog) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = w.insert(ctx, entries); err == nil {
			return nil
		}
		if attempt == w.cfg.MaxAttempts {
			break
		}

		wait := w.cfg.RetryBackoff << (attempt - 1)
		w.logger.Warn("request log insert failed, retrying",
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
		if !sleepCtx(ctx, wait) {
			return ctx.Err()
		}
	}

	for range entries {
		w.metrics.IncRequestLogProcessed("failed")
	}
	w.logger.Error("request log batch left pending",
		"batch_size", len(entries),
		"first_request_log_id", entries[0].ID,
		"error", err,
	)
	return err
}

func (w *Worker) insert(ctx context.Context, entries []*model.RequestLog) error {
	start := time.Now()
	if err := w.repo.BulkInsertRequestLogs(ctx, entries); err != nil {
		return fmt.Errorf("bulk insert: %w", err)
	}
	elapsed := time.Since(start)

	w.metrics.ObserveRequestLogBatchSize(len(entries))
	w.metrics.ObserveRequestLogBatchDuration(elapsed)
	for _, entry := range entries {
		w.metrics.IncRequestLogProcessed("success")
		w.metrics.ObserveRequestLogIngestLag(time.Since(entry.Time))
	}
	w.logger.Debug("request log batch stored", "count", len(entries), "duration", elapsed)
	return nil
}

func (w *Worker) ack(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := w.client.XAck(ctx, StreamKey, ConsumerGroup, ids...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

// sleepCtx waits for d or until ctx is done. It reports whether the full wait elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
