//go:build integration

package requestlog

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/asimzz/text-summarization-system/internal/metrics"
	"github.com/asimzz/text-summarization-system/internal/testutil"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	if err := testutil.FlushRedis(ctx, client); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return client
}

func TestAsyncPipeline_PublishAndPersist(t *testing.T) {
	client := newRedisClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recorder := metrics.NewInMemory()
	store := NewAsyncStore(client, discardLogger(), recorder)
	repo := &fakeBatchInserter{}
	worker := NewWorker(client, repo, discardLogger(), recorder, WorkerConfig{BlockTimeout: 100 * time.Millisecond})

	entry := validEntry()
	if err := store.Append(ctx, entry); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	go func() { _ = worker.Run(ctx) }()
	defer func() { _ = worker.Shutdown(context.Background()) }()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		repo.mu.Lock()
		n := len(repo.entries)
		repo.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.entries) != 1 || repo.entries[0].ID != entry.ID {
		t.Fatalf("persisted entries = %+v, want the published entry", repo.entries)
	}
	if recorder.Snapshot().RequestLogsPublished["success"] != 1 {
		t.Errorf("publish metric not recorded")
	}
}

func TestAsyncPipeline_PoisonMessageDeadLettered(t *testing.T) {
	client := newRedisClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		Values: map[string]interface{}{"payload": "{broken"},
	}).Err(); err != nil {
		t.Fatalf("xadd: %v", err)
	}

	recorder := metrics.NewInMemory()
	worker := NewWorker(client, &fakeBatchInserter{}, discardLogger(), recorder, WorkerConfig{BlockTimeout: 100 * time.Millisecond})

	go func() { _ = worker.Run(ctx) }()
	defer func() { _ = worker.Shutdown(context.Background()) }()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		n, err := client.XLen(ctx, DeadLetterStreamKey).Result()
		if err == nil && n == 1 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("poison message was not dead-lettered")
}
