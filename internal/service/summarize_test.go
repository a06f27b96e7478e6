package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/asimzz/text-summarization-system/internal/metrics"
	"github.com/asimzz/text-summarization-system/internal/model"
	"github.com/asimzz/text-summarization-system/internal/requestlog"
	"github.com/asimzz/text-summarization-system/internal/summarizer"
)

type summarizeEnv struct {
	svc      *SummarizeService
	store    *fakeUserStore
	cache    *fakeCache
	model    *fakeSummarizer
	logs     *fakeLogStore
	recorder *metrics.InMemoryRecorder
}

func newSummarizeEnv(t *testing.T) *summarizeEnv {
	t.Helper()
	env := &summarizeEnv{
		store:    newFakeUserStore(),
		cache:    newFakeCache(),
		model:    &fakeSummarizer{summary: "A short summary."},
		logs:     &fakeLogStore{},
		recorder: metrics.NewInMemory(),
	}
	env.store.users["alice"] = &model.User{ID: "01HV0000000000000000000000", Username: "alice", Role: model.RoleUser}
	env.logs.users = env.store
	env.svc = NewSummarizeService(env.store, env.cache, env.model, env.logs,
		SummarizeConfig{MaxLength: 1000, MinLength: 30}, discardLogger(), env.recorder)
	return env
}

func summarizeInput() SummarizeInput {
	return SummarizeInput{
		Username:       "alice",
		Text:           "A very long article.",
		Endpoint:       "/summarize",
		RequestBody:    json.RawMessage(`{"text":"A very long article."}`),
		RequestHeaders: map[string]string{"content-type": "application/json"},
	}
}

func TestSummarizeService_Success(t *testing.T) {
	t.Parallel()

	env := newSummarizeEnv(t)
	result, err := env.svc.Summarize(context.Background(), summarizeInput())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if result.SummaryText != "A short summary." {
		t.Errorf("SummaryText = %q", result.SummaryText)
	}
	if env.model.maxLength != 1000 || env.model.minLength != 30 {
		t.Errorf("length bounds = %d/%d", env.model.maxLength, env.model.minLength)
	}
	if env.model.text != "A very long article." {
		t.Errorf("text = %q", env.model.text)
	}

	if len(env.logs.entries) != 1 {
		t.Fatalf("request logs = %d, want 1", len(env.logs.entries))
	}
	entry := env.logs.entries[0]
	if entry.ID != result.RequestLogID {
		t.Errorf("RequestLogID = %q, entry ID = %q", result.RequestLogID, entry.ID)
	}
	if entry.Username != "alice" || entry.UserID != "01HV0000000000000000000000" {
		t.Errorf("entry identity = %s/%s", entry.Username, entry.UserID)
	}
	if entry.StatusCode != 200 || entry.Endpoint != "/summarize" {
		t.Errorf("entry status/endpoint = %d %s", entry.StatusCode, entry.Endpoint)
	}
	if string(entry.ResponseBody) != `{"summary_text":"A short summary."}` {
		t.Errorf("ResponseBody = %s", entry.ResponseBody)
	}
	if time.Since(entry.Time) > time.Minute || entry.Time.Location() != time.UTC {
		t.Errorf("Time = %v", entry.Time)
	}

	if env.recorder.Snapshot().Summaries["success"] != 1 {
		t.Error("success metric not recorded")
	}
}

func TestSummarizeService_UsesCache(t *testing.T) {
	t.Parallel()

	env := newSummarizeEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := env.svc.Summarize(ctx, summarizeInput()); err != nil {
			t.Fatalf("Summarize() #%d error = %v", i, err)
		}
	}

	if env.store.gets != 1 {
		t.Errorf("store lookups = %d, want 1", env.store.gets)
	}
	snap := env.recorder.Snapshot()
	if snap.UserCacheMisses != 1 || snap.UserCacheHits != 2 {
		t.Errorf("cache hits/misses = %d/%d, want 2/1", snap.UserCacheHits, snap.UserCacheMisses)
	}
}

func TestSummarizeService_NilCache(t *testing.T) {
	t.Parallel()

	env := newSummarizeEnv(t)
	svc := NewSummarizeService(env.store, nil, env.model, env.logs,
		SummarizeConfig{MaxLength: 100, MinLength: 10}, discardLogger(), nil)

	if _, err := svc.Summarize(context.Background(), summarizeInput()); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
}

func TestSummarizeService_UserNotFound(t *testing.T) {
	t.Parallel()

	env := newSummarizeEnv(t)
	input := summarizeInput()
	input.Username = "deleted-user"

	_, err := env.svc.Summarize(context.Background(), input)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Summarize() error = %v, want ErrUserNotFound", err)
	}
	if env.model.text != "" {
		t.Error("model must not be called for a missing user")
	}
	if len(env.logs.entries) != 0 {
		t.Error("no request log for a missing user")
	}
}

func TestSummarizeService_UpstreamFailure(t *testing.T) {
	t.Parallel()

	env := newSummarizeEnv(t)
	env.model.err = summarizer.ErrUpstream

	_, err := env.svc.Summarize(context.Background(), summarizeInput())
	if !errors.Is(err, summarizer.ErrUpstream) {
		t.Fatalf("Summarize() error = %v, want ErrUpstream", err)
	}
	if len(env.logs.entries) != 0 {
		t.Error("failed summaries are not logged")
	}
}

func TestSummarizeService_LogFailureFailsRequest(t *testing.T) {
	t.Parallel()

	env := newSummarizeEnv(t)
	env.logs.err = requestlog.ErrStorageWrite

	result, err := env.svc.Summarize(context.Background(), summarizeInput())
	if !errors.Is(err, requestlog.ErrStorageWrite) {
		t.Fatalf("Summarize() error = %v, want ErrStorageWrite", err)
	}
	if result != nil {
		t.Error("result must be nil when logging fails")
	}
	if env.recorder.Snapshot().Summaries["log_error"] != 1 {
		t.Error("log_error metric not recorded")
	}
}

func TestSummarizeService_CachedUserDeletedFromStore(t *testing.T) {
	t.Parallel()

	env := newSummarizeEnv(t)
	if _, err := env.svc.Summarize(context.Background(), summarizeInput()); err != nil {
		t.Fatalf("first Summarize() error = %v", err)
	}
	if env.cache.users["alice"] == nil {
		t.Fatal("profile should be cached after the first call")
	}

	env.store.mu.Lock()
	delete(env.store.users, "alice")
	env.store.mu.Unlock()

	_, err := env.svc.Summarize(context.Background(), summarizeInput())
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Summarize() error = %v, want ErrUserNotFound", err)
	}
	if len(env.logs.entries) != 1 {
		t.Errorf("request logs = %d, want only the first call", len(env.logs.entries))
	}
	if env.cache.users["alice"] != nil {
		t.Error("stale profile should be evicted")
	}
	if env.recorder.Snapshot().Summaries["user_not_found"] != 1 {
		t.Error("user_not_found metric not recorded")
	}
}

func TestSummarizeService_CachedUserReplaced(t *testing.T) {
	t.Parallel()

	env := newSummarizeEnv(t)
	if _, err := env.svc.Summarize(context.Background(), summarizeInput()); err != nil {
		t.Fatalf("first Summarize() error = %v", err)
	}

	const newID = "01HV9999999999999999999999"
	env.store.mu.Lock()
	env.store.users["alice"] = &model.User{ID: newID, Username: "alice", Role: model.RoleUser}
	env.store.mu.Unlock()

	if _, err := env.svc.Summarize(context.Background(), summarizeInput()); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(env.logs.entries) != 2 {
		t.Fatalf("request logs = %d, want 2", len(env.logs.entries))
	}
	if got := env.logs.entries[1].UserID; got != newID {
		t.Errorf("request log user_id = %s, want %s", got, newID)
	}
	if env.cache.deletes != 1 {
		t.Errorf("cache deletes = %d, want 1", env.cache.deletes)
	}
}
