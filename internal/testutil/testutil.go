package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/asimzz/text-summarization-system/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 731001

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// DropSchema removes every application table and the goose version table
// so the next migration run starts from scratch.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `DROP TABLE IF EXISTS request_logs, users, goose_db_version CASCADE`)
	if err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a test user with sensible defaults.
// PasswordHash is a placeholder; callers that log in must hash a real password.
func NewTestUser(t testing.TB, username string) *model.User {
	t.Helper()
	return &model.User{
		ID:           ulid.Make().String(),
		Username:     username,
		FullName:     "Test " + username,
		PasswordHash: "$2a$04$placeholderplaceholderplaceholderplaceholderplacehold",
		Email:        username + "@example.com",
		Role:         model.RoleUser,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestRequestLog creates a request log for user with sensible defaults.
func NewTestRequestLog(t testing.TB, user *model.User) *model.RequestLog {
	t.Helper()
	response, _ := json.Marshal(map[string]string{"summary_text": "short summary"})
	return &model.RequestLog{
		ID:             ulid.Make().String(),
		Username:       user.Username,
		UserID:         user.ID,
		Time:           time.Now().UTC().Truncate(time.Microsecond),
		Endpoint:       "/summarize",
		RequestBody:    json.RawMessage(`{"text":"a long text to summarize"}`),
		RequestHeaders: map[string]string{"content-type": "application/json"},
		ResponseBody:   response,
		StatusCode:     200,
	}
}

// UniqueUsername generates a unique username for tests.
func UniqueUsername(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}
