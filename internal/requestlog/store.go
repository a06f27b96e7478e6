// Package requestlog records one audit entry per summarize call.
package requestlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/asimzz/text-summarization-system/internal/model"
	"github.com/asimzz/text-summarization-system/internal/repository"
)

// ErrStorageWrite is returned when a request log could not be persisted or enqueued.
var ErrStorageWrite = errors.New("request log storage write failed")

// Store appends request logs.
type Store interface {
	Append(ctx context.Context, entry *model.RequestLog) error
}

// Inserter persists a single request log.
type Inserter interface {
	InsertRequestLog(ctx context.Context, entry *model.RequestLog) error
}

// SyncStore writes each entry to Postgres before returning.
// A failed write fails the caller's request.
type SyncStore struct {
	repo   Inserter
	logger *slog.Logger
}

// NewSyncStore creates a store that writes synchronously through repo.
func NewSyncStore(repo Inserter, logger *slog.Logger) *SyncStore {
	return &SyncStore{
		repo:   repo,
		logger: logger.With("component", "requestlog.sync"),
	}
}

// Append inserts entry and wraps any failure in ErrStorageWrite.
// repository.ErrUserNotFound is returned as is: the entry's user is gone.
func (s *SyncStore) Append(ctx context.Context, entry *model.RequestLog) error {
	if err := s.repo.InsertRequestLog(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return err
		}
		s.logger.Error("failed to write request log",
			"request_log_id", entry.ID,
			"username", entry.Username,
			"error", err,
		)
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return nil
}
