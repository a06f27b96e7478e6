package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/asimzz/text-summarization-system/internal/metrics"
	"github.com/asimzz/text-summarization-system/internal/model"
	"github.com/asimzz/text-summarization-system/internal/repository"
	"github.com/asimzz/text-summarization-system/internal/requestlog"
	"github.com/asimzz/text-summarization-system/internal/summarizer"
)

// SummarizeInput defines input for one summarize call.
type SummarizeInput struct {
	Username       string
	Text           string
	Endpoint       string
	RequestBody    json.RawMessage
	RequestHeaders map[string]string
}

// SummaryResult is the generated summary plus the audit entry it was logged under.
type SummaryResult struct {
	SummaryText  string `json:"summary_text"`
	RequestLogID string `json:"-"`
}

// SummarizeService runs the model and records the request log.
type SummarizeService struct {
	users      UserStore
	cache      UserCache
	summarizer summarizer.Summarizer
	logs       requestlog.Store
	maxLength  int
	minLength  int
	logger     *slog.Logger
	metrics    metrics.Recorder
	now        func() time.Time
}

// SummarizeConfig holds the length bounds passed to the model.
type SummarizeConfig struct {
	MaxLength int
	MinLength int
}

// NewSummarizeService creates a new SummarizeService. cache may be nil.
func NewSummarizeService(
	users UserStore,
	cache UserCache,
	adapter summarizer.Summarizer,
	logs requestlog.Store,
	cfg SummarizeConfig,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *SummarizeService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SummarizeService{
		users:      users,
		cache:      cache,
		summarizer: adapter,
		logs:       logs,
		maxLength:  cfg.MaxLength,
		minLength:  cfg.MinLength,
		logger:     logger.With("component", "service.summarize"),
		metrics:    recorder,
		now:        time.Now,
	}
}

// Summarize loads the caller, generates the summary and appends a request log.
// A log failure is returned even though the summary was produced.
func (s *SummarizeService) Summarize(ctx context.Context, input SummarizeInput) (*SummaryResult, error) {
	user, err := s.loadUser(ctx, input.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.metrics.IncSummarize("user_not_found")
		} else {
			s.metrics.IncSummarize("error")
		}
		return nil, err
	}

	start := time.Now()
	summary, err := s.summarizer.Summarize(ctx, input.Text, s.maxLength, s.minLength)
	s.metrics.ObserveSummarizeDuration(time.Since(start))
	if err != nil {
		s.metrics.IncSummarize("upstream_error")
		return nil, fmt.Errorf("failed to summarize: %w", err)
	}

	result := &SummaryResult{SummaryText: summary}
	responseBody, err := json.Marshal(result)
	if err != nil {
		s.metrics.IncSummarize("error")
		return nil, fmt.Errorf("failed to encode summary: %w", err)
	}

	entry, err := s.appendLog(ctx, user, input, responseBody)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.metrics.IncSummarize("user_not_found")
			return nil, err
		}
		s.metrics.IncSummarize("log_error")
		return nil, fmt.Errorf("failed to record request log: %w", err)
	}

	s.metrics.IncSummarize("success")
	result.RequestLogID = entry.ID
	return result, nil
}

// appendLog records the call under user. When the store refuses the entry
// because that account is gone, the cached profile is dropped and the
// current account, if any, is used instead.
func (s *SummarizeService) appendLog(ctx context.Context, user *model.User, input SummarizeInput, responseBody []byte) (*model.RequestLog, error) {
	entry := s.newRequestLog(user, input, responseBody)
	err := s.logs.Append(ctx, entry)
	if err == nil || !errors.Is(err, repository.ErrUserNotFound) {
		return entry, err
	}

	s.logger.Warn("request log refused for stale user", "username", user.Username, "user_id", user.ID)
	s.invalidateUser(ctx, user.Username)

	current, err := s.users.GetUserByUsername(ctx, user.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if current.ID == user.ID {
		return nil, ErrUserNotFound
	}

	entry = s.newRequestLog(current, input, responseBody)
	if err := s.logs.Append(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *SummarizeService) newRequestLog(user *model.User, input SummarizeInput, responseBody []byte) *model.RequestLog {
	return &model.RequestLog{
		ID:             ulid.Make().String(),
		Username:       user.Username,
		UserID:         user.ID,
		Time:           s.now().UTC(),
		Endpoint:       input.Endpoint,
		RequestBody:    input.RequestBody,
		RequestHeaders: input.RequestHeaders,
		ResponseBody:   responseBody,
		StatusCode:     http.StatusOK,
	}
}

func (s *SummarizeService) invalidateUser(ctx context.Context, username string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteUser(ctx, username); err != nil {
		s.logger.Warn("failed to invalidate cached user", "username", username, "error", err)
	}
}

// loadUser reads the profile from cache, falling back to the store.
func (s *SummarizeService) loadUser(ctx context.Context, username string) (*model.User, error) {
	if s.cache != nil {
		cached, err := s.cache.GetUser(ctx, username)
		if err != nil {
			s.logger.Warn("user cache read failed", "username", username, "error", err)
		}
		if cached != nil {
			s.metrics.IncUserCacheHit()
			return cached, nil
		}
		s.metrics.IncUserCacheMiss()
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetUser(ctx, user); err != nil {
			s.logger.Warn("failed to cache user", "username", username, "error", err)
		}
	}
	return user, nil
}
