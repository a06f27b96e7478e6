package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/asimzz/text-summarization-system/internal/model"
	"github.com/asimzz/text-summarization-system/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserStore struct {
	mu        sync.Mutex
	users     map[string]*model.User
	createErr error
	getErr    error
	gets      int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.users[user.Username]; ok {
		return repository.ErrDuplicateUsername
	}
	copied := *user
	f.users[user.Username] = &copied
	return nil
}

func (f *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	user, ok := f.users[username]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// fakeHasher marks hashes with a prefix and records Verify calls.
type fakeHasher struct {
	mu       sync.Mutex
	hashErr  error
	verifies int
}

func (f *fakeHasher) Hash(plaintext string) (string, error) {
	if f.hashErr != nil {
		return "", f.hashErr
	}
	return "hashed:" + plaintext, nil
}

func (f *fakeHasher) Verify(plaintext, encoded string) (bool, error) {
	f.mu.Lock()
	f.verifies++
	f.mu.Unlock()
	if !strings.HasPrefix(encoded, "hashed:") {
		return false, errors.New("unknown hash format")
	}
	return encoded == "hashed:"+plaintext, nil
}

type fakeIssuer struct {
	err     error
	subject string
	ttl     time.Duration
}

func (f *fakeIssuer) Issue(subject string, ttl time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.subject = subject
	f.ttl = ttl
	return "token-for-" + subject, nil
}

type fakeCache struct {
	mu      sync.Mutex
	users   map[string]*model.User
	sets    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{users: make(map[string]*model.User)}
}

func (f *fakeCache) GetUser(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[username], nil
}

func (f *fakeCache) SetUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.users[user.Username] = user.Profile()
	return nil
}

func (f *fakeCache) DeleteUser(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.users, username)
	return nil
}

type fakeSummarizer struct {
	summary   string
	err       error
	text      string
	maxLength int
	minLength int
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string, maxLength, minLength int) (string, error) {
	f.text = text
	f.maxLength = maxLength
	f.minLength = minLength
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

// fakeLogStore refuses entries whose user is not in users, like the
// conditional insert in the repository.
type fakeLogStore struct {
	mu      sync.Mutex
	err     error
	users   *fakeUserStore
	entries []*model.RequestLog
}

func (f *fakeLogStore) Append(_ context.Context, entry *model.RequestLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.users != nil {
		f.users.mu.Lock()
		user, ok := f.users.users[entry.Username]
		f.users.mu.Unlock()
		if !ok || user.ID != entry.UserID {
			return repository.ErrUserNotFound
		}
	}
	f.entries = append(f.entries, entry)
	return nil
}
