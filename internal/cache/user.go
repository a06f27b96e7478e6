package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/asimzz/text-summarization-system/internal/model"
)

const (
	// userCachePrefix is the Redis key prefix for cached user profiles.
	userCachePrefix = "user:profile:"
	// DefaultUserTTL is the time-to-live for cached user profiles.
	DefaultUserTTL = 5 * time.Minute
)

// CachedUser is the profile stored in Redis. It never carries the password hash.
type CachedUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// GetUser retrieves a cached user profile by username.
// Returns nil if not found (cache miss).
func (c *Cache) GetUser(ctx context.Context, username string) (*model.User, error) {
	if c.userTTL == 0 {
		return nil, nil
	}

	data, err := c.client.Get(ctx, userKey(username)).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached CachedUser
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}
	if cached.Username != username {
		return nil, nil
	}

	return &model.User{
		ID:        cached.ID,
		Username:  cached.Username,
		FullName:  cached.FullName,
		Email:     cached.Email,
		Role:      cached.Role,
		CreatedAt: cached.CreatedAt,
	}, nil
}

// SetUser caches a user profile.
func (c *Cache) SetUser(ctx context.Context, user *model.User) error {
	if c.userTTL == 0 {
		return nil
	}

	data, err := json.Marshal(toCachedUser(user))
	if err != nil {
		return fmt.Errorf("marshal user profile: %w", err)
	}

	return c.client.Set(ctx, userKey(user.Username), data, c.userTTL).Err()
}

// DeleteUser removes a cached user profile.
func (c *Cache) DeleteUser(ctx context.Context, username string) error {
	return c.client.Del(ctx, userKey(username)).Err()
}

func toCachedUser(user *model.User) CachedUser {
	return CachedUser{
		ID:        user.ID,
		Username:  user.Username,
		FullName:  user.FullName,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

func userKey(username string) string {
	return userCachePrefix + username
}
