package cache

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/asimzz/text-summarization-system/internal/model"
)

func TestUserKey(t *testing.T) {
	t.Parallel()

	if got := userKey("alice"); got != "user:profile:alice" {
		t.Errorf("userKey = %q", got)
	}
}

func TestToCachedUser_DropsPasswordHash(t *testing.T) {
	t.Parallel()

	user := &model.User{
		ID:           "01HZX",
		Username:     "alice",
		FullName:     "Alice A",
		PasswordHash: "$2a$10$secret",
		Email:        "alice@example.com",
		Role:         model.RoleUser,
		CreatedAt:    time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(toCachedUser(user))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if strings.Contains(string(data), "secret") {
		t.Errorf("cached profile leaks the password hash: %s", data)
	}
	if !strings.Contains(string(data), `"username":"alice"`) {
		t.Errorf("cached profile missing username: %s", data)
	}
}
