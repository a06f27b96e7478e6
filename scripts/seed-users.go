package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/asimzz/text-summarization-system/internal/auth"
	"github.com/asimzz/text-summarization-system/internal/cache"
	"github.com/asimzz/text-summarization-system/internal/model"
	"github.com/asimzz/text-summarization-system/internal/repository"
)

type seedUser struct {
	Username string
	FullName string
	Password string
	Role     string
}

var defaultUsers = []seedUser{
	{Username: "admin", FullName: "Admin User", Password: "adminpassword", Role: model.RoleAdmin},
	{Username: "user1", FullName: "User One", Password: "user1password", Role: model.RoleUser},
	{Username: "user2", FullName: "User Two", Password: "user2password", Role: model.RoleUser},
}

type seedStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	ExistingUsernames(ctx context.Context, usernames []string) (map[string]bool, error)
	DeleteAllUsers(ctx context.Context) ([]string, error)
}

// profileCache is the API's cached user profiles.
type profileCache interface {
	DeleteUser(ctx context.Context, username string) error
}

type hasher interface {
	Hash(plaintext string) (string, error)
}

type result struct {
	Deleted     int      `json:"deleted"`
	Created     []string `json:"created"`
	Skipped     []string `json:"skipped"`
	Invalidated int      `json:"invalidated"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		redisURL    = flag.String("redis-url", os.Getenv("REDIS_URL"), "Redis connection string; cached profiles of deleted or created users are evicted")
		reset       = flag.Bool("reset", false, "Delete every user before seeding")
		migrate     = flag.Bool("migrate", true, "Apply migrations before seeding")
		algorithm   = flag.String("hash", auth.AlgorithmBcrypt, "Password hash algorithm: bcrypt or argon2id")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	pw, err := auth.NewPasswordHasher(*algorithm, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *migrate {
		if err := repository.Migrate(ctx, *databaseURL); err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(1)
		}
	}

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	var profiles profileCache
	if *redisURL != "" {
		c, err := cache.New(ctx, *redisURL)
		if err != nil {
			fmt.Fprintln(os.Stderr, "connect redis:", err)
			os.Exit(1)
		}
		defer c.Close()
		profiles = c
	} else if *reset {
		fmt.Fprintln(os.Stderr, "warning: no REDIS_URL; cached profiles of deleted users stay until they expire")
	}

	res, err := seed(ctx, repo, profiles, pw, defaultUsers, *reset)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if err := writeResult(os.Stdout, res, *format); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// seed inserts users that do not exist yet. With reset, every user is deleted first.
// profiles may be nil; otherwise every deleted or created username is evicted from it.
func seed(ctx context.Context, store seedStore, profiles profileCache, pw hasher, users []seedUser, reset bool) (result, error) {
	res := result{Created: []string{}, Skipped: []string{}}

	var deleted []string
	if reset {
		var err error
		deleted, err = store.DeleteAllUsers(ctx)
		if err != nil {
			return res, err
		}
		res.Deleted = len(deleted)
	}

	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	existing, err := store.ExistingUsernames(ctx, names)
	if err != nil {
		return res, err
	}

	for _, u := range users {
		if existing[u.Username] {
			res.Skipped = append(res.Skipped, u.Username)
			continue
		}

		hash, err := pw.Hash(u.Password)
		if err != nil {
			return res, fmt.Errorf("hash password for %s: %w", u.Username, err)
		}

		err = store.CreateUser(ctx, &model.User{
			ID:           ulid.Make().String(),
			Username:     u.Username,
			FullName:     u.FullName,
			PasswordHash: hash,
			Email:        u.Username + "@gmail.com",
			Role:         u.Role,
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			return res, fmt.Errorf("create user %s: %w", u.Username, err)
		}
		res.Created = append(res.Created, u.Username)
	}

	if profiles == nil {
		return res, nil
	}
	evict := make(map[string]bool, len(deleted)+len(res.Created))
	for _, name := range append(deleted, res.Created...) {
		if evict[name] {
			continue
		}
		evict[name] = true
		if err := profiles.DeleteUser(ctx, name); err != nil {
			return res, fmt.Errorf("evict cached profile %s: %w", name, err)
		}
		res.Invalidated++
	}

	return res, nil
}

func writeResult(w io.Writer, res result, format string) error {
	switch strings.ToLower(format) {
	case "plain":
		if res.Deleted > 0 {
			fmt.Fprintf(w, "deleted %d users\n", res.Deleted)
		}
		for _, name := range res.Created {
			fmt.Fprintf(w, "created %s\n", name)
		}
		for _, name := range res.Skipped {
			fmt.Fprintf(w, "skipped %s (exists)\n", name)
		}
		if res.Invalidated > 0 {
			fmt.Fprintf(w, "evicted %d cached profiles\n", res.Invalidated)
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	default:
		return fmt.Errorf("invalid format %q; use plain or json", format)
	}
}
