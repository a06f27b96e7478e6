package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/asimzz/text-summarization-system/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
)

// CreateUser inserts a new user into the database.
// The unique index on username is the source of truth for uniqueness.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, full_name, password_hash, email, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.FullName,
		user.PasswordHash,
		user.Email,
		user.Role,
		user.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
		SELECT id, username, full_name, password_hash, email, role, created_at
		FROM users
		WHERE username = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.FullName,
		&user.PasswordHash,
		&user.Email,
		&user.Role,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &user, nil
}

// ExistingUsernames returns the subset of usernames that are already registered.
func (r *Repository) ExistingUsernames(ctx context.Context, usernames []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(usernames))
	if len(usernames) == 0 {
		return existing, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT username FROM users WHERE username = ANY($1)`,
		pq.Array(usernames),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query usernames: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}
		existing[username] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usernames: %w", err)
	}

	return existing, nil
}

// DeleteAllUsers removes every user and returns the deleted usernames.
// Only the seed tool's reset mode calls this.
func (r *Repository) DeleteAllUsers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `DELETE FROM users RETURNING username`)
	if err != nil {
		return nil, fmt.Errorf("failed to delete users: %w", err)
	}

	usernames, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to delete users: %w", err)
	}
	return usernames, nil
}
