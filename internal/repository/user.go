// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"kibi-puzzle/internal/errs"
	"kibi-puzzle/internal/model"
)

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// UserRepository handles user data persistence. Users are keyed by
// lowercased wallet address; both address and username are unique.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user. The address is normalized to lower case.
// Returns errs.ErrAlreadyExists if the address or username is taken.
func (r *UserRepository) Create(ctx context.Context, address, username string) (*model.User, error) {
	const query = `
		INSERT INTO users (address, username, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING address, username, created_at, updated_at
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, strings.ToLower(address), username).Scan(
		&user.Address,
		&user.Username,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s/%s: %w", address, username, errs.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// GetByAddress retrieves a user by wallet address.
// Returns errs.ErrNotFound if the user does not exist.
func (r *UserRepository) GetByAddress(ctx context.Context, address string) (*model.User, error) {
	const query = `
		SELECT address, username, created_at, updated_at
		FROM users
		WHERE address = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, strings.ToLower(address)).Scan(
		&user.Address,
		&user.Username,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", address, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetByUsername retrieves a user by display name.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	const query = `
		SELECT address, username, created_at, updated_at
		FROM users
		WHERE username = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&user.Address,
		&user.Username,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// ListAll retrieves all registered users ordered by registration time.
func (r *UserRepository) ListAll(ctx context.Context) ([]*model.User, error) {
	const query = `
		SELECT address, username, created_at, updated_at
		FROM users
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		err := rows.Scan(&user.Address, &user.Username, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// CountSolvedBy returns the user's cumulative solve count: marketplace
// puzzles where they are recorded as solver plus their solved daily puzzles.
// This counter is the single source the rank derivation reads from.
func (r *UserRepository) CountSolvedBy(ctx context.Context, address string) (int, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM puzzles WHERE solved AND solver = $1) +
			(SELECT COUNT(*) FROM daily_puzzles WHERE solved AND user_address = $1)
	`

	var count int
	err := r.pool.QueryRow(ctx, query, strings.ToLower(address)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count solves: %w", err)
	}

	return count, nil
}
