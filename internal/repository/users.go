// Package repository provides persistence implementations for the account
// security services using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/obelenko/lurelab/internal/models"
)

// ErrDuplicateEmail is returned by CreateUser when the email is taken.
var ErrDuplicateEmail = errors.New("email already registered")

// uniqueViolation is the PostgreSQL error code for unique constraint breaches.
const uniqueViolation = "23505"

// PostgresUserRepository implements user persistence against PostgreSQL.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a PostgresUserRepository with the given
// database connection. db must be a valid *sql.DB connected to PostgreSQL.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

const userColumns = `id, email, password_hash, failed_attempts, last_failed_at, locked, locked_until, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FailedAttempts,
		&u.LastFailedAt, &u.Locked, &u.LockedUntil, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// GetByEmail fetches the user with the given email.
// It returns (nil, nil) when no such user exists.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetByID fetches the user with the given ID.
// It returns (nil, nil) when no such user exists.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// Create inserts a new user row. Returns ErrDuplicateEmail when the email
// is already registered.
func (r *PostgresUserRepository) Create(ctx context.Context, u *models.User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, failed_attempts, locked, created_at)
		VALUES ($1, $2, $3, 0, false, $4)
	`, u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateCredentials replaces the user's credential record.
func (r *PostgresUserRepository) UpdateCredentials(ctx context.Context, id, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update credentials: %w", err)
	}
	return nil
}

// UpdateLockState persists the user's failure counters and lock fields.
func (r *PostgresUserRepository) UpdateLockState(ctx context.Context, u *models.User) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users SET failed_attempts = $1, last_failed_at = $2, locked = $3, locked_until = $4
		WHERE id = $5
	`, u.FailedAttempts, u.LastFailedAt, u.Locked, u.LockedUntil, u.ID)
	if err != nil {
		return fmt.Errorf("update lock state: %w", err)
	}
	return nil
}
