package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/obelenko/lurelab/internal/models"
)

// PostgresResetTokenRepository implements reset-token persistence against a
// PostgreSQL database.
type PostgresResetTokenRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresResetTokenRepository creates a PostgresResetTokenRepository
// using the provided *sql.DB.
func NewPostgresResetTokenRepository(db *sql.DB) *PostgresResetTokenRepository {
	return &PostgresResetTokenRepository{DB: db}
}

// Create persists a freshly issued reset-token record.
func (r *PostgresResetTokenRepository) Create(ctx context.Context, t *models.ResetToken) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO reset_tokens (id, user_id, token, issued_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, false)
	`, t.ID, t.UserID, t.Token, t.IssuedAt, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}
	return nil
}

// GetByValue fetches the record for the raw token value.
// It returns (nil, nil) when no record exists.
func (r *PostgresResetTokenRepository) GetByValue(ctx context.Context, value string) (*models.ResetToken, error) {
	var t models.ResetToken
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, token, issued_at, expires_at, used
		FROM reset_tokens WHERE token = $1
	`, value).Scan(&t.ID, &t.UserID, &t.Token, &t.IssuedAt, &t.ExpiresAt, &t.Used)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reset token: %w", err)
	}
	return &t, nil
}

// MarkUsed flags the record as redeemed so a replayed token fails lookup
// semantics the same way as an absent one.
func (r *PostgresResetTokenRepository) MarkUsed(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE reset_tokens SET used = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	return nil
}

// PurgeExpired deletes used records and records expired longer than
// retention ago. It returns the number of rows removed.
func (r *PostgresResetTokenRepository) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM reset_tokens WHERE used = true OR expires_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge reset tokens: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge reset tokens: %w", err)
	}
	return rows, nil
}
