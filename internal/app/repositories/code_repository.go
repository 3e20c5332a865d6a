package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/speexify/speexify/internal/app/models"
	"github.com/speexify/speexify/internal/pkg/apperrors"
)

// CodeRepository persists one-time email codes. The same access pattern
// serves both registration verification and password reset, so the table
// name is a parameter.
type CodeRepository struct {
	db    *pgxpool.Pool
	table string
}

// NewVerificationCodeRepository creates the repository backing registration
// verification codes.
func NewVerificationCodeRepository(db *pgxpool.Pool) *CodeRepository {
	return &CodeRepository{db: db, table: "verification_codes"}
}

// NewPasswordResetCodeRepository creates the repository backing password
// reset codes.
func NewPasswordResetCodeRepository(db *pgxpool.Pool) *CodeRepository {
	return &CodeRepository{db: db, table: "password_reset_codes"}
}

// Upsert stores a fresh code hash for an email, replacing any pending one
// and resetting the attempt counter.
func (r *CodeRepository) Upsert(ctx context.Context, email, codeHash string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO `+r.table+` (email, code_hash, expires_at, attempts, updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (email) DO UPDATE SET
			code_hash = EXCLUDED.code_hash,
			expires_at = EXCLUDED.expires_at,
			attempts = 0,
			updated_at = now()`,
		email, codeHash, expiresAt)
	if err != nil {
		return fmt.Errorf("error storing code: %w", err)
	}
	return nil
}

// Get retrieves the pending code for an email
func (r *CodeRepository) Get(ctx context.Context, email string) (*models.EmailCode, error) {
	code := &models.EmailCode{}
	err := r.db.QueryRow(ctx,
		`SELECT email, code_hash, expires_at, attempts, updated_at
		FROM `+r.table+` WHERE email = $1`, email).
		Scan(&code.Email, &code.CodeHash, &code.ExpiresAt, &code.Attempts, &code.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCodeNotFound
		}
		return nil, fmt.Errorf("error fetching code: %w", err)
	}
	return code, nil
}

// IncrementAttempts records a failed verification attempt and returns the
// new attempt count.
func (r *CodeRepository) IncrementAttempts(ctx context.Context, email string) (int, error) {
	var attempts int
	err := r.db.QueryRow(ctx,
		`UPDATE `+r.table+` SET attempts = attempts + 1, updated_at = now()
		WHERE email = $1 RETURNING attempts`, email).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrCodeNotFound
		}
		return 0, fmt.Errorf("error updating code: %w", err)
	}
	return attempts, nil
}

// Delete removes the pending code for an email. Deleting a missing row is
// not an error.
func (r *CodeRepository) Delete(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM `+r.table+` WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("error deleting code: %w", err)
	}
	return nil
}
