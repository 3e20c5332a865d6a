package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/speexify/speexify/internal/app/models"
	"github.com/speexify/speexify/internal/pkg/apperrors"
)

const userColumns = `id, email, name, role, hashed_password, timezone, is_disabled,
	rate_hourly_cents, rate_per_session_cents, created_at, updated_at`

// UserRepository handles user persistence
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.Role, &user.HashedPassword,
		&user.Timezone, &user.IsDisabled, &user.RateHourlyCents,
		&user.RatePerSessionCents, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error scanning user: %w", err)
	}
	return user, nil
}

// Create inserts a new user and fills in its generated fields.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	exists, err := r.EmailExists(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return apperrors.ErrEmailAlreadyExists
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO users (email, name, role, hashed_password, timezone, is_disabled,
			rate_hourly_cents, rate_per_session_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		user.Email, user.Name, user.Role, user.HashedPassword, user.Timezone,
		user.IsDisabled, user.RateHourlyCents, user.RatePerSessionCents).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail retrieves a user by (lower-cased) email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// EmailExists checks whether an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return exists, nil
}

// List returns users, optionally filtered by role, ordered by email.
func (r *UserRepository) List(ctx context.Context, role *models.Role) ([]*models.User, error) {
	query := squirrel.Select(userColumns).
		From("users").
		OrderBy("email ASC").
		PlaceholderFormat(squirrel.Dollar)
	if role != nil {
		query = query.Where("role = ?", *role)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetByIDs returns the users with the given ids, keyed by id.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	result := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("error fetching users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result[user.ID] = user
	}
	return result, rows.Err()
}

// UpdateProfile updates the self-editable profile fields. Empty strings
// clear the stored value.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, name, timezone *string) error {
	query := squirrel.Update("users").
		Set("updated_at", squirrel.Expr("now()")).
		Where("id = ?", userID).
		PlaceholderFormat(squirrel.Dollar)
	if name != nil {
		query = query.Set("name", nullIfEmpty(*name))
	}
	if timezone != nil {
		query = query.Set("timezone", nullIfEmpty(*timezone))
	}

	return r.execUpdate(ctx, query)
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET hashed_password = $1, updated_at = now() WHERE id = $2`,
		hashedPassword, userID)
	if err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UserPatch is the admin-side partial user update.
type UserPatch struct {
	Name                *string
	Timezone            *string
	Role                *models.Role
	IsDisabled          *bool
	RateHourlyCents     *int
	RatePerSessionCents *int
}

// AdminUpdate applies a partial update to a user record.
func (r *UserRepository) AdminUpdate(ctx context.Context, userID int64, patch UserPatch) error {
	query := squirrel.Update("users").
		Set("updated_at", squirrel.Expr("now()")).
		Where("id = ?", userID).
		PlaceholderFormat(squirrel.Dollar)

	if patch.Name != nil {
		query = query.Set("name", nullIfEmpty(*patch.Name))
	}
	if patch.Timezone != nil {
		query = query.Set("timezone", nullIfEmpty(*patch.Timezone))
	}
	if patch.Role != nil {
		query = query.Set("role", *patch.Role)
	}
	if patch.IsDisabled != nil {
		query = query.Set("is_disabled", *patch.IsDisabled)
	}
	if patch.RateHourlyCents != nil {
		query = query.Set("rate_hourly_cents", zeroToNull(*patch.RateHourlyCents))
	}
	if patch.RatePerSessionCents != nil {
		query = query.Set("rate_per_session_cents", zeroToNull(*patch.RatePerSessionCents))
	}

	return r.execUpdate(ctx, query)
}

func (r *UserRepository) execUpdate(ctx context.Context, query squirrel.UpdateBuilder) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func zeroToNull(n int) any {
	if n <= 0 {
		return nil
	}
	return n
}
