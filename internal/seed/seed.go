package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/speexify/speexify/internal/app/models"
	"github.com/speexify/speexify/internal/app/repositories"
	"github.com/speexify/speexify/internal/pkg/apperrors"
	"github.com/speexify/speexify/internal/pkg/auth"
)

const (
	defaultAdminEmail = "admin@speexify.com"
	// Default credential for fresh local databases; change it immediately in
	// any shared environment.
	defaultAdminPassword = "Admin123!"
)

// CreateDefaultData creates the default admin account on an empty database
// so the instance is administrable out of the box.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := repositories.NewUserRepository(dbPool)

	exists, err := userRepo.EmailExists(ctx, defaultAdminEmail)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking for default admin user")
		return err
	}
	if exists {
		lgr.Debug().Msg("Default admin user already exists, skipping")
		return nil
	}

	hashed, err := auth.HashPassword(defaultAdminPassword)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing default admin password")
		return err
	}

	name := "Administrator"
	admin := &models.User{
		Email:          defaultAdminEmail,
		Name:           &name,
		Role:           models.RoleAdmin,
		HashedPassword: hashed,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		// Concurrent bootstraps can race on the insert.
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil
		}
		lgr.Error().Err(err).Msg("Error creating default admin user")
		return err
	}

	lgr.Info().Int64("adminId", admin.ID).Str("email", defaultAdminEmail).
		Msg("Default admin user created")
	return nil
}
