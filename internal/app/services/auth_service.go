package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/speexify/speexify/internal/app/models"
	"github.com/speexify/speexify/internal/pkg/apperrors"
	"github.com/speexify/speexify/internal/pkg/auth"
	"github.com/speexify/speexify/internal/pkg/email"
)

const (
	// codeTTL is how long a mailed verification code stays valid.
	codeTTL = 10 * time.Minute
	// resendCooldown is the minimum gap between code requests for one email.
	resendCooldown = 60 * time.Second
	// maxCodeAttempts is the wrong-guess budget before a code is invalidated.
	maxCodeAttempts = 5

	minPasswordLength = 8
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthUserRepository is the user persistence surface the auth flows need.
type AuthUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error
}

// CodeStore is the one-time code persistence surface.
type CodeStore interface {
	Upsert(ctx context.Context, email, codeHash string, expiresAt time.Time) error
	Get(ctx context.Context, email string) (*models.EmailCode, error)
	IncrementAttempts(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
}

// AuthService implements registration, login and password recovery.
type AuthService struct {
	userRepo          AuthUserRepository
	verificationCodes CodeStore
	resetCodes        CodeStore
	mailer            email.Mailer
	legacyRegister    bool
	logger            zerolog.Logger
}

// NewAuthService creates a new AuthService. legacyRegister enables the
// deprecated direct-registration endpoint.
func NewAuthService(
	userRepo AuthUserRepository,
	verificationCodes, resetCodes CodeStore,
	mailer email.Mailer,
	legacyRegister bool,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:          userRepo,
		verificationCodes: verificationCodes,
		resetCodes:        resetCodes,
		mailer:            mailer,
		legacyRegister:    legacyRegister,
		logger:            logger,
	}
}

// NormalizeEmail lower-cases and trims an email address. All lookups and
// storage go through this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return apperrors.NewCustomError(apperrors.ErrInvalidEmail, "invalid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.NewCustomError(apperrors.ErrInvalidPassword,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}

// RegisterStart begins email-verified registration: it rejects addresses that
// already have an account, enforces the resend cooldown, then stores a hashed
// code and mails the plain code.
func (s *AuthService) RegisterStart(ctx context.Context, rawEmail string) error {
	addr := NormalizeEmail(rawEmail)
	if err := validateEmail(addr); err != nil {
		return err
	}

	exists, err := s.userRepo.EmailExists(ctx, addr)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.ErrEmailAlreadyExists
	}

	cooling, err := s.withinCooldown(ctx, s.verificationCodes, addr)
	if err != nil {
		return err
	}
	if cooling {
		// A code went out moments ago; answer ok without re-sending so the
		// endpoint cannot be used to spam a mailbox.
		s.logger.Debug().Str("email", addr).Msg("Verification code resend suppressed by cooldown")
		return nil
	}

	code, err := auth.GenerateCode()
	if err != nil {
		return err
	}
	if err := s.verificationCodes.Upsert(ctx, addr, auth.HashCode(code), time.Now().Add(codeTTL)); err != nil {
		return err
	}

	if err := s.mailer.SendVerificationCode(addr, code); err != nil {
		s.logger.Error().Err(err).Str("email", addr).Msg("Failed to send verification code")
		return fmt.Errorf("sending verification code: %w", err)
	}
	return nil
}

// RegisterComplete finishes registration by consuming a valid code and
// creating the account.
func (s *AuthService) RegisterComplete(ctx context.Context, rawEmail, code, password, name string) (*models.User, error) {
	addr := NormalizeEmail(rawEmail)
	if err := validateEmail(addr); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := s.consumeCode(ctx, s.verificationCodes, addr, code); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, addr, password, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("userId", user.ID).Str("email", addr).Msg("User registered")
	return user, nil
}

// LegacyRegister creates an account without email verification. It only
// works while the legacy-register toggle is on; otherwise the endpoint is
// reported as gone.
func (s *AuthService) LegacyRegister(ctx context.Context, rawEmail, password, name string) (*models.User, error) {
	if !s.legacyRegister {
		return nil, apperrors.ErrGone
	}
	addr := NormalizeEmail(rawEmail)
	if err := validateEmail(addr); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	return s.createUser(ctx, addr, password, name)
}

func (s *AuthService) createUser(ctx context.Context, addr, password, name string) (*models.User, error) {
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:          addr,
		Role:           models.RoleLearner,
		HashedPassword: hashed,
	}
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		user.Name = &trimmed
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials and returns the account. Disabled accounts cannot
// log in even with the right password.
func (s *AuthService) Login(ctx context.Context, rawEmail, password string) (*models.User, error) {
	addr := NormalizeEmail(rawEmail)

	user, err := s.userRepo.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.HashedPassword, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.IsDisabled {
		return nil, apperrors.ErrAccountDisabled
	}
	return user, nil
}

// ForgotPassword begins password recovery. Unknown addresses succeed
// silently so the endpoint cannot be used to probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, rawEmail string) error {
	addr := NormalizeEmail(rawEmail)
	if err := validateEmail(addr); err != nil {
		return err
	}

	_, err := s.userRepo.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Debug().Str("email", addr).Msg("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	cooling, err := s.withinCooldown(ctx, s.resetCodes, addr)
	if err != nil {
		return err
	}
	if cooling {
		s.logger.Debug().Str("email", addr).Msg("Reset code resend suppressed by cooldown")
		return nil
	}

	code, err := auth.GenerateCode()
	if err != nil {
		return err
	}
	if err := s.resetCodes.Upsert(ctx, addr, auth.HashCode(code), time.Now().Add(codeTTL)); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetCode(addr, code); err != nil {
		s.logger.Error().Err(err).Str("email", addr).Msg("Failed to send password reset code")
		return fmt.Errorf("sending password reset code: %w", err)
	}
	return nil
}

// ResetPassword finishes password recovery by consuming a valid reset code.
func (s *AuthService) ResetPassword(ctx context.Context, rawEmail, code, newPassword string) error {
	addr := NormalizeEmail(rawEmail)
	if err := validateEmail(addr); err != nil {
		return err
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if err := s.consumeCode(ctx, s.resetCodes, addr, code); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, addr)
	if err != nil {
		return err
	}
	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return err
	}
	s.logger.Info().Int64("userId", user.ID).Msg("Password reset completed")
	return nil
}

// withinCooldown reports whether a code for this email went out less than
// resendCooldown ago, judged by the stored row's last update.
func (s *AuthService) withinCooldown(ctx context.Context, store CodeStore, addr string) (bool, error) {
	pending, err := store.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, apperrors.ErrCodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return time.Since(pending.UpdatedAt) < resendCooldown, nil
}

// consumeCode runs the shared verification state machine: expired codes are
// removed, wrong guesses burn attempts until the budget is exhausted, and a
// correct guess removes the row so the code is single-use.
func (s *AuthService) consumeCode(ctx context.Context, store CodeStore, addr, code string) error {
	if !auth.ValidCodeFormat(code) {
		return apperrors.NewCustomError(apperrors.ErrCodeMismatch, "invalid code format")
	}

	pending, err := store.Get(ctx, addr)
	if err != nil {
		return err
	}
	if time.Now().After(pending.ExpiresAt) {
		if err := store.Delete(ctx, addr); err != nil {
			return err
		}
		return apperrors.ErrCodeExpired
	}
	if pending.Attempts >= maxCodeAttempts {
		if err := store.Delete(ctx, addr); err != nil {
			return err
		}
		return apperrors.ErrCodeExhausted
	}
	if auth.HashCode(code) != pending.CodeHash {
		if _, err := store.IncrementAttempts(ctx, addr); err != nil {
			return err
		}
		return apperrors.ErrCodeMismatch
	}

	return store.Delete(ctx, addr)
}
