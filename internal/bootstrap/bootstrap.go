package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/speexify/speexify/internal/app/controllers"
	"github.com/speexify/speexify/internal/app/migrations"
	"github.com/speexify/speexify/internal/app/repositories"
	"github.com/speexify/speexify/internal/app/routes"
	"github.com/speexify/speexify/internal/app/services"
	"github.com/speexify/speexify/internal/config"
	"github.com/speexify/speexify/internal/db"
	"github.com/speexify/speexify/internal/middleware"
	"github.com/speexify/speexify/internal/pkg/email"
	"github.com/speexify/speexify/internal/pkg/logger"
	"github.com/speexify/speexify/internal/pkg/sessionstore"
	"github.com/speexify/speexify/internal/seed"
)

// Dependencies holds the wired application graph.
type Dependencies struct {
	Repos           *repositories.Repositories
	SessionManager  *sessionstore.Manager
	Mailer          email.Mailer
	AuthService     *services.AuthService
	UserService     *services.UserService
	SessionService  *services.SessionService
	WorkloadService *services.WorkloadService
	AuthMiddleware  *middleware.AuthMiddleware
	AuthLimiter     *middleware.RateLimiter
	Controllers     routes.Controllers
	Logger          zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.Config{
		Level:  logger.LogLevel(strings.ToLower(cfg.Logging.Level)),
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr := logger.GetLogger()
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	if cfg.OAuth.ClientID != "" {
		lgr.Info().Msg("External identity integration configured")
	}
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds the default admin.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	lgr.Info().Msg("Running database migrations...")
	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		dbPool.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}
	if err := migrations.NewMigrator(dbPool).MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations applied.")

	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies wires repositories, services, middleware and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = repositories.NewRepositories(dbPool)

	deps.SessionManager = sessionstore.NewManager(
		sessionstore.NewMemoryStore(),
		cfg.Session.Secret,
		cfg.SessionTTL(),
		cfg.SessionMaxLifetime(),
	)

	deps.Mailer = email.NewSMTPMailer(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
	}, lgr)

	deps.AuthService = services.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.VerificationCodeRepository,
		deps.Repos.PasswordResetCodeRepository,
		deps.Mailer,
		cfg.Auth.LegacyRegister,
		lgr,
	)
	deps.UserService = services.NewUserService(
		deps.Repos.UserRepository,
		deps.Repos.SessionRepository,
		deps.Repos.AuditRepository,
		lgr,
	)
	deps.SessionService = services.NewSessionService(
		deps.Repos.SessionRepository,
		deps.Repos.UserRepository,
		deps.Repos.AuditRepository,
		lgr,
	)
	deps.WorkloadService = services.NewWorkloadService(
		deps.Repos.SessionRepository,
		deps.Repos.UserRepository,
		lgr,
	)

	deps.AuthMiddleware = middleware.NewAuthMiddleware(
		deps.SessionManager,
		deps.Repos.UserRepository,
		cfg.Session.CookieName,
	)
	deps.AuthLimiter = middleware.NewRateLimiter(rate.Limit(2), 10)

	cookie := controllers.CookieSettings{
		Name:   cfg.Session.CookieName,
		MaxAge: int(cfg.SessionTTL().Seconds()),
		Secure: strings.ToLower(cfg.Server.Mode) == "production",
	}
	deps.Controllers = routes.Controllers{
		Auth:    controllers.NewAuthController(deps.AuthService, deps.SessionManager, cookie),
		User:    controllers.NewUserController(deps.UserService),
		Session: controllers.NewSessionController(deps.SessionService),
		Admin: controllers.NewAdminController(
			deps.UserService,
			deps.SessionService,
			deps.WorkloadService,
			deps.SessionManager,
		),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, dbPool *pgxpool.Pool, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.Default()

	health := func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := dbPool.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}

	routes.Setup(router, deps.AuthMiddleware, deps.AuthLimiter, health, deps.Controllers)

	return router
}
