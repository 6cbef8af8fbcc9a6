package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/scholarnote/backend/internal/app/controllers"
	appMigrations "github.com/scholarnote/backend/internal/app/migrations"
	appRepos "github.com/scholarnote/backend/internal/app/repositories"
	appRoutes "github.com/scholarnote/backend/internal/app/routes"
	appServices "github.com/scholarnote/backend/internal/app/services"
	"github.com/scholarnote/backend/internal/config"
	"github.com/scholarnote/backend/internal/db"
	appMiddleware "github.com/scholarnote/backend/internal/middleware"
	pkgAuth "github.com/scholarnote/backend/internal/pkg/auth"
	"github.com/scholarnote/backend/internal/pkg/filestorage"
	"github.com/scholarnote/backend/internal/pkg/helpers"
	"github.com/scholarnote/backend/internal/pkg/logger"
	"github.com/scholarnote/backend/internal/pkg/payments"
	"github.com/scholarnote/backend/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService       appServices.AuthService
	NoteService       appServices.NoteService
	PaymentService    appServices.PaymentService
	AuthController    *appControllers.AuthController
	NoteController    *appControllers.NoteController
	PaymentController *appControllers.PaymentController
	AuthMiddleware    *appMiddleware.AuthMiddleware
	Repos             *appRepos.Repositories
	JWTService        *pkgAuth.JWTService
	FileStorage       *filestorage.LocalStorage
	PaymentGateway    payments.Gateway
	Logger            zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger // Get the configured global logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")

	// Seed demo data in development mode only
	if strings.ToLower(cfg.Server.Mode) != "production" {
		if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
			// Log the error but don't fail the startup
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	// Old refresh tokens only accumulate; sweep them once per boot
	if removed, err := deps.Repos.TokenRepository.CleanupExpiredTokens(context.Background()); err != nil {
		lgr.Warn().Err(err).Msg("Failed to clean up expired refresh tokens")
	} else if removed > 0 {
		lgr.Info().Int64("removed", removed).Msg("Expired refresh tokens removed")
	}

	// Stored file URLs must line up with the static file serving endpoint
	var err error
	fileStorageBaseURL := strings.TrimRight(cfg.Server.BaseURL, "/") + "/uploads"
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, fileStorageBaseURL)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.PaymentGateway = payments.NewSimulatedGateway()

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.TokenRepository,
		deps.JWTService,
	)
	deps.NoteService = appServices.NewNoteService(deps.Repos.NoteRepository, deps.FileStorage)
	deps.PaymentService = appServices.NewPaymentService(deps.Repos.NoteRepository, deps.PaymentGateway, cfg.Payments.Currency)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, deps.Logger)
	deps.NoteController = appControllers.NewNoteController(deps.NoteService, deps.Logger)
	deps.PaymentController = appControllers.NewPaymentController(deps.PaymentService, deps.Logger)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.Default()

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.NoteController,
		deps.PaymentController,
		deps.AuthMiddleware,
	)

	return router
}
