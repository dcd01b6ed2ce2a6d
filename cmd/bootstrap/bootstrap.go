package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lunar-cancer-care/config"
	deliveryHttp "lunar-cancer-care/internal/delivery/http"
	"lunar-cancer-care/internal/delivery/http/handler"
	"lunar-cancer-care/internal/delivery/http/middleware"
	"lunar-cancer-care/internal/domain/entity"
	domainRepo "lunar-cancer-care/internal/domain/repository"
	"lunar-cancer-care/internal/infrastructure/cache"
	"lunar-cancer-care/internal/infrastructure/database"
	"lunar-cancer-care/internal/repository"
	"lunar-cancer-care/internal/service"
	"lunar-cancer-care/internal/usecase"
	"lunar-cancer-care/pkg/jwt"
	"lunar-cancer-care/pkg/metrics"
	"lunar-cancer-care/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	setupLogger(cfg.Log)
	logrus.Info("Configuration loaded successfully")

	// Apply schema migrations before opening the pool
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(cfg.DB); err != nil {
			return nil, err
		}
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Redis is only needed for token revocation or the Redis allocator
	if cfg.NeedsRedis() {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		app.RedisClient = redisClient
	}

	// Keep Redis sequences ahead of identifiers already stored
	if cfg.IDs.Backend == config.IDBackendRedis {
		syncService := service.NewRedisSyncService(db, app.RedisClient, logrus.StandardLogger())
		err := syncService.SyncOnStartup(context.Background(),
			service.SequenceSource{Sequence: entity.CounterPatientID, Prefix: cfg.IDs.PatientPrefix, Model: &entity.Patient{}},
			service.SequenceSource{Sequence: entity.CounterStaffID, Prefix: cfg.IDs.StaffPrefix, Model: &entity.Staff{}},
		)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to sync identifier counters: %w", err)
		}
	}

	app.Server = initializeServer(cfg, db, app.RedisClient)

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(cfg config.LogConfig) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func newAllocator(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	log *logrus.Logger,
	counterRepo domainRepo.CounterRepository,
	collector *metrics.Collector,
	sequence, prefix string,
) service.IdentifierAllocator {
	if cfg.IDs.Backend == config.IDBackendRedis {
		return service.NewRedisAllocator(redisClient, log, collector, sequence, prefix)
	}
	return service.NewCounterAllocator(db, log, counterRepo, collector, sequence, prefix)
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *http.Server {
	log := logrus.StandardLogger()
	collector := metrics.NewCollector("lunar")

	// Initialize validator
	customValidator := validator.NewValidator(cfg.App.PhoneRegion)

	// Initialize repositories
	patientRepo := repository.NewPatientRepository()
	staffRepo := repository.NewStaffRepository()
	auditLogRepo := repository.NewAuditLogRepository()
	counterRepo := repository.NewCounterRepository()

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	patientIDs := newAllocator(cfg, db, redisClient, log, counterRepo, collector, entity.CounterPatientID, cfg.IDs.PatientPrefix)
	staffIDs := newAllocator(cfg, db, redisClient, log, counterRepo, collector, entity.CounterStaffID, cfg.IDs.StaffPrefix)

	// Initialize usecases
	patientUsecase := usecase.NewPatientUsecase(db, log, patientRepo, staffRepo, patientIDs, auditService, customValidator, collector, cfg.App.DefaultPageSize)
	staffUsecase := usecase.NewStaffUsecase(db, log, staffRepo, staffIDs, auditService, customValidator)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	patientHandler := handler.NewPatientHandler(patientUsecase)
	staffHandler := handler.NewStaffHandler(staffUsecase)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	var jwtService *jwt.JWTService
	if cfg.Auth.Enabled {
		jwtService = jwt.NewJWTService(cfg.JWT)
	}
	authMiddleware := middleware.NewAuthMiddleware(jwtService, redisClient, cfg.Auth, log)
	corsMiddleware := middleware.NewCORSMiddleware()
	loggingMiddleware := middleware.NewLoggingMiddleware(log, collector)

	// Initialize router
	router := deliveryHttp.NewRouter(patientHandler, staffHandler, auditLogHandler, authMiddleware, corsMiddleware, loggingMiddleware, collector.Handler())
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:         serverAddr,
		Handler:      httpRouter,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
