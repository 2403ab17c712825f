package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/motcheck/motcheck-engine/pkg/config"
	"github.com/motcheck/motcheck-engine/pkg/database"
	"github.com/motcheck/motcheck-engine/pkg/dvsa"
	"github.com/motcheck/motcheck-engine/pkg/handlers"
	"github.com/motcheck/motcheck-engine/pkg/logging"
	"github.com/motcheck/motcheck-engine/pkg/middleware"
	"github.com/motcheck/motcheck-engine/pkg/repositories"
	"github.com/motcheck/motcheck-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("storage", cfg.Storage),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.Bool("dvsa_configured", cfg.DVSA.Configured()))

	vehicles, motTests, predictions, cleanup, err := buildRepositories(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer cleanup()

	fetcher := dvsa.NewClient(cfg.DVSA, logger)
	lookup := services.NewVehicleLookupService(fetcher, vehicles, motTests, predictions, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewVehiclesHandler(lookup, fetcher, logger).RegisterRoutes(mux)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      middleware.RequestLogger(logger)(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	logger.Info("Starting motcheck-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// buildRepositories wires the repository implementation selected by the
// storage driver. The returned cleanup closes the database pool (a no-op for
// the in-memory store).
func buildRepositories(cfg *config.Config, logger *zap.Logger) (
	repositories.VehicleRepository,
	repositories.MotTestRepository,
	repositories.PredictionRepository,
	func(),
	error,
) {
	if cfg.Storage == "memory" {
		logger.Warn("Using in-memory storage; data will not survive a restart")
		store := repositories.NewMemoryStore()
		return store.Vehicles(), store.MotTests(), store.Predictions(), func() {}, nil
	}

	connStr := cfg.Database.ConnectionString()

	// Migrations run through database/sql (required by golang-migrate); the
	// application itself talks to the pool via pgx.
	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		_ = sqlDB.Close()
		return nil, nil, nil, nil, err
	}
	if err := sqlDB.Close(); err != nil {
		return nil, nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, connStr, cfg.Database.MaxConnections)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return repositories.NewVehicleRepository(db),
		repositories.NewMotTestRepository(db),
		repositories.NewPredictionRepository(db),
		db.Close,
		nil
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
