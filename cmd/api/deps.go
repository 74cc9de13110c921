package main

import (
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"

	"finlink/internal/domain/link"
	"finlink/internal/domain/openfinance"
	"finlink/internal/domain/user"
	ofclient "finlink/internal/infrastructure/belvo"
	"finlink/internal/infrastructure/database"
	httphandlers "finlink/internal/interfaces/http"
	"finlink/internal/shared/auth"
	"finlink/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *database.DB

	// Handlers
	AuthHandler  *httphandlers.AuthHandler
	BelvoHandler *httphandlers.BelvoHandler

	// Auth
	JWT *auth.JWT
}

// NewDependencies connects to the database, applies pending migrations and
// wires repositories, services and handlers.
func NewDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	driver, dsn := cfg.Database.Driver, cfg.Database.ConnectionString()
	inMemory := database.IsInMemory(driver, dsn)

	if !inMemory {
		if err := runMigrations(driver, dsn, logger); err != nil {
			return nil, err
		}
	}

	db, err := database.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database", zap.String("driver", db.Driver()), zap.Bool("in_memory", inMemory))

	// An in-memory schema exists only on this connection. The migrator is
	// left open since closing it would close db.
	if inMemory {
		if _, err := applyMigrations(db, logger); err != nil {
			db.Close()
			return nil, err
		}
	}

	// Initialize auth components
	jwt, err := auth.NewJWT(cfg.JWT.Secret, cfg.JWT.Algorithm)
	if err != nil {
		db.Close()
		return nil, err
	}

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	linkRepo := database.NewLinkRepository(db)

	// Initialize domain services
	userService := user.NewService(userRepo, jwt, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	linkService := link.NewService(linkRepo, userRepo)
	gateway := openfinance.NewService(ofclient.NewClient(cfg.Belvo, logger))

	return &Dependencies{
		DB:           db,
		AuthHandler:  httphandlers.NewAuthHandler(userService, logger),
		BelvoHandler: httphandlers.NewBelvoHandler(gateway, linkService, logger),
		JWT:          jwt,
	}, nil
}

// runMigrations uses its own connection because closing the migrator
// closes the connection it was given.
func runMigrations(driver, dsn string, logger *zap.Logger) error {
	db, err := database.Open(driver, dsn)
	if err != nil {
		return err
	}

	m, err := applyMigrations(db, logger)
	if m == nil {
		db.Close()
		return err
	}
	m.Close()
	return err
}

// applyMigrations brings db's schema up to date. The returned migrator owns
// db; it is nil only when it could not be created.
func applyMigrations(db *database.DB, logger *zap.Logger) (*migrate.Migrate, error) {
	m, err := database.NewMigrator(db, logger)
	if err != nil {
		return nil, err
	}

	if err := database.MigrateUp(m); err != nil {
		return m, err
	}

	version, _, err := database.Version(m)
	if err != nil {
		return m, err
	}
	logger.Info("database schema up to date", zap.Uint("version", version))
	return m, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() error {
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
