package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coffeeshop/backend/config"
	"github.com/coffeeshop/backend/internal/auth"
	"github.com/coffeeshop/backend/internal/observability"
	"github.com/coffeeshop/backend/middleware"
	"github.com/coffeeshop/backend/repositories"
	"github.com/coffeeshop/backend/repositories/postgres"
	"github.com/coffeeshop/backend/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// errAuthNotConfigured is wrapped by every rejection of the fallback
// verifier used when no tenant is configured.
var errAuthNotConfigured = errors.New("authentication not configured")

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Drinks    repositories.DrinkRepository
	TxManager repositories.TransactionManager

	// Observability
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Auth
	KeyResolver    *auth.JWKSResolver
	Verifier       auth.TokenVerifier
	Guard          *auth.Guard
	AuthMiddleware *middleware.AuthMiddleware

	// Services
	DrinkService *services.DrinkService
}

// NewDependencies connects to the database and wires up all application
// dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := newDependencies(ctx, cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithDB wires up all application dependencies over an open
// database.
func NewDependenciesWithDB(ctx context.Context, cfg *config.Config, db *postgres.DB, logger *zap.Logger) (*Dependencies, error) {
	return newDependencies(ctx, cfg, postgres.NewRepositoryFactoryFromDB(db, logger), logger)
}

func newDependencies(ctx context.Context, cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	if err := deps.DB.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()
	deps.initMetrics()

	if err := deps.initAuth(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	deps.DrinkService = services.NewDrinkService(deps.Drinks, deps.TxManager, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Drinks = repos.Drinks
	d.TxManager = repos.Transactions

	d.Logger.Info("repositories initialized")
}

// initMetrics creates a private registry so tests and multiple instances
// never collide on the global one.
func (d *Dependencies) initMetrics() {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = observability.NewMetrics(d.Registry)
}

func (d *Dependencies) initAuth(cfg *config.Config) error {
	if !cfg.Auth.Enabled() {
		if cfg.IsProduction() {
			return errors.New("auth domain and audience are required in production")
		}
		d.Logger.Warn("auth not configured, protected routes will reject every request")
		d.Verifier = rejectAllVerifier{}
	} else {
		verification := cfg.Auth.Verification()
		d.KeyResolver = auth.NewJWKSResolver(verification, d.Logger, d.Metrics)
		d.Verifier = auth.NewVerifier(verification, d.KeyResolver, d.Logger)
		d.Logger.Info("auth initialized",
			zap.String("issuer", verification.Issuer()),
			zap.String("audience", verification.Audience),
			zap.String("jwks_url", verification.KeySetURL()))
	}

	d.Guard = auth.NewGuard(d.Verifier, d.Logger, d.Metrics)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Guard, d.Logger)
	return nil
}

// rejectAllVerifier rejects all tokens (used when no tenant is configured)
type rejectAllVerifier struct{}

func (rejectAllVerifier) Verify(context.Context, string) (auth.Claims, error) {
	return nil, &auth.AuthError{
		Code:        auth.CodeKeySetUnavailable,
		Description: "Authentication is not configured.",
		StatusCode:  http.StatusServiceUnavailable,
		Err:         errAuthNotConfigured,
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	return errors.Join(errs...)
}
