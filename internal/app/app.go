package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"tbsu/internal/alerts"
	"tbsu/internal/concord"
	"tbsu/internal/config"
	apperrors "tbsu/internal/errors"
	"tbsu/internal/infrastructure"
	handlers "tbsu/internal/transport/http"
	"tbsu/internal/warehouse"
)

// Version is reported by the health endpoint and the CLI
var Version = "0.1.0"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	Paths         *config.Paths
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics

	Resolver *concord.Resolver
	Registry *alerts.Registry
	Notifier *alerts.Notifier

	// Pool is nil until ConnectWarehouse succeeds.
	Pool *pgxpool.Pool

	Server *http.Server
}

// New builds an application from cfg. The registry files are created and
// seeded with the default alerters when missing.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	paths, err := config.GetPaths(cfg.Paths.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	registry := alerts.NewRegistry(paths, logger)
	if err := registry.EnsureDefaults(); err != nil {
		return nil, fmt.Errorf("failed to prepare alert registry: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		Paths:         paths,
		OTelProviders: providers,
		Metrics:       metrics,
		Registry:      registry,
		Resolver: concord.NewResolver(cfg.Concord, logger,
			concord.WithMetrics(metrics),
			concord.WithTracer(providers.Tracer)),
		Notifier: alerts.NewNotifier(cfg.Slack, registry, logger,
			alerts.WithAlertMetrics(metrics)),
	}
	return a, nil
}

// ConnectWarehouse opens the warehouse pool once
func (a *Application) ConnectWarehouse(ctx context.Context) error {
	if a.Pool != nil {
		return nil
	}
	pool, err := warehouse.Connect(ctx, a.Config.Warehouse)
	if err != nil {
		return err
	}
	a.Pool = pool
	a.Logger.InfoContext(ctx, "Connected to warehouse",
		slog.String("host", a.Config.Warehouse.Host),
		slog.String("database", a.Config.Warehouse.Name))
	return nil
}

// Loader returns a warehouse loader, connecting first if needed
func (a *Application) Loader(ctx context.Context) (*warehouse.Loader, error) {
	if err := a.ConnectWarehouse(ctx); err != nil {
		return nil, err
	}
	return warehouse.NewLoader(a.Pool, a.Logger, a.Metrics), nil
}

// Handler builds the HTTP handler tree
func (a *Application) Handler() http.Handler {
	errorHandler := apperrors.NewErrorHandler(a.Logger, a.Config.Telemetry.Environment == "development")

	var pinger handlers.Pinger
	if a.Pool != nil {
		pinger = a.Pool
	}

	return handlers.NewRouter(handlers.RouterConfig{
		Health:       handlers.NewHealthHandler(Version, pinger, a.Logger),
		Concord:      handlers.NewConcordHandler(a.Resolver, errorHandler, a.Logger),
		Alerts:       handlers.NewAlertsHandler(a.Notifier, errorHandler, a.Logger),
		Epoch:        handlers.NewEpochHandler(errorHandler),
		Metrics:      a.OTelProviders.PrometheusHTTP,
		ErrorHandler: errorHandler,
		Tracer:       a.OTelProviders.Tracer,
		Logger:       a.Logger,
		MaxBodyBytes: a.Config.Server.MaxBodyBytes,
	})
}

// Serve runs the HTTP server on ln until ctx is done, then shuts down
// gracefully. A configured but unreachable warehouse only degrades health.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	if a.Config.Warehouse.Configured() {
		if err := a.ConnectWarehouse(ctx); err != nil {
			infrastructure.WithError(a.Logger, err).WarnContext(ctx, "Warehouse unavailable")
		}
	}

	a.Server = &http.Server{
		Handler:      a.Handler(),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Server.Serve(ln)
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("version", Version),
		slog.String("address", ln.Addr().String()))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// ctx is already done; shutdown gets its own deadline.
	return a.Stop(context.WithoutCancel(ctx))
}

// Run listens on the configured port and serves until ctx is done
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.Config.Server.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", a.Config.Server.Port, err)
	}
	return a.Serve(ctx, ln)
}

// Stop gracefully stops the server and releases every resource
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	a.Close(shutdownCtx)
	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Close releases the warehouse pool and flushes telemetry
func (a *Application) Close(ctx context.Context) {
	if a.Pool != nil {
		a.Pool.Close()
		a.Pool = nil
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}
}
