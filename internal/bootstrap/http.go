package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/mmk-ui-client/config"
	httpx "github.com/target/mmk-ui-client/internal/http"
	"github.com/target/mmk-ui-client/internal/observability/metrics"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// NewHTTPServer builds the console HTTP server without starting it.
func NewHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if cfg.Services.Navigator == nil || cfg.Services.Auth == nil || cfg.Services.Routes == nil {
		return nil, errors.New("navigator, auth service and routes are required")
	}

	renderer, err := httpx.NewTemplateRenderer(httpx.TemplateRendererConfig{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("build renderer: %w", err)
	}

	services := httpx.RouterServices{
		Routes:      cfg.Services.Routes,
		Guard:       cfg.Services.Navigator,
		Auth:        cfg.Services.Auth,
		Renderer:    renderer,
		AppTitle:    appCfg.Routes.AppTitle,
		HTTPMetrics: cfg.Services.Observability.HTTPMetrics,
		CSRF:        httpx.CSRFConfig{CookieDomain: appCfg.HTTP.CookieDomain, Logger: logger.With("component", "csrf")},
		Logger:      logger,
	}
	if cfg.Services.Health != nil {
		services.Dashboard = cfg.Services.Health
	}
	if appCfg.Observability.Metrics.Enabled && cfg.Services.Observability.Registry != nil {
		services.MetricsHandler = metrics.Handler(cfg.Services.Observability.Registry)
		services.MetricsPath = appCfg.Observability.Metrics.Path
	}

	router, err := httpx.NewRouter(services)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	// Order: Recover -> Logging -> Router
	h := httpx.Logging(logger)(router)
	h = httpx.Recover(logger)(h)

	addr := appCfg.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}, nil
}

// ServeHTTP runs server until ctx is cancelled, then shuts it down gracefully.
func ServeHTTP(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return ShutdownHTTPServer(ShutdownConfig{
		Context: context.WithoutCancel(ctx),
		Server:  server,
		Logger:  logger,
	})
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(cfg.Context, 10*time.Second)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}
	return nil
}
