package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/target/mmk-ui-client/config"
	"github.com/target/mmk-ui-client/internal/api"
	"github.com/target/mmk-ui-client/internal/apiclient"
	"github.com/target/mmk-ui-client/internal/domain/route"
	"github.com/target/mmk-ui-client/internal/observability/metrics"
	"github.com/target/mmk-ui-client/internal/observability/notify"
	"github.com/target/mmk-ui-client/internal/observability/notify/slack"
	"github.com/target/mmk-ui-client/internal/ports"
	"github.com/target/mmk-ui-client/internal/service"
)

// ServiceContainer holds the wired client runtime.
type ServiceContainer struct {
	Routes    *route.Table
	Sessions  *service.SessionStore
	Auth      *service.AuthService
	Navigator *service.Navigator
	Client    *apiclient.Client
	Health    *api.HealthAPI
	Events    *notify.Bus

	Observability ObservabilityContainer
}

// ObservabilityContainer groups the Prometheus registry and its collectors.
type ObservabilityContainer struct {
	Registry       *prometheus.Registry
	ClientMetrics  *metrics.ClientMetrics
	SessionMetrics *metrics.SessionMetrics
	HTTPMetrics    *metrics.HTTPMetrics
}

// ServiceDeps contains the dependencies needed to build services.
type ServiceDeps struct {
	Config  *config.AppConfig
	Storage ports.CredentialStorage
	Clock   clockwork.Clock
	Logger  *slog.Logger
}

// NewServices wires the session, API client and navigator, then restores any persisted credential.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil || deps.Storage == nil {
		return ServiceContainer{}, errors.New("config and storage are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	obs := buildObservability(cfg.Observability)

	routes, err := route.NewTable(route.TableConfig{
		LoginPath: cfg.Routes.LoginPath,
		HomePath:  cfg.Routes.HomePath,
	}, route.DefaultRoutes(cfg.Routes.LoginPath))
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build route table: %w", err)
	}

	sessions, err := service.NewSessionStore(service.SessionStoreOptions{
		Storage: deps.Storage,
		Logger:  logger,
		TTL:     cfg.Storage.TTL,
		Clock:   clock,
		Metrics: obs.SessionMetrics,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build session store: %w", err)
	}

	bus := notify.NewBus(notify.BusOptions{
		Logger: logger.With("component", "session_events"),
		Sinks:  buildNotificationSinks(logger, cfg.Observability.Notifications),
		// Slack retries with linear backoff; give every attempt its full timeout.
		AsyncTimeout: notificationBudget(cfg.Observability.Notifications),
	})

	client, err := apiclient.New(apiclient.Options{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout,
		SuccessCode: cfg.API.SuccessCode,
		Session:     sessions,
		Events:      bus,
		Logger:      logger,
		Debug:       cfg.API.Debug || cfg.IsDev,
		Metrics:     obs.ClientMetrics,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build api client: %w", err)
	}

	authSvc, err := service.NewAuthService(service.AuthServiceOptions{
		API:      api.NewAuthAPI(client),
		Sessions: sessions,
		Logger:   logger,
		Clock:    clock,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth service: %w", err)
	}

	nav, err := service.NewNavigator(service.NavigatorOptions{
		Routes:   routes,
		Session:  sessions,
		Events:   bus,
		Logger:   logger,
		AppTitle: cfg.Routes.AppTitle,
		Metrics:  obs.SessionMetrics,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build navigator: %w", err)
	}

	sessions.Restore(ctx)
	if sessions.IsAuthenticated() {
		if _, perr := authSvc.FetchProfile(ctx); perr != nil {
			logger.WarnContext(ctx, "profile refresh after restore failed", "error", perr)
		}
	}

	return ServiceContainer{
		Routes:        routes,
		Sessions:      sessions,
		Auth:          authSvc,
		Navigator:     nav,
		Client:        client,
		Health:        api.NewHealthAPI(client),
		Events:        bus,
		Observability: obs,
	}, nil
}

func buildObservability(cfg config.ObservabilityConfig) ObservabilityContainer {
	reg := metrics.NewRegistry()
	obs := ObservabilityContainer{Registry: reg}
	if !cfg.Metrics.Enabled {
		return obs
	}
	obs.ClientMetrics = metrics.NewClientMetrics(reg)
	obs.SessionMetrics = metrics.NewSessionMetrics(reg)
	obs.HTTPMetrics = metrics.NewHTTPMetrics(reg)
	return obs
}

func buildNotificationSinks(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) []notify.SinkRegistration {
	if !cfg.Enabled {
		return nil
	}

	sinks := make([]notify.SinkRegistration, 0, 1)
	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, notify.SinkRegistration{Name: "slack", Sink: client, Async: true})
		}
	}
	return sinks
}

// notificationBudget is the longest a detached delivery may take: every
// attempt at its timeout plus the linear backoff between attempts.
func notificationBudget(cfg config.ObservabilityNotificationsConfig) time.Duration {
	if cfg.Timeout <= 0 {
		return 0
	}
	attempts := time.Duration(max(cfg.RetryLimit, 0) + 1)
	backoff := attempts * (attempts - 1) / 2 * 200 * time.Millisecond
	return attempts*cfg.Timeout + backoff
}

// Close releases the navigator subscription and waits for pending
// background notifications until ctx is done.
func (c ServiceContainer) Close(ctx context.Context) error {
	if c.Navigator != nil {
		c.Navigator.Close()
	}
	return c.Events.Drain(ctx)
}
