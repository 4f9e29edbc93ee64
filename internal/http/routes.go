package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/mmk-ui-client/internal/domain/route"
	"github.com/target/mmk-ui-client/internal/observability/metrics"
)

// RouterServices holds everything the console router needs.
type RouterServices struct {
	Routes    *route.Table
	Guard     Guard
	Auth      AuthServiceInterface
	Dashboard Dashboard // optional; the home page renders without data when nil
	Renderer  *TemplateRenderer
	AppTitle  string

	// CSRF configures the double-submit token on sign in, sign out and schedule updates.
	CSRF CSRFConfig

	// Optional: Prometheus exposition and request metrics.
	MetricsHandler http.Handler
	MetricsPath    string
	HTTPMetrics    *metrics.HTTPMetrics

	Logger *slog.Logger
}

// NewRouter creates and configures the console HTTP router.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Routes == nil || services.Guard == nil || services.Auth == nil || services.Renderer == nil {
		return nil, errors.New("routes, guard, auth and renderer are required")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	pages := &PageHandlers{
		Renderer:  services.Renderer,
		Routes:    services.Routes,
		Session:   services.Auth,
		Dashboard: services.Dashboard,
		AppTitle:  services.AppTitle,
		Logger:    logger,
	}
	authHandlers := &AuthHandlers{
		Svc:    services.Auth,
		Routes: services.Routes,
		Pages:  pages,
		Logger: logger,
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	if services.MetricsHandler != nil {
		path := services.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, services.MetricsHandler)
	}

	csrfCfg := services.CSRF
	if csrfCfg.Logger == nil {
		csrfCfg.Logger = logger
	}
	csrf := CSRFProtection(csrfCfg)

	registerAuthRoutes(mux, authHandlers, services.Routes.Login().Path, csrf)
	if services.Dashboard != nil {
		mux.Handle("POST /schedule/{id}/complete", csrf(http.HandlerFunc(pages.CompleteSchedule)))
	}

	// Every other GET is a page behind the navigation guard. Pages issue the
	// CSRF token their forms post back.
	mux.Handle("GET /", csrf(NavigationGuard(services.Guard, logger)(http.HandlerFunc(pages.Page))))

	var h http.Handler = mux
	if services.HTTPMetrics != nil {
		h = services.HTTPMetrics.Middleware(routeLabel(services.Routes))(h)
	}
	return h, nil
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, loginPath string, csrf func(http.Handler) http.Handler) {
	mux.Handle("POST "+loginPath, csrf(http.HandlerFunc(h.Login)))
	mux.Handle("POST /logout", csrf(http.HandlerFunc(h.Logout)))
	mux.HandleFunc("GET /auth/status", h.Status)
}

// routeLabel keeps metric label cardinality bounded by mapping paths to route names.
func routeLabel(tbl *route.Table) func(*http.Request) string {
	return func(r *http.Request) string {
		switch r.URL.Path {
		case "/logout", "/auth/status":
			return r.URL.Path
		}
		if rt := tbl.Resolve(r.URL.Path); !rt.IsErrorPage() {
			return rt.Name
		}
		return "other"
	}
}
