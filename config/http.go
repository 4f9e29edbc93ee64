package config

import "strings"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CookieDomain is the domain for console cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.Addr = strings.TrimSpace(h.Addr)
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	h.CookieDomain = strings.TrimSpace(h.CookieDomain)
}

// RouteConfig configures the navigation guard's well-known routes.
type RouteConfig struct {
	// LoginPath is the login page; some deployments use "/auth/login".
	LoginPath string `env:"ROUTE_LOGIN_PATH" envDefault:"/login"`

	// HomePath is where authenticated users land.
	HomePath string `env:"ROUTE_HOME_PATH" envDefault:"/"`

	// AppTitle is the suffix of every page title.
	AppTitle string `env:"APP_TITLE" envDefault:"Console"`
}

// Sanitize applies guardrails to route configuration values.
func (r *RouteConfig) Sanitize() {
	r.LoginPath = normalizeRoutePath(r.LoginPath, "/login")
	r.HomePath = normalizeRoutePath(r.HomePath, "/")
	r.AppTitle = strings.TrimSpace(r.AppTitle)
}

func normalizeRoutePath(p, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return fallback
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
