package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - api.go: Backend API client configuration
//   - storage.go: Credential storage and Redis configuration
//   - http.go: HTTP server and route configuration
//   - observability.go: Logging, metrics and notifications
type AppConfig struct {
	// IsDev controls development mode behavior (verbose request logging, text logs).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Backend API configuration
	API APIConfig

	// Credential persistence configuration
	Storage StorageConfig
	Redis   RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP   HTTPConfig
	Routes RouteConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.API.Sanitize()
	c.Storage.Sanitize()
	c.HTTP.Sanitize()
	c.Routes.Sanitize()
	c.Observability.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// Validate reports configuration that cannot be repaired by Sanitize.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API_BASE_URL is required"))
	} else if selfTargeting(c.API.BaseURL, c.HTTP.Addr) {
		errs = append(errs, fmt.Errorf("API_BASE_URL %q points at the console's own HTTP_ADDR %q", c.API.BaseURL, c.HTTP.Addr))
	}
	switch c.Storage.Backend {
	case StorageBackendFile, StorageBackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend))
	}
	if c.Routes.LoginPath == c.Routes.HomePath {
		errs = append(errs, errors.New("ROUTE_LOGIN_PATH and ROUTE_HOME_PATH must differ"))
	}
	return errors.Join(errs...)
}

// selfTargeting reports whether baseURL resolves to the local listener on addr.
func selfTargeting(baseURL, addr string) bool {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return false
	}
	listenHost, listenPort, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}
	if port != listenPort || !isLoopbackHost(u.Hostname()) {
		return false
	}
	switch listenHost {
	case "", "0.0.0.0", "::":
		return true
	default:
		return isLoopbackHost(listenHost)
	}
}

func isLoopbackHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// This is called by Sanitize() to ensure IsDev is set correctly.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
