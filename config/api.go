package config

import (
	"strings"
	"time"
)

// APIConfig configures the backend API client.
type APIConfig struct {
	// BaseURL is prefixed to every request path (e.g. "https://console.example.com/api").
	// It must not point back at the console's own HTTP_ADDR.
	BaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:9000/api"`

	// Timeout bounds a single request.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"10s"`

	// SuccessCode is the envelope code the backend uses for success.
	SuccessCode int `env:"API_SUCCESS_CODE" envDefault:"0"`

	// Debug logs every request and response at debug level.
	Debug bool `env:"API_DEBUG" envDefault:"false"`
}

// Sanitize applies guardrails to API client configuration values.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.Timeout <= 0 {
		a.Timeout = 10 * time.Second
	}
}
