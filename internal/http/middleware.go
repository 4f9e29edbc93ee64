package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/target/mmk-ui-client/internal/domain/route"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Guard evaluates a navigation for a full path (path plus query).
type Guard interface {
	Check(fullPath string) (route.Route, route.Decision)
}

// NavigationGuard returns a middleware that applies guard decisions to page requests.
// Allowed requests carry the resolved route in their context. Redirects use 303,
// or Hx-Redirect for htmx requests. Only GET and HEAD are evaluated.
func NavigationGuard(guard Guard, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			target, d := guard.Check(r.URL.RequestURI())
			if d.Outcome != route.Allow {
				logger.DebugContext(r.Context(), "navigation guarded",
					slog.String("path", r.URL.Path),
					slog.String("outcome", d.Outcome.String()),
					slog.String("location", d.Location),
				)
				redirect(w, r, d.Location)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetRouteInContext(r.Context(), target)))
		})
	}
}

// redirect sends the browser to location, using Hx-Redirect for htmx requests.
func redirect(w http.ResponseWriter, r *http.Request, location string) {
	if IsHTMX(r) {
		HTMX(w).Redirect(location)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
