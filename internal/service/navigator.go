package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/target/mmk-ui-client/internal/domain/route"
	"github.com/target/mmk-ui-client/internal/observability/metrics"
	"github.com/target/mmk-ui-client/internal/observability/notify"
)

// ErrRedirectLoop is returned when a guard redirect does not land on an allowed route.
var ErrRedirectLoop = errors.New("navigation redirect loop")

const defaultHistoryLimit = 50

// AuthState reports whether the session currently holds a credential.
type AuthState interface {
	IsAuthenticated() bool
}

// Subscriber registers session event sinks.
type Subscriber interface {
	Subscribe(name string, sink notify.Sink) (unsubscribe func())
}

// NavigatorOptions groups dependencies for Navigator.
type NavigatorOptions struct {
	Routes       *route.Table
	Session      AuthState
	Events       Subscriber
	Logger       *slog.Logger
	AppTitle     string
	HistoryLimit int
	Metrics      *metrics.SessionMetrics
}

// Resolution is the outcome of one navigation.
type Resolution struct {
	Route    route.Route
	FullPath string
	Title    string
	// Requested is the path asked for; it differs from FullPath after a redirect.
	Requested  string
	Redirected bool
	Decision   route.Decision
}

// Navigator applies the navigation guard to route transitions and tracks the current location.
type Navigator struct {
	routes   *route.Table
	session  AuthState
	logger   *slog.Logger
	appTitle string
	limit    int
	metrics  *metrics.SessionMetrics

	unsubscribe func()

	mu      sync.Mutex
	current *Resolution
	history []Resolution
}

// NewNavigator constructs a Navigator. When Events is set, the navigator subscribes
// to session invalidation and forces navigation to the login route.
func NewNavigator(opts NavigatorOptions) (*Navigator, error) {
	if opts.Routes == nil {
		return nil, errors.New("route table is required")
	}
	if opts.Session == nil {
		return nil, errors.New("session is required")
	}
	if err := opts.Routes.Validate(); err != nil {
		return nil, fmt.Errorf("validate routes: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	n := &Navigator{
		routes:      opts.Routes,
		session:     opts.Session,
		logger:      logger.With("component", "navigator"),
		appTitle:    opts.AppTitle,
		limit:       limit,
		metrics:     opts.Metrics,
		unsubscribe: func() {},
	}
	if opts.Events != nil {
		n.unsubscribe = opts.Events.Subscribe("navigator", notify.SinkFunc(n.onSessionInvalidated))
	}
	return n, nil
}

// Close detaches the navigator from session events.
func (n *Navigator) Close() {
	n.unsubscribe()
}

// Check evaluates the guard for fullPath without navigating.
func (n *Navigator) Check(fullPath string) (route.Route, route.Decision) {
	target := n.routes.Resolve(fullPath)
	d := n.routes.Evaluate(route.StateOf(n.session.IsAuthenticated()), target, fullPath)
	n.metrics.ObserveDecision(d.Outcome.String())
	return target, d
}

// Navigate moves to fullPath, following at most one guard redirect.
func (n *Navigator) Navigate(ctx context.Context, fullPath string) (Resolution, error) {
	target, d := n.Check(fullPath)
	res := Resolution{Route: target, FullPath: fullPath, Requested: fullPath, Decision: d}

	if d.Outcome != route.Allow {
		next, d2 := n.Check(d.Location)
		if d2.Outcome != route.Allow {
			n.logger.ErrorContext(ctx, "guard redirect did not settle",
				"requested", fullPath,
				"first", d.Location,
				"second", d2.Location,
			)
			return Resolution{}, fmt.Errorf("%w: %s -> %s -> %s", ErrRedirectLoop, fullPath, d.Location, d2.Location)
		}
		n.logger.DebugContext(ctx, "navigation redirected", "from", fullPath, "to", d.Location, "outcome", d.Outcome.String())
		res.Route = next
		res.FullPath = d.Location
		res.Redirected = true
	}

	res.Title = route.PageTitle(res.Route, n.appTitle)
	n.record(res)
	return res, nil
}

// Current returns the last successful navigation.
func (n *Navigator) Current() (Resolution, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Resolution{}, false
	}
	return *n.current, true
}

// History returns past navigations, oldest first.
func (n *Navigator) History() []Resolution {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Resolution, len(n.history))
	copy(out, n.history)
	return out
}

func (n *Navigator) record(res Resolution) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = &res
	n.history = append(n.history, res)
	if over := len(n.history) - n.limit; over > 0 {
		n.history = append(n.history[:0], n.history[over:]...)
	}
}

func (n *Navigator) onSessionInvalidated(ctx context.Context, ev notify.SessionInvalidated) error {
	loginPath := n.routes.Login().Path
	if cur, ok := n.Current(); ok && cur.Route.Path == loginPath {
		return nil
	}
	n.logger.InfoContext(ctx, "session invalidated; navigating to login", "reason", ev.Reason, "path", ev.Path)
	if _, err := n.Navigate(ctx, loginPath); err != nil {
		return fmt.Errorf("navigate to login: %w", err)
	}
	return nil
}
