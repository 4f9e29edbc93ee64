package httpx

import (
	"context"

	"github.com/target/mmk-ui-client/internal/domain/route"
)

// routeKey is an unexported context key type to avoid collisions across packages.
type routeKey struct{}

// SetRouteInContext returns a child context that carries the resolved route.
func SetRouteInContext(ctx context.Context, r route.Route) context.Context {
	return context.WithValue(ctx, routeKey{}, r)
}

// RouteFromContext returns the route resolved by NavigationGuard and a boolean indicating presence.
func RouteFromContext(ctx context.Context) (route.Route, bool) {
	r, ok := ctx.Value(routeKey{}).(route.Route)
	return r, ok
}
