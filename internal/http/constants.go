package httpx

import "github.com/target/mmk-ui-client/internal/domain/route"

// Content templates keyed by route name.
//
//nolint:gochecknoglobals // static read-only lookup for templates; avoids per-call allocations
var contentTemplates = map[string]string{
	"Home":             "home-content",
	route.NotFoundName: "notfound-content",
}

// ContentTemplateFor returns the content template for a route.
// Auth pages use the login form; everything else falls back to page-content.
func ContentTemplateFor(r route.Route) string {
	if name, ok := contentTemplates[r.Name]; ok {
		return name
	}
	switch {
	case r.IsAuthPage():
		return "login-content"
	case r.IsErrorPage():
		return "notfound-content"
	default:
		return "page-content"
	}
}
