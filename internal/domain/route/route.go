package route

// Package route models the console's route table and the navigation guard
// decision. It is pure: no HTTP, no session storage.

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Kind classifies a route for the guard.
type Kind int

const (
	// KindPage is a regular application page.
	KindPage Kind = iota
	// KindAuthPage is the login entry point (never shown to an authenticated session).
	KindAuthPage
	// KindError is an error or not-found page; it is never gated.
	KindError
)

// Meta is the fixed per-route metadata record.
type Meta struct {
	Title string
	// RequiresAuth defaults to true when nil.
	RequiresAuth *bool
	Icon         string
	Hidden       bool
	KeepAlive    bool
	Roles        []string
	Module       string
}

// NeedsAuth resolves RequiresAuth with its default.
func (m Meta) NeedsAuth() bool { return m.RequiresAuth == nil || *m.RequiresAuth }

// Bool returns a pointer to b, for literal Meta values.
func Bool(b bool) *bool { return &b }

// Route is one entry of the route table.
type Route struct {
	Name string
	Path string
	Kind Kind
	Meta Meta
}

// IsAuthPage reports whether the route is the login entry point.
func (r Route) IsAuthPage() bool { return r.Kind == KindAuthPage }

// IsErrorPage reports whether the route is an error/not-found page.
func (r Route) IsErrorPage() bool { return r.Kind == KindError }

// TableConfig names the two redirect targets the guard uses.
type TableConfig struct {
	LoginPath string
	HomePath  string
}

// Table is an immutable route table with guaranteed loop-free redirect targets.
type Table struct {
	byPath    map[string]Route
	ordered   []Route
	login     Route
	home      Route
	notFound  Route
	hasCustom bool
}

// ErrInvalidTable is returned when a table violates the redirect invariants.
var ErrInvalidTable = errors.New("invalid route table")

// NotFoundName is the name of the catch-all route.
const NotFoundName = "NotFound"

// NewTable validates routes and builds a Table.
// A KindError route is used as the not-found fallback; one is synthesised when absent.
func NewTable(cfg TableConfig, routes []Route) (*Table, error) {
	t := &Table{byPath: make(map[string]Route, len(routes))}

	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("%w: route %q path %q must start with /", ErrInvalidTable, r.Name, r.Path)
		}
		p := normalizePath(r.Path)
		if _, dup := t.byPath[p]; dup {
			return nil, fmt.Errorf("%w: duplicate path %q", ErrInvalidTable, p)
		}
		r.Path = p
		t.byPath[p] = r
		t.ordered = append(t.ordered, r)
		if r.Kind == KindError && !t.hasCustom {
			t.notFound = r
			t.hasCustom = true
		}
	}
	if !t.hasCustom {
		t.notFound = Route{Name: NotFoundName, Path: "/404", Kind: KindError, Meta: Meta{Title: "Page not found", Hidden: true}}
	}

	login, ok := t.byPath[normalizePath(cfg.LoginPath)]
	if !ok {
		return nil, fmt.Errorf("%w: login path %q is not registered", ErrInvalidTable, cfg.LoginPath)
	}
	home, ok := t.byPath[normalizePath(cfg.HomePath)]
	if !ok {
		return nil, fmt.Errorf("%w: home path %q is not registered", ErrInvalidTable, cfg.HomePath)
	}
	t.login = login
	t.home = home

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that the redirect targets always resolve to allow under
// the state that redirects to them:
//   - login is an auth page (allowed while unauthenticated)
//   - home is a plain page (allowed while authenticated)
func (t *Table) Validate() error {
	if !t.login.IsAuthPage() {
		return fmt.Errorf("%w: login route %q must be an auth page", ErrInvalidTable, t.login.Path)
	}
	if t.home.Kind != KindPage {
		return fmt.Errorf("%w: home route %q must be a regular page", ErrInvalidTable, t.home.Path)
	}
	return nil
}

// Login returns the login entry point route.
func (t *Table) Login() Route { return t.login }

// Home returns the home route.
func (t *Table) Home() Route { return t.home }

// NotFound returns the catch-all route.
func (t *Table) NotFound() Route { return t.notFound }

// Routes returns the registered routes in registration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Visible returns regular pages that should appear in navigation menus.
func (t *Table) Visible() []Route {
	var out []Route
	for _, r := range t.ordered {
		if r.Kind == KindPage && !r.Meta.Hidden {
			out = append(out, r)
		}
	}
	return out
}

// Resolve maps a path (query and fragment are ignored) to its route.
// Unknown paths resolve to the not-found route.
func (t *Table) Resolve(target string) Route {
	p := target
	if u, err := url.Parse(target); err == nil {
		p = u.Path
	}
	if r, ok := t.byPath[normalizePath(p)]; ok {
		return r
	}
	return t.notFound
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			return "/"
		}
	}
	return p
}

// DefaultRoutes returns the demo console's route table entries.
func DefaultRoutes(loginPath string) []Route {
	return []Route{
		{Name: "Home", Path: "/", Meta: Meta{Title: "Home", Icon: "mdi:home", Module: "home", RequiresAuth: Bool(true)}},
		{Name: "Demo", Path: "/demo", Meta: Meta{Title: "Demo", Icon: "mdi:palette", Module: "demo", RequiresAuth: Bool(true)}},
		{Name: "About", Path: "/about", Meta: Meta{Title: "About", Icon: "mdi:information-outline", RequiresAuth: Bool(true)}},
		{Name: "ClayDemo", Path: "/clay-demo", Meta: Meta{Title: "Clay utilities", Icon: "mdi:palette-advanced", Module: "styleTest"}},
		{Name: "StyleTest", Path: "/style-test", Meta: Meta{Title: "Style test", Icon: "mdi:palette-swatch", Module: "styleTest", Hidden: true}},
		{Name: "TailwindTest", Path: "/tailwind-test", Meta: Meta{Title: "Tailwind test", Icon: "mdi:tailwind", Module: "styleTest", Hidden: true}},
		{Name: "Login", Path: loginPath, Kind: KindAuthPage, Meta: Meta{Title: "Sign in", Module: "auth", RequiresAuth: Bool(false)}},
		{Name: NotFoundName, Path: "/404", Kind: KindError, Meta: Meta{Title: "Page not found", Module: "error", Hidden: true}},
	}
}
