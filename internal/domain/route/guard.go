package route

import (
	"net/url"
	"strings"
)

// State is the guard's view of the session, recomputed on every evaluation.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

// StateOf converts an IsAuthenticated predicate result into a State.
func StateOf(authenticated bool) State {
	if authenticated {
		return Authenticated
	}
	return Unauthenticated
}

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Outcome is the terminal decision for one navigation attempt.
type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	default:
		return "unknown"
	}
}

// ResumeParam is the query parameter carrying the attempted path through login.
const ResumeParam = "redirect"

// Decision is the result of Evaluate. Location is set for redirects.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Evaluate applies the guard table to a navigation attempt:
//
//	error/not-found target           -> allow
//	auth page, authenticated         -> redirect home
//	auth page, unauthenticated       -> allow
//	page, authenticated              -> allow
//	page needing auth, unauthenticated -> redirect login with resume param
//	page not needing auth            -> allow
func (t *Table) Evaluate(state State, target Route, fullPath string) Decision {
	switch {
	case target.IsErrorPage():
		return Decision{Outcome: Allow}
	case target.IsAuthPage():
		if state == Authenticated {
			return Decision{Outcome: RedirectHome, Location: t.home.Path}
		}
		return Decision{Outcome: Allow}
	case state == Authenticated:
		return Decision{Outcome: Allow}
	case target.Meta.NeedsAuth():
		return Decision{Outcome: RedirectLogin, Location: t.LoginLocation(fullPath)}
	default:
		return Decision{Outcome: Allow}
	}
}

// LoginLocation builds the login URL carrying fullPath as the resume parameter.
// Slashes are left unescaped, which is valid in a query component.
func (t *Table) LoginLocation(fullPath string) string {
	resume := SafeRedirectPath(fullPath)
	if resume == t.login.Path {
		resume = t.home.Path
	}
	escaped := strings.ReplaceAll(url.QueryEscape(resume), "%2F", "/")
	return t.login.Path + "?" + ResumeParam + "=" + escaped
}

// ResumePath extracts and sanitises the resume parameter from a raw query.
// It falls back to home when absent or unsafe.
func (t *Table) ResumePath(rawQuery string) string {
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return t.home.Path
	}
	candidate := q.Get(ResumeParam)
	if candidate == "" {
		return t.home.Path
	}
	safe := SafeRedirectPath(candidate)
	if safe != candidate || t.Resolve(safe).IsAuthPage() {
		return t.home.Path
	}
	return safe
}

// SafeRedirectPath ensures the redirect is a same-origin relative path
// starting with "/" (not "//"). Returns "/" when invalid.
func SafeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	if strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, `/\`) {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

// PageTitle formats the document title for a route.
func PageTitle(r Route, appTitle string) string {
	switch {
	case r.Meta.Title == "":
		return appTitle
	case appTitle == "":
		return r.Meta.Title
	default:
		return r.Meta.Title + " - " + appTitle
	}
}
