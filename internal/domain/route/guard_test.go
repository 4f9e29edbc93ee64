package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	routes := append(DefaultRoutes("/login"),
		Route{Name: "HomeAlias", Path: "/home", Meta: Meta{Title: "Home", RequiresAuth: Bool(true)}},
		Route{Name: "Public", Path: "/public", Meta: Meta{Title: "Public", RequiresAuth: Bool(false)}},
	)
	tbl, err := NewTable(TableConfig{LoginPath: "/login", HomePath: "/"}, routes)
	require.NoError(t, err)
	return tbl
}

func TestEvaluate_DecisionTable(t *testing.T) {
	tbl := newTestTable(t)

	tests := []struct {
		name     string
		state    State
		path     string
		outcome  Outcome
		location string
	}{
		{name: "unauth protected page", state: Unauthenticated, path: "/home", outcome: RedirectLogin, location: "/login?redirect=/home"},
		{name: "unauth login page", state: Unauthenticated, path: "/login", outcome: Allow},
		{name: "auth login page", state: Authenticated, path: "/login", outcome: RedirectHome, location: "/"},
		{name: "auth protected page", state: Authenticated, path: "/demo", outcome: Allow},
		{name: "unauth public page", state: Unauthenticated, path: "/public", outcome: Allow},
		{name: "unauth default meta requires auth", state: Unauthenticated, path: "/clay-demo", outcome: RedirectLogin, location: "/login?redirect=/clay-demo"},
		{name: "unauth not found", state: Unauthenticated, path: "/does/not/exist", outcome: Allow},
		{name: "auth not found", state: Authenticated, path: "/does/not/exist", outcome: Allow},
		{name: "unauth explicit 404", state: Unauthenticated, path: "/404", outcome: Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tbl.Resolve(tt.path)
			got := tbl.Evaluate(tt.state, target, tt.path)
			assert.Equal(t, tt.outcome, got.Outcome)
			assert.Equal(t, tt.location, got.Location)
		})
	}
}

func TestEvaluate_RedirectTargetsAlwaysAllow(t *testing.T) {
	tbl := newTestTable(t)

	login := tbl.Login()
	assert.Equal(t, Allow, tbl.Evaluate(Unauthenticated, login, login.Path).Outcome)

	home := tbl.Home()
	assert.Equal(t, Allow, tbl.Evaluate(Authenticated, home, home.Path).Outcome)
}

func TestLoginLocation_PreservesQuery(t *testing.T) {
	tbl := newTestTable(t)

	loc := tbl.LoginLocation("/demo?tab=colors&page=2")
	assert.Equal(t, "/login?redirect=/demo%3Ftab%3Dcolors%26page%3D2", loc)
	assert.Equal(t, "/demo?tab=colors&page=2", tbl.ResumePath("redirect=/demo%3Ftab%3Dcolors%26page%3D2"))
}

func TestResumePath(t *testing.T) {
	tbl := newTestTable(t)

	assert.Equal(t, "/home", tbl.ResumePath("redirect=/home"))
	assert.Equal(t, "/", tbl.ResumePath(""))
	assert.Equal(t, "/", tbl.ResumePath("redirect=https://evil.example.com/x"))
	assert.Equal(t, "/", tbl.ResumePath("redirect=//evil.example.com"))
	assert.Equal(t, "/", tbl.ResumePath("redirect=/login"), "resuming to login would loop")
	assert.Equal(t, "/", tbl.ResumePath("%zz"))
}

func TestLoginLocation_NeverResumesToLogin(t *testing.T) {
	tbl := newTestTable(t)
	assert.Equal(t, "/login?redirect=/", tbl.LoginLocation("/login"))
}

func TestSafeRedirectPath(t *testing.T) {
	cases := map[string]string{
		"":                    "/",
		"/ok":                 "/ok",
		"/ok?x=1":             "/ok?x=1",
		"relative":            "/",
		"http://a.example/x":  "/",
		"//a.example/x":       "/",
		`/\a.example`:         "/",
		"javascript:alert(1)": "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeRedirectPath(in), "input %q", in)
	}
}

func TestPageTitle(t *testing.T) {
	r := Route{Meta: Meta{Title: "Demo"}}
	assert.Equal(t, "Demo - Console", PageTitle(r, "Console"))
	assert.Equal(t, "Console", PageTitle(Route{}, "Console"))
	assert.Equal(t, "Demo", PageTitle(r, ""))
}

func TestOutcomeAndStateStrings(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "redirect-login", RedirectLogin.String())
	assert.Equal(t, "redirect-home", RedirectHome.String())
	assert.Equal(t, "unknown", Outcome(99).String())
	assert.Equal(t, "authenticated", StateOf(true).String())
	assert.Equal(t, "unauthenticated", StateOf(false).String())
}
